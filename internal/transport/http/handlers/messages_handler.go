package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/filsammy/dating-app-whitecloak/internal/pkg/validate"
	messagesvc "github.com/filsammy/dating-app-whitecloak/internal/services/messages"
	"github.com/filsammy/dating-app-whitecloak/internal/transport/http/dto"
	httperrors "github.com/filsammy/dating-app-whitecloak/internal/transport/http/errors"
)

type MessagesHandler struct {
	service *messagesvc.Service
	log     *zap.Logger
}

func NewMessagesHandler(service *messagesvc.Service, log *zap.Logger) *MessagesHandler {
	return &MessagesHandler{service: service, log: log}
}

func (h *MessagesHandler) Send(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "MESSAGE_SERVICE_UNAVAILABLE", "message service is unavailable")
		return
	}

	var req dto.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeFieldError(w, err, "MISSING_FIELDS")
		return
	}

	msg, err := h.service.Send(r.Context(), identity.UserID, messagesvc.SendInput{
		MatchID:    uuid.MustParse(req.MatchID),
		ReceiverID: uuid.MustParse(req.ReceiverID),
		Content:    req.Content,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.SendMessageResponse{
		Message: "Message sent successfully",
		Data:    msg,
	})
}

func (h *MessagesHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "MESSAGE_SERVICE_UNAVAILABLE", "message service is unavailable")
		return
	}
	matchID, ok := uuidParam(w, r, "matchId")
	if !ok {
		return
	}

	items, err := h.service.List(r.Context(), identity.UserID, matchID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MessagesResponse{Messages: items, Count: len(items)})
}

func (h *MessagesHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "MESSAGE_SERVICE_UNAVAILABLE", "message service is unavailable")
		return
	}

	items, err := h.service.Conversations(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ConversationsResponse{Conversations: items, Count: len(items)})
}

func (h *MessagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "MESSAGE_SERVICE_UNAVAILABLE", "message service is unavailable")
		return
	}
	messageID, ok := uuidParam(w, r, "messageId")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), identity.UserID, messageID); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MessageResponse{Message: "Message deleted successfully"})
}
