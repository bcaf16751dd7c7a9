package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/filsammy/dating-app-whitecloak/internal/pkg/validate"
	blocksvc "github.com/filsammy/dating-app-whitecloak/internal/services/blocks"
	"github.com/filsammy/dating-app-whitecloak/internal/transport/http/dto"
	httperrors "github.com/filsammy/dating-app-whitecloak/internal/transport/http/errors"
)

type BlocksHandler struct {
	service *blocksvc.Service
	log     *zap.Logger
}

func NewBlocksHandler(service *blocksvc.Service, log *zap.Logger) *BlocksHandler {
	return &BlocksHandler{service: service, log: log}
}

func (h *BlocksHandler) Block(w http.ResponseWriter, r *http.Request) {
	identity, targetID, ok := h.readTarget(w, r)
	if !ok {
		return
	}

	if _, err := h.service.Block(r.Context(), identity, targetID); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.BlockResponse{
		Message:       "User blocked successfully",
		BlockedUserID: targetID,
	})
}

func (h *BlocksHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	identity, targetID, ok := h.readTarget(w, r)
	if !ok {
		return
	}

	if err := h.service.Unblock(r.Context(), identity, targetID); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UnblockResponse{
		Message:         "User unblocked successfully",
		UnblockedUserID: targetID,
	})
}

func (h *BlocksHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "BLOCK_SERVICE_UNAVAILABLE", "block service is unavailable")
		return
	}

	blocked, err := h.service.ListBlocked(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.BlockedListResponse{Blocked: blocked, Count: len(blocked)})
}

func (h *BlocksHandler) readTarget(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	if h.service == nil {
		writeInternal(w, "BLOCK_SERVICE_UNAVAILABLE", "block service is unavailable")
		return uuid.Nil, uuid.Nil, false
	}

	var req dto.BlockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return uuid.Nil, uuid.Nil, false
	}
	if err := validate.Struct(req); err != nil {
		writeFieldError(w, err, "MISSING_FIELDS")
		return uuid.Nil, uuid.Nil, false
	}

	return identity.UserID, uuid.MustParse(req.TargetUserID), true
}
