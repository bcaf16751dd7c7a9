package handlers

import (
	"net/http"

	"go.uber.org/zap"

	profilesvc "github.com/filsammy/dating-app-whitecloak/internal/services/profiles"
	"github.com/filsammy/dating-app-whitecloak/internal/transport/http/dto"
	httperrors "github.com/filsammy/dating-app-whitecloak/internal/transport/http/errors"
)

type ProfileHandler struct {
	service *profilesvc.Service
	log     *zap.Logger
}

func NewProfileHandler(service *profilesvc.Service, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{service: service, log: log}
}

func (h *ProfileHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	var req dto.UpsertProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	profile, created, err := h.service.Upsert(r.Context(), identity.UserID, profilesvc.UpsertInput{
		Name:         req.Name,
		Age:          req.Age,
		Bio:          req.Bio,
		Picture:      req.Picture,
		Gender:       req.Gender,
		InterestedIn: req.InterestedIn,
		Interests:    req.Interests,
		Location:     req.Location,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	status, message := http.StatusOK, "Profile updated successfully"
	if created {
		status, message = http.StatusCreated, "Profile created successfully"
	}
	httperrors.Write(w, status, dto.ProfileSavedResponse{Message: message, Profile: profile})
}

func (h *ProfileHandler) Mine(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	profile, err := h.service.GetMine(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ProfileResponse{Profile: profile})
}

func (h *ProfileHandler) ByUserID(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}
	userID, ok := uuidParam(w, r, "userId")
	if !ok {
		return
	}

	profile, err := h.service.GetByUserID(r.Context(), identity.UserID, userID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ProfileResponse{Profile: profile})
}

func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	if err := h.service.Delete(r.Context(), identity.UserID); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MessageResponse{Message: "Profile deleted successfully"})
}
