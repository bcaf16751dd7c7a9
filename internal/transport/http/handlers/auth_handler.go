package handlers

import (
	"net/http"

	"go.uber.org/zap"

	accountsvc "github.com/filsammy/dating-app-whitecloak/internal/services/accounts"
	authsvc "github.com/filsammy/dating-app-whitecloak/internal/services/auth"
	"github.com/filsammy/dating-app-whitecloak/internal/transport/http/dto"
	httperrors "github.com/filsammy/dating-app-whitecloak/internal/transport/http/errors"
)

type AuthHandler struct {
	accounts *accountsvc.Service
	sessions *authsvc.Service
	log      *zap.Logger
}

func NewAuthHandler(accounts *accountsvc.Service, sessions *authsvc.Service, log *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, sessions: sessions, log: log}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h.accounts == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.CredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	res, err := h.accounts.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.RegisterResponse{
		Message: "Registered successfully",
		User: dto.AccountResponse{
			ID:    res.Account.ID,
			Email: res.Account.Email,
		},
		Access: res.AccessToken,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.accounts == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.CredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	token, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.LoginResponse{Access: token})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.accounts == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	account, err := h.accounts.Me(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MeResponse{
		User: dto.AccountResponse{ID: account.ID, Email: account.Email},
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.sessions == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	if err := h.sessions.Logout(r.Context(), identity.SID); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MessageResponse{Message: "Logged out successfully"})
}

// LogoutAll revokes every session of the caller, including the current one.
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.sessions == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	if err := h.sessions.LogoutAll(r.Context(), identity.UserID); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MessageResponse{Message: "Logged out from all sessions"})
}
