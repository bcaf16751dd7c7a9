package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/filsammy/dating-app-whitecloak/internal/domain/errs"
	"github.com/filsammy/dating-app-whitecloak/internal/pkg/validate"
	authsvc "github.com/filsammy/dating-app-whitecloak/internal/services/auth"
	ratesvc "github.com/filsammy/dating-app-whitecloak/internal/services/rate"
	httperrors "github.com/filsammy/dating-app-whitecloak/internal/transport/http/errors"
)

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

// writeError renders domain errors with their own code and status. Anything
// else is an infrastructure failure and is logged before answering 500.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var tooFast ratesvc.TooFastError
	if errors.As(err, &tooFast) {
		httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
			Code:          "TOO_FAST",
			Message:       "too many requests, slow down",
			RetryAfterSec: tooFast.RetryAfterSec,
		})
		return
	}

	if domainErr, ok := errs.As(err); ok {
		status := httperrors.StatusOf(domainErr.Kind)
		if status >= http.StatusInternalServerError && log != nil {
			log.Warn("request degraded", zap.String("path", r.URL.Path), zap.Error(err))
		}
		httperrors.Write(w, status, httperrors.APIError{Code: domainErr.Code, Message: domainErr.Message})
		return
	}

	if log != nil {
		log.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeInternal(w, "INTERNAL_ERROR", "internal server error")
}

// writeFieldError maps a request validation failure to the code of the
// missing or malformed field.
func writeFieldError(w http.ResponseWriter, err error, missingCode string) {
	var fieldErr *validate.FieldError
	if errors.As(err, &fieldErr) {
		if fieldErr.Missing() {
			writeBadRequest(w, missingCode, fieldErr.Field+" is required")
			return
		}
		writeBadRequest(w, "INVALID_ID", fieldErr.Field+" is not a valid id")
		return
	}
	writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (authsvc.Identity, bool) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return authsvc.Identity{}, false
	}
	return identity, true
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		writeBadRequest(w, "MISSING_FIELDS", name+" is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeBadRequest(w, "INVALID_ID", name+" is not a valid id")
		return uuid.Nil, false
	}
	return id, true
}
