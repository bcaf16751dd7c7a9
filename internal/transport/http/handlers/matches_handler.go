package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/filsammy/dating-app-whitecloak/internal/pkg/validate"
	discoverysvc "github.com/filsammy/dating-app-whitecloak/internal/services/discovery"
	matchsvc "github.com/filsammy/dating-app-whitecloak/internal/services/matches"
	swipesvc "github.com/filsammy/dating-app-whitecloak/internal/services/swipes"
	"github.com/filsammy/dating-app-whitecloak/internal/transport/http/dto"
	httperrors "github.com/filsammy/dating-app-whitecloak/internal/transport/http/errors"
)

var errInvalidQuery = errors.New("invalid query")

type MatchesHandler struct {
	discovery *discoverysvc.Service
	swipes    *swipesvc.Service
	matches   *matchsvc.Service
	log       *zap.Logger
}

func NewMatchesHandler(discovery *discoverysvc.Service, swipes *swipesvc.Service, matches *matchsvc.Service, log *zap.Logger) *MatchesHandler {
	return &MatchesHandler{discovery: discovery, swipes: swipes, matches: matches, log: log}
}

func (h *MatchesHandler) Discover(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.discovery == nil {
		writeInternal(w, "DISCOVERY_SERVICE_UNAVAILABLE", "discovery service is unavailable")
		return
	}

	q, err := parseDiscoverQuery(r)
	if err != nil {
		writeBadRequest(w, "INVALID_QUERY", "discovery parameters must be numeric")
		return
	}

	profiles, err := h.discovery.Discover(r.Context(), identity.UserID, q)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.DiscoverResponse{Matches: profiles, Count: len(profiles)})
}

func (h *MatchesHandler) Swipe(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.swipes == nil {
		writeInternal(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	var req dto.SwipeRequest
	if err := decodeJSON(r, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field == "liked" {
			writeBadRequest(w, "INVALID_LIKED_STATUS", "liked must be a boolean")
			return
		}
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		var fieldErr *validate.FieldError
		if errors.As(err, &fieldErr) && fieldErr.Field == "liked" {
			writeBadRequest(w, "INVALID_LIKED_STATUS", "liked must be a boolean")
			return
		}
		writeFieldError(w, err, "MISSING_USER_ID")
		return
	}

	result, err := h.swipes.Swipe(r.Context(), identity.UserID, uuid.MustParse(req.ToUserID), *req.Liked)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.SwipeResponse{
		IsMatch: result.IsMatch,
		Message: swipesvc.ResultMessage(result.Outcome),
		Match:   result.Swipe,
	})
}

func (h *MatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.matches == nil {
		writeInternal(w, "MATCH_SERVICE_UNAVAILABLE", "match service is unavailable")
		return
	}

	items, err := h.matches.List(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MatchesResponse{Matches: items, Count: len(items)})
}

func (h *MatchesHandler) Check(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.matches == nil {
		writeInternal(w, "MATCH_SERVICE_UNAVAILABLE", "match service is unavailable")
		return
	}
	otherID, ok := uuidParam(w, r, "otherUserId")
	if !ok {
		return
	}

	res, err := h.matches.Check(r.Context(), identity.UserID, otherID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MatchCheckResponse{
		IsMatched: res.IsMatched,
		MatchID:   res.MatchID,
		MatchedAt: res.MatchedAt,
	})
}

func (h *MatchesHandler) Unmatch(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.matches == nil {
		writeInternal(w, "MATCH_SERVICE_UNAVAILABLE", "match service is unavailable")
		return
	}
	otherID, ok := uuidParam(w, r, "matchedUserId")
	if !ok {
		return
	}

	if _, err := h.matches.Unmatch(r.Context(), identity.UserID, otherID); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MessageResponse{Message: "Unmatched successfully"})
}

func parseDiscoverQuery(r *http.Request) (discoverysvc.Query, error) {
	values := r.URL.Query()
	var q discoverysvc.Query

	if raw := strings.TrimSpace(values.Get("maxDistance")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return discoverysvc.Query{}, errInvalidQuery
		}
		q.MaxDistanceKM = &v
	}
	if raw := strings.TrimSpace(values.Get("minAge")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return discoverysvc.Query{}, errInvalidQuery
		}
		q.MinAge = &v
	}
	if raw := strings.TrimSpace(values.Get("maxAge")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return discoverysvc.Query{}, errInvalidQuery
		}
		q.MaxAge = &v
	}
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return discoverysvc.Query{}, errInvalidQuery
		}
		q.Limit = v
	}

	return q, nil
}
