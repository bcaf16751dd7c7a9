package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/filsammy/dating-app-whitecloak/internal/domain/model"
)

type DiscoverResponse struct {
	Matches []model.Profile `json:"matches"`
	Count   int             `json:"count"`
}

type MatchesResponse struct {
	Matches []model.Match `json:"matches"`
	Count   int           `json:"count"`
}

type MatchCheckResponse struct {
	IsMatched bool       `json:"isMatched"`
	MatchID   *uuid.UUID `json:"matchId"`
	MatchedAt *time.Time `json:"matchedAt,omitempty"`
}
