package model

import (
	"time"

	"github.com/google/uuid"
)

// Swipe is the directed edge from one account toward another. MatchID is set
// on both directions in the same transaction that flips IsMatch.
type Swipe struct {
	ID        uuid.UUID  `json:"id"`
	FromUser  uuid.UUID  `json:"fromUser"`
	ToUser    uuid.UUID  `json:"toUser"`
	Liked     bool       `json:"liked"`
	IsMatch   bool       `json:"isMatch"`
	MatchID   *uuid.UUID `json:"matchId,omitempty"`
	SkippedAt *time.Time `json:"skippedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}
