package model

import (
	"time"

	"github.com/google/uuid"
)

type Match struct {
	MatchID   uuid.UUID `json:"matchId"`
	UserID    uuid.UUID `json:"userId"`
	Profile   *Profile  `json:"profile"`
	MatchedAt time.Time `json:"matchedAt"`
}

// MatchPair is both directional records of one match as seen by the gate.
type MatchPair struct {
	MatchID uuid.UUID
	UserA   uuid.UUID
	UserB   uuid.UUID
	AToB    bool
	BToA    bool
}

func (p MatchPair) Confirmed() bool {
	return p.AToB && p.BToA
}

func (p MatchPair) Has(userID uuid.UUID) bool {
	return p.UserA == userID || p.UserB == userID
}

func (p MatchPair) Other(userID uuid.UUID) uuid.UUID {
	if p.UserA == userID {
		return p.UserB
	}
	return p.UserA
}
