package model

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID         uuid.UUID `json:"id"`
	MatchID    uuid.UUID `json:"matchId"`
	SenderID   uuid.UUID `json:"senderId"`
	ReceiverID uuid.UUID `json:"receiverId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Conversation struct {
	MatchID      uuid.UUID `json:"matchId"`
	OtherUserID  uuid.UUID `json:"otherUserId"`
	LastMessage  *Message  `json:"lastMessage"`
	MessageCount int       `json:"messageCount"`
	MatchedAt    time.Time `json:"matchedAt"`
}
