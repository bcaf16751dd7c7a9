package dto

import "github.com/filsammy/dating-app-whitecloak/internal/domain/model"

type SendMessageRequest struct {
	MatchID    string `json:"matchId" validate:"required,uuid"`
	ReceiverID string `json:"receiverId" validate:"required,uuid"`
	Content    string `json:"content" validate:"required"`
}

type SendMessageResponse struct {
	Message string        `json:"message"`
	Data    model.Message `json:"data"`
}

type MessagesResponse struct {
	Messages []model.Message `json:"messages"`
	Count    int             `json:"count"`
}

type ConversationsResponse struct {
	Conversations []model.Conversation `json:"conversations"`
	Count         int                  `json:"count"`
}
