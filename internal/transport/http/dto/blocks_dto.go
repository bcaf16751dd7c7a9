package dto

import (
	"github.com/google/uuid"

	"github.com/filsammy/dating-app-whitecloak/internal/domain/model"
)

type BlockRequest struct {
	TargetUserID string `json:"targetUserId" validate:"required,uuid"`
}

type BlockResponse struct {
	Message       string    `json:"message"`
	BlockedUserID uuid.UUID `json:"blockedUserId"`
}

type UnblockResponse struct {
	Message         string    `json:"message"`
	UnblockedUserID uuid.UUID `json:"unblockedUserId"`
}

type BlockedListResponse struct {
	Blocked []model.BlockedAccount `json:"blocked"`
	Count   int                    `json:"count"`
}
