package dto

import "github.com/filsammy/dating-app-whitecloak/internal/domain/model"

// SwipeRequest keeps Liked as a pointer so an absent value is distinguishable
// from an explicit skip.
type SwipeRequest struct {
	ToUserID string `json:"toUserId" validate:"required,uuid"`
	Liked    *bool  `json:"liked" validate:"required"`
}

type SwipeResponse struct {
	IsMatch bool        `json:"isMatch"`
	Message string      `json:"message"`
	Match   model.Swipe `json:"match"`
}
