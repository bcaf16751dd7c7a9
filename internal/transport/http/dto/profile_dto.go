package dto

import "github.com/filsammy/dating-app-whitecloak/internal/domain/model"

// UpsertProfileRequest carries location as [longitude, latitude].
type UpsertProfileRequest struct {
	Name         string    `json:"name"`
	Age          int       `json:"age"`
	Bio          string    `json:"bio"`
	Picture      string    `json:"picture"`
	Gender       string    `json:"gender"`
	InterestedIn []string  `json:"interestedIn"`
	Interests    []string  `json:"interests"`
	Location     []float64 `json:"location"`
}

type ProfileResponse struct {
	Profile model.Profile `json:"profile"`
}

type ProfileSavedResponse struct {
	Message string        `json:"message"`
	Profile model.Profile `json:"profile"`
}
