package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/filsammy/dating-app-whitecloak/internal/domain/enums"
)

type Profile struct {
	UserID       uuid.UUID      `json:"userId"`
	Name         string         `json:"name"`
	Age          int            `json:"age"`
	Bio          string         `json:"bio"`
	Picture      string         `json:"picture"`
	Gender       enums.Gender   `json:"gender"`
	InterestedIn []enums.Gender `json:"interestedIn"`
	Interests    []string       `json:"interests"`
	Location     *GeoPoint      `json:"location,omitempty"`
	DistanceKM   *float64       `json:"distanceKm,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// GeoPoint is stored and serialized longitude first.
type GeoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

func (p GeoPoint) Coordinates() [2]float64 {
	return [2]float64{p.Lon, p.Lat}
}
