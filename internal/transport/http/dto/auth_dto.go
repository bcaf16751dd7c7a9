package dto

import "github.com/google/uuid"

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AccountResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

type RegisterResponse struct {
	Message string          `json:"message"`
	User    AccountResponse `json:"user"`
	Access  string          `json:"access"`
}

type LoginResponse struct {
	Access string `json:"access"`
}

type MeResponse struct {
	User AccountResponse `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
