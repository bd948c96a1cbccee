package domain

import "time"

type CreateSessionRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
	Resource    string `json:"resource"`
	ExpiresIn   int64  `json:"expires_in" validate:"omitempty,min=60"`
}

type SessionResponse struct {
	User        *Subject  `json:"user"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}
