package domain

import "time"

type Scope struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type SelectScopeRequest struct {
	ScopeID string `json:"scope_id" validate:"required"`
}

// Preference is a user's persisted scope selection.
type Preference struct {
	UserID    string    `json:"user_id"`
	ScopeID   string    `json:"scope_id"`
	UpdatedAt time.Time `json:"updated_at"`
}
