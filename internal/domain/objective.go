package domain

import "time"

type Objective struct {
	ID          string      `json:"id"`
	Statement   string      `json:"statement"`
	CreatedAt   time.Time   `json:"created_at"`
	ModifiedAt  time.Time   `json:"modified_at"`
	KeyResults  []KeyResult `json:"key_results"`
	ExternalURL string      `json:"external_url,omitempty"`
}

// KeyResult is a measurable sub-goal of an objective. Pending is set when ID
// was generated locally and has not been written to the page yet; the id
// becomes durable once the row is saved with it.
type KeyResult struct {
	ID          string `json:"id"`
	Pending     bool   `json:"pending,omitempty"`
	Statement   string `json:"statement"`
	Percent     int    `json:"percent"`
	Description string `json:"description,omitempty"`
}

type KeyResultInput struct {
	ID          string `json:"id" validate:"omitempty,max=64"`
	Statement   string `json:"statement" validate:"required,max=1024"`
	Percent     int    `json:"percent" validate:"min=0,max=100"`
	Description string `json:"description" validate:"max=4096"`
}

type CreateObjectiveRequest struct {
	Statement  string           `json:"statement" validate:"required,max=1024"`
	KeyResults []KeyResultInput `json:"key_results" validate:"max=50,dive"`
}

type UpdateObjectiveRequest struct {
	Statement  string           `json:"statement" validate:"required,max=1024"`
	KeyResults []KeyResultInput `json:"key_results" validate:"max=50,dive"`
}

// ObjectiveList is what a subject's OKR view shows under one scope.
type ObjectiveList struct {
	SubjectID  string       `json:"subject_id"`
	ScopeID    string       `json:"scope_id"`
	ReadOnly   bool         `json:"read_only"`
	Objectives []*Objective `json:"objectives"`
}
