package domain

import "time"

type ChangeOperation string

const (
	ChangeCreated ChangeOperation = "created"
	ChangeUpdated ChangeOperation = "updated"
	ChangeDeleted ChangeOperation = "deleted"
)

// ObjectiveChange is pushed to everyone watching SubjectID after a write.
type ObjectiveChange struct {
	SubjectID   string          `json:"subject_id"`
	ScopeID     string          `json:"scope_id"`
	ObjectiveID string          `json:"objective_id"`
	Operation   ChangeOperation `json:"operation"`
	Objective   *Objective      `json:"objective,omitempty"`
	ActorID     string          `json:"actor_id"`
	ChangedAt   time.Time       `json:"changed_at"`
}
