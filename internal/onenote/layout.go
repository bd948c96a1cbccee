package onenote

import (
	"context"
	"fmt"

	"okeears-server/internal/domain"
	"okeears-server/pkg/shortid"
)

// LayoutKind names one of the two page formats objectives are stored in.
// The formats are incompatible and nothing converts between them.
type LayoutKind string

const (
	// LayoutList keeps one page per subject with every objective as a list
	// item and its key results as a nested list.
	LayoutList LayoutKind = "list"
	// LayoutTable keeps one page per objective, titled with the statement,
	// with a table row per key result.
	LayoutTable LayoutKind = "table"
)

// Layout reads and writes objectives inside a resolved section.
type Layout interface {
	Kind() LayoutKind
	List(ctx context.Context, subjectID, sectionID string) ([]*domain.Objective, error)
	Create(ctx context.Context, subjectID, sectionID string, obj *domain.Objective) (*domain.Objective, error)
	Update(ctx context.Context, subjectID, sectionID string, obj *domain.Objective) (*domain.Objective, error)
	Delete(ctx context.Context, subjectID, sectionID, objectiveID string) error
}

// NewLayout returns the layout for kind. pageTitle is only used by the list
// layout.
func NewLayout(kind LayoutKind, store Store, pageTitle string, newID shortid.Generator) (Layout, error) {
	if newID == nil {
		newID = shortid.New
	}

	switch kind {
	case LayoutList:
		return &ListLayout{store: store, pageTitle: pageTitle, newID: newID}, nil
	case LayoutTable:
		return &TableLayout{store: store, newID: newID}, nil
	default:
		return nil, fmt.Errorf("unknown page layout %q", kind)
	}
}

// assignKeyResultIDs gives every key result without an id a fresh one and
// marks it pending until the row is written.
func assignKeyResultIDs(krs []domain.KeyResult, newID shortid.Generator) {
	for i := range krs {
		if krs[i].ID == "" || krs[i].ID == headerRowID {
			krs[i].ID = newID()
			krs[i].Pending = true
		}
	}
}

// confirmKeyResultIDs marks ids as durable once the page holding them has
// been written.
func confirmKeyResultIDs(krs []domain.KeyResult) {
	for i := range krs {
		krs[i].Pending = false
	}
}
