package onenote

import (
	"context"
	"fmt"

	"okeears-server/internal/domain"
	"okeears-server/internal/graph"

	"go.uber.org/zap"
)

// Locator resolves a (scope, subject) pair to the OneNote section that holds
// the subject's objectives, creating the notebook and section on demand.
type Locator struct {
	store        Store
	cache        *ContainerCache
	sharing      *SharingCoordinator
	notebookName string
	logger       *zap.Logger
}

// NewLocator returns a Locator. sharing may be nil, in which case new
// notebooks are left unshared.
func NewLocator(store Store, cache *ContainerCache, sharing *SharingCoordinator, notebookName string, logger *zap.Logger) *Locator {
	return &Locator{
		store:        store,
		cache:        cache,
		sharing:      sharing,
		notebookName: notebookName,
		logger:       logger,
	}
}

func (l *Locator) Cache() *ContainerCache {
	return l.cache
}

// ResolveContainer returns the subject's section id for scope. When no
// section exists and allowCreate is false it returns "" and a nil error.
func (l *Locator) ResolveContainer(ctx context.Context, scope domain.Scope, subjectID string, allowCreate bool) (string, error) {
	if id, ok := l.cache.Lookup(scope.ID, subjectID); ok {
		return id, nil
	}

	l.cache.SetState(scope.ID, subjectID, StateResolving)

	sections, err := l.store.FindSections(ctx, subjectID, scope.DisplayName)
	if err != nil {
		l.cache.SetState(scope.ID, subjectID, StateUnresolved)
		return "", fmt.Errorf("failed to find section %q: %w", scope.DisplayName, err)
	}

	// Same-named sections may exist in other notebooks of the subject.
	var matches []*Section
	for _, s := range sections {
		if s.ParentNotebook != nil && s.ParentNotebook.DisplayName == l.notebookName {
			matches = append(matches, s)
		}
	}

	switch len(matches) {
	case 1:
		l.cache.Put(scope.ID, subjectID, matches[0].ID)
		return matches[0].ID, nil
	case 0:
		if !allowCreate {
			l.cache.SetState(scope.ID, subjectID, StateEmpty)
			return "", nil
		}
		return l.createContainer(ctx, scope, subjectID)
	default:
		l.cache.SetState(scope.ID, subjectID, StateUnresolved)
		return "", fmt.Errorf("%w: %d sections named %q in notebook %q",
			ErrAmbiguousContainer, len(matches), scope.DisplayName, l.notebookName)
	}
}

func (l *Locator) createContainer(ctx context.Context, scope domain.Scope, subjectID string) (string, error) {
	notebookID, err := l.ensureNotebook(ctx, subjectID)
	if err != nil {
		l.cache.SetState(scope.ID, subjectID, StateUnresolved)
		return "", err
	}

	section, err := l.store.CreateSection(ctx, subjectID, notebookID, scope.DisplayName)
	if err != nil {
		l.cache.SetState(scope.ID, subjectID, StateUnresolved)
		return "", fmt.Errorf("failed to create section %q: %w", scope.DisplayName, err)
	}

	l.cache.Put(scope.ID, subjectID, section.ID)
	l.logger.Info("created objectives section",
		zap.String("subject_id", subjectID),
		zap.String("scope_id", scope.ID),
		zap.String("section_id", section.ID),
	)

	if l.sharing != nil {
		l.sharing.EnsureShared(ctx, subjectID, notebookID)
	}

	return section.ID, nil
}

// ensureNotebook creates the notebook, falling back to the existing one when
// the store reports a duplicate name.
func (l *Locator) ensureNotebook(ctx context.Context, subjectID string) (string, error) {
	nb, err := l.store.CreateNotebook(ctx, subjectID, l.notebookName)
	if err == nil {
		return nb.ID, nil
	}
	if !graph.IsDuplicateName(err) {
		return "", fmt.Errorf("failed to create notebook %q: %w", l.notebookName, err)
	}

	l.logger.Debug("notebook already exists", zap.String("subject_id", subjectID))
	return l.ResolveNotebook(ctx, subjectID)
}

// ResolveNotebook returns the id of the subject's notebook.
func (l *Locator) ResolveNotebook(ctx context.Context, subjectID string) (string, error) {
	notebooks, err := l.store.FindNotebooks(ctx, subjectID, l.notebookName)
	if err != nil {
		return "", fmt.Errorf("failed to find notebook %q: %w", l.notebookName, err)
	}

	switch len(notebooks) {
	case 1:
		return notebooks[0].ID, nil
	case 0:
		return "", fmt.Errorf("%w: notebook %q", ErrNotFound, l.notebookName)
	default:
		return "", fmt.Errorf("%w: %d notebooks named %q", ErrAmbiguousContainer, len(notebooks), l.notebookName)
	}
}
