package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"okeears-server/internal/domain"
	"okeears-server/internal/onenote"

	"go.uber.org/zap"
)

// ContainerLocator resolves where a subject's objectives live.
type ContainerLocator interface {
	ResolveContainer(ctx context.Context, scope domain.Scope, subjectID string, allowCreate bool) (string, error)
	ResolveNotebook(ctx context.Context, subjectID string) (string, error)
}

type NotebookSharing interface {
	Share(ctx context.Context, subjectID, notebookID string) error
	CheckShared(ctx context.Context, subjectID, notebookID string) (domain.ShareStatus, error)
}

// ChangeNotifier receives every successful write.
type ChangeNotifier interface {
	NotifyObjectiveChange(change *domain.ObjectiveChange)
}

type OKRService struct {
	locator  ContainerLocator
	layout   onenote.Layout
	scopes   *ScopeService
	sharing  NotebookSharing
	notifier ChangeNotifier
	logger   *zap.Logger
}

func NewOKRService(
	locator ContainerLocator,
	layout onenote.Layout,
	scopes *ScopeService,
	sharing NotebookSharing,
	notifier ChangeNotifier,
	logger *zap.Logger,
) *OKRService {
	return &OKRService{
		locator:  locator,
		layout:   layout,
		scopes:   scopes,
		sharing:  sharing,
		notifier: notifier,
		logger:   logger,
	}
}

// List returns the subject's objectives under the actor's selected scope.
// Only the subject's own view may create the container; everyone else sees
// an empty, read-only list until it exists.
func (s *OKRService) List(ctx context.Context, actorID, subjectID string) (*domain.ObjectiveList, error) {
	scope, err := s.scopes.Selected(ctx, actorID)
	if err != nil {
		return nil, err
	}

	list := &domain.ObjectiveList{
		SubjectID:  subjectID,
		ScopeID:    scope.ID,
		ReadOnly:   actorID != subjectID,
		Objectives: []*domain.Objective{},
	}

	sectionID, err := s.locator.ResolveContainer(ctx, scope, subjectID, actorID == subjectID)
	if err != nil {
		return nil, err
	}
	if sectionID == "" {
		return list, nil
	}

	objectives, err := s.layout.List(ctx, subjectID, sectionID)
	if err != nil {
		return nil, err
	}
	list.Objectives = objectives
	return list, nil
}

func (s *OKRService) Create(ctx context.Context, actorID, subjectID string, req *domain.CreateObjectiveRequest) (*domain.Objective, error) {
	if actorID != subjectID {
		return nil, ErrReadOnly
	}

	scope, err := s.scopes.Selected(ctx, actorID)
	if err != nil {
		return nil, err
	}

	sectionID, err := s.locator.ResolveContainer(ctx, scope, subjectID, true)
	if err != nil {
		return nil, err
	}

	obj := &domain.Objective{
		Statement:  req.Statement,
		KeyResults: keyResultsFromInput(req.KeyResults),
	}
	created, err := s.layout.Create(ctx, subjectID, sectionID, obj)
	if err != nil {
		return nil, err
	}

	s.notify(actorID, scope, domain.ChangeCreated, created.ID, created)
	return created, nil
}

func (s *OKRService) Update(ctx context.Context, actorID, subjectID, objectiveID string, req *domain.UpdateObjectiveRequest) (*domain.Objective, error) {
	if actorID != subjectID {
		return nil, ErrReadOnly
	}

	scope, sectionID, err := s.existingContainer(ctx, actorID, subjectID)
	if err != nil {
		return nil, err
	}

	obj := &domain.Objective{
		ID:         objectiveID,
		Statement:  req.Statement,
		KeyResults: keyResultsFromInput(req.KeyResults),
	}
	updated, err := s.layout.Update(ctx, subjectID, sectionID, obj)
	if err != nil {
		return nil, err
	}

	s.notify(actorID, scope, domain.ChangeUpdated, updated.ID, updated)
	return updated, nil
}

func (s *OKRService) Delete(ctx context.Context, actorID, subjectID, objectiveID string) error {
	if actorID != subjectID {
		return ErrReadOnly
	}

	scope, sectionID, err := s.existingContainer(ctx, actorID, subjectID)
	if err != nil {
		return err
	}

	if err := s.layout.Delete(ctx, subjectID, sectionID, objectiveID); err != nil {
		return err
	}

	s.notify(actorID, scope, domain.ChangeDeleted, objectiveID, nil)
	return nil
}

// existingContainer resolves without creating. A missing container means
// the objective being written cannot exist.
func (s *OKRService) existingContainer(ctx context.Context, actorID, subjectID string) (domain.Scope, string, error) {
	scope, err := s.scopes.Selected(ctx, actorID)
	if err != nil {
		return domain.Scope{}, "", err
	}

	sectionID, err := s.locator.ResolveContainer(ctx, scope, subjectID, false)
	if err != nil {
		return domain.Scope{}, "", err
	}
	if sectionID == "" {
		return domain.Scope{}, "", fmt.Errorf("%w: no %q section for %s", onenote.ErrNotFound, scope.DisplayName, subjectID)
	}
	return scope, sectionID, nil
}

// SharingStatus reports whether the subject's notebook is shared. A subject
// without a notebook has nothing shared.
func (s *OKRService) SharingStatus(ctx context.Context, actorID, subjectID string) (domain.ShareStatus, error) {
	notebookID, err := s.locator.ResolveNotebook(ctx, subjectID)
	if errors.Is(err, onenote.ErrNotFound) {
		return domain.ShareStatus{}, nil
	}
	if err != nil {
		return domain.ShareStatus{}, err
	}
	return s.sharing.CheckShared(ctx, subjectID, notebookID)
}

// Share shares the actor's own notebook.
func (s *OKRService) Share(ctx context.Context, actorID string) (domain.ShareStatus, error) {
	notebookID, err := s.locator.ResolveNotebook(ctx, actorID)
	if err != nil {
		return domain.ShareStatus{}, err
	}

	if err := s.sharing.Share(ctx, actorID, notebookID); err != nil {
		return domain.ShareStatus{}, err
	}
	s.logger.Info("notebook shared on request", zap.String("user_id", actorID), zap.String("notebook_id", notebookID))

	return s.sharing.CheckShared(ctx, actorID, notebookID)
}

func (s *OKRService) notify(actorID string, scope domain.Scope, op domain.ChangeOperation, objectiveID string, obj *domain.Objective) {
	s.logger.Info("objective changed",
		zap.String("user_id", actorID),
		zap.String("scope_id", scope.ID),
		zap.String("objective_id", objectiveID),
		zap.String("operation", string(op)),
	)

	if s.notifier == nil {
		return
	}
	s.notifier.NotifyObjectiveChange(&domain.ObjectiveChange{
		SubjectID:   actorID,
		ScopeID:     scope.ID,
		ObjectiveID: objectiveID,
		Operation:   op,
		Objective:   obj,
		ActorID:     actorID,
		ChangedAt:   time.Now().UTC(),
	})
}

func keyResultsFromInput(in []domain.KeyResultInput) []domain.KeyResult {
	krs := make([]domain.KeyResult, 0, len(in))
	for _, kr := range in {
		krs = append(krs, domain.KeyResult{
			ID:          kr.ID,
			Statement:   kr.Statement,
			Percent:     kr.Percent,
			Description: kr.Description,
		})
	}
	return krs
}
