package service

import (
	"context"
	"errors"
	"time"

	"okeears-server/internal/domain"
	"okeears-server/internal/repository"

	"go.uber.org/zap"
)

// ContainerBinder is notified when the active scope changes so cached
// container ids of the previous scope are dropped.
type ContainerBinder interface {
	Bind(scopeID string) bool
}

type ScopeService struct {
	scopes []domain.Scope
	prefs  repository.PreferenceRepository
	cache  ContainerBinder
	logger *zap.Logger
}

func NewScopeService(scopes []domain.Scope, prefs repository.PreferenceRepository, cache ContainerBinder, logger *zap.Logger) *ScopeService {
	return &ScopeService{
		scopes: scopes,
		prefs:  prefs,
		cache:  cache,
		logger: logger,
	}
}

func (s *ScopeService) List() []domain.Scope {
	return s.scopes
}

func (s *ScopeService) Find(id string) (domain.Scope, bool) {
	for _, scope := range s.scopes {
		if scope.ID == id {
			return scope, true
		}
	}
	return domain.Scope{}, false
}

// Selected returns the user's scope. Without a stored preference, or with
// one naming a scope that no longer exists, it is the first scope.
func (s *ScopeService) Selected(ctx context.Context, userID string) (domain.Scope, error) {
	pref, err := s.prefs.Get(ctx, userID)
	if errors.Is(err, repository.ErrPreferenceNotFound) {
		return s.scopes[0], nil
	}
	if err != nil {
		return domain.Scope{}, err
	}

	scope, ok := s.Find(pref.ScopeID)
	if !ok {
		s.logger.Warn("stored scope no longer configured",
			zap.String("user_id", userID),
			zap.String("scope_id", pref.ScopeID),
		)
		return s.scopes[0], nil
	}
	return scope, nil
}

func (s *ScopeService) Select(ctx context.Context, userID, scopeID string) (domain.Scope, error) {
	scope, ok := s.Find(scopeID)
	if !ok {
		return domain.Scope{}, ErrUnknownScope
	}

	pref := &domain.Preference{
		UserID:    userID,
		ScopeID:   scope.ID,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.prefs.Save(ctx, pref); err != nil {
		return domain.Scope{}, err
	}

	if s.cache.Bind(scope.ID) {
		s.logger.Info("container cache invalidated", zap.String("scope_id", scope.ID))
	}
	return scope, nil
}
