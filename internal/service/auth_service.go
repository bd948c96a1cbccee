package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"okeears-server/internal/domain"
	"okeears-server/internal/graph"
	"okeears-server/internal/session"
	"okeears-server/pkg/jwt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SessionStore interface {
	Save(ctx context.Context, id string, data session.Data, expiresAt time.Time) error
	Revoke(ctx context.Context, id string) error
}

// DirectoryFactory returns a Directory that authenticates with token.
type DirectoryFactory func(token string) Directory

// AuthService trades a Microsoft Graph token obtained by the browser for an
// app session. The Graph token stays on the server.
type AuthService struct {
	sessions      SessionStore
	directory     DirectoryFactory
	resource      string
	jwtSecret     string
	jwtExpiration time.Duration
	logger        *zap.Logger
}

func NewAuthService(sessions SessionStore, directory DirectoryFactory, resource, jwtSecret string, jwtExp time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		sessions:      sessions,
		directory:     directory,
		resource:      resource,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExp,
		logger:        logger,
	}
}

func (s *AuthService) CreateSession(ctx context.Context, req *domain.CreateSessionRequest) (*domain.SessionResponse, error) {
	resource := req.Resource
	if resource == "" {
		resource = s.resource
	}
	if resource != s.resource {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedResource, resource)
	}

	me, err := s.directory(req.AccessToken).Me(ctx)
	if err != nil {
		if graph.IsStatus(err, http.StatusUnauthorized) || graph.IsStatus(err, http.StatusForbidden) {
			return nil, ErrGraphTokenRejected
		}
		return nil, fmt.Errorf("failed to verify graph token: %w", err)
	}

	// The session cannot outlive the Graph token it holds.
	ttl := s.jwtExpiration
	if tokenTTL := time.Duration(req.ExpiresIn) * time.Second; tokenTTL > 0 && tokenTTL < ttl {
		ttl = tokenTTL
	}
	expiresAt := time.Now().Add(ttl)

	sessionID := uuid.New().String()
	data := session.Data{
		UserID: me.ID,
		Tokens: map[string]string{resource: req.AccessToken},
	}
	if err := s.sessions.Save(ctx, sessionID, data, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	accessToken, err := jwt.GenerateToken(me.ID, sessionID, ttl, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	s.logger.Info("session created", zap.String("user_id", me.ID), zap.Time("expires_at", expiresAt))

	return &domain.SessionResponse{
		User:        toSubject(me),
		AccessToken: accessToken,
		ExpiresAt:   expiresAt.UTC(),
	}, nil
}

func (s *AuthService) RevokeSession(ctx context.Context, sessionID string) error {
	return s.sessions.Revoke(ctx, sessionID)
}

func (s *AuthService) ValidateToken(token string) (*jwt.Claims, error) {
	claims, err := jwt.ValidateToken(token, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}
