package handler

import (
	"context"
	"net/http"

	"okeears-server/internal/domain"
	"okeears-server/internal/session"
	"okeears-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type AuthService interface {
	CreateSession(ctx context.Context, req *domain.CreateSessionRequest) (*domain.SessionResponse, error)
	RevokeSession(ctx context.Context, sessionID string) error
}

type AuthHandler struct {
	authService AuthService
	validator   *validator.Validate
	logger      *zap.Logger
}

func NewAuthHandler(authService AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   validator.New(),
		logger:      logger,
	}
}

// CreateSession exchanges the Graph token the browser obtained for an app
// token.
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateSessionRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	resp, err := h.authService.CreateSession(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Created(w, resp)
}

func (h *AuthHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.RevokeSession(r.Context(), session.IDFromContext(r.Context())); err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.NoContent(w)
}
