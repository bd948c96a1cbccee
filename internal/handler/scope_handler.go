package handler

import (
	"context"
	"net/http"

	"okeears-server/internal/domain"
	"okeears-server/internal/middleware"
	"okeears-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type ScopeService interface {
	List() []domain.Scope
	Selected(ctx context.Context, userID string) (domain.Scope, error)
	Select(ctx context.Context, userID, scopeID string) (domain.Scope, error)
}

type ScopeHandler struct {
	service  ScopeService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewScopeHandler(service ScopeService, logger *zap.Logger) *ScopeHandler {
	return &ScopeHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *ScopeHandler) List(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.service.List())
}

func (h *ScopeHandler) GetSelected(w http.ResponseWriter, r *http.Request) {
	scope, err := h.service.Selected(r.Context(), middleware.GetUserID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Success(w, scope)
}

func (h *ScopeHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req domain.SelectScopeRequest
	if !decode(w, r, h.validate, &req) {
		return
	}

	scope, err := h.service.Select(r.Context(), middleware.GetUserID(r), req.ScopeID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Success(w, scope)
}
