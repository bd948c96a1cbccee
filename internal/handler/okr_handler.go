package handler

import (
	"context"
	"net/http"

	"okeears-server/internal/domain"
	"okeears-server/internal/middleware"
	"okeears-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type OKRService interface {
	List(ctx context.Context, actorID, subjectID string) (*domain.ObjectiveList, error)
	Create(ctx context.Context, actorID, subjectID string, req *domain.CreateObjectiveRequest) (*domain.Objective, error)
	Update(ctx context.Context, actorID, subjectID, objectiveID string, req *domain.UpdateObjectiveRequest) (*domain.Objective, error)
	Delete(ctx context.Context, actorID, subjectID, objectiveID string) error
	SharingStatus(ctx context.Context, actorID, subjectID string) (domain.ShareStatus, error)
	Share(ctx context.Context, actorID string) (domain.ShareStatus, error)
}

type OKRHandler struct {
	service  OKRService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewOKRHandler(service OKRService, logger *zap.Logger) *OKRHandler {
	return &OKRHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *OKRHandler) List(w http.ResponseWriter, r *http.Request) {
	subjectID := mux.Vars(r)["subjectId"]

	list, err := h.service.List(r.Context(), middleware.GetUserID(r), subjectID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Success(w, list)
}

func (h *OKRHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateObjectiveRequest
	if !decode(w, r, h.validate, &req) {
		return
	}

	obj, err := h.service.Create(r.Context(), middleware.GetUserID(r), mux.Vars(r)["subjectId"], &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Created(w, obj)
}

func (h *OKRHandler) Update(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req domain.UpdateObjectiveRequest
	if !decode(w, r, h.validate, &req) {
		return
	}

	obj, err := h.service.Update(r.Context(), middleware.GetUserID(r), vars["subjectId"], vars["objectiveId"], &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Success(w, obj)
}

func (h *OKRHandler) Delete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := h.service.Delete(r.Context(), middleware.GetUserID(r), vars["subjectId"], vars["objectiveId"]); err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.NoContent(w)
}

func (h *OKRHandler) SharingStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.SharingStatus(r.Context(), middleware.GetUserID(r), mux.Vars(r)["subjectId"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Success(w, status)
}

// Share shares the caller's own notebook.
func (h *OKRHandler) Share(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Share(r.Context(), middleware.GetUserID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Success(w, status)
}
