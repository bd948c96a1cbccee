package handler

import (
	"context"
	"net/http"

	"okeears-server/internal/domain"
	"okeears-server/pkg/response"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type SubjectService interface {
	Me(ctx context.Context) (*domain.Subject, error)
	People(ctx context.Context, query string) ([]*domain.Subject, error)
	OrgTree(ctx context.Context, subjectID string) (*domain.OrgTree, error)
}

type SubjectHandler struct {
	service SubjectService
	logger  *zap.Logger
}

func NewSubjectHandler(service SubjectService, logger *zap.Logger) *SubjectHandler {
	return &SubjectHandler{
		service: service,
		logger:  logger,
	}
}

func (h *SubjectHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	me, err := h.service.Me(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Success(w, me)
}

func (h *SubjectHandler) People(w http.ResponseWriter, r *http.Request) {
	people, err := h.service.People(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Success(w, people)
}

func (h *SubjectHandler) OrgTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.service.OrgTree(r.Context(), mux.Vars(r)["subjectId"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	response.Success(w, tree)
}
