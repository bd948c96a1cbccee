package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"okeears-server/internal/domain"
	"okeears-server/internal/graph"
	"okeears-server/internal/middleware"
	"okeears-server/internal/onenote"
	"okeears-server/internal/service"
	"okeears-server/pkg/response"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeOKRService struct {
	err        error
	lastActor  string
	lastCreate *domain.CreateObjectiveRequest
}

func (f *fakeOKRService) List(ctx context.Context, actorID, subjectID string) (*domain.ObjectiveList, error) {
	f.lastActor = actorID
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ObjectiveList{
		SubjectID:  subjectID,
		ScopeID:    "FY2018",
		ReadOnly:   actorID != subjectID,
		Objectives: []*domain.Objective{{ID: "o1", Statement: "Grow"}},
	}, nil
}

func (f *fakeOKRService) Create(ctx context.Context, actorID, subjectID string, req *domain.CreateObjectiveRequest) (*domain.Objective, error) {
	f.lastCreate = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Objective{ID: "o2", Statement: req.Statement}, nil
}

func (f *fakeOKRService) Update(ctx context.Context, actorID, subjectID, objectiveID string, req *domain.UpdateObjectiveRequest) (*domain.Objective, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Objective{ID: objectiveID, Statement: req.Statement}, nil
}

func (f *fakeOKRService) Delete(ctx context.Context, actorID, subjectID, objectiveID string) error {
	return f.err
}

func (f *fakeOKRService) SharingStatus(ctx context.Context, actorID, subjectID string) (domain.ShareStatus, error) {
	return domain.ShareStatus{IsShared: true}, f.err
}

func (f *fakeOKRService) Share(ctx context.Context, actorID string) (domain.ShareStatus, error) {
	return domain.ShareStatus{IsShared: true}, f.err
}

// withUser stands in for AuthMiddleware.
func withUser(userID string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newOKRRouter(svc OKRService) *mux.Router {
	h := NewOKRHandler(svc, zap.NewNop())
	r := mux.NewRouter()
	r.Use(withUser("alice"))
	r.HandleFunc("/subjects/{subjectId}/objectives", h.List).Methods(http.MethodGet)
	r.HandleFunc("/subjects/{subjectId}/objectives", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/subjects/{subjectId}/objectives/{objectiveId}", h.Update).Methods(http.MethodPut)
	r.HandleFunc("/subjects/{subjectId}/objectives/{objectiveId}", h.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/subjects/{subjectId}/sharing", h.SharingStatus).Methods(http.MethodGet)
	r.HandleFunc("/sharing", h.Share).Methods(http.MethodPost)
	return r
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestOKRHandler_List(t *testing.T) {
	svc := &fakeOKRService{}
	rec := serve(newOKRRouter(svc), http.MethodGet, "/subjects/bob/objectives", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", svc.lastActor)

	var body struct {
		response.Response
		Data domain.ObjectiveList `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.True(t, body.Data.ReadOnly)
	assert.Equal(t, "bob", body.Data.SubjectID)
	require.Len(t, body.Data.Objectives, 1)
}

func TestOKRHandler_CreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"valid", `{"statement":"Grow","key_results":[{"statement":"Close deals","percent":20}]}`, http.StatusCreated},
		{"not json", `statement=Grow`, http.StatusBadRequest},
		{"missing statement", `{"key_results":[]}`, http.StatusBadRequest},
		{"percent too high", `{"statement":"Grow","key_results":[{"statement":"x","percent":101}]}`, http.StatusBadRequest},
		{"key result without statement", `{"statement":"Grow","key_results":[{"percent":5}]}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeOKRService{}
			rec := serve(newOKRRouter(svc), http.MethodPost, "/subjects/alice/objectives", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status != http.StatusCreated {
				assert.Nil(t, svc.lastCreate, "invalid requests never reach the service")
			}
		})
	}
}

func TestOKRHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"read only", service.ErrReadOnly, http.StatusForbidden},
		{"unknown scope", service.ErrUnknownScope, http.StatusBadRequest},
		{"not found", fmt.Errorf("objective o1: %w", onenote.ErrNotFound), http.StatusNotFound},
		{"ambiguous", onenote.ErrAmbiguousContainer, http.StatusConflict},
		{"graph 404", &graph.Error{StatusCode: http.StatusNotFound}, http.StatusNotFound},
		{"graph 503", fmt.Errorf("list pages: %w", &graph.Error{StatusCode: http.StatusServiceUnavailable}), http.StatusBadGateway},
		{"share resolution", &onenote.ShareResolutionError{NotebookID: "1-abc", Err: errors.New("no item")}, http.StatusBadGateway},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newOKRRouter(&fakeOKRService{err: tt.err})

			rec := serve(router, http.MethodDelete, "/subjects/alice/objectives/o1", "")
			assert.Equal(t, tt.status, rec.Code)

			var body response.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestOKRHandler_UpdateDeleteShare(t *testing.T) {
	router := newOKRRouter(&fakeOKRService{})

	rec := serve(router, http.MethodPut, "/subjects/alice/objectives/o9", `{"statement":"Revised"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"o9"`)

	rec = serve(router, http.MethodDelete, "/subjects/alice/objectives/o9", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = serve(router, http.MethodGet, "/subjects/bob/sharing", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_shared":true`)

	rec = serve(router, http.MethodPost, "/sharing", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

type fakeScopeService struct {
	selected domain.Scope
}

func (f *fakeScopeService) List() []domain.Scope {
	return []domain.Scope{{ID: "FY2018", DisplayName: "FY2018"}, {ID: "Playground", DisplayName: "Playground"}}
}

func (f *fakeScopeService) Selected(ctx context.Context, userID string) (domain.Scope, error) {
	return f.selected, nil
}

func (f *fakeScopeService) Select(ctx context.Context, userID, scopeID string) (domain.Scope, error) {
	for _, s := range f.List() {
		if s.ID == scopeID {
			f.selected = s
			return s, nil
		}
	}
	return domain.Scope{}, service.ErrUnknownScope
}

func TestScopeHandler(t *testing.T) {
	svc := &fakeScopeService{selected: domain.Scope{ID: "FY2018", DisplayName: "FY2018"}}
	h := NewScopeHandler(svc, zap.NewNop())
	r := mux.NewRouter()
	r.Use(withUser("alice"))
	r.HandleFunc("/scopes", h.List).Methods(http.MethodGet)
	r.HandleFunc("/scopes/selected", h.GetSelected).Methods(http.MethodGet)
	r.HandleFunc("/scopes/selected", h.Select).Methods(http.MethodPut)

	rec := serve(r, http.MethodGet, "/scopes", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Playground")

	rec = serve(r, http.MethodPut, "/scopes/selected", `{"scope_id":"Playground"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(r, http.MethodGet, "/scopes/selected", "")
	assert.Contains(t, rec.Body.String(), `"id":"Playground"`)

	rec = serve(r, http.MethodPut, "/scopes/selected", `{"scope_id":"FY1999"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(r, http.MethodPut, "/scopes/selected", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeAuthService struct {
	err     error
	revoked string
}

func (f *fakeAuthService) CreateSession(ctx context.Context, req *domain.CreateSessionRequest) (*domain.SessionResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.SessionResponse{User: &domain.Subject{ID: "alice"}, AccessToken: "app-token"}, nil
}

func (f *fakeAuthService) RevokeSession(ctx context.Context, sessionID string) error {
	f.revoked = sessionID
	return f.err
}

func TestAuthHandler_CreateSession(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		body   string
		status int
	}{
		{"created", nil, `{"access_token":"graph-token","expires_in":3599}`, http.StatusCreated},
		{"missing token", nil, `{}`, http.StatusBadRequest},
		{"short expiry", nil, `{"access_token":"t","expires_in":5}`, http.StatusBadRequest},
		{"rejected by graph", service.ErrGraphTokenRejected, `{"access_token":"t"}`, http.StatusUnauthorized},
		{"other resource", fmt.Errorf("%w %q", service.ErrUnsupportedResource, "https://outlook.office.com"), `{"access_token":"t","resource":"https://outlook.office.com"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&fakeAuthService{err: tt.err}, zap.NewNop())
			rec := httptest.NewRecorder()
			h.CreateSession(rec, httptest.NewRequest(http.MethodPost, "/auth/session", strings.NewReader(tt.body)))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

type fakeSubjectService struct{}

func (fakeSubjectService) Me(ctx context.Context) (*domain.Subject, error) {
	return &domain.Subject{ID: "alice"}, nil
}

func (fakeSubjectService) People(ctx context.Context, query string) ([]*domain.Subject, error) {
	return []*domain.Subject{{ID: "q=" + query}}, nil
}

func (fakeSubjectService) OrgTree(ctx context.Context, subjectID string) (*domain.OrgTree, error) {
	if subjectID == "ghost" {
		return nil, &graph.Error{StatusCode: http.StatusNotFound, Message: "Not Found"}
	}
	return &domain.OrgTree{Subject: &domain.Subject{ID: subjectID}, DirectReports: []*domain.Subject{}}, nil
}

func TestSubjectHandler(t *testing.T) {
	h := NewSubjectHandler(fakeSubjectService{}, zap.NewNop())
	r := mux.NewRouter()
	r.HandleFunc("/me", h.GetMe)
	r.HandleFunc("/people", h.People)
	r.HandleFunc("/subjects/{subjectId}/orgtree", h.OrgTree)

	rec := serve(r, http.MethodGet, "/people?q=dav", "")
	assert.Contains(t, rec.Body.String(), `"id":"q=dav"`)

	rec = serve(r, http.MethodGet, "/subjects/bob/orgtree", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"direct_reports":[]`)

	rec = serve(r, http.MethodGet, "/subjects/ghost/orgtree", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(r, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
