package service

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"okeears-server/internal/domain"
	"okeears-server/internal/graph"
	"okeears-server/internal/onenote"
	"okeears-server/internal/repository"
	"okeears-server/internal/session"
)

type mockDirectory struct {
	users   map[string]*graph.User
	manager map[string]string
	reports map[string][]string
	meID    string
	err     error
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		users:   make(map[string]*graph.User),
		manager: make(map[string]string),
		reports: make(map[string][]string),
	}
}

func (m *mockDirectory) add(id, name, mail string) {
	m.users[id] = &graph.User{ID: id, DisplayName: name, Mail: mail, UserPrincipalName: id + "@contoso.test"}
}

func (m *mockDirectory) Me(ctx context.Context) (*graph.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.User(ctx, m.meID)
}

func (m *mockDirectory) User(ctx context.Context, id string) (*graph.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, &graph.Error{StatusCode: http.StatusNotFound, Message: "Not Found"}
}

func (m *mockDirectory) Manager(ctx context.Context, id string) (*graph.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	managerID, ok := m.manager[id]
	if !ok {
		return nil, nil
	}
	return m.users[managerID], nil
}

func (m *mockDirectory) DirectReports(ctx context.Context, id string) ([]*graph.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*graph.User
	for _, rid := range m.reports[id] {
		out = append(out, m.users[rid])
	}
	return out, nil
}

func (m *mockDirectory) People(ctx context.Context, search string, top int) ([]*graph.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*graph.User
	for _, u := range m.users {
		if search == "" || strings.Contains(strings.ToLower(u.DisplayName), strings.ToLower(search)) {
			out = append(out, u)
		}
		if len(out) == top {
			break
		}
	}
	return out, nil
}

type mockPreferenceRepository struct {
	prefs map[string]*domain.Preference
	err   error
}

func newMockPreferenceRepository() *mockPreferenceRepository {
	return &mockPreferenceRepository{prefs: make(map[string]*domain.Preference)}
}

func (m *mockPreferenceRepository) Get(ctx context.Context, userID string) (*domain.Preference, error) {
	if m.err != nil {
		return nil, m.err
	}
	if p, ok := m.prefs[userID]; ok {
		return p, nil
	}
	return nil, repository.ErrPreferenceNotFound
}

func (m *mockPreferenceRepository) Save(ctx context.Context, pref *domain.Preference) error {
	if m.err != nil {
		return m.err
	}
	m.prefs[pref.UserID] = pref
	return nil
}

type mockBinder struct {
	bound []string
}

func (m *mockBinder) Bind(scopeID string) bool {
	changed := len(m.bound) == 0 || m.bound[len(m.bound)-1] != scopeID
	m.bound = append(m.bound, scopeID)
	return changed
}

// mockLocator keeps sections per scope and subject.
type mockLocator struct {
	sections  map[string]string
	notebooks map[string]string
	created   []string
	err       error
}

func newMockLocator() *mockLocator {
	return &mockLocator{
		sections:  make(map[string]string),
		notebooks: make(map[string]string),
	}
}

func (m *mockLocator) ResolveContainer(ctx context.Context, scope domain.Scope, subjectID string, allowCreate bool) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	key := scope.ID + "/" + subjectID
	if id, ok := m.sections[key]; ok {
		return id, nil
	}
	if !allowCreate {
		return "", nil
	}
	id := "sec-" + key
	m.sections[key] = id
	m.notebooks[subjectID] = "nb-" + subjectID
	m.created = append(m.created, key)
	return id, nil
}

func (m *mockLocator) ResolveNotebook(ctx context.Context, subjectID string) (string, error) {
	if id, ok := m.notebooks[subjectID]; ok {
		return id, nil
	}
	return "", onenote.ErrNotFound
}

// mockLayout stores objectives per section.
type mockLayout struct {
	objectives map[string][]*domain.Objective
	next       int
}

func newMockLayout() *mockLayout {
	return &mockLayout{objectives: make(map[string][]*domain.Objective)}
}

func (m *mockLayout) Kind() onenote.LayoutKind { return onenote.LayoutTable }

func (m *mockLayout) List(ctx context.Context, subjectID, sectionID string) ([]*domain.Objective, error) {
	return append([]*domain.Objective{}, m.objectives[sectionID]...), nil
}

func (m *mockLayout) Create(ctx context.Context, subjectID, sectionID string, obj *domain.Objective) (*domain.Objective, error) {
	m.next++
	obj.ID = "obj-" + strconv.Itoa(m.next)
	m.objectives[sectionID] = append(m.objectives[sectionID], obj)
	return obj, nil
}

func (m *mockLayout) Update(ctx context.Context, subjectID, sectionID string, obj *domain.Objective) (*domain.Objective, error) {
	for i, existing := range m.objectives[sectionID] {
		if existing.ID == obj.ID {
			m.objectives[sectionID][i] = obj
			return obj, nil
		}
	}
	return nil, onenote.ErrNotFound
}

func (m *mockLayout) Delete(ctx context.Context, subjectID, sectionID, objectiveID string) error {
	list := m.objectives[sectionID]
	for i, existing := range list {
		if existing.ID == objectiveID {
			m.objectives[sectionID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return onenote.ErrNotFound
}

type mockSharing struct {
	shared map[string]bool
	err    error
}

func newMockSharing() *mockSharing {
	return &mockSharing{shared: make(map[string]bool)}
}

func (m *mockSharing) Share(ctx context.Context, subjectID, notebookID string) error {
	if m.err != nil {
		return m.err
	}
	m.shared[notebookID] = true
	return nil
}

func (m *mockSharing) CheckShared(ctx context.Context, subjectID, notebookID string) (domain.ShareStatus, error) {
	if m.err != nil {
		return domain.ShareStatus{}, m.err
	}
	if m.shared[notebookID] {
		return domain.ShareStatus{IsShared: true, WebURL: "https://onedrive.test/" + notebookID}, nil
	}
	return domain.ShareStatus{}, nil
}

type mockNotifier struct {
	mu      sync.Mutex
	changes []*domain.ObjectiveChange
}

func (m *mockNotifier) NotifyObjectiveChange(change *domain.ObjectiveChange) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, change)
}

type mockSessionStore struct {
	sessions  map[string]session.Data
	expiresAt map[string]time.Time
	err       error
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{
		sessions:  make(map[string]session.Data),
		expiresAt: make(map[string]time.Time),
	}
}

func (m *mockSessionStore) Save(ctx context.Context, id string, data session.Data, expiresAt time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.sessions[id] = data
	m.expiresAt[id] = expiresAt
	return nil
}

func (m *mockSessionStore) Revoke(ctx context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}
