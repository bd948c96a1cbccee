package onenote

import (
	"context"
	"net/url"
	"time"

	"okeears-server/internal/graph"

	"github.com/PuerkitoBio/goquery"
)

type Notebook struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type Section struct {
	ID             string    `json:"id"`
	DisplayName    string    `json:"displayName"`
	ParentNotebook *Notebook `json:"parentNotebook,omitempty"`
}

type Page struct {
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	CreatedDateTime      time.Time  `json:"createdDateTime"`
	LastModifiedDateTime time.Time  `json:"lastModifiedDateTime"`
	Links                *PageLinks `json:"links,omitempty"`
}

type PageLinks struct {
	OneNoteWebURL *Link `json:"oneNoteWebUrl,omitempty"`
}

type Link struct {
	Href string `json:"href"`
}

func (p *Page) WebURL() string {
	if p.Links == nil || p.Links.OneNoteWebURL == nil {
		return ""
	}
	return p.Links.OneNoteWebURL.Href
}

// Store is the slice of the OneNote API the adapter works against. Every
// method is one remote call.
type Store interface {
	FindNotebooks(ctx context.Context, subjectID, displayName string) ([]*Notebook, error)
	CreateNotebook(ctx context.Context, subjectID, displayName string) (*Notebook, error)
	// FindSections returns sections named displayName across all of the
	// subject's notebooks, with ParentNotebook expanded.
	FindSections(ctx context.Context, subjectID, displayName string) ([]*Section, error)
	CreateSection(ctx context.Context, subjectID, notebookID, displayName string) (*Section, error)
	ListPages(ctx context.Context, subjectID, sectionID string) ([]*Page, error)
	CreatePage(ctx context.Context, subjectID, sectionID, html string) (*Page, error)
	// GetPageContent returns the page body with generated node ids.
	GetPageContent(ctx context.Context, subjectID, pageID string) (*goquery.Document, error)
	PatchPageContent(ctx context.Context, subjectID, pageID string, ops []PatchOperation) error
	DeletePage(ctx context.Context, subjectID, pageID string) error
}

// GraphStore implements Store on Microsoft Graph.
type GraphStore struct {
	client *graph.Client
}

func NewGraphStore(client *graph.Client) *GraphStore {
	return &GraphStore{client: client}
}

func onenotePath(subjectID string) string {
	return "/users/" + url.PathEscape(subjectID) + "/onenote"
}

func (s *GraphStore) FindNotebooks(ctx context.Context, subjectID, displayName string) ([]*Notebook, error) {
	query := url.Values{
		"$filter": {"displayName eq " + graph.Quote(displayName)},
		"$select": {"id,displayName"},
	}

	var list struct {
		Value []*Notebook `json:"value"`
	}
	if err := s.client.GetJSON(ctx, onenotePath(subjectID)+"/notebooks", query, &list); err != nil {
		return nil, err
	}
	return list.Value, nil
}

func (s *GraphStore) CreateNotebook(ctx context.Context, subjectID, displayName string) (*Notebook, error) {
	var nb Notebook
	if err := s.client.PostJSON(ctx, onenotePath(subjectID)+"/notebooks", map[string]string{"displayName": displayName}, &nb); err != nil {
		return nil, err
	}
	return &nb, nil
}

func (s *GraphStore) FindSections(ctx context.Context, subjectID, displayName string) ([]*Section, error) {
	query := url.Values{
		"$filter": {"displayName eq " + graph.Quote(displayName)},
		"$select": {"id,displayName"},
		"$expand": {"parentNotebook($select=id,displayName)"},
	}

	var list struct {
		Value []*Section `json:"value"`
	}
	if err := s.client.GetJSON(ctx, onenotePath(subjectID)+"/sections", query, &list); err != nil {
		return nil, err
	}
	return list.Value, nil
}

func (s *GraphStore) CreateSection(ctx context.Context, subjectID, notebookID, displayName string) (*Section, error) {
	path := onenotePath(subjectID) + "/notebooks/" + url.PathEscape(notebookID) + "/sections"

	var section Section
	if err := s.client.PostJSON(ctx, path, map[string]string{"displayName": displayName}, &section); err != nil {
		return nil, err
	}
	return &section, nil
}

func (s *GraphStore) ListPages(ctx context.Context, subjectID, sectionID string) ([]*Page, error) {
	path := onenotePath(subjectID) + "/sections/" + url.PathEscape(sectionID) + "/pages"
	query := url.Values{
		"$select":  {"id,title,createdDateTime,lastModifiedDateTime,links"},
		"$orderby": {"createdDateTime"},
		"$top":     {"100"},
	}

	var list struct {
		Value []*Page `json:"value"`
	}
	if err := s.client.GetJSON(ctx, path, query, &list); err != nil {
		return nil, err
	}
	return list.Value, nil
}

func (s *GraphStore) CreatePage(ctx context.Context, subjectID, sectionID, html string) (*Page, error) {
	path := onenotePath(subjectID) + "/sections/" + url.PathEscape(sectionID) + "/pages"

	var page Page
	if err := s.client.PostHTML(ctx, path, html, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *GraphStore) GetPageContent(ctx context.Context, subjectID, pageID string) (*goquery.Document, error) {
	path := onenotePath(subjectID) + "/pages/" + url.PathEscape(pageID) + "/content"
	return s.client.GetDocument(ctx, path, url.Values{"includeIDs": {"true"}})
}

func (s *GraphStore) PatchPageContent(ctx context.Context, subjectID, pageID string, ops []PatchOperation) error {
	path := onenotePath(subjectID) + "/pages/" + url.PathEscape(pageID) + "/content"
	return s.client.PatchJSON(ctx, path, ops)
}

func (s *GraphStore) DeletePage(ctx context.Context, subjectID, pageID string) error {
	return s.client.Delete(ctx, onenotePath(subjectID)+"/pages/"+url.PathEscape(pageID))
}
