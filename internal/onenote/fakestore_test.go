package onenote

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"
	"sync"
	"time"

	"okeears-server/internal/graph"

	"github.com/PuerkitoBio/goquery"
)

// fakeStore is an in-memory OneNote. It applies patches the way the service
// does: node ids are generated for every element and empty nodes are
// dropped after each patch.
type fakeStore struct {
	mu sync.Mutex

	notebooks map[string][]*Notebook // by subject
	sections  map[string][]*Section  // by subject
	pages     map[string][]*Page     // by section
	content   map[string]string      // by page
	pageOwner map[string]string      // page -> section

	seq     int
	calls   map[string]int
	patches [][]PatchOperation

	failOn map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		notebooks: make(map[string][]*Notebook),
		sections:  make(map[string][]*Section),
		pages:     make(map[string][]*Page),
		content:   make(map[string]string),
		pageOwner: make(map[string]string),
		calls:     make(map[string]int),
		failOn:    make(map[string]error),
	}
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeStore) enter(method string) error {
	f.calls[method]++
	return f.failOn[method]
}

func (f *fakeStore) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeStore) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeStore) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = make(map[string]int)
}

func (f *fakeStore) addNotebook(subjectID, name string) *Notebook {
	f.mu.Lock()
	defer f.mu.Unlock()
	nb := &Notebook{ID: f.nextID("nb"), DisplayName: name}
	f.notebooks[subjectID] = append(f.notebooks[subjectID], nb)
	return nb
}

func (f *fakeStore) addSection(subjectID string, nb *Notebook, name string) *Section {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &Section{ID: f.nextID("sec"), DisplayName: name, ParentNotebook: nb}
	f.sections[subjectID] = append(f.sections[subjectID], s)
	return s
}

// addPage stores raw page html as is, so tests control node ids.
func (f *fakeStore) addPage(sectionID, title, body string) *Page {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.newPage(title)
	f.pages[sectionID] = append(f.pages[sectionID], p)
	f.pageOwner[p.ID] = sectionID
	f.content[p.ID] = body
	return p
}

func (f *fakeStore) newPage(title string) *Page {
	id := f.nextID("page")
	now := time.Date(2018, 3, 1, 9, 0, f.seq, 0, time.UTC)
	return &Page{
		ID:                   id,
		Title:                title,
		CreatedDateTime:      now,
		LastModifiedDateTime: now,
		Links:                &PageLinks{OneNoteWebURL: &Link{Href: "https://onenote.test/" + id}},
	}
}

func (f *fakeStore) pageHTML(pageID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.content[pageID]
}

func (f *fakeStore) setPageHTML(pageID, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.content[pageID] = body
}

func (f *fakeStore) pageCount(sectionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pages[sectionID])
}

func (f *fakeStore) FindNotebooks(ctx context.Context, subjectID, displayName string) ([]*Notebook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("FindNotebooks"); err != nil {
		return nil, err
	}

	var out []*Notebook
	for _, nb := range f.notebooks[subjectID] {
		if nb.DisplayName == displayName {
			out = append(out, nb)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateNotebook(ctx context.Context, subjectID, displayName string) (*Notebook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateNotebook"); err != nil {
		return nil, err
	}

	for _, nb := range f.notebooks[subjectID] {
		if nb.DisplayName == displayName {
			return nil, &graph.Error{StatusCode: http.StatusConflict, Code: graph.CodeDuplicateName, Message: "An item with this name already exists in this location."}
		}
	}
	nb := &Notebook{ID: f.nextID("nb"), DisplayName: displayName}
	f.notebooks[subjectID] = append(f.notebooks[subjectID], nb)
	return nb, nil
}

func (f *fakeStore) FindSections(ctx context.Context, subjectID, displayName string) ([]*Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("FindSections"); err != nil {
		return nil, err
	}

	var out []*Section
	for _, s := range f.sections[subjectID] {
		if s.DisplayName == displayName {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateSection(ctx context.Context, subjectID, notebookID, displayName string) (*Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateSection"); err != nil {
		return nil, err
	}

	for _, nb := range f.notebooks[subjectID] {
		if nb.ID == notebookID {
			s := &Section{ID: f.nextID("sec"), DisplayName: displayName, ParentNotebook: nb}
			f.sections[subjectID] = append(f.sections[subjectID], s)
			return s, nil
		}
	}
	return nil, &graph.Error{StatusCode: http.StatusNotFound, Message: "notebook not found"}
}

func (f *fakeStore) ListPages(ctx context.Context, subjectID, sectionID string) ([]*Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListPages"); err != nil {
		return nil, err
	}

	out := make([]*Page, len(f.pages[sectionID]))
	for i, p := range f.pages[sectionID] {
		cp := *p
		out[i] = &cp
	}
	return out, nil
}

func (f *fakeStore) CreatePage(ctx context.Context, subjectID, sectionID, body string) (*Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreatePage"); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	f.normalize(doc)

	p := f.newPage(doc.Find("title").Text())
	out, err := doc.Html()
	if err != nil {
		return nil, err
	}
	f.pages[sectionID] = append(f.pages[sectionID], p)
	f.pageOwner[p.ID] = sectionID
	f.content[p.ID] = out

	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetPageContent(ctx context.Context, subjectID, pageID string) (*goquery.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetPageContent"); err != nil {
		return nil, err
	}

	body, ok := f.content[pageID]
	if !ok {
		return nil, &graph.Error{StatusCode: http.StatusNotFound, Message: "page not found"}
	}
	return goquery.NewDocumentFromReader(strings.NewReader(body))
}

func (f *fakeStore) PatchPageContent(ctx context.Context, subjectID, pageID string, ops []PatchOperation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("PatchPageContent"); err != nil {
		return err
	}

	body, ok := f.content[pageID]
	if !ok {
		return &graph.Error{StatusCode: http.StatusNotFound, Message: "page not found"}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return err
	}

	for _, op := range ops {
		if err := applyPatch(doc, op); err != nil {
			return err
		}
	}
	f.normalize(doc)

	out, err := doc.Html()
	if err != nil {
		return err
	}
	f.content[pageID] = out
	f.patches = append(f.patches, ops)

	for _, p := range f.pages[f.pageOwner[pageID]] {
		if p.ID == pageID {
			p.Title = doc.Find("title").Text()
			p.LastModifiedDateTime = p.LastModifiedDateTime.Add(time.Minute)
		}
	}
	return nil
}

func (f *fakeStore) DeletePage(ctx context.Context, subjectID, pageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeletePage"); err != nil {
		return err
	}

	sectionID, ok := f.pageOwner[pageID]
	if !ok {
		return &graph.Error{StatusCode: http.StatusNotFound, Message: "page not found"}
	}

	pages := f.pages[sectionID][:0]
	for _, p := range f.pages[sectionID] {
		if p.ID != pageID {
			pages = append(pages, p)
		}
	}
	f.pages[sectionID] = pages
	delete(f.pageOwner, pageID)
	delete(f.content, pageID)
	return nil
}

func applyPatch(doc *goquery.Document, op PatchOperation) error {
	switch op.Target {
	case TargetTitle:
		doc.Find("title").SetText(html.UnescapeString(op.Content))
	case TargetBody:
		root := rootContainer(doc)
		if op.Action == ActionAppend {
			root.AppendHtml(op.Content)
		} else {
			root.SetHtml(op.Content)
		}
	default:
		target := doc.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			id, _ := s.Attr("id")
			return id == op.Target
		})
		if target.Length() == 0 {
			return &graph.Error{StatusCode: http.StatusBadRequest, Message: "unknown target " + op.Target}
		}
		if op.Action == ActionAppend {
			target.AppendHtml(op.Content)
		} else {
			target.ReplaceWithHtml(op.Content)
		}
	}
	return nil
}

// normalize drops empty content nodes and gives every element a node id.
func (f *fakeStore) normalize(doc *goquery.Document) {
	for {
		empty := doc.Find("body li, body ul, body ol, body p, body tr").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.Children().Length() == 0 && strings.TrimSpace(s.Text()) == ""
		})
		if empty.Length() == 0 {
			break
		}
		empty.Remove()
	}

	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		if _, ok := s.Attr("id"); !ok {
			s.SetAttr("id", fmt.Sprintf("%s:{fake}{%d}", goquery.NodeName(s), f.nextSeq()))
		}
	})
}

func (f *fakeStore) nextSeq() int {
	f.seq++
	return f.seq
}
