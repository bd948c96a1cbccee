package onenote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"okeears-server/internal/domain"
	"okeears-server/internal/graph"
	"okeears-server/pkg/shortid"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentFetches bounds the page content requests of one List call.
const maxConcurrentFetches = 4

// TableLayout stores each objective as its own page. The page id is the
// objective id.
type TableLayout struct {
	store Store
	newID shortid.Generator
}

func (t *TableLayout) Kind() LayoutKind {
	return LayoutTable
}

func objectiveFromPage(page *Page, krs []domain.KeyResult) *domain.Objective {
	return &domain.Objective{
		ID:          page.ID,
		Statement:   page.Title,
		CreatedAt:   page.CreatedDateTime,
		ModifiedAt:  page.LastModifiedDateTime,
		KeyResults:  krs,
		ExternalURL: page.WebURL(),
	}
}

func (t *TableLayout) List(ctx context.Context, subjectID, sectionID string) ([]*domain.Objective, error) {
	pages, err := t.store.ListPages(ctx, subjectID, sectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	objectives := make([]*domain.Objective, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, page := range pages {
		i, page := i, page
		g.Go(func() error {
			doc, err := t.store.GetPageContent(gctx, subjectID, page.ID)
			if err != nil {
				return fmt.Errorf("failed to get content of page %s: %w", page.ID, err)
			}
			objectives[i] = objectiveFromPage(page, ParseKeyResultTable(doc, t.newID))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return objectives, nil
}

func (t *TableLayout) Create(ctx context.Context, subjectID, sectionID string, obj *domain.Objective) (*domain.Objective, error) {
	assignKeyResultIDs(obj.KeyResults, t.newID)

	page, err := t.store.CreatePage(ctx, subjectID, sectionID, RenderObjectivePage(obj))
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	confirmKeyResultIDs(obj.KeyResults)
	created := objectiveFromPage(page, obj.KeyResults)
	created.Statement = obj.Statement
	return created, nil
}

func (t *TableLayout) Update(ctx context.Context, subjectID, sectionID string, obj *domain.Objective) (*domain.Objective, error) {
	page, err := t.sectionPage(ctx, subjectID, sectionID, obj.ID)
	if err != nil {
		return nil, err
	}

	assignKeyResultIDs(obj.KeyResults, t.newID)
	if err := t.store.PatchPageContent(ctx, subjectID, page.ID, BuildUpdateObjectiveTable(obj)); err != nil {
		return nil, pageError(page.ID, err)
	}

	confirmKeyResultIDs(obj.KeyResults)
	updated := objectiveFromPage(page, obj.KeyResults)
	updated.Statement = obj.Statement
	updated.ModifiedAt = time.Now().UTC()
	return updated, nil
}

func (t *TableLayout) Delete(ctx context.Context, subjectID, sectionID, objectiveID string) error {
	page, err := t.sectionPage(ctx, subjectID, sectionID, objectiveID)
	if err != nil {
		return err
	}
	if err := t.store.DeletePage(ctx, subjectID, page.ID); err != nil {
		return pageError(page.ID, err)
	}
	return nil
}

// sectionPage returns the page with id pageID if it lives in sectionID. Pages
// of other sections or notebooks are reported as ErrNotFound so writes never
// leave the resolved container.
func (t *TableLayout) sectionPage(ctx context.Context, subjectID, sectionID, pageID string) (*Page, error) {
	pages, err := t.store.ListPages(ctx, subjectID, sectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	for _, p := range pages {
		if p.ID == pageID {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: page %s", ErrNotFound, pageID)
}

// pageError reports a missing page as ErrNotFound and wraps anything else.
func pageError(pageID string, err error) error {
	if graph.IsStatus(err, http.StatusNotFound) {
		return fmt.Errorf("%w: page %s", ErrNotFound, pageID)
	}
	return fmt.Errorf("page %s: %w", pageID, err)
}
