package onenote

import (
	"context"
	"fmt"

	"okeears-server/internal/domain"
	"okeears-server/pkg/shortid"
)

// ListLayout stores all of a subject's objectives on one page. Only the
// statements of key results fit in this format.
type ListLayout struct {
	store     Store
	pageTitle string
	newID     shortid.Generator
}

func (l *ListLayout) Kind() LayoutKind {
	return LayoutList
}

// findPage returns the objectives page of the section, or nil when the
// section has none.
func (l *ListLayout) findPage(ctx context.Context, subjectID, sectionID string) (*Page, error) {
	pages, err := l.store.ListPages(ctx, subjectID, sectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	var matches []*Page
	for _, p := range pages {
		if p.Title == l.pageTitle {
			matches = append(matches, p)
		}
	}

	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %d pages titled %q", ErrAmbiguousContainer, len(matches), l.pageTitle)
	}
}

func (l *ListLayout) List(ctx context.Context, subjectID, sectionID string) ([]*domain.Objective, error) {
	page, err := l.findPage(ctx, subjectID, sectionID)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return []*domain.Objective{}, nil
	}

	doc, err := l.store.GetPageContent(ctx, subjectID, page.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get page content: %w", err)
	}

	objectives := ParseObjectiveList(doc, l.newID)
	for _, obj := range objectives {
		obj.ExternalURL = page.WebURL()
	}
	return objectives, nil
}

func (l *ListLayout) Create(ctx context.Context, subjectID, sectionID string, obj *domain.Objective) (*domain.Objective, error) {
	obj.ID = l.newID()
	assignKeyResultIDs(obj.KeyResults, l.newID)

	page, err := l.findPage(ctx, subjectID, sectionID)
	if err != nil {
		return nil, err
	}

	var ops []PatchOperation
	if page == nil {
		page, err = l.store.CreatePage(ctx, subjectID, sectionID, RenderListPage(l.pageTitle))
		if err != nil {
			return nil, fmt.Errorf("failed to create page: %w", err)
		}
		ops, err = BuildCreateObjectiveList(nil, obj)
	} else {
		doc, getErr := l.store.GetPageContent(ctx, subjectID, page.ID)
		if getErr != nil {
			return nil, fmt.Errorf("failed to get page content: %w", getErr)
		}
		ops, err = BuildCreateObjectiveList(doc, obj)
	}
	if err != nil {
		return nil, err
	}

	if err := l.store.PatchPageContent(ctx, subjectID, page.ID, ops); err != nil {
		return nil, fmt.Errorf("failed to patch page: %w", err)
	}

	confirmKeyResultIDs(obj.KeyResults)
	obj.ExternalURL = page.WebURL()
	return obj, nil
}

func (l *ListLayout) Update(ctx context.Context, subjectID, sectionID string, obj *domain.Objective) (*domain.Objective, error) {
	assignKeyResultIDs(obj.KeyResults, l.newID)

	page, err := l.requirePage(ctx, subjectID, sectionID)
	if err != nil {
		return nil, err
	}

	// Node ids are only valid against the current content.
	doc, err := l.store.GetPageContent(ctx, subjectID, page.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get page content: %w", err)
	}

	ops, err := BuildUpdateObjectiveList(doc, obj)
	if err != nil {
		return nil, err
	}

	if err := l.store.PatchPageContent(ctx, subjectID, page.ID, ops); err != nil {
		return nil, fmt.Errorf("failed to patch page: %w", err)
	}

	confirmKeyResultIDs(obj.KeyResults)
	obj.ExternalURL = page.WebURL()
	return obj, nil
}

func (l *ListLayout) Delete(ctx context.Context, subjectID, sectionID, objectiveID string) error {
	page, err := l.requirePage(ctx, subjectID, sectionID)
	if err != nil {
		return err
	}

	doc, err := l.store.GetPageContent(ctx, subjectID, page.ID)
	if err != nil {
		return fmt.Errorf("failed to get page content: %w", err)
	}

	ops, err := BuildDeleteObjectiveList(doc, objectiveID)
	if err != nil {
		return err
	}

	if err := l.store.PatchPageContent(ctx, subjectID, page.ID, ops); err != nil {
		return fmt.Errorf("failed to patch page: %w", err)
	}
	return nil
}

func (l *ListLayout) requirePage(ctx context.Context, subjectID, sectionID string) (*Page, error) {
	page, err := l.findPage(ctx, subjectID, sectionID)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, fmt.Errorf("%w: page %q", ErrNotFound, l.pageTitle)
	}
	return page, nil
}
