package onenote

import (
	"context"
	"strings"
	"sync"

	"okeears-server/internal/domain"

	"go.uber.org/zap"
)

// StorageSharer shares the drive item that backs a notebook.
type StorageSharer interface {
	ResolveStorageItemID(ctx context.Context, subjectID, etag string) (string, error)
	ShareItem(ctx context.Context, subjectID, itemID string) error
	CheckItemShared(ctx context.Context, subjectID, itemID string) (domain.ShareStatus, error)
}

// NotebookMatcher maps a notebook id to a fragment of its drive item's eTag.
type NotebookMatcher func(notebookID string) string

// MatchNotebookETag drops the numeric "N-" prefix OneNote puts in front of
// the drive item guid.
func MatchNotebookETag(notebookID string) string {
	if i := strings.IndexByte(notebookID, '-'); i > 0 && isDigits(notebookID[:i]) {
		return notebookID[i+1:]
	}
	return notebookID
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

type SharingCoordinator struct {
	sharer StorageSharer
	match  NotebookMatcher
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewSharingCoordinator(sharer StorageSharer, match NotebookMatcher, logger *zap.Logger) *SharingCoordinator {
	if match == nil {
		match = MatchNotebookETag
	}
	return &SharingCoordinator{
		sharer: sharer,
		match:  match,
		logger: logger,
	}
}

func (c *SharingCoordinator) resolve(ctx context.Context, subjectID, notebookID string) (string, error) {
	itemID, err := c.sharer.ResolveStorageItemID(ctx, subjectID, c.match(notebookID))
	if err != nil {
		return "", &ShareResolutionError{NotebookID: notebookID, Err: err}
	}
	return itemID, nil
}

// Share grants read access to the notebook. Sharing twice is harmless.
func (c *SharingCoordinator) Share(ctx context.Context, subjectID, notebookID string) error {
	itemID, err := c.resolve(ctx, subjectID, notebookID)
	if err != nil {
		return err
	}
	if err := c.sharer.ShareItem(ctx, subjectID, itemID); err != nil {
		return &ShareResolutionError{NotebookID: notebookID, Err: err}
	}
	return nil
}

// EnsureShared shares the notebook in the background. It outlives ctx's
// cancellation and only logs failures.
func (c *SharingCoordinator) EnsureShared(ctx context.Context, subjectID, notebookID string) {
	ctx = context.WithoutCancel(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		if err := c.Share(ctx, subjectID, notebookID); err != nil {
			c.logger.Warn("failed to share notebook",
				zap.String("subject_id", subjectID),
				zap.String("notebook_id", notebookID),
				zap.Error(err),
			)
			return
		}
		c.logger.Info("notebook shared",
			zap.String("subject_id", subjectID),
			zap.String("notebook_id", notebookID),
		)
	}()
}

func (c *SharingCoordinator) CheckShared(ctx context.Context, subjectID, notebookID string) (domain.ShareStatus, error) {
	itemID, err := c.resolve(ctx, subjectID, notebookID)
	if err != nil {
		return domain.ShareStatus{}, err
	}

	status, err := c.sharer.CheckItemShared(ctx, subjectID, itemID)
	if err != nil {
		return domain.ShareStatus{}, &ShareResolutionError{NotebookID: notebookID, Err: err}
	}
	return status, nil
}

// Wait blocks until every background share has finished.
func (c *SharingCoordinator) Wait() {
	c.wg.Wait()
}
