package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"okeears-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
	"github.com/redis/go-redis/v9"
)

var ErrPreferenceNotFound = errors.New("preference not found")

type PreferenceRepository interface {
	Get(ctx context.Context, userID string) (*domain.Preference, error)
	Save(ctx context.Context, pref *domain.Preference) error
}

type CouchDBPreferenceRepository struct {
	db *kivik.DB
}

type preferenceDoc struct {
	ID        string `json:"_id"`
	Rev       string `json:"_rev,omitempty"`
	DocType   string `json:"doc_type"`
	UserID    string `json:"user_id"`
	ScopeID   string `json:"scope_id"`
	UpdatedAt string `json:"updated_at"`
}

func NewCouchDBPreferenceRepository(client *kivik.Client, dbName string) *CouchDBPreferenceRepository {
	return &CouchDBPreferenceRepository{
		db: client.DB(dbName),
	}
}

func preferenceDocID(userID string) string {
	return fmt.Sprintf("preference:%s", userID)
}

func (r *CouchDBPreferenceRepository) getDoc(ctx context.Context, userID string) (*preferenceDoc, error) {
	var doc preferenceDoc
	if err := r.db.Get(ctx, preferenceDocID(userID)).ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrPreferenceNotFound
		}
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}
	return &doc, nil
}

func (r *CouchDBPreferenceRepository) Get(ctx context.Context, userID string) (*domain.Preference, error) {
	doc, err := r.getDoc(ctx, userID)
	if err != nil {
		return nil, err
	}

	updatedAt, _ := time.Parse(time.RFC3339, doc.UpdatedAt)
	return &domain.Preference{
		UserID:    doc.UserID,
		ScopeID:   doc.ScopeID,
		UpdatedAt: updatedAt,
	}, nil
}

// Save writes the preference over the current revision, if any.
func (r *CouchDBPreferenceRepository) Save(ctx context.Context, pref *domain.Preference) error {
	doc := preferenceDoc{
		ID:        preferenceDocID(pref.UserID),
		DocType:   "preference",
		UserID:    pref.UserID,
		ScopeID:   pref.ScopeID,
		UpdatedAt: pref.UpdatedAt.UTC().Format(time.RFC3339),
	}

	existing, err := r.getDoc(ctx, pref.UserID)
	switch {
	case err == nil:
		doc.Rev = existing.Rev
	case !errors.Is(err, ErrPreferenceNotFound):
		return err
	}

	if _, err := r.db.Put(ctx, doc.ID, doc); err != nil {
		return fmt.Errorf("failed to save preference: %w", err)
	}
	return nil
}

type RedisPreferenceRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisPreferenceRepository(client *redis.Client) *RedisPreferenceRepository {
	return &RedisPreferenceRepository{
		client: client,
		prefix: "okeears:preference:",
	}
}

func (r *RedisPreferenceRepository) Get(ctx context.Context, userID string) (*domain.Preference, error) {
	data, err := r.client.Get(ctx, r.prefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrPreferenceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}

	var pref domain.Preference
	if err := json.Unmarshal(data, &pref); err != nil {
		return nil, fmt.Errorf("failed to decode preference: %w", err)
	}
	return &pref, nil
}

// Save stores the preference without expiry.
func (r *RedisPreferenceRepository) Save(ctx context.Context, pref *domain.Preference) error {
	data, err := json.Marshal(pref)
	if err != nil {
		return fmt.Errorf("failed to encode preference: %w", err)
	}

	if err := r.client.Set(ctx, r.prefix+pref.UserID, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save preference: %w", err)
	}
	return nil
}
