package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"coursehub/models"
)

// Draft is an admin's pending content for one chapter, kept server-side until it is committed.
type Draft struct {
	Location  models.Location  `json:"location"`
	Contents  []models.Content `json:"contents"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// DraftStore persists one draft per admin in a KVStore.
type DraftStore struct {
	kv  KVStore
	ttl time.Duration
}

// Drafts is the process-wide draft store, set in main.
var Drafts *DraftStore

func NewDraftStore(kv KVStore, ttl time.Duration) *DraftStore {
	return &DraftStore{kv: kv, ttl: ttl}
}

func draftKey(adminID uint) string {
	return fmt.Sprintf("draft:%d", adminID)
}

// Get returns the admin's draft, or an empty one when nothing is stored.
func (s *DraftStore) Get(ctx context.Context, adminID uint) (*Draft, error) {
	raw, ok, err := s.kv.Get(ctx, draftKey(adminID))
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	if !ok {
		return &Draft{Contents: []models.Content{}}, nil
	}

	var d Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	if d.Contents == nil {
		d.Contents = []models.Content{}
	}
	return &d, nil
}

// Save replaces the admin's draft and refreshes its expiry.
func (s *DraftStore) Save(ctx context.Context, adminID uint, d *Draft) error {
	if d.Contents == nil {
		d.Contents = []models.Content{}
	}
	d.UpdatedAt = time.Now()
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.kv.Set(ctx, draftKey(adminID), string(raw), s.ttl); err != nil {
		return fmt.Errorf("store draft: %w", err)
	}
	return nil
}

// Delete discards the admin's draft.
func (s *DraftStore) Delete(ctx context.Context, adminID uint) error {
	return s.kv.Delete(ctx, draftKey(adminID))
}

// Append adds items to the draft. Items with an id already in the draft are skipped. If the draft
// targets a different chapter, loc replaces it and the previous pending items are dropped.
func (s *DraftStore) Append(ctx context.Context, adminID uint, loc models.Location, items ...models.Content) (*Draft, error) {
	d, err := s.Get(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if d.Location != loc {
		d.Location = loc
		d.Contents = []models.Content{}
	}

	seen := make(map[string]bool, len(d.Contents))
	for _, c := range d.Contents {
		seen[c.ID] = true
	}
	for _, item := range items {
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		d.Contents = append(d.Contents, item)
	}

	if err := s.Save(ctx, adminID, d); err != nil {
		return nil, err
	}
	return d, nil
}
