// Package testutil holds shared helpers for tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"sociogram/internal/assets"
)

// StubAssetStore is an in-memory assets.Store for tests. It hands out
// deterministic asset ids and records every upload and delete.
type StubAssetStore struct {
	mu       sync.Mutex
	next     int
	Uploads  []string
	Deletes  []string
	FailWith error
}

// NewStubAssetStore returns an empty stub store.
func NewStubAssetStore() *StubAssetStore {
	return &StubAssetStore{}
}

// Upload records the upload and returns a deterministic asset.
func (s *StubAssetStore) Upload(_ context.Context, img *assets.Image) (assets.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return assets.Asset{}, s.FailWith
	}
	s.next++
	id := fmt.Sprintf("images/stub-%d%s", s.next, img.Extension())
	s.Uploads = append(s.Uploads, id)
	return assets.Asset{URL: "https://assets.test/" + id, ID: id}, nil
}

// Delete records the release of an asset id.
func (s *StubAssetStore) Delete(_ context.Context, assetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	s.Deletes = append(s.Deletes, assetID)
	return nil
}
