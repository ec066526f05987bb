// Package fakemedia provides an in-memory media.Store for tests.
package fakemedia

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"Inkwell/internal/core/media"
)

// Store keeps uploaded blobs in memory.
// FailUploadOn and FailDelete inject failures.
type Store struct {
	blobs map[string][]byte

	// FailUploadOn makes the upload fail when it returns true for the payload
	FailUploadOn func(data []byte) bool

	// FailDelete makes Delete fail for the listed public ids
	FailDelete map[string]bool

	// DeleteCalls records every Delete call in order
	DeleteCalls []string

	seq int
	mu  sync.Mutex
}

// New creates an empty store
func New() *Store {
	return &Store{
		blobs:      make(map[string][]byte),
		FailDelete: make(map[string]bool),
	}
}

// Upload stores data under a generated public id
func (s *Store) Upload(ctx context.Context, data []byte) (*media.Locator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailUploadOn != nil && s.FailUploadOn(data) {
		return nil, &media.UploadError{Err: errors.New("injected upload failure")}
	}

	s.seq++
	id := fmt.Sprintf("blob%03d", s.seq)
	s.blobs[id] = append([]byte(nil), data...)
	return &media.Locator{
		URL:      fmt.Sprintf("https://media.test/%s.bin", id),
		PublicID: id,
	}, nil
}

// Delete removes a blob; unknown ids succeed
func (s *Store) Delete(ctx context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.DeleteCalls = append(s.DeleteCalls, publicID)
	if s.FailDelete[publicID] {
		return &media.DeleteError{PublicID: publicID, Err: errors.New("injected delete failure")}
	}
	delete(s.blobs, publicID)
	return nil
}

// Has reports whether a blob is stored
func (s *Store) Has(publicID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[publicID]
	return ok
}

// IDs returns the stored public ids, sorted
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.blobs))
	for id := range s.blobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of stored blobs
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}
