// Package graphstore defines the property-graph projection of an
// AnalysisBundle and the store interface the orchestrator writes through.
package graphstore

import (
	"context"
	"sync"

	"github.com/corphon/novelgraph/internal/models"
)

// Store is the graph-store client the orchestrator is injected with.
// UpsertBundle must behave as a single transaction scoped to novelID:
// prior nodes/edges under that key are deleted before the new ones are
// inserted, so a re-run of the same novel is idempotent.
type Store interface {
	UpsertBundle(ctx context.Context, novelID string, novel *models.Novel, bundle *models.AnalysisBundle) error
}

// MemoryStore is an in-memory Store double for tests and for running the
// pipeline without a Neo4j instance. It keeps only the most recent bundle
// per novel ID, matching the delete-before-insert contract.
type MemoryStore struct {
	mu       sync.Mutex
	bundles  map[string]*models.AnalysisBundle
	novels   map[string]*models.Novel
	writeErr error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bundles: make(map[string]*models.AnalysisBundle),
		novels:  make(map[string]*models.Novel),
	}
}

// FailNextWith makes the next UpsertBundle call (and only that call)
// return err instead of writing, then clears itself. Useful for exercising
// the GraphStoreError / persisted=false path in tests.
func (s *MemoryStore) FailNextWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// UpsertBundle stores bundle, replacing whatever was previously stored for
// novelID.
func (s *MemoryStore) UpsertBundle(ctx context.Context, novelID string, novel *models.Novel, bundle *models.AnalysisBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeErr != nil {
		err := s.writeErr
		s.writeErr = nil
		return err
	}

	s.bundles[novelID] = bundle
	s.novels[novelID] = novel
	return nil
}

// Get returns the bundle most recently written for novelID.
func (s *MemoryStore) Get(novelID string) (*models.AnalysisBundle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bundles[novelID]
	return b, ok
}
