package graphstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corphon/novelgraph/internal/models"
)

func TestUpsertBundleThenGetRoundTrips(t *testing.T) {
	store := NewMemoryStore()
	novel := &models.Novel{ID: "n1", Title: "测试"}
	bundle := &models.AnalysisBundle{NovelID: "n1"}

	err := store.UpsertBundle(context.Background(), "n1", novel, bundle)
	require.NoError(t, err)

	got, ok := store.Get("n1")
	require.True(t, ok)
	assert.Same(t, bundle, got)
}

func TestUpsertBundleReplacesPriorWrite(t *testing.T) {
	store := NewMemoryStore()
	first := &models.AnalysisBundle{NovelID: "n1"}
	second := &models.AnalysisBundle{NovelID: "n1"}

	require.NoError(t, store.UpsertBundle(context.Background(), "n1", nil, first))
	require.NoError(t, store.UpsertBundle(context.Background(), "n1", nil, second))

	got, ok := store.Get("n1")
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestGetMissingNovelReturnsFalse(t *testing.T) {
	store := NewMemoryStore()
	_, ok := store.Get("absent")
	assert.False(t, ok)
}

func TestFailNextWithFailsExactlyOneCall(t *testing.T) {
	store := NewMemoryStore()
	boom := errors.New("boom")
	store.FailNextWith(boom)

	err := store.UpsertBundle(context.Background(), "n1", nil, &models.AnalysisBundle{NovelID: "n1"})
	assert.ErrorIs(t, err, boom)

	_, ok := store.Get("n1")
	assert.False(t, ok, "a failed upsert must not write")

	err = store.UpsertBundle(context.Background(), "n1", nil, &models.AnalysisBundle{NovelID: "n1"})
	assert.NoError(t, err)

	_, ok = store.Get("n1")
	assert.True(t, ok, "the call after FailNextWith clears itself should succeed")
}
