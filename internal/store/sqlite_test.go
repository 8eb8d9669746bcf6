package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inboundkit/internal/store"
	"github.com/nhle/inboundkit/tests/testutil"
)

func TestMigrationsApplied(t *testing.T) {
	s := testutil.NewTestStore(t)

	v, err := s.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestGetMissingKey(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetOverwrites(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "domain-setup:step", "1"))
	require.NoError(t, s.Set(ctx, "domain-setup:step", "2"))

	v, err := s.Get(ctx, "domain-setup:step")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestDeleteMany(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", "1"))
	require.NoError(t, s.Set(ctx, "b", "2"))
	require.NoError(t, s.Set(ctx, "c", "3"))

	require.NoError(t, s.Delete(ctx, "a", "b", "missing"))

	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Get(ctx, "b")
	assert.ErrorIs(t, err, store.ErrNotFound)
	v, err := s.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "3", v)
}

func TestReopenKeepsValuesAndVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", "v"))
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	ver, err := s.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ver)
}
