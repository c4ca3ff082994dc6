package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/backend/internal/models"
)

func TestFileProfileStore_ReadAbsent(t *testing.T) {
	s, err := NewFileProfileStore(t.TempDir())
	require.NoError(t, err)

	rec, err := s.ReadProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestFileProfileStore_WriteOverwritesWholeRecord(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileProfileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.WriteProfile(ctx, "u1", models.ProfileFields{Bio: "hi", CoverPhoto: "c", Location: "Austin"}))
	require.NoError(t, s.WriteProfile(ctx, "u1", models.ProfileFields{Location: "Paris"}))

	reopened, err := NewFileProfileStore(dir)
	require.NoError(t, err)
	rec, err := reopened.ReadProfile(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.ProfileFields{Location: "Paris"}, rec.Resolve(models.ProfileFields{Bio: "x", CoverPhoto: "y"}))
}

func TestFileProfileStore_Watch(t *testing.T) {
	s, err := NewFileProfileStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := s.WatchProfile(ctx, "u1")
	require.NoError(t, err)

	first := <-ch
	assert.Nil(t, first.Record)

	require.NoError(t, s.WriteProfile(context.Background(), "u1", models.ProfileFields{Bio: "new"}))
	select {
	case snap := <-ch:
		require.NotNil(t, snap.Record)
		assert.Equal(t, "new", *snap.Record.Bio)
	case <-time.After(time.Second):
		t.Fatal("no snapshot after write")
	}

	cancel()
	for range ch {
	}
}
