package metadata

import (
	"context"
	"testing"
	"time"

	"github.com/SlpAus/ballpark-ranking-backend/internal/platform/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetSetValue(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dbtest.NewDB(t, &Metadata{}))

	_, ok, err := s.GetValue(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetValue(ctx, "k", "v1"))
	require.NoError(t, s.SetValue(ctx, "k", "v2"))
	v, ok, err := s.GetValue(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", v)
}

func TestStore_RankRebuild(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dbtest.NewDB(t, &Metadata{}))

	_, ok, err := s.LastRankRebuild(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2025, 7, 4, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordRankRebuild(ctx, at, 42))
	info, ok, err := s.LastRankRebuild(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, at.Equal(info.At))
	assert.Equal(t, 42, info.Users)
}

func TestStore_MalformedRebuildTime(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dbtest.NewDB(t, &Metadata{}))

	require.NoError(t, s.SetValue(ctx, LastRankRebuildAtKey, "yesterday"))
	_, _, err := s.LastRankRebuild(ctx)
	assert.Error(t, err)
}
