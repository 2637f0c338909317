package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unstakepool/internal/pool"
)

func testRecord(id, name string) Record {
	now := time.Now().Unix()
	return Record{
		ID:        id,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		State: pool.Snapshot{
			Price:           1_500_000,
			LiquidityTarget: 90_000_000,
			MinFee:          1_000,
			MaxFee:          90_000,
		},
	}
}

func TestMemoryStorePutAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	record := testRecord("pool-1", "main")
	require.NoError(t, s.Put(ctx, record))

	got, err := s.GetOne(ctx, "pool-1")
	require.NoError(t, err)
	assert.Equal(t, record, *got)
}

func TestMemoryStorePutRequiresID(t *testing.T) {
	s := NewMemoryStore()
	assert.Error(t, s.Put(context.Background(), Record{Name: "no-id"}))
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.GetOne(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, testRecord("pool-1", "one")))
	require.NoError(t, s.Put(ctx, testRecord("pool-2", "two")))

	records, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, testRecord("pool-1", "one")))
	require.NoError(t, s.Delete(ctx, "pool-1"))

	_, err := s.GetOne(ctx, "pool-1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, "pool-1"), ErrNotFound)
}

func TestMemoryStorePutReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	record := testRecord("pool-1", "one")
	require.NoError(t, s.Put(ctx, record))

	record.State.TokenAmount = 100_000_000
	require.NoError(t, s.Put(ctx, record))

	got, err := s.GetOne(ctx, "pool-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000_000), got.State.TokenAmount)

	records, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
