package flash

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PopClears(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "s1", Flash{Kind: KindSuccess, Message: "Saved"}))
	require.NoError(t, store.Put(ctx, "s1", Flash{Kind: KindError, Message: "But not that"}))
	require.NoError(t, store.Put(ctx, "s2", Flash{Kind: KindInfo, Message: "Other session"}))

	got, err := store.Pop(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []Flash{
		{Kind: KindSuccess, Message: "Saved"},
		{Kind: KindError, Message: "But not that"},
	}, got)

	got, err = store.Pop(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got, "flashes are shown once")

	got, err = store.Pop(ctx, "s2")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMemoryStore_IgnoresEmptySession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "", Flash{Kind: KindInfo, Message: "lost"}))
	got, err := store.Pop(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, got)
}
