package mq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyage/rdx"
)

func TestHandleInvalidates(t *testing.T) {
	ctx := context.Background()
	cache := rdx.NewMemory()
	key := rdx.Key("html", "doc-1", []byte("v1"))
	other := rdx.Key("html", "doc-2", []byte("v1"))
	require.NoError(t, cache.Set(ctx, key, []byte("old"), 0))
	require.NoError(t, cache.Set(ctx, other, []byte("keep"), 0))

	payload, err := json.Marshal(SavedEvent{DocumentID: "doc-1", UserID: "u", SavedAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, Handle(ctx, cache, string(payload)))

	_, ok, _ := cache.Get(ctx, key)
	assert.False(t, ok)
	_, ok, _ = cache.Get(ctx, other)
	assert.True(t, ok)
}

func TestHandleRejectsBadPayload(t *testing.T) {
	cache := rdx.NewMemory()
	assert.Error(t, Handle(context.Background(), cache, "not json"))
	assert.Error(t, Handle(context.Background(), cache, `{"userId":"u"}`))
}

func TestLocalPublisher(t *testing.T) {
	ctx := context.Background()
	cache := rdx.NewMemory()
	key := rdx.Key("pdf", "doc-9", []byte("v"))
	require.NoError(t, cache.Set(ctx, key, []byte("%PDF"), 0))

	var p Publisher = Local{Cache: cache}
	require.NoError(t, p.PublishSaved(ctx, SavedEvent{DocumentID: "doc-9"}))
	assert.Equal(t, 0, cache.Len())
}
