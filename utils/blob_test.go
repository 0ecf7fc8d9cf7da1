package utils

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var gifBytes = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")

func TestBlobStoreRoundTrip(t *testing.T) {
	b := NewBlobStore(t.TempDir(), 0)
	ctx := context.Background()

	ref, err := b.Store(ctx, gifBytes, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "posts/"))
	assert.True(t, strings.HasSuffix(ref, ".gif"))
	assert.True(t, b.Exists(ctx, ref))
	assert.Equal(t, "/media/"+ref, b.URL(ref))

	data, contentType, err := b.Retrieve(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, gifBytes, data)
	assert.Equal(t, "image/gif", contentType)
}

func TestBlobStoreRejectsNonImages(t *testing.T) {
	b := NewBlobStore(t.TempDir(), 0)
	ctx := context.Background()

	_, err := b.Store(ctx, []byte("plain text"), "")
	assert.ErrorIs(t, err, ErrUnsupportedMedia)

	_, err = b.Store(ctx, []byte("plain text"), "image/png")
	assert.ErrorIs(t, err, ErrUnsupportedMedia, "declared type must match content")
}

func TestBlobStoreSizeLimit(t *testing.T) {
	b := NewBlobStore(t.TempDir(), 8)
	_, err := b.Store(context.Background(), gifBytes, "")
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.NotErrorIs(t, err, ErrUnsupportedMedia)
}

func TestBlobStoreUnknownRefs(t *testing.T) {
	b := NewBlobStore(t.TempDir(), 0)
	ctx := context.Background()

	for _, ref := range []string{"", "../secret", "posts/2024/01/not-a-uuid.png", "posts/2024/01/0b7e8f56-0c1e-4a36-9bb3-2f2a8d1f6e11.png"} {
		assert.False(t, b.Exists(ctx, ref), ref)
		_, _, err := b.Retrieve(ctx, ref)
		assert.ErrorIs(t, err, ErrNotFound, ref)
	}
	assert.Empty(t, b.URL(""))
}
