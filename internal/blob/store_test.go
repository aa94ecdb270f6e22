package blob

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFSStore_RoundTrip(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	assert.NoError(t, err)

	ctx := context.Background()
	handle, err := store.Store(ctx, "report.pdf", strings.NewReader("pdf bytes"))
	assert.NoError(t, err)
	assert.True(t, strings.HasSuffix(handle, ".pdf"))
	assert.True(t, store.Exists(ctx, handle))

	rc, err := store.Read(ctx, handle)
	assert.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	assert.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(content))
}

func TestFSStore_HandlesAreUnique(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	assert.NoError(t, err)

	ctx := context.Background()
	first, err := store.Store(ctx, "report.pdf", strings.NewReader("a"))
	assert.NoError(t, err)
	second, err := store.Store(ctx, "report.pdf", strings.NewReader("b"))
	assert.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestFSStore_DeleteIsIdempotent(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	assert.NoError(t, err)

	ctx := context.Background()
	handle, err := store.Store(ctx, "photo.png", strings.NewReader("png bytes"))
	assert.NoError(t, err)

	assert.NoError(t, store.Delete(ctx, handle))
	assert.False(t, store.Exists(ctx, handle))
	assert.NoError(t, store.Delete(ctx, handle))
}

func TestFSStore_HandleCannotEscapeDir(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	assert.NoError(t, err)

	assert.False(t, store.Exists(context.Background(), "../../etc/passwd"))
}
