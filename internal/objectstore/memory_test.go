package objectstore

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorePutAndGetRoundTripsConvertedCopy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()

	markdown := []byte("# invoice_2024.pdf\n\nTotal due: $420.00\n")

	etag, err := store.Put(ctx, "converted_docs/invoice_2024_enhanced.md", bytes.NewReader(markdown), PutOptions{
		ContentType: "text/markdown",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, etag)

	reader, attrs, err := store.Get(ctx, "converted_docs/invoice_2024_enhanced.md")
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, markdown, data)
	assert.Equal(t, "converted_docs/invoice_2024_enhanced.md", attrs.Key)
	assert.Equal(t, int64(len(markdown)), attrs.Size)
	assert.Equal(t, "text/markdown", attrs.ContentType)
}

func TestMemoryStorePutIsContentAddressed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()

	content := []byte("identical bytes")
	first, err := store.Put(ctx, "a.md", bytes.NewReader(content), PutOptions{})
	require.NoError(t, err)
	second, err := store.Put(ctx, "b.md", bytes.NewReader(content), PutOptions{})
	require.NoError(t, err)

	assert.Equal(t, first, second, "two objects with identical content must share an ETag")
}

func TestMemoryStoreGetNotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()

	_, _, err := store.Get(ctx, "missing_doc.md")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Put(ctx, "converted_docs/stale.md", bytes.NewReader([]byte("old")), PutOptions{})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "converted_docs/stale.md"))

	_, _, err = store.Get(ctx, "converted_docs/stale.md")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreListByPrefixAndDelimiter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()

	keys := []string{
		"converted_docs/report_enhanced.md",
		"converted_docs/report_basic.md",
		"converted_docs/archive/old_enhanced.md",
		"other/note.md",
		"readme.md",
	}
	for _, k := range keys {
		_, err := store.Put(ctx, k, bytes.NewReader([]byte("content")), PutOptions{})
		require.NoError(t, err)
	}

	result, err := store.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, result.Objects, 5)

	result, err = store.List(ctx, ListOptions{Prefix: "converted_docs/"})
	require.NoError(t, err)
	assert.Len(t, result.Objects, 3)

	result, err = store.List(ctx, ListOptions{Prefix: "", Delimiter: "/"})
	require.NoError(t, err)
	assert.Len(t, result.Objects, 1) // readme.md
	assert.Contains(t, result.CommonPrefixes, "converted_docs/")
	assert.Contains(t, result.CommonPrefixes, "other/")
}

func TestMemoryStoreHead(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()

	content := []byte("structural summary")
	_, err := store.Put(ctx, "converted_docs/summary.md", bytes.NewReader(content), PutOptions{
		ContentType: "text/markdown",
	})
	require.NoError(t, err)

	attrs, err := store.Head(ctx, "converted_docs/summary.md")
	require.NoError(t, err)
	assert.Equal(t, "converted_docs/summary.md", attrs.Key)
	assert.Equal(t, int64(len(content)), attrs.Size)
	assert.Equal(t, "text/markdown", attrs.ContentType)

	_, err = store.Head(ctx, "converted_docs/missing.md")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreCopy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()

	content := []byte("snapshot this")
	_, err := store.Put(ctx, "converted_docs/v1.md", bytes.NewReader(content), PutOptions{})
	require.NoError(t, err)

	require.NoError(t, store.Copy(ctx, "converted_docs/v1.md", "converted_docs/v1_backup.md"))

	reader, _, err := store.Get(ctx, "converted_docs/v1_backup.md")
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, content, data)

	err = store.Copy(ctx, "converted_docs/nonexistent.md", "dest.md")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()

	exists, err := store.Exists(ctx, "converted_docs/doc.md")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Put(ctx, "converted_docs/doc.md", bytes.NewReader([]byte("data")), PutOptions{})
	require.NoError(t, err)

	exists, err = store.Exists(ctx, "converted_docs/doc.md")
	require.NoError(t, err)
	assert.True(t, exists)
}
