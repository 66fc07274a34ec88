package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/kura/internal/extract"
	"github.com/hyperjump/kura/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtensionAllowed(t *testing.T) {
	tests := []struct {
		ext     string
		allowed []string
		want    bool
	}{
		{".txt", []string{".txt", ".md"}, true},
		{".TXT", []string{".txt"}, true},
		{".md", []string{"txt", "md"}, true},
		{".go", []string{".txt"}, false},
		{"", []string{".txt"}, false},
		{".go", nil, true},
	}
	for _, tt := range tests {
		got := ExtensionAllowed(tt.ext, tt.allowed)
		if got != tt.want {
			t.Errorf("ExtensionAllowed(%q, %v) = %v, want %v", tt.ext, tt.allowed, got, tt.want)
		}
	}
}

func writeDocs(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
	}
}

func TestLoader_ReadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeDocs(t, dir, map[string]string{
		"b.txt":     "second",
		"a.txt":     "first",
		"notes.md":  "markdown",
		"image.png": "binary",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.txt"), 0755))

	ld := NewLoader(extract.NewExtractor())
	docs, skipped, err := ld.ReadDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, docs, 3)
	assert.Equal(t, "a.txt", docs[0].SourceID)
	assert.Equal(t, "first", docs[0].Content)
	assert.Equal(t, "b.txt", docs[1].SourceID)
	assert.Equal(t, "notes.md", docs[2].SourceID)
}

func TestLoader_SkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	writeDocs(t, dir, map[string]string{"ok.txt": "fine"})
	// A dangling symlink cannot be stat'ed and must be skipped, not fatal.
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing"), filepath.Join(dir, "broken.txt")))

	docs, skipped, err := NewLoader(nil).ReadDirectory(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Len(t, skipped, 1)
	assert.Equal(t, "broken.txt", skipped[0].SourceID)
	assert.NotEmpty(t, skipped[0].Reason)
}

func TestLoader_MissingDirectory(t *testing.T) {
	_, _, err := NewLoader(nil).ReadDirectory(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestLoader_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeDocs(t, dir, map[string]string{"a.txt": "x"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := NewLoader(nil).ReadDirectory(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoader_WithExtensions(t *testing.T) {
	dir := t.TempDir()
	writeDocs(t, dir, map[string]string{"a.txt": "x", "b.rst": "y"})
	docs, _, err := NewLoader(nil, WithExtensions([]string{".rst"})).ReadDirectory(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "b.rst", docs[0].SourceID)
}

func TestBuildPassages(t *testing.T) {
	c, err := NewChunker(10, 2)
	require.NoError(t, err)
	docs := []models.Document{
		{SourceID: "a.txt", Content: "0123456789abcdef"},
		{SourceID: "empty.txt", Content: "   "},
		{SourceID: "b.txt", Content: "short"},
	}
	passages, skipped, used := BuildPassages(docs, c)
	assert.Equal(t, 2, used)
	require.Len(t, skipped, 1)
	assert.Equal(t, "empty.txt", skipped[0].SourceID)
	require.Len(t, passages, 3)
	assert.Equal(t, "a.txt", passages[0].SourceID)
	assert.Equal(t, "a.txt", passages[1].SourceID)
	assert.Equal(t, 1, passages[1].ChunkIndex)
	assert.Equal(t, "b.txt", passages[2].SourceID)
	assert.Equal(t, 1, passages[2].ChunkCount)
}
