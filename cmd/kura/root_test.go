package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kura/internal/models"
)

// setupProject writes a config using the mock provider plus a small document set.
func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.Mkdir(docs, 0755))
	files := map[string]string{
		"cats.txt":   "Cats are small domesticated carnivores that purr.",
		"dogs.md":    "Dogs are loyal companions and love to fetch.",
		"ignore.csv": "a,b,c",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(docs, name), []byte(content), 0644))
	}
	cfg := `embedding:
  provider: mock
  dimensions: 256
storage:
  index_dir: ./index
documents:
  directory: ./docs
`
	path := filepath.Join(dir, "kura.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_Version(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "kura version test\n", out)

	out, err = execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "test")
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	cmd := NewRootCmd("test")
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"build", "search", "answer", "serve", "status", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestBuildSearchAnswerStatus(t *testing.T) {
	cfgPath := setupProject(t)

	out, err := execute(t, "--config", cfgPath, "build")
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 2 passages from 2 documents (dimension 256)")

	out, err = execute(t, "--config", cfgPath, "-o", "json", "search", "-k", "1", "cats", "purr")
	require.NoError(t, err)
	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "cats purr", resp.Query)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "cats.txt", resp.Results[0].SourceID)

	out, err = execute(t, "--config", cfgPath, "answer", "what do dogs love")
	require.NoError(t, err)
	assert.Contains(t, out, "**Relevant information:**")
	assert.Contains(t, out, "(Source: dogs.md)")

	out, err = execute(t, "--config", cfgPath, "-o", "json", "status")
	require.NoError(t, err)
	var st statusReport
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.True(t, st.Index.Ready)
	assert.Equal(t, 2, st.Index.Passages)
	assert.Equal(t, 2, st.Index.Sources)
	assert.Positive(t, st.DiskUsageBytes)
}

func TestSearch_BuildsWhenIndexMissing(t *testing.T) {
	cfgPath := setupProject(t)

	out, err := execute(t, "--config", cfgPath, "-o", "compact", "search", "dogs")
	require.NoError(t, err)
	assert.Contains(t, out, "dogs.md#0")
	assert.DirExists(t, filepath.Join(filepath.Dir(cfgPath), "index"))
}

func TestStatus_NotBuilt(t *testing.T) {
	cfgPath := setupProject(t)
	out, err := execute(t, "--config", cfgPath, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "State:      not built")
}

func TestBuild_NoDocuments(t *testing.T) {
	cfgPath := setupProject(t)
	empty := t.TempDir()
	_, err := execute(t, "--config", cfgPath, "build", "--docs", empty)
	assert.ErrorIs(t, err, models.ErrNoDocuments)
}

func TestCommandErrors(t *testing.T) {
	cfgPath := setupProject(t)

	_, err := execute(t, "--config", cfgPath, "-o", "xml", "status")
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "status")
	assert.Error(t, err)

	_, err = execute(t, "--config", cfgPath, "search", "-k", "-3", "cats")
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = execute(t, "--config", cfgPath, "search")
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("chunking:\n  size: 10\n  overlap: 10\n"), 0644))
	_, err = execute(t, "--config", bad, "status")
	assert.ErrorIs(t, err, models.ErrConfig)
}

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, path, err := loadConfig("")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, "mock", cfg.Embedding.Provider)
}

func TestLoadConfig_PicksUpWorkingDirFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, defaultConfigFile), []byte("debug: true\n"), 0644))
	t.Chdir(dir)
	cfg, path, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfigFile, path)
	assert.True(t, cfg.Debug)
}

func TestStatus_CorruptIndex(t *testing.T) {
	cfgPath := setupProject(t)
	_, err := execute(t, "--config", cfgPath, "build")
	require.NoError(t, err)

	vectors := filepath.Join(filepath.Dir(cfgPath), "index", "vectors.bin")
	require.NoError(t, os.WriteFile(vectors, []byte("garbage"), 0644))

	out, err := execute(t, "--config", cfgPath, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "State:      unreadable")
}
