package pipeline_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	phaserrors "github.com/phaser-svc/phaser/pkg/errors"
	"github.com/phaser-svc/phaser/pkg/pipeline"
)

func writePipeline(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writePipeline(t, dir, ".phaser.yaml", ciDocument)

	p, err := pipeline.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ci", p.Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := pipeline.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, phaserrors.IsType(err, phaserrors.ErrPipeline))
}

func TestLoadInvalidDocument(t *testing.T) {
	dir := t.TempDir()
	path := writePipeline(t, dir, ".phaser.yaml", "on: push\n")

	_, err := pipeline.Load(path)
	require.Error(t, err)
	assert.True(t, phaserrors.IsType(err, phaserrors.ErrValidation))
}

func TestFindInCurrentDir(t *testing.T) {
	dir := t.TempDir()
	want := writePipeline(t, dir, "phaser.yml", ciDocument)

	got, err := pipeline.Find(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFindPrefersCanonicalName(t *testing.T) {
	dir := t.TempDir()
	writePipeline(t, dir, "phaser.yaml", ciDocument)
	want := writePipeline(t, dir, ".phaser.yaml", ciDocument)

	got, err := pipeline.Find(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got, ".phaser.yaml wins over phaser.yaml")
}

func TestFindInParentDir(t *testing.T) {
	root := t.TempDir()
	want := writePipeline(t, root, ".phaser.yaml", ciDocument)

	nested := filepath.Join(root, "internal", "svc")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, err := pipeline.Find(nested)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFindNotFound(t *testing.T) {
	_, err := pipeline.Find(t.TempDir())
	require.Error(t, err)
	assert.True(t, phaserrors.IsType(err, phaserrors.ErrPipeline))
}

func TestLoadDefault(t *testing.T) {
	dir := t.TempDir()
	want := writePipeline(t, dir, ".phaser.yaml", ciDocument)

	p, path, err := pipeline.LoadDefault(dir)
	require.NoError(t, err)
	assert.Equal(t, want, path)
	assert.Equal(t, "ci", p.Name)
}
