package main

import (
	"bytes"
	"image/gif"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dyngrid/internal/config"
	"dyngrid/internal/core"
)

// execute runs the CLI with args and returns what it printed to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.Execute()
	return stdout.String(), err
}

func TestModelsListsEveryModel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, listModels(&buf))
	for _, name := range []string{"briansbrain", "ecology", "elementary", "life"} {
		assert.Contains(t, buf.String(), name)
	}
	assert.Contains(t, buf.String(), "fire_spread_chance=")
}

func TestRunArrayOutput(t *testing.T) {
	out, err := execute(t, "run", "-m", "life", "-p", "w=8", "-p", "h=8", "-n", "5", "-o", "array")
	require.NoError(t, err)
	assert.Contains(t, out, "t=5\n")
	assert.Contains(t, out, "5 frames, 1 replicates")
}

func TestRunREPLOutput(t *testing.T) {
	out, err := execute(t, "run", "-m", "elementary", "-p", "w=16", "-n", "3", "--glyphs", "braille")
	require.NoError(t, err)
	assert.Contains(t, out, "t=1\n")
	assert.Contains(t, out, "t=3\n")
	assert.NotContains(t, out, "t=4\n")
}

func TestRunFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model: briansbrain
params:
  w: "12"
  h: "6"
frames: 9
output:
  kind: array
`), 0o600))

	out, err := execute(t, "run", "-c", path, "-n", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "4 frames", "flags override the file")
}

func TestRunRejectsBadInput(t *testing.T) {
	_, err := execute(t, "run", "-m", "nope", "-o", "array")
	assert.ErrorIs(t, err, core.ErrUnknownModel)

	_, err = execute(t, "run", "-r", "0")
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, err = execute(t, "run", "-o", "store")
	assert.ErrorIs(t, err, config.ErrInvalid, "the store output needs a path")
}

func TestStoreResumeAndGIF(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")

	out, err := execute(t, "run", "-m", "ecology", "-p", "w=12", "-p", "h=8", "-r", "2",
		"-n", "4", "-o", "store", "--store", dir, "--run", "forest")
	require.NoError(t, err)
	assert.Contains(t, out, "run forest: 4 frames")

	out, err = execute(t, "resume", "--store", dir, "-n", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "run forest: resumed from t=4 to t=7")

	file := filepath.Join(t.TempDir(), "forest.gif")
	out, err = execute(t, "gif", "--store", dir, "--out", file, "--scale", "3", "--every", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 4 frames")

	f, err := os.Open(file)
	require.NoError(t, err)
	defer f.Close()
	anim, err := gif.DecodeAll(f)
	require.NoError(t, err)
	assert.Len(t, anim.Image, 4)
	assert.Equal(t, 36, anim.Config.Width)
	assert.Equal(t, 24, anim.Config.Height)
}

func TestGIFStacksRankOneRuns(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	_, err := execute(t, "run", "-m", "elementary", "-p", "w=10", "-p", "h=5", "-n", "3", "-o", "store", "--store", dir)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := writeGIF(t.Context(), &buf, &bytes.Buffer{}, gifOptions{store: dir, scale: 1, every: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	anim, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	assert.Equal(t, 10, anim.Config.Width)
	assert.Equal(t, 5, anim.Config.Height, "history rows become the picture height")
}

func TestGIFWithoutRun(t *testing.T) {
	_, err := writeGIF(t.Context(), &bytes.Buffer{}, &bytes.Buffer{}, gifOptions{store: t.TempDir()})
	assert.Error(t, err)
}

func TestLabelsRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.Model = "ecology"
	cfg.Params = map[string]string{"w": "40", "burn_ttl": "5"}
	cfg.Seed = 77
	cfg.Replicates = 3
	cfg.Overflow = "wrap"

	got := fromLabels(runLabels(cfg))
	assert.Equal(t, cfg.Model, got.Model)
	assert.Equal(t, cfg.Params, got.Params)
	assert.Equal(t, cfg.Seed, got.Seed)
	assert.Equal(t, cfg.Replicates, got.Replicates)
	assert.Equal(t, cfg.Overflow, got.Overflow)
	assert.False(t, got.Sparse)
}
