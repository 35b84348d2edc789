package cli

import (
	"context"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/specgraph/pkg/cache"
	"github.com/matzehuels/specgraph/pkg/errors"
	"github.com/matzehuels/specgraph/pkg/pipeline"
)

const pathGraph = "10 20\n20 30\n30 40\n40 50\n50 60\n"

func init() {
	stdout = io.Discard
}

func workdir(t *testing.T, graph string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, pipeline.GraphFile, graph)
	return dir
}

func run(args ...string) error {
	return Run(context.Background(), args, io.Discard)
}

func TestRenderCommand(t *testing.T) {
	dir := workdir(t, pathGraph)
	require.NoError(t, run("render", "--no-cache", "--scale", "2", dir))

	raw, err := os.ReadFile(filepath.Join(dir, pipeline.EmbeddingFile))
	require.NoError(t, err)
	assert.Equal(t, 6, strings.Count(string(raw), "\n"))

	f, err := os.Open(filepath.Join(dir, pipeline.ImageFile))
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Zero(t, cfg.Width%2)
}

func TestRenderCommandOutputDir(t *testing.T) {
	dir := workdir(t, pathGraph)
	out := filepath.Join(t.TempDir(), "out")
	require.NoError(t, run("render", "--no-cache", "-o", out, dir))
	assert.FileExists(t, filepath.Join(out, pipeline.ImageFile))
	assert.NoFileExists(t, filepath.Join(dir, pipeline.ImageFile))
}

func TestEmbedThenDraw(t *testing.T) {
	dir := workdir(t, pathGraph)
	require.NoError(t, run("embed", "--no-cache", dir))
	assert.FileExists(t, filepath.Join(dir, pipeline.EmbeddingFile))
	assert.NoFileExists(t, filepath.Join(dir, pipeline.ImageFile))

	require.NoError(t, run("draw", "--no-cache", "--width", "64", "--height", "48", dir))
	f, err := os.Open(filepath.Join(dir, pipeline.ImageFile))
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 48, cfg.Height)
}

func TestCommandErrors(t *testing.T) {
	empty := t.TempDir()
	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"missing workdir", []string{"render", filepath.Join(empty, "nope")}, errors.ErrCodeFileNotFound},
		{"missing graph", []string{"render", "--no-cache", empty}, errors.ErrCodeFileNotFound},
		{"draw without embedding", []string{"draw", "--no-cache", workdir(t, pathGraph)}, errors.ErrCodeFileNotFound},
		{"bad which", []string{"render", "--which", "LM", workdir(t, pathGraph)}, errors.ErrCodeConfig},
		{"k too small", []string{"embed", "--k", "2", workdir(t, pathGraph)}, errors.ErrCodeConfig},
		{"bad color", []string{"render", "--edge-color", "blue", workdir(t, pathGraph)}, errors.ErrCodeConfig},
		{"malformed edge list", []string{"render", "--no-cache", workdir(t, "1 2 3\n")}, errors.ErrCodeParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.args...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestMissingArgument(t *testing.T) {
	assert.Error(t, run("render"))
}

func TestFlagsOverrideConfig(t *testing.T) {
	dir := workdir(t, pathGraph)
	writeFile(t, dir, configFile, "scale = 2\nk = 5\n")

	c := New(io.Discard, LogInfo)
	prepare := func(args ...string) *session {
		var flags runFlags
		cmd := &cobra.Command{Use: "render"}
		flags.register(cmd, true, true)
		cmd.SetContext(context.Background())
		require.NoError(t, cmd.ParseFlags(args))
		s, err := c.prepare(cmd, dir, &flags)
		require.NoError(t, err)
		return s
	}

	s := prepare()
	assert.Equal(t, 2, s.opts.Scale)
	assert.Equal(t, 5, s.opts.K)

	s = prepare("--scale", "3")
	assert.Equal(t, 3, s.opts.Scale)
	assert.Equal(t, 5, s.opts.K)
}

func TestNewCache(t *testing.T) {
	ctx := context.Background()
	c := New(io.Discard, LogInfo)

	got, err := c.newCache(ctx, CacheConfig{Backend: backendNone})
	require.NoError(t, err)
	assert.IsType(t, cache.NullCache{}, got)

	dir := t.TempDir()
	got, err = c.newCache(ctx, CacheConfig{Dir: dir})
	require.NoError(t, err)
	require.IsType(t, &cache.FileCache{}, got)
	assert.Equal(t, dir, got.(*cache.FileCache).Dir())

	_, err = c.newCache(ctx, CacheConfig{Backend: "memcached"})
	assert.True(t, errors.Is(err, errors.ErrCodeConfig))

	c.noCache = true
	got, err = c.newCache(ctx, CacheConfig{Backend: "memcached"})
	require.NoError(t, err)
	assert.IsType(t, cache.NullCache{}, got)
}

func TestLocalCacheDir(t *testing.T) {
	dir := t.TempDir()
	c := New(io.Discard, LogInfo)
	c.configPath = writeFile(t, t.TempDir(), "cfg.toml", "[cache]\ndir = \""+filepath.ToSlash(dir)+"\"\n")

	got, err := c.localCacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(dir), got)

	c.configPath = writeFile(t, t.TempDir(), "cfg.toml", "[cache]\nbackend = \"redis\"\n")
	_, err = c.localCacheDir()
	assert.True(t, errors.Is(err, errors.ErrCodeConfig))
}

func TestWatched(t *testing.T) {
	tests := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: "/w/graph.txt", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/w/graph.txt", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "/w/specgraph.toml", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/w/graph.txt", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "/w/graph.png", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "/w/embedding.txt", Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		if got := watched(tt.event); got != tt.want {
			t.Errorf("watched(%v) = %v, want %v", tt.event, got, tt.want)
		}
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"render", "embed", "draw", "watch", "serve", "cache"} {
		assert.Contains(t, names, want)
	}
}
