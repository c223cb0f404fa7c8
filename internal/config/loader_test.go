package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/tandem/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// isolate runs the test in an empty directory with no ambient credentials.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("HOME", dir)
	t.Setenv(config.EnvOpenAIKey, "")
	t.Setenv(config.EnvOpenAIBaseURL, "")
	t.Setenv(config.EnvTavilyKey, "")
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, path, err := config.Load("")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_FileInWorkingDir(t *testing.T) {
	dir := isolate(t)
	writeFile(t, dir, "tandem.yaml", `
model:
  name: gpt-4o-mini
search:
  max_results: 3
  cache: none
run:
  max_steps: 0
code:
  timeout: 90s
`)

	cfg, path, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "tandem.yaml", path)

	assert.Equal(t, "gpt-4o-mini", cfg.Model.Name)
	assert.Equal(t, 3, cfg.Search.MaxResults)
	assert.Equal(t, config.CacheNone, cfg.Search.Cache)
	assert.Equal(t, 0, cfg.Run.MaxSteps)
	assert.Equal(t, 90*time.Second, cfg.Code.Timeout)
	// untouched keys keep their defaults
	assert.Equal(t, "python3", cfg.Code.Interpreter)
	assert.Equal(t, 10, cfg.Run.MaxToolRounds)
}

func TestLoad_EnvExpansionAndFallbacks(t *testing.T) {
	dir := isolate(t)
	t.Setenv("MY_MODEL", "gpt-4.1")
	t.Setenv(config.EnvOpenAIKey, "sk-env")
	t.Setenv(config.EnvTavilyKey, "tvly-env")
	path := writeFile(t, dir, "custom.yaml", `
model:
  name: ${MY_MODEL}
search:
  api_key: tvly-file
`)

	cfg, _, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1", cfg.Model.Name)
	assert.Equal(t, "sk-env", cfg.Model.APIKey)
	assert.Equal(t, "tvly-file", cfg.Search.APIKey)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, dir, ".env", "TAVILY_API_KEY=tvly-dotenv\n")
	t.Cleanup(func() { os.Unsetenv(config.EnvTavilyKey) })

	// t.Setenv("") leaves the variable set, which godotenv does not override.
	os.Unsetenv(config.EnvTavilyKey)

	cfg, _, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "tvly-dotenv", cfg.Search.APIKey)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)

	_, _, err := config.Load("nope.yaml")
	assert.ErrorContains(t, err, "does not exist")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "model: [unclosed"},
		{"unknown cache", "search:\n  cache: memcached\n"},
		{"redis without url", "search:\n  cache: redis\n"},
		{"negative steps", "run:\n  max_steps: -1\n"},
		{"bad log level", "log:\n  level: loud\n"},
		{"bad base url", "model:\n  base_url: not a url\n"},
		{"persistent history backend", "history:\n  backend: file\n"},
		{"negative history bound", "history:\n  max_runs: -5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			path := writeFile(t, dir, "tandem.yaml", tt.content)

			_, _, err := config.Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_RedisCache(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "tandem.yaml", "search:\n  cache: redis\n  redis_url: redis://localhost:6379/0\n  ttl: 1h\n")

	cfg, _, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.CacheRedis, cfg.Search.Cache)
	assert.Equal(t, time.Hour, cfg.Search.TTL)
}

func TestLoad_History(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "tandem.yaml", "history:\n  max_runs: 10\n")

	cfg, _, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.History.MaxRuns)
	assert.Equal(t, config.HistoryMemory, cfg.History.Backend, "unset keys keep their defaults")
}
