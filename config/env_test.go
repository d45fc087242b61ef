package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromMergesFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "app.json")
	envPath := filepath.Join(dir, ".env")

	require.NoError(t, os.WriteFile(jsonPath, []byte(`{
		"api_main_url": "http://json:3000/",
		"cache_ttl": "5s",
		"search_debounce": "250ms"
	}`), 0o644))
	require.NoError(t, os.WriteFile(envPath, []byte("# comment\nAPI_MAIN_URL=\"http://dotenv:3000\"\nCACHE_DRIVER=redis\n"), 0o644))

	require.NoError(t, LoadFrom(jsonPath, envPath))
	t.Cleanup(func() { _ = LoadFrom(filepath.Join(dir, "none.json"), filepath.Join(dir, "none.env")) })

	assert.Equal(t, "http://dotenv:3000", MainAPIURL())
	assert.Equal(t, "redis", CacheDriver())
	assert.Equal(t, 5*time.Second, CacheTTL())
	assert.Equal(t, 250*time.Millisecond, SearchDebounce())
	assert.Equal(t, defaultProductAPIURL, ProductAPIURL())
}

func TestProcessEnvWins(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("API_CATEGORY_URL", "http://env:3004/api")

	require.NoError(t, LoadFrom(filepath.Join(dir, "none.json"), filepath.Join(dir, "none.env")))
	t.Cleanup(func() { _ = LoadFrom(filepath.Join(dir, "none.json"), filepath.Join(dir, "none.env")) })

	assert.Equal(t, "http://env:3004/api", CategoryAPIURL())
}

func TestInvalidValuesFallBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, LoadFrom(filepath.Join(dir, "none.json"), filepath.Join(dir, "none.env")))

	Set("CACHE_DRIVER", "memcached")
	Set("HTTP_TIMEOUT", "soon")
	Set("TOKEN_STORE", "cookie")

	assert.Equal(t, "memory", CacheDriver())
	assert.Equal(t, 30*time.Second, HTTPTimeout())
	assert.Equal(t, "file", TokenStore())
}

func TestLoadErrorIsReportedOnce(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "app.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"api_main_url":`), 0o644))

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	warnOnce = sync.Once{}
	t.Cleanup(func() {
		slog.SetDefault(prev)
		_ = LoadFrom(filepath.Join(dir, "none.json"), filepath.Join(dir, "none.env"))
	})

	require.Error(t, LoadFrom(bad, filepath.Join(dir, "none.env")))
	assert.NotEmpty(t, MainAPIURL())
	assert.NotEmpty(t, CacheDriver())

	assert.Equal(t, 1, strings.Count(buf.String(), "config: load failed"))
}
