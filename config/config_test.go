package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	var c AppConfig
	applyDefaults(&c)

	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, "mysql", c.DBDriver)
	assert.Equal(t, "sql", c.GraphBackend)
	assert.Equal(t, 10, c.PostsPerPage)
	assert.Equal(t, 20, c.FeedCacheTTLSeconds)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
	assert.Empty(t, c.RedisHost, "redis stays disabled unless configured")
}

func TestLoadJSONConfigGroupedSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"app": {"AppPort": "9000", "JWTSecret": "s3cret", "AdminUsernames": ["root", "ops"]},
		"database": {"Driver": "postgres", "DBName": "feed"},
		"feed": {"PostsPerPage": 5, "CacheTTLSeconds": 60},
		"graph": {"Backend": "neo4j", "Neo4jURI": "neo4j://localhost:7687"},
		"log": {"Level": "debug", "Compress": true}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	var c AppConfig
	require.NoError(t, loadJSONConfig(path, &c))

	assert.Equal(t, "9000", c.AppPort)
	assert.Equal(t, "s3cret", c.JWTSecret)
	assert.Equal(t, []string{"root", "ops"}, c.AdminUsernames)
	assert.Equal(t, "postgres", c.DBDriver)
	assert.Equal(t, 5, c.PostsPerPage)
	assert.Equal(t, 60, c.FeedCacheTTLSeconds)
	assert.Equal(t, "neo4j", c.GraphBackend)
	assert.Equal(t, "debug", c.LogLevel)
	assert.True(t, c.LogCompress)
}

func TestLoadJSONConfigMissingFileIsIgnored(t *testing.T) {
	var c AppConfig
	assert.NoError(t, loadJSONConfig(filepath.Join(t.TempDir(), "absent.json"), &c))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("POSTS_PER_PAGE", "25")
	t.Setenv("ADMIN_USERNAMES", " alice , bob ,")
	t.Setenv("FEED_CACHE_TTL_SECONDS", "not-a-number")

	c := AppConfig{FeedCacheTTLSeconds: 20}
	applyEnvOverrides(&c)

	assert.Equal(t, 25, c.PostsPerPage)
	assert.Equal(t, []string{"alice", "bob"}, c.AdminUsernames)
	assert.Equal(t, 20, c.FeedCacheTTLSeconds)
}

func TestIsAdmin(t *testing.T) {
	c := AppConfig{AdminUsernames: []string{"Root"}}
	assert.True(t, c.IsAdmin("root"))
	assert.False(t, c.IsAdmin("guest"))
	assert.False(t, c.IsAdmin(""))
}
