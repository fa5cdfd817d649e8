package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, []string{"post", "page"}, cfg.Site.Types)
	require.Equal(t, []string{"page"}, cfg.Site.HierarchicalTypes)
	require.Equal(t, 2, cfg.Site.DefaultACFDepth)
	require.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("MONGODB_DATABASE", "headway_test")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("SITE_BASE_URL", "https://cms.example.com/")
	t.Setenv("SITE_TYPES", "post, page ,project")
	t.Setenv("SITE_REWRITES", "^blog/(.*)$ => news/$1 ; ^old/(.*)$ => $1")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("JWT_SECRET", "testsecret123456789012345678901234")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URI)
	require.Equal(t, "headway_test", cfg.MongoDB.Database)
	require.Equal(t, "localhost", cfg.Redis.Host)
	require.Equal(t, "https://cms.example.com", cfg.Site.BaseURL, "trailing slash is trimmed")
	require.Equal(t, []string{"post", "page", "project"}, cfg.Site.Types)
	require.Equal(t, []string{"^blog/(.*)$ => news/$1", "^old/(.*)$ => $1"}, cfg.Site.Rewrites)
	require.True(t, cfg.RateLimit.Enabled)
	require.NotEmpty(t, cfg.JWT.Secret)
}
