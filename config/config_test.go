package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"BLOG_DEBUG", "BLOG_PORT", "BLOG_SESSION_MAX_AGE", "BLOG_SESSION_IDLE",
		"BLOG_COOKIE_SECURE", "BLOG_ADMIN_EMAIL", "BLOG_ADMIN_PASSWORD",
		"BLOG_CERT_FILE", "BLOG_KEY_FILE", "DATABASE_URL", "BLOG_DB_TYPE",
		"BLOG_DB_FOLDER", "BLOG_LOGIN_ATTEMPTS", "BLOG_AUDIT_RETENTION_DAYS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionMaxAge)
	assert.Equal(t, 2*time.Hour, cfg.SessionIdle)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 10, cfg.LoginAttemptsPerMinute)
	assert.Equal(t, 90, cfg.AuditRetentionDays)
	assert.True(t, cfg.Database.IsSQLite())
	assert.Equal(t, "/etc/blog/blog.db", cfg.Database.GetDSN())
}

func TestLoadDebugDisablesSecureCookieByDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("BLOG_DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, Debug, GetLogLevel())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"port out of range", map[string]string{"BLOG_PORT": "70000"}},
		{"port not a number", map[string]string{"BLOG_PORT": "http"}},
		{"idle longer than max age", map[string]string{"BLOG_SESSION_MAX_AGE": "10", "BLOG_SESSION_IDLE": "20"}},
		{"zero idle", map[string]string{"BLOG_SESSION_IDLE": "0"}},
		{"admin email without password", map[string]string{"BLOG_ADMIN_EMAIL": "a@b.c"}},
		{"cert without key", map[string]string{"BLOG_CERT_FILE": "cert.pem"}},
		{"bad secure flag", map[string]string{"BLOG_COOKIE_SECURE": "maybe"}},
		{"unknown db type", map[string]string{"BLOG_DB_TYPE": "oracle"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDatabaseURL(t *testing.T) {
	tests := []struct {
		url      string
		wantType DatabaseType
		wantDSN  string
	}{
		{"sqlite:///blog.db", DatabaseTypeSQLite, "blog.db"},
		{"/tmp/posts.db", DatabaseTypeSQLite, "/tmp/posts.db"},
		{"postgres://u:p@db:5432/blog", DatabaseTypePostgreSQL, "postgres://u:p@db:5432/blog"},
		{"postgresql://u@db/blog", DatabaseTypePostgreSQL, "postgresql://u@db/blog"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DATABASE_URL", tt.url)

			c, err := GetDatabaseConfig()
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, c.Type)
			assert.Equal(t, tt.wantDSN, c.GetDSN())
		})
	}
}
