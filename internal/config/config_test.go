package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "autoblog", cfg.Database.Database)
	assert.Equal(t, []string{"admin@example.com"}, cfg.Admin.Emails)
}

func TestLoad_AdminEmailList(t *testing.T) {
	t.Setenv("ADMIN_EMAILS", "a@example.com, b@example.com ,,c@example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com", "c@example.com"}, cfg.Admin.Emails)
}

func TestValidate_ProductionRequiresSecrets(t *testing.T) {
	cfg := &Config{}
	cfg.App.Environment = "production"
	cfg.JWT.Secret = "your-secret-key-change-in-production"

	assert.Error(t, cfg.Validate())

	cfg.JWT.Secret = "real-secret"
	assert.Error(t, cfg.Validate(), "empty DB password still rejected")

	cfg.Database.Password = "pw"
	assert.NoError(t, cfg.Validate())
}

func TestIsAdminEmail(t *testing.T) {
	cfg := &Config{Admin: AdminConfig{Emails: []string{"admin@example.com"}}}

	assert.True(t, cfg.IsAdminEmail("admin@example.com"))
	assert.True(t, cfg.IsAdminEmail("ADMIN@Example.COM"), "match is case-insensitive")
	assert.False(t, cfg.IsAdminEmail("reader@example.com"))
	assert.False(t, cfg.IsAdminEmail(""))
}
