package database

import (
	"io"
	"log/slog"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-account-api/config"
)

func TestNewDatabaseConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("MissingHost", func(t *testing.T) {
		_, err := NewDatabaseConfig(&config.Config{}, logger)
		assert.Error(t, err)
	})

	t.Run("BuildsURL", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Repositories.Postgres.Host = "db"
		cfg.Repositories.Postgres.Port = "5432"
		cfg.Repositories.Postgres.Username = "u"
		cfg.Repositories.Postgres.Password = "p@ss"
		cfg.Repositories.Postgres.DB = "accounts"

		dbCfg, err := NewDatabaseConfig(cfg, logger)
		require.NoError(t, err)

		u, err := url.Parse(dbCfg.ConnectionURL)
		require.NoError(t, err)
		assert.Equal(t, "postgresql", u.Scheme)
		assert.Equal(t, "db:5432", u.Host)
		assert.Equal(t, "/accounts", u.Path)
		assert.Equal(t, "disable", u.Query().Get("sslmode"))
		pw, _ := u.User.Password()
		assert.Equal(t, "p@ss", pw)
	})
}

func TestRunMigrationsRejectsScheme(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := RunMigrations("mysql://localhost/db", logger)
	assert.Error(t, err)
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationFS.ReadDir("migrations")
	require.NoError(t, err)
	assert.Len(t, entries, 6)
}

func TestMigrationsCaseInsensitiveUniqueness(t *testing.T) {
	up, err := migrationFS.ReadFile("migrations/000003_case_insensitive_unique.up.sql")
	require.NoError(t, err)
	for _, idx := range []string{
		"ON users (lower(username))",
		"ON users (lower(email))",
		"ON categories (lower(name))",
	} {
		assert.Contains(t, string(up), idx)
	}

	down, err := migrationFS.ReadFile("migrations/000003_case_insensitive_unique.down.sql")
	require.NoError(t, err)
	assert.Contains(t, string(down), "DROP INDEX IF EXISTS users_email_lower_key")
}
