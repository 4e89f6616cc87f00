package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Run("MissingSecret", func(t *testing.T) {
		cfg := Config{}
		assert.Error(t, cfg.Validate())
	})

	t.Run("Defaults", func(t *testing.T) {
		cfg := Config{}
		cfg.JWT.SecretKey = "secret"
		require.NoError(t, cfg.Validate())

		assert.Equal(t, 5*24*time.Hour, cfg.JWT.SessionTTL)
		assert.Equal(t, 24*time.Hour, cfg.Tokens.VerificationTTL)
		assert.Equal(t, time.Hour, cfg.Tokens.ResetTTL)
		assert.Equal(t, 10, cfg.Tokens.BcryptCost)
		assert.Equal(t, 24*time.Hour, cfg.Profile.Cooldown)
		assert.Equal(t, "postgres", cfg.Storage.Driver)
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		cfg := Config{}
		cfg.JWT.SecretKey = "secret"
		cfg.Storage.Driver = "mongo"
		assert.Error(t, cfg.Validate())
	})
}

func TestEmbeddedConfig(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yml")
	require.NoError(t, v.ReadConfig(bytes.NewReader(embeddedConfig)))

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 24*time.Hour, cfg.Profile.Cooldown)
}
