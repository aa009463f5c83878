package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := LoadConfig()
		require.Equal(t, "8080", cfg.Port)
		require.Equal(t, 500*time.Millisecond, cfg.BotMoveDelay)
		require.Equal(t, 0.7, cfg.EasyRandomMoveProb)
		require.Equal(t, 0.3, cfg.MediumRandomMoveProb)
		require.Equal(t, 10*time.Second, cfg.MatchmakingTimeout)
		require.Equal(t, "medium", cfg.MatchmakingFallback)
		require.Same(t, cfg, AppConfig)
	})

	t.Run("reads overrides and extra origins", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("FRONTEND_URL", "https://ttt.example.com")
		t.Setenv("ALLOWED_ORIGINS", " https://a.example.com , ,https://b.example.com")
		t.Setenv("MEDIUM_RANDOM_MOVE_PROBABILITY", "0.5")
		t.Setenv("BOT_MOVE_DELAY_MS", "0")

		cfg := LoadConfig()
		require.Equal(t, "9090", cfg.Port)
		require.Equal(t, []string{"https://ttt.example.com", "https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
		require.Equal(t, 0.5, cfg.MediumRandomMoveProb)
		require.Zero(t, cfg.BotMoveDelay)
	})

	t.Run("bad numbers fall back to defaults", func(t *testing.T) {
		t.Setenv("DB_MAX_OPEN_CONNS", "lots")
		t.Setenv("EASY_RANDOM_MOVE_PROBABILITY", "often")

		cfg := LoadConfig()
		require.Equal(t, 25, cfg.DBMaxOpenConns)
		require.Equal(t, 0.7, cfg.EasyRandomMoveProb)
	})
}

func TestLoadOAuthConfig(t *testing.T) {
	t.Run("disabled without a client id", func(t *testing.T) {
		t.Setenv("GOOGLE_CLIENT_ID", "")
		require.Nil(t, LoadOAuthConfig())
	})

	t.Run("enabled", func(t *testing.T) {
		t.Setenv("GOOGLE_CLIENT_ID", "client")
		t.Setenv("GOOGLE_CLIENT_SECRET", "secret")
		t.Setenv("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/auth/google/callback")

		cfg := LoadOAuthConfig()
		require.NotNil(t, cfg)
		require.Equal(t, "client", cfg.GoogleLoginConfig.ClientID)
		require.Equal(t, "http://localhost:8080/api/auth/google/callback", cfg.GoogleLoginConfig.RedirectURL)
		require.Contains(t, cfg.GoogleLoginConfig.Endpoint.AuthURL, "accounts.google.com")
		require.Equal(t, googleUserInfoURL, cfg.UserInfoURL)
	})
}
