package unit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"roomchat/internal/server"
)

// TestNewConfigDefaults verifies the default configuration values, including
// the original deployment's listen port and fan-out backlog.
func TestNewConfigDefaults(t *testing.T) {
	cfg := server.NewConfig()

	assert.Equal(t, ":3000", cfg.Port)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(512), cfg.MaxMessageSize)
	assert.Equal(t, 69, cfg.RoomBacklog)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Equal(t, time.Second, cfg.RateLimit.RefillInterval)
	assert.Equal(t, "game.json", cfg.GameDataPath)
}

// TestNewConfigFromEnv verifies that environment variables override defaults
// and that unset variables keep them.
func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:8081,https://chat.example.com")
	t.Setenv("ROOM_BACKLOG", "128")
	t.Setenv("RATE_LIMIT_REFILL_SECONDS", "2")

	cfg := server.NewConfigFromEnv()

	assert.Equal(t, ":8081", cfg.Port)
	assert.Equal(t, []string{"http://localhost:8081", "https://chat.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 128, cfg.RoomBacklog)
	assert.Equal(t, 2*time.Second, cfg.RateLimit.RefillInterval)
	assert.Equal(t, int64(512), cfg.MaxMessageSize)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
}

// TestNewConfigFromEnvIgnoresInvalidValues verifies that unparsable or
// out-of-range values fall back to defaults rather than failing startup.
func TestNewConfigFromEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("ROOM_BACKLOG", "-4")
	t.Setenv("RATE_LIMIT_BURST", "0")

	cfg := server.NewConfigFromEnv()

	assert.Equal(t, 69, cfg.RoomBacklog)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
}
