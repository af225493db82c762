// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the Roomchat service.
package server

import (
	"strings"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

const defaultRoomBacklog = 69

// RateLimitConfig defines the parameters for per-connection message rate limiting.
type RateLimitConfig struct {
	Burst          int
	RefillInterval time.Duration
}

// Config holds the server configuration settings.
type Config struct {
	Port           string
	AllowedOrigins []string
	MaxMessageSize int64
	RoomBacklog    int
	RateLimit      RateLimitConfig
	GameDataPath   string
}

// envSpec mirrors Config for envconfig processing.
type envSpec struct {
	Port                   string   `envconfig:"PORT"`
	AllowedOrigins         []string `envconfig:"ALLOWED_ORIGINS"`
	MaxMessageSize         int64    `envconfig:"MAX_MESSAGE_SIZE"`
	RoomBacklog            int      `envconfig:"ROOM_BACKLOG"`
	RateLimitBurst         int      `envconfig:"RATE_LIMIT_BURST"`
	RateLimitRefillSeconds int      `envconfig:"RATE_LIMIT_REFILL_SECONDS"`
	GameDataPath           string   `envconfig:"GAME_DATA_PATH"`
}

var (
	configMu        sync.RWMutex
	activeConfig    Config
	allowedOrigins  map[string]struct{}
	allowAllOrigins bool
)

func init() {
	SetConfig(nil)
}

func defaultConfig() Config {
	return Config{
		Port:           ":3000",
		AllowedOrigins: []string{"*"},
		MaxMessageSize: 512,
		RoomBacklog:    defaultRoomBacklog,
		RateLimit: RateLimitConfig{
			Burst:          5,
			RefillInterval: time.Second,
		},
		GameDataPath: "game.json",
	}
}

func sanitizeConfig(cfg Config) Config {
	cfg.Port = normalizePort(cfg.Port)

	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 512
	}

	if cfg.RoomBacklog <= 0 {
		cfg.RoomBacklog = defaultRoomBacklog
	}

	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 5
	}

	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = time.Second
	}

	if cfg.GameDataPath == "" {
		cfg.GameDataPath = "game.json"
	}

	normalizedOrigins, allowAll := normalizeOrigins(cfg.AllowedOrigins)
	cfg.AllowedOrigins = normalizedOrigins
	if allowAll {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, "*")
	}

	configMu.Lock()
	defer configMu.Unlock()

	activeConfig = cfg
	allowAllOrigins = allowAll
	allowedOrigins = make(map[string]struct{}, len(normalizedOrigins))
	for _, origin := range normalizedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	return cfg
}

// normalizePort accepts either a bare port number ("3000", the way the PORT
// variable is usually set) or a listen address (":3000") and returns the
// listen-address form.
func normalizePort(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		return ":3000"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// SetConfig applies the provided configuration. Passing nil resets to defaults.
func SetConfig(cfg *Config) {
	if cfg == nil {
		defaultCfg := defaultConfig()
		sanitizeConfig(defaultCfg)
		return
	}

	sanitized := Config{
		Port:           cfg.Port,
		AllowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
		MaxMessageSize: cfg.MaxMessageSize,
		RoomBacklog:    cfg.RoomBacklog,
		RateLimit: RateLimitConfig{
			Burst:          cfg.RateLimit.Burst,
			RefillInterval: cfg.RateLimit.RefillInterval,
		},
		GameDataPath: cfg.GameDataPath,
	}
	sanitizeConfig(sanitized)
}

func currentConfig() Config {
	configMu.RLock()
	defer configMu.RUnlock()

	cfg := activeConfig
	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// NewConfigFromEnv creates a Config instance from environment variables.
// Unset variables fall back to their defaults.
func NewConfigFromEnv() *Config {
	cfg := defaultConfig()

	var spec envSpec
	if err := envconfig.Process("", &spec); err != nil {
		serverLogger().Warn("ignoring malformed environment configuration", zap.Error(err))
		return &cfg
	}

	if spec.Port != "" {
		cfg.Port = normalizePort(spec.Port)
	}
	if len(spec.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = spec.AllowedOrigins
	}
	if spec.MaxMessageSize > 0 {
		cfg.MaxMessageSize = spec.MaxMessageSize
	}
	if spec.RoomBacklog > 0 {
		cfg.RoomBacklog = spec.RoomBacklog
	}
	if spec.RateLimitBurst > 0 {
		cfg.RateLimit.Burst = spec.RateLimitBurst
	}
	if spec.RateLimitRefillSeconds > 0 {
		cfg.RateLimit.RefillInterval = time.Duration(spec.RateLimitRefillSeconds) * time.Second
	}
	if spec.GameDataPath != "" {
		cfg.GameDataPath = spec.GameDataPath
	}

	return &cfg
}
