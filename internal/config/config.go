package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	LogLevel        slog.Level
	LogFormat       string
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	ProfilePath string

	MowerStaleAfter time.Duration
	PruneInterval   time.Duration
	IntakeBuffer    int
	MaxSnapshotSize int64

	RedisEnabled     bool
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	CacheTTL         time.Duration
	CacheWarmOnStart bool

	RateLimitPerWindow int
	RateLimitWindow    time.Duration
	RateLimitWhitelist []string
}

func Load() (*Config, error) {
	profilePath := os.Getenv("MOWMAP_PROFILE")
	if profilePath == "" {
		return nil, fmt.Errorf("MOWMAP_PROFILE environment variable is required")
	}

	return &Config{
		LogLevel:        getLogLevelEnv("LOG_LEVEL", slog.LevelInfo),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		ReadTimeout:     getDurationEnv("READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    getDurationEnv("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),

		ProfilePath: profilePath,

		MowerStaleAfter: getDurationEnv("MOWER_STALE_AFTER", 24*time.Hour),
		PruneInterval:   getDurationEnv("PRUNE_INTERVAL", 10*time.Minute),
		IntakeBuffer:    getIntEnv("INTAKE_BUFFER", 64),
		MaxSnapshotSize: int64(getIntEnv("MAX_SNAPSHOT_BYTES", 1<<20)),

		RedisEnabled:     getBoolEnv("REDIS_ENABLED", false),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getIntEnv("REDIS_DB", 0),
		CacheTTL:         getDurationEnv("CACHE_TTL", 24*time.Hour),
		CacheWarmOnStart: getBoolEnv("CACHE_WARM_ON_START", true),

		RateLimitPerWindow: getIntEnv("RATE_LIMIT_PER_WINDOW", 120),
		RateLimitWindow:    getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitWhitelist: getCSVEnv("RATE_LIMIT_WHITELIST"),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getLogLevelEnv(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}

	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return defaultVal
	}
}

func getCSVEnv(key string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}

	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			result = append(result, t)
		}
	}
	return result
}
