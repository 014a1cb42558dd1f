package config

import (
	"os"
	"strconv"
	"time"

	ratelimitconfig "auditgate/internal/ratelimit/config"
)

// Config captures process-level configuration.
type Config struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	JWTSigningKey string
	LoginLimit    ratelimitconfig.LoginLimitConfig
}

// FromEnv builds a Config from environment variables so main stays lean.
// Rate limit values default to the stock limits and are overridable.
func FromEnv() Config {
	addr := os.Getenv("AUDITGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	limit := ratelimitconfig.Default()
	if v := envInt("RATE_LIMIT_MAX_FAILED_ATTEMPTS"); v > 0 {
		limit.MaxFailedAttempts = v
	}
	if v := envInt("RATE_LIMIT_WINDOW_MINUTES"); v > 0 {
		limit.Window = time.Duration(v) * time.Minute
	}
	if v := envInt("RATE_LIMIT_LOCKOUT_MINUTES"); v > 0 {
		limit.LockoutDuration = time.Duration(v) * time.Minute
	}

	return Config{
		Addr:          addr,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		JWTSigningKey: jwtSigningKey,
		LoginLimit:    limit,
	}
}

func envInt(key string) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return v
}
