package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Document storage
	DocumentKey        string        // single storage key holding the document
	DebounceInterval   time.Duration // quiet period before a coalesced save (default: 500ms)
	QuotaBytes         int64         // hard ceiling for the stored document (default: 10 MiB)
	WarnBytes          int64         // usage warning threshold (default: 4 MiB)
	UsageCheckInterval time.Duration // how often the usage monitor re-checks (default: 6h)

	// Content
	SeedFile         string   // path to the starter-content YAML (optional, empty = bare defaults)
	ThemeKeys        []string // override of the built-in preset theme list (optional)
	FaviconAllowList []string // favicon-service URL shapes trusted on import

	AllowedHosts []string // optional, restrict access to specific Host headers

	// Redis
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisMaxWait        time.Duration // Max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // Timeout for each ping attempt (ex: 5s)
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("TABDECK_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("TABDECK_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("TABDECK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("TABDECK_PRETTY_LOG", true),

		// Document storage
		DocumentKey:        getenv("TABDECK_DOCUMENT_KEY", "tabdeck:document"),
		DebounceInterval:   mustDuration("TABDECK_DEBOUNCE_INTERVAL", 500*time.Millisecond),
		QuotaBytes:         getenvInt64("TABDECK_QUOTA_BYTES", 10*1024*1024),
		WarnBytes:          getenvInt64("TABDECK_WARN_BYTES", 4*1024*1024),
		UsageCheckInterval: mustDuration("TABDECK_USAGE_CHECK_INTERVAL", 6*time.Hour),

		// Content
		SeedFile:         getenv("TABDECK_SEED_FILE", ""),
		ThemeKeys:        splitAndTrim(getenv("TABDECK_THEME_KEYS", "")),
		FaviconAllowList: splitAndTrim(getenv("TABDECK_FAVICON_ALLOWLIST", "")),

		AllowedHosts: splitAndTrim(getenv("TABDECK_ALLOWED_HOSTS", "")),

		// Redis settings
		RedisAddr:           requireEnv("TABDECK_REDIS_ADDR"),
		RedisUser:           getenv("TABDECK_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("TABDECK_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("TABDECK_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
	}

	if cfg.WarnBytes > cfg.QuotaBytes {
		panic(fmt.Sprintf("❌ FATAL: TABDECK_WARN_BYTES (%d) must not exceed TABDECK_QUOTA_BYTES (%d)",
			cfg.WarnBytes, cfg.QuotaBytes))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
