// Package config provides configuration loading from environment variables.
package config

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/usestring/gatrack/pkg/tracker"
)

// Tool output limit defaults
const (
	DefaultRecentLimitValue = 20
	HitLogMaxItemsValue     = 1024
)

// Config holds all configuration for the MCP server.
type Config struct {
	// Tracker configuration. Invalid values are dropped by the tracker's
	// setters when Apply runs.
	TrackingID    string // GA_TRACKING_ID, default "" (hits are rejected until set)
	ClientID      string // GA_CLIENT_ID, default "" (random UUIDv4)
	Endpoint      string // GA_ENDPOINT, default tracker.NormalEndpoint
	UserAgent     string // GA_USER_AGENT, default tracker.DefaultUserAgent
	RequestMethod string // GA_REQUEST_METHOD, default "POST"
	CacheBusting  bool   // GA_CACHE_BUSTING, default false
	AnonymizeIP   bool   // GA_ANONYMIZE_IP, default false

	HTTPClientTimeout    time.Duration // HTTP_CLIENT_TIMEOUT_MS, default 10000ms (10s)
	TransportMaxInFlight int           // TRANSPORT_MAX_IN_FLIGHT, default 4

	// Hit log
	HitLogMaxItems     int // HIT_LOG_MAX_ITEMS, default 1024
	DefaultRecentLimit int // DEFAULT_RECENT_LIMIT, default 20

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFormat     string // LOG_FORMAT, default "text"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		TrackingID:    getEnvString("GA_TRACKING_ID", ""),
		ClientID:      getEnvString("GA_CLIENT_ID", ""),
		Endpoint:      getEnvString("GA_ENDPOINT", tracker.NormalEndpoint),
		UserAgent:     getEnvString("GA_USER_AGENT", tracker.DefaultUserAgent),
		RequestMethod: strings.ToUpper(getEnvString("GA_REQUEST_METHOD", http.MethodPost)),
		CacheBusting:  getEnvBool("GA_CACHE_BUSTING", false),
		AnonymizeIP:   getEnvBool("GA_ANONYMIZE_IP", false),

		HTTPClientTimeout:    getEnvDurationMs("HTTP_CLIENT_TIMEOUT_MS", 10000),
		TransportMaxInFlight: getEnvInt("TRANSPORT_MAX_IN_FLIGHT", tracker.DefaultMaxInFlight),

		HitLogMaxItems:     getEnvInt("HIT_LOG_MAX_ITEMS", HitLogMaxItemsValue),
		DefaultRecentLimit: getEnvInt("DEFAULT_RECENT_LIMIT", DefaultRecentLimitValue),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFormat:     getEnvString("LOG_FORMAT", "text"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

// Apply pushes the tracker settings into cfg through its validating setters.
// Empty strings leave the corresponding field untouched.
func (c *Config) Apply(cfg *tracker.Configuration) {
	if c.TrackingID != "" {
		cfg.SetTrackingID(c.TrackingID)
	}
	if c.ClientID != "" {
		cfg.SetClientIDString(c.ClientID)
	}
	if c.Endpoint != "" {
		cfg.SetEndpoint(c.Endpoint)
	}
	cfg.SetUserAgent(c.UserAgent)
	cfg.SetRequestMethod(c.RequestMethod)
	cfg.SetCacheBusting(c.CacheBusting)
	cfg.SetIPAnonymization(c.AnonymizeIP)
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	ms := getEnvInt(key, defaultMs)
	return time.Duration(ms) * time.Millisecond
}
