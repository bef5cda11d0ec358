package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AuthDisabledKey is the master key value that turns bearer auth off.
const AuthDisabledKey = "1"

const (
	AppName    = "pollinations-proxy"
	AppVersion = "1.0.0"
)

type Config struct {
	Port    int
	Host    string
	Profile string // default|prod

	// Auth
	APIMasterKey string // empty or AuthDisabledKey disables the bearer check

	// Upstream
	UpstreamBaseURL   string
	UpstreamModel     string // value of the ?model= query param
	UpstreamTimeoutMs int
	MaxErrorBodyBytes int // cap on the upstream error body echoed into the stream

	// Pseudo-stream pacing
	StreamDelayMs int

	// Advertised model
	DefaultModel string
	ModelOwner   string

	// gRPC health listener (0 disables)
	GRPCPort int

	LogRequests bool // one access-log line per HTTP request
}

func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvStr(k string, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func LoadConfig() Config {
	return Config{
		Port:    getEnvInt("PORT", getEnvInt("NGINX_PORT", 8090)),
		Host:    getEnvStr("HOST", "0.0.0.0"),
		Profile: strings.ToLower(getEnvStr("PROFILE", "default")),

		APIMasterKey: getEnvStr("API_MASTER_KEY", AuthDisabledKey),

		UpstreamBaseURL:   strings.TrimRight(getEnvStr("UPSTREAM_BASE_URL", "https://text.pollinations.ai"), "/"),
		UpstreamModel:     getEnvStr("UPSTREAM_MODEL", "openai"),
		UpstreamTimeoutMs: getEnvInt("UPSTREAM_TIMEOUT_MS", 120_000),
		MaxErrorBodyBytes: getEnvInt("UPSTREAM_MAX_ERROR_BODY", 1024),

		StreamDelayMs: getEnvInt("PSEUDO_STREAM_DELAY_MS", 10),

		DefaultModel: getEnvStr("DEFAULT_MODEL", "aianswergenerator-openai"),
		ModelOwner:   getEnvStr("MODEL_OWNER", "pollinations"),

		GRPCPort: getEnvInt("GRPC_PORT", 0),

		LogRequests: getBool("LOG_REQUESTS", true),
	}
}

// AuthEnabled reports whether requests must carry the master key.
func (c Config) AuthEnabled() bool {
	return c.APIMasterKey != "" && c.APIMasterKey != AuthDisabledKey
}

func (c Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutMs) * time.Millisecond
}

func (c Config) StreamDelay() time.Duration {
	if c.StreamDelayMs < 0 {
		return 0
	}
	return time.Duration(c.StreamDelayMs) * time.Millisecond
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.GRPCPort)
}

// IsProd reports whether the production profile is active.
func (c Config) IsProd() bool {
	return c.Profile == "prod"
}
