package main

import (
	"flag"
	"os"
	"strconv"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	URL               string
	Token             string
	Protocols         string
	ConnectTimeout    time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
	Exponential       bool
	RetryJitter       bool
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
	QueueSize         int
	MetricsPort       int
	EventBusURL       string
	Debug             bool
	ShowVersion       bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.URL, "url",
		getEnv("STREAMLINK_URL", ""),
		"WebSocket endpoint to connect to (env: STREAMLINK_URL)")

	flag.StringVar(&cfg.Token, "token",
		getEnv("STREAMLINK_TOKEN", ""),
		"Bearer token sent in the auth envelope (env: STREAMLINK_TOKEN)")

	flag.StringVar(&cfg.Protocols, "protocols",
		getEnv("STREAMLINK_PROTOCOLS", ""),
		"Comma-separated sub-protocols to offer (env: STREAMLINK_PROTOCOLS)")

	flag.DurationVar(&cfg.ConnectTimeout, "connect-timeout",
		getEnvDuration("STREAMLINK_CONNECT_TIMEOUT", 10*time.Second),
		"Handshake timeout (env: STREAMLINK_CONNECT_TIMEOUT)")

	flag.IntVar(&cfg.MaxRetries, "max-retries",
		getEnvInt("STREAMLINK_MAX_RETRIES", 0),
		"Reconnection attempt cap, 0 for unlimited (env: STREAMLINK_MAX_RETRIES)")

	flag.DurationVar(&cfg.RetryDelay, "retry-delay",
		getEnvDuration("STREAMLINK_RETRY_DELAY", time.Second),
		"Base backoff unit between attempts (env: STREAMLINK_RETRY_DELAY)")

	flag.BoolVar(&cfg.Exponential, "exponential-backoff",
		getEnvBool("STREAMLINK_EXPONENTIAL_BACKOFF", true),
		"Double the backoff delay per attempt (env: STREAMLINK_EXPONENTIAL_BACKOFF)")

	flag.BoolVar(&cfg.RetryJitter, "retry-jitter",
		getEnvBool("STREAMLINK_RETRY_JITTER", false),
		"Randomize backoff delays by up to 25%% (env: STREAMLINK_RETRY_JITTER)")

	flag.DurationVar(&cfg.HeartbeatInterval, "heartbeat-interval",
		getEnvDuration("STREAMLINK_HEARTBEAT_INTERVAL", 30*time.Second),
		"Liveness probe interval, 0 to disable (env: STREAMLINK_HEARTBEAT_INTERVAL)")

	flag.DurationVar(&cfg.HeartbeatTimeout, "heartbeat-timeout",
		getEnvDuration("STREAMLINK_HEARTBEAT_TIMEOUT", 5*time.Second),
		"Per-probe reply deadline (env: STREAMLINK_HEARTBEAT_TIMEOUT)")

	flag.IntVar(&cfg.QueueSize, "queue-size",
		getEnvInt("STREAMLINK_QUEUE_SIZE", 1000),
		"Outbound queue bound, 0 for unbounded (env: STREAMLINK_QUEUE_SIZE)")

	flag.IntVar(&cfg.MetricsPort, "metrics-port",
		getEnvInt("STREAMLINK_METRICS_PORT", 0),
		"Prometheus metrics port, 0 to disable (env: STREAMLINK_METRICS_PORT)")

	flag.StringVar(&cfg.EventBusURL, "eventbus-url",
		getEnv("STREAMLINK_EVENTBUS_URL", ""),
		"NATS URL for lifecycle events, empty to disable (env: STREAMLINK_EVENTBUS_URL)")

	flag.BoolVar(&cfg.Debug, "debug",
		getEnvBool("STREAMLINK_DEBUG", false),
		"Enable debug logging (env: STREAMLINK_DEBUG)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Print version and exit")

	flag.Parse()
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
