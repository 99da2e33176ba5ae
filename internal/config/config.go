package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	HTTPPort string
	LogLevel string

	DatabaseURL string

	// Credentials for the worker facade in front of the edge platform and the
	// KV routing table. Both are mandatory at startup.
	WorkerURL          string
	WorkerSecretToken  string
	KVNamespace        string
	EdgeRequestTimeout time.Duration

	JWTIssuer       string
	JWTAudience     string
	JWTAccessSecret string

	RedisURL           string
	APIRateLimitPerMin int
	RateLimitBurst     int
	RateLimitFailOpen  bool
	LinkIdempotencyTTL time.Duration

	OTELTracingEnabled       bool
	OTELMetricsEnabled       bool
	OTELExporterOTLPEndpoint string
	OTELExporterOTLPInsecure bool
	OTELServiceName          string
	OTELEnvironment          string
	OTELTraceSamplingRatio   float64
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:               getEnv("APP_ENV", "development"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		WorkerURL:         strings.TrimRight(os.Getenv("WORKER_URL"), "/"),
		WorkerSecretToken: os.Getenv("WORKER_SECRET_TOKEN"),
		KVNamespace:       getEnv("KV_NAMESPACE", "domains"),
		JWTIssuer:         getEnv("JWT_ISSUER", "go-domain-routing-service"),
		JWTAudience:       getEnv("JWT_AUDIENCE", "go-domain-routing-service-api"),
		JWTAccessSecret:   os.Getenv("JWT_ACCESS_SECRET"),

		RedisURL:           os.Getenv("REDIS_URL"),
		APIRateLimitPerMin: getEnvInt("API_RATE_LIMIT_PER_MIN", 120),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 20),
		RateLimitFailOpen:  getEnvBool("RATE_LIMIT_FAIL_OPEN", true),

		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", false),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", false),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "domain-routing-service"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", getEnv("APP_ENV", "development")),
	}

	edgeTimeout, err := time.ParseDuration(getEnv("EDGE_REQUEST_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("parse EDGE_REQUEST_TIMEOUT: %w", err)
	}
	cfg.EdgeRequestTimeout = edgeTimeout

	idemTTL, err := time.ParseDuration(getEnv("LINK_IDEMPOTENCY_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("parse LINK_IDEMPOTENCY_TTL: %w", err)
	}
	cfg.LinkIdempotencyTTL = idemTTL

	ratio, err := strconv.ParseFloat(getEnv("OTEL_TRACE_SAMPLING_RATIO", "0.1"), 64)
	if err != nil {
		return nil, fmt.Errorf("parse OTEL_TRACE_SAMPLING_RATIO: %w", err)
	}
	cfg.OTELTraceSamplingRatio = ratio

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.WorkerURL == "" {
		errs = append(errs, "WORKER_URL is required")
	} else if u, err := url.Parse(c.WorkerURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "WORKER_URL must be an absolute URL")
	}
	if c.WorkerSecretToken == "" {
		errs = append(errs, "WORKER_SECRET_TOKEN is required")
	}
	if len(c.JWTAccessSecret) < 32 {
		errs = append(errs, "JWT_ACCESS_SECRET must be at least 32 chars")
	}
	if c.KVNamespace == "" {
		errs = append(errs, "KV_NAMESPACE must not be empty")
	}
	if c.EdgeRequestTimeout <= 0 || c.EdgeRequestTimeout > time.Minute {
		errs = append(errs, "EDGE_REQUEST_TIMEOUT must be between 1s and 1m")
	}
	if c.LinkIdempotencyTTL <= 0 {
		errs = append(errs, "LINK_IDEMPOTENCY_TTL must be > 0")
	}
	if c.APIRateLimitPerMin <= 0 {
		errs = append(errs, "API_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.RateLimitBurst <= 0 {
		errs = append(errs, "RATE_LIMIT_BURST must be > 0")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be within [0,1]")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
