package config

import (
	"fmt"
	"os"
)

// Config holds application configuration
type Config struct {
	ServerPort  string
	BaseURL     string
	FrontendURL string
	Environment string

	// GitHub OAuth app and the content repository authorization derives from
	GitHubClientID     string
	GitHubClientSecret string
	GitHubRepoOwner    string
	GitHubRepoName     string

	// JWTSecret signs session credentials. Required; there is deliberately
	// no fallback default.
	JWTSecret string

	EnableHSTS    bool
	RedisURL      string
	RateLimitRate string

	ServerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		Environment: getEnv("ENVIRONMENT", "development"),

		GitHubClientID:     getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
		GitHubRepoOwner:    getEnv("GITHUB_REPO_OWNER", ""),
		GitHubRepoName:     getEnv("GITHUB_REPO_NAME", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),

		EnableHSTS:    getEnvBool("ENABLE_HSTS", false),
		RedisURL:      getEnv("REDIS_URL", ""),
		RateLimitRate: getEnv("RATE_LIMIT_RATE", "10-M"),

		ServerDebugMode: getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.GitHubClientID == "" || cfg.GitHubClientSecret == "" {
		return nil, fmt.Errorf("GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET are required")
	}
	if cfg.GitHubRepoOwner == "" || cfg.GitHubRepoName == "" {
		return nil, fmt.Errorf("GITHUB_REPO_OWNER and GITHUB_REPO_NAME are required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required; refusing to issue credentials without an explicit signing key")
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in a production deployment.
// Controls the Secure cookie flag and suppression of error detail in
// login-failure redirects.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// CallbackURL returns the OAuth callback endpoint registered with GitHub.
func (c *Config) CallbackURL() string {
	return c.BaseURL + "/api/auth/github/callback"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
