package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates the service settings.
type Config struct {
	Server   ServerConfig
	Feedback FeedbackConfig
	Waitlist WaitlistConfig
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	feedback, err := loadFeedbackConfig()
	if err != nil {
		return nil, err
	}

	waitlist, err := loadWaitlistConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Feedback: feedback, Waitlist: waitlist}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	origins := parseListEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:8080"})

	if strings.Contains(port, ":") {
		// accepts ":8080" or "127.0.0.1:8080"
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// FeedbackConfig holds the simulated latencies of the interview.
type FeedbackConfig struct {
	ReplyDelay      time.Duration
	CompletionDelay time.Duration
	ProfileDelay    time.Duration
}

func loadFeedbackConfig() (FeedbackConfig, error) {
	reply, err := parseDurationEnv("FEEDBACK_REPLY_DELAY", 1500*time.Millisecond)
	if err != nil {
		return FeedbackConfig{}, err
	}

	completion, err := parseDurationEnv("FEEDBACK_COMPLETION_DELAY", time.Second)
	if err != nil {
		return FeedbackConfig{}, err
	}

	profile, err := parseDurationEnv("PROFILE_GENERATION_DELAY", 3*time.Second)
	if err != nil {
		return FeedbackConfig{}, err
	}

	return FeedbackConfig{
		ReplyDelay:      reply,
		CompletionDelay: completion,
		ProfileDelay:    profile,
	}, nil
}

const (
	WaitlistDriverMemory = "memory"
	WaitlistDriverSQLite = "sqlite"
)

// WaitlistConfig selects the waitlist repository.
type WaitlistConfig struct {
	Driver string
	DSN    string
}

func loadWaitlistConfig() (WaitlistConfig, error) {
	driver := strings.ToLower(getEnvOrDefault("WAITLIST_DRIVER", WaitlistDriverMemory))
	switch driver {
	case WaitlistDriverMemory, WaitlistDriverSQLite:
	default:
		return WaitlistConfig{}, fmt.Errorf("invalid WAITLIST_DRIVER value %q", driver)
	}

	return WaitlistConfig{
		Driver: driver,
		DSN:    getEnvOrDefault("WAITLIST_DSN", ":memory:"),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseListEnv(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}

	var values []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val < 0 {
		return 0, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
	}
	return val, nil
}
