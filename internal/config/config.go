// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr string
	DBPath     string

	// SecretKey derives the vault's symmetric key. It must stay stable across
	// restarts or previously stored credentials become unrecoverable.
	SecretKey string

	MoodleBaseURL string
	LoginMarker   string
	ScanInterval  time.Duration
	HTTPTimeout   time.Duration

	SMTPEnabled  bool
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
}

// Load reads configuration from environment variables and returns a validated
// Config. MOODLEWATCH_SECRET_KEY is required. Optional variables with
// defaults: MOODLEWATCH_LISTEN_ADDR (127.0.0.1:8080), MOODLEWATCH_DB_PATH
// (moodlewatch.db), MOODLEWATCH_MOODLE_BASE_URL (the UVCI deployment),
// MOODLEWATCH_LOGIN_MARKER (the French logout label), MOODLEWATCH_SCAN_INTERVAL
// (1h), MOODLEWATCH_HTTP_TIMEOUT (20s), and the MOODLEWATCH_SMTP_* group
// (disabled; notifications go to the log).
func Load() (*Config, error) {
	secret := os.Getenv("MOODLEWATCH_SECRET_KEY")
	if secret == "" {
		return nil, errors.New("MOODLEWATCH_SECRET_KEY is required")
	}

	cfg := &Config{
		ListenAddr:    envOr("MOODLEWATCH_LISTEN_ADDR", "127.0.0.1:8080"),
		DBPath:        envOr("MOODLEWATCH_DB_PATH", "moodlewatch.db"),
		SecretKey:     secret,
		MoodleBaseURL: envOr("MOODLEWATCH_MOODLE_BASE_URL", "https://licences5.uvci.online"),
		LoginMarker:   envOr("MOODLEWATCH_LOGIN_MARKER", "Déconnexion"),
		SMTPHost:      envOr("MOODLEWATCH_SMTP_HOST", "smtp.gmail.com"),
		SMTPUsername:  os.Getenv("MOODLEWATCH_SMTP_USERNAME"),
		SMTPPassword:  os.Getenv("MOODLEWATCH_SMTP_PASSWORD"),
		FromEmail:     envOr("MOODLEWATCH_FROM_EMAIL", "noreply@uvci.edu.ci"),
	}

	var err error
	if cfg.ScanInterval, err = durationOr("MOODLEWATCH_SCAN_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = durationOr("MOODLEWATCH_HTTP_TIMEOUT", 20*time.Second); err != nil {
		return nil, err
	}

	if v := os.Getenv("MOODLEWATCH_SMTP_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("MOODLEWATCH_SMTP_ENABLED has invalid bool %q: %w", v, err)
		}
		cfg.SMTPEnabled = enabled
	}

	cfg.SMTPPort = 587
	if v := os.Getenv("MOODLEWATCH_SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("MOODLEWATCH_SMTP_PORT has invalid port %q: %w", v, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("MOODLEWATCH_SMTP_PORT %d is outside 1-65535", port)
		}
		cfg.SMTPPort = port
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	return parsed, nil
}
