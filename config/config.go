// Package config assembles SDK configuration from the environment.
package config

import (
	"os"
	"time"

	"github.com/digitrack/digitrack-go/enums"
)

type Config struct {
	AuthURL   string
	APIURL    string
	Timeout   time.Duration
	TokenFile string
	LogLevel  string
	Env       string
}

func Load() Config {
	return Config{
		AuthURL:   getenv("DIGITRACK_AUTH_URL", "https://api.digitrack.example.com"),
		APIURL:    getenv("DIGITRACK_API_URL", "https://api.digitrack.example.com/digi-track"),
		Timeout:   getenvDuration("DIGITRACK_TIMEOUT", 30*time.Second),
		TokenFile: getenv("DIGITRACK_TOKEN_FILE", ""),
		LogLevel:  getenv("LOG_LEVEL", enums.LogLevelInfo),
		Env:       getenv("APP_ENV", "production"),
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}
