package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	appNameVar        = "APP_NAME"
	logLevelVar       = "LOG_LEVEL"
	apiBaseURLVar     = "API_BASE_URL"
	sessionBackendVar = "SESSION_BACKEND"
	sessionFileVar    = "SESSION_FILE"
)

const (
	SessionBackendFile  = "file"
	SessionBackendRedis = "redis"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Profile Uploader")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

// GetAPIBaseURL returns the marketplace API root that the profile-pic paths are appended to
func (EnvVars) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, "http://localhost:8080")
}

func (EnvVars) GetSessionBackend() string {
	return GetEnv(sessionBackendVar, SessionBackendFile)
}

func (EnvVars) GetSessionFile() string {
	if path := os.Getenv(sessionFileVar); path != "" {
		return path
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "session.json"
	}
	return filepath.Join(dir, "profilepic", "session.json")
}

func (EnvVars) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (EnvVars) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (EnvVars) GetRedisDB() int {
	return GetEnvInt("REDIS_DB", 0)
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvInt(envVar string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return n
}

func GetEnvDuration(envVar string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return d
}
