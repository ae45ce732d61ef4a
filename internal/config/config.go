package config

import "time"

type Config interface {
	EnvConfig
	UploadConfig
	ServerConfig
	TokenConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetAPIBaseURL() string
	GetSessionBackend() string
	GetSessionFile() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
}

type UploadConfig interface {
	GetMaxAttempts() int
	GetRetryDelay() time.Duration
	GetRequestTimeout() time.Duration
}

type mainConfig struct {
	EnvVars
	Upload
	Server
	Token
}

func New() Config {
	return mainConfig{}
}
