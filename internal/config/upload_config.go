package config

import "time"

type Upload struct{}

var _ UploadConfig = Upload{}

func (Upload) GetMaxAttempts() int {
	if n := GetEnvInt("UPLOAD_MAX_ATTEMPTS", 3); n > 0 {
		return n
	}
	return 3
}

func (Upload) GetRetryDelay() time.Duration {
	return GetEnvDuration("UPLOAD_RETRY_DELAY", 1*time.Second)
}

// GetRequestTimeout bounds a single attempt, measured from request start
func (Upload) GetRequestTimeout() time.Duration {
	return GetEnvDuration("UPLOAD_TIMEOUT", 30*time.Second)
}
