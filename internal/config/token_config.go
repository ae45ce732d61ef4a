package config

import "time"

type TokenConfig interface {
	GetJWTSecret() string
	GetIssuer() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenLength() int
}

type Token struct{}

var _ TokenConfig = Token{}

func (Token) GetJWTSecret() string {
	return GetEnv("JWT_SECRET", "dev-secret-change-me")
}

func (Token) GetIssuer() string {
	return GetEnv("JWT_ISSUER", "profile-uploader-dev")
}

func (Token) GetAccessTokenExpiry() time.Duration {
	return GetEnvDuration("ACCESS_TOKEN_EXPIRY", 1*time.Hour)
}

func (Token) GetRefreshTokenLength() int {
	return 32 // 32 bytes = 256 bits
}
