package config

import "fmt"

type ServerConfig interface {
	GetPort() string
	GetPublicURL() string
	GetMaxUploadBytes() int64
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
	GetDemoPassword() string
}

type Server struct{}

var _ ServerConfig = Server{}

func (Server) GetPort() string {
	port := GetEnv("PORT", "8080")
	if port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

// GetPublicURL is the origin used when building picture URLs returned to clients
func (s Server) GetPublicURL() string {
	return GetEnv("PUBLIC_URL", "http://localhost"+s.GetPort())
}

func (Server) GetMaxUploadBytes() int64 {
	return int64(GetEnvInt("MAX_UPLOAD_BYTES", 5<<20))
}

func (Server) GetRateLimitRPS() float64 {
	return float64(GetEnvInt("RATE_LIMIT_RPS", 10))
}

func (Server) GetRateLimitBurst() int {
	return GetEnvInt("RATE_LIMIT_BURST", 20)
}

// GetDemoPassword is the password given to the seeded demo accounts
func (Server) GetDemoPassword() string {
	return GetEnv("DEMO_PASSWORD", "Password123")
}
