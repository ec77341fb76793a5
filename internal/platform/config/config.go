package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration for the registry.
type Server struct {
	Addr           string
	AdminPrincipal string
	JWTSigningKey  string
	PostgresDSN    string
	RedisURL       string
	KafkaBrokers   []string
	KafkaTopic     string
}

// ProjectCacheTTL bounds how stale the Redis read cache may serve a project.
var ProjectCacheTTL = 30 * time.Second

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("REGISTRY_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	admin := os.Getenv("REGISTRY_ADMIN_PRINCIPAL")
	if admin == "" {
		admin = "registry-admin"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}
	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "registry.events"
	}

	return Server{
		Addr:           addr,
		AdminPrincipal: admin,
		JWTSigningKey:  jwtSigningKey,
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		RedisURL:       os.Getenv("REDIS_URL"),
		KafkaBrokers:   brokers,
		KafkaTopic:     topic,
	}
}
