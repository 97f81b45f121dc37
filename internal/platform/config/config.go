package config

import (
	"os"
	"strings"
)

// Config captures process-level configuration.
type Config struct {
	Addr          string
	JWTSigningKey string

	// DatabaseURL enables the Postgres stores when set; the service
	// falls back to in-memory stores otherwise.
	DatabaseURL string

	// RedisURL enables the Redis idempotency store when set.
	RedisURL string

	// KafkaBrokers enables the Kafka audit publisher when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// VaultSeed is the root secret for deriving custody vault
	// authorities. Must be overridden in production.
	VaultSeed string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("BONDGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	vaultSeed := os.Getenv("VAULT_SEED")
	if vaultSeed == "" {
		vaultSeed = "dev-vault-seed-change-in-production"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}
	topic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "bondgate.audit"
	}

	return Config{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		KafkaBrokers:  brokers,
		KafkaTopic:    topic,
		VaultSeed:     vaultSeed,
	}
}
