package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr               string
	LogLevel           string
	AdminJWTSigningKey string
	AdminJWTIssuer     string
	AdminJWTAudience   string
	GatewayToken       string
	SeedFile           string
	ShutdownTimeout    time.Duration

	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Derivation DerivationConfig
	Keys       KeyConfig
}

// DatabaseConfig holds the Postgres connection settings. An empty URL runs
// the service on in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds the policy cache connection settings. An empty URL keeps
// the policy cache in process.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit outbox relay. No brokers disables the relay.
type KafkaConfig struct {
	Brokers       []string
	AuditTopic    string
	RelayInterval time.Duration
	RelayBatch    int
}

// DerivationConfig tunes the derivation orchestrator and policy cache.
type DerivationConfig struct {
	PolicyCacheTTL         time.Duration
	DeliveryConnectTimeout time.Duration
	DeliveryTotalTimeout   time.Duration
	ClaimLease             time.Duration
}

// KeyConfig selects where the payload sealing key comes from.
type KeyConfig struct {
	Name       string
	StaticKey  string
	S3Enabled  bool
	S3Bucket   string
	S3Prefix   string
	S3Region   string
	S3Endpoint string
	CacheTTL   time.Duration
}

// PolicyCacheTTL is the default freshness window for cached policies and rules.
var PolicyCacheTTL = 5 * time.Minute

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	signingKey := os.Getenv("ADMIN_JWT_SIGNING_KEY")
	if signingKey == "" {
		// Use a default for development - should be overridden in production
		signingKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:               envString("VOZ_ADDR", ":8080"),
		LogLevel:           envString("LOG_LEVEL", "info"),
		AdminJWTSigningKey: signingKey,
		AdminJWTIssuer:     envString("ADMIN_JWT_ISSUER", "vozsegura-admin"),
		AdminJWTAudience:   envString("ADMIN_JWT_AUDIENCE", "vozsegura-staff"),
		GatewayToken:       os.Getenv("GATEWAY_TOKEN"),
		SeedFile:           os.Getenv("SEED_FILE"),
		ShutdownTimeout:    envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:       envList("KAFKA_BROKERS"),
			AuditTopic:    envString("AUDIT_TOPIC", "vozsegura.audit"),
			RelayInterval: envDuration("AUDIT_RELAY_INTERVAL", 2*time.Second),
			RelayBatch:    envInt("AUDIT_RELAY_BATCH", 100),
		},
		Derivation: DerivationConfig{
			PolicyCacheTTL:         envDuration("POLICY_CACHE_TTL", PolicyCacheTTL),
			DeliveryConnectTimeout: envDuration("DELIVERY_CONNECT_TIMEOUT", 10*time.Second),
			DeliveryTotalTimeout:   envDuration("DELIVERY_TOTAL_TIMEOUT", 60*time.Second),
			ClaimLease:             envDuration("DERIVATION_CLAIM_LEASE", 5*time.Minute),
		},
		Keys: KeyConfig{
			Name:       envString("PAYLOAD_KEY_NAME", "derivation-payload"),
			StaticKey:  os.Getenv("PAYLOAD_KEY"),
			S3Enabled:  os.Getenv("KEYS_S3_ENABLED") == "true",
			S3Bucket:   os.Getenv("KEYS_S3_BUCKET"),
			S3Prefix:   envString("KEYS_S3_PREFIX", "keys/"),
			S3Region:   envString("AWS_REGION", "us-east-1"),
			S3Endpoint: os.Getenv("KEYS_S3_ENDPOINT"),
			CacheTTL:   envDuration("KEYS_CACHE_TTL", 10*time.Minute),
		},
	}
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func envList(key string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
