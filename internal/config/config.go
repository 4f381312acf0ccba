// Package config loads and validates service configuration from the environment.
package config

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment names accepted for APP_ENV.
const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

// ChainNetwork identifies the cluster the chain reader talks to.
type ChainNetwork string

const (
	NetworkMainnet  ChainNetwork = "mainnet"
	NetworkTestnet  ChainNetwork = "testnet"
	NetworkDevnet   ChainNetwork = "devnet"
	NetworkLocalnet ChainNetwork = "localnet"
)

// EncryptionKeySize is the required decoded length of ENCRYPTION_KEY.
const EncryptionKeySize = 32

// Bcrypt cost bounds, mirroring the library's accepted range.
const (
	MinBcryptCost     = 4
	MaxBcryptCost     = 31
	DefaultBcryptCost = 12
)

// Config holds all environment-derived configuration for the service.
type Config struct {
	Env      string
	Port     string
	LogLevel string

	DatabaseURL    string
	DBMaxConns     int
	DBMinConns     int
	DBConnLifetime time.Duration

	RedisHost     string
	RedisPort     int
	RedisPassword string

	JWTSecret     string
	BcryptCost    int
	EncryptionKey []byte

	APISetuBaseURL      string
	APISetuClientID     string
	APISetuClientSecret string

	ChainRPCURL  string
	ChainNetwork ChainNetwork

	IdentityRegistryProgramID   string
	VerificationOracleProgramID string
	CredentialManagerProgramID  string
	ReputationEngineProgramID   string
	StakingManagerProgramID     string

	OTELEnabled  bool
	OTLPEndpoint string

	PubSubProjectID    string
	PubSubTopic        string
	PubSubSubscription string
}

// Load reads configuration from the environment. It does not validate;
// call Validate after Load so callers can report every problem at once.
func Load() Config {
	dbMax, _ := strconv.Atoi(getEnvOrDefault("DB_MAX_CONNS", "10"))
	dbMin, _ := strconv.Atoi(getEnvOrDefault("DB_MIN_CONNS", "2"))
	lifetime, _ := time.ParseDuration(getEnvOrDefault("DB_CONN_MAX_LIFETIME", "5m"))
	redisPort, _ := strconv.Atoi(getEnvOrDefault("REDIS_PORT", "6379"))

	cfg := Config{
		Env:      getEnvOrDefault("APP_ENV", EnvDevelopment),
		Port:     getEnvOrDefault("APP_PORT", "8080"),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),

		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DBMaxConns:     dbMax,
		DBMinConns:     dbMin,
		DBConnLifetime: lifetime,

		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     redisPort,
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		BcryptCost: DefaultBcryptCost,

		APISetuBaseURL:      getEnvOrDefault("API_SETU_BASE_URL", "https://apisetu.gov.in"),
		APISetuClientID:     os.Getenv("API_SETU_CLIENT_ID"),
		APISetuClientSecret: os.Getenv("API_SETU_CLIENT_SECRET"),

		ChainRPCURL:  getEnvOrDefault("CHAIN_RPC_URL", "http://localhost:8899"),
		ChainNetwork: ChainNetwork(getEnvOrDefault("CHAIN_NETWORK", string(NetworkDevnet))),

		IdentityRegistryProgramID:   os.Getenv("IDENTITY_REGISTRY_PROGRAM_ID"),
		VerificationOracleProgramID: os.Getenv("VERIFICATION_ORACLE_PROGRAM_ID"),
		CredentialManagerProgramID:  os.Getenv("CREDENTIAL_MANAGER_PROGRAM_ID"),
		ReputationEngineProgramID:   os.Getenv("REPUTATION_ENGINE_PROGRAM_ID"),
		StakingManagerProgramID:     os.Getenv("STAKING_MANAGER_PROGRAM_ID"),

		OTELEnabled:  os.Getenv("OTEL_ENABLED") == "true",
		OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		PubSubProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubTopic:        getEnvOrDefault("PUBSUB_TOPIC", "data-rights-jobs"),
		PubSubSubscription: getEnvOrDefault("PUBSUB_SUBSCRIPTION", "data-rights-jobs-worker"),
	}

	if v := os.Getenv("BCRYPT_COST"); v != "" {
		if cost, err := strconv.Atoi(v); err == nil {
			cfg.BcryptCost = cost
		}
	}

	if v := os.Getenv("ENCRYPTION_KEY"); v != "" {
		cfg.EncryptionKey = decodeKey(v)
	}

	return cfg
}

// Validate checks the configuration and returns a single error listing
// every violation. JWT_SECRET, the API Setu credentials, and ENCRYPTION_KEY
// are mandatory only in production; everything else applies in all
// environments.
func (c Config) Validate() error {
	var errs []error

	switch c.Env {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("APP_ENV: unknown environment %q", c.Env))
	}

	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("APP_PORT: %q is not a number", c.Port))
	}

	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error", "fatal":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL: unknown level %q", c.LogLevel))
	}

	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL: required"))
	}

	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT: %d out of range", c.RedisPort))
	}

	if c.BcryptCost < MinBcryptCost || c.BcryptCost > MaxBcryptCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST: %d outside [%d, %d]", c.BcryptCost, MinBcryptCost, MaxBcryptCost))
	}

	switch c.ChainNetwork {
	case NetworkMainnet, NetworkTestnet, NetworkDevnet, NetworkLocalnet:
	default:
		errs = append(errs, fmt.Errorf("CHAIN_NETWORK: unknown network %q", c.ChainNetwork))
	}

	if c.Env == EnvProduction {
		if c.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET: required in production"))
		}
		if c.APISetuClientID == "" {
			errs = append(errs, errors.New("API_SETU_CLIENT_ID: required in production"))
		}
		if c.APISetuClientSecret == "" {
			errs = append(errs, errors.New("API_SETU_CLIENT_SECRET: required in production"))
		}
		if len(c.EncryptionKey) == 0 {
			errs = append(errs, errors.New("ENCRYPTION_KEY: required in production"))
		}
	}

	if len(c.EncryptionKey) > 0 && len(c.EncryptionKey) != EncryptionKeySize {
		errs = append(errs, fmt.Errorf("ENCRYPTION_KEY: must decode to %d bytes, got %d", EncryptionKeySize, len(c.EncryptionKey)))
	}

	return errors.Join(errs...)
}

// RedisAddr returns the host:port address of the Redis server.
func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// decodeKey accepts hex, base64, or raw key material. Raw input is used
// verbatim so local setups can pass a plain 32-character string.
func decodeKey(s string) []byte {
	if b, err := hex.DecodeString(s); err == nil {
		return b
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b
	}
	return []byte(s)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
