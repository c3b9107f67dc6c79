// Package config provides configuration loading and management for the refiner.
// It handles environment variable parsing and provides default values for all settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// init loads environment variables from .env files during package initialization.
// In development, it loads .env and .env.local files if they exist.
// In production, it relies solely on system environment variables.
// The loading order ensures that system environment variables take precedence over .env files.
func init() {
	// godotenv.Load() does not override already-set environment variables,
	// preserving OS env > .env precedence

	// Load .env file if it exists (for shared development config)
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
		}
	}

	// Load .env.local if it exists (for local overrides, gitignored)
	if _, err := os.Stat(".env.local"); err == nil {
		if err := godotenv.Load(".env.local"); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env.local file: %v\n", err)
		}
	}
}

// Config captures environment-driven settings for the refiner.
type Config struct {
	Env         string // Deployment environment (dev, staging, prod)
	InputDir    string // Directory scanned for input documents
	OutputDir   string // Directory for the artifact, schema and run summary
	DatabaseDSN string // PostgreSQL connection string; empty selects the in-memory store

	// Publication
	PinataJWT      string // Pinata API JWT for IPFS pinning (empty disables IPFS publication)
	IPFSGatewayURL string // Gateway used to build refinement URLs from content addresses
	S3Endpoint     string // S3-compatible storage endpoint (empty disables S3 publication)
	S3Region       string // S3 region
	S3Bucket       string // S3 bucket name
	S3AccessKey    string // S3 access key
	S3SecretKey    string // S3 secret key

	// Encryption
	EncryptionKey string // Symmetric key material for the artifact; required

	// Event streaming
	NATSURL string // NATS server URL (empty disables event publishing)

	// Schema descriptor identity
	SchemaName        string // Descriptor name
	SchemaVersion     string // Descriptor version
	SchemaDescription string // Descriptor description
	SchemaDialect     string // Target dialect reported in the descriptor

	// Observability
	MetricsAddr string // Address for the optional /metrics listener (empty disables it)
}

// Default configuration values used when environment variables are not set
const (
	defaultEnv         = "dev"
	defaultInputDir    = "input"
	defaultOutputDir   = "output"
	defaultS3Region    = "us-east-1"
	defaultGatewayURL  = "https://ipfs.io/ipfs"
	defaultSchemaName  = "telegram-refined"
	defaultSchemaVer   = "0.0.1"
	defaultSchemaDesc  = "Normalized Telegram chat submissions"
	defaultSchemaDial  = "sqlite"
)

// Load reads environment variables and produces a Config suitable for wiring the pipeline.
// It handles both required and optional configuration parameters, providing defaults
// where appropriate. Returns an error if required parameters are missing.
func Load() (Config, error) {
	cfg := Config{
		Env:               getEnv("REFINER_ENV", defaultEnv),
		InputDir:          getEnv("REFINER_INPUT_DIR", defaultInputDir),
		OutputDir:         getEnv("REFINER_OUTPUT_DIR", defaultOutputDir),
		IPFSGatewayURL:    strings.TrimRight(getEnv("REFINER_IPFS_GATEWAY_URL", defaultGatewayURL), "/"),
		S3Region:          getEnv("REFINER_S3_REGION", defaultS3Region),
		SchemaName:        getEnv("REFINER_SCHEMA_NAME", defaultSchemaName),
		SchemaVersion:     getEnv("REFINER_SCHEMA_VERSION", defaultSchemaVer),
		SchemaDescription: getEnv("REFINER_SCHEMA_DESCRIPTION", defaultSchemaDesc),
		SchemaDialect:     getEnv("REFINER_SCHEMA_DIALECT", defaultSchemaDial),
	}

	if dsn, exists := os.LookupEnv("REFINER_DB_DSN"); exists {
		cfg.DatabaseDSN = dsn
	}

	if jwt, exists := os.LookupEnv("REFINER_PINATA_API_JWT"); exists {
		cfg.PinataJWT = jwt
	}

	if endpoint, exists := os.LookupEnv("REFINER_S3_ENDPOINT"); exists {
		cfg.S3Endpoint = endpoint
	}

	if bucket, exists := os.LookupEnv("REFINER_S3_BUCKET"); exists {
		cfg.S3Bucket = bucket
	}

	if accessKey, exists := os.LookupEnv("REFINER_S3_ACCESS_KEY"); exists {
		cfg.S3AccessKey = accessKey
	}

	if secretKey, exists := os.LookupEnv("REFINER_S3_SECRET_KEY"); exists {
		cfg.S3SecretKey = secretKey
	}

	if key, exists := os.LookupEnv("REFINER_ENCRYPTION_KEY"); exists {
		cfg.EncryptionKey = key
	}

	if natsURL, exists := os.LookupEnv("REFINER_NATS_URL"); exists {
		cfg.NATSURL = natsURL
	}

	if addr, exists := os.LookupEnv("REFINER_METRICS_ADDR"); exists {
		cfg.MetricsAddr = addr
	}

	// Validate required parameters
	if cfg.EncryptionKey == "" {
		return cfg, fmt.Errorf("REFINER_ENCRYPTION_KEY is required")
	}

	return cfg, nil
}

// getEnv retrieves an environment variable value, returning a fallback if not set or empty
func getEnv(key, fallback string) string {
	if v, exists := os.LookupEnv(key); exists && v != "" {
		return v
	}
	return fallback
}

// parseBool converts a string to a boolean value, returning false if parsing fails
func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}
