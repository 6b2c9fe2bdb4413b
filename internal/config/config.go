package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr    string
	PostgresDSN string
	LogLevel    string

	APIKey string

	LedgerRPCURL          string
	LedgerContractAddress string
	IssuerPrivateKey      string
	LedgerGasLimit        uint64
	LedgerPollInterval    time.Duration
	LedgerPollAttempts    int

	StorageType string // "s3" or "ipfs-stub"
	S3Endpoint  string
	S3Bucket    string
	S3Region    string
	S3AccessKey string
	S3SecretKey string

	VerdictCacheTTL time.Duration

	RateLimitRequests      int
	RateLimitWindowSeconds int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:    addr,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		LogLevel:    envDefault("LOG_LEVEL", "info"),

		APIKey: os.Getenv("API_KEY"),

		LedgerRPCURL:          envDefault("LEDGER_RPC_URL", "http://localhost:8545"),
		LedgerContractAddress: os.Getenv("LEDGER_CONTRACT_ADDRESS"),
		IssuerPrivateKey:      os.Getenv("ISSUER_PRIVATE_KEY"),
		LedgerGasLimit:        uint64(envIntDefault("LEDGER_GAS_LIMIT", 4_300_000)),
		LedgerPollInterval:    time.Duration(envIntDefault("LEDGER_POLL_INTERVAL_MS", 500)) * time.Millisecond,
		LedgerPollAttempts:    envIntDefault("LEDGER_POLL_ATTEMPTS", 120),

		StorageType: envDefault("STORAGE_TYPE", "ipfs-stub"),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3Region:    envDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),

		VerdictCacheTTL: time.Duration(envIntDefault("VERDICT_CACHE_TTL_SECONDS", 0)) * time.Second,

		RateLimitRequests:      envIntDefault("RATE_LIMIT_REQUESTS", 0),
		RateLimitWindowSeconds: envIntDefault("RATE_LIMIT_WINDOW_SECONDS", 60),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envIntDefault("REDIS_DB", 0),
	}
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
