package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr      string
	GRPCAddr      string
	JWTSecret     string
	TokenTTL      time.Duration
	BcryptCost    int
	RedisAddr     string
	ArchiveDriver string
	ArchiveDSN    string
	WorkerCount   int
	QueueSize     int
	StaticDir     string
	SeedDemo      bool
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:      ":3000",
		GRPCAddr:      getEnv("GRPC_ADDR", ":50051"),
		JWTSecret:     getEnv("JWT_SECRET", "super_secret_key_change_me"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		ArchiveDriver: getEnv("ARCHIVE_DRIVER", "mysql"),
		ArchiveDSN:    os.Getenv("ARCHIVE_DSN"),
		StaticDir:     getEnv("STATIC_DIR", "public"),
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.HTTPAddr = ":" + port
	}
	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)

	var err error
	if cfg.TokenTTL, err = getDuration("TOKEN_TTL", 2*time.Hour); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = getPositiveInt("BCRYPT_COST", 10); err != nil {
		return nil, err
	}
	if cfg.WorkerCount, err = getPositiveInt("WORKER_COUNT", 4); err != nil {
		return nil, err
	}
	if cfg.QueueSize, err = getPositiveInt("QUEUE_SIZE", 1024); err != nil {
		return nil, err
	}
	if cfg.SeedDemo, err = getBool("SEED_DEMO", true); err != nil {
		return nil, err
	}

	switch cfg.ArchiveDriver {
	case "mysql", "postgres":
	default:
		return nil, fmt.Errorf("ARCHIVE_DRIVER: unsupported driver %q", cfg.ArchiveDriver)
	}

	return cfg, nil
}

// GRPCEnabled is false when GRPC_ADDR is "off".
func (c *Config) GRPCEnabled() bool {
	return c.GRPCAddr != "off"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getPositiveInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: expected a positive integer, got %q", key, v)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: expected a positive duration, got %q", key, v)
	}
	return d, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: expected a boolean, got %q", key, v)
	}
	return b, nil
}
