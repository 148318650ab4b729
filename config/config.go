package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all backend settings. Values come from an optional YAML file
// named by CONFIG_FILE, then environment variables override.
type Config struct {
	Port      string        `yaml:"port"`
	GinMode   string        `yaml:"gin_mode"`
	LogLevel  string        `yaml:"log_level"`
	DBPath    string        `yaml:"db_path"`
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`

	Gateway  GatewayConfig  `yaml:"gateway"`
	Checkout CheckoutConfig `yaml:"checkout"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`

	LoginRatePerMin int `yaml:"login_rate_per_min"`

	// Bootstrap admin, created on startup when no admin exists yet.
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
}

type GatewayConfig struct {
	Provider  string `yaml:"provider"` // razorpay | sandbox
	KeyID     string `yaml:"key_id"`
	KeySecret string `yaml:"key_secret"`
	Currency  string `yaml:"currency"`
}

type CheckoutConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

func defaults() *Config {
	return &Config{
		Port:      "5000",
		GinMode:   "debug",
		LogLevel:  "info",
		DBPath:    "coconut_supply.db",
		JWTSecret: "coconut_supply_dev_secret",
		TokenTTL:  24 * time.Hour,
		Gateway: GatewayConfig{
			Provider: "sandbox",
			Currency: "INR",
		},
		Checkout:        CheckoutConfig{TTL: 15 * time.Minute},
		Kafka:           KafkaConfig{Topic: "coconut-orders"},
		LoginRatePerMin: 20,
	}
}

// Load builds the configuration from defaults, CONFIG_FILE and the environment.
func Load() (*Config, error) {
	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.GinMode = getEnv("GIN_MODE", c.GinMode)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.Gateway.Provider = getEnv("GATEWAY", c.Gateway.Provider)
	c.Gateway.KeyID = getEnv("RAZORPAY_KEY_ID", c.Gateway.KeyID)
	c.Gateway.KeySecret = getEnv("RAZORPAY_KEY_SECRET", c.Gateway.KeySecret)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)
	c.AdminEmail = getEnv("ADMIN_EMAIL", c.AdminEmail)
	c.AdminPassword = getEnv("ADMIN_PASSWORD", c.AdminPassword)
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = strings.Split(brokers, ",")
	}

	var err error
	if c.TokenTTL, err = getEnvDuration("TOKEN_TTL", c.TokenTTL); err != nil {
		return err
	}
	if c.Checkout.TTL, err = getEnvDuration("CHECKOUT_TTL", c.Checkout.TTL); err != nil {
		return err
	}
	if c.LoginRatePerMin, err = getEnvInt("LOGIN_RATE_PER_MIN", c.LoginRatePerMin); err != nil {
		return err
	}
	return nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	switch c.Gateway.Provider {
	case "sandbox":
	case "razorpay":
		if c.Gateway.KeyID == "" || c.Gateway.KeySecret == "" {
			return fmt.Errorf("razorpay gateway requires RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET")
		}
	default:
		return fmt.Errorf("unknown gateway provider %q", c.Gateway.Provider)
	}
	if c.Checkout.TTL <= 0 {
		return fmt.Errorf("checkout ttl must be positive")
	}
	return nil
}

// String returns a representation with secrets masked.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %s, DB: %s, Gateway: %s, Redis: %q, Kafka: %v, Secrets: ***}",
		c.Port, c.DBPath, c.Gateway.Provider, c.Redis.Addr, c.Kafka.Brokers)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}
