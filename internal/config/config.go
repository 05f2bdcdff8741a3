package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	Betting  BettingConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Metrics  MetricsConfig
	Jobs     JobsConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port        string
	FrontendURL string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Env           string
	JWTSecret     string
	AdminEmail    string
	AdminPassword string
}

// BettingConfig holds the money limits enforced by the bet engine and the
// deposit/withdrawal workflow. AdminSettings rows override the bet limits.
type BettingConfig struct {
	MinBet          decimal.Decimal
	MaxBet          decimal.Decimal
	MinDeposit      decimal.Decimal
	MinWithdrawal   decimal.Decimal
	DefaultAdminUPI string
}

// RedisConfig holds the match list cache settings. An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string
	MatchTTL time.Duration
}

// KafkaConfig holds event publishing settings. An empty Brokers disables publishing.
type KafkaConfig struct {
	Brokers           string
	BetsTopic         string
	SettlementsTopic  string
	TransactionsTopic string
}

// MetricsConfig holds the prometheus side server settings
type MetricsConfig struct {
	Port string
}

// JobsConfig holds background job intervals
type JobsConfig struct {
	SweepInterval     time.Duration
	ReconcileInterval time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "cricket_app"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			FrontendURL: getEnv("FRONTEND_URL", ""),
		},
		App: AppConfig{
			Env:           getEnv("APP_ENV", "local"),
			JWTSecret:     getEnv("JWT_SECRET", ""),
			AdminEmail:    getEnv("ADMIN_EMAIL", ""),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		},
		Betting: BettingConfig{
			DefaultAdminUPI: getEnv("DEFAULT_ADMIN_UPI", "admin@upi"),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", ""),
		},
		Kafka: KafkaConfig{
			Brokers:           getEnv("KAFKA_BROKERS", ""),
			BetsTopic:         getEnv("KAFKA_TOPIC_BETS", "cricket.bets"),
			SettlementsTopic:  getEnv("KAFKA_TOPIC_SETTLEMENTS", "cricket.settlements"),
			TransactionsTopic: getEnv("KAFKA_TOPIC_TRANSACTIONS", "cricket.transactions"),
		},
		Metrics: MetricsConfig{
			Port: getEnv("METRICS_PORT", "9090"),
		},
	}

	var err error
	limits := []struct {
		key string
		def string
		dst *decimal.Decimal
	}{
		{"MIN_BET_AMOUNT", "10", &config.Betting.MinBet},
		{"MAX_BET_AMOUNT", "100000", &config.Betting.MaxBet},
		{"MIN_DEPOSIT_AMOUNT", "100", &config.Betting.MinDeposit},
		{"MIN_WITHDRAWAL_AMOUNT", "500", &config.Betting.MinWithdrawal},
	}
	for _, l := range limits {
		if *l.dst, err = getEnvDecimal(l.key, l.def); err != nil {
			return nil, err
		}
	}

	if config.Redis.MatchTTL, err = getEnvDuration("REDIS_MATCH_TTL", "15s"); err != nil {
		return nil, err
	}
	if config.Jobs.SweepInterval, err = getEnvDuration("JOB_SWEEP_INTERVAL", "30s"); err != nil {
		return nil, err
	}
	if config.Jobs.ReconcileInterval, err = getEnvDuration("JOB_RECONCILE_INTERVAL", "1m"); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks required fields and limit consistency
func (c *Config) Validate() error {
	if c.App.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if !c.Betting.MinBet.IsPositive() {
		return fmt.Errorf("MIN_BET_AMOUNT must be positive")
	}
	if c.Betting.MaxBet.LessThan(c.Betting.MinBet) {
		return fmt.Errorf("MAX_BET_AMOUNT must not be below MIN_BET_AMOUNT")
	}
	// tickers panic on a non-positive period
	if c.Jobs.SweepInterval <= 0 {
		return fmt.Errorf("JOB_SWEEP_INTERVAL must be positive")
	}
	if c.Jobs.ReconcileInterval <= 0 {
		return fmt.Errorf("JOB_RECONCILE_INTERVAL must be positive")
	}
	return nil
}

// KafkaBrokers splits the comma separated broker list
func (c *Config) KafkaBrokers() []string {
	if c.Kafka.Brokers == "" {
		return nil
	}
	var brokers []string
	for _, b := range strings.Split(c.Kafka.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvDecimal(key, defaultValue string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(getEnv(key, defaultValue))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvDuration(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
