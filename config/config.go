package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port      string
	JWTSecret string

	// Database configuration
	DatabaseURL string

	// Redis configuration (treasury summary cache)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Credits configuration (all amounts in cents)
	StartingBalanceCents int64
	CostPostImageCents   int64
	CostLikePostCents    int64
	CostRerollCents      int64
	TaskRewardCents      int64
	RerollCooldown       time.Duration

	// Account IDs allowed to perform admin credit adjustments
	AdminUserIDs []string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from the environment, reading a .env file first
// if one is present
func load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	config := &Config{
		Port:      os.Getenv("PORT"),
		JWTSecret: os.Getenv("JWT_SECRET"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		// Credits defaults
		StartingBalanceCents: 0,
		CostPostImageCents:   5,
		CostLikePostCents:    10,
		CostRerollCents:      10,
		TaskRewardCents:      10,
		RerollCooldown:       10 * time.Minute,

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if config.Port == "" {
		config.Port = "3001"
	}

	// Override defaults if environment variables are set
	if v := os.Getenv("REDIS_DB"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			config.RedisDB = parsed
		}
	}
	if v := os.Getenv("STARTING_BALANCE_CENTS"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.StartingBalanceCents = parsed
		}
	}
	if v := os.Getenv("COST_POST_IMAGE"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.CostPostImageCents = parsed
		}
	}
	if v := os.Getenv("COST_FIRST_LIKE"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.CostLikePostCents = parsed
		}
	}
	if v := os.Getenv("COST_REROLL_SEARCH"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.CostRerollCents = parsed
		}
	}
	if v := os.Getenv("TASK_REWARD_CENTS"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.TaskRewardCents = parsed
		}
	}
	if v := os.Getenv("REROLL_COOLDOWN_MINUTES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			config.RerollCooldown = time.Duration(parsed) * time.Minute
		}
	}

	// Parse admin user IDs
	if adminIDs := os.Getenv("ADMIN_USER_IDS"); adminIDs != "" {
		for _, id := range strings.Split(adminIDs, ",") {
			id = strings.TrimSpace(id)
			if id != "" {
				config.AdminUserIDs = append(config.AdminUserIDs, id)
			}
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
	}

	return config, nil
}

// IsAdmin reports whether the given account id may perform admin adjustments
func (c *Config) IsAdmin(accountID string) bool {
	for _, id := range c.AdminUserIDs {
		if id == accountID {
			return true
		}
	}
	return false
}
