package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"

	"github.com/gosuda/kira/internal/domain"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	Board    BoardConfig
	// Columns is the per-board-type column layout: the defaults, overridden
	// by KIRA_COLUMNS_FILE when set.
	Columns domain.ColumnConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
	// AutoMigrate creates the schema on startup.
	AutoMigrate bool
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
	// RateLimit is requests per second per client IP; 0 disables limiting.
	RateLimit float64
	RateBurst int
}

// BoardConfig holds drag sensor and reconciliation settings.
type BoardConfig struct {
	PointerThreshold float64
	TouchDelay       time.Duration
	TouchTolerance   float64
	MutationTimeout  time.Duration
	RefetchDebounce  time.Duration
	// Locale is a BCP 47 tag used for case-insensitive search.
	Locale string
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// the DB password must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("KIRA_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("KIRA_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	autoMigrate, err := getEnvBool("KIRA_DB_AUTO_MIGRATE", true)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("KIRA_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("KIRA_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("KIRA_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateLimit, err := getEnvFloat("KIRA_SERVER_RATE_LIMIT", 20)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateBurst, err := getEnvInt("KIRA_SERVER_RATE_BURST", 40)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	pointerThreshold, err := getEnvFloat("KIRA_DRAG_POINTER_THRESHOLD", 8)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	touchDelay, err := getEnvDuration("KIRA_DRAG_TOUCH_DELAY", 250*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	touchTolerance, err := getEnvFloat("KIRA_DRAG_TOUCH_TOLERANCE", 5)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	mutationTimeout, err := getEnvDuration("KIRA_MUTATION_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	refetchDebounce, err := getEnvDuration("KIRA_REFETCH_DEBOUNCE", 50*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	columns := domain.DefaultColumnConfig()
	if path := getEnv("KIRA_COLUMNS_FILE", ""); path != "" {
		columns, err = LoadColumns(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: %w", err)
		}
	}

	corsOrigins := getEnvList("KIRA_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("KIRA_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("KIRA_DB_USER", "kira"),
			Password: getEnv("KIRA_DB_PASSWORD", ""),
			DBName:   getEnv("KIRA_DB_NAME", "kira_dev"),
			SSLMode:  getEnv("KIRA_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,

			AutoMigrate: autoMigrate,
		},
		Redis: RedisConfig{
			Addr:     getEnv("KIRA_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("KIRA_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Server: ServerConfig{
			Addr:         getEnv("KIRA_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  corsOrigins,
			RateLimit:    rateLimit,
			RateBurst:    rateBurst,
		},
		Board: BoardConfig{
			PointerThreshold: pointerThreshold,
			TouchDelay:       touchDelay,
			TouchTolerance:   touchTolerance,
			MutationTimeout:  mutationTimeout,
			RefetchDebounce:  refetchDebounce,
			Locale:           getEnv("KIRA_LOCALE", "und"),
		},
		Columns: columns,
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	if c.Database.SSLMode == "disable" {
		log.Warn().Msg("KIRA_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("KIRA_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("KIRA_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("KIRA_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("KIRA_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("KIRA_SERVER_RATE_LIMIT must be >= 0, got %g", c.Server.RateLimit)
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		return fmt.Errorf("KIRA_SERVER_RATE_BURST must be >= 1, got %d", c.Server.RateBurst)
	}
	if c.Board.PointerThreshold < 0 {
		return fmt.Errorf("KIRA_DRAG_POINTER_THRESHOLD must be >= 0, got %g", c.Board.PointerThreshold)
	}
	if c.Board.TouchDelay < 0 {
		return fmt.Errorf("KIRA_DRAG_TOUCH_DELAY must be >= 0, got %s", c.Board.TouchDelay)
	}
	if c.Board.TouchTolerance < 0 {
		return fmt.Errorf("KIRA_DRAG_TOUCH_TOLERANCE must be >= 0, got %g", c.Board.TouchTolerance)
	}
	if c.Board.MutationTimeout <= 0 {
		return fmt.Errorf("KIRA_MUTATION_TIMEOUT must be positive, got %s", c.Board.MutationTimeout)
	}
	if c.Board.RefetchDebounce < 0 {
		return fmt.Errorf("KIRA_REFETCH_DEBOUNCE must be >= 0, got %s", c.Board.RefetchDebounce)
	}
	if _, err := language.Parse(c.Board.Locale); err != nil {
		return fmt.Errorf("KIRA_LOCALE=%q is not a valid language tag: %w", c.Board.Locale, err)
	}

	return nil
}

// LocaleTag returns the parsed search locale. validate guarantees it parses.
func (c *BoardConfig) LocaleTag() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Und
	}
	return tag
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
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
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
