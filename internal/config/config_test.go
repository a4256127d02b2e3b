package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/gosuda/kira/internal/domain"
)

// ---------------------------------------------------------------------------
// Helper function tests
// ---------------------------------------------------------------------------

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string // nil = don't set; pointer to distinguish "" from unset
		fallback string
		want     string
	}{
		{name: "returns fallback when unset", key: "KIRA_TEST_GETENV_UNSET", setVal: nil, fallback: "default", want: "default"},
		{name: "returns env value when set", key: "KIRA_TEST_GETENV_SET", setVal: strPtr("custom"), fallback: "default", want: "custom"},
		{name: "returns fallback when empty string", key: "KIRA_TEST_GETENV_EMPTY", setVal: strPtr(""), fallback: "default", want: "default"},
		{name: "preserves whitespace", key: "KIRA_TEST_GETENV_WS", setVal: strPtr("  spaced  "), fallback: "x", want: "  spaced  "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got := getEnv(tc.key, tc.fallback)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback int
		want     int
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "KIRA_TEST_INT_UNSET", setVal: nil, fallback: 42, want: 42},
		{name: "parses valid int", key: "KIRA_TEST_INT_VALID", setVal: strPtr("8080"), fallback: 0, want: 8080},
		{name: "parses negative int", key: "KIRA_TEST_INT_NEG", setVal: strPtr("-1"), fallback: 0, want: -1},
		{name: "parses zero", key: "KIRA_TEST_INT_ZERO", setVal: strPtr("0"), fallback: 99, want: 0},
		{name: "returns fallback for empty string", key: "KIRA_TEST_INT_EMPTY", setVal: strPtr(""), fallback: 25, want: 25},
		{name: "errors on non-numeric", key: "KIRA_TEST_INT_NAN", setVal: strPtr("abc"), fallback: 0, wantErr: true},
		{name: "errors on float", key: "KIRA_TEST_INT_FLOAT", setVal: strPtr("3.14"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvInt(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback bool
		want     bool
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "KIRA_TEST_BOOL_UNSET", setVal: nil, fallback: false, want: false},
		{name: "fallback true when unset", key: "KIRA_TEST_BOOL_UNSETTRUE", setVal: nil, fallback: true, want: true},
		{name: "parses true", key: "KIRA_TEST_BOOL_TRUE", setVal: strPtr("true"), fallback: false, want: true},
		{name: "parses false", key: "KIRA_TEST_BOOL_FALSE", setVal: strPtr("false"), fallback: true, want: false},
		{name: "parses 1", key: "KIRA_TEST_BOOL_ONE", setVal: strPtr("1"), fallback: false, want: true},
		{name: "parses 0", key: "KIRA_TEST_BOOL_ZERO", setVal: strPtr("0"), fallback: true, want: false},
		{name: "parses TRUE uppercase", key: "KIRA_TEST_BOOL_UPPER", setVal: strPtr("TRUE"), fallback: false, want: true},
		{name: "parses t", key: "KIRA_TEST_BOOL_T", setVal: strPtr("t"), fallback: false, want: true},
		{name: "errors on invalid", key: "KIRA_TEST_BOOL_INV", setVal: strPtr("yes"), fallback: false, wantErr: true},
		{name: "errors on numeric non-bool", key: "KIRA_TEST_BOOL_NUM", setVal: strPtr("2"), fallback: false, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvBool(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback time.Duration
		want     time.Duration
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "KIRA_TEST_DUR_UNSET", setVal: nil, fallback: 5 * time.Second, want: 5 * time.Second},
		{name: "parses seconds", key: "KIRA_TEST_DUR_SEC", setVal: strPtr("30s"), fallback: 0, want: 30 * time.Second},
		{name: "parses minutes", key: "KIRA_TEST_DUR_MIN", setVal: strPtr("15m"), fallback: 0, want: 15 * time.Minute},
		{name: "parses hours", key: "KIRA_TEST_DUR_HR", setVal: strPtr("2h"), fallback: 0, want: 2 * time.Hour},
		{name: "parses nanosecond", key: "KIRA_TEST_DUR_NS", setVal: strPtr("1ns"), fallback: 0, want: time.Nanosecond},
		{name: "parses zero", key: "KIRA_TEST_DUR_ZERO", setVal: strPtr("0s"), fallback: 5 * time.Second, want: 0},
		{name: "errors on invalid", key: "KIRA_TEST_DUR_INV", setVal: strPtr("notaduration"), fallback: 0, wantErr: true},
		{name: "errors on bare number", key: "KIRA_TEST_DUR_BARE", setVal: strPtr("30"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvDuration(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvFloat(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback float64
		want     float64
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "KIRA_TEST_FLOAT_UNSET", setVal: nil, fallback: 8, want: 8},
		{name: "parses integer text", key: "KIRA_TEST_FLOAT_INT", setVal: strPtr("12"), fallback: 0, want: 12},
		{name: "parses fraction", key: "KIRA_TEST_FLOAT_FRAC", setVal: strPtr("2.5"), fallback: 0, want: 2.5},
		{name: "errors on garbage", key: "KIRA_TEST_FLOAT_BAD", setVal: strPtr("px"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvFloat(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

// ---------------------------------------------------------------------------
// Load()
// ---------------------------------------------------------------------------

func TestLoad_InvalidEnvVars(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
		errMsg string
	}{
		{name: "DB_PORT not a number", envKey: "KIRA_DB_PORT", envVal: "abc", errMsg: "KIRA_DB_PORT"},
		{name: "DB_PORT out of range", envKey: "KIRA_DB_PORT", envVal: "70000", errMsg: "KIRA_DB_PORT"},
		{name: "DB_MAX_CONNS zero", envKey: "KIRA_DB_MAX_CONNS", envVal: "0", errMsg: "KIRA_DB_MAX_CONNS"},
		{name: "DB_AUTO_MIGRATE not a bool", envKey: "KIRA_DB_AUTO_MIGRATE", envVal: "maybe", errMsg: "KIRA_DB_AUTO_MIGRATE"},
		{name: "REDIS_DB not a number", envKey: "KIRA_REDIS_DB", envVal: "x", errMsg: "KIRA_REDIS_DB"},
		{name: "READ_TIMEOUT zero", envKey: "KIRA_SERVER_READ_TIMEOUT", envVal: "0s", errMsg: "KIRA_SERVER_READ_TIMEOUT"},
		{name: "WRITE_TIMEOUT invalid", envKey: "KIRA_SERVER_WRITE_TIMEOUT", envVal: "soon", errMsg: "KIRA_SERVER_WRITE_TIMEOUT"},
		{name: "RATE_LIMIT negative", envKey: "KIRA_SERVER_RATE_LIMIT", envVal: "-1", errMsg: "KIRA_SERVER_RATE_LIMIT"},
		{name: "POINTER_THRESHOLD negative", envKey: "KIRA_DRAG_POINTER_THRESHOLD", envVal: "-2", errMsg: "KIRA_DRAG_POINTER_THRESHOLD"},
		{name: "TOUCH_DELAY invalid", envKey: "KIRA_DRAG_TOUCH_DELAY", envVal: "long", errMsg: "KIRA_DRAG_TOUCH_DELAY"},
		{name: "TOUCH_TOLERANCE negative", envKey: "KIRA_DRAG_TOUCH_TOLERANCE", envVal: "-0.5", errMsg: "KIRA_DRAG_TOUCH_TOLERANCE"},
		{name: "MUTATION_TIMEOUT zero", envKey: "KIRA_MUTATION_TIMEOUT", envVal: "0s", errMsg: "KIRA_MUTATION_TIMEOUT"},
		{name: "REFETCH_DEBOUNCE negative", envKey: "KIRA_REFETCH_DEBOUNCE", envVal: "-1ms", errMsg: "KIRA_REFETCH_DEBOUNCE"},
		{name: "LOCALE malformed", envKey: "KIRA_LOCALE", envVal: "not a tag!", errMsg: "KIRA_LOCALE"},
		{name: "COLUMNS_FILE missing", envKey: "KIRA_COLUMNS_FILE", envVal: "/nonexistent/columns.yaml", errMsg: "columns.yaml"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.envKey, tc.envVal)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	// Database defaults.
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "kira", cfg.Database.User)
	assert.Equal(t, "kira_dev", cfg.Database.DBName)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 25, cfg.Database.MaxConns)
	assert.True(t, cfg.Database.AutoMigrate)

	// Redis defaults.
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB)

	// Server defaults.
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.InDelta(t, 20.0, cfg.Server.RateLimit, 1e-9)
	assert.Equal(t, 40, cfg.Server.RateBurst)

	// Board defaults.
	assert.InDelta(t, 8.0, cfg.Board.PointerThreshold, 1e-9)
	assert.Equal(t, 250*time.Millisecond, cfg.Board.TouchDelay)
	assert.InDelta(t, 5.0, cfg.Board.TouchTolerance, 1e-9)
	assert.Equal(t, 10*time.Second, cfg.Board.MutationTimeout)
	assert.Equal(t, 50*time.Millisecond, cfg.Board.RefetchDebounce)
	assert.Equal(t, language.Und, cfg.Board.LocaleTag())

	assert.Equal(t, domain.DefaultColumnConfig(), cfg.Columns)
}

func TestLoad_AllCustomValues(t *testing.T) {
	dir := t.TempDir()
	columnsPath := filepath.Join(dir, "columns.yaml")
	require.NoError(t, os.WriteFile(columnsPath, []byte(`
boards:
  shopping:
    - key: list
      title: List
    - key: basket
      title: Basket
`), 0o600))

	envs := map[string]string{
		"KIRA_DB_HOST":                "db.prod",
		"KIRA_DB_PORT":                "5433",
		"KIRA_DB_USER":                "admin",
		"KIRA_DB_PASSWORD":            "secret",
		"KIRA_DB_NAME":                "kira_prod",
		"KIRA_DB_SSLMODE":             "require",
		"KIRA_DB_MAX_CONNS":           "50",
		"KIRA_DB_AUTO_MIGRATE":        "false",
		"KIRA_REDIS_ADDR":             "redis.prod:6380",
		"KIRA_REDIS_PASSWORD":         "redis-pass",
		"KIRA_REDIS_DB":               "3",
		"KIRA_SERVER_ADDR":            ":9090",
		"KIRA_SERVER_READ_TIMEOUT":    "5s",
		"KIRA_SERVER_WRITE_TIMEOUT":   "15s",
		"KIRA_SERVER_RATE_LIMIT":      "0",
		"KIRA_CORS_ORIGINS":           "https://a.example, https://b.example",
		"KIRA_DRAG_POINTER_THRESHOLD": "4",
		"KIRA_DRAG_TOUCH_DELAY":       "400ms",
		"KIRA_DRAG_TOUCH_TOLERANCE":   "10",
		"KIRA_MUTATION_TIMEOUT":       "3s",
		"KIRA_REFETCH_DEBOUNCE":       "0s",
		"KIRA_LOCALE":                 "tr",
		"KIRA_COLUMNS_FILE":           columnsPath,
	}
	for k, v := range envs {
		t.Setenv(k, v)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "host=db.prod port=5433 user=admin password=secret dbname=kira_prod sslmode=require", cfg.Database.DSN())
	assert.Equal(t, 50, cfg.Database.MaxConns)
	assert.False(t, cfg.Database.AutoMigrate)

	assert.Equal(t, "redis.prod:6380", cfg.Redis.Addr)
	assert.Equal(t, "redis-pass", cfg.Redis.Password)
	assert.Equal(t, 3, cfg.Redis.DB)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Zero(t, cfg.Server.RateLimit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)

	assert.InDelta(t, 4.0, cfg.Board.PointerThreshold, 1e-9)
	assert.Equal(t, 400*time.Millisecond, cfg.Board.TouchDelay)
	assert.InDelta(t, 10.0, cfg.Board.TouchTolerance, 1e-9)
	assert.Equal(t, 3*time.Second, cfg.Board.MutationTimeout)
	assert.Zero(t, cfg.Board.RefetchDebounce)
	assert.Equal(t, language.Turkish, cfg.Board.LocaleTag())

	assert.Equal(t, []domain.ColumnKey{"list", "basket"}, cfg.Columns.Keys(domain.BoardTypeShopping))
	assert.Equal(t, domain.DefaultColumnConfig().Keys(domain.BoardTypeTasks), cfg.Columns.Keys(domain.BoardTypeTasks))
}

// ---------------------------------------------------------------------------
// DSN() output format
// ---------------------------------------------------------------------------

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{
			name: "default dev values",
			cfg: DatabaseConfig{
				Host: "localhost", Port: 5432, User: "kira",
				Password: "", DBName: "kira_dev", SSLMode: "disable",
			},
			want: "host=localhost port=5432 user=kira password= dbname=kira_dev sslmode=disable",
		},
		{
			name: "special characters in password",
			cfg: DatabaseConfig{
				Host: "h", Port: 1, User: "u",
				Password: "p=a&b c", DBName: "d", SSLMode: "s",
			},
			want: "host=h port=1 user=u password=p=a&b c dbname=d sslmode=s",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.cfg.DSN())
		})
	}
}

// ---------------------------------------------------------------------------
// validate() direct tests
// ---------------------------------------------------------------------------

func TestValidate(t *testing.T) {
	t.Parallel()

	// validBase returns a Config that passes validation.
	validBase := func() *Config {
		return &Config{
			Database: DatabaseConfig{Port: 5432, MaxConns: 25, SSLMode: "require"},
			Server: ServerConfig{
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 30 * time.Second,
				RateLimit:    20,
				RateBurst:    40,
			},
			Board: BoardConfig{
				PointerThreshold: 8,
				TouchDelay:       250 * time.Millisecond,
				TouchTolerance:   5,
				MutationTimeout:  10 * time.Second,
				RefetchDebounce:  50 * time.Millisecond,
				Locale:           "en",
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid config passes", mutate: func(*Config) {}},
		{name: "port 0 fails", mutate: func(c *Config) { c.Database.Port = 0 }, wantErr: "KIRA_DB_PORT"},
		{name: "port 65535 passes", mutate: func(c *Config) { c.Database.Port = 65535 }},
		{name: "MaxConns 0 fails", mutate: func(c *Config) { c.Database.MaxConns = 0 }, wantErr: "KIRA_DB_MAX_CONNS"},
		{name: "ReadTimeout negative fails", mutate: func(c *Config) { c.Server.ReadTimeout = -time.Second }, wantErr: "KIRA_SERVER_READ_TIMEOUT"},
		{name: "rate limit disabled ignores burst", mutate: func(c *Config) { c.Server.RateLimit, c.Server.RateBurst = 0, 0 }},
		{name: "rate limit without burst fails", mutate: func(c *Config) { c.Server.RateBurst = 0 }, wantErr: "KIRA_SERVER_RATE_BURST"},
		{name: "zero pointer threshold passes", mutate: func(c *Config) { c.Board.PointerThreshold = 0 }},
		{name: "negative touch delay fails", mutate: func(c *Config) { c.Board.TouchDelay = -time.Millisecond }, wantErr: "KIRA_DRAG_TOUCH_DELAY"},
		{name: "zero mutation timeout fails", mutate: func(c *Config) { c.Board.MutationTimeout = 0 }, wantErr: "KIRA_MUTATION_TIMEOUT"},
		{name: "zero debounce passes", mutate: func(c *Config) { c.Board.RefetchDebounce = 0 }},
		{name: "bad locale fails", mutate: func(c *Config) { c.Board.Locale = "??" }, wantErr: "KIRA_LOCALE"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := validBase()
			tc.mutate(c)
			err := c.validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

// ---------------------------------------------------------------------------
// Test helper
// ---------------------------------------------------------------------------

func strPtr(s string) *string {
	return &s
}
