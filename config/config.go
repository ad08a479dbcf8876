// Package config loads the scanner configuration from the environment
// (plus an optional YAML watchlist file) and validates it. Invalid
// configuration is fatal at load time; it never degrades into runtime
// misbehavior.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Vendors
	TwelveAPIKey    string
	AlphaVantageKey string

	// Telegram (cmd/tgbot only)
	TelegramToken string

	// Market data
	Watchlist     []string `default:"[\"EURUSD-OTC\",\"GBPUSD-OTC\",\"USDJPY-OTC\",\"AUDUSD-OTC\",\"USDCHF-OTC\"]" validate:"min=1,max=5"`
	WatchlistFile string
	Interval      string `default:"5min"`
	CandleCount   int    `default:"60" validate:"min=40"`

	// Strategy
	Strategy            string  `default:"confluence" validate:"oneof=confluence weighted"`
	RequiredVotes       int     `default:"4" validate:"min=1,max=4"`
	ConfidenceThreshold float64 `default:"0.80" validate:"gte=0,lte=1"`
	ATRFloor            float64 `default:"0.0006" validate:"gte=0"`
	ScoreSeparation     float64 `default:"0.35" validate:"gte=0,lte=1"`
	HTFConfirm          bool
	HTFInterval         string `default:"15min"`
	HTFEMAPeriod        int    `default:"50" validate:"min=2"`

	// Pacing
	CooldownMinutes     int `default:"5" validate:"min=0"`
	GlobalMinGapMinutes int `default:"7" validate:"min=0"`
	MaxEmissionsPerHour int `default:"6" validate:"min=1"`
	LossStreakLimit     int `default:"3" validate:"min=1"`
	DailyWinCap         int `validate:"min=0"` // 0 disables
	DailyLossCap        int `validate:"min=0"` // 0 disables
	Economy             bool

	// Scan loop
	ScanIntervalSeconds     int    `default:"300" validate:"min=5"`
	FetchTimeoutSeconds     int    `default:"12" validate:"min=1"`
	CacheTTLSeconds         int    `default:"60" validate:"min=0"`
	Mode                    string `default:"bundle" validate:"oneof=bundle bestpick"`
	AutopollDurationMinutes int    `default:"60" validate:"min=1"`

	// Observability
	LogLevel    string `default:"info"`
	MetricsAddr string // empty disables the metrics endpoint

	// Signal history (optional; enabled when DBHost is set)
	DBHost     string
	DBPort     string `default:"5432"`
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string `default:"disable"`
}

// watchlistFile is the YAML shape of an external watchlist.
type watchlistFile struct {
	Pairs []string `yaml:"pairs"`
}

// Load initializes configuration from environment variables.
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}

	cfg.TwelveAPIKey = os.Getenv("TWELVE_API_KEY")
	cfg.AlphaVantageKey = os.Getenv("ALPHA_VANTAGE_KEY")
	cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")

	if v := os.Getenv("WATCHLIST"); v != "" {
		cfg.Watchlist = splitList(v)
	}
	cfg.WatchlistFile = os.Getenv("WATCHLIST_FILE")
	if cfg.WatchlistFile != "" {
		pairs, err := loadWatchlistFile(cfg.WatchlistFile)
		if err != nil {
			return nil, err
		}
		cfg.Watchlist = pairs
	}

	setString(&cfg.Interval, "INTERVAL")
	setString(&cfg.Strategy, "STRATEGY")
	setString(&cfg.HTFInterval, "HTF_INTERVAL")
	setString(&cfg.Mode, "MODE")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.MetricsAddr, "METRICS_ADDR")

	// A set but unparseable value is fatal; it must never fall back to the
	// default behind the operator's back.
	if err := errors.Join(
		setInt(&cfg.CandleCount, "CANDLE_COUNT"),
		setInt(&cfg.RequiredVotes, "REQUIRED_VOTES"),
		setFloat(&cfg.ConfidenceThreshold, "CONFIDENCE_THRESHOLD"),
		setFloat(&cfg.ATRFloor, "ATR_FLOOR"),
		setFloat(&cfg.ScoreSeparation, "SCORE_SEPARATION"),
		setBool(&cfg.HTFConfirm, "HTF_CONFIRM"),
		setInt(&cfg.HTFEMAPeriod, "HTF_EMA_PERIOD"),
		setInt(&cfg.CooldownMinutes, "COOLDOWN_MINUTES"),
		setInt(&cfg.GlobalMinGapMinutes, "GLOBAL_MIN_GAP_MINUTES"),
		setInt(&cfg.MaxEmissionsPerHour, "MAX_EMISSIONS_PER_HOUR"),
		setInt(&cfg.LossStreakLimit, "LOSS_STREAK_LIMIT"),
		setInt(&cfg.DailyWinCap, "DAILY_WIN_CAP"),
		setInt(&cfg.DailyLossCap, "DAILY_LOSS_CAP"),
		setBool(&cfg.Economy, "ECONOMY"),
		setInt(&cfg.ScanIntervalSeconds, "SCAN_INTERVAL_SECONDS"),
		setInt(&cfg.FetchTimeoutSeconds, "FETCH_TIMEOUT_SECONDS"),
		setInt(&cfg.CacheTTLSeconds, "CACHE_TTL_SECONDS"),
		setInt(&cfg.AutopollDurationMinutes, "AUTOPOLL_DURATION_MINUTES"),
	); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	setString(&cfg.DBHost, "DB_HOST")
	setString(&cfg.DBPort, "DB_PORT")
	setString(&cfg.DBUser, "DB_USER")
	setString(&cfg.DBPassword, "DB_PASSWORD")
	setString(&cfg.DBName, "DB_NAME")
	setString(&cfg.DBSSLMode, "DB_SSLMODE")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the structural rules plus the cross-field ones the
// tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.TwelveAPIKey == "" && c.AlphaVantageKey == "" {
		return fmt.Errorf("invalid configuration: at least one of TWELVE_API_KEY or ALPHA_VANTAGE_KEY is required")
	}
	if c.FetchTimeoutSeconds > c.ScanIntervalSeconds {
		return fmt.Errorf("invalid configuration: fetch timeout (%ds) must not exceed the scan interval (%ds)",
			c.FetchTimeoutSeconds, c.ScanIntervalSeconds)
	}
	for _, pair := range c.Watchlist {
		if strings.TrimSpace(pair) == "" {
			return fmt.Errorf("invalid configuration: empty instrument in watchlist")
		}
	}
	return nil
}

// Durations expressed by the integer fields.

func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownMinutes) * time.Minute
}

func (c *Config) GlobalMinGap() time.Duration {
	return time.Duration(c.GlobalMinGapMinutes) * time.Minute
}

func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.ScanIntervalSeconds) * time.Second
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c *Config) AutopollDuration() time.Duration {
	return time.Duration(c.AutopollDurationMinutes) * time.Minute
}

// HistoryEnabled reports whether the Postgres signal history is
// configured.
func (c *Config) HistoryEnabled() bool {
	return c.DBHost != ""
}

func loadWatchlistFile(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read watchlist: %w", err)
	}
	var wf watchlistFile
	if err := yaml.Unmarshal(b, &wf); err != nil {
		return nil, fmt.Errorf("parse watchlist: %w", err)
	}
	return wf.Pairs, nil
}

// splitList accepts comma- or space-separated instrument lists.
func splitList(v string) []string {
	fields := strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ' '
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, strings.ToUpper(f))
		}
	}
	return out
}

// Helper functions for environment variable handling

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %q is not an integer", key, v)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %q is not a number", key, v)
	}
	*dst = f
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		*dst = true
	case "false", "0", "no", "off":
		*dst = false
	default:
		return fmt.Errorf("%s: %q is not a boolean", key, v)
	}
	return nil
}
