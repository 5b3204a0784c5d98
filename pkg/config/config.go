package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Commerce     CommerceConfig
	Hold         HoldConfig
	Insurance    InsuranceConfig
	Loyalty      LoyaltyConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Insurance.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STAGEPASS_APP_ENV" required:"true"`
	Port         string `envconfig:"STAGEPASS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STAGEPASS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STAGEPASS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STAGEPASS_DB_DSN"`
	Driver string `envconfig:"STAGEPASS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STAGEPASS_DB_HOST"`
	LegacyPort     int    `envconfig:"STAGEPASS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STAGEPASS_DB_USER"`
	LegacyPassword string `envconfig:"STAGEPASS_DB_PASSWORD"`
	LegacyName     string `envconfig:"STAGEPASS_DB_NAME"`
	LegacySSLMode  string `envconfig:"STAGEPASS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STAGEPASS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STAGEPASS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STAGEPASS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STAGEPASS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STAGEPASS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STAGEPASS_REDIS_ADDR"`
	Password     string        `envconfig:"STAGEPASS_REDIS_PASSWORD"`
	DB           int           `envconfig:"STAGEPASS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STAGEPASS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STAGEPASS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STAGEPASS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STAGEPASS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STAGEPASS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CommerceConfig points at the remote commerce API that owns seat holds,
// promo validation and order submission.
type CommerceConfig struct {
	BaseURL string        `envconfig:"STAGEPASS_COMMERCE_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"STAGEPASS_COMMERCE_TIMEOUT" default:"10s"`
}

// HoldConfig bounds the reservation window and its countdown thresholds.
type HoldConfig struct {
	Duration         time.Duration `envconfig:"STAGEPASS_HOLD_DURATION" default:"15m"`
	TickInterval     time.Duration `envconfig:"STAGEPASS_HOLD_TICK_INTERVAL" default:"1s"`
	WarningThreshold time.Duration `envconfig:"STAGEPASS_HOLD_WARNING_THRESHOLD" default:"5m"`
	UrgentThreshold  time.Duration `envconfig:"STAGEPASS_HOLD_URGENT_THRESHOLD" default:"1m"`
}

// InsuranceConfig describes the single ticket-insurance offer presented at
// checkout. The offer is fixed per deployment; buyers only toggle selection.
type InsuranceConfig struct {
	Enabled     bool   `envconfig:"STAGEPASS_INSURANCE_ENABLED" default:"false"`
	Label       string `envconfig:"STAGEPASS_INSURANCE_LABEL" default:"Ticket protection"`
	Description string `envconfig:"STAGEPASS_INSURANCE_DESCRIPTION"`
	PriceKind   string `envconfig:"STAGEPASS_INSURANCE_PRICE_KIND" default:"fixed"`
	PriceValue  string `envconfig:"STAGEPASS_INSURANCE_PRICE_VALUE" default:"0"`
	PreChecked  bool   `envconfig:"STAGEPASS_INSURANCE_PRE_CHECKED" default:"false"`
	TermsURL    string `envconfig:"STAGEPASS_INSURANCE_TERMS_URL"`
}

// Price parses the configured offer price.
func (i InsuranceConfig) Price() decimal.Decimal {
	value, err := decimal.NewFromString(i.PriceValue)
	if err != nil {
		return decimal.Zero
	}
	return value
}

func (i InsuranceConfig) validate() error {
	if !i.Enabled {
		return nil
	}
	if i.PriceKind != "fixed" && i.PriceKind != "percentage" {
		return fmt.Errorf("invalid insurance price kind %q", i.PriceKind)
	}
	if _, err := decimal.NewFromString(i.PriceValue); err != nil {
		return fmt.Errorf("invalid insurance price value %q: %w", i.PriceValue, err)
	}
	return nil
}

type LoyaltyConfig struct {
	PointsPerCurrencyUnit int64 `envconfig:"STAGEPASS_LOYALTY_POINTS_PER_UNIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STAGEPASS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STAGEPASS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
