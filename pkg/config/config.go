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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Checkout     CheckoutConfig
	Settlement   SettlementConfig
	OTP          OTPConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Settlement.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BAZAARLINK_APP_ENV" required:"true"`
	Port         string `envconfig:"BAZAARLINK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BAZAARLINK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BAZAARLINK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, AppEnvProduction)
}

type ServiceConfig struct {
	Kind string `envconfig:"BAZAARLINK_SERVICE_KIND" default:"api"`
	// MetricsAddr is where the cron-worker and outbox-publisher expose
	// /metrics. Empty disables the listener; the api serves /metrics itself.
	MetricsAddr string `envconfig:"BAZAARLINK_SERVICE_METRICS_ADDR"`
}

type DBConfig struct {
	DSN    string `envconfig:"BAZAARLINK_DB_DSN"`
	Driver string `envconfig:"BAZAARLINK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BAZAARLINK_DB_HOST"`
	LegacyPort     int    `envconfig:"BAZAARLINK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BAZAARLINK_DB_USER"`
	LegacyPassword string `envconfig:"BAZAARLINK_DB_PASSWORD"`
	LegacyName     string `envconfig:"BAZAARLINK_DB_NAME"`
	LegacySSLMode  string `envconfig:"BAZAARLINK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BAZAARLINK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BAZAARLINK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BAZAARLINK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BAZAARLINK_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQueryThreshold logs statements at warn level once they take longer.
	SlowQueryThreshold time.Duration `envconfig:"BAZAARLINK_DB_SLOW_QUERY" default:"500ms"`
	// TxAttempts bounds reruns of a transaction aborted by a serialization
	// failure or deadlock.
	TxAttempts int `envconfig:"BAZAARLINK_DB_TX_ATTEMPTS" default:"3"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BAZAARLINK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BAZAARLINK_REDIS_ADDR"`
	Password     string        `envconfig:"BAZAARLINK_REDIS_PASSWORD"`
	DB           int           `envconfig:"BAZAARLINK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BAZAARLINK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BAZAARLINK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BAZAARLINK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BAZAARLINK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BAZAARLINK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BAZAARLINK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BAZAARLINK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BAZAARLINK_JWT_EXPIRATION_MINUTES" required:"true"`
}

// RateLimitConfig throttles the endpoints that create orders or issue codes.
type RateLimitConfig struct {
	CheckoutWindow    time.Duration `envconfig:"BAZAARLINK_RATE_LIMIT_CHECKOUT_WINDOW" default:"1m"`
	CheckoutIPLimit   int           `envconfig:"BAZAARLINK_RATE_LIMIT_CHECKOUT_IP_LIMIT" default:"60"`
	CheckoutUserLimit int           `envconfig:"BAZAARLINK_RATE_LIMIT_CHECKOUT_USER_LIMIT" default:"10"`
	OTPIssueWindow    time.Duration `envconfig:"BAZAARLINK_RATE_LIMIT_OTP_ISSUE_WINDOW" default:"10m"`
	OTPIssueUserLimit int           `envconfig:"BAZAARLINK_RATE_LIMIT_OTP_ISSUE_USER_LIMIT" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate    bool `envconfig:"BAZAARLINK_AUTO_MIGRATE" default:"false"`
	OnlinePayments bool `envconfig:"BAZAARLINK_FEATURE_ONLINE_PAYMENTS" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"BAZAARLINK_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BAZAARLINK_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"BAZAARLINK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BAZAARLINK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic      string `envconfig:"BAZAARLINK_PUBSUB_ORDERS_TOPIC" required:"true"`
	SettlementTopic  string `envconfig:"BAZAARLINK_PUBSUB_SETTLEMENT_TOPIC" required:"true"`
	DomainEventTopic string `envconfig:"BAZAARLINK_PUBSUB_DOMAIN_TOPIC" default:"bl-domain-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BAZAARLINK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BAZAARLINK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BAZAARLINK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// CheckoutConfig carries the pricing policy knobs applied when a cart is split
// into vendor orders.
type CheckoutConfig struct {
	TaxRate             string        `envconfig:"BAZAARLINK_CHECKOUT_TAX_RATE" default:"0"`
	FallbackFeePaise    int64         `envconfig:"BAZAARLINK_CHECKOUT_FALLBACK_FEE_PAISE" default:"3000"`
	FallbackDistanceKm  float64       `envconfig:"BAZAARLINK_CHECKOUT_FALLBACK_DISTANCE_KM" default:"5"`
	BaseFeePaise        int64         `envconfig:"BAZAARLINK_CHECKOUT_BASE_FEE_PAISE" default:"2000"`
	PerKmFeePaise       int64         `envconfig:"BAZAARLINK_CHECKOUT_PER_KM_FEE_PAISE" default:"500"`
	PendingPaymentTTL   time.Duration `envconfig:"BAZAARLINK_CHECKOUT_PENDING_PAYMENT_TTL" default:"30m"`
	MaxDeliveryRadiusKm float64       `envconfig:"BAZAARLINK_CHECKOUT_MAX_RADIUS_KM" default:"25"`
}

// TaxRateDecimal returns the parsed tax rate. Load already rejects malformed values.
func (c CheckoutConfig) TaxRateDecimal() decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.TaxRate))
	if err != nil {
		return decimal.Zero
	}
	return rate
}

func (c CheckoutConfig) validate() error {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.TaxRate))
	if err != nil {
		return fmt.Errorf("%s must be a decimal: %w", EnvCheckoutTaxRate, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be between 0 and 1", EnvCheckoutTaxRate)
	}
	if c.FallbackFeePaise < 0 || c.FallbackDistanceKm < 0 {
		return fmt.Errorf("checkout fallback fee and distance must be non-negative")
	}
	return nil
}

type SettlementConfig struct {
	CommissionRate       string `envconfig:"BAZAARLINK_SETTLEMENT_COMMISSION_RATE" default:"0"`
	CashoutMinimumPaise  int64  `envconfig:"BAZAARLINK_SETTLEMENT_CASHOUT_MIN_PAISE" default:"100000"`
	ReconcileBatchSize   int    `envconfig:"BAZAARLINK_SETTLEMENT_RECONCILE_BATCH_SIZE" default:"200"`
	RequireOwnerVerified bool   `envconfig:"BAZAARLINK_SETTLEMENT_REQUIRE_OWNER_VERIFIED" default:"true"`
}

// CommissionRateDecimal returns the parsed commission rate.
func (s SettlementConfig) CommissionRateDecimal() decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(s.CommissionRate))
	if err != nil {
		return decimal.Zero
	}
	return rate
}

func (s SettlementConfig) validate() error {
	rate, err := decimal.NewFromString(strings.TrimSpace(s.CommissionRate))
	if err != nil {
		return fmt.Errorf("%s must be a decimal: %w", EnvSettlementCommissionRate, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be between 0 and 1", EnvSettlementCommissionRate)
	}
	if s.CashoutMinimumPaise <= 0 {
		return fmt.Errorf("%s must be positive", EnvSettlementCashoutMinimum)
	}
	return nil
}

type OTPConfig struct {
	Length           int           `envconfig:"BAZAARLINK_OTP_LENGTH" default:"4"`
	TTL              time.Duration `envconfig:"BAZAARLINK_OTP_TTL" default:"2h"`
	AttemptWindow    time.Duration `envconfig:"BAZAARLINK_OTP_ATTEMPT_WINDOW" default:"10m"`
	AttemptLimit     int           `envconfig:"BAZAARLINK_OTP_ATTEMPT_LIMIT" default:"5"`
	ArgonMemoryKB    int           `envconfig:"BAZAARLINK_OTP_ARGON_MEMORY_KB" default:"19456"`
	ArgonTime        int           `envconfig:"BAZAARLINK_OTP_ARGON_TIME" default:"2"`
	ArgonParallelism int           `envconfig:"BAZAARLINK_OTP_ARGON_PARALLELISM" default:"1"`
	ArgonSaltLen     int           `envconfig:"BAZAARLINK_OTP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int           `envconfig:"BAZAARLINK_OTP_ARGON_KEY_LEN" default:"32"`
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"BAZAARLINK_CRON_INTERVAL" default:"1h"`
	LockTTL             time.Duration `envconfig:"BAZAARLINK_CRON_LOCK_TTL" default:"10m"`
	FallbackAuditWindow time.Duration `envconfig:"BAZAARLINK_CRON_FALLBACK_AUDIT_WINDOW" default:"24h"`
	PendingPaymentBatch int           `envconfig:"BAZAARLINK_CRON_PENDING_PAYMENT_BATCH" default:"100"`
	OutboxRetention     time.Duration `envconfig:"BAZAARLINK_CRON_OUTBOX_RETENTION" default:"720h"`
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
