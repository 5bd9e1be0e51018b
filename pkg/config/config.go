package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	ResetLimit    ResetRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Mailer        MailerConfig
	Fulfillment   FulfillmentConfig
	Payments      PaymentsConfig
	Wallet        WalletConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FITPLAY_APP_ENV" required:"true"`
	Port         string `envconfig:"FITPLAY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FITPLAY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FITPLAY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FITPLAY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FITPLAY_DB_DSN"`
	Driver string `envconfig:"FITPLAY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FITPLAY_DB_HOST"`
	LegacyPort     int    `envconfig:"FITPLAY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FITPLAY_DB_USER"`
	LegacyPassword string `envconfig:"FITPLAY_DB_PASSWORD"`
	LegacyName     string `envconfig:"FITPLAY_DB_NAME"`
	LegacySSLMode  string `envconfig:"FITPLAY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FITPLAY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FITPLAY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FITPLAY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FITPLAY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FITPLAY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FITPLAY_REDIS_ADDR"`
	Password     string        `envconfig:"FITPLAY_REDIS_PASSWORD"`
	DB           int           `envconfig:"FITPLAY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FITPLAY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FITPLAY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FITPLAY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FITPLAY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FITPLAY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FITPLAY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FITPLAY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FITPLAY_JWT_EXPIRATION_MINUTES" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FITPLAY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FITPLAY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FITPLAY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FITPLAY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FITPLAY_ARGON_KEY_LEN" default:"32"`
}

type ResetRateLimitConfig struct {
	Window   time.Duration `envconfig:"FITPLAY_RESET_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit  int           `envconfig:"FITPLAY_RESET_RATE_LIMIT_IP_LIMIT" default:"5"`
	TokenTTL time.Duration `envconfig:"FITPLAY_RESET_TOKEN_TTL" default:"30m"`
	URLBase  string        `envconfig:"FITPLAY_RESET_URL_BASE" default:"https://app.fitplay.life/reset-password"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FITPLAY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FITPLAY_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FITPLAY_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"FITPLAY_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FITPLAY_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic              string `envconfig:"FITPLAY_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription       string `envconfig:"FITPLAY_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
	NotificationTopic        string `envconfig:"FITPLAY_PUBSUB_NOTIFICATION_TOPIC" default:"fp-notification-events"`
	NotificationSubscription string `envconfig:"FITPLAY_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
	FulfillmentTopic         string `envconfig:"FITPLAY_PUBSUB_FULFILLMENT_TOPIC" default:"fp-fulfillment-events"`
	FulfillmentSubscription  string `envconfig:"FITPLAY_PUBSUB_FULFILLMENT_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"FITPLAY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"FITPLAY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"FITPLAY_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"FITPLAY_OUTBOX_IDEMPOTENCY_TTL" default:"24h"`
}

type MailerConfig struct {
	BaseURL     string        `envconfig:"FITPLAY_MAILER_BASE_URL"`
	APIKey      string        `envconfig:"FITPLAY_MAILER_API_KEY"`
	DefaultFrom string        `envconfig:"FITPLAY_MAILER_FROM_EMAIL" default:"orders@fitplay.life"`
	Timeout     time.Duration `envconfig:"FITPLAY_MAILER_TIMEOUT" default:"10s"`
}

type FulfillmentConfig struct {
	BaseURL string        `envconfig:"FITPLAY_FULFILLMENT_BASE_URL"`
	APIKey  string        `envconfig:"FITPLAY_FULFILLMENT_API_KEY"`
	Timeout time.Duration `envconfig:"FITPLAY_FULFILLMENT_TIMEOUT" default:"15s"`
}

type PaymentsConfig struct {
	KeyID     string        `envconfig:"FITPLAY_PAYMENTS_KEY_ID"`
	KeySecret string        `envconfig:"FITPLAY_PAYMENTS_KEY_SECRET"`
	BaseURL   string        `envconfig:"FITPLAY_PAYMENTS_BASE_URL" default:"https://api.razorpay.com/v1"`
	Timeout   time.Duration `envconfig:"FITPLAY_PAYMENTS_TIMEOUT" default:"10s"`
}

type WalletConfig struct {
	DefaultExpiryDays int `envconfig:"FITPLAY_WALLET_DEFAULT_EXPIRY_DAYS" default:"365"`
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
