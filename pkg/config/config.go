package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	Inventory    InventoryConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	SMS          SMSConfig
	Mail         MailConfig
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
	Env          string `envconfig:"BUILDMART_APP_ENV" required:"true"`
	Port         string `envconfig:"BUILDMART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BUILDMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BUILDMART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BUILDMART_DB_DSN"`
	Driver string `envconfig:"BUILDMART_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"BUILDMART_DB_HOST"`
	Port     int    `envconfig:"BUILDMART_DB_PORT" default:"5432"`
	User     string `envconfig:"BUILDMART_DB_USER"`
	Password string `envconfig:"BUILDMART_DB_PASSWORD"`
	Name     string `envconfig:"BUILDMART_DB_NAME"`
	SSLMode  string `envconfig:"BUILDMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BUILDMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BUILDMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BUILDMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BUILDMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BUILDMART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BUILDMART_REDIS_ADDR"`
	Password     string        `envconfig:"BUILDMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"BUILDMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BUILDMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BUILDMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BUILDMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BUILDMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BUILDMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BUILDMART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BUILDMART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BUILDMART_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BUILDMART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BUILDMART_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"BUILDMART_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type InventoryConfig struct {
	DefaultMinimumStock int `envconfig:"BUILDMART_INVENTORY_DEFAULT_MINIMUM_STOCK" default:"10"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BUILDMART_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"BUILDMART_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BUILDMART_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"BUILDMART_PUBSUB_DOMAIN_TOPIC" default:"bm-domain-events"`
	DomainSubscription string `envconfig:"BUILDMART_PUBSUB_DOMAIN_SUBSCRIPTION" default:"bm-domain-events-notifier"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BUILDMART_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BUILDMART_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BUILDMART_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type SMSConfig struct {
	BaseURL    string `envconfig:"BUILDMART_SMS_BASE_URL" default:"https://api.semaphore.co/api/v4"`
	APIKey     string `envconfig:"BUILDMART_SMS_API_KEY"`
	SenderName string `envconfig:"BUILDMART_SMS_SENDER_NAME" default:"BUILDMART"`
}

type MailConfig struct {
	BaseURL     string `envconfig:"BUILDMART_MAIL_BASE_URL" default:"https://api.sendgrid.com/v3"`
	APIKey      string `envconfig:"BUILDMART_MAIL_API_KEY"`
	DefaultFrom string `envconfig:"BUILDMART_MAIL_FROM_EMAIL"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if parts[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
