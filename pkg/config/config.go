package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "PROCUREFLOW"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvDBDSN  = "PROCUREFLOW_DB_DSN"
	EnvDBHost = "PROCUREFLOW_DB_HOST"
	EnvDBUser = "PROCUREFLOW_DB_USER"
	EnvDBName = "PROCUREFLOW_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App    AppConfig
	DB     DBConfig
	Redis  RedisConfig
	JWT    JWTConfig
	Rules  RulesConfig
	PubSub PubSubConfig
	Outbox OutboxConfig
	Cron   CronConfig
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
	Env          string `envconfig:"PROCUREFLOW_APP_ENV" required:"true"`
	Port         string `envconfig:"PROCUREFLOW_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PROCUREFLOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PROCUREFLOW_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"PROCUREFLOW_APP_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PROCUREFLOW_DB_DSN"`
	Driver string `envconfig:"PROCUREFLOW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PROCUREFLOW_DB_HOST"`
	LegacyPort     int    `envconfig:"PROCUREFLOW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PROCUREFLOW_DB_USER"`
	LegacyPassword string `envconfig:"PROCUREFLOW_DB_PASSWORD"`
	LegacyName     string `envconfig:"PROCUREFLOW_DB_NAME"`
	LegacySSLMode  string `envconfig:"PROCUREFLOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PROCUREFLOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PROCUREFLOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PROCUREFLOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PROCUREFLOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PROCUREFLOW_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"PROCUREFLOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PROCUREFLOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PROCUREFLOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PROCUREFLOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PROCUREFLOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PROCUREFLOW_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PROCUREFLOW_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PROCUREFLOW_JWT_EXPIRATION_MINUTES" default:"60"`
}

// RulesConfig seeds the business rule set applied to negotiations and
// payments. Runtime updates go through the rules service admin endpoint;
// these are only the boot-time defaults.
type RulesConfig struct {
	MaxNegotiationRounds    int     `envconfig:"PROCUREFLOW_RULES_MAX_NEGOTIATION_ROUNDS" default:"5"`
	MinDiscountPercent      float64 `envconfig:"PROCUREFLOW_RULES_MIN_DISCOUNT_PERCENT" default:"2"`
	MaxDiscountPercent      float64 `envconfig:"PROCUREFLOW_RULES_MAX_DISCOUNT_PERCENT" default:"25"`
	AutoApprovalAmount      string  `envconfig:"PROCUREFLOW_RULES_AUTO_APPROVAL_AMOUNT" default:"10000"`
	MinDownPaymentPercent   float64 `envconfig:"PROCUREFLOW_RULES_MIN_DOWN_PAYMENT_PERCENT" default:"20"`
	MaxDownPaymentPercent   float64 `envconfig:"PROCUREFLOW_RULES_MAX_DOWN_PAYMENT_PERCENT" default:"50"`
	MaxPaymentTermDays      int     `envconfig:"PROCUREFLOW_RULES_MAX_PAYMENT_TERM_DAYS" default:"90"`
	AutoDisbursementAmount  string  `envconfig:"PROCUREFLOW_RULES_AUTO_DISBURSEMENT_AMOUNT" default:"5000"`
	MinQualityRating        float64 `envconfig:"PROCUREFLOW_RULES_MIN_QUALITY_RATING" default:"3.5"`
	MinOnTimeRate           float64 `envconfig:"PROCUREFLOW_RULES_MIN_ON_TIME_RATE" default:"0.85"`
	MinCompletionRate       float64 `envconfig:"PROCUREFLOW_RULES_MIN_COMPLETION_RATE" default:"0.9"`
	MaxLeadTimeVarianceDays float64 `envconfig:"PROCUREFLOW_RULES_MAX_LEAD_TIME_VARIANCE_DAYS" default:"3"`
	CancellationCutoffStage string  `envconfig:"PROCUREFLOW_RULES_CANCELLATION_CUTOFF_STAGE" default:"in_production"`
}

type PubSubConfig struct {
	ProjectID   string `envconfig:"PROCUREFLOW_PUBSUB_PROJECT_ID"`
	EventsTopic string `envconfig:"PROCUREFLOW_PUBSUB_EVENTS_TOPIC" default:"procureflow-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PROCUREFLOW_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PROCUREFLOW_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PROCUREFLOW_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	DeadlineSweepInterval time.Duration `envconfig:"PROCUREFLOW_CRON_DEADLINE_SWEEP_INTERVAL" default:"5m"`
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
