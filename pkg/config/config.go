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
	Lock         LockConfig
	FeatureFlags FeatureFlagsConfig
	Vault        VaultConfig
	Square       SquareConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Audit        AuditConfig
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
	Env          string `envconfig:"SWITCHBOARD_APP_ENV" required:"true"`
	Port         string `envconfig:"SWITCHBOARD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SWITCHBOARD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SWITCHBOARD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SWITCHBOARD_DB_DSN"`
	Driver string `envconfig:"SWITCHBOARD_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SWITCHBOARD_DB_HOST"`
	Port     int    `envconfig:"SWITCHBOARD_DB_PORT" default:"5432"`
	User     string `envconfig:"SWITCHBOARD_DB_USER"`
	Password string `envconfig:"SWITCHBOARD_DB_PASSWORD"`
	Name     string `envconfig:"SWITCHBOARD_DB_NAME"`
	SSLMode  string `envconfig:"SWITCHBOARD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SWITCHBOARD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SWITCHBOARD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SWITCHBOARD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SWITCHBOARD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SWITCHBOARD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SWITCHBOARD_REDIS_ADDR"`
	Password     string        `envconfig:"SWITCHBOARD_REDIS_PASSWORD"`
	DB           int           `envconfig:"SWITCHBOARD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SWITCHBOARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SWITCHBOARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SWITCHBOARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SWITCHBOARD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SWITCHBOARD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// LockConfig bounds payment-level lock acquisition. AcquireTimeout is
// mandatory; there is no unbounded blocking on a contended payment.
type LockConfig struct {
	TTL            time.Duration `envconfig:"SWITCHBOARD_LOCK_TTL" default:"3m"`
	AcquireTimeout time.Duration `envconfig:"SWITCHBOARD_LOCK_ACQUIRE_TIMEOUT" default:"2s"`
	RetryInterval  time.Duration `envconfig:"SWITCHBOARD_LOCK_RETRY_INTERVAL" default:"100ms"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SWITCHBOARD_AUTO_MIGRATE" default:"false"`
	// ResponseSchemaV2 selects the second response shape at startup instead of
	// per-request negotiation.
	ResponseSchemaV2 bool `envconfig:"SWITCHBOARD_RESPONSE_SCHEMA_V2" default:"false"`
}

type VaultConfig struct {
	BaseURL        string        `envconfig:"SWITCHBOARD_VAULT_BASE_URL"`
	SigningKey     string        `envconfig:"SWITCHBOARD_VAULT_SIGNING_KEY"`
	RequestTimeout time.Duration `envconfig:"SWITCHBOARD_VAULT_REQUEST_TIMEOUT" default:"10s"`
}

type SquareConfig struct {
	AccessToken string `envconfig:"SWITCHBOARD_SQUARE_ACCESS_TOKEN"`
	Env         string `envconfig:"SWITCHBOARD_SQUARE_ENV" default:"sandbox"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SWITCHBOARD_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SWITCHBOARD_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SWITCHBOARD_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	AuditTopic        string `envconfig:"SWITCHBOARD_PUBSUB_AUDIT_TOPIC" default:"swb-audit-events"`
	AuditSubscription string `envconfig:"SWITCHBOARD_PUBSUB_AUDIT_SUBSCRIPTION"`
}

type AuditConfig struct {
	BatchSize      int `envconfig:"SWITCHBOARD_AUDIT_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SWITCHBOARD_AUDIT_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SWITCHBOARD_AUDIT_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
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
