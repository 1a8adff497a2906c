package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "setdec"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	EnvDBDSN  = "SETDEC_DB_DSN"
	EnvDBHost = "SETDEC_DB_HOST"
	EnvDBUser = "SETDEC_DB_USER"
	EnvDBName = "SETDEC_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Stripe        StripeConfig
	SMTP          SMTPConfig
	Uploads       UploadsConfig
	Client        ClientConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
		if cfg.DB.DSN == "" {
			cfg.DB.DSN = "setdec.db"
		}
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SETDEC_APP_ENV" required:"true"`
	Port         string `envconfig:"SETDEC_APP_PORT" default:"4000"`
	LogLevel     string `envconfig:"SETDEC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SETDEC_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SETDEC_DB_DSN"`
	Driver string `envconfig:"SETDEC_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SETDEC_DB_HOST"`
	LegacyPort     int    `envconfig:"SETDEC_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SETDEC_DB_USER"`
	LegacyPassword string `envconfig:"SETDEC_DB_PASSWORD"`
	LegacyName     string `envconfig:"SETDEC_DB_NAME"`
	LegacySSLMode  string `envconfig:"SETDEC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SETDEC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SETDEC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SETDEC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SETDEC_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SETDEC_REDIS_URL"`
	Address      string        `envconfig:"SETDEC_REDIS_ADDR"`
	Password     string        `envconfig:"SETDEC_REDIS_PASSWORD"`
	DB           int           `envconfig:"SETDEC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SETDEC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SETDEC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SETDEC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SETDEC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SETDEC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SETDEC_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SETDEC_JWT_ISSUER" default:"setdec-runner"`
	ExpirationMinutes int    `envconfig:"SETDEC_JWT_EXPIRATION_MINUTES" default:"720"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SETDEC_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SETDEC_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SETDEC_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SETDEC_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SETDEC_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SETDEC_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SETDEC_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SETDEC_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SETDEC_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SETDEC_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SETDEC_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SETDEC_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SETDEC_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey        string `envconfig:"SETDEC_STRIPE_API_KEY"`
	WebhookSecret string `envconfig:"SETDEC_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"SETDEC_STRIPE_ENV" default:"test"`
	PriceCents    int64  `envconfig:"SETDEC_STRIPE_PRICE_CENTS" default:"9900"`
	Currency      string `envconfig:"SETDEC_STRIPE_CURRENCY" default:"usd"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SMTPConfig struct {
	Host     string `envconfig:"SETDEC_SMTP_HOST"`
	Port     int    `envconfig:"SETDEC_SMTP_PORT" default:"587"`
	Username string `envconfig:"SETDEC_SMTP_USERNAME"`
	Password string `envconfig:"SETDEC_SMTP_PASSWORD"`
	From     string `envconfig:"SETDEC_SMTP_FROM"`
}

// Enabled reports whether outbound mail is configured at all.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != ""
}

type UploadsConfig struct {
	Dir         string `envconfig:"SETDEC_UPLOAD_DIR" default:"uploads"`
	PublicBase  string `envconfig:"SETDEC_UPLOAD_PUBLIC_BASE" default:"/uploads"`
	MaxUploadMB int    `envconfig:"SETDEC_MAX_UPLOAD_MB" default:"25"`
}

type ClientConfig struct {
	Origin string `envconfig:"SETDEC_CLIENT_ORIGIN" default:"http://localhost:5173"`
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
