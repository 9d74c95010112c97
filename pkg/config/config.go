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
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Archive       ArchiveConfig
	Retention     RetentionConfig
	EasyParcel    EasyParcelConfig
	Telegram      TelegramConfig
	Mailer        MailerConfig
	Cache         CacheConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Media         MediaConfig
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
	Env          string `envconfig:"ECOMJRM_APP_ENV" required:"true"`
	Port         string `envconfig:"ECOMJRM_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ECOMJRM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ECOMJRM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ECOMJRM_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ECOMJRM_DB_DSN"`
	Driver string `envconfig:"ECOMJRM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ECOMJRM_DB_HOST"`
	LegacyPort     int    `envconfig:"ECOMJRM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ECOMJRM_DB_USER"`
	LegacyPassword string `envconfig:"ECOMJRM_DB_PASSWORD"`
	LegacyName     string `envconfig:"ECOMJRM_DB_NAME"`
	LegacySSLMode  string `envconfig:"ECOMJRM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ECOMJRM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ECOMJRM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ECOMJRM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ECOMJRM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ECOMJRM_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ECOMJRM_REDIS_ADDR"`
	Password     string        `envconfig:"ECOMJRM_REDIS_PASSWORD"`
	DB           int           `envconfig:"ECOMJRM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ECOMJRM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ECOMJRM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ECOMJRM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ECOMJRM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ECOMJRM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ECOMJRM_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ECOMJRM_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"ECOMJRM_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"ECOMJRM_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ECOMJRM_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ECOMJRM_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ECOMJRM_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ECOMJRM_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ECOMJRM_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"ECOMJRM_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"ECOMJRM_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"ECOMJRM_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ECOMJRM_AUTO_MIGRATE" default:"false"`
}

// ArchiveConfig controls chat session archiving thresholds. The values are
// injected into the archive manager at construction so tests can vary them.
type ArchiveConfig struct {
	DefaultRetentionDays    int `envconfig:"ECOMJRM_ARCHIVE_DEFAULT_RETENTION_DAYS" default:"365"`
	BatchSize               int `envconfig:"ECOMJRM_ARCHIVE_BATCH_SIZE" default:"100"`
	MaxBatchIDs             int `envconfig:"ECOMJRM_ARCHIVE_MAX_BATCH_IDS" default:"1000"`
	AutoArchiveInactiveDays int `envconfig:"ECOMJRM_ARCHIVE_AUTO_INACTIVE_DAYS" default:"90"`
	AutoArchiveLimit        int `envconfig:"ECOMJRM_ARCHIVE_AUTO_LIMIT" default:"1000"`
	PurgeLimit              int `envconfig:"ECOMJRM_ARCHIVE_PURGE_LIMIT" default:"100"`
}

type RetentionConfig struct {
	CronInterval time.Duration `envconfig:"ECOMJRM_RETENTION_CRON_INTERVAL" default:"24h"`
	AuditLogDays int           `envconfig:"ECOMJRM_RETENTION_AUDIT_LOG_DAYS" default:"180"`
}

type EasyParcelConfig struct {
	APIKey  string        `envconfig:"ECOMJRM_EASYPARCEL_API_KEY"`
	Env     string        `envconfig:"ECOMJRM_EASYPARCEL_ENV" default:"demo"`
	Timeout time.Duration `envconfig:"ECOMJRM_EASYPARCEL_TIMEOUT" default:"30s"`
}

// Environment returns the normalized EasyParcel environment (demo/live).
func (e EasyParcelConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(e.Env))
	if env == "" {
		return "demo"
	}
	return env
}

type TelegramConfig struct {
	BotToken string        `envconfig:"ECOMJRM_TELEGRAM_BOT_TOKEN"`
	Timeout  time.Duration `envconfig:"ECOMJRM_TELEGRAM_TIMEOUT" default:"30s"`
}

type MailerConfig struct {
	APIKey      string        `envconfig:"ECOMJRM_SENDGRID_API_KEY"`
	DefaultFrom string        `envconfig:"ECOMJRM_SENDGRID_FROM_EMAIL"`
	Timeout     time.Duration `envconfig:"ECOMJRM_MAILER_TIMEOUT" default:"30s"`
}

type CacheConfig struct {
	ProductTTL time.Duration `envconfig:"ECOMJRM_CACHE_PRODUCT_TTL" default:"5m"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ECOMJRM_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"ECOMJRM_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ECOMJRM_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"ECOMJRM_GCS_BUCKET_NAME"`
	UploadURLExpiry   time.Duration `envconfig:"ECOMJRM_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
	DownloadURLExpiry time.Duration `envconfig:"ECOMJRM_GCS_DOWNLOAD_URL_EXPIRY" default:"1h"`
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"ECOMJRM_MAX_UPLOAD_MB" default:"10"`
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
