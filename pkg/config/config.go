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
	Eventing      EventingConfig
	Paystack      PaystackConfig
	Shipping      ShippingConfig
	Sendgrid      SendgridConfig
	SMS           SMSConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Media         MediaConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"ARTMARKET_APP_ENV" required:"true"`
	Port         string `envconfig:"ARTMARKET_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ARTMARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ARTMARKET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ARTMARKET_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ARTMARKET_DB_DSN"`
	Driver string `envconfig:"ARTMARKET_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ARTMARKET_DB_HOST"`
	LegacyPort     int    `envconfig:"ARTMARKET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ARTMARKET_DB_USER"`
	LegacyPassword string `envconfig:"ARTMARKET_DB_PASSWORD"`
	LegacyName     string `envconfig:"ARTMARKET_DB_NAME"`
	LegacySSLMode  string `envconfig:"ARTMARKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ARTMARKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ARTMARKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ARTMARKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ARTMARKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ARTMARKET_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ARTMARKET_REDIS_ADDR"`
	Password     string        `envconfig:"ARTMARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"ARTMARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ARTMARKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ARTMARKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ARTMARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ARTMARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ARTMARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ARTMARKET_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ARTMARKET_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"ARTMARKET_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"ARTMARKET_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ARTMARKET_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ARTMARKET_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ARTMARKET_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ARTMARKET_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ARTMARKET_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"ARTMARKET_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"ARTMARKET_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"ARTMARKET_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"ARTMARKET_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"ARTMARKET_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"ARTMARKET_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate   bool   `envconfig:"ARTMARKET_AUTO_MIGRATE" default:"false"`
	GCSAccessMode string `envconfig:"ARTMARKET_GCS_ACCESS_MODE" default:"public"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"ARTMARKET_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type PaystackConfig struct {
	SecretKey   string `envconfig:"ARTMARKET_PAYSTACK_SECRET_KEY"`
	BaseURL     string `envconfig:"ARTMARKET_PAYSTACK_BASE_URL"`
	CallbackURL string `envconfig:"ARTMARKET_PAYSTACK_CALLBACK_URL"`
}

type ShippingConfig struct {
	APIKey        string `envconfig:"ARTMARKET_SHIPPING_API_KEY"`
	BaseURL       string `envconfig:"ARTMARKET_SHIPPING_BASE_URL"`
	OriginCity    string `envconfig:"ARTMARKET_SHIPPING_ORIGIN_CITY" default:"Lagos"`
	OriginCountry string `envconfig:"ARTMARKET_SHIPPING_ORIGIN_COUNTRY" default:"NG"`
	OriginZip     string `envconfig:"ARTMARKET_SHIPPING_ORIGIN_ZIP" default:"100001"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"ARTMARKET_SENDGRID_API_KEY"`
	BaseURL     string `envconfig:"ARTMARKET_SENDGRID_BASE_URL"`
	DefaultFrom string `envconfig:"ARTMARKET_SENDGRID_FROM_EMAIL"`
}

type SMSConfig struct {
	APIKey  string `envconfig:"ARTMARKET_SMS_API_KEY"`
	BaseURL string `envconfig:"ARTMARKET_SMS_BASE_URL"`
	Sender  string `envconfig:"ARTMARKET_SMS_SENDER" default:"ArtMarket"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ARTMARKET_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"ARTMARKET_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ARTMARKET_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"ARTMARKET_GCS_BUCKET_NAME" required:"true"`
	UploadURLExpiry   time.Duration `envconfig:"ARTMARKET_GCS_UPLOAD_URL_EXPIRY" required:"true"`
	DownloadURLExpiry time.Duration `envconfig:"ARTMARKET_GCS_DOWNLOAD_URL_EXPIRY" required:"true"`
}

type MediaConfig struct {
	MaxUploadMB    int `envconfig:"ARTMARKET_MAX_UPLOAD_MB" default:"200"`
	ImageMaxWidth  int `envconfig:"ARTMARKET_MEDIA_IMAGE_MAX_WIDTH" default:"1920"`
	ImageMaxHeight int `envconfig:"ARTMARKET_MEDIA_IMAGE_MAX_HEIGHT" default:"1080"`
	ImageQuality   int `envconfig:"ARTMARKET_MEDIA_IMAGE_QUALITY" default:"80"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"ARTMARKET_PUBSUB_DOMAIN_TOPIC" required:"true"`
	DomainSubscription string `envconfig:"ARTMARKET_PUBSUB_DOMAIN_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ARTMARKET_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ARTMARKET_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ARTMARKET_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
