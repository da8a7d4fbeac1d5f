package config

// EnvPrefix is the envconfig prefix shared by every service binary.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                 = "ARTMARKET_APP_ENV"
	EnvPort                   = "ARTMARKET_APP_PORT"
	EnvDBDSN                  = "ARTMARKET_DB_DSN"
	EnvDBHost                 = "ARTMARKET_DB_HOST"
	EnvDBUser                 = "ARTMARKET_DB_USER"
	EnvDBName                 = "ARTMARKET_DB_NAME"
	EnvRedisURL               = "ARTMARKET_REDIS_URL"
	EnvJWTSecret              = "ARTMARKET_JWT_SECRET"
	EnvJWTIssuer              = "ARTMARKET_JWT_ISSUER"
	EnvJWTExpMins             = "ARTMARKET_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "ARTMARKET_REFRESH_TOKEN_TTL_MINUTES"
	EnvGCPProjectID           = "ARTMARKET_GCP_PROJECT_ID"
	EnvGCSBucket              = "ARTMARKET_GCS_BUCKET_NAME"
	EnvGCSUploadExpiry        = "ARTMARKET_GCS_UPLOAD_URL_EXPIRY"
	EnvGCSDownloadExpiry      = "ARTMARKET_GCS_DOWNLOAD_URL_EXPIRY"
	EnvPubSubDomainTopic      = "ARTMARKET_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubDomainSub        = "ARTMARKET_PUBSUB_DOMAIN_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
