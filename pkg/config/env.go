package config

// EnvPrefix is passed to envconfig. Individual fields carry fully qualified
// names, so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv             = "FITPLAY_APP_ENV"
	EnvPort               = "FITPLAY_APP_PORT"
	EnvDBDSN              = "FITPLAY_DB_DSN"
	EnvDBHost             = "FITPLAY_DB_HOST"
	EnvDBUser             = "FITPLAY_DB_USER"
	EnvDBName             = "FITPLAY_DB_NAME"
	EnvRedisURL           = "FITPLAY_REDIS_URL"
	EnvJWTSecret          = "FITPLAY_JWT_SECRET"
	EnvJWTIssuer          = "FITPLAY_JWT_ISSUER"
	EnvJWTExpMins         = "FITPLAY_JWT_EXPIRATION_MINUTES"
	EnvGCPProjectID       = "FITPLAY_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic  = "FITPLAY_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub    = "FITPLAY_PUBSUB_ORDERS_SUBSCRIPTION"
	EnvPubSubNotifSub     = "FITPLAY_PUBSUB_NOTIFICATION_SUBSCRIPTION"
	EnvPubSubFulfillSub   = "FITPLAY_PUBSUB_FULFILLMENT_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
