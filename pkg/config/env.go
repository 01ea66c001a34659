package config

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv        = "STOREFRONT_APP_ENV"
	EnvPort          = "STOREFRONT_APP_PORT"
	EnvDBDSN         = "STOREFRONT_DB_DSN"
	EnvDBHost        = "STOREFRONT_DB_HOST"
	EnvDBUser        = "STOREFRONT_DB_USER"
	EnvDBName        = "STOREFRONT_DB_NAME"
	EnvRedisURL      = "STOREFRONT_REDIS_URL"
	EnvJWTSecret     = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer     = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins    = "STOREFRONT_JWT_EXPIRATION_MINUTES"
	EnvGatewayKey    = "STOREFRONT_GATEWAY_API_KEY"
	EnvGatewaySecret = "STOREFRONT_GATEWAY_WEBHOOK_SECRET"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
