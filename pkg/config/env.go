package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv       = "STOREFRONT_APP_ENV"
	EnvPort         = "STOREFRONT_APP_PORT"
	EnvLogLevel     = "STOREFRONT_LOG_LEVEL"
	EnvPublicURL    = "STOREFRONT_PUBLIC_BASE_URL"
	EnvDBDSN        = "STOREFRONT_DB_DSN"
	EnvDBDriver     = "STOREFRONT_DB_DRIVER"
	EnvDBHost       = "STOREFRONT_DB_HOST"
	EnvDBPort       = "STOREFRONT_DB_PORT"
	EnvDBUser       = "STOREFRONT_DB_USER"
	EnvDBPassword   = "STOREFRONT_DB_PASSWORD"
	EnvDBName       = "STOREFRONT_DB_NAME"
	EnvUseSQLite    = "STOREFRONT_USE_SQLITE"
	EnvAutoMigrate  = "STOREFRONT_AUTO_MIGRATE"
	EnvRedisURL     = "STOREFRONT_REDIS_URL"
	EnvJWTSecret    = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer    = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins   = "STOREFRONT_JWT_EXPIRATION_MINUTES"
	EnvSessionTTL   = "STOREFRONT_SESSION_TTL"
	EnvCORSOrigins  = "STOREFRONT_CORS_ALLOWED_ORIGINS"
	EnvHTTPShutdown = "STOREFRONT_HTTP_SHUTDOWN_TIMEOUT"

	EnvPaymentsProvider       = "STOREFRONT_PAYMENTS_PROVIDER"
	EnvPaymentsTimeout        = "STOREFRONT_PAYMENTS_TIMEOUT"
	EnvPaymentsVerify         = "STOREFRONT_PAYMENTS_VERIFY"
	EnvMercadoPagoAccessToken = "STOREFRONT_MERCADOPAGO_ACCESS_TOKEN"
	EnvMercadoPagoPublicKey   = "STOREFRONT_MERCADOPAGO_PUBLIC_KEY"
	EnvSquareAccessToken      = "STOREFRONT_SQUARE_ACCESS_TOKEN"
	EnvSquareLocationID       = "STOREFRONT_SQUARE_LOCATION_ID"

	DBDriverPostgres = "postgres"
	DBDriverMySQL    = "mysql"
	DBDriverSQLite   = "sqlite"

	DefaultSQLiteDSN = "file:storefront.db?cache=shared&_busy_timeout=5000"

	PaymentProviderMercadoPago = "mercadopago"
	PaymentProviderSquare      = "square"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
