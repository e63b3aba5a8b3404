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
	HTTP          HTTPConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Session       SessionConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Payments      PaymentsConfig
	MercadoPago   MercadoPagoConfig
	Square        SquareConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Payments.validate(cfg.MercadoPago, cfg.Square); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env           string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port          string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel      string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat     string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack  bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	PublicBaseURL string `envconfig:"STOREFRONT_PUBLIC_BASE_URL" default:"http://localhost:8080"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type HTTPConfig struct {
	ReadTimeout     time.Duration `envconfig:"STOREFRONT_HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"STOREFRONT_HTTP_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"STOREFRONT_HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	AllowedOrigins  []string      `envconfig:"STOREFRONT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// NormalizedDriver lowercases the configured driver and falls back to postgres.
func (db DBConfig) NormalizedDriver() string {
	driver := strings.ToLower(strings.TrimSpace(db.Driver))
	if driver == "" {
		return DBDriverPostgres
	}
	return driver
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOREFRONT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STOREFRONT_JWT_EXPIRATION_MINUTES" required:"true"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// SessionConfig controls the browser-facing session cookie and the
// lifetime of session-held state (session marker, cart).
type SessionConfig struct {
	TTL          time.Duration `envconfig:"STOREFRONT_SESSION_TTL" default:"24h"`
	CookieName   string        `envconfig:"STOREFRONT_SESSION_COOKIE_NAME" default:"sf_session"`
	CookieSecure bool          `envconfig:"STOREFRONT_SESSION_COOKIE_SECURE" default:"false"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STOREFRONT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STOREFRONT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STOREFRONT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STOREFRONT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STOREFRONT_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow           time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit    int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit          int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow        time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterUsernameLimit int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_REGISTER_USERNAME_LIMIT" default:"3"`
	RegisterIPLimit       int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

type PaymentsConfig struct {
	Provider string        `envconfig:"STOREFRONT_PAYMENTS_PROVIDER" default:"mercadopago"`
	Timeout  time.Duration `envconfig:"STOREFRONT_PAYMENTS_TIMEOUT" default:"10s"`
	Verify   bool          `envconfig:"STOREFRONT_PAYMENTS_VERIFY" default:"false"`
}

// NormalizedProvider lowercases the configured provider.
func (p PaymentsConfig) NormalizedProvider() string {
	provider := strings.ToLower(strings.TrimSpace(p.Provider))
	if provider == "" {
		return PaymentProviderMercadoPago
	}
	return provider
}

func (p PaymentsConfig) validate(mp MercadoPagoConfig, sq SquareConfig) error {
	switch p.NormalizedProvider() {
	case PaymentProviderMercadoPago:
		if strings.TrimSpace(mp.AccessToken) == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvMercadoPagoAccessToken, EnvPaymentsProvider, PaymentProviderMercadoPago)
		}
	case PaymentProviderSquare:
		missing := []string{}
		if strings.TrimSpace(sq.AccessToken) == "" {
			missing = append(missing, EnvSquareAccessToken)
		}
		if strings.TrimSpace(sq.LocationID) == "" {
			missing = append(missing, EnvSquareLocationID)
		}
		if len(missing) > 0 {
			return fmt.Errorf("%s required when %s=%s", strings.Join(missing, ", "), EnvPaymentsProvider, PaymentProviderSquare)
		}
	default:
		return fmt.Errorf("%s must be %q or %q", EnvPaymentsProvider, PaymentProviderMercadoPago, PaymentProviderSquare)
	}
	return nil
}

type MercadoPagoConfig struct {
	AccessToken string `envconfig:"STOREFRONT_MERCADOPAGO_ACCESS_TOKEN"`
	PublicKey   string `envconfig:"STOREFRONT_MERCADOPAGO_PUBLIC_KEY"`
	Sandbox     bool   `envconfig:"STOREFRONT_MERCADOPAGO_SANDBOX" default:"true"`
	CurrencyID  string `envconfig:"STOREFRONT_MERCADOPAGO_CURRENCY" default:"ARS"`
}

type SquareConfig struct {
	AccessToken string `envconfig:"STOREFRONT_SQUARE_ACCESS_TOKEN"`
	Env         string `envconfig:"STOREFRONT_SQUARE_ENV" default:"sandbox"`
	LocationID  string `envconfig:"STOREFRONT_SQUARE_LOCATION_ID"`
	Currency    string `envconfig:"STOREFRONT_SQUARE_CURRENCY" default:"USD"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	driver := db.NormalizedDriver()
	if driver == DBDriverSQLite {
		db.DSN = DefaultSQLiteDSN
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

	switch driver {
	case DBDriverMySQL:
		db.DSN = db.mysqlDSN()
	case DBDriverPostgres:
		db.DSN = db.postgresDSN()
	default:
		return fmt.Errorf("%s must be one of %s, %s, %s", EnvDBDriver, DBDriverPostgres, DBDriverMySQL, DBDriverSQLite)
	}
	return nil
}

func (db *DBConfig) postgresDSN() string {
	port := db.LegacyPort
	if port == 0 {
		port = 5432
	}
	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, port),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (db *DBConfig) mysqlDSN() string {
	port := db.LegacyPort
	if port == 0 {
		port = 3306
	}
	creds := db.LegacyUser
	if db.LegacyPassword != "" {
		creds = creds + ":" + db.LegacyPassword
	}
	return fmt.Sprintf("%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC", creds, db.LegacyHost, port, db.LegacyName)
}
