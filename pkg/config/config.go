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
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Fleet         FleetConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Fleet.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SILL_APP_ENV" required:"true"`
	Port         string `envconfig:"SILL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SILL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SILL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SILL_DB_DSN"`
	Driver string `envconfig:"SILL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SILL_DB_HOST"`
	LegacyPort     int    `envconfig:"SILL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SILL_DB_USER"`
	LegacyPassword string `envconfig:"SILL_DB_PASSWORD"`
	LegacyName     string `envconfig:"SILL_DB_NAME"`
	LegacySSLMode  string `envconfig:"SILL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SILL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SILL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SILL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SILL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SILL_REDIS_URL" required:"true"`
	Password     string        `envconfig:"SILL_REDIS_PASSWORD"`
	DB           int           `envconfig:"SILL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SILL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SILL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SILL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SILL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SILL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SILL_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SILL_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SILL_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"SILL_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SILL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SILL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SILL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SILL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SILL_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SILL_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"SILL_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SILL_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SILL_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SILL_AUTO_MIGRATE" default:"false"`
}

// FleetConfig holds tire lifecycle tunables.
type FleetConfig struct {
	MaxTireLives        int    `envconfig:"SILL_FLEET_MAX_TIRE_LIVES" default:"4"`
	DefaultNewTirePrice string `envconfig:"SILL_FLEET_DEFAULT_NEW_TIRE_PRICE" default:"1500000"`
	MinTreadDepthMM     string `envconfig:"SILL_FLEET_MIN_TREAD_DEPTH_MM" default:"3.0"`
}

func (f FleetConfig) validate() error {
	if f.MaxTireLives < 1 {
		return fmt.Errorf("%s must be at least 1", EnvFleetMaxTireLives)
	}
	return nil
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
