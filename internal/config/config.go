package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/nimasrn/admissions-inbox/pkg/logger"
	"github.com/nimasrn/admissions-inbox/pkg/pg"
	"github.com/pkg/errors"
)

const ConfigTagName = "env"
const ConfigDefaultTagName = "default"

var config *Config

// Config holds every setting of the api, dispatcher and cli binaries.
// Nothing else in the module reads the environment directly.
type Config struct {
	AppEnv              string `env:"APP_ENV,default=dev"`
	AppName             string `env:"APP_NAME,default=admissions_inbox"`
	AppDebug            bool   `env:"APP_DEBUG,default=false"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI,default=/metrics"`

	HttpListenAddr            string        `env:"HTTP_LISTEN_ADDR,default=:8080"`
	HttpServerReadTimeout     int           `env:"HTTP_SERVER_READ_TIMEOUT"`
	HttpServerWriteTimeout    int           `env:"HTTP_SERVER_WRITE_TIMEOUT"`
	HttpServerReadBufferSize  int           `env:"HTTP_SERVER_READ_BUFFER_SIZE"`
	HttpServerWriteBufferSize int           `env:"HTTP_SERVER_WRITE_BUFFER_SIZE"`
	HttpRequestTimeout        time.Duration `env:"HTTP_REQUEST_TIMEOUT,default=5s"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`
	PostgresSSLMode       string `env:"POSTGRES_SSLMODE,default=disable"`
	PostgresMaxOpenConns  int    `env:"POSTGRES_MAX_OPEN_CONNS,default=20"`
	PostgresMaxIdleConns  int    `env:"POSTGRES_MAX_IDLE_CONNS,default=5"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX,default=inbox:"`

	PromNamespace string `env:"PROM_NAMESPACE,default=admissions_inbox"`

	LogLevel string `env:"LOG_LEVEL"`

	MigrationsDir string `env:"MIGRATIONS_DIR,default=migrations"`

	DispatchInterval    time.Duration `env:"DISPATCH_INTERVAL,default=30s"`
	DispatchBatchLimit  int           `env:"DISPATCH_BATCH_LIMIT,default=50"`
	DispatchMaxAttempts int           `env:"DISPATCH_MAX_ATTEMPTS,default=3"`
	DispatchConcurrency int           `env:"DISPATCH_CONCURRENCY,default=4"`
	DispatchClaimTTL    time.Duration `env:"DISPATCH_CLAIM_TTL,default=2m"`
	DispatchSendTimeout time.Duration `env:"DISPATCH_SEND_TIMEOUT,default=10s"`
	DispatchLeaseTTL    time.Duration `env:"DISPATCH_LEASE_TTL,default=5m"`

	GatewayURL     string        `env:"GATEWAY_URL"`
	GatewayToken   string        `env:"GATEWAY_TOKEN"`
	GatewayTimeout time.Duration `env:"GATEWAY_TIMEOUT,default=10s"`
	GatewayRate    float64       `env:"GATEWAY_RATE,default=20"`
	GatewayBurst   int           `env:"GATEWAY_BURST,default=5"`

	AuthCacheTTL time.Duration `env:"AUTH_CACHE_TTL,default=1m"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.New("failed to load configuration file " + path + " error: " + err.Error())
		}
	}

	_, err = env.UnmarshalFromEnviron(c)

	if err != nil {
		return errors.New("failed to map env variables to Configuration object " + " error: " + err.Error())
	}

	if err = c.validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	if c.LogLevel != "" {
		logger.SetLevel(c.LogLevel)
	}

	config = c
	return nil
}

func (c *Config) validate() error {
	if c.DispatchBatchLimit <= 0 {
		return errors.Errorf("DISPATCH_BATCH_LIMIT must be positive, got %d", c.DispatchBatchLimit)
	}
	if c.DispatchMaxAttempts <= 0 {
		return errors.Errorf("DISPATCH_MAX_ATTEMPTS must be positive, got %d", c.DispatchMaxAttempts)
	}
	if c.DispatchConcurrency <= 0 {
		return errors.Errorf("DISPATCH_CONCURRENCY must be positive, got %d", c.DispatchConcurrency)
	}
	if c.DispatchClaimTTL <= c.DispatchSendTimeout {
		return errors.Errorf("DISPATCH_CLAIM_TTL (%s) must exceed DISPATCH_SEND_TIMEOUT (%s)", c.DispatchClaimTTL, c.DispatchSendTimeout)
	}
	return nil
}

func (c *Config) PostgresRead() pg.Config {
	return pg.Config{
		User:         c.PostgresReadUser,
		Host:         c.PostgresReadHost,
		Port:         c.PostgresReadPort,
		Password:     c.PostgresReadPassword,
		Database:     c.PostgresReadDatabase,
		SSLMode:      c.PostgresSSLMode,
		MaxOpenConns: c.PostgresMaxOpenConns,
		MaxIdleConns: c.PostgresMaxIdleConns,
	}
}

func (c *Config) PostgresWrite() pg.Config {
	return pg.Config{
		User:         c.PostgresWriteUser,
		Host:         c.PostgresWriteHost,
		Port:         c.PostgresWritePort,
		Password:     c.PostgresWritePassword,
		Database:     c.PostgresWriteDatabase,
		SSLMode:      c.PostgresSSLMode,
		MaxOpenConns: c.PostgresMaxOpenConns,
		MaxIdleConns: c.PostgresMaxIdleConns,
	}
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}

// Set replaces the loaded configuration. Tests use it to avoid the environment.
func Set(c *Config) {
	config = c
}
