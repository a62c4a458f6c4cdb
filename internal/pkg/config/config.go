package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET, default=dev-secret-change-me"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Session SessionConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type SessionConfig struct {
	// Delay simulates network latency on login and register.
	Delay        time.Duration `env:"SESSION_DELAY,          default=0s"`
	DemoPassword string        `env:"SESSION_DEMO_PASSWORD,  default=password123"`
	BcryptCost   int           `env:"SESSION_BCRYPT_COST,    default=10"`
	TokenTTL     time.Duration `env:"SESSION_TOKEN_TTL,      default=24h"`
	QueueBuffer  int           `env:"SESSION_QUEUE_BUFFER,   default=64"`

	CatalogBackend string        `env:"CATALOG_BACKEND, default=memory"`
	SlotBackend    string        `env:"SLOT_BACKEND,    default=memory"`
	SlotKey        string        `env:"SLOT_KEY,        default=servimarket:session:current"`
	SlotTTL        time.Duration `env:"SLOT_TTL,        default=0s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=servimarket"`
	// Seed inserts any demo account missing from the catalog.
	Seed     bool   `env:"MONGO_SEED, default=true"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through the given lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Session.CatalogBackend {
	case BackendMemory, BackendMongo:
	default:
		return fmt.Errorf("config: unknown CATALOG_BACKEND %q", c.Session.CatalogBackend)
	}
	switch c.Session.SlotBackend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("config: unknown SLOT_BACKEND %q", c.Session.SlotBackend)
	}
	if c.Session.Delay < 0 {
		return fmt.Errorf("config: SESSION_DELAY must not be negative")
	}
	return nil
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
