package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"blogFeed/cache"
	"blogFeed/logging"
)

// ConfigFile is where LoadConfig looks for the json configuration.
const ConfigFile = ".config.json"

// envPrefix prefixes every environment variable the app reads.
const envPrefix = "BLOGFEED_"

type Config struct {
	Port    int    `json:"port"`
	Env     string `json:"env"`
	Pepper  string `json:"pepper"`
	HMACKey string `json:"hmac_key"`
	// CSRFKey must be 32 bytes long. csrf protection is off when it's empty.
	CSRFKey               string         `json:"csrf_key"`
	MediaRoot             string         `json:"media_root"`
	InvalidateFeedOnWrite bool           `json:"invalidate_feed_on_write"`
	Database              DatabaseConfig `json:"database"`
	Cache                 CacheConfig    `json:"cache"`
}

// IsProd tells whether the app runs in production.
func (c Config) IsProd() bool {
	return c.Env == "prod"
}

type DatabaseConfig struct {
	// Dialect is either "postgres" or "sqlite".
	Dialect  string `json:"dialect"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
	// Path is the database file of the sqlite dialect.
	Path string `json:"path"`
}

// ConnectionInfo returns the dsn for the configured dialect.
func (dc DatabaseConfig) ConnectionInfo() string {
	if dc.Dialect == "sqlite" {
		return fmt.Sprintf("file:%s?_foreign_keys=on", dc.Path)
	}
	if dc.Password == "" {
		return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable", dc.Host, dc.Port, dc.User, dc.Name)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", dc.Host, dc.Port, dc.User, dc.Password, dc.Name)
}

type CacheConfig struct {
	// Backend is either "memory" or "redis".
	Backend    string            `json:"backend"`
	TTLSeconds int               `json:"ttl_seconds"`
	Redis      cache.RedisConfig `json:"redis"`
}

func DefaultConfig() Config {
	return Config{
		Port:      1111,
		Env:       "dev",
		Pepper:    "secret-random-string",
		HMACKey:   "secret-hmac-key",
		MediaRoot: "media",
		Database:  DefaultDatabaseConfig(),
		Cache:     DefaultCacheConfig(),
	}
}

// DefaultDatabaseConfig is a sqlite file next to the binary, which is good
// enough for development.
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Dialect: "sqlite",
		Host:    "localhost",
		Port:    5432,
		User:    "postgres",
		Name:    "blogfeed",
		Path:    "blogfeed.db",
	}
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Backend:    "memory",
		TTLSeconds: int(cache.DefaultTTL.Seconds()),
		Redis: cache.RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
	}
}

// LoadConfig loads the .env files, then the json config at path if present,
// otherwise the default dev setup. Environment variables override single
// fields of either. If configReq is true, a missing file is an error.
func LoadConfig(path string, configReq bool) (Config, error) {
	loadDotEnvs("")

	c := DefaultConfig()
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := json.NewDecoder(f).Decode(&c); err != nil {
			return Config{}, errors.Wrapf(err, "decoding %s", path)
		}
		logging.Log.WithField("file", path).Info("successfully loaded config")
	case configReq:
		return Config{}, errors.Wrapf(err, "%s is required in production", path)
	default:
		logging.Log.WithField("file", path).Info("no config file, using the default dev setup")
	}

	if err := applyEnv(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// loadDotEnvs loads the .env files following the convention of
// https://github.com/bkeepers/dotenv. Files loaded first win, since godotenv
// never overrides variables that are already set.
func loadDotEnvs(rootPath string) {
	env := os.Getenv(envPrefix + "ENV")
	if env == "" {
		env = "dev"
	}
	// .env.[env].local has the highest priority and usually holds secrets.
	godotenv.Load(rootPath + ".env." + env + ".local")
	godotenv.Load(rootPath + ".env.local")
	// .env.[env] usually holds the database connection.
	godotenv.Load(rootPath + ".env." + env)
	// .env holds shared defaults.
	godotenv.Load(rootPath + ".env")
}

// applyEnv overrides config fields with the BLOGFEED_* environment variables that are set.
func applyEnv(c *Config) error {
	strs := map[string]*string{
		"ENV":            &c.Env,
		"PEPPER":         &c.Pepper,
		"HMAC_KEY":       &c.HMACKey,
		"CSRF_KEY":       &c.CSRFKey,
		"MEDIA_ROOT":     &c.MediaRoot,
		"DB_DIALECT":     &c.Database.Dialect,
		"DB_HOST":        &c.Database.Host,
		"DB_USER":        &c.Database.User,
		"DB_PASSWORD":    &c.Database.Password,
		"DB_NAME":        &c.Database.Name,
		"DB_PATH":        &c.Database.Path,
		"CACHE_BACKEND":  &c.Cache.Backend,
		"REDIS_HOST":     &c.Cache.Redis.Host,
		"REDIS_PASSWORD": &c.Cache.Redis.Password,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PORT":              &c.Port,
		"DB_PORT":           &c.Database.Port,
		"CACHE_TTL_SECONDS": &c.Cache.TTLSeconds,
		"REDIS_PORT":        &c.Cache.Redis.Port,
		"REDIS_DB":          &c.Cache.Redis.DB,
	}
	for name, dst := range ints {
		v, ok := os.LookupEnv(envPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "%s%s", envPrefix, name)
		}
		*dst = n
	}

	if v, ok := os.LookupEnv(envPrefix + "INVALIDATE_FEED_ON_WRITE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "%sINVALIDATE_FEED_ON_WRITE", envPrefix)
		}
		c.InvalidateFeedOnWrite = b
	}
	return nil
}
