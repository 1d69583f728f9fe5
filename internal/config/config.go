// Package config loads ruleflow settings from a YAML file and RULEFLOW_*
// environment variables. Command-line flags are applied on top by the CLI.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/ruleflow/internal/logging"
	"github.com/aretw0/ruleflow/pkg/persistence/middleware"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RULEFLOW_"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

type Config struct {
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Catalog CatalogConfig `mapstructure:"catalog" yaml:"catalog"`
	Drafts  DraftsConfig  `mapstructure:"drafts" yaml:"drafts"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type StoreConfig struct {
	Backend       string      `mapstructure:"backend" yaml:"backend"`
	Path          string      `mapstructure:"path" yaml:"path"`
	Format        string      `mapstructure:"format" yaml:"format"`
	Redis         RedisConfig `mapstructure:"redis" yaml:"redis"`
	EncryptionKey string      `mapstructure:"encryption_key" yaml:"encryption_key"`
	// FallbackKeys are older base64 keys still accepted for decryption.
	FallbackKeys []string `mapstructure:"fallback_keys" yaml:"fallback_keys"`
	// Redact lists regular expressions matched against sample-fact and config keys.
	Redact []string `mapstructure:"redact" yaml:"redact"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

type CatalogConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

type DraftsConfig struct {
	LockTTL time.Duration `mapstructure:"lock_ttl" yaml:"lock_ttl"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: string(logging.FormatText)},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
		},
		Store: StoreConfig{
			Backend: BackendMemory,
			Path:    ".ruleflow/flows",
			Format:  "json",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "ruleflow:flow:",
			},
		},
		Drafts: DraftsConfig{LockTTL: 30 * time.Second},
	}
}

// Load reads path (optional) and then applies environment overrides from os.LookupEnv.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := cfg.merge(data); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults without consulting the environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.merge(data); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) merge(data []byte) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	return c.decode(raw)
}

func (c *Config) decode(raw map[string]any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           c,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

// envKeys maps environment variables (without prefix) to dotted config keys.
var envKeys = map[string]string{
	"LOG_LEVEL":               "log.level",
	"LOG_FORMAT":              "log.format",
	"SERVER_ADDR":             "server.addr",
	"SERVER_SHUTDOWN_TIMEOUT": "server.shutdown_timeout",
	"STORE_BACKEND":           "store.backend",
	"STORE_PATH":              "store.path",
	"STORE_FORMAT":            "store.format",
	"STORE_REDIS_ADDR":        "store.redis.addr",
	"STORE_REDIS_PASSWORD":    "store.redis.password",
	"STORE_REDIS_DB":          "store.redis.db",
	"STORE_REDIS_PREFIX":      "store.redis.prefix",
	"STORE_REDIS_TTL":         "store.redis.ttl",
	"STORE_ENCRYPTION_KEY":    "store.encryption_key",
	"STORE_FALLBACK_KEYS":     "store.fallback_keys",
	"STORE_REDACT":            "store.redact",
	"CATALOG_DIR":             "catalog.dir",
	"DRAFTS_LOCK_TTL":         "drafts.lock_ttl",
}

// ApplyEnv overrides settings from RULEFLOW_* variables found by lookup.
// List values are comma separated.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	raw := map[string]any{}
	for env, key := range envKeys {
		if v, ok := lookup(EnvPrefix + env); ok {
			Set(raw, key, v)
		}
	}
	if len(raw) == 0 {
		return nil
	}
	if err := c.decode(raw); err != nil {
		return fmt.Errorf("invalid %s environment: %w", EnvPrefix, err)
	}
	return nil
}

// Override applies dotted key/value pairs, e.g. from command-line flags.
func (c *Config) Override(values map[string]any) error {
	raw := map[string]any{}
	for k, v := range values {
		Set(raw, k, v)
	}
	return c.decode(raw)
}

// Set writes value at a dotted path inside a nested map.
func Set(raw map[string]any, key string, value any) {
	parts := strings.Split(key, ".")
	m := raw
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

// Validate checks enumerations, keys and patterns.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return err
	}
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("unknown store backend %q (want memory, file or redis)", c.Store.Backend)
	}
	switch c.Store.Format {
	case "", "json", "yaml":
	default:
		return fmt.Errorf("unknown store format %q (want json or yaml)", c.Store.Format)
	}
	if c.Store.EncryptionKey != "" {
		if _, err := middleware.ParseKey(c.Store.EncryptionKey); err != nil {
			return fmt.Errorf("store.encryption_key: %w", err)
		}
	}
	for i, k := range c.Store.FallbackKeys {
		if _, err := middleware.ParseKey(k); err != nil {
			return fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
	}
	if _, err := middleware.CompilePatterns(c.Store.Redact); err != nil {
		return fmt.Errorf("store.redact: %w", err)
	}
	if c.Server.ShutdownTimeout < 0 || c.Drafts.LockTTL < 0 || c.Store.Redis.TTL < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}
