package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. IMGTRANSFORM_SOURCE_BUCKET.
const EnvPrefix = "IMGTRANSFORM"

// Config is the full runtime configuration.
type Config struct {
	Server    Server    `mapstructure:"server"`
	Pipeline  Pipeline  `mapstructure:"pipeline"`
	Source    Store     `mapstructure:"source"`
	Optimized Store     `mapstructure:"optimized"`
	Writeback Writeback `mapstructure:"writeback"`
	Cache     Cache     `mapstructure:"cache"`
	Log       Log       `mapstructure:"log"`
	Metrics   Metrics   `mapstructure:"metrics"`
}

type Server struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type Pipeline struct {
	Profile        string `mapstructure:"profile"`
	ResizeStrategy string `mapstructure:"resize_strategy"` // overrides the profile when set
	DefaultQuality int    `mapstructure:"default_quality"` // overrides the profile when > 0
}

// Store selects and configures one object store backend.
type Store struct {
	Backend string `mapstructure:"backend"` // s3, gcs, sftp, local

	// s3 and gcs
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKey       string `mapstructure:"access_key"`
	SecretKey       string `mapstructure:"secret_key"`
	CredentialsFile string `mapstructure:"credentials_file"`

	// local and sftp root directory
	Dir string `mapstructure:"dir"`

	// sftp
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	PrivateKey string `mapstructure:"private_key"`
}

type Writeback struct {
	Enabled     bool          `mapstructure:"enabled"`
	Concurrency int           `mapstructure:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout"`
	QueueSize   int           `mapstructure:"queue_size"` // pending writes beyond the running ones
}

type Cache struct {
	MaxAge int `mapstructure:"max_age"` // seconds, at least 1
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

type Metrics struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

var storeKeys = []string{
	"backend", "bucket", "prefix", "region", "endpoint", "access_key", "secret_key",
	"credentials_file", "dir", "host", "port", "user", "password", "private_key",
}

// SetDefaults registers every key with its default so that environment
// overrides reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("pipeline.profile", "default")
	v.SetDefault("pipeline.resize_strategy", "")
	v.SetDefault("pipeline.default_quality", 0)

	for _, section := range []string{"source", "optimized"} {
		for _, k := range storeKeys {
			v.SetDefault(section+"."+k, "")
		}
		v.SetDefault(section+".backend", "local")
		v.SetDefault(section+".port", 22)
	}
	v.SetDefault("source.dir", "./images")
	v.SetDefault("optimized.dir", "./optimized")

	v.SetDefault("writeback.enabled", true)
	v.SetDefault("writeback.concurrency", 8)
	v.SetDefault("writeback.timeout", 30*time.Second)
	v.SetDefault("writeback.queue_size", 32)

	v.SetDefault("cache.max_age", 3600)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.path", "/metrics")
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (if non-empty) into v and decodes the result. v carries
// whatever the caller already layered on top, such as bound flags; nil
// starts from New.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = New()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return Decode(v)
}

// Decode unmarshals and validates the configuration held by v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Source.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("source: %w", err))
	}
	if err := c.Optimized.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("optimized: %w", err))
	}
	if c.Pipeline.DefaultQuality < 0 || c.Pipeline.DefaultQuality > 100 {
		errs = append(errs, fmt.Errorf("pipeline.default_quality %d outside 0-100", c.Pipeline.DefaultQuality))
	}
	if c.Writeback.Concurrency < 1 {
		errs = append(errs, errors.New("writeback.concurrency must be at least 1"))
	}
	if c.Writeback.QueueSize < 0 {
		errs = append(errs, errors.New("writeback.queue_size must not be negative"))
	}
	if c.Cache.MaxAge < 1 {
		errs = append(errs, fmt.Errorf("cache.max_age %d must be at least 1 second", c.Cache.MaxAge))
	}
	return errors.Join(errs...)
}

// Validate checks that the fields the backend needs are set.
func (s Store) Validate() error {
	switch s.Backend {
	case "s3", "gcs":
		if s.Bucket == "" {
			return fmt.Errorf("%s backend needs a bucket", s.Backend)
		}
	case "local":
		if s.Dir == "" {
			return errors.New("local backend needs a dir")
		}
	case "sftp":
		if s.Host == "" || s.User == "" {
			return errors.New("sftp backend needs host and user")
		}
		if s.Password == "" && s.PrivateKey == "" {
			return errors.New("sftp backend needs a password or private_key")
		}
	default:
		return fmt.Errorf("unknown backend %q", s.Backend)
	}
	return nil
}
