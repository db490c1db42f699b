// Package config loads tfreconcile settings from defaults, an optional
// tfreconcile.yaml, a .env file, TFRECONCILE_* environment variables and
// command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/picklr-io/tfreconcile/internal/engine"
	"github.com/picklr-io/tfreconcile/internal/logging"
	"github.com/picklr-io/tfreconcile/internal/state"
)

// EnvPrefix is prepended to every environment variable, e.g.
// TFRECONCILE_STATE_FILE or TFRECONCILE_BACKEND_S3_BUCKET.
const EnvPrefix = "TFRECONCILE"

// FileName is the config file looked up when none is given.
const FileName = "tfreconcile"

// Config holds all configuration for the application.
type Config struct {
	// StateFile is the live state, relative to the backend root.
	StateFile string `mapstructure:"state_file" default:"terraform.tfstate" validate:"required"`
	// BackupFile defaults to StateFile + state.BackupSuffix.
	BackupFile string `mapstructure:"backup_file" default:""`
	// InventoryFile is the CSV inventory on the local filesystem.
	InventoryFile string `mapstructure:"inventory_file" default:"csv/inventory.csv" validate:"required"`

	Log     logging.Config      `mapstructure:"log"`
	Backend state.BackendConfig `mapstructure:"backend"`
	Engine  engine.Options      `mapstructure:"engine"`
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"state":      "state_file",
	"backup":     "backup_file",
	"inventory":  "inventory_file",
	"log-level":  "log.level",
	"log-format": "log.format",
	"backend":    "backend.type",
}

var validate = validator.New()

// Load reads the configuration. file is an explicit config file and may be
// empty, in which case tfreconcile.yaml is looked up in dir. flags may be nil.
func Load(dir, file string, flags *pflag.FlagSet) (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	v := viper.New()
	bindValues(v, Config{}, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Backend.Type == "s3" && c.Backend.S3.Bucket == "" {
		return fmt.Errorf("invalid configuration: backend.s3.bucket is required for the s3 backend")
	}
	return nil
}

// bindValues walks the struct and registers every key with its default so
// AutomaticEnv can resolve it.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// always set, even when empty, to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
