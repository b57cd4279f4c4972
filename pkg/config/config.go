// Package config loads the YAML configuration of a go-docdb server.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	BackendMemory = "memory"
	BackendDisk   = "disk"
	BackendBadger = "badger"
)

// Config is the root of the configuration file
type Config struct {
	Server      ServerConfig       `yaml:"server"`
	Log         LogConfig          `yaml:"log"`
	Storage     StorageConfig      `yaml:"storage"`
	Collections []CollectionConfig `yaml:"collections" validate:"unique=Name,dive"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" validate:"gte=1,lte=65535"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// StorageConfig selects the backend every collection is stored in.
// A badger backend without a directory runs in memory.
type StorageConfig struct {
	Backend          string        `yaml:"backend" validate:"oneof=memory disk badger"`
	Dir              string        `yaml:"dir" validate:"required_if=Backend disk"`
	SnapshotFile     string        `yaml:"snapshot_file"`
	SnapshotInterval time.Duration `yaml:"snapshot_interval" validate:"gte=0"`
	CacheSize        int           `yaml:"cache_size" validate:"gte=0"`
}

// CollectionConfig declares one collection. Path defaults to Name.
type CollectionConfig struct {
	Name    string                 `yaml:"name" validate:"required,excludesall=/"`
	Path    string                 `yaml:"path"`
	Indexes map[string]IndexConfig `yaml:"indexes" validate:"dive,keys,required,endkeys"`
}

type IndexConfig struct {
	Type            string  `yaml:"type" validate:"required,indextype"`
	Size            int     `yaml:"size" validate:"gte=0"`
	Precision       float64 `yaml:"precision" validate:"gte=0"`
	CaseInsensitive bool    `yaml:"case_insensitive"`
	Nullable        bool    `yaml:"nullable"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("indextype", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseIndexType(fl.Field().String())
		return err == nil
	})
	return v
}

// Default returns the configuration used for anything the file leaves out
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Storage: StorageConfig{
			Backend: BackendMemory,
		},
	}
}

// Load reads and validates the configuration file at path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	for i := range cfg.Collections {
		if cfg.Collections[i].Path == "" {
			cfg.Collections[i].Path = cfg.Collections[i].Name
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Collection returns the declaration of the named collection
func (c *Config) Collection(name string) (CollectionConfig, error) {
	for _, cc := range c.Collections {
		if cc.Name == name {
			return cc, nil
		}
	}
	return CollectionConfig{}, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, name)
}

// Declarations converts the index section to engine declarations
func (cc CollectionConfig) Declarations() (domain.IndexDeclarations, error) {
	decls := make(domain.IndexDeclarations, len(cc.Indexes))
	for field, ic := range cc.Indexes {
		typ, err := domain.ParseIndexType(ic.Type)
		if err != nil {
			return nil, fmt.Errorf("collection %s, field %s: %w", cc.Name, field, err)
		}
		decls[field] = domain.IndexDeclaration{
			Type:            typ,
			Size:            ic.Size,
			Precision:       ic.Precision,
			CaseInsensitive: ic.CaseInsensitive,
			Nullable:        ic.Nullable,
		}
	}
	return decls, nil
}
