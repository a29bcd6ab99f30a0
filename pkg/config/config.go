package config

import (
	"fmt"
	"os"

	"github.com/oarkflow/errors"
	"github.com/oarkflow/squealx"
	"github.com/oarkflow/squealx/connection"
	"gopkg.in/yaml.v3"

	"github.com/oarkflow/tabular/pkg/mapping"
)

// Database is the target connection block.
type Database struct {
	Driver       string `yaml:"driver"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	MaxIdleConns int    `yaml:"max_idle_conns,omitempty"`
	MaxOpenConns int    `yaml:"max_open_conns,omitempty"`
}

// Connect opens the configured database through squealx.
func (d Database) Connect() (*squealx.DB, error) {
	db, _, err := connection.FromConfig(squealx.Config{
		Driver:      d.Driver,
		Host:        d.Host,
		Port:        d.Port,
		Username:    d.Username,
		Password:    d.Password,
		Database:    d.Database,
		MaxIdleCons: d.MaxIdleConns,
		MaxOpenCons: d.MaxOpenConns,
	})
	if err != nil {
		return nil, fmt.Errorf("config: connect to %s: %w", d.Database, err)
	}
	return db, nil
}

// FieldMapping is one user-declared column mapping.
type FieldMapping struct {
	Target       string `yaml:"target"`
	Source       string `yaml:"source,omitempty"`
	Constant     any    `yaml:"constant,omitempty"`
	Skip         bool   `yaml:"skip,omitempty"`
	Key          bool   `yaml:"key,omitempty"`
	Format       string `yaml:"format,omitempty"`
	DecimalComma bool   `yaml:"decimal_comma,omitempty"`
}

// Rule converts the yaml declaration into a mapping rule.
func (f FieldMapping) Rule() mapping.Rule {
	kind := mapping.FromField
	if f.Skip {
		kind = mapping.Skip
	} else if f.Constant != nil {
		kind = mapping.Constant
	}
	return mapping.Rule{
		Target:       f.Target,
		Kind:         kind,
		Source:       f.Source,
		Const:        f.Constant,
		Key:          f.Key,
		Format:       f.Format,
		DecimalComma: f.DecimalComma,
	}
}

// Import describes one run.
type Import struct {
	File      string         `yaml:"file"`
	Sheet     string         `yaml:"sheet,omitempty"`
	Table     string         `yaml:"table"`
	Mode      string         `yaml:"mode"`
	ChunkSize int            `yaml:"chunk_size,omitempty"`
	Truncate  bool           `yaml:"truncate,omitempty"`
	LogFile   string         `yaml:"log_file,omitempty"`
	Mappings  []FieldMapping `yaml:"mappings"`
}

// Rules converts every field mapping declaration.
func (i Import) Rules() []mapping.Rule {
	rules := make([]mapping.Rule, len(i.Mappings))
	for n, f := range i.Mappings {
		rules[n] = f.Rule()
	}
	return rules
}

// RunMode returns the declared mode, defaulting to insert.
func (i Import) RunMode() mapping.Mode {
	if i.Mode == "" {
		return mapping.ModeInsert
	}
	return mapping.Mode(i.Mode)
}

type Config struct {
	Database Database `yaml:"database"`
	Import   Import   `yaml:"import"`
}

// Load reads and validates a yaml run configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the parts every run needs before any connection opens.
func (c *Config) Validate() error {
	if c.Database.Driver == "" {
		return errors.New("config: database.driver is required")
	}
	if c.Import.File == "" {
		return errors.New("config: import.file is required")
	}
	if c.Import.Table == "" {
		return errors.New("config: import.table is required")
	}
	if len(c.Import.Mappings) == 0 {
		return errors.New("config: import.mappings must declare at least one mapping")
	}
	switch mode := c.Import.RunMode(); mode {
	case mapping.ModeInsert, mapping.ModeUpdate:
	default:
		return errors.New(fmt.Sprintf("config: unknown import.mode %q", mode))
	}
	for _, f := range c.Import.Mappings {
		if f.Target == "" {
			return errors.New("config: every mapping needs a target column")
		}
		if !f.Skip && f.Constant == nil && f.Source == "" {
			return errors.New(fmt.Sprintf("config: mapping for %s needs a source, constant, or skip", f.Target))
		}
	}
	return nil
}
