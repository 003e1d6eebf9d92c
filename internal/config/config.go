package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Log      LogConfig      `yaml:"log"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // sqlite or postgres
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password" json:"-"`
	Debug    bool   `yaml:"debug"`
}

type IngestConfig struct {
	Workers          int   `yaml:"workers"`
	AttachProvenance bool  `yaml:"attach_provenance"`
	PDFRowBreaks     bool  `yaml:"pdf_row_breaks"`
	MaxDocumentBytes int64 `yaml:"max_document_bytes"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultWorkers  = 4
	defaultDSN      = "file:quiz.db"
	defaultLogLevel = "info"
)

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.DSN == "" && c.Database.Driver == DriverSQLite {
		c.Database.DSN = defaultDSN
	}
	if c.Ingest.Workers <= 0 {
		c.Ingest.Workers = defaultWorkers
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
}
