package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("driver = %q, want %q", cfg.Database.Driver, DriverSQLite)
	}
	if cfg.Database.DSN != defaultDSN {
		t.Errorf("dsn = %q, want %q", cfg.Database.DSN, defaultDSN)
	}
	if cfg.Ingest.Workers != defaultWorkers {
		t.Errorf("workers = %d, want %d", cfg.Ingest.Workers, defaultWorkers)
	}
	if cfg.Ingest.AttachProvenance {
		t.Error("attach_provenance should default to false")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Log.Level)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
database:
  driver: postgres
  dsn: postgres://quiz@localhost:5432/quiz
  password: secret
  debug: true
ingest:
  workers: 8
  attach_provenance: true
  pdf_row_breaks: true
  max_document_bytes: 1048576
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.Driver != DriverPostgres || cfg.Database.Password != "secret" || !cfg.Database.Debug {
		t.Errorf("unexpected database config: %+v", cfg.Database)
	}
	if cfg.Ingest.Workers != 8 || !cfg.Ingest.AttachProvenance || !cfg.Ingest.PDFRowBreaks {
		t.Errorf("unexpected ingest config: %+v", cfg.Ingest)
	}
	if cfg.Ingest.MaxDocumentBytes != 1<<20 {
		t.Errorf("max_document_bytes = %d", cfg.Ingest.MaxDocumentBytes)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestLoadConfigPartialAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ingest:\n  attach_provenance: true\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Ingest.Workers != defaultWorkers {
		t.Errorf("workers = %d, want default %d", cfg.Ingest.Workers, defaultWorkers)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
