package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, datadir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(datadir, FileName), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoad(t *testing.T) {
	datadir := t.TempDir()
	writeConfig(t, datadir, "genesisbenficiary=c70f4891d2ce22b1f62492605c1d5c2fc1a8ef47\ngenesistimestamp=1579861388\n")

	cfg, err := Load(datadir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GenesisBeneficiary != "c70f4891d2ce22b1f62492605c1d5c2fc1a8ef47" {
		t.Errorf("beneficiary = %s", cfg.GenesisBeneficiary)
	}
	if cfg.GenesisTimestamp != 1579861388 {
		t.Errorf("timestamp = %d", cfg.GenesisTimestamp)
	}
	if !filepath.IsAbs(cfg.DataDir) {
		t.Errorf("datadir %s is not absolute", cfg.DataDir)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadInvalidBeneficiary(t *testing.T) {
	datadir := t.TempDir()
	writeConfig(t, datadir, "genesisbenficiary=nothex\ngenesistimestamp=1\n")
	if _, err := Load(datadir); err == nil {
		t.Error("expected error for invalid beneficiary")
	}
}

func TestLoadInvalidTimestamp(t *testing.T) {
	datadir := t.TempDir()
	writeConfig(t, datadir, "genesisbenficiary=c70f4891d2ce22b1f62492605c1d5c2fc1a8ef47\ngenesistimestamp=soon\n")
	if _, err := Load(datadir); err == nil {
		t.Error("expected error for invalid timestamp")
	}
}
