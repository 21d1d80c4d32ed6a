package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	if cfg.ListenAddress != "0.0.0.0:44818" {
		t.Fatalf("listen address: got %q", cfg.ListenAddress)
	}
	if cfg.Identity.ProductName == "" {
		t.Fatalf("expected a default product name")
	}
}

func TestLoadMissingPathReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddress != "0.0.0.0:44818" {
		t.Fatalf("expected default listen address, got %q", cfg.ListenAddress)
	}
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.yaml")
	content := []byte(`
listen_address: "127.0.0.1:44818"
identity:
  vendor_id: 99
  product_name: "TESTPLC"
faults:
  delay: "0.1-0.5"
tags:
  - "SCADA=INT[1]"
  - "COUNTER=DINT[10]"
log_level: debug
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddress != "127.0.0.1:44818" {
		t.Fatalf("listen address: got %q", cfg.ListenAddress)
	}
	if cfg.Identity.VendorID != 99 || cfg.Identity.ProductName != "TESTPLC" {
		t.Fatalf("identity: got %+v", cfg.Identity)
	}
	if len(cfg.Tags) != 2 {
		t.Fatalf("tags: got %v", cfg.Tags)
	}
	if cfg.Faults.Delay != "0.1-0.5" {
		t.Fatalf("faults.delay: got %q", cfg.Faults.Delay)
	}
}
