package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Timesteps.BaseTick <= 0 {
		t.Error("base_tick should be positive")
	}
	if cfg.Timesteps.End <= 0 {
		t.Error("end tick should be positive")
	}
	if cfg.Timesteps.Coupl <= 0 || cfg.Timesteps.Motion <= 0 || cfg.Timesteps.Micro <= 0 || cfg.Timesteps.Obs <= 0 {
		t.Error("every timestep interval should be a positive multiple of the base tick")
	}
	if cfg.Physics.Collisions.Kernel == "" {
		t.Error("expected a default collision kernel")
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	contents := "seed: 42\ntimesteps:\n  end: 500\nphysics:\n  collisions:\n    kernel: long\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Seed != 42 {
		t.Errorf("seed = %d, want 42", cfg.Seed)
	}
	if cfg.Timesteps.End != 500 {
		t.Errorf("timesteps.end = %d, want 500", cfg.Timesteps.End)
	}
	if cfg.Physics.Collisions.Kernel != "long" {
		t.Errorf("kernel = %q, want long", cfg.Physics.Collisions.Kernel)
	}
	// fields absent from the override file should keep their default.
	if cfg.Physics.Condensation.SubDt != DefaultCondensationSubDt {
		t.Errorf("condensation sub_dt = %v, want default %v", cfg.Physics.Condensation.SubDt, DefaultCondensationSubDt)
	}
}

func TestLoadMissingFileReturnsConfigError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roundtrip.yaml")

	cfg := DefaultConfig()
	cfg.Seed = 99
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.Seed != 99 {
		t.Errorf("seed = %d, want 99", loaded.Seed)
	}
}
