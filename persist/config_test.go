package persist_test

import (
	"testing"
	"time"

	"github.com/strataflow/catalog/persist"
)

func TestConfigMerge(t *testing.T) {
	cfg := persist.DefaultConfig()
	cfg.Merge(&persist.Config{Path: "/var/lib/replicas", SweepSeconds: 30, Watch: true})

	if cfg.Path != "/var/lib/replicas" {
		t.Errorf("Path = %q", cfg.Path)
	}
	if cfg.SweepSeconds != 30 {
		t.Errorf("SweepSeconds = %d", cfg.SweepSeconds)
	}
	if !cfg.Watch {
		t.Error("Watch not applied")
	}

	// Zero values in the overlay leave the target untouched.
	cfg.Merge(&persist.Config{})
	if cfg.Path != "/var/lib/replicas" || cfg.SweepSeconds != 30 || !cfg.Watch {
		t.Errorf("empty merge changed config: %+v", cfg)
	}
}

func TestConfigSweepInterval(t *testing.T) {
	cfg := persist.Config{SweepSeconds: 45}
	if got := cfg.SweepInterval(); got != 45*time.Second {
		t.Errorf("SweepInterval = %v", got)
	}

	cfg = persist.Config{}
	if got := cfg.SweepInterval(); got != 0 {
		t.Errorf("SweepInterval for disabled sweeper = %v", got)
	}
}

func TestNewStore(t *testing.T) {
	store, err := persist.NewStore(&persist.Config{})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if store != nil {
		t.Error("empty path should disable persistence")
	}

	store, err = persist.NewStore(&persist.Config{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if store == nil {
		t.Fatal("configured path produced no store")
	}
}
