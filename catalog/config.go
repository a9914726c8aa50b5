package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/strataflow/catalog/observability"
	"github.com/strataflow/catalog/persist"
)

// Config holds catalog initialization parameters. The persistence section
// delegates to that subsystem's config-driven constructor.
type Config struct {
	Name     string         `json:"name,omitempty"`
	Mode     string         `json:"mode,omitempty"`     // default persistence mode: default, always, never
	Observer string         `json:"observer,omitempty"` // named observer from the observability registry
	NoEnv    bool           `json:"no_env,omitempty"`   // forbid parameter resolvers from reading the environment
	NoShell  bool           `json:"no_shell,omitempty"` // forbid parameter resolvers from running shell commands
	Persist  persist.Config `json:"persist"`
}

// DefaultConfig returns a Config with sensible defaults: mode "default",
// slog observer, environment and shell expansion permitted, persistence
// disabled.
func DefaultConfig() Config {
	return Config{
		Name:     "catalog",
		Mode:     persist.ModeDefault.String(),
		Observer: "slog",
		Persist:  persist.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Name != "" {
		c.Name = source.Name
	}
	if source.Mode != "" {
		c.Mode = source.Mode
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
	if source.NoEnv {
		c.NoEnv = true
	}
	if source.NoShell {
		c.NoShell = true
	}
	c.Persist.Merge(&source.Persist)
}

// LoadConfig reads a JSON config file, merges it with defaults, and
// returns the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}

// FromConfig creates a Catalog from configuration. The persistence store
// and observer are initialized from their config sections; functional
// options applied afterwards can override either for testing.
func FromConfig(cfg *Config, opts ...Option) (*Catalog, error) {
	mode, err := persist.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}

	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return nil, err
	}

	store, err := persist.NewStore(&cfg.Persist, persist.WithObserver(observer))
	if err != nil {
		return nil, fmt.Errorf("failed to create persistence store: %w", err)
	}

	base := []Option{
		WithCatalogMode(mode),
		WithCatalogObserver(observer),
	}
	if store != nil {
		base = append(base, WithCatalogStore(store))
	}

	return New(cfg.Name, append(base, opts...)...), nil
}
