package persist

import "time"

// Config holds persistence store initialization parameters.
type Config struct {
	Path         string `json:"path,omitempty"`          // FileStore root directory; empty disables persistence.
	SweepSeconds int    `json:"sweep_seconds,omitempty"` // background sweep interval; 0 disables the sweeper.
	Watch        bool   `json:"watch,omitempty"`         // index externally written replica files.
}

// DefaultConfig returns the default persistence configuration (disabled).
func DefaultConfig() Config {
	return Config{}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Path != "" {
		c.Path = source.Path
	}
	if source.SweepSeconds > 0 {
		c.SweepSeconds = source.SweepSeconds
	}
	if source.Watch {
		c.Watch = true
	}
}

// SweepInterval returns the configured sweep interval, or zero when the
// sweeper is disabled.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepSeconds) * time.Second
}

// NewStore creates a FileStore from configuration. Returns nil when Path
// is empty, indicating persistence is disabled.
func NewStore(cfg *Config, opts ...StoreOption) (*FileStore, error) {
	if cfg.Path == "" {
		return nil, nil
	}
	return NewFileStore(cfg.Path, opts...)
}
