package catalog

import (
	"context"
	"fmt"

	"github.com/strataflow/catalog/params"
	"github.com/strataflow/catalog/source"
)

// LocalEntryConfig holds the declarative definition of a local entry.
type LocalEntryConfig struct {
	Name         string
	Description  string
	Driver       string
	DirectAccess string
	Args         map[string]any
	Parameters   []params.Parameter
	Metadata     map[string]any
	// GetEnv and GetShell govern whether external parameter resolvers may
	// read the process environment or run shell commands when expanding
	// defaults. They are carried through to describe output; nothing in
	// this package performs the expansion.
	GetEnv   bool
	GetShell bool
}

// LocalEntry is a concrete Entry defined on the local system: a driver
// name plus base arguments, declared user parameters, and metadata.
type LocalEntry struct {
	name         string
	description  string
	driver       string
	directAccess DirectAccess
	args         map[string]any
	parameters   []params.Parameter
	metadata     map[string]any
	getEnv       bool
	getShell     bool
}

// NewLocalEntry validates the config and creates a LocalEntry. The driver
// does not have to be registered yet; resolution happens on describe/get.
func NewLocalEntry(cfg LocalEntryConfig) (*LocalEntry, error) {
	if cfg.Name == "" {
		return nil, ErrEmptyEntryName
	}
	if cfg.Driver == "" {
		return nil, fmt.Errorf("entry %s: %w", cfg.Name, source.ErrEmptyDriverName)
	}
	da, err := ParseDirectAccess(cfg.DirectAccess)
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", cfg.Name, err)
	}

	return &LocalEntry{
		name:         cfg.Name,
		description:  cfg.Description,
		driver:       cfg.Driver,
		directAccess: da,
		args:         cfg.Args,
		parameters:   cfg.Parameters,
		metadata:     cfg.Metadata,
		getEnv:       cfg.GetEnv,
		getShell:     cfg.GetShell,
	}, nil
}

func (e *LocalEntry) Name() string { return e.name }

// Metadata returns the entry's catalog metadata.
func (e *LocalEntry) Metadata() map[string]any { return e.metadata }

// GetEnv reports whether parameter resolvers may read the environment.
func (e *LocalEntry) GetEnv() bool { return e.getEnv }

// GetShell reports whether parameter resolvers may run shell commands.
func (e *LocalEntry) GetShell() bool { return e.getShell }

func (e *LocalEntry) Describe() (Description, error) {
	drv, err := source.Lookup(e.driver)
	if err != nil {
		return Description{}, fmt.Errorf("describe %s: %w", e.name, err)
	}

	specs := make([]params.Spec, 0, len(e.parameters))
	for _, p := range e.parameters {
		specs = append(specs, p.Describe())
	}

	return Description{
		Name:           e.name,
		Container:      drv.Container(),
		Description:    e.description,
		DirectAccess:   e.directAccess,
		UserParameters: specs,
	}, nil
}

func (e *LocalEntry) DescribeOpen(userParams map[string]any) (OpenDescription, error) {
	drv, err := source.Lookup(e.driver)
	if err != nil {
		return OpenDescription{}, fmt.Errorf("describe open %s: %w", e.name, err)
	}

	args, err := e.buildOpenArgs(userParams)
	if err != nil {
		return OpenDescription{}, err
	}

	return OpenDescription{
		Driver:       e.driver,
		Container:    drv.Container(),
		Description:  e.description,
		DirectAccess: e.directAccess,
		Metadata:     e.metadata,
		Args:         args,
	}, nil
}

// Get builds the live data source by resolving the declared parameters
// against the supplied values and opening the driver. The persistence
// store is never consulted here.
func (e *LocalEntry) Get(ctx context.Context, userParams map[string]any) (source.DataSource, error) {
	drv, err := source.Lookup(e.driver)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", e.name, err)
	}

	args, err := e.buildOpenArgs(userParams)
	if err != nil {
		return nil, err
	}

	ds, err := drv.Open(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", e.name, err)
	}
	return ds, nil
}

// buildOpenArgs merges resolved user parameters over the entry's base
// arguments. User parameters win on key collisions.
func (e *LocalEntry) buildOpenArgs(userParams map[string]any) (map[string]any, error) {
	resolved, err := params.Resolve(e.parameters, userParams)
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", e.name, err)
	}

	args := make(map[string]any, len(e.args)+len(resolved))
	for k, v := range e.args {
		args[k] = v
	}
	for k, v := range resolved {
		args[k] = v
	}
	return args, nil
}
