package source

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/de-tools/spend-atlas/pkg/services/config"
	"golang.org/x/exp/maps"
)

var ErrUnknownSource = errors.New("unknown event source")

// Factory builds a Source from its configuration block
type Factory func(cfg config.Source) (Source, error)

// Registry manages event source factories by kind
type Registry interface {
	// Register adds a new source factory
	Register(kind string, factory Factory) error
	// Create instantiates the source named by cfg.Kind
	Create(cfg config.Source) (Source, error)
	// Kinds returns the registered kinds, sorted
	Kinds() []string
}

type registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() Registry {
	return &registry{
		factories: make(map[string]Factory),
	}
}

// DefaultRegistry registers the csv, json, sql and seed kinds.
func DefaultRegistry(seed SeedOptions) Registry {
	r := NewRegistry()
	for kind, factory := range map[string]Factory{
		config.SourceCSV:  CSVFactory,
		config.SourceJSON: JSONFactory,
		config.SourceSQL:  SQLFactory,
		config.SourceSeed: SeedFactory(seed),
	} {
		if err := r.Register(kind, factory); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *registry) Register(kind string, factory Factory) error {
	if kind == "" {
		return fmt.Errorf("source kind cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("source %q is already registered", kind)
	}

	r.factories[kind] = factory
	return nil
}

func (r *registry) Create(cfg config.Source) (Source, error) {
	r.mu.RLock()
	factory, exists := r.factories[cfg.Kind]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Kind)
	}

	return factory(cfg)
}

func (r *registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := maps.Keys(r.factories)
	slices.Sort(kinds)
	return kinds
}
