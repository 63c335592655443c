package agent

import (
	"sort"
	"sync"

	"github.com/hupe1980/agenthive/core"
)

// RegistryOptions holds configuration overrides for NewRegistry.
type RegistryOptions struct {
	// KnownCapabilities restricts the tool names runtime definitions may
	// reference. Empty means any name is accepted as-is.
	KnownCapabilities []string
}

// Registry is a thread-safe collection of agent configurations. It holds both
// pre-registered agents (added in code via Register) and dynamically defined
// agents (added through the define action at runtime). Agents live for the
// lifetime of the registry instance; there is no persistence.
type Registry struct {
	agents map[string]*Config
	known  map[string]struct{}
	mu     sync.RWMutex
}

// NewRegistry creates an empty registry with optional overrides.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{}

	for _, fn := range optFns {
		fn(&opts)
	}

	var known map[string]struct{}
	if len(opts.KnownCapabilities) > 0 {
		known = make(map[string]struct{}, len(opts.KnownCapabilities))
		for _, name := range opts.KnownCapabilities {
			known[name] = struct{}{}
		}
	}

	return &Registry{
		agents: make(map[string]*Config),
		known:  known,
	}
}

// Register adds a pre-built configuration. The config has already been
// validated by NewConfig, so only uniqueness is checked here.
func (r *Registry) Register(cfg *Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.agents[cfg.Name()]; ok {
		return core.NewError(core.CodeAgentAlreadyExists, "Agent already registered: %q", cfg.Name())
	}

	r.agents[cfg.Name()] = cfg

	return nil
}

// Definition carries the fields of a runtime define request. MaxSteps zero
// means DefaultMaxSteps.
type Definition struct {
	Name         string
	Description  string
	Instructions string
	Capabilities []string
	Model        string
	MaxSteps     int
}

// Define validates a runtime definition and registers the resulting config.
//
// Validation order matters for the error the model sees: name, then
// instructions size, then capability references, then uniqueness. When a
// known-capability list is configured, referencing a name outside it fails
// with INVALID_TOOL; without a list any capability name passes through and
// unknown names are simply ignored by the runner later.
func (r *Registry) Define(def Definition) (*Config, error) {
	cfg, err := NewConfig(def.Name, def.Description, def.Instructions, func(o *ConfigOptions) {
		o.Capabilities = def.Capabilities
		o.Model = def.Model
		o.MaxSteps = def.MaxSteps
	})
	if err != nil {
		return nil, err
	}

	if len(r.known) > 0 {
		for _, c := range cfg.Capabilities() {
			if _, ok := r.known[c]; !ok {
				return nil, core.NewError(core.CodeInvalidTool, "Tool not in application registry: %q", c)
			}
		}
	}

	if err := r.Register(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Get returns the configuration for name.
func (r *Registry) Get(name string) (*Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.agents[name]
	if !ok {
		return nil, core.NewError(core.CodeAgentNotFound, "Unknown agent: %q", name)
	}

	return cfg, nil
}

// List returns a snapshot of all configurations sorted by name.
func (r *Registry) List() []*Config {
	r.mu.RLock()
	configs := make([]*Config, 0, len(r.agents))
	for _, cfg := range r.agents {
		configs = append(configs, cfg)
	}
	r.mu.RUnlock()

	sort.Slice(configs, func(i, j int) bool { return configs[i].name < configs[j].name })

	return configs
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.agents)
}
