package embedding

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Type describes one provider type defined by a module. A nil New marks a
// type that is known by name but cannot be constructed in this build.
type Type struct {
	Name        string
	Description string
	New         Factory
}

// ModuleInfo is the listing view of a registered module.
type ModuleInfo struct {
	Name  string     `json:"name"`
	Types []TypeInfo `json:"types"`
}

// TypeInfo is the listing view of a registered type.
type TypeInfo struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Constructible bool   `json:"constructible"`
}

// Registry maps module identifiers to the provider types they define.
// It is safe for concurrent use; registration normally happens at startup.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]map[string]Type
	logger  *slog.Logger
}

// NewRegistry creates an empty registry. A nil logger means slog.Default().
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		modules: make(map[string]map[string]Type),
		logger:  logger,
	}
}

func (r *Registry) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}

// Register adds types to module, creating the module on first use.
func (r *Registry) Register(module string, types ...Type) error {
	if module == "" {
		return fmt.Errorf("register: empty module name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.modules[module]
	seen := make(map[string]struct{}, len(types))
	for _, t := range types {
		if t.Name == "" {
			return fmt.Errorf("register: empty type name in module %q", module)
		}
		_, dup := m[t.Name]
		if _, again := seen[t.Name]; dup || again {
			return fmt.Errorf("register: type %q already registered in module %q", t.Name, module)
		}
		seen[t.Name] = struct{}{}
	}
	if m == nil {
		m = make(map[string]Type, len(types))
		r.modules[module] = m
	}
	for _, t := range types {
		m[t.Name] = t
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(module string, types ...Type) {
	if err := r.Register(module, types...); err != nil {
		panic(err)
	}
}

// Lookup returns the type registered under module and name.
func (r *Registry) Lookup(module, name string) (Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.modules[module][name]
	return t, ok
}

// Modules lists every registered module and type, sorted by name.
func (r *Registry) Modules() []ModuleInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ModuleInfo, 0, len(r.modules))
	for name, types := range r.modules {
		mi := ModuleInfo{Name: name, Types: make([]TypeInfo, 0, len(types))}
		for _, t := range types {
			mi.Types = append(mi.Types, TypeInfo{
				Name:          t.Name,
				Description:   t.Description,
				Constructible: t.New != nil,
			})
		}
		sort.Slice(mi.Types, func(i, j int) bool { return mi.Types[i].Name < mi.Types[j].Name })
		out = append(out, mi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

var defaultRegistry = NewRegistry(nil)

// Default returns the process-wide registry that provider packages register
// themselves into from init.
func Default() *Registry { return defaultRegistry }

// Register adds types to module in the default registry. It panics on error,
// so a bad registration fails at startup.
func Register(module string, types ...Type) {
	defaultRegistry.MustRegister(module, types...)
}
