package adapter

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Registration tells the registry how to build an adapter and which
// database descriptors route to it.
type Registration struct {
	// Name is the adapter type, as used in core.AdapterConfig.Type.
	Name string
	// Factory builds an unopened adapter. A nil logger discards output.
	Factory func(*slog.Logger) Adapter
	// URLSchemes route scheme://... descriptors to this adapter; the whole
	// descriptor becomes the DSN.
	URLSchemes []string
	// FileBacked routes name:<path> and name://<path> descriptors to this
	// adapter.
	FileBacked bool
	// HandlesPaths routes bare paths and :memory: to this adapter. Only one
	// adapter may claim them.
	HandlesPaths bool
}

var (
	registryMu  sync.RWMutex
	registry    = make(map[string]Registration)
	schemes     = make(map[string]string)
	pathAdapter string
)

// Register adds an adapter to the registry. Adapter packages call it from
// init. Registering a name again replaces the earlier registration; a URL
// scheme or bare-path routing claimed by another adapter panics.
func Register(r Registration) {
	if r.Name == "" || r.Factory == nil {
		panic("adapter: Register needs a name and a factory")
	}
	name := strings.ToLower(r.Name)

	registryMu.Lock()
	defer registryMu.Unlock()

	for _, s := range r.URLSchemes {
		s = strings.ToLower(s)
		if owner, ok := schemes[s]; ok && owner != name {
			panic(fmt.Sprintf("adapter: scheme %q already routes to %q", s, owner))
		}
	}
	if r.HandlesPaths && pathAdapter != "" && pathAdapter != name {
		panic(fmt.Sprintf("adapter: bare paths already route to %q", pathAdapter))
	}

	if prev, ok := registry[name]; ok {
		for _, s := range prev.URLSchemes {
			delete(schemes, strings.ToLower(s))
		}
		if pathAdapter == name {
			pathAdapter = ""
		}
	}
	for _, s := range r.URLSchemes {
		schemes[strings.ToLower(s)] = name
	}
	if r.HandlesPaths {
		pathAdapter = name
	}
	r.Name = name
	registry[name] = r
}

// Get returns the registration for an adapter type.
func Get(name string) (Registration, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	r, ok := registry[strings.ToLower(name)]
	return r, ok
}

// NewAdapter creates an unopened adapter for cfg.Type.
func NewAdapter(cfg core.AdapterConfig, logger *slog.Logger) (Adapter, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("adapter type not specified")
	}
	r, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{Type: cfg.Type, Available: ListAdapters()}
	}
	return r.Factory(logger), nil
}

// ListAdapters returns the registered adapter types, sorted.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return adapterNames()
}

// IsRegistered reports whether an adapter type is registered.
func IsRegistered(name string) bool {
	_, ok := Get(name)
	return ok
}

// route resolves a descriptor prefix. scheme is set for scheme://rest
// descriptors and prefix for name:rest ones; both empty means a bare path.
func route(scheme, prefix string) (typ string, url bool, err error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	switch {
	case scheme != "":
		if owner, ok := schemes[scheme]; ok {
			return owner, true, nil
		}
		if r, ok := registry[scheme]; ok && r.FileBacked {
			return r.Name, false, nil
		}
		return "", false, &UnknownAdapterError{Type: scheme, Available: adapterNames()}
	case prefix != "":
		if r, ok := registry[prefix]; ok && r.FileBacked {
			return r.Name, false, nil
		}
		return "", false, nil
	default:
		if pathAdapter == "" {
			return "", false, &UnknownAdapterError{Type: "file path", Available: adapterNames()}
		}
		return pathAdapter, false, nil
	}
}

// adapterNames lists registered names. Callers hold registryMu.
func adapterNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownAdapterError is returned when no registered adapter accepts a
// descriptor or adapter type.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	available := "none"
	if len(e.Available) > 0 {
		available = strings.Join(e.Available, ", ")
	}
	return fmt.Sprintf("no adapter registered for %q (registered: %s); check the database descriptor or import the adapter package, e.g. _ \"github.com/leapstack-labs/leapdb/pkg/adapters/postgres\"", e.Type, available)
}
