package artifact

import (
	"fmt"
	"reflect"
	"sync"
)

// Registry maps Go data types and format names to formats. When several
// formats are registered for the same type, the last registration wins.
type Registry struct {
	mu     sync.RWMutex
	byType map[reflect.Type]Format
	byName map[string]Format
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[reflect.Type]Format),
		byName: make(map[string]Format),
	}
}

// Register adds a format, optionally binding it to the types of the given
// sample values.
func (r *Registry) Register(f Format, samples ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[f.Name()] = f
	for _, sample := range samples {
		r.byType[reflect.TypeOf(sample)] = f
	}
}

// ForName returns the format registered under the given name.
func (r *Registry) ForName(name string) (Format, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: no format named %q", ErrFormatNotFound, name)
	}
	return f, nil
}

// ForData returns the format registered for the dynamic type of data.
func (r *Registry) ForData(data any) (Format, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.byType[reflect.TypeOf(data)]
	if !ok {
		return nil, fmt.Errorf("%w: no format for data of type %T", ErrFormatNotFound, data)
	}
	return f, nil
}

// defaultRegistry holds the bundled formats.
var defaultRegistry = func() *Registry {
	r := NewRegistry()
	r.Register(JSONDocument{}, Document{})
	r.Register(CSVTable{}, Table{})
	r.Register(Raw{}, []byte(nil))
	return r
}()

// DefaultRegistry returns the registry with the bundled formats
// registered.
func DefaultRegistry() *Registry { return defaultRegistry }
