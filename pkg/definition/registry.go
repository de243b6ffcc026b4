package definition

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Resolver looks up a definition by identifier. Implementations return a
// *NotFoundError for unknown identifiers.
type Resolver interface {
	Resolve(ctx context.Context, id string) (Definition, error)
}

// ResolverFunc adapts a function into a Resolver.
type ResolverFunc func(ctx context.Context, id string) (Definition, error)

// Resolve calls the underlying function.
func (fn ResolverFunc) Resolve(ctx context.Context, id string) (Definition, error) {
	return fn(ctx, id)
}

// Lister is implemented by resolvers that can enumerate their identifiers.
type Lister interface {
	IDs() []string
}

// Registry stores definitions by id. Registration is guarded so a registry
// can be populated from several loaders; definitions themselves are never
// mutated after registration.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]Definition
}

var (
	_ Resolver = (*Registry)(nil)
	_ Lister   = (*Registry)(nil)
)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[string]Definition)}
}

// Register adds a definition under id. Duplicate ids return an error.
func (r *Registry) Register(id string, def Definition) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return errors.New("definition: id is required")
	}
	if def == nil {
		return fmt.Errorf("definition: %q has no definition", trimmed)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.definitions == nil {
		r.definitions = make(map[string]Definition)
	}
	if _, exists := r.definitions[trimmed]; exists {
		return fmt.Errorf("definition: %q already registered", trimmed)
	}
	r.definitions[trimmed] = def
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(id string, def Definition) {
	if err := r.Register(id, def); err != nil {
		panic(err)
	}
}

// Resolve implements Resolver.
func (r *Registry) Resolve(ctx context.Context, id string) (Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, &NotFoundError{ID: id}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.definitions[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return def, nil
}

// IDs returns the registered identifiers sorted alphabetically.
func (r *Registry) IDs() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.definitions))
	for id := range r.definitions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len reports the number of registered definitions.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.definitions)
}

// Merge registers every definition of other into r.
func (r *Registry) Merge(other *Registry) error {
	if other == nil {
		return nil
	}
	for _, id := range other.IDs() {
		def, err := other.Resolve(context.Background(), id)
		if err != nil {
			return err
		}
		if err := r.Register(id, def); err != nil {
			return err
		}
	}
	return nil
}

// Chain resolves against each resolver in order, moving on only when a
// resolver reports the id as not found.
type Chain []Resolver

var (
	_ Resolver = Chain(nil)
	_ Lister   = Chain(nil)
)

// Resolve implements Resolver.
func (c Chain) Resolve(ctx context.Context, id string) (Definition, error) {
	for _, resolver := range c {
		if resolver == nil {
			continue
		}
		def, err := resolver.Resolve(ctx, id)
		if err == nil {
			return def, nil
		}
		if !IsNotFound(err) {
			return nil, err
		}
	}
	return nil, &NotFoundError{ID: id}
}

// IDs returns the union of the ids of every listable resolver.
func (c Chain) IDs() []string {
	seen := make(map[string]struct{})
	for _, resolver := range c {
		lister, ok := resolver.(Lister)
		if !ok {
			continue
		}
		for _, id := range lister.IDs() {
			seen[id] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
