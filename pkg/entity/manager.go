package entity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-typedwidget/pkg/widget"
)

// Entity is a transient, unsaved instance created to seed a default form.
type Entity struct {
	ID     uuid.UUID
	TypeID string
	Values map[string]any
}

// Value returns the instantiation value stored under key.
func (e *Entity) Value(key string) (any, bool) {
	if e == nil || e.Values == nil {
		return nil, false
	}
	value, ok := e.Values[key]
	return value, ok
}

// FormHandler builds the default form for an instantiated entity.
type FormHandler interface {
	BuildForm(ctx context.Context, e *Entity) (widget.Spec, error)
}

// FormHandlerFunc adapts a function into a FormHandler.
type FormHandlerFunc func(ctx context.Context, e *Entity) (widget.Spec, error)

// BuildForm calls the underlying function.
func (fn FormHandlerFunc) BuildForm(ctx context.Context, e *Entity) (widget.Spec, error) {
	return fn(ctx, e)
}

// Type registers an entity type with the host. Keys, when set, lists the
// value keys accepted at instantiation. Form may be nil for types without a
// default form handler.
type Type struct {
	ID    string
	Label string
	Keys  []string
	Form  FormHandler
}

// ErrUnknownType is returned when instantiating an unregistered type.
var ErrUnknownType = errors.New("entity: unknown type")

// InstantiationError reports values a type refused to accept.
type InstantiationError struct {
	TypeID string
	Keys   []string
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("entity: %s does not accept values %s", e.TypeID, strings.Join(e.Keys, ", "))
}

// Manager is an in-process host registry of entity types. It implements
// FormDelegate.
type Manager struct {
	mu    sync.RWMutex
	types map[string]Type
	newID func() uuid.UUID
}

var _ FormDelegate = (*Manager)(nil)

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		types: make(map[string]Type),
		newID: uuid.New,
	}
}

// Register adds an entity type. Duplicate ids return an error.
func (m *Manager) Register(t Type) error {
	id := strings.TrimSpace(t.ID)
	if id == "" {
		return errors.New("entity: type id is required")
	}
	t.ID = id
	t.Keys = append([]string(nil), t.Keys...)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.types[id]; exists {
		return fmt.Errorf("entity: type %q already registered", id)
	}
	m.types[id] = t
	return nil
}

// MustRegister panics on registration failure.
func (m *Manager) MustRegister(t Type) {
	if err := m.Register(t); err != nil {
		panic(err)
	}
}

// Type returns the registered type for id.
func (m *Manager) Type(id string) (Type, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.types[id]
	return t, ok
}

// Create instantiates a transient entity of type typeID from values.
func (m *Manager) Create(typeID string, values map[string]any) (*Entity, error) {
	t, ok := m.Type(typeID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typeID)
	}
	if rejected := rejectedKeys(t.Keys, values); len(rejected) > 0 {
		return nil, &InstantiationError{TypeID: t.ID, Keys: rejected}
	}
	return &Entity{
		ID:     m.newID(),
		TypeID: t.ID,
		Values: MergeValues(nil, values),
	}, nil
}

// BuildDefaultForm implements FormDelegate. Every failure wraps
// ErrUnavailable.
func (m *Manager) BuildDefaultForm(ctx context.Context, entityTypeID string, values map[string]any) (widget.Spec, error) {
	if err := ctx.Err(); err != nil {
		return widget.Spec{}, err
	}
	t, ok := m.Type(entityTypeID)
	if !ok {
		return widget.Spec{}, fmt.Errorf("%w: type %q is not registered", ErrUnavailable, entityTypeID)
	}
	if t.Form == nil {
		return widget.Spec{}, fmt.Errorf("%w: type %q has no default form handler", ErrUnavailable, entityTypeID)
	}
	e, err := m.Create(entityTypeID, values)
	if err != nil {
		return widget.Spec{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	spec, err := t.Form.BuildForm(ctx, e)
	if err != nil {
		return widget.Spec{}, fmt.Errorf("%w: build form for %q: %w", ErrUnavailable, entityTypeID, err)
	}
	return spec, nil
}

func rejectedKeys(allowed []string, values map[string]any) []string {
	if len(allowed) == 0 || len(values) == 0 {
		return nil
	}
	accepted := make(map[string]struct{}, len(allowed))
	for _, key := range allowed {
		accepted[key] = struct{}{}
	}
	var rejected []string
	for key := range values {
		if _, ok := accepted[key]; !ok {
			rejected = append(rejected, key)
		}
	}
	sort.Strings(rejected)
	return rejected
}
