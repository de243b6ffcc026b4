package definition

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Capability tags describe behaviour of a primitive data type.
type Capability string

const (
	CapabilityDateTime Capability = "DateTime"
	CapabilityInteger  Capability = "Integer"
	CapabilityFloat    Capability = "Float"
	CapabilityDuration Capability = "Duration"
)

// Capabilities is a set of capability tags.
type Capabilities []Capability

// NewCapabilities returns a sorted, de-duplicated capability set.
func NewCapabilities(tags ...Capability) Capabilities {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[Capability]struct{}, len(tags))
	out := make(Capabilities, 0, len(tags))
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	if len(out) == 0 {
		return nil
	}
	return out
}

// Has reports whether tag is part of the set.
func (c Capabilities) Has(tag Capability) bool {
	for _, item := range c {
		if item == tag {
			return true
		}
	}
	return false
}

// Union returns a new set containing the tags of c and other.
func (c Capabilities) Union(other Capabilities) Capabilities {
	merged := make([]Capability, 0, len(c)+len(other))
	merged = append(merged, c...)
	merged = append(merged, other...)
	return NewCapabilities(merged...)
}

// Built-in primitive data type identifiers.
const (
	DataTypeString    = "string"
	DataTypeEmail     = "email"
	DataTypeURI       = "uri"
	DataTypeBoolean   = "boolean"
	DataTypeInteger   = "integer"
	DataTypeFloat     = "float"
	DataTypeDateTime  = "datetime_iso8601"
	DataTypeTimestamp = "timestamp"
	DataTypeDuration  = "duration_iso8601"
	DataTypeTimeSpan  = "timespan"
)

// DataType describes a primitive type and the capabilities its values have.
type DataType struct {
	ID           string
	Capabilities Capabilities
}

// TypeTable holds primitive type descriptors. The zero value is empty; use
// NewTypeTable for one seeded with the built-in descriptors.
type TypeTable struct {
	mu    sync.RWMutex
	types map[string]DataType
}

// NewTypeTable returns a table seeded with the built-in descriptors.
func NewTypeTable() *TypeTable {
	table := &TypeTable{types: make(map[string]DataType)}
	for _, dt := range builtinTypes() {
		table.types[dt.ID] = dt
	}
	return table
}

func builtinTypes() []DataType {
	return []DataType{
		{ID: DataTypeString},
		{ID: DataTypeEmail},
		{ID: DataTypeURI},
		{ID: DataTypeBoolean},
		{ID: DataTypeInteger, Capabilities: NewCapabilities(CapabilityInteger)},
		{ID: DataTypeFloat, Capabilities: NewCapabilities(CapabilityFloat)},
		{ID: DataTypeDateTime, Capabilities: NewCapabilities(CapabilityDateTime)},
		{ID: DataTypeTimestamp, Capabilities: NewCapabilities(CapabilityDateTime, CapabilityInteger)},
		{ID: DataTypeDuration, Capabilities: NewCapabilities(CapabilityDuration)},
		{ID: DataTypeTimeSpan, Capabilities: NewCapabilities(CapabilityInteger, CapabilityDuration)},
	}
}

// Register adds or replaces a descriptor.
func (t *TypeTable) Register(dt DataType) error {
	id := strings.TrimSpace(dt.ID)
	if id == "" {
		return fmt.Errorf("definition: data type id is required")
	}
	dt.ID = id
	dt.Capabilities = NewCapabilities(dt.Capabilities...)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.types == nil {
		t.types = make(map[string]DataType)
	}
	t.types[id] = dt
	return nil
}

// Lookup returns the descriptor for id.
func (t *TypeTable) Lookup(id string) (DataType, bool) {
	if t == nil {
		return DataType{}, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	dt, ok := t.types[id]
	return dt, ok
}

// Primitive creates a primitive definition for dataType with the descriptor's
// capabilities attached. Unknown data types get no capabilities.
func (t *TypeTable) Primitive(dataType string) Primitive {
	prim := Primitive{DataType: dataType}
	if dt, ok := t.Lookup(dataType); ok {
		prim.Capabilities = append(Capabilities(nil), dt.Capabilities...)
	}
	return prim
}

var defaultTypes = NewTypeTable()

// DefaultTypes returns the shared table of built-in descriptors.
func DefaultTypes() *TypeTable {
	return defaultTypes
}

// NewPrimitive creates a primitive using the built-in descriptors.
func NewPrimitive(dataType string) Primitive {
	return defaultTypes.Primitive(dataType)
}
