package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-typedwidget/pkg/definition"
	pkgopenapi "github.com/goliatone/go-typedwidget/pkg/openapi"
)

// converter maps kin-openapi schemas onto definitions. visiting tracks the
// schemas on the current branch; resolved $refs share pointers, so a repeat
// means the schema contains itself.
type converter struct {
	types    *definition.TypeTable
	visiting map[*openapi3.Schema]struct{}
}

func newConverter(types *definition.TypeTable) *converter {
	return &converter{types: types, visiting: make(map[*openapi3.Schema]struct{})}
}

func (c *converter) convert(path string, ref *openapi3.SchemaRef, required bool) (definition.Definition, error) {
	if ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("openapi parser: %s: unresolved schema", path)
	}
	schema := ref.Value
	if _, cycling := c.visiting[schema]; cycling {
		return nil, fmt.Errorf("openapi parser: %s: recursive schema %s", path, refLabel(ref))
	}
	c.visiting[schema] = struct{}{}
	defer delete(c.visiting, schema)

	meta := definition.Metadata{
		Label:       schema.Title,
		Description: schema.Description,
		Required:    required,
		ReadOnly:    schema.ReadOnly,
		Computed:    boolExtension(schema.Extensions, pkgopenapi.ExtensionComputed),
	}

	if entityType, ok := stringExtension(schema.Extensions, pkgopenapi.ExtensionEntityType); ok {
		props, err := c.properties(path, schema)
		if err != nil {
			return nil, err
		}
		return definition.EntityReference{Metadata: meta, EntityTypeID: entityType, Properties: props}, nil
	}
	if target, ok := stringExtension(schema.Extensions, pkgopenapi.ExtensionTargetType); ok {
		return definition.Field{
			Metadata: meta,
			Item:     c.primitive(schema),
			Settings: map[string]any{definition.SettingTargetType: target},
		}, nil
	}

	switch schemaType(schema) {
	case "array":
		if schema.Items == nil {
			return nil, fmt.Errorf("openapi parser: %s: array schema must define items", path)
		}
		item, err := c.convert(path+"[]", schema.Items, false)
		if err != nil {
			return nil, err
		}
		return definition.List{Metadata: meta, Item: item}, nil
	case "object":
		return c.complex(path, schema, meta)
	case "":
		if len(schema.Properties) > 0 {
			return c.complex(path, schema, meta)
		}
	}

	prim := c.primitive(schema)
	prim.Metadata = meta
	return prim, nil
}

func (c *converter) complex(path string, schema *openapi3.Schema, meta definition.Metadata) (definition.Definition, error) {
	props, err := c.properties(path, schema)
	if err != nil {
		return nil, err
	}
	return definition.Complex{Metadata: meta, Properties: props}, nil
}

// properties converts object properties sorted by name; OpenAPI objects carry
// no declaration order.
func (c *converter) properties(path string, schema *openapi3.Schema) (definition.Properties, error) {
	if len(schema.Properties) == 0 {
		return nil, nil
	}
	required := make(map[string]struct{}, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = struct{}{}
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	props := make(definition.Properties, 0, len(names))
	for _, name := range names {
		_, isRequired := required[name]
		def, err := c.convert(path+"."+name, schema.Properties[name], isRequired)
		if err != nil {
			return nil, err
		}
		props = append(props, definition.Property{Name: name, Definition: def})
	}
	return props, nil
}

func (c *converter) primitive(schema *openapi3.Schema) definition.Primitive {
	prim := c.types.Primitive(dataTypeFor(schema))
	if len(schema.Enum) > 0 {
		choices := make([]definition.Choice, 0, len(schema.Enum))
		for _, value := range schema.Enum {
			if value == nil {
				continue
			}
			choices = append(choices, definition.Choice{Value: fmt.Sprint(value)})
		}
		if len(choices) > 0 {
			prim.Constraints = append(prim.Constraints, definition.AllowedValues(choices...))
		}
	}
	if schema.Min != nil || schema.Max != nil {
		prim.Constraints = append(prim.Constraints, definition.Constraint{
			Name: definition.ConstraintRange,
			Min:  copyFloat(schema.Min),
			Max:  copyFloat(schema.Max),
		})
	}
	return prim
}

func dataTypeFor(schema *openapi3.Schema) string {
	format := strings.ToLower(strings.TrimSpace(schema.Format))
	switch schemaType(schema) {
	case "boolean":
		return definition.DataTypeBoolean
	case "integer":
		switch format {
		case "unix-time", "timestamp":
			return definition.DataTypeTimestamp
		case "duration", "timespan":
			return definition.DataTypeTimeSpan
		}
		return definition.DataTypeInteger
	case "number":
		return definition.DataTypeFloat
	case "string":
		switch format {
		case "date-time", "date":
			return definition.DataTypeDateTime
		case "duration":
			return definition.DataTypeDuration
		case "email":
			return definition.DataTypeEmail
		case "uri", "url":
			return definition.DataTypeURI
		}
	}
	return definition.DataTypeString
}

// schemaType returns the first non-null type of the schema.
func schemaType(schema *openapi3.Schema) string {
	if schema.Type == nil {
		return ""
	}
	for _, typ := range schema.Type.Slice() {
		if typ != "null" {
			return typ
		}
	}
	return ""
}

func refLabel(ref *openapi3.SchemaRef) string {
	if ref.Ref != "" {
		return ref.Ref
	}
	return "(inline)"
}

func stringExtension(extensions map[string]any, key string) (string, bool) {
	raw, ok := extensions[key]
	if !ok {
		return "", false
	}
	value, ok := raw.(string)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

func boolExtension(extensions map[string]any, key string) bool {
	value, _ := extensions[key].(bool)
	return value
}

func copyFloat(value *float64) *float64 {
	if value == nil {
		return nil
	}
	out := *value
	return &out
}
