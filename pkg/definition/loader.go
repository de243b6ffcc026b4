package definition

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// LoadOption configures LoadFS and Parse.
type LoadOption func(*loadOptions)

type loadOptions struct {
	types *TypeTable
}

// WithTypeTable overrides the primitive type descriptors used to attach
// capabilities. Defaults to DefaultTypes().
func WithTypeTable(table *TypeTable) LoadOption {
	return func(opts *loadOptions) {
		if table != nil {
			opts.types = table
		}
	}
}

func newLoadOptions(options []LoadOption) loadOptions {
	opts := loadOptions{types: DefaultTypes()}
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}
	return opts
}

// LoadFS walks fsys and parses every JSON, JSONC or YAML definition document
// into a single registry. A nil filesystem yields an empty registry.
func LoadFS(fsys fs.FS, options ...LoadOption) (*Registry, error) {
	opts := newLoadOptions(options)
	raw := make(map[string]sourcedNode)
	if fsys == nil {
		return NewRegistry(), nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("definition: read %s: %w", path, err)
		}
		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}
		return collectNodes(raw, doc, path)
	})
	if err != nil {
		return nil, err
	}

	return buildRegistry(raw, opts)
}

// Parse decodes a single definition document. source names the document in
// error messages and selects the decoder by extension.
func Parse(data []byte, source string, options ...LoadOption) (*Registry, error) {
	opts := newLoadOptions(options)
	doc, err := parseDocument(data, source)
	if err != nil {
		return nil, err
	}
	raw := make(map[string]sourcedNode)
	if err := collectNodes(raw, doc, source); err != nil {
		return nil, err
	}
	return buildRegistry(raw, opts)
}

type documentFile struct {
	Definitions map[string]node `json:"definitions" yaml:"definitions"`
}

type node struct {
	Ref          string           `json:"ref" yaml:"ref"`
	Kind         string           `json:"kind" yaml:"kind"`
	Type         string           `json:"type" yaml:"type"`
	Label        string           `json:"label" yaml:"label"`
	Description  string           `json:"description" yaml:"description"`
	Required     bool             `json:"required" yaml:"required"`
	ReadOnly     bool             `json:"readOnly" yaml:"readOnly"`
	Computed     bool             `json:"computed" yaml:"computed"`
	Constraints  []constraintNode `json:"constraints" yaml:"constraints"`
	Capabilities []string         `json:"capabilities" yaml:"capabilities"`
	Properties   []propertyNode   `json:"properties" yaml:"properties"`
	Item         *node            `json:"item" yaml:"item"`
	EntityType   string           `json:"entityType" yaml:"entityType"`
	Values       map[string]any   `json:"values" yaml:"values"`
	Settings     map[string]any   `json:"settings" yaml:"settings"`
}

type propertyNode struct {
	Name string `json:"name" yaml:"name"`
	node `yaml:",inline"`
}

type constraintNode struct {
	Name    string            `json:"name" yaml:"name"`
	Min     *float64          `json:"min" yaml:"min"`
	Max     *float64          `json:"max" yaml:"max"`
	Choices []Choice          `json:"choices" yaml:"choices"`
	Params  map[string]string `json:"params" yaml:"params"`
}

type sourcedNode struct {
	node   node
	source string
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("definition: file %s is empty", source)
	}

	switch strings.ToLower(filepath.Ext(source)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return documentFile{}, fmt.Errorf("definition: parse %s: %w", source, err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
			return documentFile{}, fmt.Errorf("definition: parse %s: %w", source, err)
		}
	}
	return doc, nil
}

func collectNodes(target map[string]sourcedNode, doc documentFile, source string) error {
	for rawID, n := range doc.Definitions {
		id := strings.TrimSpace(rawID)
		if id == "" {
			return fmt.Errorf("definition: file %s defines an empty id", source)
		}
		if existing, ok := target[id]; ok {
			return fmt.Errorf("definition: duplicate id %q (files %s and %s)", id, existing.source, source)
		}
		target[id] = sourcedNode{node: n, source: source}
	}
	return nil
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// compiler turns raw nodes into definitions, resolving refs against the
// top-level ids.
type compiler struct {
	raw      map[string]sourcedNode
	built    map[string]Definition
	visiting map[string]bool
	types    *TypeTable
}

func buildRegistry(raw map[string]sourcedNode, opts loadOptions) (*Registry, error) {
	c := &compiler{
		raw:      raw,
		built:    make(map[string]Definition, len(raw)),
		visiting: make(map[string]bool),
		types:    opts.types,
	}
	registry := NewRegistry()
	for id := range raw {
		def, err := c.resolveID(id)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(id, def); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func (c *compiler) resolveID(id string) (Definition, error) {
	if def, ok := c.built[id]; ok {
		return def, nil
	}
	entry, ok := c.raw[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	if c.visiting[id] {
		return nil, fmt.Errorf("definition: cyclic reference through %q (file %s)", id, entry.source)
	}
	c.visiting[id] = true
	defer delete(c.visiting, id)

	def, err := c.compile(entry.node, id, entry.source)
	if err != nil {
		return nil, err
	}
	c.built[id] = def
	return def, nil
}

func (c *compiler) compile(n node, path, source string) (Definition, error) {
	meta := Metadata{
		Label:       n.Label,
		Description: n.Description,
		Required:    n.Required,
		ReadOnly:    n.ReadOnly,
		Computed:    n.Computed,
	}

	if ref := strings.TrimSpace(n.Ref); ref != "" {
		target, err := c.resolveID(ref)
		if err != nil {
			return nil, fmt.Errorf("definition: %s (file %s) ref %q: %w", path, source, ref, err)
		}
		return WithMetadata(target, overlayMetadata(MetadataOf(target), meta)), nil
	}

	switch Kind(strings.ToLower(strings.TrimSpace(n.Kind))) {
	case KindPrimitive:
		return c.primitive(n, meta, path, source)
	case KindComplex:
		props, err := c.properties(n.Properties, path, source)
		if err != nil {
			return nil, err
		}
		return Complex{Metadata: meta, Properties: props}, nil
	case KindList:
		item, err := c.item(n.Item, path, source)
		if err != nil {
			return nil, err
		}
		return List{Metadata: meta, Item: item}, nil
	case KindEntity:
		if strings.TrimSpace(n.EntityType) == "" {
			return nil, fmt.Errorf("definition: %s (file %s) entity is missing entityType", path, source)
		}
		props, err := c.properties(n.Properties, path, source)
		if err != nil {
			return nil, err
		}
		return EntityReference{
			Metadata:     meta,
			EntityTypeID: strings.TrimSpace(n.EntityType),
			Values:       cloneAnyMap(n.Values),
			Properties:   props,
		}, nil
	case KindField:
		item, err := c.item(n.Item, path, source)
		if err != nil {
			return nil, err
		}
		return Field{Metadata: meta, Item: item, Settings: cloneAnyMap(n.Settings)}, nil
	case "":
		return c.compile(inferKind(n), path, source)
	default:
		return nil, fmt.Errorf("definition: %s (file %s) has unknown kind %q", path, source, n.Kind)
	}
}

func (c *compiler) primitive(n node, meta Metadata, path, source string) (Definition, error) {
	dataType := strings.TrimSpace(n.Type)
	if dataType == "" {
		dataType = DataTypeString
	}
	prim := c.types.Primitive(dataType)
	prim.Metadata = meta

	if len(n.Capabilities) > 0 {
		extra := make(Capabilities, 0, len(n.Capabilities))
		for _, tag := range n.Capabilities {
			extra = append(extra, Capability(strings.TrimSpace(tag)))
		}
		prim.Capabilities = prim.Capabilities.Union(extra)
	}

	for idx, raw := range n.Constraints {
		name := strings.TrimSpace(raw.Name)
		if name == "" {
			return nil, fmt.Errorf("definition: %s (file %s) constraint %d has no name", path, source, idx)
		}
		prim.Constraints = append(prim.Constraints, Constraint{
			Name:    name,
			Min:     raw.Min,
			Max:     raw.Max,
			Choices: append([]Choice(nil), raw.Choices...),
			Params:  cloneStringMap(raw.Params),
		})
	}
	return prim, nil
}

func (c *compiler) properties(raw []propertyNode, path, source string) (Properties, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	props := make(Properties, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, entry := range raw {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, fmt.Errorf("definition: %s (file %s) has a property without a name", path, source)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("definition: %s (file %s) defines duplicate property %q", path, source, name)
		}
		seen[name] = struct{}{}

		def, err := c.compile(entry.node, path+"."+name, source)
		if err != nil {
			return nil, err
		}
		props = append(props, Property{Name: name, Definition: def})
	}
	return props, nil
}

func (c *compiler) item(raw *node, path, source string) (Definition, error) {
	if raw == nil {
		return nil, fmt.Errorf("definition: %s (file %s) is missing item", path, source)
	}
	return c.compile(*raw, path+"[]", source)
}

func inferKind(n node) node {
	switch {
	case strings.TrimSpace(n.EntityType) != "":
		n.Kind = string(KindEntity)
	case len(n.Properties) > 0:
		n.Kind = string(KindComplex)
	case n.Item != nil && len(n.Settings) > 0:
		n.Kind = string(KindField)
	case n.Item != nil:
		n.Kind = string(KindList)
	default:
		n.Kind = string(KindPrimitive)
	}
	return n
}

func overlayMetadata(base, local Metadata) Metadata {
	out := base
	if local.Label != "" {
		out.Label = local.Label
	}
	if local.Description != "" {
		out.Description = local.Description
	}
	out.Required = base.Required || local.Required
	out.ReadOnly = base.ReadOnly || local.ReadOnly
	out.Computed = base.Computed || local.Computed
	return out
}

func cloneAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
