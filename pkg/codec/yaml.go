package codec

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-typedwidget/pkg/widget"
)

func encodeYAML(w io.Writer, spec widget.Spec) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(specNode(spec)); err != nil {
		return fmt.Errorf("codec: encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("codec: encode yaml: %w", err)
	}
	return nil
}

// specNode builds a mapping node by hand; yaml.v3 would sort map keys and
// drop the child order.
func specNode(spec widget.Spec) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, value *yaml.Node) {
		node.Content = append(node.Content, scalar(key), value)
	}

	if spec.Kind != "" {
		add("kind", scalar(spec.Kind))
	}
	if spec.Title != "" {
		add("title", scalar(spec.Title))
	}
	if spec.Description != "" {
		add("description", scalar(spec.Description))
	}
	if spec.Required {
		add("required", boolNode(true))
	}
	if spec.Disabled {
		add("disabled", boolNode(true))
	}
	if spec.Min != nil {
		add("min", floatNode(*spec.Min))
	}
	if spec.Max != nil {
		add("max", floatNode(*spec.Max))
	}
	if len(spec.Options) > 0 {
		options := &yaml.Node{Kind: yaml.MappingNode}
		for _, opt := range spec.Options {
			options.Content = append(options.Content, scalar(opt.Value), scalar(opt.Label))
		}
		add("options", options)
	}
	if spec.Container {
		add("isContainer", boolNode(true))
	}
	if len(spec.Children) > 0 {
		add("children", childrenNode(spec.Children))
	}
	if len(spec.Attributes) > 0 {
		keys := make([]string, 0, len(spec.Attributes))
		for key := range spec.Attributes {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		attrs := &yaml.Node{Kind: yaml.MappingNode}
		for _, key := range keys {
			attrs.Content = append(attrs.Content, scalar(key), scalar(spec.Attributes[key]))
		}
		add("attributes", attrs)
	}
	return node
}

func childrenNode(children widget.Children) *yaml.Node {
	if !children.Named() {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, child := range children {
			seq.Content = append(seq.Content, specNode(child.Spec))
		}
		return seq
	}
	mapping := &yaml.Node{Kind: yaml.MappingNode}
	for i, child := range children {
		name := child.Name
		if name == "" {
			name = strconv.Itoa(i)
		}
		mapping.Content = append(mapping.Content, scalar(name), specNode(child.Spec))
	}
	return mapping
}

func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func boolNode(value bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(value)}
}

func floatNode(value float64) *yaml.Node {
	tag := "!!float"
	if value == float64(int64(value)) {
		tag = "!!int"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: strconv.FormatFloat(value, 'f', -1, 64)}
}
