package widget

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// MarshalJSON encodes options as an object keyed by value, in order.
func (o Options) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, opt := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKeyValue(&buf, opt.Value, opt.Label); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an ordered value→label object.
func (o *Options) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*o = nil
		return nil
	}
	var out Options
	err := decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var label string
		if err := json.Unmarshal(raw, &label); err != nil {
			return fmt.Errorf("widget: option %q: %w", key, err)
		}
		out = append(out, Option{Value: key, Label: label})
		return nil
	})
	if err != nil {
		return err
	}
	*o = out
	return nil
}

// MarshalJSON encodes named children as an ordered object and unnamed
// exemplars as an array.
func (c Children) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	if !c.Named() {
		buf.WriteByte('[')
		for i, child := range c {
			if i > 0 {
				buf.WriteByte(',')
			}
			payload, err := json.Marshal(child.Spec)
			if err != nil {
				return nil, err
			}
			buf.Write(payload)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	}

	buf.WriteByte('{')
	for i, child := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		name := child.Name
		if name == "" {
			name = strconv.Itoa(i)
		}
		if err := writeKeyValue(&buf, name, child.Spec); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts both the object and the array form.
func (c *Children) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if isNull(trimmed) {
		*c = nil
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var specs []Spec
		if err := json.Unmarshal(trimmed, &specs); err != nil {
			return err
		}
		out := make(Children, len(specs))
		for i, spec := range specs {
			out[i] = Child{Spec: spec}
		}
		*c = out
		return nil
	}

	var out Children
	err := decodeOrderedObject(trimmed, func(key string, raw json.RawMessage) error {
		var spec Spec
		if err := json.Unmarshal(raw, &spec); err != nil {
			return fmt.Errorf("widget: child %q: %w", key, err)
		}
		out = append(out, Child{Name: key, Spec: spec})
		return nil
	})
	if err != nil {
		return err
	}
	*c = out
	return nil
}

func writeKeyValue(buf *bytes.Buffer, key string, value any) error {
	encodedKey, err := json.Marshal(key)
	if err != nil {
		return err
	}
	encodedValue, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(encodedKey)
	buf.WriteByte(':')
	buf.Write(encodedValue)
	return nil
}

func decodeOrderedObject(data []byte, each func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("widget: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("widget: expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := each(key, raw); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}
