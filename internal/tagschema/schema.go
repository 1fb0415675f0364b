package tagschema

import (
	"fmt"
	"math"
	"slices"
)

// AttrType is the expected value type of a tag attribute.
type AttrType string

const (
	TypeString  AttrType = "String"
	TypeNumber  AttrType = "Number"
	TypeBoolean AttrType = "Boolean"
)

// Attribute describes one attribute a tag accepts.
type Attribute struct {
	Type     AttrType `yaml:"type" json:"type"`
	Default  any      `yaml:"default,omitempty" json:"default,omitempty"`
	Matches  []any    `yaml:"matches,omitempty" json:"matches,omitempty"`
	Required bool     `yaml:"required,omitempty" json:"required,omitempty"`
}

// Schema describes how a custom block tag is validated and rendered.
type Schema struct {
	Render      string               `yaml:"render" json:"render"`
	Description string               `yaml:"description,omitempty" json:"description,omitempty"`
	Children    []string             `yaml:"children,omitempty" json:"children,omitempty"`
	Attributes  map[string]Attribute `yaml:"attributes,omitempty" json:"attributes,omitempty"`
}

// AttributeError reports an attribute value a schema does not accept.
type AttributeError struct {
	Attribute string
	Value     any
	Reason    string
}

func (e *AttributeError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("attribute %q: %s", e.Attribute, e.Reason)
	}
	return fmt.Sprintf("attribute %q: value %v: %s", e.Attribute, e.Value, e.Reason)
}

// AllowsChild reports whether a child of the given kind may appear inside
// the tag. A schema without a children list accepts anything.
func (s Schema) AllowsChild(kind string) bool {
	if len(s.Children) == 0 {
		return true
	}
	return slices.Contains(s.Children, kind)
}

// ResolveAttributes applies defaults and checks the given attributes
// against the schema. Attributes the schema does not declare are passed
// through unmodified. The input map is not modified.
func (s Schema) ResolveAttributes(given map[string]any) (map[string]any, []error) {
	out := make(map[string]any, len(given)+len(s.Attributes))
	for k, v := range given {
		out[k] = v
	}

	var errs []error
	for _, name := range sortedKeys(s.Attributes) {
		attr := s.Attributes[name]
		v, ok := given[name]
		if !ok || v == nil {
			switch {
			case attr.Default != nil:
				out[name] = attr.Default
			case attr.Required:
				errs = append(errs, &AttributeError{Attribute: name, Reason: "missing required attribute"})
			}
			continue
		}
		if !attr.Type.accepts(v) {
			errs = append(errs, &AttributeError{Attribute: name, Value: v, Reason: fmt.Sprintf("expected %s", attr.Type)})
			continue
		}
		if len(attr.Matches) > 0 && !matches(attr.Matches, v) {
			errs = append(errs, &AttributeError{Attribute: name, Value: v, Reason: fmt.Sprintf("must be one of %v", attr.Matches)})
		}
	}
	return out, errs
}

func (t AttrType) valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean:
		return true
	}
	return false
}

func (t AttrType) accepts(v any) bool {
	switch t {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeNumber:
		_, ok := toFloat(v)
		return ok
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	}
	return false
}

func matches(allowed []any, v any) bool {
	for _, a := range allowed {
		if equalValue(a, v) {
			return true
		}
	}
	return false
}

// equalValue compares attribute values, treating numeric types as equal
// when they hold the same number (YAML yields int, the tag parser float64).
func equalValue(a, b any) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func (s Schema) clone() Schema {
	c := s
	c.Children = slices.Clone(s.Children)
	if s.Attributes != nil {
		c.Attributes = make(map[string]Attribute, len(s.Attributes))
		for k, a := range s.Attributes {
			a.Matches = slices.Clone(a.Matches)
			c.Attributes[k] = a
		}
	}
	return c
}

func (s Schema) validate() error {
	if s.Render == "" {
		return fmt.Errorf("render name is required")
	}
	for _, name := range sortedKeys(s.Attributes) {
		attr := s.Attributes[name]
		if !attr.Type.valid() {
			return fmt.Errorf("attribute %q: unknown type %q", name, attr.Type)
		}
		for _, m := range attr.Matches {
			if !attr.Type.accepts(m) {
				return fmt.Errorf("attribute %q: allowed value %v is not a %s", name, m, attr.Type)
			}
		}
		if attr.Default == nil {
			continue
		}
		if !attr.Type.accepts(attr.Default) {
			return fmt.Errorf("attribute %q: default %v is not a %s", name, attr.Default, attr.Type)
		}
		if len(attr.Matches) > 0 && !matches(attr.Matches, attr.Default) {
			return fmt.Errorf("attribute %q: default %v is not an allowed value", name, attr.Default)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
