package tagschema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Registry is an immutable set of tag schemas keyed by tag name. It is
// built once at startup and handed to the transformer explicitly.
type Registry struct {
	schemas map[string]Schema
}

// Callout displays the enclosed content in a callout box.
var Callout = Schema{
	Render:      "Callout",
	Description: "Display the enclosed content in a callout box",
	Children:    []string{"paragraph", "tag", "list"},
	Attributes: map[string]Attribute{
		"type": {
			Type:    TypeString,
			Default: "note",
			Matches: []any{"check", "error", "note", "warning"},
		},
	},
}

// Builtin returns the tag schemas that ship with docview.
func Builtin() map[string]Schema {
	return map[string]Schema{
		"callout": Callout.clone(),
	}
}

// NewRegistry validates and copies the given schemas.
func NewRegistry(schemas map[string]Schema) (*Registry, error) {
	r := &Registry{schemas: make(map[string]Schema, len(schemas))}
	for _, name := range sortedKeys(schemas) {
		if name == "" {
			return nil, fmt.Errorf("tag schema with empty name")
		}
		s := schemas[name]
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("tag %q: %w", name, err)
		}
		r.schemas[name] = s.clone()
	}
	return r, nil
}

// Default returns a registry holding only the built-in schemas.
func Default() *Registry {
	r, err := NewRegistry(Builtin())
	if err != nil {
		panic(fmt.Sprintf("tagschema: invalid builtin schema: %v", err))
	}
	return r
}

// Lookup returns a copy of the schema registered under name.
func (r *Registry) Lookup(name string) (Schema, bool) {
	if r == nil {
		return Schema{}, false
	}
	s, ok := r.schemas[name]
	if !ok {
		return Schema{}, false
	}
	return s.clone(), true
}

// Names returns the registered tag names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return sortedKeys(r.schemas)
}

type schemaFile struct {
	Tags map[string]Schema `yaml:"tags"`
}

// LoadFile reads extra schemas from a YAML file and returns a registry of
// the built-ins overlaid with the file's entries. An empty path yields
// Default().
//
//	tags:
//	  badge:
//	    render: Badge
//	    attributes:
//	      color: {type: String, default: blue, matches: [blue, red]}
func LoadFile(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	var f schemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse schema file %s: %w", path, err)
	}
	merged := Builtin()
	for name, s := range f.Tags {
		merged[name] = s
	}
	return NewRegistry(merged)
}
