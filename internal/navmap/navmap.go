// Package navmap reads site maps: YAML (or JSON) documents that describe the type
// hierarchy, the destinations of each type with their prerequisites, and a tree of
// sample entities. A site map builds a registry whose steps do nothing, which is enough
// to plan, validate and draw navigations without a live session.
package navmap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/navgraph"
	"github.com/aretw0/navgraph/pkg/domain"
	"github.com/aretw0/navgraph/pkg/registry"
	"gopkg.in/yaml.v3"
)

// ErrCustomUnavailable is returned when a site map custom prerequisite is executed.
var ErrCustomUnavailable = errors.New("custom prerequisite is not executable from a site map")

// TypeSpec declares an entity type and its direct bases.
type TypeSpec struct {
	Name  string   `yaml:"name" json:"name"`
	Bases []string `yaml:"bases,omitempty" json:"bases,omitempty"`
}

// StepSpec declares one destination. At most one of Sibling, Attribute, Object and
// Custom may be set; none means a root step.
type StepSpec struct {
	Type string `yaml:"type" json:"type"`
	Name string `yaml:"name" json:"name"`

	// Sibling is the destination of the same entity reached first.
	Sibling string `yaml:"sibling,omitempty" json:"sibling,omitempty"`

	// Attribute is the dotted path walked from the entity; To names the destination
	// reached on the object found.
	Attribute string `yaml:"attribute,omitempty" json:"attribute,omitempty"`

	// Object is the id of a fixed entity; To names its destination.
	Object string `yaml:"object,omitempty" json:"object,omitempty"`

	To string `yaml:"to,omitempty" json:"to,omitempty"`

	// Custom documents a prerequisite computed in code.
	Custom string `yaml:"custom,omitempty" json:"custom,omitempty"`
}

// EntitySpec declares a sample entity.
type EntitySpec struct {
	ID         string            `yaml:"id" json:"id"`
	Type       string            `yaml:"type" json:"type"`
	Parent     string            `yaml:"parent,omitempty" json:"parent,omitempty"`
	Attributes map[string]string `yaml:"attributes,omitempty" json:"attributes,omitempty"`
}

// Document is the on-disk structure of a site map.
type Document struct {
	Name     string         `yaml:"name" json:"name"`
	Defaults map[string]any `yaml:"defaults,omitempty" json:"defaults,omitempty"`
	Types    []TypeSpec     `yaml:"types,omitempty" json:"types,omitempty"`
	Steps    []StepSpec     `yaml:"steps" json:"steps"`
	Entities []EntitySpec   `yaml:"entities,omitempty" json:"entities,omitempty"`
}

// Map is a parsed and checked site map.
type Map struct {
	Document
	options  domain.NavOptions
	entities map[string]*Entity
	order    []string
}

// Load reads a site map file. Files ending in .json are read as JSON, anything else as YAML.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site map: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		var doc Document
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		return build(doc)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return m, nil
}

// Parse reads a YAML site map. Unknown fields are rejected.
func Parse(data []byte) (*Map, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return build(doc)
}

func build(doc Document) (*Map, error) {
	m := &Map{Document: doc, entities: make(map[string]*Entity)}

	opts, err := navgraph.DecodeOptions(doc.Defaults)
	if err != nil {
		return nil, fmt.Errorf("defaults: %w", err)
	}
	m.options = opts

	var errs []error
	for _, e := range doc.Entities {
		if e.ID == "" || e.Type == "" {
			errs = append(errs, fmt.Errorf("entity %q: id and type are required", e.ID))
			continue
		}
		if _, dup := m.entities[e.ID]; dup {
			errs = append(errs, fmt.Errorf("entity %q declared twice", e.ID))
			continue
		}
		m.entities[e.ID] = &Entity{spec: e, site: m}
		m.order = append(m.order, e.ID)
	}
	for _, id := range m.order {
		e := m.entities[id].spec
		if e.Parent != "" && m.entities[e.Parent] == nil {
			errs = append(errs, fmt.Errorf("entity %q: unknown parent %q", e.ID, e.Parent))
		}
		for name, ref := range e.Attributes {
			if m.entities[ref] == nil {
				errs = append(errs, fmt.Errorf("entity %q: attribute %q references unknown entity %q", e.ID, name, ref))
			}
		}
	}

	for i, s := range doc.Steps {
		if err := m.checkStep(s); err != nil {
			errs = append(errs, fmt.Errorf("step #%d (%s/%s): %w", i+1, s.Type, s.Name, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return m, nil
}

func (m *Map) checkStep(s StepSpec) error {
	if s.Type == "" || s.Name == "" {
		return fmt.Errorf("type and name are required")
	}
	kinds := 0
	for _, v := range []string{s.Sibling, s.Attribute, s.Object, s.Custom} {
		if v != "" {
			kinds++
		}
	}
	if kinds > 1 {
		return fmt.Errorf("only one of sibling, attribute, object and custom may be set")
	}
	if (s.Attribute != "" || s.Object != "") && s.To == "" {
		return fmt.Errorf("\"to\" is required with attribute and object")
	}
	if s.Object != "" && m.entities[s.Object] == nil {
		return fmt.Errorf("unknown object %q", s.Object)
	}
	return nil
}

// Options returns the navigation defaults of the site map.
func (m *Map) Options() domain.NavOptions {
	return m.options
}

// Entity returns the entity declared with id.
func (m *Map) Entity(id string) (*Entity, bool) {
	e, ok := m.entities[id]
	return e, ok
}

// Entities returns the declared entities in document order.
func (m *Map) Entities() []*Entity {
	out := make([]*Entity, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.entities[id])
	}
	return out
}

// Target returns the entity with the given id, or the bare type of that name when no
// entity matches. Bare types can only reach destinations that need no owner.
func (m *Map) Target(ref string) domain.Entity {
	if e, ok := m.entities[ref]; ok {
		return e
	}
	return domain.TypeName(ref)
}

// Registry builds a registry from the site map, in document order.
func (m *Map) Registry(opts ...registry.Option) *registry.Registry {
	reg := registry.New(opts...)
	m.Populate(reg)
	return reg
}

// Populate declares the types and registers the steps of the site map on reg.
func (m *Map) Populate(reg *registry.Registry) {
	for _, t := range m.Types {
		bases := make([]domain.TypeName, len(t.Bases))
		for i, b := range t.Bases {
			bases[i] = domain.TypeName(b)
		}
		reg.DeclareType(domain.TypeName(t.Name), bases...)
	}
	for _, s := range m.Steps {
		reg.Register(domain.TypeName(s.Type), s.Name, domain.StepDefinition{
			Prerequisite: m.prerequisite(s),
		})
	}
}

func (m *Map) prerequisite(s StepSpec) *domain.Prerequisite {
	switch {
	case s.Sibling != "":
		return domain.Sibling(s.Sibling)
	case s.Attribute != "":
		return domain.Attribute(s.Attribute, s.To)
	case s.Object != "":
		return domain.Object(m.entities[s.Object], s.To)
	case s.Custom != "":
		desc := s.Custom
		return domain.Custom(func(ctx context.Context, hop *domain.HopContext) (*domain.Arrival, error) {
			return nil, fmt.Errorf("%w: %s", ErrCustomUnavailable, desc)
		})
	default:
		return domain.Root()
	}
}
