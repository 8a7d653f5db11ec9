package domain

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed forms.yaml
var defaultFormsYAML []byte

// Catalog is the set of form schemas and lookup tables the service knows.
type Catalog struct {
	forms   map[FormKind]*FormSchema
	order   []FormKind
	lookups LookupTables
}

type catalogFile struct {
	Lookups LookupTables  `yaml:"lookups"`
	Forms   []*FormSchema `yaml:"forms"`
}

// ParseCatalog decodes and checks a catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode form catalog: %w", err)
	}
	if len(file.Forms) == 0 {
		return nil, fmt.Errorf("form catalog declares no forms")
	}

	c := &Catalog{
		forms:   make(map[FormKind]*FormSchema, len(file.Forms)),
		lookups: file.Lookups,
	}
	if c.lookups == nil {
		c.lookups = LookupTables{}
	}
	for name, table := range c.lookups {
		if err := table.check(); err != nil {
			return nil, fmt.Errorf("invalid form catalog: lookup %q: %w", name, err)
		}
	}
	for _, f := range file.Forms {
		if err := f.prepare(c.lookups); err != nil {
			return nil, fmt.Errorf("invalid form catalog: %w", err)
		}
		if _, dup := c.forms[f.Kind]; dup {
			return nil, fmt.Errorf("invalid form catalog: duplicate form %q", f.Kind)
		}
		c.forms[f.Kind] = f
		c.order = append(c.order, f.Kind)
	}
	return c, nil
}

// DefaultCatalog returns the built-in contact, repair booking and quote forms.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultFormsYAML)
	if err != nil {
		panic(fmt.Sprintf("built-in form catalog: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog from path, or returns the built-in one when
// path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read form catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// Form returns the schema registered for kind.
func (c *Catalog) Form(kind FormKind) (*FormSchema, error) {
	s, ok := c.forms[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownForm, kind)
	}
	return s, nil
}

// Forms returns every schema in declaration order.
func (c *Catalog) Forms() []*FormSchema {
	out := make([]*FormSchema, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.forms[k])
	}
	return out
}

// Lookup returns the named code->label table.
func (c *Catalog) Lookup(name string) LookupTable {
	return c.lookups[name]
}
