package domain

import (
	"fmt"
)

// FormKind identifies one of the lead-capture forms.
type FormKind string

const (
	FormContact       FormKind = "contact"
	FormRepairBooking FormKind = "repair_booking"
	FormQuoteRequest  FormKind = "quote_request"
)

// FieldType drives the format rule applied by the validator.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextArea FieldType = "textarea"
	FieldEmail    FieldType = "email"
	FieldPhone    FieldType = "tel"
	FieldDate     FieldType = "date"
	FieldChoice   FieldType = "choice"
)

// EmptyRendering says what the payload shows for an optional field left blank.
type EmptyRendering string

const (
	EmptyOmit EmptyRendering = "omit"
	EmptyNA   EmptyRendering = "na"
)

// NotAvailable is the literal substituted for blank optional fields.
const NotAvailable = "N/A"

// ProjectTypeField is the field pre-set from the service title on quote forms.
const ProjectTypeField = "project_type"

type FieldSpec struct {
	Name     string         `yaml:"name" json:"name"`
	Label    string         `yaml:"label" json:"label"`
	Emoji    string         `yaml:"emoji" json:"emoji,omitempty"`
	Type     FieldType      `yaml:"type" json:"type"`
	Required bool           `yaml:"required" json:"required"`
	Lookup   string         `yaml:"lookup" json:"lookup,omitempty"`
	Empty    EmptyRendering `yaml:"empty" json:"empty,omitempty"`
	// Block fields print their value on the lines below the label.
	Block bool `yaml:"block" json:"block,omitempty"`
}

type Section struct {
	Title  string   `yaml:"title" json:"title"`
	Fields []string `yaml:"fields" json:"fields"`
}

// FormSchema is the configuration a Controller is parameterized with: the
// field set, the payload template and the lifecycle flags of one form.
type FormSchema struct {
	Kind  FormKind `yaml:"kind" json:"kind"`
	Title string   `yaml:"title" json:"title"`
	Emoji string   `yaml:"emoji" json:"emoji,omitempty"`
	// Modal forms close themselves after a successful submission.
	Modal bool `yaml:"modal" json:"modal"`
	// ServiceField receives the service title the form was opened for.
	ServiceField      string      `yaml:"service_field" json:"service_field,omitempty"`
	DeriveProjectType bool        `yaml:"derive_project_type" json:"derive_project_type"`
	Fields            []FieldSpec `yaml:"fields" json:"fields"`
	Sections          []Section   `yaml:"sections" json:"sections"`

	index map[string]int
}

// Field returns the spec of the named field.
func (s *FormSchema) Field(name string) (FieldSpec, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.Fields[i], true
}

// FieldNames returns the field names in declaration order.
func (s *FormSchema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

func (s *FormSchema) prepare(lookups LookupTables) error {
	if s.Kind == "" {
		return fmt.Errorf("form without kind")
	}
	if s.Title == "" {
		return fmt.Errorf("form %s: title is required", s.Kind)
	}
	s.index = make(map[string]int, len(s.Fields))
	for i, f := range s.Fields {
		if f.Name == "" || f.Label == "" {
			return fmt.Errorf("form %s: field %d needs a name and a label", s.Kind, i)
		}
		if _, dup := s.index[f.Name]; dup {
			return fmt.Errorf("form %s: duplicate field %q", s.Kind, f.Name)
		}
		switch f.Type {
		case FieldText, FieldTextArea, FieldEmail, FieldPhone, FieldDate:
		case FieldChoice:
			if _, ok := lookups[f.Lookup]; !ok {
				return fmt.Errorf("form %s: field %q uses unknown lookup %q", s.Kind, f.Name, f.Lookup)
			}
		default:
			return fmt.Errorf("form %s: field %q has unknown type %q", s.Kind, f.Name, f.Type)
		}
		if f.Empty == "" {
			s.Fields[i].Empty = EmptyOmit
		} else if f.Empty != EmptyOmit && f.Empty != EmptyNA {
			return fmt.Errorf("form %s: field %q has unknown empty rendering %q", s.Kind, f.Name, f.Empty)
		}
		s.index[f.Name] = i
	}

	seen := make(map[string]bool, len(s.Fields))
	for _, sec := range s.Sections {
		for _, name := range sec.Fields {
			if _, ok := s.index[name]; !ok {
				return fmt.Errorf("form %s: section %q references unknown field %q", s.Kind, sec.Title, name)
			}
			if seen[name] {
				return fmt.Errorf("form %s: field %q appears in more than one section", s.Kind, name)
			}
			seen[name] = true
		}
	}
	for _, f := range s.Fields {
		if !seen[f.Name] {
			return fmt.Errorf("form %s: field %q is not placed in any section", s.Kind, f.Name)
		}
	}

	if s.ServiceField != "" {
		if _, ok := s.index[s.ServiceField]; !ok {
			return fmt.Errorf("form %s: service field %q is not declared", s.Kind, s.ServiceField)
		}
	}
	if s.DeriveProjectType {
		f, ok := s.Field(ProjectTypeField)
		if !ok || f.Type != FieldChoice {
			return fmt.Errorf("form %s: deriving a project type needs a %q choice field", s.Kind, ProjectTypeField)
		}
		for _, code := range ProjectTypeCodes() {
			if _, ok := lookups[f.Lookup].Label(code); !ok {
				return fmt.Errorf("form %s: lookup %q has no entry for project type %q", s.Kind, f.Lookup, code)
			}
		}
	}
	return nil
}
