package domain

import "fmt"

// SubmissionRequest is the mutable field mapping of one open form. It is not
// safe for concurrent use; the Controller owning it serializes access.
type SubmissionRequest struct {
	schema *FormSchema
	values map[string]string
}

// NewSubmissionRequest returns a request with every declared field empty.
func NewSubmissionRequest(schema *FormSchema) *SubmissionRequest {
	r := &SubmissionRequest{schema: schema}
	r.Reset()
	return r
}

// SetField replaces the value of one declared field.
func (r *SubmissionRequest) SetField(name, value string) error {
	if _, ok := r.values[name]; !ok {
		return fmt.Errorf("%w: %q on form %s", ErrUnknownField, name, r.schema.Kind)
	}
	r.values[name] = value
	return nil
}

func (r *SubmissionRequest) Field(name string) string {
	return r.values[name]
}

// Values returns a copy of the mapping.
func (r *SubmissionRequest) Values() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Reset puts every field back to its initial empty value.
func (r *SubmissionRequest) Reset() {
	r.values = make(map[string]string, len(r.schema.Fields))
	for _, f := range r.schema.Fields {
		r.values[f.Name] = ""
	}
}

func (r *SubmissionRequest) Schema() *FormSchema {
	return r.schema
}
