package app

import (
	"strings"

	"github.com/ellistech/leadgate/internal/lead_service/domain"
)

const payloadRule = "━━━━━━━━━━━━━━━━━━━━"

// PayloadFormatter renders a field mapping into the text block delivered to
// the message endpoint. Format is pure: equal inputs give equal output.
type PayloadFormatter struct {
	catalog *domain.Catalog
}

func NewPayloadFormatter(catalog *domain.Catalog) *PayloadFormatter {
	return &PayloadFormatter{catalog: catalog}
}

// Format renders values with the template of schema. Blank optional fields
// print N/A or are left out, as the field spec says; a section whose fields
// are all left out is dropped.
func (f *PayloadFormatter) Format(schema *domain.FormSchema, values map[string]string) string {
	var b strings.Builder
	b.WriteString(prefixed(schema.Emoji, schema.Title))
	b.WriteString("\n")
	b.WriteString(payloadRule)
	b.WriteString("\n")

	for _, sec := range schema.Sections {
		var lines []string
		for _, name := range sec.Fields {
			spec, _ := schema.Field(name)
			if line, ok := f.renderField(spec, values[name]); ok {
				lines = append(lines, line)
			}
		}
		if len(lines) == 0 {
			continue
		}
		b.WriteString("\n")
		if sec.Title != "" {
			b.WriteString(sec.Title)
			b.WriteString("\n")
		}
		for _, l := range lines {
			b.WriteString(l)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (f *PayloadFormatter) renderField(spec domain.FieldSpec, raw string) (string, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		if !spec.Required && spec.Empty == domain.EmptyOmit {
			return "", false
		}
		value = domain.NotAvailable
	} else if spec.Type == domain.FieldChoice {
		if label, ok := f.catalog.Lookup(spec.Lookup).Label(value); ok {
			value = label
		}
	}

	label := prefixed(spec.Emoji, spec.Label)
	if spec.Block {
		return label + ":\n" + value, true
	}
	return label + ": " + value, true
}

func prefixed(emoji, text string) string {
	if emoji == "" {
		return text
	}
	return emoji + " " + text
}
