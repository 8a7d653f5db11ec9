package app

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/ellistech/leadgate/internal/lead_service/domain"
	"github.com/go-playground/validator/v10"
)

const (
	maxTextLength     = 200
	maxTextAreaLength = 5000
)

var phonePattern = regexp.MustCompile(`^\+?[0-9 ().-]{7,20}$`)

// FieldValidator enforces the required/format rules of a form schema.
type FieldValidator struct {
	validate *validator.Validate
	catalog  *domain.Catalog
}

// NewFieldValidator builds a validator for the schemas of catalog. A nil
// validate gets a fresh validator.Validate.
func NewFieldValidator(validate *validator.Validate, catalog *domain.Catalog) (*FieldValidator, error) {
	if validate == nil {
		validate = validator.New()
	}
	err := validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	if err != nil {
		return nil, err
	}
	return &FieldValidator{validate: validate, catalog: catalog}, nil
}

// Validate checks every declared field of schema against values. It returns
// a *domain.ValidationError naming each failing field, or nil.
func (v *FieldValidator) Validate(schema *domain.FormSchema, values map[string]string) error {
	var failed []domain.FieldError
	for _, f := range schema.Fields {
		value := strings.TrimSpace(values[f.Name])
		err := v.validate.Var(value, v.tagFor(f))
		if err == nil {
			if f.Type == domain.FieldChoice && value != "" {
				if _, ok := v.catalog.Lookup(f.Lookup).Label(value); !ok {
					failed = append(failed, domain.FieldError{Field: f.Name, Rule: "oneof"})
				}
			}
			continue
		}
		rule := "invalid"
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			rule = verrs[0].Tag()
		}
		failed = append(failed, domain.FieldError{Field: f.Name, Rule: rule})
	}
	if len(failed) > 0 {
		return &domain.ValidationError{Form: schema.Kind, Fields: failed}
	}
	return nil
}

func (v *FieldValidator) tagFor(f domain.FieldSpec) string {
	rules := []string{"omitempty"}
	if f.Required {
		rules[0] = "required"
	}
	switch f.Type {
	case domain.FieldEmail:
		rules = append(rules, "email", "max=254")
	case domain.FieldPhone:
		rules = append(rules, "phone")
	case domain.FieldDate:
		rules = append(rules, "datetime=2006-01-02")
	case domain.FieldChoice:
		// Codes are free text; Validate matches them against the lookup table.
		return rules[0]
	case domain.FieldTextArea:
		rules = append(rules, "max="+strconv.Itoa(maxTextAreaLength))
	default:
		rules = append(rules, "max="+strconv.Itoa(maxTextLength))
	}
	return strings.Join(rules, ",")
}
