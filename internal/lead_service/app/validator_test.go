package app

import (
	"testing"

	"github.com/ellistech/leadgate/internal/lead_service/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator(t *testing.T) (*FieldValidator, *domain.Catalog) {
	t.Helper()
	catalog := domain.DefaultCatalog()
	v, err := NewFieldValidator(nil, catalog)
	require.NoError(t, err)
	return v, catalog
}

func TestFieldValidator_ValidContact(t *testing.T) {
	v, catalog := newTestValidator(t)
	err := v.Validate(mustForm(t, catalog, domain.FormContact), map[string]string{
		"name": "Jane Doe", "email": "jane@x.com", "subject": "Hi", "message": "Test",
	})
	assert.NoError(t, err)
}

func TestFieldValidator_Failures(t *testing.T) {
	v, catalog := newTestValidator(t)

	tests := []struct {
		name   string
		form   domain.FormKind
		values map[string]string
		want   []domain.FieldError
	}{
		{
			name:   "missing required fields",
			form:   domain.FormContact,
			values: map[string]string{"name": "Jane"},
			want: []domain.FieldError{
				{Field: "email", Rule: "required"},
				{Field: "subject", Rule: "required"},
				{Field: "message", Rule: "required"},
			},
		},
		{
			name:   "whitespace is empty",
			form:   domain.FormContact,
			values: map[string]string{"name": "   ", "email": "jane@x.com", "subject": "Hi", "message": "Test"},
			want:   []domain.FieldError{{Field: "name", Rule: "required"}},
		},
		{
			name:   "bad email and phone",
			form:   domain.FormContact,
			values: map[string]string{"name": "Jane", "email": "jane-at-x", "phone": "call me", "subject": "Hi", "message": "Test"},
			want: []domain.FieldError{
				{Field: "email", Rule: "email"},
				{Field: "phone", Rule: "phone"},
			},
		},
		{
			name: "unknown choice and bad date",
			form: domain.FormRepairBooking,
			values: map[string]string{
				"service": "Laptop Repair", "device_type": "toaster", "name": "Sam",
				"email": "sam@example.com", "phone": "555 010 2000", "preferred_date": "next week",
				"issue": "Fan noise",
			},
			want: []domain.FieldError{
				{Field: "device_type", Rule: "oneof"},
				{Field: "preferred_date", Rule: "datetime"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(mustForm(t, catalog, tt.form), tt.values)
			require.Error(t, err)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.form, verr.Form)
			assert.Equal(t, tt.want, verr.Fields)
		})
	}
}

func TestFieldValidator_OptionalFieldsMayBeEmpty(t *testing.T) {
	v, catalog := newTestValidator(t)
	err := v.Validate(mustForm(t, catalog, domain.FormRepairBooking), map[string]string{
		"service": "Laptop Repair", "device_type": "laptop", "name": "Sam",
		"email": "sam@example.com", "phone": "(555) 010-2000", "preferred_date": "2026-11-02",
		"issue": "Fan noise",
	})
	assert.NoError(t, err)
}

func TestFieldValidator_LengthLimits(t *testing.T) {
	v, catalog := newTestValidator(t)
	long := make([]byte, maxTextLength+1)
	for i := range long {
		long[i] = 'a'
	}
	err := v.Validate(mustForm(t, catalog, domain.FormContact), map[string]string{
		"name": string(long), "email": "jane@x.com", "subject": "Hi", "message": "Test",
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []domain.FieldError{{Field: "name", Rule: "max"}}, verr.Fields)
}

const freeTextCodesCatalog = `
lookups:
  budgets:
    - { code: "1,000-5,000", label: "$1,000 - $5,000" }
    - { code: "5k|10k", label: "$5,000 - $10,000" }
    - { code: "not sure", label: "Not sure yet" }
forms:
  - kind: estimate
    title: Estimate Request
    fields:
      - { name: email, label: Email, type: email, required: true }
      - { name: budget, label: Budget, type: choice, lookup: budgets, required: true }
    sections:
      - { title: Request, fields: [email, budget] }
`

func TestFieldValidator_ChoiceCodesWithSeparators(t *testing.T) {
	catalog, err := domain.ParseCatalog([]byte(freeTextCodesCatalog))
	require.NoError(t, err)
	v, err := NewFieldValidator(nil, catalog)
	require.NoError(t, err)
	schema := mustForm(t, catalog, "estimate")

	for _, code := range []string{"1,000-5,000", "5k|10k", "not sure", "  not sure "} {
		assert.NotPanics(t, func() {
			assert.NoError(t, v.Validate(schema, map[string]string{"email": "a@b.co", "budget": code}), code)
		})
	}

	for _, code := range []string{"not", "sure", "1", "000-5"} {
		err := v.Validate(schema, map[string]string{"email": "a@b.co", "budget": code})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr, code)
		assert.Equal(t, []domain.FieldError{{Field: "budget", Rule: "oneof"}}, verr.Fields, code)
	}

	err = v.Validate(schema, map[string]string{"email": "a@b.co"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []domain.FieldError{{Field: "budget", Rule: "required"}}, verr.Fields)
}
