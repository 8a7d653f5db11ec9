package http

import (
	"time"

	"github.com/ellistech/leadgate/internal/lead_service/app"
	"github.com/ellistech/leadgate/internal/lead_service/domain"
)

// OpenSessionRequest opens a form session. ServiceTitle is the service the
// visitor picked, if any.
type OpenSessionRequest struct {
	Form         string `json:"form" validate:"required"`
	ServiceTitle string `json:"service_title,omitempty" validate:"max=200"`
}

// SetFieldRequest updates one field. An empty value clears it.
type SetFieldRequest struct {
	Name  string `json:"name" validate:"required,max=64"`
	Value string `json:"value" validate:"max=10000"`
}

// SetAuxRequest stores UI state such as the selected tab or package.
type SetAuxRequest struct {
	Key   string `json:"key" validate:"required,max=64"`
	Value string `json:"value" validate:"max=200"`
}

// SubmitFormRequest is the one-shot submission of a complete field map.
type SubmitFormRequest struct {
	ServiceTitle string            `json:"service_title,omitempty" validate:"max=200"`
	Fields       map[string]string `json:"fields" validate:"required"`
}

// FormResponse describes a form schema together with the options of its
// choice fields.
type FormResponse struct {
	*domain.FormSchema
	Options map[string][]domain.LookupEntry `json:"options,omitempty"`
}

// SessionResponse is the state of an open form session.
type SessionResponse struct {
	ID        string            `json:"id"`
	Form      domain.FormKind   `json:"form"`
	Modal     bool              `json:"modal"`
	Status    domain.Status     `json:"status"`
	Fields    map[string]string `json:"fields"`
	Aux       map[string]string `json:"aux"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// SubmitResponse reports one delivery attempt.
type SubmitResponse struct {
	AttemptID string        `json:"attempt_id"`
	OK        bool          `json:"ok"`
	Status    domain.Status `json:"status"`
	Payload   string        `json:"payload"`
}

// DeliveryResponse is one ledger row.
type DeliveryResponse struct {
	ID         string          `json:"id"`
	SessionID  string          `json:"session_id,omitempty"`
	Form       domain.FormKind `json:"form"`
	OK         bool            `json:"ok"`
	DurationMS int64           `json:"duration_ms"`
	CreatedAt  time.Time       `json:"created_at"`
	Payload    string          `json:"payload"`
}

type ListDeliveriesResponse struct {
	Deliveries []DeliveryResponse `json:"deliveries"`
	Limit      int                `json:"limit"`
	Offset     int                `json:"offset"`
}

// GenericErrorResponse is the body of every error reply.
type GenericErrorResponse struct {
	Error   string              `json:"error"`
	Details string              `json:"details,omitempty"`
	Fields  []domain.FieldError `json:"fields,omitempty"`
}

func newFormResponse(schema *domain.FormSchema, catalog *domain.Catalog) FormResponse {
	resp := FormResponse{FormSchema: schema}
	for _, f := range schema.Fields {
		if f.Lookup == "" {
			continue
		}
		if resp.Options == nil {
			resp.Options = map[string][]domain.LookupEntry{}
		}
		resp.Options[f.Name] = catalog.Lookup(f.Lookup)
	}
	return resp
}

func newSessionResponse(s app.Snapshot) SessionResponse {
	return SessionResponse{
		ID:        s.ID,
		Form:      s.Form,
		Modal:     s.Modal,
		Status:    s.Status,
		Fields:    s.Fields,
		Aux:       s.Aux,
		UpdatedAt: s.UpdatedAt,
	}
}

func newSubmitResponse(o app.Outcome) SubmitResponse {
	return SubmitResponse{AttemptID: o.AttemptID, OK: o.OK, Status: o.Status, Payload: o.Payload}
}

func newDeliveryResponse(a domain.DeliveryAttempt) DeliveryResponse {
	return DeliveryResponse{
		ID:         a.ID,
		SessionID:  a.SessionID,
		Form:       a.Form,
		OK:         a.OK,
		DurationMS: a.Duration.Milliseconds(),
		CreatedAt:  a.CreatedAt,
		Payload:    a.Payload,
	}
}
