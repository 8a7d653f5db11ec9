package domain

import "time"

// Status is the feedback state of a form's submit cycle.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSending Status = "sending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// DeliveryAttempt records one call to the delivery endpoint.
type DeliveryAttempt struct {
	ID        string        `json:"id"`
	SessionID string        `json:"session_id,omitempty"`
	Form      FormKind      `json:"form"`
	Payload   string        `json:"payload"`
	OK        bool          `json:"ok"`
	Duration  time.Duration `json:"duration_ns"`
	CreatedAt time.Time     `json:"created_at"`
}

// DeliveryListOptions filters and pages the delivery ledger.
type DeliveryListOptions struct {
	Form   FormKind
	Limit  int
	Offset int
}
