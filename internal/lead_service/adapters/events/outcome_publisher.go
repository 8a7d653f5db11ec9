package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ellistech/leadgate/internal/lead_service/domain"
	"github.com/ellistech/leadgate/internal/platform/messagebroker"
)

const (
	SubjectDeliverySucceeded = "leads.delivery.succeeded"
	SubjectDeliveryFailed    = "leads.delivery.failed"
)

// DeliveryEvent is published for every delivery attempt. The payload text is
// left out; subscribers that need it read the ledger.
type DeliveryEvent struct {
	AttemptID  string          `json:"attempt_id"`
	SessionID  string          `json:"session_id,omitempty"`
	Form       domain.FormKind `json:"form"`
	OK         bool            `json:"ok"`
	DurationMS int64           `json:"duration_ms"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// OutcomePublisher records delivery attempts as NATS events.
type OutcomePublisher struct {
	publisher messagebroker.Publisher
}

func NewOutcomePublisher(p messagebroker.Publisher) *OutcomePublisher {
	return &OutcomePublisher{publisher: p}
}

func (p *OutcomePublisher) Record(ctx context.Context, attempt domain.DeliveryAttempt) error {
	subject := SubjectDeliveryFailed
	if attempt.OK {
		subject = SubjectDeliverySucceeded
	}
	data, err := json.Marshal(DeliveryEvent{
		AttemptID:  attempt.ID,
		SessionID:  attempt.SessionID,
		Form:       attempt.Form,
		OK:         attempt.OK,
		DurationMS: attempt.Duration.Milliseconds(),
		OccurredAt: attempt.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal delivery event: %w", err)
	}
	return p.publisher.Publish(ctx, subject, data)
}
