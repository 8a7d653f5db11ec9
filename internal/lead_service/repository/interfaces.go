package repository

import (
	"context"

	"github.com/ellistech/leadgate/internal/lead_service/domain"
)

// DeliveryRepository is the ledger of delivery attempts. Record satisfies
// app.OutcomeSink, so a repository can be handed to the pipeline directly.
type DeliveryRepository interface {
	Record(ctx context.Context, attempt domain.DeliveryAttempt) error
	// List returns attempts newest first.
	List(ctx context.Context, opts domain.DeliveryListOptions) ([]domain.DeliveryAttempt, error)
}
