package memory

import (
	"context"
	"sync"

	"github.com/ellistech/leadgate/internal/lead_service/domain"
	"github.com/ellistech/leadgate/internal/lead_service/repository"
)

// DefaultCapacity is how many attempts a ledger keeps before dropping the
// oldest.
const DefaultCapacity = 1000

// DeliveryLedger keeps recent delivery attempts in memory. It stands in for
// the Postgres ledger when no database is configured.
type DeliveryLedger struct {
	mu       sync.RWMutex
	capacity int
	attempts []domain.DeliveryAttempt
}

var _ repository.DeliveryRepository = (*DeliveryLedger)(nil)

func NewDeliveryLedger(capacity int) *DeliveryLedger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &DeliveryLedger{capacity: capacity}
}

func (l *DeliveryLedger) Record(ctx context.Context, attempt domain.DeliveryAttempt) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts = append(l.attempts, attempt)
	if over := len(l.attempts) - l.capacity; over > 0 {
		l.attempts = append([]domain.DeliveryAttempt(nil), l.attempts[over:]...)
	}
	return nil
}

func (l *DeliveryLedger) List(ctx context.Context, opts domain.DeliveryListOptions) ([]domain.DeliveryAttempt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := []domain.DeliveryAttempt{}
	skipped := 0
	for i := len(l.attempts) - 1; i >= 0; i-- {
		a := l.attempts[i]
		if opts.Form != "" && a.Form != opts.Form {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
		out = append(out, a)
	}
	return out, nil
}
