package delivery

import (
	"context"
	"log/slog"
	"time"
)

// MockSender logs messages instead of sending them. Used for local
// development when no message endpoint is available.
type MockSender struct {
	logger         *slog.Logger
	FailSend       bool
	SimulatedDelay time.Duration
}

func NewMockSender(logger *slog.Logger, failSend bool, delay time.Duration) *MockSender {
	return &MockSender{
		logger:         logger.With("sender", "mock"),
		FailSend:       failSend,
		SimulatedDelay: delay,
	}
}

func (s *MockSender) Send(ctx context.Context, message string) bool {
	s.logger.InfoContext(ctx, "MockSender: Send called", "message_length", len(message))

	if s.SimulatedDelay > 0 {
		t := time.NewTimer(s.SimulatedDelay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			s.logger.WarnContext(ctx, "MockSender: context done before simulated delivery", "error", ctx.Err())
			return false
		}
	}

	if s.FailSend {
		s.logger.WarnContext(ctx, "mock sender simulated send failure")
		return false
	}
	s.logger.DebugContext(ctx, "MockSender: message delivered (simulated)", "message", message)
	return true
}
