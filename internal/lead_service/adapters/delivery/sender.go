package delivery

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// MockEndpoint is the endpoint value that selects MockSender.
const MockEndpoint = "mock"

// Sender delivers one formatted message and reports whether it was accepted.
type Sender interface {
	Send(ctx context.Context, message string) bool
}

// NewSender returns a MockSender for MockEndpoint and an HTTPSender with the
// given timeout for anything else.
func NewSender(logger *slog.Logger, endpoint string, timeout time.Duration) Sender {
	if endpoint == MockEndpoint {
		return NewMockSender(logger, false, 0)
	}
	var client *http.Client
	if timeout > 0 {
		client = &http.Client{Timeout: timeout}
	}
	return NewHTTPSender(logger, endpoint, client)
}
