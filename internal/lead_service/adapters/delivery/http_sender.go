package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxResponseBytes bounds how much of a reply is read.
const maxResponseBytes = 64 << 10

// SendMessageRequest is the body posted to the message endpoint.
type SendMessageRequest struct {
	Message string `json:"message"`
}

// SendMessageResponse is the part of the reply the sender looks at. Any
// other fields are ignored.
type SendMessageResponse struct {
	OK any `json:"ok"`
}

// HTTPSender posts formatted leads to the send-message endpoint. It makes
// exactly one request per Send and never retries.
type HTTPSender struct {
	logger     *slog.Logger
	httpClient *http.Client
	endpoint   string
}

// NewHTTPSender returns a sender for endpoint. A nil httpClient gets a
// client with a 15 second timeout.
func NewHTTPSender(logger *slog.Logger, endpoint string, httpClient *http.Client) *HTTPSender {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPSender{
		logger:     logger.With("sender", "http"),
		httpClient: httpClient,
		endpoint:   endpoint,
	}
}

// Send reports true only when the endpoint answers 2xx with a JSON body whose
// "ok" field is truthy. Every other result, including transport errors, is
// false.
func (s *HTTPSender) Send(ctx context.Context, message string) bool {
	ok, err := s.send(ctx, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to deliver message", "endpoint", s.endpoint, "error", err)
		return false
	}
	if !ok {
		s.logger.WarnContext(ctx, "Message endpoint did not confirm delivery", "endpoint", s.endpoint)
	}
	return ok
}

func (s *HTTPSender) send(ctx context.Context, message string) (bool, error) {
	reqBytes, err := json.Marshal(SendMessageRequest{Message: message})
	if err != nil {
		return false, fmt.Errorf("failed to marshal send-message request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(reqBytes))
	if err != nil {
		return false, fmt.Errorf("failed to create send-message request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return false, fmt.Errorf("failed to reach message endpoint: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return false, fmt.Errorf("failed to read message endpoint response (status %d): %w", httpResp.StatusCode, err)
	}
	s.logger.DebugContext(ctx, "Message endpoint replied", "status_code", httpResp.StatusCode, "body_length", len(body))

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return false, fmt.Errorf("message endpoint returned status %d", httpResp.StatusCode)
	}

	var resp SendMessageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, fmt.Errorf("message endpoint returned a non-JSON body (status %d): %w", httpResp.StatusCode, err)
	}
	return truthy(resp.OK), nil
}

// truthy follows the loose truthiness the endpoint's clients expect:
// false, 0, "", null and a missing field are false; anything else is true.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}
