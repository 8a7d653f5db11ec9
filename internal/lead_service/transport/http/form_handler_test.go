package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ellistech/leadgate/internal/lead_service/adapters/delivery"
	"github.com/ellistech/leadgate/internal/lead_service/app"
	"github.com/ellistech/leadgate/internal/lead_service/domain"
	"github.com/ellistech/leadgate/internal/lead_service/middleware"
	"github.com/ellistech/leadgate/internal/lead_service/repository/memory"
	httptransport "github.com/ellistech/leadgate/internal/lead_service/transport/http"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminSecret = "handler-test-secret"

type testServer struct {
	handler  http.Handler
	sessions *app.SessionRegistry
	ledger   *memory.DeliveryLedger
}

func newTestServer(t *testing.T, failSend bool) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newTestServerWithSender(t, delivery.NewMockSender(logger, failSend, 0))
}

func newTestServerWithSender(t *testing.T, sender app.Sender) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog := domain.DefaultCatalog()
	validate := validator.New()
	fv, err := app.NewFieldValidator(validate, catalog)
	require.NoError(t, err)

	ledger := memory.NewDeliveryLedger(0)
	pipeline := app.NewPipeline(catalog, fv, sender, logger,
		app.WithResetDelay(50*time.Millisecond),
		app.WithOutcomeSink(ledger),
	)
	sessions := app.NewSessionRegistry(pipeline, time.Hour, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_ = sessions.Run(ctx, time.Hour)
	})

	h := httptransport.NewRouter(httptransport.RouterConfig{
		Forms:          httptransport.NewFormHandler(pipeline, sessions, logger, validate),
		Admin:          httptransport.NewAdminHandler(ledger, logger),
		AdminJWTSecret: adminSecret,
		Logger:         logger,
	})
	return &testServer{handler: h, sessions: sessions, ledger: ledger}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func (s *testServer) openSession(t *testing.T, form, serviceTitle string) httptransport.SessionResponse {
	t.Helper()
	rr := s.do(t, http.MethodPost, "/sessions", httptransport.OpenSessionRequest{Form: form, ServiceTitle: serviceTitle})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[httptransport.SessionResponse](t, rr)
}

func (s *testServer) setField(t *testing.T, id, name, value string) {
	t.Helper()
	rr := s.do(t, http.MethodPatch, "/sessions/"+id+"/fields", httptransport.SetFieldRequest{Name: name, Value: value})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestFormHandler_ListAndGetForms(t *testing.T) {
	s := newTestServer(t, false)

	rr := s.do(t, http.MethodGet, "/forms", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	forms := decode[[]map[string]any](t, rr)
	require.Len(t, forms, 3)
	assert.Equal(t, "contact", forms[0]["kind"])

	rr = s.do(t, http.MethodGet, "/forms/quote_request", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	quote := decode[struct {
		Kind    string                          `json:"kind"`
		Modal   bool                            `json:"modal"`
		Options map[string][]domain.LookupEntry `json:"options"`
	}](t, rr)
	assert.Equal(t, "quote_request", quote.Kind)
	assert.True(t, quote.Modal)
	assert.Contains(t, quote.Options["budget"], domain.LookupEntry{Code: "5k-10k", Label: "$5,000 - $10,000"})

	rr = s.do(t, http.MethodGet, "/forms/newsletter", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestFormHandler_ContactSessionSuccess(t *testing.T) {
	s := newTestServer(t, false)
	sess := s.openSession(t, "contact", "")
	assert.Equal(t, domain.StatusIdle, sess.Status)
	assert.False(t, sess.Modal)

	s.setField(t, sess.ID, "name", "Jane Doe")
	s.setField(t, sess.ID, "email", "jane@x.com")
	s.setField(t, sess.ID, "subject", "Hi")
	s.setField(t, sess.ID, "message", "Test")

	rr := s.do(t, http.MethodPost, "/sessions/"+sess.ID+"/submit", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	out := decode[httptransport.SubmitResponse](t, rr)
	assert.True(t, out.OK)
	assert.Equal(t, domain.StatusSuccess, out.Status)
	assert.Contains(t, out.Payload, "Jane Doe")

	rr = s.do(t, http.MethodGet, "/sessions/"+sess.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	after := decode[httptransport.SessionResponse](t, rr)
	assert.Empty(t, after.Fields["name"])

	assert.Eventually(t, func() bool {
		rr := s.do(t, http.MethodGet, "/sessions/"+sess.ID, nil)
		return decode[httptransport.SessionResponse](t, rr).Status == domain.StatusIdle
	}, 2*time.Second, 10*time.Millisecond)

	list, err := s.ledger.List(context.Background(), domain.DeliveryListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, sess.ID, list[0].SessionID)
}

func TestFormHandler_SubmitFailureKeepsFields(t *testing.T) {
	s := newTestServer(t, true)
	sess := s.openSession(t, "contact", "")
	s.setField(t, sess.ID, "name", "Jane Doe")
	s.setField(t, sess.ID, "email", "jane@x.com")
	s.setField(t, sess.ID, "subject", "Hi")
	s.setField(t, sess.ID, "message", "Test")

	rr := s.do(t, http.MethodPost, "/sessions/"+sess.ID+"/submit", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	out := decode[httptransport.SubmitResponse](t, rr)
	assert.False(t, out.OK)
	assert.Equal(t, domain.StatusError, out.Status)

	rr = s.do(t, http.MethodGet, "/sessions/"+sess.ID, nil)
	after := decode[httptransport.SessionResponse](t, rr)
	assert.Equal(t, "Jane Doe", after.Fields["name"])
}

func TestFormHandler_SubmitValidationFailure(t *testing.T) {
	s := newTestServer(t, false)
	sess := s.openSession(t, "contact", "")
	s.setField(t, sess.ID, "name", "Jane Doe")
	s.setField(t, sess.ID, "email", "not-an-email")

	rr := s.do(t, http.MethodPost, "/sessions/"+sess.ID+"/submit", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body := decode[httptransport.GenericErrorResponse](t, rr)
	fields := map[string]string{}
	for _, f := range body.Fields {
		fields[f.Field] = f.Rule
	}
	assert.Equal(t, "email", fields["email"])
	assert.Equal(t, "required", fields["message"])

	list, err := s.ledger.List(context.Background(), domain.DeliveryListOptions{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

// gatedSender holds every Send until release is closed.
type gatedSender struct {
	started chan struct{}
	release chan struct{}
}

func (s *gatedSender) Send(ctx context.Context, message string) bool {
	s.started <- struct{}{}
	<-s.release
	return true
}

func TestFormHandler_ConcurrentSubmitConflict(t *testing.T) {
	sender := &gatedSender{started: make(chan struct{}, 1), release: make(chan struct{})}
	s := newTestServerWithSender(t, sender)
	sess := s.openSession(t, "contact", "")
	s.setField(t, sess.ID, "name", "Jane Doe")
	s.setField(t, sess.ID, "email", "jane@x.com")
	s.setField(t, sess.ID, "subject", "Hi")
	s.setField(t, sess.ID, "message", "Test")

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- s.do(t, http.MethodPost, "/sessions/"+sess.ID+"/submit", nil)
	}()
	<-sender.started

	rr := s.do(t, http.MethodPost, "/sessions/"+sess.ID+"/submit", nil)
	assert.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())
	assert.Equal(t, "Submission already in progress", decode[httptransport.GenericErrorResponse](t, rr).Error)

	close(sender.release)
	rr = <-first
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.True(t, decode[httptransport.SubmitResponse](t, rr).OK)

	list, err := s.ledger.List(context.Background(), domain.DeliveryListOptions{})
	require.NoError(t, err)
	assert.Len(t, list, 1, "the rejected submit is never delivered")
}

func TestFormHandler_QuoteSessionPresetsProjectType(t *testing.T) {
	s := newTestServer(t, false)
	sess := s.openSession(t, "quote_request", "E-commerce Store Development")
	assert.True(t, sess.Modal)
	assert.Equal(t, "E-commerce Store Development", sess.Fields["service"])
	assert.Equal(t, domain.ProjectTypeECommerce, sess.Fields["project_type"])
}

func TestFormHandler_ModalSessionClosesAfterSuccess(t *testing.T) {
	s := newTestServer(t, false)
	sess := s.openSession(t, "repair_booking", "Laptop Repair")

	rr := s.do(t, http.MethodPut, "/sessions/"+sess.ID+"/aux", httptransport.SetAuxRequest{Key: "tab", Value: "booking"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "booking", decode[httptransport.SessionResponse](t, rr).Aux["tab"])

	s.setField(t, sess.ID, "device_type", "laptop")
	s.setField(t, sess.ID, "name", "Sam Lee")
	s.setField(t, sess.ID, "email", "sam@example.com")
	s.setField(t, sess.ID, "phone", "+1 555 010 2000")
	s.setField(t, sess.ID, "issue", "Keyboard stopped working")

	rr = s.do(t, http.MethodPost, "/sessions/"+sess.ID+"/submit", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.True(t, decode[httptransport.SubmitResponse](t, rr).OK)

	assert.Eventually(t, func() bool {
		return s.do(t, http.MethodGet, "/sessions/"+sess.ID, nil).Code == http.StatusNotFound
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFormHandler_SessionErrors(t *testing.T) {
	s := newTestServer(t, false)

	rr := s.do(t, http.MethodPost, "/sessions", httptransport.OpenSessionRequest{Form: "newsletter"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = s.do(t, http.MethodPost, "/sessions", map[string]string{"service_title": "x"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodPost, "/sessions", map[string]string{"form": "contact", "modal": "true"})
	assert.Equal(t, http.StatusBadRequest, rr.Code, "unknown body fields are rejected")

	rr = s.do(t, http.MethodGet, "/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	sess := s.openSession(t, "contact", "")
	rr = s.do(t, http.MethodPatch, "/sessions/"+sess.ID+"/fields", httptransport.SetFieldRequest{Name: "fax", Value: "1"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodDelete, "/sessions/"+sess.ID, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = s.do(t, http.MethodDelete, "/sessions/"+sess.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, 0, s.sessions.Len())
}

func TestFormHandler_OneShotSubmission(t *testing.T) {
	s := newTestServer(t, false)

	rr := s.do(t, http.MethodPost, "/forms/contact/submissions", httptransport.SubmitFormRequest{
		Fields: map[string]string{"name": "Jane Doe", "email": "jane@x.com", "subject": "Hi", "message": "Test"},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	out := decode[httptransport.SubmitResponse](t, rr)
	assert.True(t, out.OK)
	assert.NotEmpty(t, out.AttemptID)
	assert.Equal(t, 0, s.sessions.Len())

	rr = s.do(t, http.MethodPost, "/forms/contact/submissions", httptransport.SubmitFormRequest{
		Fields: map[string]string{"name": "Jane Doe"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = s.do(t, http.MethodPost, "/forms/contact/submissions", httptransport.SubmitFormRequest{
		Fields: map[string]string{"fax": "1"},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdminHandler_ListDeliveries(t *testing.T) {
	s := newTestServer(t, false)
	ctx := context.Background()
	for _, f := range []domain.FormKind{domain.FormContact, domain.FormQuoteRequest, domain.FormContact} {
		require.NoError(t, s.ledger.Record(ctx, domain.DeliveryAttempt{ID: string(f) + time.Now().String(), Form: f, OK: true, Duration: 40 * time.Millisecond}))
	}

	rr := s.do(t, http.MethodGet, "/admin/deliveries", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	token, err := middleware.IssueAdminToken(adminSecret, "ops", time.Minute)
	require.NoError(t, err)
	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		s.handler.ServeHTTP(rr, req)
		return rr
	}

	rr = get("/admin/deliveries?form=contact&limit=1")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	page := decode[httptransport.ListDeliveriesResponse](t, rr)
	require.Len(t, page.Deliveries, 1)
	assert.Equal(t, domain.FormContact, page.Deliveries[0].Form)
	assert.Equal(t, int64(40), page.Deliveries[0].DurationMS)
	assert.Equal(t, 1, page.Limit)

	rr = get("/admin/deliveries")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[httptransport.ListDeliveriesResponse](t, rr).Deliveries, 3)

	assert.Equal(t, http.StatusBadRequest, get("/admin/deliveries?limit=0").Code)
	assert.Equal(t, http.StatusBadRequest, get("/admin/deliveries?limit=abc").Code)
	assert.Equal(t, http.StatusBadRequest, get("/admin/deliveries?offset=-1").Code)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t, false)

	rr := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	s.do(t, http.MethodGet, "/forms", nil)
	rr = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "leadgate_http_requests_total")
}
