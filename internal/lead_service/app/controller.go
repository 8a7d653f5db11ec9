package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ellistech/leadgate/internal/lead_service/domain"
	"github.com/google/uuid"
)

// Outcome is what one submit action produced.
type Outcome struct {
	AttemptID string
	OK        bool
	Payload   string
	Status    domain.Status
}

// Snapshot is a point-in-time copy of a controller's state.
type Snapshot struct {
	ID        string
	Form      domain.FormKind
	Modal     bool
	Status    domain.Status
	Fields    map[string]string
	Aux       map[string]string
	UpdatedAt time.Time
}

// Controller runs the submit cycle of one open form:
//
//	idle -> sending -> success|error -> idle (after the reset delay)
//
// A success clears the fields at once; an error keeps them for a retry.
// There is no way to cancel a send in flight, and a second Submit while one
// is in flight fails with domain.ErrSubmitInFlight.
type Controller struct {
	id       string
	schema   *domain.FormSchema
	pipeline *Pipeline
	logger   *slog.Logger

	mu         sync.Mutex
	request    *domain.SubmissionRequest
	aux        map[string]string
	status     domain.Status
	inFlight   bool
	closed     bool
	resetTimer *time.Timer
	// cycle numbers submit cycles so a stale reset timer is ignored.
	cycle      int
	onClose    func()
	updatedAt  time.Time
	subs       map[int]func(domain.Status)
	nextSub    int
}

func newController(id string, schema *domain.FormSchema, p *Pipeline, onClose func()) *Controller {
	return &Controller{
		id:        id,
		schema:    schema,
		pipeline:  p,
		logger:    p.logger.With("session_id", id, "form", schema.Kind),
		request:   domain.NewSubmissionRequest(schema),
		aux:       map[string]string{},
		status:    domain.StatusIdle,
		onClose:   onClose,
		updatedAt: time.Now(),
		subs:      map[int]func(domain.Status){},
	}
}

func (c *Controller) ID() string { return c.id }

func (c *Controller) Schema() *domain.FormSchema { return c.schema }

// SetField updates one field value.
func (c *Controller) SetField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrSessionClosed
	}
	if err := c.request.SetField(name, value); err != nil {
		return err
	}
	c.updatedAt = time.Now()
	return nil
}

// SetAux stores UI state that lives beside the fields, such as the selected
// tab or package. It is cleared when a modal form closes after success.
func (c *Controller) SetAux(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrSessionClosed
	}
	if value == "" {
		delete(c.aux, key)
	} else {
		c.aux[key] = value
	}
	c.updatedAt = time.Now()
	return nil
}

func (c *Controller) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	aux := make(map[string]string, len(c.aux))
	for k, v := range c.aux {
		aux[k] = v
	}
	return Snapshot{
		ID:        c.id,
		Form:      c.schema.Kind,
		Modal:     c.schema.Modal,
		Status:    c.status,
		Fields:    c.request.Values(),
		Aux:       aux,
		UpdatedAt: c.updatedAt,
	}
}

// Subscribe registers fn for every status change. The returned func removes
// it again. fn runs outside the controller lock.
func (c *Controller) Subscribe(fn func(domain.Status)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// Submit validates, formats and delivers the current fields. A validation
// failure returns a *domain.ValidationError and leaves the status alone. A
// failed delivery is not an error: it is reported as Outcome.OK == false.
func (c *Controller) Submit(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if err := c.checkSubmittableLocked(); err != nil {
		c.mu.Unlock()
		return Outcome{}, err
	}
	values := c.request.Values()
	c.mu.Unlock()

	// Validation and formatting work on the copy, outside the lock.
	if err := c.pipeline.validator.Validate(c.schema, values); err != nil {
		leadSubmissionsCounter.WithLabelValues(string(c.schema.Kind), "invalid").Inc()
		c.logger.InfoContext(ctx, "Submission blocked by validation", "error", err)
		return Outcome{}, err
	}
	payload := c.pipeline.formatter.Format(c.schema, values)

	c.mu.Lock()
	if err := c.checkSubmittableLocked(); err != nil {
		c.mu.Unlock()
		return Outcome{}, err
	}
	c.stopResetTimerLocked()
	c.inFlight = true
	notify := c.setStatusLocked(domain.StatusSending)
	c.mu.Unlock()
	notify()

	start := time.Now()
	ok := c.pipeline.sender.Send(ctx, payload)
	elapsed := time.Since(start)
	deliveryDurationHist.WithLabelValues(string(c.schema.Kind)).Observe(elapsed.Seconds())

	c.mu.Lock()
	c.inFlight = false
	next := domain.StatusError
	if ok {
		next = domain.StatusSuccess
		c.request.Reset()
	}
	notify = c.setStatusLocked(next)
	if !c.closed {
		c.cycle++
		cycle := c.cycle
		c.resetTimer = time.AfterFunc(c.pipeline.resetDelay, func() { c.resetToIdle(cycle) })
	}
	c.mu.Unlock()
	notify()

	outcomeLabel := "error"
	if ok {
		outcomeLabel = "success"
	}
	leadSubmissionsCounter.WithLabelValues(string(c.schema.Kind), outcomeLabel).Inc()

	attempt := domain.DeliveryAttempt{
		ID:        uuid.NewString(),
		SessionID: c.id,
		Form:      c.schema.Kind,
		Payload:   payload,
		OK:        ok,
		Duration:  elapsed,
		CreatedAt: start.UTC(),
	}
	c.record(ctx, attempt)

	if ok {
		c.logger.InfoContext(ctx, "Lead delivered", "attempt_id", attempt.ID, "duration", elapsed)
	} else {
		c.logger.WarnContext(ctx, "Lead delivery failed", "attempt_id", attempt.ID, "duration", elapsed)
	}
	return Outcome{AttemptID: attempt.ID, OK: ok, Payload: payload, Status: next}, nil
}

func (c *Controller) checkSubmittableLocked() error {
	if c.closed {
		return domain.ErrSessionClosed
	}
	if c.inFlight {
		leadSubmissionsCounter.WithLabelValues(string(c.schema.Kind), "rejected").Inc()
		return domain.ErrSubmitInFlight
	}
	return nil
}

// Close discards the form. A send in flight still completes, but no reset
// timer is started for it.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopResetTimerLocked()
	c.subs = map[int]func(domain.Status){}
}

func (c *Controller) record(ctx context.Context, attempt domain.DeliveryAttempt) {
	if c.pipeline.sink == nil {
		return
	}
	// The request may already be cancelled; the ledger write should not be.
	if err := c.pipeline.sink.Record(context.WithoutCancel(ctx), attempt); err != nil {
		outcomeSinkErrorsCounter.WithLabelValues(string(c.schema.Kind)).Inc()
		c.logger.ErrorContext(ctx, "Failed to record delivery attempt", "attempt_id", attempt.ID, "error", err)
	}
}

func (c *Controller) resetToIdle(cycle int) {
	c.mu.Lock()
	if c.closed || cycle != c.cycle || c.status == domain.StatusIdle || c.status == domain.StatusSending {
		c.mu.Unlock()
		return
	}
	wasSuccess := c.status == domain.StatusSuccess
	c.resetTimer = nil
	var closeHook func()
	if wasSuccess && c.schema.Modal {
		c.aux = map[string]string{}
		closeHook = c.onClose
	}
	notify := c.setStatusLocked(domain.StatusIdle)
	c.mu.Unlock()

	notify()
	if closeHook != nil {
		c.logger.Debug("Closing modal form after successful submission")
		closeHook()
	}
}

func (c *Controller) stopResetTimerLocked() {
	if c.resetTimer != nil {
		c.resetTimer.Stop()
		c.resetTimer = nil
	}
}

// setStatusLocked changes the status and returns the notification to run
// once the lock is released.
func (c *Controller) setStatusLocked(s domain.Status) func() {
	c.status = s
	c.updatedAt = time.Now()
	subs := make([]func(domain.Status), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	return func() {
		for _, fn := range subs {
			fn(s)
		}
	}
}

// IsValidation reports whether err came from field validation.
func IsValidation(err error) bool {
	var verr *domain.ValidationError
	return errors.As(err, &verr)
}
