package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ellistech/leadgate/internal/lead_service/domain"
	"github.com/google/uuid"
)

// DefaultResetDelay is how long success/error feedback lasts before idle.
const DefaultResetDelay = 3 * time.Second

// Sender delivers one formatted payload and reports whether it arrived.
// Implementations never return an error: every failure is false.
type Sender interface {
	Send(ctx context.Context, message string) bool
}

// OutcomeSink records delivery attempts (ledger, event bus, ...).
type OutcomeSink interface {
	Record(ctx context.Context, attempt domain.DeliveryAttempt) error
}

// MultiSink fans an attempt out to every sink and joins their errors.
type MultiSink []OutcomeSink

func (m MultiSink) Record(ctx context.Context, attempt domain.DeliveryAttempt) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, attempt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Pipeline holds what every form controller shares: the catalog, the
// validator, the formatter and the delivery side.
type Pipeline struct {
	catalog    *domain.Catalog
	validator  *FieldValidator
	formatter  *PayloadFormatter
	sender     Sender
	sink       OutcomeSink
	resetDelay time.Duration
	logger     *slog.Logger
}

type PipelineOption func(*Pipeline)

// WithResetDelay overrides DefaultResetDelay.
func WithResetDelay(d time.Duration) PipelineOption {
	return func(p *Pipeline) { p.resetDelay = d }
}

// WithOutcomeSink records every delivery attempt to sink.
func WithOutcomeSink(sink OutcomeSink) PipelineOption {
	return func(p *Pipeline) { p.sink = sink }
}

func NewPipeline(catalog *domain.Catalog, validator *FieldValidator, sender Sender, logger *slog.Logger, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		catalog:    catalog,
		validator:  validator,
		formatter:  NewPayloadFormatter(catalog),
		sender:     sender,
		resetDelay: DefaultResetDelay,
		logger:     logger.With("component", "lead_pipeline"),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Validate checks values against schema without submitting anything.
func (p *Pipeline) Validate(schema *domain.FormSchema, values map[string]string) error {
	return p.validator.Validate(schema, values)
}

func (p *Pipeline) Catalog() *domain.Catalog {
	return p.catalog
}

func (p *Pipeline) Formatter() *PayloadFormatter {
	return p.formatter
}

// Open starts a form session for kind. serviceTitle is the service the form
// was opened for; it pre-fills the service field and, on quote forms, the
// project type. onClose runs when a modal form closes itself after success.
func (p *Pipeline) Open(kind domain.FormKind, serviceTitle string, onClose func()) (*Controller, error) {
	schema, err := p.catalog.Form(kind)
	if err != nil {
		return nil, err
	}
	c := newController(uuid.NewString(), schema, p, onClose)
	if serviceTitle != "" {
		if schema.ServiceField != "" {
			_ = c.request.SetField(schema.ServiceField, serviceTitle)
		}
		if schema.DeriveProjectType {
			_ = c.request.SetField(domain.ProjectTypeField, domain.DeriveProjectType(serviceTitle))
		}
	}
	p.logger.Debug("Form session opened", "session_id", c.id, "form", kind, "service_title", serviceTitle)
	return c, nil
}

// SubmitOnce opens a form, applies fields over the pre-filled values,
// submits and closes it.
func (p *Pipeline) SubmitOnce(ctx context.Context, kind domain.FormKind, serviceTitle string, fields map[string]string) (Outcome, error) {
	c, err := p.Open(kind, serviceTitle, nil)
	if err != nil {
		return Outcome{}, err
	}
	defer c.Close()
	for name, value := range fields {
		if err := c.SetField(name, value); err != nil {
			return Outcome{}, err
		}
	}
	return c.Submit(ctx)
}
