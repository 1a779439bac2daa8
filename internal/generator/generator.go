// Package generator turns a session plan, a class roster and a .docx
// template into a rendered Word document.
//
// One call to Generate runs the whole pipeline: resolve the template, decode
// and validate both documents, derive the period and student ages, render,
// and name the output file. Every stage gets its own span.
package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sesiond/internal/calendar"
	"github.com/fyrsmithlabs/sesiond/internal/docx"
	"github.com/fyrsmithlabs/sesiond/internal/logging"
	"github.com/fyrsmithlabs/sesiond/internal/plan"
	"github.com/fyrsmithlabs/sesiond/internal/sanitize"
	"github.com/fyrsmithlabs/sesiond/internal/schema"
)

const instrumentationName = "github.com/fyrsmithlabs/sesiond/internal/generator"

// DefaultCacheSize is the number of parsed uploaded templates kept.
const DefaultCacheSize = 32

// TemplateSource provides the configured default template.
type TemplateSource interface {
	Current() *docx.Template
}

// Request holds the inputs of one generation.
type Request struct {
	// Template is the uploaded .docx. Empty selects the default template.
	Template []byte

	Session []byte
	Class   []byte

	// StartDate is YYYY-MM-DD.
	StartDate string
}

// Document is a rendered result.
type Document struct {
	Filename string
	Content  []byte
	Period   string
}

// Service generates documents. It is safe for concurrent use.
type Service struct {
	cache    *docx.Cache
	defaults TemplateSource
	tracer   trace.Tracer
	logger   *logging.Logger
	metrics  *Metrics
	now      func() time.Time

	cacheSize int
	registry  prometheus.Registerer
}

// Option configures a Service.
type Option func(*Service)

// WithDefaultTemplate sets the template used when a request uploads none.
func WithDefaultTemplate(src TemplateSource) Option {
	return func(s *Service) { s.defaults = src }
}

// WithTracer sets the tracer. Defaults to the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithRegisterer registers the generator metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Service) { s.registry = reg }
}

// WithClock sets the source of "today" for student ages.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCacheSize sets how many parsed uploads are cached.
func WithCacheSize(n int) Option {
	return func(s *Service) { s.cacheSize = n }
}

// New creates a Service.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		logger:    logging.NewNop(),
		now:       time.Now,
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(instrumentationName)
	}

	cache, err := docx.NewCache(s.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating template cache: %w", err)
	}
	s.cache = cache

	if s.metrics, err = NewMetrics(s.registry); err != nil {
		return nil, err
	}
	return s, nil
}

// Metrics returns the generator metrics.
func (s *Service) Metrics() *Metrics { return s.metrics }

// HasDefaultTemplate reports whether requests may omit the template.
func (s *Service) HasDefaultTemplate() bool {
	return s.defaults != nil && s.defaults.Current() != nil
}

// Generate runs the whole pipeline for req.
func (s *Service) Generate(ctx context.Context, req Request) (doc *Document, err error) {
	ctx, span := s.tracer.Start(ctx, "generator.Generate")
	defer func() {
		s.finish(ctx, span, doc, err)
		span.End()
	}()

	if err := s.checkInputs(req); err != nil {
		return nil, err
	}

	start, err := calendar.ParseStartDate(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStartDate, err)
	}

	session, class, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	enriched, err := s.enrich(ctx, session, class, start)
	if err != nil {
		return nil, err
	}

	tmpl, err := s.template(ctx, req.Template)
	if err != nil {
		return nil, err
	}

	content, err := s.render(ctx, tmpl, enriched.Context)
	if err != nil {
		return nil, err
	}

	doc = &Document{
		Filename: sanitize.Filename(enriched.ProjectName(), enriched.Period.String()),
		Content:  content,
		Period:   enriched.Period.String(),
	}
	span.SetAttributes(
		attribute.String("document.filename", doc.Filename),
		attribute.Int("document.size", len(doc.Content)),
	)
	return doc, nil
}

func (s *Service) checkInputs(req Request) error {
	switch {
	case len(req.Template) == 0 && !s.HasDefaultTemplate():
		return fmt.Errorf("%w: template file is required", ErrMissingInput)
	case len(req.Session) == 0:
		return fmt.Errorf("%w: session plan JSON is required", ErrMissingInput)
	case len(req.Class) == 0:
		return fmt.Errorf("%w: class roster JSON is required", ErrMissingInput)
	case req.StartDate == "":
		return fmt.Errorf("%w: start date is required", ErrMissingInput)
	}
	return nil
}

// validate canonicalizes both documents and checks them against their rule
// sets, returning the canonical forms so rendering reads exactly what was
// validated. Malformed JSON is reported before any field problems.
func (s *Service) validate(ctx context.Context, req Request) (session, class []byte, err error) {
	_, span := s.tracer.Start(ctx, "generator.validate")
	defer span.End()

	if session, err = plan.Canonicalize("session plan", req.Session); err != nil {
		return nil, nil, err
	}
	if class, err = plan.Canonicalize("class roster", req.Class); err != nil {
		return nil, nil, err
	}

	for _, d := range []struct {
		kind schema.Kind
		data []byte
	}{
		{schema.KindSession, session},
		{schema.KindClass, class},
	} {
		if err := schema.Validate(d.kind, d.data); err != nil {
			s.metrics.ValidationFailuresTotal.WithLabelValues(string(d.kind)).Inc()
			span.SetAttributes(attribute.String("validation.document", string(d.kind)))
			return nil, nil, newValidationError(d.kind, err)
		}
	}
	return session, class, nil
}

func (s *Service) enrich(ctx context.Context, session, class []byte, start time.Time) (*plan.Enriched, error) {
	_, span := s.tracer.Start(ctx, "generator.enrich")
	defer span.End()

	enriched, err := plan.Enrich(session, class, start, s.now())
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("plan.period", enriched.Period.String()))
	return enriched, nil
}

// template returns the parsed upload, or the default template when data is empty.
func (s *Service) template(ctx context.Context, data []byte) (*docx.Template, error) {
	_, span := s.tracer.Start(ctx, "generator.template")
	defer span.End()

	if len(data) == 0 {
		span.SetAttributes(attribute.String("template.source", "default"))
		if s.defaults != nil {
			if tmpl := s.defaults.Current(); tmpl != nil {
				return tmpl, nil
			}
		}
		return nil, fmt.Errorf("%w: template file is required", ErrMissingInput)
	}

	tmpl, hit, err := s.cache.Parse(data)
	span.SetAttributes(
		attribute.String("template.source", "upload"),
		attribute.Bool("template.cache_hit", hit),
	)
	if err != nil {
		return nil, err
	}
	if hit {
		s.metrics.CacheHitsTotal.Inc()
	} else {
		s.metrics.CacheMissesTotal.Inc()
	}
	return tmpl, nil
}

func (s *Service) render(ctx context.Context, tmpl *docx.Template, data map[string]any) ([]byte, error) {
	_, span := s.tracer.Start(ctx, "generator.render")
	defer span.End()

	started := time.Now()
	out, err := tmpl.Render(data)
	s.metrics.RenderDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, err
	}
	s.metrics.DocumentSize.Observe(float64(len(out)))
	return out, nil
}

func (s *Service) finish(ctx context.Context, span trace.Span, doc *Document, err error) {
	switch {
	case err == nil:
		s.metrics.DocumentsTotal.WithLabelValues(ResultSuccess).Inc()
		s.logger.Info(ctx, "document generated",
			zap.String("filename", doc.Filename),
			zap.String("period", doc.Period),
			zap.String("size", humanize.Bytes(uint64(len(doc.Content)))))
	case IsClientError(err):
		s.metrics.DocumentsTotal.WithLabelValues(ResultClientError).Inc()
		span.SetStatus(codes.Error, "rejected")
		span.RecordError(err)
		s.logger.Info(ctx, "generation rejected", zap.Error(err))
	default:
		s.metrics.DocumentsTotal.WithLabelValues(ResultServerError).Inc()
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		s.logger.Error(ctx, "generation failed", zap.Error(err))
	}
}
