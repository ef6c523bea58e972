package knowledgebase

import (
	"time"

	"github.com/rs/zerolog/log"

	"vellum/internal/objectstore"
)

// Clock abstracts time so ingestion timing is testable without sleeping.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Logger is the minimal structured-logging surface the Façade depends on.
type Logger interface {
	Info(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
	Debug(msg string, fields map[string]any)
}

// zerologLogger adapts the package-global zerolog logger (configured by
// observability.InitLogger) to the Logger interface.
type zerologLogger struct{}

func (zerologLogger) Info(msg string, fields map[string]any) {
	e := log.Info()
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	e.Msg(msg)
}

func (zerologLogger) Error(msg string, fields map[string]any) {
	e := log.Error()
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	e.Msg(msg)
}

func (zerologLogger) Debug(msg string, fields map[string]any) {
	e := log.Debug()
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	e.Msg(msg)
}

// Metrics is a placeholder counters/histograms surface; a Prometheus or OTel
// metrics exporter can satisfy it without the Façade depending on either.
type Metrics interface {
	IncCounter(name string, labels map[string]string)
	ObserveHistogram(name string, value float64, labels map[string]string)
}

// NoopMetrics discards every observation.
type NoopMetrics struct{}

func (NoopMetrics) IncCounter(string, map[string]string)                {}
func (NoopMetrics) ObserveHistogram(string, float64, map[string]string) {}

// Option configures a Service at construction time.
type Option func(*Service)

// WithLogger overrides the default zerolog-backed Logger.
func WithLogger(l Logger) Option { return func(s *Service) { s.log = l } }

// WithMetrics overrides the default no-op Metrics.
func WithMetrics(m Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithClock overrides the default SystemClock, for deterministic tests.
func WithClock(c Clock) Option { return func(s *Service) { s.clock = c } }

// WithConvertedDocDir points converted_docs/ persistence at a local
// directory (spec §6's converted_docs/ layout) by installing a filesystem-
// backed ObjectStore, unless WithObjectStore has already set one. Empty
// leaves the copy disabled.
func WithConvertedDocDir(dir string) Option {
	return func(s *Service) {
		if dir == "" || s.objStore != nil {
			return
		}
		store, err := objectstore.NewFSStore(dir)
		if err != nil {
			s.log.Error("converted_docs fs store init failed", map[string]any{"error": err.Error()})
			return
		}
		s.objStore = store
	}
}

// WithObjectStore overrides the converted_docs/ persistence backend, e.g. an
// S3-backed store built via objectstore.NewFromConfig for off-box durability.
func WithObjectStore(store objectstore.ObjectStore) Option {
	return func(s *Service) { s.objStore = store }
}

func ms(d time.Duration) int64 { return d.Milliseconds() }
