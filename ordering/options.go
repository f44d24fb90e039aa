package ordering

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/seb7887/listkit/eventbus"
)

// IncrementPolicy decides what the public IncrementPosition does at the top
// of a list. Swaps performed by the move operations ignore it.
type IncrementPolicy int

const (
	// IncrementAlways moves the row one step down wherever it is.
	IncrementAlways IncrementPolicy = iota
	// IncrementSkipTop leaves a row at position 1 alone.
	IncrementSkipTop
)

func (p IncrementPolicy) String() string {
	switch p {
	case IncrementAlways:
		return "always"
	case IncrementSkipTop:
		return "skip_top"
	}
	return "unknown"
}

// ParseIncrementPolicy maps "always" and "skip_top" to a policy. Empty is IncrementAlways.
func ParseIncrementPolicy(s string) (IncrementPolicy, bool) {
	switch s {
	case "", "always":
		return IncrementAlways, true
	case "skip_top":
		return IncrementSkipTop, true
	}
	return IncrementAlways, false
}

type options struct {
	column     string
	idColumn   string
	policy     IncrementPolicy
	logger     *slog.Logger
	metrics    *Metrics
	tracer     trace.TracerProvider
	bus        eventbus.Bus
	topic      string
	serializer *Serializer
}

// Option configures a List
type Option func(*options)

// WithColumn sets the position column. Default "position".
func WithColumn(name string) Option {
	return func(o *options) { o.column = name }
}

// WithIDColumn sets the identity column used to exclude a row from bottom
// lookups. Default "id".
func WithIDColumn(name string) Option {
	return func(o *options) { o.idColumn = name }
}

func WithIncrementPolicy(p IncrementPolicy) Option {
	return func(o *options) { o.policy = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracerProvider overrides the global otel provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracer = tp }
}

// WithPublisher publishes an Event on topic after every committed change.
func WithPublisher(bus eventbus.Bus, topic string) Option {
	return func(o *options) {
		o.bus = bus
		o.topic = topic
	}
}

// WithSerializer funnels operations on the same scope through one worker.
func WithSerializer(s *Serializer) Option {
	return func(o *options) { o.serializer = s }
}
