package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bluetecnologia/status_admin/internal/models"
)

// Metrics holds the gateway collectors.
type Metrics struct {
	Calls    *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "status_admin",
			Subsystem: "gateway",
			Name:      "calls_total",
			Help:      "Service gateway calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "status_admin",
			Subsystem: "gateway",
			Name:      "call_duration_seconds",
			Help:      "Service gateway call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(m.Calls, m.Duration)
	}
	return m
}

// Instrumented wraps a Gateway and records a sample per call.
type Instrumented struct {
	next    Gateway
	metrics *Metrics
}

func Instrument(next Gateway, metrics *Metrics) *Instrumented {
	return &Instrumented{next: next, metrics: metrics}
}

func (g *Instrumented) Create(ctx context.Context, rec models.ServiceRecord) (models.ServiceRecord, error) {
	defer g.observe(OpCreate, time.Now())
	out, err := g.next.Create(ctx, rec)
	g.count(OpCreate, err)
	return out, err
}

func (g *Instrumented) UpdateByID(ctx context.Context, id uint, rec models.ServiceRecord) (models.ServiceRecord, error) {
	defer g.observe(OpUpdate, time.Now())
	out, err := g.next.UpdateByID(ctx, id, rec)
	g.count(OpUpdate, err)
	return out, err
}

func (g *Instrumented) List(ctx context.Context) ([]models.ServiceRecord, error) {
	defer g.observe(OpList, time.Now())
	out, err := g.next.List(ctx)
	g.count(OpList, err)
	return out, err
}

func (g *Instrumented) FindByID(ctx context.Context, id uint) (models.ServiceRecord, error) {
	defer g.observe(OpFindByID, time.Now())
	out, err := g.next.FindByID(ctx, id)
	g.count(OpFindByID, err)
	return out, err
}

func (g *Instrumented) observe(op string, start time.Time) {
	g.metrics.Duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (g *Instrumented) count(op string, err error) {
	g.metrics.Calls.WithLabelValues(op, Outcome(err)).Inc()
}

// Outcome turns an error into a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrMissingID):
		return "invalid"
	default:
		return "error"
	}
}
