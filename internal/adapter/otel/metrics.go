package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "lspkeeper"

// Metrics holds all lspkeeper metric instruments. A nil *Metrics records
// nothing.
type Metrics struct {
	InstallsStarted  metric.Int64Counter
	InstallsFinished metric.Int64Counter
	InstallDuration  metric.Float64Histogram
	ClientStarts     metric.Int64Counter
	Restarts         metric.Int64Counter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.InstallsStarted, err = meter.Int64Counter("lspkeeper.install.started",
		metric.WithDescription("Number of package-manager installs started"))
	if err != nil {
		return nil, err
	}

	m.InstallsFinished, err = meter.Int64Counter("lspkeeper.install.finished",
		metric.WithDescription("Number of installs finished, by outcome"))
	if err != nil {
		return nil, err
	}

	m.InstallDuration, err = meter.Float64Histogram("lspkeeper.install.duration_seconds",
		metric.WithDescription("Install duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.ClientStarts, err = meter.Int64Counter("lspkeeper.client.starts",
		metric.WithDescription("Language client start attempts, by result"))
	if err != nil {
		return nil, err
	}

	m.Restarts, err = meter.Int64Counter("lspkeeper.client.restarts",
		metric.WithDescription("Restart commands, by result"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// InstallStarted counts an install start.
func (m *Metrics) InstallStarted(ctx context.Context, action string) {
	if m == nil {
		return
	}
	m.InstallsStarted.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
}

// InstallFinished counts an install by outcome and records its duration.
func (m *Metrics) InstallFinished(ctx context.Context, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.InstallsFinished.Add(ctx, 1, attrs)
	m.InstallDuration.Record(ctx, d.Seconds(), attrs)
}

// ClientStarted counts a client start attempt.
func (m *Metrics) ClientStarted(ctx context.Context, ok bool) {
	if m == nil {
		return
	}
	m.ClientStarts.Add(ctx, 1, metric.WithAttributes(attribute.Bool("ok", ok)))
}

// Restarted counts a restart command.
func (m *Metrics) Restarted(ctx context.Context, ok bool) {
	if m == nil {
		return
	}
	m.Restarts.Add(ctx, 1, metric.WithAttributes(attribute.Bool("ok", ok)))
}
