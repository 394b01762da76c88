package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
var (
	MetricAttrMovementType = attribute.Key("movement_type")
	MetricAttrEntryType    = attribute.Key("entry_type")
	MetricAttrOperation    = attribute.Key("operation")
	MetricAttrCheck        = attribute.Key("check")
	MetricAttrOutcome      = attribute.Key("outcome")
	MetricAttrStatus       = attribute.Key("status")
)

const (
	metricMovements       = "munch.inventory.movements"
	metricEntries         = "munch.ledger.entries"
	metricChecks          = "munch.verification.checks"
	metricRepairs         = "munch.verification.repairs"
	metricPostingDuration = "munch.posting.duration"
)

var postingBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// LedgerMetrics groups the instruments the services report to. A nil
// *LedgerMetrics is valid and records nothing.
type LedgerMetrics struct {
	movements       metric.Int64Counter
	entries         metric.Int64Counter
	checks          metric.Int64Counter
	repairs         metric.Int64Counter
	postingDuration metric.Float64Histogram
}

// NewLedgerMetrics registers the ledger instruments on meter.
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	m := &LedgerMetrics{}
	counters := []struct {
		dst        *metric.Int64Counter
		name, desc string
		unit       string
	}{
		{&m.movements, metricMovements, "Inventory movements recorded", "{movement}"},
		{&m.entries, metricEntries, "Journal entries posted", "{entry}"},
		{&m.checks, metricChecks, "Consistency checks evaluated", "{check}"},
		{&m.repairs, metricRepairs, "Repair actions attempted", "{action}"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("failed to create counter %s: %w", c.name, err)
		}
		*c.dst = counter
	}

	h, err := meter.Float64Histogram(metricPostingDuration,
		metric.WithDescription("Time spent inside one posting transaction"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(postingBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram %s: %w", metricPostingDuration, err)
	}
	m.postingDuration = h
	return m, nil
}

// MovementRecorded counts one inventory movement.
func (m *LedgerMetrics) MovementRecorded(ctx context.Context, movementType string) {
	if m == nil {
		return
	}
	m.movements.Add(ctx, 1, metric.WithAttributes(MetricAttrMovementType.String(movementType)))
}

// EntryPosted counts one journal entry.
func (m *LedgerMetrics) EntryPosted(ctx context.Context, entryType string) {
	if m == nil {
		return
	}
	m.entries.Add(ctx, 1, metric.WithAttributes(MetricAttrEntryType.String(entryType)))
}

// CheckEvaluated counts one check result.
func (m *LedgerMetrics) CheckEvaluated(ctx context.Context, check string, ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.checks.Add(ctx, 1, metric.WithAttributes(MetricAttrCheck.String(check), MetricAttrStatus.String(status)))
}

// RepairAttempted counts one repair action by outcome.
func (m *LedgerMetrics) RepairAttempted(ctx context.Context, check, outcome string) {
	if m == nil {
		return
	}
	m.repairs.Add(ctx, 1, metric.WithAttributes(MetricAttrCheck.String(check), MetricAttrOutcome.String(outcome)))
}

// ObservePosting records how long operation took, in seconds.
func (m *LedgerMetrics) ObservePosting(ctx context.Context, operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.postingDuration.Record(ctx, d.Seconds(), metric.WithAttributes(MetricAttrOperation.String(operation)))
}
