package internaldefs

import (
	goRateLimit "github.com/MrEthical07/goRateLimit"
)

// CounterDef binds an engine counter to its exported name.
type CounterDef struct {
	ID   goRateLimit.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its exported name.
type HistogramDef struct {
	ID   goRateLimit.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported engine counter in render order.
var CounterDefs = []CounterDef{
	{ID: goRateLimit.MetricEvaluation, Name: "ratelimit_evaluations_total", Help: "Admission decisions made."},
	{ID: goRateLimit.MetricAdmitted, Name: "ratelimit_admitted_total", Help: "Requests admitted by every tier."},
	{ID: goRateLimit.MetricRejected, Name: "ratelimit_rejected_total", Help: "Requests rejected by an exceeded tier."},
	{ID: goRateLimit.MetricStoreMissing, Name: "ratelimit_store_missing_total", Help: "Decisions answered 500 because no counter store is configured."},
	{ID: goRateLimit.MetricStoreFailure, Name: "ratelimit_store_failure_total", Help: "Decisions answered 500 because a counter store call failed."},
	{ID: goRateLimit.MetricAsyncWriteFailed, Name: "ratelimit_async_write_failed_total", Help: "Write-behind counter saves rejected by the store."},
}

// HistogramDefs lists every exported engine histogram.
var HistogramDefs = []HistogramDef{
	{ID: goRateLimit.MetricEvaluateLatency, Name: "ratelimit_evaluate_latency_seconds", Help: "Evaluate latency histogram."},
}

const (
	AuditDroppedName = "ratelimit_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
	AsyncDroppedName = "ratelimit_async_dropped_total"
	AsyncDroppedHelp = "Dropped write-behind counter saves due to queue backpressure."
)

// HistogramBounds are the upper bounds of the engine latency buckets, in seconds.
var HistogramBounds = []string{
	"0.0001",
	"0.00025",
	"0.0005",
	"0.001",
	"0.005",
	"0.025",
	"0.1",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds in a form usable inside instrument names.
var HistogramBoundSuffix = []string{
	"0_0001",
	"0_00025",
	"0_0005",
	"0_001",
	"0_005",
	"0_025",
	"0_1",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
