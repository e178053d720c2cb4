package goRateLimit

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goRateLimit/internal/audit"
	"github.com/MrEthical07/goRateLimit/internal/limiter"
	"github.com/MrEthical07/goRateLimit/store"
	"github.com/google/uuid"
)

// Engine makes admission decisions for one policy.
//
// Engine instances are built once through Builder and are safe for concurrent
// use. Close must be called to flush asynchronous writes and audit events.
type Engine struct {
	config  Config
	policy  limiter.Policy
	limiter *limiter.Limiter
	store   store.Store
	async   *store.AsyncStore
	metrics *Metrics
	audit   *audit.Dispatcher
	logger  Logger
	now     func() time.Time
}

// Evaluate decides whether req is admitted and returns the headers to attach
// either way.
//
// Evaluate never returns an error: infrastructure faults surface as a Reject
// outcome with status 500 and Outcome.Err set.
func (e *Engine) Evaluate(ctx context.Context, req Request) Outcome {
	start := time.Now()
	if ctx == nil {
		ctx = context.Background()
	}

	now := req.Now
	if now.IsZero() {
		now = e.now()
	}

	out := e.limiter.Evaluate(ctx, e.store, e.policy, limiter.Request{
		APIID:         req.APIID,
		ApplicationID: req.ApplicationID,
		Path:          req.Path,
		Now:           now.UnixMilli(),
	})

	e.metricInc(MetricEvaluation)
	switch {
	case out.Admitted():
		e.metricInc(MetricAdmitted)
	case errors.Is(out.Err, ErrStoreNotConfigured):
		e.metricInc(MetricStoreMissing)
		e.emitAudit(ctx, req, now, audit.EventStoreNotConfigured, out)
	case out.Err != nil:
		e.metricInc(MetricStoreFailure)
		e.logger.Error("rate-limit store call failed", map[string]any{
			"api_id":         req.APIID,
			"application_id": req.ApplicationID,
			"error":          out.Err.Error(),
		})
		e.emitAudit(ctx, req, now, audit.EventStoreUnavailable, out)
	default:
		e.metricInc(MetricRejected)
		eventType := audit.EventRateLimitExceeded
		if e.policy.Kind == KindQuota {
			eventType = audit.EventQuotaExceeded
		}
		e.emitAudit(ctx, req, now, eventType, out)
	}

	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricEvaluateLatency, time.Since(start))
	}
	return out
}

func (e *Engine) emitAudit(ctx context.Context, req Request, now time.Time, eventType string, out Outcome) {
	if e.audit == nil {
		return
	}
	event := audit.Event{
		ID:            uuid.NewString(),
		Timestamp:     now.UTC(),
		EventType:     eventType,
		APIID:         req.APIID,
		ApplicationID: req.ApplicationID,
		Path:          req.Path,
		Tier:          out.ExceededTier,
		StatusCode:    out.Result.StatusCode,
		Message:       out.Result.Message,
	}
	if out.Err != nil {
		event.Error = out.Err.Error()
	}
	e.audit.Emit(ctx, event)
}

// Policy returns a copy of the policy this engine enforces.
func (e *Engine) Policy() PolicyConfig {
	p := e.config.Policy
	p.Tiers = append([]Tier(nil), p.Tiers...)
	return p
}

// Close flushes queued counter writes, then queued audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.async != nil {
		e.async.Close()
	}
	if e.audit != nil {
		e.audit.Close()
	}
	e.logger.Info("rate-limit engine closed", map[string]any{
		"async_dropped": e.AsyncDropped(),
		"audit_dropped": e.AuditDropped(),
	})
}

// AuditDropped returns how many audit events were discarded on a full queue.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AsyncDropped returns how many write-behind counter saves were discarded on
// a full queue. It is always zero in strict mode.
func (e *Engine) AsyncDropped() uint64 {
	if e == nil || e.async == nil {
		return 0
	}
	return e.async.Dropped()
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}
