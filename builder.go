package goRateLimit

import (
	"os"
	"reflect"
	"time"

	"github.com/MrEthical07/goRateLimit/internal/audit"
	"github.com/MrEthical07/goRateLimit/internal/keys"
	"github.com/MrEthical07/goRateLimit/internal/limiter"
	"github.com/MrEthical07/goRateLimit/store"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. A Builder is single-use: Build may succeed once.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	store  store.Store

	clock     func() time.Time
	logger    Logger
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithPolicy replaces only the admission policy.
func (b *Builder) WithPolicy(p PolicyConfig) *Builder {
	b.config.Policy = p
	b.config = cloneConfig(b.config)
	return b
}

// WithRedis selects the Redis counter store backed by client.
//
// WithRedis is ignored when WithStore is also used.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore selects a caller-supplied counter store. Stores that also
// implement store.Updater are used atomically in strict mode. A nil store,
// typed or not, counts as no store.
func (b *Builder) WithStore(st store.Store) *Builder {
	b.store = st
	return b
}

// WithClock overrides the time source used for requests without a timestamp
// and for Redis key expiry.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithLogger overrides the default JSON-lines logger on stderr.
func (b *Builder) WithLogger(l Logger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink sets the audit consumer. Audit.Enabled must also be set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the Evaluate latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Engine.
//
// An engine without any counter store is valid: every Evaluate then answers
// 500 "No rate-limit repository has been configured.".
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = NewStdLogger(os.Stderr)
	}

	for _, w := range cfg.Lint() {
		if w.Severity == LintWarn {
			logger.Info("rate-limit configuration warning", map[string]any{
				"code":    w.Code,
				"message": w.Message,
			})
		}
	}

	metrics := NewMetrics(cfg.Metrics)

	// -------- COUNTER STORE --------
	var base store.Store
	switch {
	case !isNil(b.store):
		base = b.store
	case !isNil(b.redis):
		base = store.NewRedisStore(
			b.redis,
			store.WithPrefix(cfg.redisPrefix()),
			store.WithMaxRetries(cfg.Store.MaxUpdateRetries),
			store.WithClock(clock),
		)
	default:
		logger.Info("rate-limit engine built without a counter store", map[string]any{
			"kind": cfg.Policy.Kind.String(),
		})
	}

	var async *store.AsyncStore
	active := base
	if base != nil && cfg.Policy.Async {
		async = store.NewAsyncStore(base, store.AsyncConfig{
			BufferSize:   cfg.Async.BufferSize,
			DropIfFull:   cfg.Async.DropIfFull,
			FlushTimeout: cfg.Async.FlushTimeout,
			OnError: func(rec store.Record, err error) {
				metrics.Inc(MetricAsyncWriteFailed)
				logger.Error("async counter write failed", map[string]any{
					"key":   rec.Key,
					"error": err.Error(),
				})
			},
		})
		active = async
	}

	// -------- AUDIT --------
	var dispatcher *audit.Dispatcher
	if cfg.Audit.Enabled {
		dispatcher = audit.NewDispatcher(b.auditSink, cfg.Audit.BufferSize, cfg.Audit.DropIfFull)
	}

	b.built = true

	return &Engine{
		config: cfg,
		policy: limiter.Policy{
			Kind:       cfg.Policy.Kind,
			Tiers:      cfg.Policy.Tiers,
			AddHeaders: cfg.Policy.AddHeaders,
			Async:      cfg.Policy.Async,
		},
		limiter: limiter.New(keys.NewBuilder(cfg.Keys.PathHash)),
		store:   active,
		async:   async,
		metrics: metrics,
		audit:   dispatcher,
		logger:  logger,
		now:     clock,
	}, nil
}

// isNil also catches interfaces holding a nil pointer.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
