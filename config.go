package goRateLimit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goRateLimit/internal/window"
)

// Config is the full engine configuration. Start from DefaultConfig and
// override what differs.
type Config struct {
	Policy  PolicyConfig
	Keys    KeysConfig
	Store   StoreConfig
	Async   AsyncConfig
	Metrics MetricsConfig
	Audit   AuditConfig
}

// PolicyConfig is the admission policy attached to one API.
type PolicyConfig struct {
	Kind       PolicyKind
	Tiers      []Tier
	AddHeaders bool
	// Async selects relaxed (write-behind) counting instead of strict
	// read-modify-write.
	Async bool
}

// KeysConfig controls counter key derivation.
type KeysConfig struct {
	PathHash PathHash
}

// StoreConfig tunes the built-in Redis store. It is ignored when a store is
// supplied directly with Builder.WithStore.
type StoreConfig struct {
	// RedisPrefix namespaces counter keys. Empty selects "rl" for rate limits
	// and "rq" for quotas.
	RedisPrefix string
	// MaxUpdateRetries bounds optimistic-lock retries of a strict update.
	MaxUpdateRetries int
}

// AsyncConfig tunes the write-behind queue used when Policy.Async is set.
type AsyncConfig struct {
	BufferSize   int
	DropIfFull   bool
	FlushTimeout time.Duration
}

// MetricsConfig enables the in-process counters and the Evaluate latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// AuditConfig enables the rejection audit stream.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// DefaultConfig returns a rate-limit configuration with headers enabled,
// strict counting and no tiers. At least one tier must be added before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Policy: PolicyConfig{
			Kind:       KindRateLimit,
			AddHeaders: true,
		},
		Keys: KeysConfig{
			PathHash: PathHashXXH64,
		},
		Store: StoreConfig{
			MaxUpdateRetries: 16,
		},
		Async: AsyncConfig{
			BufferSize:   1024,
			DropIfFull:   true,
			FlushTimeout: 2 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Policy.Tiers != nil {
		out.Policy.Tiers = append([]Tier(nil), cfg.Policy.Tiers...)
	}
	return out
}

func (c *Config) redisPrefix() string {
	if c.Store.RedisPrefix != "" {
		return c.Store.RedisPrefix
	}
	if c.Policy.Kind == KindQuota {
		return "rq"
	}
	return "rl"
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration error, wrapped in ErrInvalidPolicy
// when it concerns the policy itself.
func (c *Config) Validate() error {
	if err := c.Policy.Validate(); err != nil {
		return err
	}

	if !c.Keys.PathHash.Valid() {
		return fmt.Errorf("Keys.PathHash %q is not supported", c.Keys.PathHash)
	}

	if c.Store.MaxUpdateRetries < 0 {
		return errors.New("Store.MaxUpdateRetries must be >= 0")
	}

	if c.Policy.Async {
		if c.Async.BufferSize <= 0 {
			return errors.New("Async.BufferSize must be > 0 when Policy.Async is enabled")
		}
		if c.Async.FlushTimeout <= 0 {
			return errors.New("Async.FlushTimeout must be > 0 when Policy.Async is enabled")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be > 0 when audit is enabled")
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics.EnableLatencyHistograms requires Metrics.Enabled")
	}

	return nil
}

// Validate checks the policy's kind and every tier.
func (p PolicyConfig) Validate() error {
	if p.Kind != KindRateLimit && p.Kind != KindQuota {
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidPolicy, p.Kind)
	}
	if len(p.Tiers) == 0 {
		return fmt.Errorf("%w: at least one tier is required", ErrInvalidPolicy)
	}
	for i, t := range p.Tiers {
		if t.Limit <= 0 {
			return fmt.Errorf("%w: tier %d limit must be > 0", ErrInvalidPolicy, i)
		}
		if t.PeriodTime <= 0 {
			return fmt.Errorf("%w: tier %d periodTime must be > 0", ErrInvalidPolicy, i)
		}
		if !t.PeriodTimeUnit.Valid() {
			return fmt.Errorf("%w: tier %d periodTimeUnit is not supported", ErrInvalidPolicy, i)
		}
		if limit := window.MaxPeriod(t.PeriodTimeUnit); t.PeriodTime > limit {
			return fmt.Errorf("%w: tier %d periodTime must be <= %d %s", ErrInvalidPolicy, i, limit, t.PeriodTimeUnit)
		}
	}
	return nil
}

/*
====================================
POLICY DOCUMENT
====================================
*/

type tierDocument struct {
	Limit          int64        `json:"limit"`
	PeriodTime     *int64       `json:"periodTime"`
	PeriodTimeUnit *window.Unit `json:"periodTimeUnit"`
}

type policyDocument struct {
	RateLimits []tierDocument `json:"rateLimits"`
	Quotas     []tierDocument `json:"quotas"`
	AddHeaders *bool          `json:"addHeaders"`
	Async      bool           `json:"async"`
}

// ParsePolicyConfig decodes a gateway policy document:
//
//	{"rateLimits":[{"limit":5,"periodTime":1,"periodTimeUnit":"HOURS"}],"addHeaders":true,"async":false}
//
// Quota documents list their tiers under "quotas" instead; the array that does
// not match kind is rejected. A missing periodTime defaults to 1, a missing
// periodTimeUnit defaults to HOURS for rate limits and MONTHS for quotas, and a
// missing addHeaders defaults to true.
// The result is validated before it is returned.
func ParsePolicyConfig(kind PolicyKind, data []byte) (PolicyConfig, error) {
	var doc policyDocument
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return PolicyConfig{}, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}

	entries := doc.RateLimits
	defaultUnit := Hours
	if kind == KindQuota {
		entries = doc.Quotas
		defaultUnit = Months
		if doc.RateLimits != nil {
			return PolicyConfig{}, fmt.Errorf("%w: quota policies list tiers under \"quotas\", not \"rateLimits\"", ErrInvalidPolicy)
		}
	} else if doc.Quotas != nil {
		return PolicyConfig{}, fmt.Errorf("%w: rate-limit policies list tiers under \"rateLimits\", not \"quotas\"", ErrInvalidPolicy)
	}

	p := PolicyConfig{
		Kind:       kind,
		AddHeaders: true,
		Async:      doc.Async,
	}
	if doc.AddHeaders != nil {
		p.AddHeaders = *doc.AddHeaders
	}

	p.Tiers = make([]Tier, 0, len(entries))
	for _, e := range entries {
		t := Tier{
			Limit:          e.Limit,
			PeriodTime:     1,
			PeriodTimeUnit: defaultUnit,
		}
		if e.PeriodTime != nil {
			t.PeriodTime = *e.PeriodTime
		}
		if e.PeriodTimeUnit != nil {
			t.PeriodTimeUnit = *e.PeriodTimeUnit
		}
		p.Tiers = append(p.Tiers, t)
	}

	if err := p.Validate(); err != nil {
		return PolicyConfig{}, err
	}
	return p, nil
}
