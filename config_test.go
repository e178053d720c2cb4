package goRateLimit

import (
	"errors"
	"strings"
	"testing"

	"github.com/MrEthical07/goRateLimit/internal/window"
)

func TestParsePolicyConfigRateLimit(t *testing.T) {
	doc := `{"rateLimits":[{"limit":5,"periodTime":1,"periodTimeUnit":"HOURS"},{"limit":100,"periodTime":2,"periodTimeUnit":"days"}],"addHeaders":false,"async":true}`

	p, err := ParsePolicyConfig(KindRateLimit, []byte(doc))
	if err != nil {
		t.Fatalf("ParsePolicyConfig failed: %v", err)
	}
	if p.Kind != KindRateLimit || p.AddHeaders || !p.Async {
		t.Fatalf("unexpected flags: %+v", p)
	}
	want := []Tier{
		{Limit: 5, PeriodTime: 1, PeriodTimeUnit: Hours},
		{Limit: 100, PeriodTime: 2, PeriodTimeUnit: Days},
	}
	if len(p.Tiers) != len(want) {
		t.Fatalf("expected %d tiers, got %d", len(want), len(p.Tiers))
	}
	for i := range want {
		if p.Tiers[i] != want[i] {
			t.Fatalf("tier %d: expected %+v, got %+v", i, want[i], p.Tiers[i])
		}
	}
}

func TestParsePolicyConfigDefaults(t *testing.T) {
	p, err := ParsePolicyConfig(KindQuota, []byte(`{"quotas":[{"limit":1000}]}`))
	if err != nil {
		t.Fatalf("ParsePolicyConfig failed: %v", err)
	}
	if !p.AddHeaders {
		t.Fatal("expected addHeaders to default to true")
	}
	if p.Async {
		t.Fatal("expected async to default to false")
	}
	if got := p.Tiers[0]; got.PeriodTime != 1 || got.PeriodTimeUnit != Months {
		t.Fatalf("expected 1 MONTHS default for quotas, got %+v", got)
	}

	p, err = ParsePolicyConfig(KindRateLimit, []byte(`{"rateLimits":[{"limit":10}]}`))
	if err != nil {
		t.Fatalf("ParsePolicyConfig failed: %v", err)
	}
	if got := p.Tiers[0]; got.PeriodTime != 1 || got.PeriodTimeUnit != Hours {
		t.Fatalf("expected 1 HOURS default for rate limits, got %+v", got)
	}
}

func TestParsePolicyConfigRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"malformed":     `{"rateLimits":`,
		"unknown field": `{"rateLimits":[{"limit":1}],"burst":3}`,
		"unknown unit":  `{"rateLimits":[{"limit":1,"periodTimeUnit":"SECONDS"}]}`,
		"zero limit":    `{"rateLimits":[{"limit":0}]}`,
		"zero period":   `{"rateLimits":[{"limit":1,"periodTime":0}]}`,
		"no tiers":      `{"rateLimits":[]}`,
		"huge period":   `{"rateLimits":[{"limit":1,"periodTime":3000000,"periodTimeUnit":"HOURS"}]}`,
		"quota array":   `{"quotas":[{"limit":1}]}`,
		"both arrays":   `{"rateLimits":[{"limit":1}],"quotas":[{"limit":1}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParsePolicyConfig(KindRateLimit, []byte(doc)); !errors.Is(err, ErrInvalidPolicy) {
				t.Fatalf("expected ErrInvalidPolicy, got %v", err)
			}
		})
	}
}

func TestParsePolicyConfigQuotaRejectsRateLimitArray(t *testing.T) {
	_, err := ParsePolicyConfig(KindQuota, []byte(`{"rateLimits":[{"limit":1}]}`))
	if !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("expected ErrInvalidPolicy, got %v", err)
	}
	if !strings.Contains(err.Error(), "rateLimits") {
		t.Fatalf("expected error to name the rejected array, got %v", err)
	}
}

func TestPolicyValidateAcceptsMaxPeriod(t *testing.T) {
	for _, unit := range []PeriodUnit{Hours, Days, Weeks, Months} {
		p := PolicyConfig{Kind: KindRateLimit, Tiers: []Tier{{Limit: 1, PeriodTime: window.MaxPeriod(unit), PeriodTimeUnit: unit}}}
		if err := p.Validate(); err != nil {
			t.Fatalf("%s: expected the largest period to validate, got %v", unit, err)
		}
		p.Tiers[0].PeriodTime++
		if err := p.Validate(); !errors.Is(err, ErrInvalidPolicy) {
			t.Fatalf("%s: expected ErrInvalidPolicy past the largest period, got %v", unit, err)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	base := testConfig(Tier{Limit: 1, PeriodTime: 1, PeriodTimeUnit: Hours})
	if err := base.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"path hash", func(c *Config) { c.Keys.PathHash = "md5" }, "Keys.PathHash"},
		{"retries", func(c *Config) { c.Store.MaxUpdateRetries = -1 }, "MaxUpdateRetries"},
		{"async buffer", func(c *Config) { c.Policy.Async = true; c.Async.BufferSize = 0 }, "Async.BufferSize"},
		{"async timeout", func(c *Config) { c.Policy.Async = true; c.Async.FlushTimeout = 0 }, "Async.FlushTimeout"},
		{"audit buffer", func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 }, "Audit.BufferSize"},
		{"latency without metrics", func(c *Config) {
			c.Metrics.Enabled = false
			c.Metrics.EnableLatencyHistograms = true
		}, "EnableLatencyHistograms"},
		{"kind", func(c *Config) { c.Policy.Kind = PolicyKind(7) }, "unknown kind"},
		{"negative period", func(c *Config) { c.Policy.Tiers[0].PeriodTime = -1 }, "periodTime"},
		{"period overflows hours", func(c *Config) { c.Policy.Tiers[0].PeriodTime = 3_000_000 }, "periodTime must be <="},
		{"period overflows months", func(c *Config) {
			c.Policy.Tiers[0].PeriodTime = 1 << 40
			c.Policy.Tiers[0].PeriodTimeUnit = Months
		}, "periodTime must be <="},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := cloneConfig(base)
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCloneConfigCopiesTiers(t *testing.T) {
	cfg := testConfig(Tier{Limit: 1, PeriodTime: 1, PeriodTimeUnit: Hours})
	clone := cloneConfig(cfg)
	clone.Policy.Tiers[0].Limit = 42

	if cfg.Policy.Tiers[0].Limit != 1 {
		t.Fatal("expected cloneConfig to copy the tier slice")
	}
}

func TestRedisPrefixFollowsKind(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.redisPrefix(); got != "rl" {
		t.Fatalf("expected rl, got %q", got)
	}
	cfg.Policy.Kind = KindQuota
	if got := cfg.redisPrefix(); got != "rq" {
		t.Fatalf("expected rq, got %q", got)
	}
	cfg.Store.RedisPrefix = "gw"
	if got := cfg.redisPrefix(); got != "gw" {
		t.Fatalf("expected explicit prefix, got %q", got)
	}
}
