package goRateLimit

import (
	"fmt"
	"time"
)

// LintSeverity ranks a LintWarning.
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
)

// LintWarning is a configuration that validates but is probably not what the
// operator meant.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the ordered list of warnings produced by Config.Lint.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, len(r))
	for i, w := range r {
		out[i] = w.Code
	}
	return out
}

// Lint reports suspicious but valid settings. It never fails; call Validate
// for hard errors.
func (c *Config) Lint() LintResult {
	var ws LintResult

	if !c.Policy.AddHeaders {
		ws = append(ws, LintWarning{
			Code:     "headers_disabled",
			Severity: LintInfo,
			Message:  "clients receive no limit, remaining or reset headers",
		})
	}

	if c.Policy.Async && c.Async.DropIfFull {
		ws = append(ws, LintWarning{
			Code:     "async_drop_if_full",
			Severity: LintWarn,
			Message:  "a full write-behind queue discards counter updates, admitting more than the limit",
		})
	}

	for i, ti := range c.Policy.Tiers {
		for j, tj := range c.Policy.Tiers {
			wi, wj := approxWindow(ti), approxWindow(tj)
			if i == j || wj < wi || tj.Limit > ti.Limit {
				continue
			}
			// Identical tiers: only the later one is reported.
			if wj == wi && tj.Limit == ti.Limit && j > i {
				continue
			}
			ws = append(ws, LintWarning{
				Code:     "tier_shadowed",
				Severity: LintWarn,
				Message:  fmt.Sprintf("tier %d can never be exceeded before tier %d", i, j),
			})
			break
		}
	}

	if !c.Audit.Enabled {
		ws = append(ws, LintWarning{
			Code:     "audit_disabled",
			Severity: LintInfo,
			Message:  "rejections and store faults are not audited",
		})
	}

	if !c.Metrics.Enabled {
		ws = append(ws, LintWarning{
			Code:     "metrics_disabled",
			Severity: LintInfo,
			Message:  "engine counters are not collected",
		})
	}

	return ws
}

// approxWindow is only used for comparing tiers; months count as 30 days.
func approxWindow(t Tier) time.Duration {
	var unit time.Duration
	switch t.PeriodTimeUnit {
	case Hours:
		unit = time.Hour
	case Days:
		unit = 24 * time.Hour
	case Weeks:
		unit = 7 * 24 * time.Hour
	case Months:
		unit = 30 * 24 * time.Hour
	}
	return time.Duration(t.PeriodTime) * unit
}
