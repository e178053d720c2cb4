package limiter

import (
	"errors"

	"github.com/MrEthical07/goRateLimit/internal/window"
)

var (
	// ErrStoreNotConfigured is carried by the outcome when no store is wired.
	ErrStoreNotConfigured = errors.New("rate-limit store not configured")
	// ErrStoreUnavailable wraps any failing store call.
	ErrStoreUnavailable = errors.New("rate-limit store unavailable")
)

const (
	MessageStoreNotConfigured = "No rate-limit repository has been configured."
	MessageStoreUnavailable   = "Rate-limit repository is unavailable."
)

// Tier is one limit/period rule.
type Tier struct {
	Limit          int64       `json:"limit"`
	PeriodTime     int64       `json:"periodTime"`
	PeriodTimeUnit window.Unit `json:"periodTimeUnit"`
}

// Kind selects header names and the rejection message.
type Kind int

const (
	KindRateLimit Kind = iota
	KindQuota
)

func (k Kind) String() string {
	if k == KindQuota {
		return "quota"
	}
	return "rate-limit"
}

// Policy is a resolved tier configuration.
type Policy struct {
	Kind       Kind
	Tiers      []Tier
	AddHeaders bool
	// Async selects relaxed consistency: the store's atomic update path is
	// never used.
	Async bool
}

// Request is the identity and instant being evaluated. Now is epoch
// milliseconds.
type Request struct {
	APIID         string
	ApplicationID string
	Path          string
	Now           int64
}

// Header is one response header in emission order.
type Header struct {
	Name  string
	Value string
}

// Decision is the terminal state of an evaluation.
type Decision int

const (
	Admit Decision = iota
	Reject
)

func (d Decision) String() string {
	if d == Reject {
		return "reject"
	}
	return "admit"
}

// Result describes a rejection the way the hosting pipeline reports it.
type Result struct {
	Failure    bool
	StatusCode int
	Message    string
}

// Outcome is the value returned for every evaluation.
type Outcome struct {
	Decision Decision
	Result   Result
	Headers  []Header
	// ExceededTier is the index of the tier that rejected the request, or -1.
	ExceededTier int
	// Err is set for infrastructure faults only. A quota rejection is not an
	// error.
	Err error
}

// Admitted reports whether the request may proceed.
func (o Outcome) Admitted() bool {
	return o.Decision == Admit
}
