package goRateLimit

import (
	"time"

	"github.com/MrEthical07/goRateLimit/internal/keys"
	"github.com/MrEthical07/goRateLimit/internal/limiter"
	"github.com/MrEthical07/goRateLimit/internal/window"
)

// PeriodUnit is the calendar unit of a tier's window.
type PeriodUnit = window.Unit

const (
	Hours  = window.Hours
	Days   = window.Days
	Weeks  = window.Weeks
	Months = window.Months
)

// Tier is one (limit, period) constraint. A policy carries one or more.
type Tier = limiter.Tier

// PolicyKind selects header names and the exceeded message.
type PolicyKind = limiter.Kind

const (
	KindRateLimit = limiter.KindRateLimit
	KindQuota     = limiter.KindQuota
)

// PathHash names the hash applied to the resolved path when deriving counter keys.
type PathHash = keys.PathHash

const (
	PathHashXXH64   = keys.HashXXH64
	PathHashBLAKE2b = keys.HashBLAKE2b
)

// Header is one response header in emission order.
type Header = limiter.Header

// Decision is the admit/reject verdict of an Outcome.
type Decision = limiter.Decision

const (
	Admit  = limiter.Admit
	Reject = limiter.Reject
)

// Result describes a rejection: status code and human-readable message.
type Result = limiter.Result

// Outcome is the single decision returned by Engine.Evaluate.
type Outcome = limiter.Outcome

// Request defines the identity and timestamp an admission decision is made for.
//
// A zero Now is replaced by the engine clock.
type Request struct {
	APIID         string
	ApplicationID string
	Path          string
	Now           time.Time
}
