package goRateLimit

import (
	"io"

	"github.com/MrEthical07/goRateLimit/internal/audit"
)

// AuditEvent is one rejected or faulted admission decision.
type AuditEvent = audit.Event

// AuditSink receives audit events from the engine's dispatcher goroutine.
type AuditSink = audit.Sink

// NoOpSink drops audit events.
type NoOpSink = audit.NoOpSink

// ChannelSink writes audit events into a buffered channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = audit.JSONWriterSink

const (
	AuditRateLimitExceeded  = audit.EventRateLimitExceeded
	AuditQuotaExceeded      = audit.EventQuotaExceeded
	AuditStoreNotConfigured = audit.EventStoreNotConfigured
	AuditStoreUnavailable   = audit.EventStoreUnavailable
)

// NewChannelSink returns a ChannelSink buffering up to buffer events.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing JSON lines to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}
