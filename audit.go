package authcore

import (
	"io"

	"github.com/hallgard/authcore/internal/audit"
)

// AuditEvent is the structured record emitted for every engine operation.
type AuditEvent = audit.Event

// AuditSink receives audit events from the engine's dispatcher. Emit is
// called from a single dispatcher goroutine; implementations that block will
// cause events to queue and, under DropIfFull, to be dropped.
type AuditSink = audit.Sink

// Audit event types emitted by the engine.
const (
	AuditLogin                = "login"
	AuditRefresh              = "refresh"
	AuditLogout               = "logout"
	AuditLogoutAll            = "logout_all"
	AuditRegister             = "register"
	AuditRegistrationVerified = "registration_verified"
	AuditRegistrationDecision = "registration_decision"
	AuditOTPIssued            = "otp_issued"
	AuditOTPVerified          = "otp_verified"
	AuditPasswordReset        = "password_reset"
	AuditRateLimited          = "rate_limited"
	AuditRateLimitDegraded    = "rate_limit_degraded"
)

// NewChannelAuditSink returns a sink that forwards events into a buffered
// channel readable through its Events method.
func NewChannelAuditSink(buffer int) *audit.ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONAuditSink returns a sink that writes one JSON object per event to w.
func NewJSONAuditSink(w io.Writer) *audit.JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}
