package authcore

import "github.com/hallgard/authcore/internal/metrics"

// MetricID identifies one engine counter.
type MetricID = metrics.MetricID

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot = metrics.Snapshot

// Counter identifiers exposed through [Engine.MetricsSnapshot].
const (
	MetricLoginSuccess         = metrics.MetricLoginSuccess
	MetricLoginFailure         = metrics.MetricLoginFailure
	MetricLoginLocked          = metrics.MetricLoginLocked
	MetricLoginRateLimited     = metrics.MetricLoginRateLimited
	MetricRefreshSuccess       = metrics.MetricRefreshSuccess
	MetricRefreshFailure       = metrics.MetricRefreshFailure
	MetricLogout               = metrics.MetricLogout
	MetricLogoutAll            = metrics.MetricLogoutAll
	MetricTokenRevoked         = metrics.MetricTokenRevoked
	MetricOTPIssued            = metrics.MetricOTPIssued
	MetricOTPVerified          = metrics.MetricOTPVerified
	MetricOTPFailed            = metrics.MetricOTPFailed
	MetricOTPExhausted         = metrics.MetricOTPExhausted
	MetricRegistrationCreated  = metrics.MetricRegistrationCreated
	MetricRegistrationVerified = metrics.MetricRegistrationVerified
	MetricRegistrationApproved = metrics.MetricRegistrationApproved
	MetricRegistrationRejected = metrics.MetricRegistrationRejected
	MetricPasswordReset        = metrics.MetricPasswordReset
	MetricRateLimitDegraded    = metrics.MetricRateLimitDegraded
)
