package authcore

import (
	"context"

	"github.com/hallgard/authcore/internal/metrics"
)

// Logout ends the presented session. Both tokens are blacklisted for the
// remainder of their lifetimes, the subject's refresh pointer is dropped,
// and the session snapshot is deleted. Logout is idempotent: repeating it
// with the same tokens succeeds.
//
// Every step is attempted even when an earlier one fails; the first failure
// is returned so callers can retry.
func (e *Engine) Logout(ctx context.Context, accessToken, refreshToken string) error {
	subject := e.subjectOf(accessToken)
	if subject == "" {
		subject = e.subjectOf(refreshToken)
	}
	if subject == "" {
		// Nothing verifiable to revoke. Treat as already logged out.
		return nil
	}

	err := e.tokens.Revoke(ctx, subject, accessToken, refreshToken)
	if serr := e.sessions.Delete(ctx, subject); serr != nil && err == nil {
		err = serr
	}

	e.metrics.Inc(metrics.MetricLogout)
	e.metrics.Inc(metrics.MetricTokenRevoked)
	e.emit(ctx, AuditEvent{
		EventType: AuditLogout,
		SubjectID: subject,
		Success:   err == nil,
	})
	return err
}

// LogoutAll revokes every session the subject holds: the refresh pointer is
// dropped (killing all outstanding refresh tokens at once) and the session
// snapshot removed. Already-minted access tokens keep working until expiry;
// pass the current one to Logout first if it must die immediately.
// Idempotent.
func (e *Engine) LogoutAll(ctx context.Context, subject string) error {
	err := e.tokens.RevokeAll(ctx, subject)
	if serr := e.sessions.Delete(ctx, subject); serr != nil && err == nil {
		err = serr
	}

	e.metrics.Inc(metrics.MetricLogoutAll)
	e.emit(ctx, AuditEvent{
		EventType: AuditLogoutAll,
		SubjectID: subject,
		Success:   err == nil,
	})
	if err != nil {
		return e.mapTokenErr(err)
	}
	return nil
}

// subjectOf extracts the subject from a token whose signature verifies,
// ignoring expiry. Unverifiable tokens yield "".
func (e *Engine) subjectOf(tokenStr string) string {
	if tokenStr == "" {
		return ""
	}
	claims, err := e.jwts.ParseForRevocation(tokenStr)
	if err != nil {
		return ""
	}
	return claims.Subject
}
