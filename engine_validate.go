package authcore

import (
	"context"
)

// ValidateAccess verifies a presented access token for an authorization
// decision: signature, expiry, type, and blacklist membership. The check is
// fail-closed: if the blacklist cannot be consulted the token is rejected
// with ErrStoreUnavailable rather than admitted.
func (e *Engine) ValidateAccess(ctx context.Context, accessToken string) (*AccessInfo, error) {
	claims, err := e.tokens.ValidateAccess(ctx, accessToken)
	if err != nil {
		return nil, e.mapTokenErr(err)
	}
	info := &AccessInfo{
		SubjectID: claims.Subject,
		Role:      Role(claims.Role),
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// ValidateRefresh verifies a presented refresh token without minting
// anything: signature, expiry, type, blacklist, and pointer equality. It
// returns the token's subject. Like ValidateAccess, the stored-state reads
// are fail-closed.
func (e *Engine) ValidateRefresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := e.tokens.ValidateRefresh(ctx, refreshToken)
	if err != nil {
		return "", e.mapTokenErr(err)
	}
	return claims.Subject, nil
}

// Session returns the subject's advisory session snapshot, or nil when none
// exists. Token validity never depends on this record.
func (e *Engine) Session(ctx context.Context, subject string) (*SessionSnapshot, error) {
	snap, err := e.sessions.Get(ctx, subject)
	if err != nil {
		return nil, err
	}
	return snap, nil
}
