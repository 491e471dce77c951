package authcore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hallgard/authcore/internal/metrics"
	"github.com/hallgard/authcore/notify"
	"github.com/hallgard/authcore/otp"
)

// RegisterAgent creates a pending agent account and issues a verification
// code to the supplied email address. The account cannot log in until an
// admin approves it; verification and approval are independent steps.
func (e *Engine) RegisterAgent(ctx context.Context, reg AgentRegistration) (*RegistrationResult, error) {
	if err := e.checkLimit(ctx, "register", registrationLimitKey(ctx, reg.Email), e.config.RateLimit.Registration); err != nil {
		return nil, err
	}

	if err := validateContact(reg.Email, reg.Phone); err != nil {
		return nil, err
	}
	if err := e.config.Password.Policy.Validate(reg.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	hash, err := e.hasher.Hash(reg.Password)
	if err != nil {
		return nil, err
	}

	identity := &Identity{
		ID:                 uuid.NewString(),
		Email:              strings.ToLower(strings.TrimSpace(reg.Email)),
		Phone:              strings.TrimSpace(reg.Phone),
		PasswordHash:       hash,
		FirstName:          reg.FirstName,
		LastName:           reg.LastName,
		Role:               RoleAgent,
		Active:             true,
		RegistrationStatus: RegistrationPending,
		CreatedAt:          e.now(),
		UpdatedAt:          e.now(),
	}

	if err := e.createUnique(ctx, identity); err != nil {
		return nil, err
	}

	if _, err := e.otps.Issue(ctx, otp.PurposeRegistration, identity.Email); err != nil {
		// The account stands; the code can be re-sent.
		e.emit(ctx, AuditEvent{
			EventType: AuditOTPIssued,
			SubjectID: identity.ID,
			Success:   false,
			Error:     err.Error(),
		})
	} else {
		e.metrics.Inc(metrics.MetricOTPIssued)
		e.emit(ctx, AuditEvent{EventType: AuditOTPIssued, SubjectID: identity.ID, Success: true})
	}

	e.metrics.Inc(metrics.MetricRegistrationCreated)
	e.emit(ctx, AuditEvent{
		EventType: AuditRegister,
		SubjectID: identity.ID,
		Success:   true,
		Metadata:  map[string]string{"role": string(RoleAgent)},
	})

	return &RegistrationResult{
		SubjectID: identity.ID,
		Role:      identity.Role,
		Status:    identity.RegistrationStatus,
	}, nil
}

// RegisterFieldExecutive creates a field-executive account on behalf of an
// admin. The account is approved and verified immediately; the temporary
// password is delivered to the new account's email out of band.
func (e *Engine) RegisterFieldExecutive(ctx context.Context, adminID string, reg FieldExecutiveRegistration) (*RegistrationResult, error) {
	admin, err := e.requireAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}

	if err := validateContact(reg.Email, reg.Phone); err != nil {
		return nil, err
	}
	if err := e.config.Password.Policy.Validate(reg.TemporaryPassword); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	hash, err := e.hasher.Hash(reg.TemporaryPassword)
	if err != nil {
		return nil, err
	}

	now := e.now()
	identity := &Identity{
		ID:                 uuid.NewString(),
		Email:              strings.ToLower(strings.TrimSpace(reg.Email)),
		Phone:              strings.TrimSpace(reg.Phone),
		PasswordHash:       hash,
		FirstName:          reg.FirstName,
		LastName:           reg.LastName,
		Role:               RoleFieldExecutive,
		Active:             true,
		Verified:           true,
		EmailVerifiedAt:    &now,
		RegistrationStatus: RegistrationApproved,
		ApprovedBy:         admin.ID,
		ApprovedAt:         &now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := e.createUnique(ctx, identity); err != nil {
		return nil, err
	}

	if e.deliverer != nil {
		msg := notify.Message{
			Channel: notify.ChannelEmail,
			To:      identity.Email,
			Subject: "Your account is ready",
			Body:    "An account has been created for you. Temporary password: " + reg.TemporaryPassword + ". Change it after your first login.",
		}
		if derr := e.deliverer.Deliver(ctx, msg); derr != nil {
			e.emit(ctx, AuditEvent{
				EventType: AuditRegister,
				SubjectID: identity.ID,
				Success:   false,
				Error:     "credential delivery failed: " + derr.Error(),
			})
		}
	}

	e.metrics.Inc(metrics.MetricRegistrationCreated)
	e.emit(ctx, AuditEvent{
		EventType: AuditRegister,
		SubjectID: identity.ID,
		Success:   true,
		Metadata:  map[string]string{"role": string(RoleFieldExecutive), "created_by": admin.ID},
	})

	return &RegistrationResult{
		SubjectID: identity.ID,
		Role:      identity.Role,
		Status:    identity.RegistrationStatus,
	}, nil
}

// VerifyRegistration consumes a verification code for the identifier the
// code was issued to and marks the matching contact channel verified.
// Verification does not approve the account.
func (e *Engine) VerifyRegistration(ctx context.Context, identifier, code string) error {
	outcome, err := e.otps.Verify(ctx, otp.PurposeRegistration, identifier, code)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	switch outcome {
	case otp.OutcomeVerified:
	case otp.OutcomeInvalid:
		e.metrics.Inc(metrics.MetricOTPFailed)
		return ErrOTPInvalid
	case otp.OutcomeExhausted:
		e.metrics.Inc(metrics.MetricOTPExhausted)
		return ErrOTPExhausted
	default:
		return ErrOTPNotFound
	}

	identity, err := e.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	now := e.now()
	identity.Verified = true
	if strings.Contains(identifier, "@") {
		identity.EmailVerifiedAt = &now
	} else {
		identity.PhoneVerifiedAt = &now
	}
	identity.UpdatedAt = now
	if err := e.store.Update(ctx, identity); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metrics.Inc(metrics.MetricOTPVerified)
	e.metrics.Inc(metrics.MetricRegistrationVerified)
	e.emit(ctx, AuditEvent{
		EventType: AuditOTPVerified,
		SubjectID: identity.ID,
		Success:   true,
		Metadata:  map[string]string{"purpose": otp.PurposeRegistration},
	})
	e.emit(ctx, AuditEvent{EventType: AuditRegistrationVerified, SubjectID: identity.ID, Success: true})
	return nil
}

// ResendRegistrationCode issues a fresh verification code for an identity
// that has not verified yet, replacing any outstanding one.
func (e *Engine) ResendRegistrationCode(ctx context.Context, identifier string) error {
	if err := e.checkLimit(ctx, "otp_resend", identifier, e.config.RateLimit.OTPResend); err != nil {
		return err
	}

	identity, err := e.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if identity.Verified {
		return fmt.Errorf("%w: already verified", ErrValidation)
	}

	if _, err := e.otps.Issue(ctx, otp.PurposeRegistration, identifier); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metrics.Inc(metrics.MetricOTPIssued)
	e.emit(ctx, AuditEvent{EventType: AuditOTPIssued, SubjectID: identity.ID, Success: true})
	return nil
}

// ApproveRegistration moves a pending identity to approved. Only admins may
// approve, and only pending identities are eligible.
func (e *Engine) ApproveRegistration(ctx context.Context, adminID, subjectID string) error {
	admin, err := e.requireAdmin(ctx, adminID)
	if err != nil {
		return err
	}

	identity, err := e.store.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if identity.RegistrationStatus != RegistrationPending {
		return fmt.Errorf("%w: registration is %s, not pending", ErrValidation, identity.RegistrationStatus)
	}

	now := e.now()
	identity.RegistrationStatus = RegistrationApproved
	identity.ApprovedBy = admin.ID
	identity.ApprovedAt = &now
	identity.RejectionReason = ""
	identity.UpdatedAt = now
	if err := e.store.Update(ctx, identity); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metrics.Inc(metrics.MetricRegistrationApproved)
	e.emit(ctx, AuditEvent{
		EventType: AuditRegistrationDecision,
		SubjectID: identity.ID,
		Success:   true,
		Metadata:  map[string]string{"decision": "approved", "decided_by": admin.ID},
	})
	return nil
}

// RejectRegistration moves a pending identity to rejected with a reason.
func (e *Engine) RejectRegistration(ctx context.Context, adminID, subjectID, reason string) error {
	admin, err := e.requireAdmin(ctx, adminID)
	if err != nil {
		return err
	}

	identity, err := e.store.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if identity.RegistrationStatus != RegistrationPending {
		return fmt.Errorf("%w: registration is %s, not pending", ErrValidation, identity.RegistrationStatus)
	}

	now := e.now()
	identity.RegistrationStatus = RegistrationRejected
	identity.RejectionReason = reason
	identity.UpdatedAt = now
	if err := e.store.Update(ctx, identity); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metrics.Inc(metrics.MetricRegistrationRejected)
	e.emit(ctx, AuditEvent{
		EventType: AuditRegistrationDecision,
		SubjectID: identity.ID,
		Success:   true,
		Metadata:  map[string]string{"decision": "rejected", "decided_by": admin.ID},
	})
	return nil
}

// requireAdmin loads adminID and verifies it is an active admin account.
func (e *Engine) requireAdmin(ctx context.Context, adminID string) (*Identity, error) {
	admin, err := e.store.FindByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, ErrNotAdmin
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if admin.Role != RoleAdmin || !admin.Active {
		return nil, ErrNotAdmin
	}
	return admin, nil
}

// createUnique persists a new identity after checking the email and phone
// are not already claimed. The durable store's own uniqueness constraints
// remain the final arbiter under concurrency.
func (e *Engine) createUnique(ctx context.Context, identity *Identity) error {
	for _, ident := range []string{identity.Email, identity.Phone} {
		if ident == "" {
			continue
		}
		_, err := e.store.FindByIdentifier(ctx, ident)
		if err == nil {
			return ErrIdentifierTaken
		}
		if !errors.Is(err, ErrIdentityNotFound) {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}
	if err := e.store.Create(ctx, identity); err != nil {
		if errors.Is(err, ErrIdentifierTaken) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func validateContact(email, phone string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: email required", ErrValidation)
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return fmt.Errorf("%w: malformed email", ErrValidation)
	}
	if phone != "" {
		digits := 0
		for _, r := range phone {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits < 7 {
			return fmt.Errorf("%w: malformed phone number", ErrValidation)
		}
	}
	return nil
}

func registrationLimitKey(ctx context.Context, email string) string {
	if addr := clientAddrFromContext(ctx); addr != "" {
		return addr
	}
	return strings.ToLower(strings.TrimSpace(email))
}
