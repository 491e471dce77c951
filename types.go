package authcore

import (
	"context"
	"time"

	"github.com/hallgard/authcore/session"
)

// SessionSnapshot is the advisory per-subject record of the most recent
// login, returned by [Engine.Session].
type SessionSnapshot = session.Snapshot

// Role is the coarse authorization class carried in token claims.
type Role string

const (
	RoleAgent          Role = "agent"
	RoleFieldExecutive Role = "field_executive"
	RoleCustomer       Role = "customer"
	RoleOwner          Role = "owner"
	RoleAdmin          Role = "admin"
)

// RegistrationStatus is the admin-approval state of an identity.
type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationApproved  RegistrationStatus = "approved"
	RegistrationRejected  RegistrationStatus = "rejected"
	RegistrationSuspended RegistrationStatus = "suspended"
)

// Identity is the engine's view of a stored account. The engine owns three
// mutable concerns on it (the failed-attempt counter, the lockout deadline,
// and the verification flags) and treats everything else as read-only
// profile data belonging to the durable store.
type Identity struct {
	ID           string
	Email        string
	Phone        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role

	Active   bool
	Verified bool

	EmailVerifiedAt *time.Time
	PhoneVerifiedAt *time.Time

	RegistrationStatus RegistrationStatus
	ApprovedBy         string
	ApprovedAt         *time.Time
	RejectionReason    string

	FailedAttempts  int
	LockoutUntil    *time.Time
	LastLoginAt     *time.Time
	LastLoginOrigin string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Locked reports whether a failure-streak lockout is still in force at now.
func (id *Identity) Locked(now time.Time) bool {
	return id.LockoutUntil != nil && now.Before(*id.LockoutUntil)
}

// IdentityStore is the durable persistence collaborator. Implementations
// must return ErrIdentityNotFound (possibly wrapped) for missing rows.
// Update must be durably committed before it returns; the login guard relies
// on that when recording failed attempts and lockouts.
type IdentityStore interface {
	// FindByIdentifier resolves an email address or phone number.
	FindByIdentifier(ctx context.Context, identifier string) (*Identity, error)
	FindByID(ctx context.Context, id string) (*Identity, error)
	Create(ctx context.Context, identity *Identity) error
	Update(ctx context.Context, identity *Identity) error
}

// TokenPair is an access/refresh token pair minted for one subject.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
}

// LoginResult is returned by [Engine.Login].
type LoginResult struct {
	TokenPair

	SubjectID string
	Role      Role
	Verified  bool
}

// AccessInfo is the decoded, blacklist-checked result of
// [Engine.ValidateAccess], intended for authorization middleware.
type AccessInfo struct {
	SubjectID string
	Role      Role
	ExpiresAt time.Time
}

// AgentRegistration is the input for [Engine.RegisterAgent].
type AgentRegistration struct {
	Email     string
	Phone     string
	Password  string
	FirstName string
	LastName  string
}

// FieldExecutiveRegistration is the input for
// [Engine.RegisterFieldExecutive]. The temporary password is delivered to
// the new account out of band.
type FieldExecutiveRegistration struct {
	Email             string
	Phone             string
	TemporaryPassword string
	FirstName         string
	LastName          string
}

// RegistrationResult is returned by the registration operations.
type RegistrationResult struct {
	SubjectID string
	Role      Role
	Status    RegistrationStatus
}
