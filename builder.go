package authcore

import (
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hallgard/authcore/internal/audit"
	"github.com/hallgard/authcore/internal/metrics"
	"github.com/hallgard/authcore/jwt"
	"github.com/hallgard/authcore/notify"
	"github.com/hallgard/authcore/otp"
	"github.com/hallgard/authcore/password"
	"github.com/hallgard/authcore/ratelimit"
	"github.com/hallgard/authcore/session"
	"github.com/hallgard/authcore/token"
)

// Builder assembles an Engine. Configure during initialization, call Build
// once, then use only the Engine.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	store     IdentityStore
	auditSink AuditSink
	deliverer notify.Deliverer
	clock     func() time.Time

	built bool
}

// New returns a Builder seeded with default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. Zero TTLs and budgets are
// not filled in; pass a config derived from the defaults if only a few
// fields need changing.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecretKey sets the HMAC signing key, keeping every other default.
func (b *Builder) WithSecretKey(key []byte) *Builder {
	b.config.Token.SigningMethod = "hs256"
	b.config.Token.SecretKey = append([]byte(nil), key...)
	return b
}

// WithRedis sets the volatile-state client. Required.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithIdentityStore sets the durable identity persistence. Required.
func (b *Builder) WithIdentityStore(store IdentityStore) *Builder {
	b.store = store
	return b
}

// WithAuditSink sets where audit events land. Without a sink, auditing is
// disabled regardless of configuration.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithDeliverer sets the outbound notification transport used for OTP codes
// and registration messages. Optional; without one, codes are only stored.
func (b *Builder) WithDeliverer(d notify.Deliverer) *Builder {
	b.deliverer = d
	return b
}

// WithClock overrides the engine's time source. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// Build validates the configuration and assembles the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	if b.redis == nil {
		return nil, fmt.Errorf("%w: redis client required", ErrEngineNotReady)
	}
	if b.store == nil {
		return nil, fmt.Errorf("%w: identity store required", ErrEngineNotReady)
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	jwts, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.Token.AccessTTL,
		RefreshTTL:    cfg.Token.RefreshTTL,
		SigningMethod: jwt.SigningMethod(cfg.Token.SigningMethod),
		SecretKey:     cfg.Token.SecretKey,
		PrivateKey:    cfg.Token.PrivateKey,
		PublicKey:     cfg.Token.PublicKey,
		Issuer:        cfg.Token.Issuer,
		Leeway:        cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(cfg.Password.BcryptCost)
	if err != nil {
		return nil, err
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	var dispatcher *audit.Dispatcher
	if cfg.Audit.Enabled && b.auditSink != nil {
		dispatcher = audit.NewDispatcher(audit.Config{
			Enabled:    true,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink)
	}

	engine := &Engine{
		config:    cfg,
		store:     b.store,
		redis:     b.redis,
		jwts:      jwts,
		tokens:    token.NewService(b.redis, jwts, cfg.Token.AccessTTL, cfg.Token.RefreshTTL),
		otps: otp.NewManager(b.redis, otp.Config{
			Digits:      cfg.OTP.Digits,
			TTL:         cfg.OTP.TTL,
			MaxAttempts: cfg.OTP.MaxAttempts,
		}, b.deliverer),
		sessions:  session.NewStore(b.redis, cfg.Token.AccessTTL),
		limiter:   ratelimit.New(b.redis),
		hasher:    hasher,
		deliverer: b.deliverer,
		audit:     dispatcher,
		metrics:   metrics.New(metrics.Config{Enabled: cfg.Metrics.Enabled}),
		now:       clock,
	}
	engine.guard = &loginGuard{
		store:  b.store,
		hasher: hasher,
		cfg:    cfg.Lockout,
		now:    clock,
	}

	return engine, nil
}
