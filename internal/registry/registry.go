package registry

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultTTL is how long a pending attempt stays resolvable.
	DefaultTTL = 10 * time.Minute
	// DefaultCapacity bounds the total number of pending entries.
	DefaultCapacity = 1000

	stateTokenBytes = 32
)

// Kind identifies which flow variant a correlation token belongs to.
type Kind int

const (
	KindUnknown Kind = iota
	KindOAuth
	KindOTP
)

func (k Kind) String() string {
	switch k {
	case KindOAuth:
		return "oauth"
	case KindOTP:
		return "otp"
	default:
		return "unknown"
	}
}

// PendingAuthorization is one in-flight OAuth attempt.
type PendingAuthorization struct {
	State     string
	UserID    string
	CreatedAt time.Time
}

// PendingOTP is one in-flight email/OTP attempt. Nickname and Email are
// user-supplied and echoed to admins; Secret is the TOTP secret provisioned
// for the attempt.
type PendingOTP struct {
	FlowID    string
	UserID    string
	Nickname  string
	Email     string
	Secret    string
	CreatedAt time.Time
}

// Registry is a bounded, mutex-guarded store of pending verification
// attempts, safe for use from the HTTP callback handler and the bot's
// dispatcher concurrently.
type Registry struct {
	mu       sync.Mutex
	oauth    map[string]PendingAuthorization
	otp      map[string]PendingOTP
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithTTL sets the pending-entry lifetime. Panics if ttl is not positive.
func WithTTL(ttl time.Duration) Option {
	if ttl <= 0 {
		panic("registry: TTL must be positive")
	}
	return func(r *Registry) { r.ttl = ttl }
}

// WithCapacity sets the maximum number of pending entries across both
// flow variants. Panics if capacity is not positive.
func WithCapacity(capacity int) Option {
	if capacity <= 0 {
		panic("registry: capacity must be positive")
	}
	return func(r *Registry) { r.capacity = capacity }
}

// WithClock overrides the time source, used in tests.
func WithClock(now func() time.Time) Option {
	if now == nil {
		panic("registry: clock must not be nil")
	}
	return func(r *Registry) { r.now = now }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		oauth:    make(map[string]PendingAuthorization),
		otp:      make(map[string]PendingOTP),
		ttl:      DefaultTTL,
		capacity: DefaultCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BeginOAuth registers a new OAuth attempt for the user and returns its
// correlation token. The token carries 256 bits of entropy so collisions
// and guessing are both out of reach.
func (r *Registry) BeginOAuth(userID string) (string, error) {
	if userID == "" {
		return "", ErrEmptyUserID
	}

	buf := make([]byte, stateTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	state := base64.URLEncoding.EncodeToString(buf)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictLocked()
	r.oauth[state] = PendingAuthorization{
		State:     state,
		UserID:    userID,
		CreatedAt: r.now(),
	}
	return state, nil
}

// BeginOTP registers a new OTP attempt and returns its flow id.
func (r *Registry) BeginOTP(userID, nickname, email, secret string) (string, error) {
	if userID == "" {
		return "", ErrEmptyUserID
	}

	flowID := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictLocked()
	r.otp[flowID] = PendingOTP{
		FlowID:    flowID,
		UserID:    userID,
		Nickname:  nickname,
		Email:     email,
		Secret:    secret,
		CreatedAt: r.now(),
	}
	return flowID, nil
}

// ResolveOAuth atomically removes and returns the attempt matching the
// state token. It returns false when the token is unknown, already
// consumed, or expired; the three cases are indistinguishable on purpose.
func (r *Registry) ResolveOAuth(state string) (PendingAuthorization, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.oauth[state]
	if !ok {
		return PendingAuthorization{}, false
	}
	delete(r.oauth, state)
	if r.expired(entry.CreatedAt) {
		return PendingAuthorization{}, false
	}
	return entry, true
}

// ResolveOTP atomically removes and returns the attempt matching the flow
// id, with the same not-found/consumed/expired contract as ResolveOAuth.
func (r *Registry) ResolveOTP(flowID string) (PendingOTP, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.otp[flowID]
	if !ok {
		return PendingOTP{}, false
	}
	delete(r.otp, flowID)
	if r.expired(entry.CreatedAt) {
		return PendingOTP{}, false
	}
	return entry, true
}

// PeekKind reports which flow variant a token belongs to without consuming
// it. Used by the callback endpoint to route before handing off resolution.
func (r *Registry) PeekKind(token string) Kind {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.oauth[token]; ok {
		return KindOAuth
	}
	if _, ok := r.otp[token]; ok {
		return KindOTP
	}
	return KindUnknown
}

// Len returns the total number of pending entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.oauth) + len(r.otp)
}

func (r *Registry) expired(createdAt time.Time) bool {
	return r.now().Sub(createdAt) > r.ttl
}

// evictLocked makes room for one more entry. Expired entries go first;
// when none are expired the oldest entry overall is dropped so abandoned
// flows cannot grow the registry without bound.
func (r *Registry) evictLocked() {
	if len(r.oauth)+len(r.otp) < r.capacity {
		return
	}

	for state, entry := range r.oauth {
		if r.expired(entry.CreatedAt) {
			delete(r.oauth, state)
		}
	}
	for flowID, entry := range r.otp {
		if r.expired(entry.CreatedAt) {
			delete(r.otp, flowID)
		}
	}
	if len(r.oauth)+len(r.otp) < r.capacity {
		return
	}

	var (
		oldestOAuth string
		oldestOTP   string
		oldestAt    time.Time
	)
	for state, entry := range r.oauth {
		if oldestAt.IsZero() || entry.CreatedAt.Before(oldestAt) {
			oldestAt = entry.CreatedAt
			oldestOAuth, oldestOTP = state, ""
		}
	}
	for flowID, entry := range r.otp {
		if oldestAt.IsZero() || entry.CreatedAt.Before(oldestAt) {
			oldestAt = entry.CreatedAt
			oldestOAuth, oldestOTP = "", flowID
		}
	}
	if oldestOAuth != "" {
		delete(r.oauth, oldestOAuth)
	} else if oldestOTP != "" {
		delete(r.otp, oldestOTP)
	}
}
