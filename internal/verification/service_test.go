package verification_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flipperbot/internal/msauth"
	"github.com/dmitrymomot/flipperbot/internal/registry"
	"github.com/dmitrymomot/flipperbot/internal/vault"
	"github.com/dmitrymomot/flipperbot/internal/verification"
	"github.com/dmitrymomot/flipperbot/pkg/logger"
	"github.com/dmitrymomot/flipperbot/pkg/secrets"
	"github.com/dmitrymomot/flipperbot/pkg/totp"
)

type fakeProvider struct {
	mu       sync.Mutex
	identity msauth.ResolvedIdentity
	err      error
	codes    []string
	extras   []msauth.Param
}

func (p *fakeProvider) AuthCodeURL(state string, extra ...msauth.Param) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.extras = append(p.extras, extra...)
	return "https://login.example/authorize?state=" + state
}

func (p *fakeProvider) ExchangeCode(_ context.Context, code string) (msauth.ResolvedIdentity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.codes = append(p.codes, code)
	return p.identity, p.err
}

type fakeMutator struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (m *fakeMutator) VerifyMember(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, userID)
	return m.err
}

type fakeAudit struct {
	mu     sync.Mutex
	events []verification.AuditEvent
}

func (a *fakeAudit) NotifyVerification(_ context.Context, event verification.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

func (a *fakeAudit) last(t *testing.T) verification.AuditEvent {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	require.NotEmpty(t, a.events)
	return a.events[len(a.events)-1]
}

type fixture struct {
	registry *registry.Registry
	provider *fakeProvider
	mutator  *fakeMutator
	audit    *fakeAudit
	service  *verification.Service
}

func newFixture(t *testing.T, regOpts ...registry.Option) *fixture {
	t.Helper()

	f := &fixture{
		registry: registry.New(regOpts...),
		provider: &fakeProvider{identity: msauth.ResolvedIdentity{
			DisplayName: "Alice",
			Email:       "alice@example.com",
			AccessToken: "access-token",
		}},
		mutator: &fakeMutator{},
		audit:   &fakeAudit{},
	}

	svc, err := verification.New(f.registry, f.provider, f.mutator, f.audit)
	require.NoError(t, err)
	f.service = svc
	return f
}

func TestNew(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := verification.New(nil, f.provider, f.mutator, f.audit)
	assert.ErrorIs(t, err, verification.ErrMissingDependency)
	_, err = verification.New(f.registry, nil, f.mutator, f.audit)
	assert.ErrorIs(t, err, verification.ErrMissingDependency)
	_, err = verification.New(f.registry, f.provider, nil, f.audit)
	assert.ErrorIs(t, err, verification.ErrMissingDependency)
	_, err = verification.New(f.registry, f.provider, f.mutator, nil)
	assert.ErrorIs(t, err, verification.ErrMissingDependency)
}

func TestStartOAuth(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	result, err := f.service.StartOAuth(context.Background(), "42")
	require.NoError(t, err)

	assert.NotEmpty(t, result.State)
	assert.Contains(t, result.AuthURL, result.State)
	assert.Equal(t, registry.KindOAuth, f.registry.PeekKind(result.State))
	assert.Contains(t, f.provider.extras,
		msauth.Param{Key: "prompt", Value: "select_account"},
		"users with several Microsoft accounts must get the account picker")
}

func TestOAuthEndToEnd(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	start, err := f.service.StartOAuth(ctx, "42")
	require.NoError(t, err)

	require.NoError(t, f.service.HandleCallback(ctx, start.State, "abc"))

	assert.Equal(t, []string{"abc"}, f.provider.codes)
	assert.Equal(t, []string{"42"}, f.mutator.calls)

	event := f.audit.last(t)
	assert.Equal(t, "oauth", event.Kind)
	assert.Equal(t, "Alice", event.DisplayName)
	assert.Equal(t, "alice@example.com", event.Email)
	assert.True(t, event.RolesOK)
	assert.NotContains(t, event.Correlation, start.State[9:],
		"audit event must carry only a token preview")

	assert.Zero(t, f.registry.Len())

	// Replaying the same state is rejected without another exchange.
	err = f.service.HandleCallback(ctx, start.State, "abc")
	assert.ErrorIs(t, err, verification.ErrCorrelationNotFound)
	assert.Len(t, f.provider.codes, 1)
}

func TestHandleCallbackUnknownState(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	err := f.service.HandleCallback(context.Background(), "forged-state", "abc")
	assert.ErrorIs(t, err, verification.ErrCorrelationNotFound)
	assert.Empty(t, f.mutator.calls)
}

func TestHandleCallbackExchangeFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.provider.err = msauth.ErrProviderRejected

	start, err := f.service.StartOAuth(context.Background(), "42")
	require.NoError(t, err)

	err = f.service.HandleCallback(context.Background(), start.State, "expired-code")
	assert.ErrorIs(t, err, verification.ErrProviderExchange)
	assert.ErrorIs(t, err, msauth.ErrProviderRejected)
	assert.Empty(t, f.mutator.calls, "roles must not change on a failed exchange")

	// The entry was consumed; the user must start over.
	err = f.service.HandleCallback(context.Background(), start.State, "expired-code")
	assert.ErrorIs(t, err, verification.ErrCorrelationNotFound)
}

func TestRoleMutationFailureStillResolves(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.mutator.err = errors.New("missing permissions")

	start, err := f.service.StartOAuth(context.Background(), "42")
	require.NoError(t, err)

	require.NoError(t, f.service.HandleCallback(context.Background(), start.State, "abc"),
		"role failure does not roll back the exchange")

	event := f.audit.last(t)
	assert.False(t, event.RolesOK)
}

func TestVaultReceivesCredentials(t *testing.T) {
	t.Parallel()

	key, err := secrets.GenerateKey()
	require.NoError(t, err)
	cipher, err := secrets.NewCipher(key)
	require.NoError(t, err)
	credStore := vault.New(cipher)

	f := newFixture(t)
	svc, err := verification.New(f.registry, f.provider, f.mutator, f.audit,
		verification.WithVault(credStore))
	require.NoError(t, err)

	start, err := svc.StartOAuth(context.Background(), "42")
	require.NoError(t, err)
	require.NoError(t, svc.HandleCallback(context.Background(), start.State, "abc"))

	creds, err := credStore.Get("42")
	require.NoError(t, err)
	assert.Equal(t, vault.AuthTypeMicrosoft, creds.AuthType)
	assert.Equal(t, "access-token", creds.AccessToken)
}

func TestStartOTP(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	result, err := f.service.StartOTP(context.Background(), "7", "Bob", "bob@example.com")
	require.NoError(t, err)

	assert.NotEmpty(t, result.FlowID)
	assert.NotEmpty(t, result.Secret)
	assert.Contains(t, result.ProvisioningURI, "otpauth://totp/")
	assert.Contains(t, result.ProvisioningURI, "FlipperBot")
	assert.NotEmpty(t, result.QRCode)
	assert.Equal(t, registry.KindOTP, f.registry.PeekKind(result.FlowID))
}

func TestOTPEndToEnd(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	start, err := f.service.StartOTP(ctx, "7", "Bob", "bob@example.com")
	require.NoError(t, err)

	code, err := totp.GenerateCode(start.Secret)
	require.NoError(t, err)

	require.NoError(t, f.service.HandleCallback(ctx, start.FlowID, code))

	assert.Equal(t, []string{"7"}, f.mutator.calls)
	event := f.audit.last(t)
	assert.Equal(t, "otp", event.Kind)
	assert.Equal(t, "Bob", event.DisplayName)
	assert.Zero(t, f.registry.Len())
}

func TestVerifyOTPCodeRejectsWrongCode(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	start, err := f.service.StartOTP(ctx, "7", "Bob", "bob@example.com")
	require.NoError(t, err)

	err = f.service.VerifyOTPCode(ctx, start.FlowID, "000000")
	assert.ErrorIs(t, err, verification.ErrInvalidOTPCode)
	assert.Empty(t, f.mutator.calls)
}

func TestOTPExpiry(t *testing.T) {
	t.Parallel()

	now := time.Now()
	clock := func() time.Time { return now }
	f := newFixture(t, registry.WithClock(func() time.Time { return clock() }))
	ctx := context.Background()

	start, err := f.service.StartOTP(ctx, "7", "Bob", "bob@example.com")
	require.NoError(t, err)

	now = now.Add(11 * time.Minute)
	code, err := totp.GenerateCode(start.Secret)
	require.NoError(t, err)

	err = f.service.VerifyOTPCode(ctx, start.FlowID, code)
	assert.ErrorIs(t, err, verification.ErrCorrelationNotFound,
		"expired attempts look identical to unknown ones")
}

func TestEnrollmentMailer(t *testing.T) {
	t.Parallel()

	type sent struct{ email, nickname, uri string }
	var (
		mu       sync.Mutex
		messages []sent
	)
	mailer := mailerFunc(func(_ context.Context, email, nickname, uri string) error {
		mu.Lock()
		defer mu.Unlock()
		messages = append(messages, sent{email, nickname, uri})
		return nil
	})

	f := newFixture(t)
	svc, err := verification.New(f.registry, f.provider, f.mutator, f.audit,
		verification.WithEnrollmentMailer(mailer))
	require.NoError(t, err)

	result, err := svc.StartOTP(context.Background(), "7", "Bob", "bob@example.com")
	require.NoError(t, err)

	require.Len(t, messages, 1)
	assert.Equal(t, "bob@example.com", messages[0].email)
	assert.Equal(t, result.ProvisioningURI, messages[0].uri)
}

func TestEnrollmentMailerFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	mailer := mailerFunc(func(context.Context, string, string, string) error {
		return errors.New("postmark down")
	})

	f := newFixture(t)
	svc, err := verification.New(f.registry, f.provider, f.mutator, f.audit,
		verification.WithEnrollmentMailer(mailer))
	require.NoError(t, err)

	_, err = svc.StartOTP(context.Background(), "7", "Bob", "bob@example.com")
	assert.NoError(t, err)
}

type mailerFunc func(ctx context.Context, email, nickname, uri string) error

func (f mailerFunc) SendOTPEnrollment(ctx context.Context, email, nickname, uri string) error {
	return f(ctx, email, nickname, uri)
}

type fakeMessenger struct {
	mu          sync.Mutex
	err         error
	enrollments map[string]verification.StartOTPResult
}

func (m *fakeMessenger) DeliverOTPEnrollment(_ context.Context, userID string, enrollment verification.StartOTPResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.enrollments == nil {
		m.enrollments = make(map[string]verification.StartOTPResult)
	}
	m.enrollments[userID] = enrollment
	return nil
}

func TestOAuthChainsOTPEnrollment(t *testing.T) {
	t.Parallel()

	messenger := &fakeMessenger{}
	f := newFixture(t)
	svc, err := verification.New(f.registry, f.provider, f.mutator, f.audit,
		verification.WithEnrollmentMessenger(messenger))
	require.NoError(t, err)
	ctx := context.Background()

	start, err := svc.StartOAuth(ctx, "42")
	require.NoError(t, err)
	require.NoError(t, svc.HandleCallback(ctx, start.State, "abc"))

	enrollment, ok := messenger.enrollments["42"]
	require.True(t, ok, "login must be followed by the 2FA setup DM")
	assert.NotEmpty(t, enrollment.QRCode)
	assert.Equal(t, registry.KindOTP, f.registry.PeekKind(enrollment.FlowID),
		"the enrollment flow must be pending in the registry")

	// The user confirms with a code from their authenticator app.
	code, err := totp.GenerateCode(enrollment.Secret)
	require.NoError(t, err)
	require.NoError(t, svc.HandleCallback(ctx, enrollment.FlowID, code))

	event := f.audit.last(t)
	assert.Equal(t, "otp", event.Kind)
	assert.Zero(t, f.registry.Len())
}

func TestEnrollmentMessengerFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	messenger := &fakeMessenger{err: errors.New("dms closed")}
	f := newFixture(t)
	svc, err := verification.New(f.registry, f.provider, f.mutator, f.audit,
		verification.WithEnrollmentMessenger(messenger))
	require.NoError(t, err)

	start, err := svc.StartOAuth(context.Background(), "42")
	require.NoError(t, err)

	assert.NoError(t, svc.HandleCallback(context.Background(), start.State, "abc"),
		"an undeliverable setup DM must not undo the login")
	assert.Equal(t, []string{"42"}, f.mutator.calls)
}

func TestEnrollmentSkipsPlaceholderEmail(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		mailed []string
	)
	mailer := mailerFunc(func(_ context.Context, email, _, _ string) error {
		mu.Lock()
		defer mu.Unlock()
		mailed = append(mailed, email)
		return nil
	})

	messenger := &fakeMessenger{}
	f := newFixture(t)
	f.provider.identity = msauth.ResolvedIdentity{
		DisplayName: "Unknown User",
		Email:       "No email available",
		AccessToken: "access-token",
	}
	svc, err := verification.New(f.registry, f.provider, f.mutator, f.audit,
		verification.WithEnrollmentMailer(mailer),
		verification.WithEnrollmentMessenger(messenger))
	require.NoError(t, err)

	start, err := svc.StartOAuth(context.Background(), "42")
	require.NoError(t, err)
	require.NoError(t, svc.HandleCallback(context.Background(), start.State, "abc"))

	assert.NotEmpty(t, messenger.enrollments["42"].FlowID, "the DM still goes out")
	assert.Empty(t, mailed, "placeholder addresses must never be mailed")
}

func TestStartOTPLogsOnlyFlowIDPreview(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithLevel(slog.LevelDebug))

	f := newFixture(t)
	svc, err := verification.New(f.registry, f.provider, f.mutator, f.audit,
		verification.WithLogger(log))
	require.NoError(t, err)

	result, err := svc.StartOTP(context.Background(), "7", "Bob", "bob@example.com")
	require.NoError(t, err)

	logged := buf.String()
	assert.NotContains(t, logged, result.FlowID,
		"the full correlation token must never reach the logs")
	assert.Contains(t, logged, result.FlowID[:8]+"...")
}
