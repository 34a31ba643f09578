package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/flipperbot/internal/msauth"
	"github.com/dmitrymomot/flipperbot/internal/registry"
	"github.com/dmitrymomot/flipperbot/internal/vault"
	"github.com/dmitrymomot/flipperbot/pkg/logger"
	"github.com/dmitrymomot/flipperbot/pkg/qrcode"
	"github.com/dmitrymomot/flipperbot/pkg/totp"
)

const otpIssuer = "FlipperBot"

// Provider is the identity-provider client used for OAuth attempts.
type Provider interface {
	AuthCodeURL(state string, extra ...msauth.Param) string
	ExchangeCode(ctx context.Context, code string) (msauth.ResolvedIdentity, error)
}

// RoleMutator applies the verified role change for a Discord user.
type RoleMutator interface {
	VerifyMember(ctx context.Context, userID string) error
}

// AuditNotifier posts verification audit events to the admin channel.
// Implementations must treat delivery as best effort.
type AuditNotifier interface {
	NotifyVerification(ctx context.Context, event AuditEvent)
}

// EnrollmentMailer sends the OTP enrollment email. Optional.
type EnrollmentMailer interface {
	SendOTPEnrollment(ctx context.Context, email, nickname, provisioningURI string) error
}

// EnrollmentMessenger delivers OTP enrollment material (QR code,
// provisioning URI, flow ID) straight to the user, typically as a Discord
// DM. Optional; delivery is best effort.
type EnrollmentMessenger interface {
	DeliverOTPEnrollment(ctx context.Context, userID string, enrollment StartOTPResult) error
}

// AuditEvent describes a completed verification for the admin channel.
// Correlation is a length-bounded token preview, never the full token.
type AuditEvent struct {
	Kind        string
	UserID      string
	DisplayName string
	Email       string
	Correlation string
	RolesOK     bool
}

// StartOAuthResult is handed back to the command layer to present to the user.
type StartOAuthResult struct {
	AuthURL string
	State   string
}

// StartOTPResult carries everything the user needs to enroll an authenticator.
type StartOTPResult struct {
	FlowID          string
	Secret          string
	ProvisioningURI string
	QRCode          []byte
}

// Service drives verification attempts end to end.
type Service struct {
	registry  *registry.Registry
	provider  Provider
	mutator   RoleMutator
	audit     AuditNotifier
	vault     *vault.Vault
	mailer    EnrollmentMailer
	messenger EnrollmentMessenger
	log       *slog.Logger
}

// Option configures optional collaborators.
type Option func(*Service)

// WithVault stores resolved credentials in the given vault.
func WithVault(v *vault.Vault) Option {
	return func(s *Service) { s.vault = v }
}

// WithEnrollmentMailer sends OTP enrollment emails.
func WithEnrollmentMailer(m EnrollmentMailer) Option {
	return func(s *Service) { s.mailer = m }
}

// WithEnrollmentMessenger delivers OTP enrollment material to the user
// after a successful OAuth login, chaining the two-factor setup step.
func WithEnrollmentMessenger(m EnrollmentMessenger) Option {
	return func(s *Service) { s.messenger = m }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// New wires the orchestrator. Registry, provider, mutator and audit
// notifier are required; their absence is a startup error, not a per-call
// one.
func New(reg *registry.Registry, provider Provider, mutator RoleMutator, audit AuditNotifier, opts ...Option) (*Service, error) {
	if reg == nil || provider == nil || mutator == nil || audit == nil {
		return nil, ErrMissingDependency
	}
	s := &Service{
		registry: reg,
		provider: provider,
		mutator:  mutator,
		audit:    audit,
		log:      logger.NewDiscard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// StartOAuth registers a pending OAuth attempt and returns the
// authorization URL for the user to follow.
func (s *Service) StartOAuth(ctx context.Context, userID string) (StartOAuthResult, error) {
	state, err := s.registry.BeginOAuth(userID)
	if err != nil {
		return StartOAuthResult{}, err
	}

	s.log.InfoContext(ctx, "oauth attempt started",
		logger.Event("verification.oauth.start"),
		logger.UserID(userID),
		logger.Redacted("state", state),
	)

	return StartOAuthResult{
		AuthURL: s.provider.AuthCodeURL(state, msauth.Param{Key: "prompt", Value: "select_account"}),
		State:   state,
	}, nil
}

// StartOTP registers a pending OTP attempt: it provisions a fresh TOTP
// secret, renders the otpauth QR code and, when a mailer is configured,
// emails the enrollment instructions.
func (s *Service) StartOTP(ctx context.Context, userID, nickname, email string) (StartOTPResult, error) {
	secret, err := totp.GenerateSecretKey()
	if err != nil {
		return StartOTPResult{}, err
	}

	flowID, err := s.registry.BeginOTP(userID, nickname, email, secret)
	if err != nil {
		return StartOTPResult{}, err
	}

	account := nickname
	if account == "" {
		account = email
	}
	uri, err := totp.ProvisioningURI(secret, account, otpIssuer)
	if err != nil {
		return StartOTPResult{}, err
	}

	png, err := qrcode.Generate(uri, 0)
	if err != nil {
		return StartOTPResult{}, err
	}

	if s.mailer != nil && email != "" {
		if err := s.mailer.SendOTPEnrollment(ctx, email, nickname, uri); err != nil {
			s.log.WarnContext(ctx, "enrollment email failed",
				logger.Event("verification.otp.email_failed"),
				logger.UserID(userID),
				logger.Error(err),
			)
		}
	}

	s.log.InfoContext(ctx, "otp attempt started",
		logger.Event("verification.otp.start"),
		logger.UserID(userID),
		logger.FlowID(preview(flowID)),
	)

	return StartOTPResult{
		FlowID:          flowID,
		Secret:          secret,
		ProvisioningURI: uri,
		QRCode:          png,
	}, nil
}

// HandleCallback processes an external callback carrying a correlation
// token and a code. For OAuth attempts the code is the provider's
// authorization code; for OTP attempts it is the user's one-time code.
func (s *Service) HandleCallback(ctx context.Context, token, code string) error {
	switch s.registry.PeekKind(token) {
	case registry.KindOTP:
		return s.VerifyOTPCode(ctx, token, code)
	default:
		// Unknown tokens take the OAuth path so that the not-found
		// rejection is identical for both variants.
		return s.handleOAuthCallback(ctx, token, code)
	}
}

func (s *Service) handleOAuthCallback(ctx context.Context, state, code string) error {
	entry, ok := s.registry.ResolveOAuth(state)
	if !ok {
		s.log.WarnContext(ctx, "callback with no matching attempt",
			logger.Event("verification.rejected"),
			logger.Redacted("state", state),
		)
		return ErrCorrelationNotFound
	}

	identity, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		s.log.ErrorContext(ctx, "code exchange failed",
			logger.Event("verification.exchange_failed"),
			logger.UserID(entry.UserID),
			logger.Error(err),
		)
		return errors.Join(ErrProviderExchange, err)
	}

	if s.vault != nil {
		if err := s.vault.StoreMicrosoft(entry.UserID, identity.AccessToken, identity.RefreshToken); err != nil {
			s.log.ErrorContext(ctx, "failed to store credentials",
				logger.Event("verification.vault_failed"),
				logger.UserID(entry.UserID),
				logger.Error(err),
			)
		}
	}

	s.finish(ctx, AuditEvent{
		Kind:        registry.KindOAuth.String(),
		UserID:      entry.UserID,
		DisplayName: identity.DisplayName,
		Email:       identity.Email,
		Correlation: preview(state),
	})

	s.enrollAfterOAuth(ctx, entry.UserID, identity.DisplayName, identity.Email)
	return nil
}

// enrollAfterOAuth chains the two-factor setup step the instructions
// promise: once the provider login resolves, the user gets the enrollment
// QR code and flow ID over a direct message. Enrollment is supplementary,
// so nothing here can fail the already-resolved verification.
func (s *Service) enrollAfterOAuth(ctx context.Context, userID, nickname, email string) {
	if s.messenger == nil {
		return
	}
	if !strings.Contains(email, "@") {
		// Placeholder addresses from the identity fallback are not mailable.
		email = ""
	}

	enrollment, err := s.StartOTP(ctx, userID, nickname, email)
	if err != nil {
		s.log.WarnContext(ctx, "otp enrollment could not start",
			logger.Event("verification.otp.enroll_failed"),
			logger.UserID(userID),
			logger.Error(err),
		)
		return
	}

	if err := s.messenger.DeliverOTPEnrollment(ctx, userID, enrollment); err != nil {
		s.log.WarnContext(ctx, "otp enrollment undeliverable",
			logger.Event("verification.otp.enroll_failed"),
			logger.UserID(userID),
			logger.Error(err),
		)
	}
}

// VerifyOTPCode resolves a pending OTP attempt against a user-submitted
// one-time code. The code must match the secret provisioned when the
// attempt started; mere arrival of a callback is not success.
func (s *Service) VerifyOTPCode(ctx context.Context, flowID, code string) error {
	entry, ok := s.registry.ResolveOTP(flowID)
	if !ok {
		s.log.WarnContext(ctx, "otp callback with no matching attempt",
			logger.Event("verification.rejected"),
			logger.Redacted("flow_id", flowID),
		)
		return ErrCorrelationNotFound
	}

	valid, err := totp.Validate(entry.Secret, code)
	if err != nil || !valid {
		s.log.WarnContext(ctx, "one-time code rejected",
			logger.Event("verification.otp.invalid_code"),
			logger.UserID(entry.UserID),
		)
		return ErrInvalidOTPCode
	}

	if s.vault != nil {
		if err := s.vault.StoreManual(entry.UserID, entry.Email, "", entry.Secret); err != nil {
			s.log.ErrorContext(ctx, "failed to store credentials",
				logger.Event("verification.vault_failed"),
				logger.UserID(entry.UserID),
				logger.Error(err),
			)
		}
	}

	s.finish(ctx, AuditEvent{
		Kind:        registry.KindOTP.String(),
		UserID:      entry.UserID,
		DisplayName: entry.Nickname,
		Email:       entry.Email,
		Correlation: preview(flowID),
	})
	return nil
}

// finish applies the role change and emits the audit event. A failed role
// mutation does not undo the exchange: the attempt counts as resolved and
// the admin channel hears about it either way.
func (s *Service) finish(ctx context.Context, event AuditEvent) {
	event.RolesOK = true
	if err := s.mutator.VerifyMember(ctx, event.UserID); err != nil {
		event.RolesOK = false
		s.log.ErrorContext(ctx, "role mutation failed",
			logger.Event("verification.roles_failed"),
			logger.UserID(event.UserID),
			logger.Error(errors.Join(ErrRoleMutation, err)),
		)
	}

	s.audit.NotifyVerification(ctx, event)

	s.log.InfoContext(ctx, "verification resolved",
		logger.Event("verification.resolved"),
		logger.UserID(event.UserID),
		slog.String("kind", event.Kind),
		slog.String("display_name", event.DisplayName),
		slog.Bool("roles_ok", event.RolesOK),
	)
}

func preview(token string) string {
	const max = 8
	if len(token) <= max {
		return token
	}
	return fmt.Sprintf("%s...", token[:max])
}
