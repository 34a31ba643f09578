package email

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"regexp"

	"github.com/mrz1836/postmark"

	"github.com/dmitrymomot/flipperbot/pkg/logger"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Config holds the Postmark settings, loaded from the environment.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"EMAIL_SENDER" envDefault:"no-reply@flipperbot.app"`
}

// postmarkAPI is the slice of the Postmark client the sender uses.
type postmarkAPI interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// Sender delivers enrollment emails through Postmark. It implements
// verification.EnrollmentMailer.
type Sender struct {
	client postmarkAPI
	from   string
}

// NewSender creates a Postmark-backed sender, failing fast on missing
// credentials.
func NewSender(cfg Config) (*Sender, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: PostmarkAccountToken is required", ErrInvalidConfig)
	}
	if cfg.SenderEmail == "" || !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}
	return &Sender{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		from:   cfg.SenderEmail,
	}, nil
}

// SendOTPEnrollment emails the authenticator setup link for a pending
// attempt.
func (s *Sender) SendOTPEnrollment(ctx context.Context, to, nickname, provisioningURI string) error {
	if !emailRegex.MatchString(to) {
		return ErrInvalidRecipient
	}

	greeting := "Hi"
	if nickname != "" {
		greeting = "Hi " + html.EscapeString(nickname)
	}
	body := fmt.Sprintf(`<p>%s,</p>
<p>You started two-factor verification for FlipperBot. Add the account to your
authenticator app with the link below, then enter the generated code in Discord.</p>
<p><a href="%s">Set up authenticator</a></p>
<p>This enrollment expires in 10 minutes. If you did not request it, ignore this email.</p>`,
		greeting, html.EscapeString(provisioningURI))

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.from,
		To:       to,
		Subject:  "FlipperBot verification: set up your authenticator",
		Tag:      "otp-enrollment",
		HTMLBody: body,
	})
	if err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrSendFailed, fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}

// LogSender writes enrollment emails to the log instead of sending them.
type LogSender struct {
	log *slog.Logger
}

// NewLogSender creates a development sender.
func NewLogSender(log *slog.Logger) *LogSender {
	if log == nil {
		log = logger.NewDiscard()
	}
	return &LogSender{log: log}
}

// SendOTPEnrollment logs the message instead of delivering it.
func (s *LogSender) SendOTPEnrollment(ctx context.Context, to, nickname, provisioningURI string) error {
	s.log.InfoContext(ctx, "otp enrollment email (dev sender)",
		logger.Event("email.otp_enrollment"),
		slog.String("to", to),
		slog.String("nickname", nickname),
		logger.Redacted("provisioning_uri", provisioningURI),
	)
	return nil
}
