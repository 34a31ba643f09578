package email

import (
	"context"
	"errors"
	"testing"

	"github.com/mrz1836/postmark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePostmark struct {
	sent []postmark.Email
	resp postmark.EmailResponse
	err  error
}

func (f *fakePostmark) SendEmail(_ context.Context, email postmark.Email) (postmark.EmailResponse, error) {
	f.sent = append(f.sent, email)
	return f.resp, f.err
}

func TestNewSender(t *testing.T) {
	t.Parallel()

	_, err := NewSender(Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewSender(Config{
		PostmarkServerToken:  "server",
		PostmarkAccountToken: "account",
		SenderEmail:          "not-an-email",
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	sender, err := NewSender(Config{
		PostmarkServerToken:  "server",
		PostmarkAccountToken: "account",
		SenderEmail:          "bot@flipperbot.app",
	})
	require.NoError(t, err)
	assert.NotNil(t, sender)
}

func TestSendOTPEnrollment(t *testing.T) {
	t.Parallel()

	t.Run("delivers with provisioning link", func(t *testing.T) {
		t.Parallel()

		fake := &fakePostmark{}
		s := &Sender{client: fake, from: "bot@flipperbot.app"}

		err := s.SendOTPEnrollment(context.Background(), "bob@example.com", "Bob",
			"otpauth://totp/FlipperBot:Bob?secret=ABC")
		require.NoError(t, err)

		require.Len(t, fake.sent, 1)
		msg := fake.sent[0]
		assert.Equal(t, "bob@example.com", msg.To)
		assert.Equal(t, "bot@flipperbot.app", msg.From)
		assert.Contains(t, msg.HTMLBody, "otpauth://totp/FlipperBot:Bob?secret=ABC")
		assert.Contains(t, msg.HTMLBody, "Hi Bob")
	})

	t.Run("invalid recipient", func(t *testing.T) {
		t.Parallel()

		s := &Sender{client: &fakePostmark{}, from: "bot@flipperbot.app"}
		err := s.SendOTPEnrollment(context.Background(), "not-an-email", "Bob", "otpauth://x")
		assert.ErrorIs(t, err, ErrInvalidRecipient)
	})

	t.Run("transport failure", func(t *testing.T) {
		t.Parallel()

		fake := &fakePostmark{err: errors.New("timeout")}
		s := &Sender{client: fake, from: "bot@flipperbot.app"}
		err := s.SendOTPEnrollment(context.Background(), "bob@example.com", "Bob", "otpauth://x")
		assert.ErrorIs(t, err, ErrSendFailed)
	})

	t.Run("provider-side rejection", func(t *testing.T) {
		t.Parallel()

		fake := &fakePostmark{resp: postmark.EmailResponse{ErrorCode: 406, Message: "inactive recipient"}}
		s := &Sender{client: fake, from: "bot@flipperbot.app"}
		err := s.SendOTPEnrollment(context.Background(), "bob@example.com", "Bob", "otpauth://x")
		assert.ErrorIs(t, err, ErrSendFailed)
	})
}

func TestLogSender(t *testing.T) {
	t.Parallel()

	s := NewLogSender(nil)
	assert.NoError(t, s.SendOTPEnrollment(context.Background(), "bob@example.com", "Bob", "otpauth://x"))
}
