package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base32"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	Digits = 6  // Standard 6-digit codes
	Period = 30 // 30-second validity window (RFC 6238 standard)
)

// secretKeyRegex ensures Base32 format: uppercase A-Z, digits 2-7, optional padding.
var secretKeyRegex = regexp.MustCompile("^[A-Z2-7]+=*$")

var codeRegex = regexp.MustCompile(fmt.Sprintf(`^\d{%d}$`, Digits))

// GenerateSecretKey generates a new Base32-encoded secret key.
func GenerateSecretKey() (string, error) {
	secret := make([]byte, 20) // 160-bit secret per RFC 4226 recommendation
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Join(ErrSecretGeneration, err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret), nil
}

// ProvisioningURI creates a Key-Uri-Format otpauth URI for authenticator
// apps: https://github.com/google/google-authenticator/wiki/Key-Uri-Format
func ProvisioningURI(secret, accountName, issuer string) (string, error) {
	secret = normalizeSecret(secret)
	if !secretKeyRegex.MatchString(secret) {
		return "", ErrInvalidSecret
	}
	if accountName == "" || issuer == "" {
		return "", ErrMissingAccountName
	}

	label := fmt.Sprintf("%s:%s", url.PathEscape(issuer), url.PathEscape(accountName))

	query := url.Values{}
	query.Set("secret", secret)
	query.Set("issuer", issuer)
	query.Set("algorithm", "SHA1")
	query.Set("digits", fmt.Sprintf("%d", Digits))
	query.Set("period", fmt.Sprintf("%d", Period))

	return fmt.Sprintf("otpauth://totp/%s?%s", label, query.Encode()), nil
}

// Validate checks a user-supplied code against the secret.
// Codes from the previous, current, and next window are accepted to handle
// clock drift between the server and the authenticator device.
func Validate(secret, code string) (bool, error) {
	secret = normalizeSecret(secret)
	if !secretKeyRegex.MatchString(secret) {
		return false, ErrInvalidSecret
	}

	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.TrimRight(secret, "="))
	if err != nil {
		return false, errors.Join(ErrInvalidSecret, err)
	}

	code = strings.TrimSpace(code)
	if !codeRegex.MatchString(code) {
		return false, ErrInvalidCode
	}

	counter := time.Now().Unix() / Period
	for i := int64(-1); i <= 1; i++ {
		if fmt.Sprintf("%06d", hotp(key, counter+i, Digits)) == code {
			return true, nil
		}
	}

	return false, nil
}

// GenerateCode generates the code for the current window. Used by tests and
// by the development email sender to show what the user should see.
func GenerateCode(secret string) (string, error) {
	return GenerateCodeAt(secret, time.Now())
}

// GenerateCodeAt generates the code for the window containing t.
func GenerateCodeAt(secret string, t time.Time) (string, error) {
	secret = normalizeSecret(secret)
	if !secretKeyRegex.MatchString(secret) {
		return "", ErrInvalidSecret
	}

	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.TrimRight(secret, "="))
	if err != nil {
		return "", errors.Join(ErrInvalidSecret, err)
	}

	return fmt.Sprintf("%06d", hotp(key, t.Unix()/Period, Digits)), nil
}

// hotp implements the RFC 4226 HMAC-based one-time password algorithm.
func hotp(key []byte, counter int64, digits int) int {
	// Counter is a big-endian 8-byte value per RFC 4226.
	counterBytes := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		counterBytes[i] = byte(counter & 0xff)
		counter = counter >> 8
	}

	mac := hmac.New(sha1.New, key)
	mac.Write(counterBytes)
	hash := mac.Sum(nil)

	// Dynamic truncation: last 4 bits select the offset, then a 31-bit
	// value is extracted (MSB cleared to keep it positive).
	offset := hash[len(hash)-1] & 0x0f
	code := (int(hash[offset]&0x7f) << 24) |
		(int(hash[offset+1]&0xff) << 16) |
		(int(hash[offset+2]&0xff) << 8) |
		(int(hash[offset+3] & 0xff))

	return code % int(math.Pow10(digits))
}

func normalizeSecret(secret string) string {
	return strings.TrimSpace(strings.ToUpper(secret))
}
