package vault

import (
	"errors"
	"sync"
	"time"

	"github.com/dmitrymomot/flipperbot/pkg/secrets"
)

// AuthType distinguishes how a user's credentials were obtained.
type AuthType string

const (
	AuthTypeMicrosoft AuthType = "microsoft"
	AuthTypeManual    AuthType = "manual"
)

// Credentials is the plaintext view returned by Get. It must stay scoped
// to the call that needed it and never be logged in full.
type Credentials struct {
	AuthType     AuthType
	AccessToken  string
	RefreshToken string
	Email        string
	Password     string
	OTPSecret    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type record struct {
	authType  AuthType
	sealed    map[string]string
	createdAt time.Time
	updatedAt time.Time
}

// Vault is a concurrency-safe in-memory credential store. All sensitive
// fields are encrypted before being held.
type Vault struct {
	mu     sync.RWMutex
	cipher *secrets.Cipher
	users  map[string]record
	now    func() time.Time
}

// New creates an empty vault sealing entries with the given cipher.
func New(cipher *secrets.Cipher) *Vault {
	return &Vault{
		cipher: cipher,
		users:  make(map[string]record),
		now:    time.Now,
	}
}

// StoreMicrosoft seals and stores OAuth tokens for the user, replacing any
// previous entry.
func (v *Vault) StoreMicrosoft(userID, accessToken, refreshToken string) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	sealed, err := v.seal(map[string]string{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
	if err != nil {
		return err
	}
	v.put(userID, AuthTypeMicrosoft, sealed)
	return nil
}

// StoreManual seals and stores a manual email/password login plus its TOTP
// secret, replacing any previous entry.
func (v *Vault) StoreManual(userID, email, password, otpSecret string) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	sealed, err := v.seal(map[string]string{
		"email":      email,
		"password":   password,
		"otp_secret": otpSecret,
	})
	if err != nil {
		return err
	}
	v.put(userID, AuthTypeManual, sealed)
	return nil
}

func (v *Vault) seal(fields map[string]string) (map[string]string, error) {
	sealed := make(map[string]string, len(fields))
	for key, value := range fields {
		enc, err := v.cipher.EncryptString(value)
		if err != nil {
			return nil, errors.Join(ErrSealFailed, err)
		}
		sealed[key] = enc
	}
	return sealed, nil
}

func (v *Vault) put(userID string, authType AuthType, sealed map[string]string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	createdAt := now
	if existing, ok := v.users[userID]; ok {
		createdAt = existing.createdAt
	}
	v.users[userID] = record{
		authType:  authType,
		sealed:    sealed,
		createdAt: createdAt,
		updatedAt: now,
	}
}

// Get opens and returns the user's credentials.
func (v *Vault) Get(userID string) (Credentials, error) {
	v.mu.RLock()
	rec, ok := v.users[userID]
	v.mu.RUnlock()
	if !ok {
		return Credentials{}, ErrNotFound
	}

	opened := make(map[string]string, len(rec.sealed))
	for key, value := range rec.sealed {
		plain, err := v.cipher.DecryptString(value)
		if err != nil {
			return Credentials{}, errors.Join(ErrOpenFailed, err)
		}
		opened[key] = plain
	}

	return Credentials{
		AuthType:     rec.authType,
		AccessToken:  opened["access_token"],
		RefreshToken: opened["refresh_token"],
		Email:        opened["email"],
		Password:     opened["password"],
		OTPSecret:    opened["otp_secret"],
		CreatedAt:    rec.createdAt,
		UpdatedAt:    rec.updatedAt,
	}, nil
}

// Delete removes the user's credentials and reports whether any existed.
func (v *Vault) Delete(userID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	_, ok := v.users[userID]
	delete(v.users, userID)
	return ok
}

// Len returns the number of stored users.
func (v *Vault) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.users)
}
