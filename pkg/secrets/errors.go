package secrets

import "errors"

var (
	// ErrInvalidKey indicates the master key is not exactly KeySize bytes.
	ErrInvalidKey = errors.New("secrets: master key must be 32 bytes")

	// ErrKeyDerivationFailed indicates HKDF expansion failed.
	ErrKeyDerivationFailed = errors.New("secrets: key derivation failed")

	// ErrEncryptionFailed indicates the AES-GCM seal operation failed.
	ErrEncryptionFailed = errors.New("secrets: encryption failed")

	// ErrDecryptionFailed indicates the ciphertext could not be opened,
	// typically a wrong key or tampered data.
	ErrDecryptionFailed = errors.New("secrets: decryption failed")

	// ErrInvalidCiphertext indicates malformed ciphertext input.
	ErrInvalidCiphertext = errors.New("secrets: invalid ciphertext")
)
