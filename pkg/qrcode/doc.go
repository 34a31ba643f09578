// Package qrcode renders PNG QR codes. The bot attaches one to the manual
// verification DM so the user can scan the otpauth provisioning URI with an
// authenticator app instead of typing the secret.
package qrcode
