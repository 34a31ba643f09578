package verification

import "errors"

var (
	// ErrCorrelationNotFound is returned when a callback's token matches no
	// pending attempt. Unknown, replayed and expired tokens are deliberately
	// indistinguishable.
	ErrCorrelationNotFound = errors.New("verification: no matching pending attempt")
	// ErrProviderExchange is returned when the identity provider exchange
	// fails, whether rejected, unreachable or undecodable.
	ErrProviderExchange = errors.New("verification: provider exchange failed")
	// ErrInvalidOTPCode is returned when a submitted one-time code does not
	// match the attempt's provisioned secret.
	ErrInvalidOTPCode = errors.New("verification: invalid one-time code")
	// ErrRoleMutation is returned by role updates; the orchestrator logs it
	// and still treats the verification as resolved.
	ErrRoleMutation = errors.New("verification: role mutation failed")
	// ErrMissingDependency is returned by New when a required collaborator is nil.
	ErrMissingDependency = errors.New("verification: missing dependency")
)
