package discord

import "errors"

var (
	// ErrMissingToken is returned when the bot token is not configured.
	ErrMissingToken = errors.New("discord: missing bot token")
	// ErrRoleProvisioning is returned when the verified or unverified role
	// cannot be created in a guild.
	ErrRoleProvisioning = errors.New("discord: failed to provision roles")
	// ErrRoleMutation is returned when the member's roles cannot be updated
	// in any guild the member belongs to.
	ErrRoleMutation = errors.New("discord: failed to update member roles")
	// ErrMissingDependency is returned when a required collaborator is nil.
	ErrMissingDependency = errors.New("discord: missing dependency")
)
