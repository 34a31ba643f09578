// Package discord owns the bot's gateway connection and everything that
// touches the Discord API: role mutation for verified members, welcome
// provisioning for new joins, interaction handling for the Verify and Q&A
// buttons, and admin/flip notifications.
//
// The role mutator is idempotent: verifying an already verified member
// changes nothing. Verified/unverified roles are provisioned lazily the
// first time a guild needs them. Direct messages to users are best effort;
// a closed DM inbox never fails a verification.
package discord
