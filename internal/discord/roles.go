package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/bwmarrin/discordgo"

	"github.com/dmitrymomot/flipperbot/pkg/logger"
)

const (
	verifiedRoleColor   = 0x00ff00
	unverifiedRoleColor = 0x95a5a6
)

// Mutator moves members from the unverified role to the verified role
// across every guild the bot is in.
type Mutator struct {
	gw             Gateway
	verifiedName   string
	unverifiedName string
	log            *slog.Logger
}

// MutatorOption configures a Mutator.
type MutatorOption func(*Mutator)

// WithMutatorLogger sets the logger.
func WithMutatorLogger(log *slog.Logger) MutatorOption {
	return func(m *Mutator) { m.log = log }
}

// NewMutator creates a role mutator using the configured role names.
func NewMutator(gw Gateway, cfg Config, opts ...MutatorOption) (*Mutator, error) {
	if gw == nil {
		return nil, ErrMissingDependency
	}
	m := &Mutator{
		gw:             gw,
		verifiedName:   cfg.VerifiedRoleName,
		unverifiedName: cfg.UnverifiedRoleName,
		log:            logger.NewDiscard(),
	}
	if m.verifiedName == "" {
		m.verifiedName = "Verified"
	}
	if m.unverifiedName == "" {
		m.unverifiedName = "Unverified"
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// VerifyMember removes the unverified role and grants the verified role in
// every guild where the user is a member. The operation is idempotent:
// re-verifying a verified member leaves the role set unchanged. Guilds
// where the user is not a member are skipped silently. The member gets a
// confirmation DM on a best-effort basis.
func (m *Mutator) VerifyMember(ctx context.Context, userID string) error {
	var (
		touched int
		errs    []error
	)
	for _, guildID := range m.gw.GuildIDs() {
		if err := ctx.Err(); err != nil {
			return err
		}

		verifiedID, unverifiedID, err := m.ensureRoles(guildID)
		if err != nil {
			errs = append(errs, fmt.Errorf("guild %s: %w", guildID, err))
			continue
		}

		member, err := m.gw.GuildMember(guildID, userID)
		if err != nil || member == nil {
			continue
		}

		if slices.Contains(member.Roles, unverifiedID) {
			if err := m.gw.GuildMemberRoleRemove(guildID, userID, unverifiedID); err != nil {
				errs = append(errs, fmt.Errorf("guild %s: remove unverified: %w", guildID, err))
			}
		}
		if !slices.Contains(member.Roles, verifiedID) {
			if err := m.gw.GuildMemberRoleAdd(guildID, userID, verifiedID); err != nil {
				errs = append(errs, fmt.Errorf("guild %s: add verified: %w", guildID, err))
				continue
			}
		}
		touched++
	}

	if touched == 0 {
		if len(errs) > 0 {
			return errors.Join(append([]error{ErrRoleMutation}, errs...)...)
		}
		// The member left every shared guild between starting and
		// finishing verification. Expected race, not an error.
		m.log.WarnContext(ctx, "verified member not found in any guild",
			logger.Event("discord.roles.member_missing"),
			logger.UserID(userID),
		)
		return nil
	}
	for _, err := range errs {
		m.log.WarnContext(ctx, "partial role update",
			logger.Event("discord.roles.partial"),
			logger.UserID(userID),
			logger.Error(err),
		)
	}

	if err := m.gw.DirectMessageEmbed(userID, verifiedEmbed()); err != nil {
		m.log.DebugContext(ctx, "verification DM undeliverable",
			logger.Event("discord.dm_failed"),
			logger.UserID(userID),
			logger.Error(err),
		)
	}
	return nil
}

// MarkUnverified grants the unverified role to a freshly joined member.
func (m *Mutator) MarkUnverified(ctx context.Context, guildID, userID string) error {
	_, unverifiedID, err := m.ensureRoles(guildID)
	if err != nil {
		return err
	}
	if err := m.gw.GuildMemberRoleAdd(guildID, userID, unverifiedID); err != nil {
		return errors.Join(ErrRoleMutation, err)
	}
	return nil
}

// ensureRoles returns the verified and unverified role IDs for the guild,
// creating either role the first time it is needed.
func (m *Mutator) ensureRoles(guildID string) (verifiedID, unverifiedID string, err error) {
	roles, err := m.gw.GuildRoles(guildID)
	if err != nil {
		return "", "", errors.Join(ErrRoleProvisioning, err)
	}
	for _, role := range roles {
		switch role.Name {
		case m.verifiedName:
			verifiedID = role.ID
		case m.unverifiedName:
			unverifiedID = role.ID
		}
	}

	if verifiedID == "" {
		role, err := m.gw.GuildRoleCreate(guildID, &discordgo.RoleParams{
			Name:  m.verifiedName,
			Color: intPtr(verifiedRoleColor),
		})
		if err != nil {
			return "", "", errors.Join(ErrRoleProvisioning, err)
		}
		verifiedID = role.ID
		m.log.Info("provisioned role",
			logger.Event("discord.roles.created"),
			logger.GuildID(guildID),
			slog.String("role", m.verifiedName),
		)
	}
	if unverifiedID == "" {
		role, err := m.gw.GuildRoleCreate(guildID, &discordgo.RoleParams{
			Name:  m.unverifiedName,
			Color: intPtr(unverifiedRoleColor),
		})
		if err != nil {
			return "", "", errors.Join(ErrRoleProvisioning, err)
		}
		unverifiedID = role.ID
		m.log.Info("provisioned role",
			logger.Event("discord.roles.created"),
			logger.GuildID(guildID),
			slog.String("role", m.unverifiedName),
		)
	}
	return verifiedID, unverifiedID, nil
}

func intPtr(v int) *int {
	return &v
}
