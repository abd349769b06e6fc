package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	sessionentities "werewolf/contexts/game/session-service/domain/entities"
	sessionports "werewolf/contexts/game/session-service/ports"
)

// basePermissions is what the default role keeps on a fresh game server:
// view, connect, speak, message history and the other spectator basics,
// with management bits stripped.
const basePermissions int64 = 37080128

// Directory implements the session service's GuildDirectory on the gateway
// session.
type Directory struct {
	client *Client
}

func NewDirectory(client *Client) *Directory {
	return &Directory{client: client}
}

func (d *Directory) CreateGuild(_ context.Context, name string) (string, error) {
	guild, err := d.client.Session().GuildCreate(name)
	if err != nil {
		return "", fmt.Errorf("guild create: %w", err)
	}
	return guild.ID, nil
}

func (d *Directory) DeleteGuild(_ context.Context, guildID string) error {
	if err := d.client.Session().GuildDelete(guildID); err != nil {
		// Deleting requires ownership; leaving is the fallback when the
		// bot was re-invited into a server it does not own.
		return d.client.Session().GuildLeave(guildID)
	}
	return nil
}

func (d *Directory) RestrictEveryone(_ context.Context, guildID string) error {
	perms := basePermissions
	// The @everyone role shares the guild id.
	_, err := d.client.Session().GuildRoleEdit(guildID, guildID, &discordgo.RoleParams{
		Permissions: &perms,
	})
	if err != nil {
		return fmt.Errorf("edit everyone role: %w", err)
	}
	return nil
}

func (d *Directory) CreateRole(_ context.Context, guildID string, spec sessionports.RoleSpec) (string, error) {
	params := &discordgo.RoleParams{
		Name:        spec.Name,
		Hoist:       &spec.Hoist,
		Mentionable: &spec.Mentionable,
	}
	if spec.Color != 0 {
		color := spec.Color
		params.Color = &color
	}
	if spec.Administrator {
		perms := int64(discordgo.PermissionAdministrator)
		params.Permissions = &perms
	}
	role, err := d.client.Session().GuildRoleCreate(guildID, params)
	if err != nil {
		return "", fmt.Errorf("create role %q: %w", spec.Name, err)
	}
	return role.ID, nil
}

func (d *Directory) CreateCategory(_ context.Context, guildID, name string) (string, error) {
	channel, err := d.client.Session().GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name: name,
		Type: discordgo.ChannelTypeGuildCategory,
	})
	if err != nil {
		return "", fmt.Errorf("create category %q: %w", name, err)
	}
	return channel.ID, nil
}

func (d *Directory) CreateChannel(_ context.Context, guildID string, spec sessionports.ChannelSpec) (string, error) {
	data := discordgo.GuildChannelCreateData{
		Name:     spec.Name,
		ParentID: spec.CategoryID,
	}
	switch spec.Kind {
	case sessionports.ChannelVoice:
		data.Type = discordgo.ChannelTypeGuildVoice
	case sessionports.ChannelStage:
		data.Type = discordgo.ChannelTypeGuildStageVoice
	default:
		data.Type = discordgo.ChannelTypeGuildText
	}
	for _, overwrite := range spec.Overwrites {
		roleID := overwrite.RoleID
		if roleID == "" {
			roleID = guildID
		}
		allow, deny := presetBits(overwrite.Preset)
		data.PermissionOverwrites = append(data.PermissionOverwrites, &discordgo.PermissionOverwrite{
			ID:    roleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: allow,
			Deny:  deny,
		})
	}

	channel, err := d.client.Session().GuildChannelCreateComplex(guildID, data)
	if err != nil {
		return "", fmt.Errorf("create channel %q: %w", spec.Name, err)
	}
	return channel.ID, nil
}

func (d *Directory) CreateInvite(_ context.Context, channelID string) (string, error) {
	invite, err := d.client.Session().ChannelInviteCreate(channelID, discordgo.Invite{MaxAge: 0, MaxUses: 0})
	if err != nil {
		return "", fmt.Errorf("create invite: %w", err)
	}
	return "https://discord.gg/" + invite.Code, nil
}

func (d *Directory) ListMembers(_ context.Context, guildID string) ([]sessionports.Member, error) {
	roles, err := d.client.Session().GuildRoles(guildID)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	roleNames := make(map[string]string, len(roles))
	for _, role := range roles {
		roleNames[role.ID] = role.Name
	}

	members, err := d.client.Session().GuildMembers(guildID, "", 1000)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	out := make([]sessionports.Member, 0, len(members))
	for _, member := range members {
		converted := sessionports.Member{
			UserID:      member.User.ID,
			DisplayName: displayName(member),
			IsBot:       member.User.Bot,
		}
		for _, roleID := range member.Roles {
			converted.Roles = append(converted.Roles, sessionentities.RoleRef{ID: roleID, Name: roleNames[roleID]})
		}
		out = append(out, converted)
	}
	return out, nil
}

func (d *Directory) ListVoiceRooms(_ context.Context, guildID string) ([]sessionports.VoiceRoom, error) {
	channels, err := d.client.Session().GuildChannels(guildID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	rooms := make([]sessionports.VoiceRoom, 0, len(channels))
	for _, channel := range channels {
		if channel.Type != discordgo.ChannelTypeGuildVoice {
			continue
		}
		rooms = append(rooms, sessionports.VoiceRoom{
			ChannelID:  channel.ID,
			Name:       channel.Name,
			CategoryID: channel.ParentID,
			UserLimit:  channel.UserLimit,
		})
	}
	return rooms, nil
}

func (d *Directory) AddMemberRole(_ context.Context, guildID, userID, roleID string) error {
	return d.client.Session().GuildMemberRoleAdd(guildID, userID, roleID)
}

func (d *Directory) RemoveMemberRole(_ context.Context, guildID, userID, roleID string) error {
	return d.client.Session().GuildMemberRoleRemove(guildID, userID, roleID)
}

func (d *Directory) SetNickname(_ context.Context, guildID, userID, nick string) error {
	return d.client.Session().GuildMemberNickname(guildID, userID, nick)
}

func (d *Directory) GrantChannelAccess(_ context.Context, channelID, roleID string, preset sessionports.AccessPreset) error {
	allow, deny := presetBits(preset)
	return d.client.Session().ChannelPermissionSet(channelID, roleID, discordgo.PermissionOverwriteTypeRole, allow, deny)
}

func presetBits(preset sessionports.AccessPreset) (allow int64, deny int64) {
	switch preset {
	case sessionports.AccessReadWrite:
		allow = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionReadMessageHistory
	case sessionports.AccessReadOnly:
		allow = discordgo.PermissionViewChannel | discordgo.PermissionReadMessageHistory
		deny = discordgo.PermissionSendMessages
	case sessionports.AccessHidden:
		deny = discordgo.PermissionViewChannel
	case sessionports.AccessSpeak:
		allow = discordgo.PermissionViewChannel | discordgo.PermissionVoiceConnect | discordgo.PermissionVoiceSpeak
	case sessionports.AccessListen:
		allow = discordgo.PermissionViewChannel | discordgo.PermissionVoiceConnect
		deny = discordgo.PermissionVoiceSpeak
	}
	return allow, deny
}

func displayName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}
