package commands

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"werewolf/contexts/game/session-service/application"
	"werewolf/contexts/game/session-service/domain/entities"
	domainerrors "werewolf/contexts/game/session-service/domain/errors"
	"werewolf/contexts/game/session-service/ports"
	"werewolf/internal/shared/events"
)

const (
	maxPlayerCount = 20
	sessionTopic   = "session.events"
)

// SessionUseCase provisions, mutates and tears down temporary game servers.
type SessionUseCase struct {
	Sessions ports.SessionStore
	Guilds   ports.GuildDirectory
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Replays  ports.ReplayWriter
	Events   ports.EventPublisher
	Rand     *rand.Rand
	Logger   *slog.Logger
}

type CreateServerCommand struct {
	PlayerCount int
}

type CreateServerResult struct {
	SessionID string
	GuildID   string
	InviteURL string
}

// CreateGameServer builds a fresh guild with the full role, category and
// channel layout for one game, then registers the session.
func (uc SessionUseCase) CreateGameServer(ctx context.Context, cmd CreateServerCommand) (CreateServerResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	if cmd.PlayerCount < 1 || cmd.PlayerCount > maxPlayerCount {
		return CreateServerResult{}, domainerrors.ErrInvalidPlayerCount
	}

	guildID, err := uc.Guilds.CreateGuild(ctx, entities.GuildName)
	if err != nil {
		return CreateServerResult{}, fmt.Errorf("create guild: %w", err)
	}
	if err := uc.Guilds.RestrictEveryone(ctx, guildID); err != nil {
		return CreateServerResult{}, fmt.Errorf("restrict everyone role: %w", err)
	}

	sessionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateServerResult{}, err
	}
	session := entities.Session{
		ID:          sessionID,
		GuildID:     guildID,
		PlayerCount: cmd.PlayerCount,
		CreatedAt:   uc.Clock.Now(),
	}

	if err := uc.provisionRoles(ctx, &session); err != nil {
		return CreateServerResult{}, err
	}
	if err := uc.provisionChannels(ctx, &session); err != nil {
		return CreateServerResult{}, err
	}

	invite, err := uc.Guilds.CreateInvite(ctx, session.Channels.CourtTextID)
	if err != nil {
		return CreateServerResult{}, fmt.Errorf("create invite: %w", err)
	}
	session.InviteURL = invite

	if err := uc.Sessions.Register(ctx, session); err != nil {
		return CreateServerResult{}, err
	}

	logger.Info("game server created",
		"event", "session_created",
		"module", "game/session-service",
		"layer", "application",
		"session_id", session.ID,
		"guild_id", guildID,
		"player_count", cmd.PlayerCount,
	)
	uc.publishEvent(ctx, "session.created", session.ID, map[string]any{
		"guild_id":     guildID,
		"player_count": cmd.PlayerCount,
	})

	return CreateServerResult{SessionID: session.ID, GuildID: guildID, InviteURL: invite}, nil
}

func (uc SessionUseCase) provisionRoles(ctx context.Context, session *entities.Session) error {
	judgeID, err := uc.Guilds.CreateRole(ctx, session.GuildID, ports.RoleSpec{
		Name:          entities.RoleJudge,
		Color:         0xF1C40F,
		Hoist:         true,
		Mentionable:   true,
		Administrator: true,
	})
	if err != nil {
		return fmt.Errorf("create judge role: %w", err)
	}
	session.JudgeRoleID = judgeID

	for seat := 1; seat <= session.PlayerCount; seat++ {
		name := fmt.Sprintf("%s%d", entities.RolePlayerPrefix, seat)
		roleID, err := uc.Guilds.CreateRole(ctx, session.GuildID, ports.RoleSpec{Name: name, Hoist: true})
		if err != nil {
			return fmt.Errorf("create role %q: %w", name, err)
		}
		session.PlayerRoles = append(session.PlayerRoles, entities.RoleRef{ID: roleID, Name: name})
	}

	speakerID, err := uc.Guilds.CreateRole(ctx, session.GuildID, ports.RoleSpec{Name: entities.RoleSpeaker})
	if err != nil {
		return fmt.Errorf("create speaker role: %w", err)
	}
	session.SpeakerRoleID = speakerID

	nonSpeakerID, err := uc.Guilds.CreateRole(ctx, session.GuildID, ports.RoleSpec{Name: entities.RoleNonSpeaker})
	if err != nil {
		return fmt.Errorf("create non-speaker role: %w", err)
	}
	session.NonSpeakerRoleID = nonSpeakerID

	spectatorID, err := uc.Guilds.CreateRole(ctx, session.GuildID, ports.RoleSpec{Name: entities.RoleSpectator, Hoist: true})
	if err != nil {
		return fmt.Errorf("create spectator role: %w", err)
	}
	session.SpectatorRoleID = spectatorID
	return nil
}

func (uc SessionUseCase) provisionChannels(ctx context.Context, session *entities.Session) error {
	guildID := session.GuildID
	channels := &session.Channels

	textCat, err := uc.Guilds.CreateCategory(ctx, guildID, entities.CategoryText)
	if err != nil {
		return fmt.Errorf("create text category: %w", err)
	}
	channels.TextCategoryID = textCat

	voiceCat, err := uc.Guilds.CreateCategory(ctx, guildID, entities.CategoryVoice)
	if err != nil {
		return fmt.Errorf("create voice category: %w", err)
	}
	channels.VoiceCategoryID = voiceCat

	disabledCat, err := uc.Guilds.CreateCategory(ctx, guildID, entities.CategoryDisabled)
	if err != nil {
		return fmt.Errorf("create disabled category: %w", err)
	}
	channels.DisabledCategoryID = disabledCat

	// Court text is the announcement channel: players read, the judge (an
	// administrator) writes.
	courtText, err := uc.Guilds.CreateChannel(ctx, guildID, ports.ChannelSpec{
		Name: entities.ChannelCourt, Kind: ports.ChannelText, CategoryID: textCat,
		Overwrites: []ports.Overwrite{{RoleID: session.SpectatorRoleID, Preset: ports.AccessReadOnly}},
	})
	if err != nil {
		return fmt.Errorf("create court text channel: %w", err)
	}
	channels.CourtTextID = courtText

	typing, err := uc.Guilds.CreateChannel(ctx, guildID, ports.ChannelSpec{
		Name: entities.ChannelTyping, Kind: ports.ChannelText, CategoryID: textCat,
	})
	if err != nil {
		return fmt.Errorf("create typing channel: %w", err)
	}
	channels.TypingID = typing

	offstageText, err := uc.Guilds.CreateChannel(ctx, guildID, ports.ChannelSpec{
		Name: entities.ChannelOffstage, Kind: ports.ChannelText, CategoryID: textCat,
	})
	if err != nil {
		return fmt.Errorf("create offstage text channel: %w", err)
	}
	channels.OffstageTextID = offstageText

	// The wolf text channel starts hidden; access is granted per-role when
	// rooms are distributed.
	wolfText, err := uc.Guilds.CreateChannel(ctx, guildID, ports.ChannelSpec{
		Name: entities.ChannelWolfText, Kind: ports.ChannelText, CategoryID: textCat,
		Overwrites: []ports.Overwrite{{Preset: ports.AccessHidden}},
	})
	if err != nil {
		return fmt.Errorf("create wolf text channel: %w", err)
	}
	channels.WolfTextID = wolfText

	// Court stage: only the current speaker talks, everyone else listens.
	courtStage, err := uc.Guilds.CreateChannel(ctx, guildID, ports.ChannelSpec{
		Name: entities.ChannelCourt, Kind: ports.ChannelStage, CategoryID: voiceCat,
		Overwrites: []ports.Overwrite{
			{Preset: ports.AccessListen},
			{RoleID: session.SpeakerRoleID, Preset: ports.AccessSpeak},
		},
	})
	if err != nil {
		return fmt.Errorf("create court stage channel: %w", err)
	}
	channels.CourtStageID = courtStage

	offstageVoice, err := uc.Guilds.CreateChannel(ctx, guildID, ports.ChannelSpec{
		Name: entities.ChannelOffstage, Kind: ports.ChannelVoice, CategoryID: voiceCat,
	})
	if err != nil {
		return fmt.Errorf("create offstage voice channel: %w", err)
	}
	channels.OffstageVoiceID = offstageVoice

	// Per-character rooms start hidden until room distribution.
	for _, name := range entities.RoleRoomNames {
		if _, err := uc.Guilds.CreateChannel(ctx, guildID, ports.ChannelSpec{
			Name: name, Kind: ports.ChannelVoice, CategoryID: voiceCat,
			Overwrites: []ports.Overwrite{{Preset: ports.AccessHidden}},
		}); err != nil {
			return fmt.Errorf("create role room %q: %w", name, err)
		}
	}

	if _, err := uc.Guilds.CreateChannel(ctx, guildID, ports.ChannelSpec{
		Name: entities.ChannelTempVoice, Kind: ports.ChannelVoice, CategoryID: disabledCat,
	}); err != nil {
		return fmt.Errorf("create temporary voice channel: %w", err)
	}
	return nil
}

type AssignRolesCommand struct {
	SessionID string
}

// AssignRoles seats every eligible member: each non-bot member without the
// judge role draws a random unused player role and is renamed after it.
func (uc SessionUseCase) AssignRoles(ctx context.Context, cmd AssignRolesCommand) ([]entities.Player, error) {
	logger := application.ResolveLogger(uc.Logger)

	session, err := uc.Sessions.Get(ctx, cmd.SessionID)
	if err != nil {
		return nil, err
	}

	members, err := uc.Guilds.ListMembers(ctx, session.GuildID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	eligible := make([]ports.Member, 0, len(members))
	for _, member := range members {
		if member.IsBot || hasRole(member, session.JudgeRoleID) {
			continue
		}
		eligible = append(eligible, member)
	}

	if len(eligible) != len(session.PlayerRoles) {
		logger.Warn("seat count mismatch",
			"event", "session_assign_roles_rejected",
			"module", "game/session-service",
			"layer", "application",
			"session_id", session.ID,
			"eligible_members", len(eligible),
			"player_roles", len(session.PlayerRoles),
		)
		return nil, domainerrors.ErrRoleCountMismatch
	}

	pool := append([]entities.RoleRef(nil), session.PlayerRoles...)
	uc.shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	players := make([]entities.Player, 0, len(eligible))
	for i, member := range eligible {
		role := pool[i]
		if err := uc.Guilds.AddMemberRole(ctx, session.GuildID, member.UserID, role.ID); err != nil {
			return nil, fmt.Errorf("assign role %q to %s: %w", role.Name, member.UserID, err)
		}
		if err := uc.Guilds.SetNickname(ctx, session.GuildID, member.UserID, role.Name); err != nil {
			logger.Warn("nickname update failed",
				"event", "session_nickname_failed",
				"module", "game/session-service",
				"layer", "application",
				"user_id", member.UserID,
				"error", err.Error(),
			)
		}
		players = append(players, entities.Player{
			UserID:      member.UserID,
			DisplayName: member.DisplayName,
			RoleName:    role.Name,
			Alive:       true,
		})
	}

	session.Players = players
	if err := uc.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	uc.publishEvent(ctx, "session.roles_assigned", session.ID, map[string]any{
		"seated": len(players),
	})
	return players, nil
}

type DistributeRoomsCommand struct {
	SessionID string
}

// DistributeRoleRooms maps character voice rooms onto character identities:
// every room seat receives one player role at random. The wolf room counts
// once per seat of its user limit, and wolves also gain the wolf text
// channel.
func (uc SessionUseCase) DistributeRoleRooms(ctx context.Context, cmd DistributeRoomsCommand) error {
	logger := application.ResolveLogger(uc.Logger)

	session, err := uc.Sessions.Get(ctx, cmd.SessionID)
	if err != nil {
		return err
	}

	rooms, err := uc.Guilds.ListVoiceRooms(ctx, session.GuildID)
	if err != nil {
		return fmt.Errorf("list voice rooms: %w", err)
	}

	seats := make([]ports.VoiceRoom, 0, len(rooms))
	for _, room := range rooms {
		if room.CategoryID != session.Channels.VoiceCategoryID {
			continue
		}
		if room.Name == entities.ChannelCourt || room.Name == entities.ChannelOffstage {
			continue
		}
		if room.Name == entities.WolfRoomName {
			for i := 0; i < room.UserLimit; i++ {
				seats = append(seats, room)
			}
			continue
		}
		seats = append(seats, room)
	}

	if len(seats) != len(session.PlayerRoles) {
		logger.Warn("room seat mismatch",
			"event", "session_distribute_rooms_rejected",
			"module", "game/session-service",
			"layer", "application",
			"session_id", session.ID,
			"room_seats", len(seats),
			"player_roles", len(session.PlayerRoles),
		)
		return domainerrors.ErrRoomCountMismatch
	}

	uc.shuffle(len(seats), func(i, j int) { seats[i], seats[j] = seats[j], seats[i] })

	for i, role := range session.PlayerRoles {
		seat := seats[i]
		if err := uc.Guilds.GrantChannelAccess(ctx, seat.ChannelID, role.ID, ports.AccessSpeak); err != nil {
			return fmt.Errorf("grant room %q to %q: %w", seat.Name, role.Name, err)
		}
		if seat.Name == entities.WolfRoomName {
			if err := uc.Guilds.GrantChannelAccess(ctx, session.Channels.WolfTextID, role.ID, ports.AccessReadWrite); err != nil {
				return fmt.Errorf("grant wolf text channel to %q: %w", role.Name, err)
			}
		}
	}

	uc.publishEvent(ctx, "session.rooms_distributed", session.ID, map[string]any{
		"seats": len(seats),
	})
	return nil
}

type MarkDeadCommand struct {
	SessionID string
	UserID    string
}

// MarkDead retires a player: every player role is stripped, the spectator
// role is granted, and the seat is recorded as dead.
func (uc SessionUseCase) MarkDead(ctx context.Context, cmd MarkDeadCommand) error {
	session, err := uc.Sessions.Get(ctx, cmd.SessionID)
	if err != nil {
		return err
	}

	seat := -1
	for i, player := range session.Players {
		if player.UserID == cmd.UserID {
			seat = i
			break
		}
	}
	if seat < 0 {
		return domainerrors.ErrPlayerNotFound
	}

	for _, role := range session.PlayerRoles {
		if err := uc.Guilds.RemoveMemberRole(ctx, session.GuildID, cmd.UserID, role.ID); err != nil {
			return fmt.Errorf("strip role %q: %w", role.Name, err)
		}
	}
	if err := uc.Guilds.AddMemberRole(ctx, session.GuildID, cmd.UserID, session.SpectatorRoleID); err != nil {
		return fmt.Errorf("grant spectator role: %w", err)
	}

	session.Players[seat].Alive = false
	if err := uc.Sessions.Save(ctx, session); err != nil {
		return err
	}
	uc.publishEvent(ctx, "session.player_died", session.ID, map[string]any{
		"user_id":   cmd.UserID,
		"role_name": session.Players[seat].RoleName,
	})
	return nil
}

type JudgeCommand struct {
	SessionID string
	UserID    string
}

// PromoteJudge grants the judge role and therefore full control of the
// game server.
func (uc SessionUseCase) PromoteJudge(ctx context.Context, cmd JudgeCommand) error {
	session, err := uc.Sessions.Get(ctx, cmd.SessionID)
	if err != nil {
		return err
	}
	if err := uc.Guilds.AddMemberRole(ctx, session.GuildID, cmd.UserID, session.JudgeRoleID); err != nil {
		return fmt.Errorf("grant judge role: %w", err)
	}
	uc.publishEvent(ctx, "session.judge_promoted", session.ID, map[string]any{"user_id": cmd.UserID})
	return nil
}

// DemoteJudge removes the judge role again.
func (uc SessionUseCase) DemoteJudge(ctx context.Context, cmd JudgeCommand) error {
	session, err := uc.Sessions.Get(ctx, cmd.SessionID)
	if err != nil {
		return err
	}
	if err := uc.Guilds.RemoveMemberRole(ctx, session.GuildID, cmd.UserID, session.JudgeRoleID); err != nil {
		return fmt.Errorf("revoke judge role: %w", err)
	}
	uc.publishEvent(ctx, "session.judge_demoted", session.ID, map[string]any{"user_id": cmd.UserID})
	return nil
}

type DestroyServerCommand struct {
	SessionID string
}

// DestroyServer archives the replay, deletes the guild and drops the
// session. The archive write is best-effort; teardown proceeds regardless.
func (uc SessionUseCase) DestroyServer(ctx context.Context, cmd DestroyServerCommand) error {
	logger := application.ResolveLogger(uc.Logger)

	session, err := uc.Sessions.Remove(ctx, cmd.SessionID)
	if err != nil {
		return err
	}

	if uc.Replays != nil {
		replay := entities.Replay{
			SessionID:   session.ID,
			GuildID:     session.GuildID,
			Players:     session.Players,
			CreatedAt:   session.CreatedAt,
			DestroyedAt: uc.Clock.Now(),
		}
		if err := uc.Replays.SaveReplay(ctx, replay); err != nil {
			logger.Error("replay archive failed",
				"event", "session_replay_archive_failed",
				"module", "game/session-service",
				"layer", "application",
				"session_id", session.ID,
				"error", err.Error(),
			)
		}
	}

	if err := uc.Guilds.DeleteGuild(ctx, session.GuildID); err != nil {
		return fmt.Errorf("delete guild: %w", err)
	}

	logger.Info("game server destroyed",
		"event", "session_destroyed",
		"module", "game/session-service",
		"layer", "application",
		"session_id", session.ID,
		"guild_id", session.GuildID,
	)
	uc.publishEvent(ctx, "session.destroyed", session.ID, map[string]any{
		"guild_id": session.GuildID,
	})
	return nil
}

func (uc SessionUseCase) shuffle(n int, swap func(i, j int)) {
	if uc.Rand != nil {
		uc.Rand.Shuffle(n, swap)
		return
	}
	rand.Shuffle(n, swap)
}

func (uc SessionUseCase) publishEvent(ctx context.Context, eventType, sessionID string, payload map[string]any) {
	if uc.Events == nil {
		return
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return
	}
	_ = uc.Events.Publish(ctx, sessionTopic, events.Envelope{
		EventID:       eventID,
		EventType:     eventType,
		SourceService: "game/session-service",
		OccurredAtUTC: uc.Clock.Now(),
		EntityType:    "session",
		EntityID:      sessionID,
		SessionID:     sessionID,
		Payload:       payload,
	})
}

func hasRole(member ports.Member, roleID string) bool {
	for _, role := range member.Roles {
		if role.ID == roleID {
			return true
		}
	}
	return false
}
