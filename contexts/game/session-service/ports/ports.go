package ports

import (
	"context"
	"time"

	"werewolf/contexts/game/session-service/domain/entities"
	"werewolf/internal/shared/events"
)

type ChannelKind string

const (
	ChannelText  ChannelKind = "text"
	ChannelVoice ChannelKind = "voice"
	ChannelStage ChannelKind = "stage"
)

// AccessPreset names a bundle of channel permissions for one role. The
// directory adapter owns the translation to concrete permission bits.
type AccessPreset string

const (
	AccessReadWrite AccessPreset = "read_write"
	AccessReadOnly  AccessPreset = "read_only"
	AccessHidden    AccessPreset = "hidden"
	AccessSpeak     AccessPreset = "speak"
	AccessListen    AccessPreset = "listen"
)

type Overwrite struct {
	RoleID string
	Preset AccessPreset
}

type ChannelSpec struct {
	Name       string
	Kind       ChannelKind
	CategoryID string
	Overwrites []Overwrite
}

type RoleSpec struct {
	Name          string
	Color         int
	Hoist         bool
	Mentionable   bool
	Administrator bool
}

type Member struct {
	UserID      string
	DisplayName string
	IsBot       bool
	Roles       []entities.RoleRef
}

type VoiceRoom struct {
	ChannelID  string
	Name       string
	CategoryID string
	UserLimit  int
}

// GuildDirectory provisions and mutates the temporary game server. The
// production implementation talks to Discord; tests substitute a fake.
type GuildDirectory interface {
	CreateGuild(ctx context.Context, name string) (string, error)
	DeleteGuild(ctx context.Context, guildID string) error
	// RestrictEveryone strips the default role down to the baseline
	// permission set every new server starts with.
	RestrictEveryone(ctx context.Context, guildID string) error
	CreateRole(ctx context.Context, guildID string, spec RoleSpec) (string, error)
	CreateCategory(ctx context.Context, guildID, name string) (string, error)
	CreateChannel(ctx context.Context, guildID string, spec ChannelSpec) (string, error)
	CreateInvite(ctx context.Context, channelID string) (string, error)
	ListMembers(ctx context.Context, guildID string) ([]Member, error)
	ListVoiceRooms(ctx context.Context, guildID string) ([]VoiceRoom, error)
	AddMemberRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error
	SetNickname(ctx context.Context, guildID, userID, nick string) error
	// GrantChannelAccess layers an additional role overwrite on an
	// existing channel.
	GrantChannelAccess(ctx context.Context, channelID, roleID string, preset AccessPreset) error
}

// SessionStore keeps the live sessions. Mutations go through Save, which
// overwrites the stored value wholesale.
type SessionStore interface {
	Register(ctx context.Context, session entities.Session) error
	Save(ctx context.Context, session entities.Session) error
	Get(ctx context.Context, sessionID string) (entities.Session, error)
	Remove(ctx context.Context, sessionID string) (entities.Session, error)
	List(ctx context.Context) ([]entities.Session, error)
}

// ReplayWriter archives a finished game at teardown.
type ReplayWriter interface {
	SaveReplay(ctx context.Context, replay entities.Replay) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
