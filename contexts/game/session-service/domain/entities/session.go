package entities

import "time"

// Guild vocabulary of the temporary game server. Role and channel names are
// the user-facing strings the judge and players see.
const (
	RoleJudge        = "法官"
	RolePlayerPrefix = "玩家 "
	RoleSpeaker      = "發言者"
	RoleNonSpeaker   = "非發言者"
	RoleSpectator    = "旁觀者 / 死人"

	CategoryText     = "文字區"
	CategoryVoice    = "語音區"
	CategoryDisabled = "停用區"

	ChannelCourt     = "法院"
	ChannelOffstage  = "場外"
	ChannelTyping    = "打字區"
	ChannelWolfText  = "狼人文字頻道"
	ChannelTempVoice = "暫時語音"
	ChannelIgnored   = "忽略本頻道"

	GuildName = "狼人殺暫時群"
)

// RoleRoomNames are the per-character voice rooms created for a new server,
// in creation order. The wolf room's user limit decides the wolf count when
// rooms are distributed.
var RoleRoomNames = []string{
	"狼人", "狼美人", "狼兄弟", "女巫", "預言家", "獵人", "騎士", "守衛", "黑市商人",
	"平民", "平民", "平民", "平民",
}

const WolfRoomName = "狼人"

type RoleRef struct {
	ID   string
	Name string
}

// Player is one seated member of a running game.
type Player struct {
	UserID      string
	DisplayName string
	RoleName    string
	Alive       bool
}

// Channels collects the provisioned channel ids a session needs later.
type Channels struct {
	TextCategoryID     string
	VoiceCategoryID    string
	DisabledCategoryID string
	CourtTextID        string
	CourtStageID       string
	OffstageTextID     string
	OffstageVoiceID    string
	TypingID           string
	WolfTextID         string
}

// Session is one provisioned temporary game server.
type Session struct {
	ID               string
	GuildID          string
	PlayerCount      int
	JudgeRoleID      string
	SpeakerRoleID    string
	NonSpeakerRoleID string
	SpectatorRoleID  string
	PlayerRoles      []RoleRef
	Channels         Channels
	InviteURL        string
	Players          []Player
	CreatedAt        time.Time
}

// AlivePlayers returns the seated players still holding a player role,
// in seating order.
func (s Session) AlivePlayers() []Player {
	alive := make([]Player, 0, len(s.Players))
	for _, player := range s.Players {
		if player.Alive {
			alive = append(alive, player)
		}
	}
	return alive
}

// Replay is the archived record of a finished game, written at teardown.
type Replay struct {
	SessionID   string
	GuildID     string
	Players     []Player
	CreatedAt   time.Time
	DestroyedAt time.Time
}
