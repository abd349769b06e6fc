package commands

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"werewolf/contexts/game/session-service/adapters/memory"
	"werewolf/contexts/game/session-service/domain/entities"
	domainerrors "werewolf/contexts/game/session-service/domain/errors"
	"werewolf/contexts/game/session-service/ports"
)

type channelGrant struct {
	ChannelID string
	RoleID    string
	Preset    ports.AccessPreset
}

type fakeDirectory struct {
	mu            sync.Mutex
	seq           int
	roles         map[string]ports.RoleSpec
	channels      map[string]ports.ChannelSpec
	members       []ports.Member
	rooms         []ports.VoiceRoom
	memberRoles   map[string]map[string]bool
	nicknames     map[string]string
	grants        []channelGrant
	deletedGuilds []string
	restricted    []string
	inviteCount   int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		roles:       make(map[string]ports.RoleSpec),
		channels:    make(map[string]ports.ChannelSpec),
		memberRoles: make(map[string]map[string]bool),
		nicknames:   make(map[string]string),
	}
}

func (f *fakeDirectory) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeDirectory) CreateGuild(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nextID("guild"), nil
}

func (f *fakeDirectory) DeleteGuild(_ context.Context, guildID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedGuilds = append(f.deletedGuilds, guildID)
	return nil
}

func (f *fakeDirectory) RestrictEveryone(_ context.Context, guildID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restricted = append(f.restricted, guildID)
	return nil
}

func (f *fakeDirectory) CreateRole(_ context.Context, _ string, spec ports.RoleSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID("role")
	f.roles[id] = spec
	return id, nil
}

func (f *fakeDirectory) CreateCategory(_ context.Context, _ string, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID("category")
	f.channels[id] = ports.ChannelSpec{Name: name}
	return id, nil
}

func (f *fakeDirectory) CreateChannel(_ context.Context, _ string, spec ports.ChannelSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID("channel")
	f.channels[id] = spec
	return id, nil
}

func (f *fakeDirectory) CreateInvite(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inviteCount++
	return "https://discord.gg/test", nil
}

func (f *fakeDirectory) ListMembers(_ context.Context, _ string) ([]ports.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ports.Member(nil), f.members...), nil
}

func (f *fakeDirectory) ListVoiceRooms(_ context.Context, _ string) ([]ports.VoiceRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ports.VoiceRoom(nil), f.rooms...), nil
}

func (f *fakeDirectory) AddMemberRole(_ context.Context, _, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.memberRoles[userID] == nil {
		f.memberRoles[userID] = make(map[string]bool)
	}
	f.memberRoles[userID][roleID] = true
	return nil
}

func (f *fakeDirectory) RemoveMemberRole(_ context.Context, _, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.memberRoles[userID], roleID)
	return nil
}

func (f *fakeDirectory) SetNickname(_ context.Context, _, userID, nick string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nicknames[userID] = nick
	return nil
}

func (f *fakeDirectory) GrantChannelAccess(_ context.Context, channelID, roleID string, preset ports.AccessPreset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grants = append(f.grants, channelGrant{ChannelID: channelID, RoleID: roleID, Preset: preset})
	return nil
}

func newSessionUseCase(dir *fakeDirectory) (SessionUseCase, *memory.Store) {
	store := memory.NewStore()
	return SessionUseCase{
		Sessions: store,
		Guilds:   dir,
		Clock:    store,
		IDGen:    store,
		Rand:     rand.New(rand.NewSource(7)),
	}, store
}

func TestCreateGameServerProvisionsFullLayout(t *testing.T) {
	dir := newFakeDirectory()
	useCase, store := newSessionUseCase(dir)

	result, err := useCase.CreateGameServer(context.Background(), CreateServerCommand{PlayerCount: 9})
	if err != nil {
		t.Fatalf("CreateGameServer: %v", err)
	}
	if result.InviteURL == "" {
		t.Fatal("expected invite url")
	}

	session, err := store.Get(context.Background(), result.SessionID)
	if err != nil {
		t.Fatalf("session not registered: %v", err)
	}
	if len(session.PlayerRoles) != 9 {
		t.Fatalf("player roles = %d, want 9", len(session.PlayerRoles))
	}
	if session.JudgeRoleID == "" || session.SpeakerRoleID == "" || session.NonSpeakerRoleID == "" || session.SpectatorRoleID == "" {
		t.Fatalf("missing structural role ids: %+v", session)
	}
	// 9 player roles plus judge, speaker, non-speaker, spectator.
	if len(dir.roles) != 13 {
		t.Fatalf("roles created = %d, want 13", len(dir.roles))
	}
	if !dir.roles[session.JudgeRoleID].Administrator {
		t.Fatal("judge role must be administrator")
	}
	if len(dir.restricted) != 1 {
		t.Fatalf("everyone role restricted %d times, want 1", len(dir.restricted))
	}

	ch := session.Channels
	for name, id := range map[string]string{
		"court text":     ch.CourtTextID,
		"court stage":    ch.CourtStageID,
		"offstage text":  ch.OffstageTextID,
		"offstage voice": ch.OffstageVoiceID,
		"typing":         ch.TypingID,
		"wolf text":      ch.WolfTextID,
	} {
		if id == "" {
			t.Fatalf("channel %s was not provisioned", name)
		}
	}

	roleRooms := 0
	for _, spec := range dir.channels {
		if spec.Kind == ports.ChannelVoice && spec.CategoryID == ch.VoiceCategoryID {
			if spec.Name != entities.ChannelOffstage {
				roleRooms++
			}
		}
	}
	if roleRooms != len(entities.RoleRoomNames) {
		t.Fatalf("role rooms = %d, want %d", roleRooms, len(entities.RoleRoomNames))
	}
}

func TestCreateGameServerRejectsInvalidPlayerCount(t *testing.T) {
	dir := newFakeDirectory()
	useCase, store := newSessionUseCase(dir)

	for _, count := range []int{0, -3, 21} {
		if _, err := useCase.CreateGameServer(context.Background(), CreateServerCommand{PlayerCount: count}); !errors.Is(err, domainerrors.ErrInvalidPlayerCount) {
			t.Fatalf("count %d: err = %v, want ErrInvalidPlayerCount", count, err)
		}
	}
	sessions, _ := store.List(context.Background())
	if len(sessions) != 0 {
		t.Fatalf("rejected commands must not register sessions, got %d", len(sessions))
	}
}

func seatedSession(t *testing.T, dir *fakeDirectory, useCase SessionUseCase, playerCount int) entities.Session {
	t.Helper()
	result, err := useCase.CreateGameServer(context.Background(), CreateServerCommand{PlayerCount: playerCount})
	if err != nil {
		t.Fatalf("CreateGameServer: %v", err)
	}
	session, err := useCase.Sessions.Get(context.Background(), result.SessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	return session
}

func TestAssignRolesSeatsEveryEligibleMember(t *testing.T) {
	dir := newFakeDirectory()
	useCase, _ := newSessionUseCase(dir)
	session := seatedSession(t, dir, useCase, 3)

	dir.members = []ports.Member{
		{UserID: "judge", DisplayName: "Judge", Roles: []entities.RoleRef{{ID: session.JudgeRoleID, Name: entities.RoleJudge}}},
		{UserID: "bot", DisplayName: "Bot", IsBot: true},
		{UserID: "u1", DisplayName: "Alice"},
		{UserID: "u2", DisplayName: "Bob"},
		{UserID: "u3", DisplayName: "Carol"},
	}

	players, err := useCase.AssignRoles(context.Background(), AssignRolesCommand{SessionID: session.ID})
	if err != nil {
		t.Fatalf("AssignRoles: %v", err)
	}
	if len(players) != 3 {
		t.Fatalf("players = %d, want 3", len(players))
	}

	seen := make(map[string]bool)
	for _, player := range players {
		if !player.Alive {
			t.Fatalf("player %s seated dead", player.UserID)
		}
		if seen[player.RoleName] {
			t.Fatalf("role %q assigned twice", player.RoleName)
		}
		seen[player.RoleName] = true
		if dir.nicknames[player.UserID] != player.RoleName {
			t.Fatalf("nickname for %s = %q, want %q", player.UserID, dir.nicknames[player.UserID], player.RoleName)
		}
	}
	if len(dir.memberRoles["judge"]) != 0 || len(dir.memberRoles["bot"]) != 0 {
		t.Fatal("judge and bot must not receive player roles")
	}

	saved, err := useCase.Sessions.Get(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Get after assign: %v", err)
	}
	if len(saved.Players) != 3 {
		t.Fatalf("saved players = %d, want 3", len(saved.Players))
	}
}

func TestAssignRolesRejectsSeatMismatch(t *testing.T) {
	dir := newFakeDirectory()
	useCase, _ := newSessionUseCase(dir)
	session := seatedSession(t, dir, useCase, 3)

	dir.members = []ports.Member{
		{UserID: "u1", DisplayName: "Alice"},
		{UserID: "u2", DisplayName: "Bob"},
	}

	if _, err := useCase.AssignRoles(context.Background(), AssignRolesCommand{SessionID: session.ID}); !errors.Is(err, domainerrors.ErrRoleCountMismatch) {
		t.Fatalf("err = %v, want ErrRoleCountMismatch", err)
	}
	if len(dir.memberRoles["u1"]) != 0 {
		t.Fatal("mismatch must not assign any role")
	}
}

func TestDistributeRoleRoomsCountsWolfSeats(t *testing.T) {
	dir := newFakeDirectory()
	useCase, _ := newSessionUseCase(dir)
	session := seatedSession(t, dir, useCase, 4)

	voiceCat := session.Channels.VoiceCategoryID
	dir.rooms = []ports.VoiceRoom{
		{ChannelID: "room-wolf", Name: entities.WolfRoomName, CategoryID: voiceCat, UserLimit: 2},
		{ChannelID: "room-seer", Name: "預言家", CategoryID: voiceCat},
		{ChannelID: "room-witch", Name: "女巫", CategoryID: voiceCat},
		{ChannelID: "room-court", Name: entities.ChannelCourt, CategoryID: voiceCat},
		{ChannelID: "room-off", Name: entities.ChannelOffstage, CategoryID: voiceCat},
		{ChannelID: "room-other", Name: "平民", CategoryID: "elsewhere"},
	}

	if err := useCase.DistributeRoleRooms(context.Background(), DistributeRoomsCommand{SessionID: session.ID}); err != nil {
		t.Fatalf("DistributeRoleRooms: %v", err)
	}

	roomGrants := 0
	wolfTextGrants := 0
	for _, grant := range dir.grants {
		switch grant.ChannelID {
		case session.Channels.WolfTextID:
			wolfTextGrants++
		default:
			roomGrants++
		}
	}
	if roomGrants != 4 {
		t.Fatalf("room grants = %d, want 4", roomGrants)
	}
	if wolfTextGrants != 2 {
		t.Fatalf("wolf text grants = %d, want 2", wolfTextGrants)
	}
}

func TestDistributeRoleRoomsRejectsSeatMismatch(t *testing.T) {
	dir := newFakeDirectory()
	useCase, _ := newSessionUseCase(dir)
	session := seatedSession(t, dir, useCase, 4)

	dir.rooms = []ports.VoiceRoom{
		{ChannelID: "room-seer", Name: "預言家", CategoryID: session.Channels.VoiceCategoryID},
	}

	if err := useCase.DistributeRoleRooms(context.Background(), DistributeRoomsCommand{SessionID: session.ID}); !errors.Is(err, domainerrors.ErrRoomCountMismatch) {
		t.Fatalf("err = %v, want ErrRoomCountMismatch", err)
	}
	if len(dir.grants) != 0 {
		t.Fatal("mismatch must not grant any access")
	}
}

func TestMarkDeadStripsRolesAndGrantsSpectator(t *testing.T) {
	dir := newFakeDirectory()
	useCase, _ := newSessionUseCase(dir)
	session := seatedSession(t, dir, useCase, 2)

	dir.members = []ports.Member{
		{UserID: "u1", DisplayName: "Alice"},
		{UserID: "u2", DisplayName: "Bob"},
	}
	if _, err := useCase.AssignRoles(context.Background(), AssignRolesCommand{SessionID: session.ID}); err != nil {
		t.Fatalf("AssignRoles: %v", err)
	}

	if err := useCase.MarkDead(context.Background(), MarkDeadCommand{SessionID: session.ID, UserID: "u1"}); err != nil {
		t.Fatalf("MarkDead: %v", err)
	}

	for _, role := range session.PlayerRoles {
		if dir.memberRoles["u1"][role.ID] {
			t.Fatalf("dead player still holds %q", role.Name)
		}
	}
	if !dir.memberRoles["u1"][session.SpectatorRoleID] {
		t.Fatal("dead player must hold spectator role")
	}

	saved, _ := useCase.Sessions.Get(context.Background(), session.ID)
	if len(saved.AlivePlayers()) != 1 {
		t.Fatalf("alive players = %d, want 1", len(saved.AlivePlayers()))
	}

	if err := useCase.MarkDead(context.Background(), MarkDeadCommand{SessionID: session.ID, UserID: "stranger"}); !errors.Is(err, domainerrors.ErrPlayerNotFound) {
		t.Fatalf("err = %v, want ErrPlayerNotFound", err)
	}
}

func TestJudgePromotionLifecycle(t *testing.T) {
	dir := newFakeDirectory()
	useCase, _ := newSessionUseCase(dir)
	session := seatedSession(t, dir, useCase, 2)

	if err := useCase.PromoteJudge(context.Background(), JudgeCommand{SessionID: session.ID, UserID: "u1"}); err != nil {
		t.Fatalf("PromoteJudge: %v", err)
	}
	if !dir.memberRoles["u1"][session.JudgeRoleID] {
		t.Fatal("promoted user must hold judge role")
	}
	if err := useCase.DemoteJudge(context.Background(), JudgeCommand{SessionID: session.ID, UserID: "u1"}); err != nil {
		t.Fatalf("DemoteJudge: %v", err)
	}
	if dir.memberRoles["u1"][session.JudgeRoleID] {
		t.Fatal("demoted user must not hold judge role")
	}
}

type recordingReplays struct {
	mu      sync.Mutex
	replays []entities.Replay
}

func (r *recordingReplays) SaveReplay(_ context.Context, replay entities.Replay) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replays = append(r.replays, replay)
	return nil
}

func TestDestroyServerArchivesAndDeletesGuild(t *testing.T) {
	dir := newFakeDirectory()
	useCase, store := newSessionUseCase(dir)
	replays := &recordingReplays{}
	useCase.Replays = replays

	session := seatedSession(t, dir, useCase, 2)

	if err := useCase.DestroyServer(context.Background(), DestroyServerCommand{SessionID: session.ID}); err != nil {
		t.Fatalf("DestroyServer: %v", err)
	}
	if len(dir.deletedGuilds) != 1 || dir.deletedGuilds[0] != session.GuildID {
		t.Fatalf("deleted guilds = %v, want [%s]", dir.deletedGuilds, session.GuildID)
	}
	if len(replays.replays) != 1 || replays.replays[0].SessionID != session.ID {
		t.Fatalf("replays = %+v, want one for %s", replays.replays, session.ID)
	}
	if _, err := store.Get(context.Background(), session.ID); !errors.Is(err, domainerrors.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
	if err := useCase.DestroyServer(context.Background(), DestroyServerCommand{SessionID: session.ID}); !errors.Is(err, domainerrors.ErrSessionNotFound) {
		t.Fatalf("second destroy err = %v, want ErrSessionNotFound", err)
	}
}
