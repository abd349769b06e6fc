package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	gameplayservice "werewolf/contexts/game/gameplay-service"
	gameplaycommands "werewolf/contexts/game/gameplay-service/application/commands"
	gameplayerrors "werewolf/contexts/game/gameplay-service/domain/errors"
	pollengine "werewolf/contexts/game/poll-engine"
	pollcommands "werewolf/contexts/game/poll-engine/application/commands"
	pollentities "werewolf/contexts/game/poll-engine/domain/entities"
	pollerrors "werewolf/contexts/game/poll-engine/domain/errors"
	sessionservice "werewolf/contexts/game/session-service"
	sessioncommands "werewolf/contexts/game/session-service/application/commands"
	sessionentities "werewolf/contexts/game/session-service/domain/entities"
	sessionerrors "werewolf/contexts/game/session-service/domain/errors"
)

// Gateway routes slash commands and component interactions to the game
// modules. Poll and sign-up messages carry their own ids (the message id),
// so button presses need no extra lookup table.
type Gateway struct {
	client   *Client
	polls    pollengine.Module
	sessions sessionservice.Module
	gameplay gameplayservice.Module
	logger   *slog.Logger
}

func NewGateway(
	client *Client,
	polls pollengine.Module,
	sessions sessionservice.Module,
	gameplay gameplayservice.Module,
	logger *slog.Logger,
) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		client:   client,
		polls:    polls,
		sessions: sessions,
		gameplay: gameplay,
		logger:   logger,
	}
}

// RegisterHandlers attaches the interaction dispatcher. Call before Open.
func (g *Gateway) RegisterHandlers() {
	g.client.Session().AddHandler(g.onInteractionCreate)
}

var commandDefinitions = []*discordgo.ApplicationCommand{
	{
		Name:        "create",
		Description: "建立狼人殺暫時伺服器",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "player_count",
			Description: "玩家人數",
			Required:    true,
		}},
	},
	{Name: "destroy", Description: "刪除本遊戲伺服器"},
	{
		Name:        "judge",
		Description: "使人變成法官",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "member",
			Description: "要變成法官的人",
			Required:    true,
		}},
	},
	{
		Name:        "demote",
		Description: "卸除法官身分",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "member",
			Description: "要卸除法官的人",
			Required:    true,
		}},
	},
	{Name: "role", Description: "隨機分配玩家號碼"},
	{Name: "sprite", Description: "隨機分配角色房間"},
	{
		Name:        "dead",
		Description: "讓人變成旁觀者或死人",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "member",
			Description: "要使變成旁觀者/死人的人",
			Required:    true,
		}},
	},
	{Name: "expel_poll", Description: "針對活著的玩家舉行放逐投票"},
	{Name: "end_poll", Description: "提前結束本頻道的投票"},
	{Name: "police_enroll", Description: "發動參選警長的報名"},
	{Name: "police_poll", Description: "上警投票"},
	{Name: "order", Description: "隨機發言順序"},
	{
		Name:        "timer",
		Description: "計時器",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "interval",
			Description: "秒數",
			Required:    true,
		}},
	},
	{Name: "stop_timer", Description: "停止計時器"},
}

// RegisterCommands publishes the global slash commands. Call after Open, so
// the application id is known.
func (g *Gateway) RegisterCommands() error {
	appID := g.client.Session().State.User.ID
	for _, definition := range commandDefinitions {
		if _, err := g.client.Session().ApplicationCommandCreate(appID, "", definition); err != nil {
			return fmt.Errorf("register command %q: %w", definition.Name, err)
		}
	}
	return nil
}

func (g *Gateway) onInteractionCreate(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		g.dispatchCommand(ctx, i)
	case discordgo.InteractionMessageComponent:
		g.dispatchComponent(ctx, i)
	}
}

func (g *Gateway) dispatchCommand(ctx context.Context, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()

	if data.Name == "create" {
		g.handleCreate(ctx, i, data)
		return
	}

	if !isAdministrator(i) && data.Name != "order" {
		g.replyEphemeral(i, "這個指令只有管理員能使用！")
		return
	}

	session, ok := g.sessionForGuild(ctx, i.GuildID)
	if !ok {
		g.replyEphemeral(i, "此伺服器沒有進行中的遊戲！")
		return
	}

	switch data.Name {
	case "destroy":
		// Respond before teardown; once the guild is gone the interaction
		// can no longer be answered.
		g.replyEphemeral(i, "正在刪除伺服器……")
		if err := g.sessions.Sessions.DestroyServer(ctx, sessioncommands.DestroyServerCommand{SessionID: session.ID}); err != nil {
			g.logger.Error("destroy failed", "event", "discord_destroy_failed", "error", err.Error())
		}
	case "judge":
		g.replySessionErr(i, g.sessions.Sessions.PromoteJudge(ctx, sessioncommands.JudgeCommand{
			SessionID: session.ID, UserID: optionUserID(data),
		}), "已升任法官！")
	case "demote":
		g.replySessionErr(i, g.sessions.Sessions.DemoteJudge(ctx, sessioncommands.JudgeCommand{
			SessionID: session.ID, UserID: optionUserID(data),
		}), "已卸除法官！")
	case "role":
		if _, err := g.sessions.Sessions.AssignRoles(ctx, sessioncommands.AssignRolesCommand{SessionID: session.ID}); err != nil {
			g.replySessionError(i, err)
			return
		}
		g.reply(i, "號碼分配完成！")
	case "sprite":
		if err := g.sessions.Sessions.DistributeRoleRooms(ctx, sessioncommands.DistributeRoomsCommand{SessionID: session.ID}); err != nil {
			g.replySessionError(i, err)
			return
		}
		g.reply(i, "角色房間分配完成！")
	case "dead":
		if err := g.sessions.Sessions.MarkDead(ctx, sessioncommands.MarkDeadCommand{
			SessionID: session.ID, UserID: optionUserID(data),
		}); err != nil {
			g.replySessionError(i, err)
			return
		}
		g.reply(i, "已變成旁觀者 / 死人！")
	case "expel_poll":
		_, err := g.gameplay.Gameplay.StartExilePoll(ctx, gameplaycommands.StartExilePollCommand{
			SessionID: session.ID, ChannelID: i.ChannelID,
		})
		g.replyGameplayErr(i, err, "放逐投票開始！")
	case "end_poll":
		g.handleEndPoll(ctx, i)
	case "police_enroll":
		_, err := g.gameplay.Gameplay.OpenEnrollment(ctx, gameplaycommands.OpenEnrollmentCommand{
			SessionID: session.ID, ChannelID: i.ChannelID,
		})
		g.replyGameplayErr(i, err, "參選警長報名開始！")
	case "police_poll":
		_, err := g.gameplay.Gameplay.StartSheriffPoll(ctx, gameplaycommands.StartSheriffPollCommand{
			SessionID: session.ID, ChannelID: i.ChannelID,
		})
		g.replyGameplayErr(i, err, "上警投票開始！")
	case "order":
		_, err := g.gameplay.Gameplay.AnnounceSpeakingOrder(ctx, gameplaycommands.SpeakingOrderCommand{
			SessionID: session.ID, ChannelID: i.ChannelID,
		})
		g.replyGameplayErr(i, err, "已抽出發言順序！")
	case "timer":
		g.replyGameplayErr(i, g.gameplay.Gameplay.StartCountdown(ctx, gameplaycommands.StartCountdownCommand{
			SessionID: session.ID, ChannelID: i.ChannelID,
			Duration: time.Duration(optionInt(data, "interval")) * time.Second,
		}), "計時開始！")
	case "stop_timer":
		g.replyGameplayErr(i, g.gameplay.Gameplay.StopCountdown(ctx, gameplaycommands.StopCountdownCommand{
			SessionID: session.ID, ChannelID: i.ChannelID,
		}), "計時器已停止！")
	default:
		g.replyEphemeral(i, "未知的指令！")
	}
}

func (g *Gateway) handleCreate(ctx context.Context, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	// Guild provisioning takes longer than the interaction deadline.
	if err := g.client.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		g.logger.Warn("defer failed", "event", "discord_defer_failed", "error", err.Error())
	}

	result, err := g.sessions.Sessions.CreateGameServer(ctx, sessioncommands.CreateServerCommand{
		PlayerCount: int(optionInt(data, "player_count")),
	})
	content := ""
	switch {
	case errors.Is(err, sessionerrors.ErrInvalidPlayerCount):
		content = "玩家人數必須在 1 到 20 之間！"
	case err != nil:
		g.logger.Error("create failed", "event", "discord_create_failed", "error", err.Error())
		content = "伺服器建立失敗！"
	default:
		content = "伺服器建立完成！邀請連結：" + result.InviteURL
	}
	if _, err := g.client.Session().FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{Content: content}); err != nil {
		g.logger.Warn("followup failed", "event", "discord_followup_failed", "error", err.Error())
	}
}

// handleEndPoll finalizes every active poll in the channel ahead of its
// deadline. The sweeper's exactly-once gate makes a racing expiry harmless.
func (g *Gateway) handleEndPoll(ctx context.Context, i *discordgo.InteractionCreate) {
	views, err := g.polls.Queries.ListPolls(ctx)
	if err != nil {
		g.logger.Error("end poll listing failed", "event", "discord_end_poll_failed", "error", err.Error())
		g.replyEphemeral(i, "指令執行失敗！")
		return
	}
	ended := 0
	for _, view := range views {
		if view.ChannelID != i.ChannelID {
			continue
		}
		if err := g.polls.Polls.Finalize(ctx, view.ID); err != nil {
			if !errors.Is(err, pollerrors.ErrPollNotFound) {
				g.logger.Error("end poll failed", "event", "discord_end_poll_failed", "poll_id", view.ID, "error", err.Error())
			}
			continue
		}
		ended++
	}
	if ended == 0 {
		g.replyEphemeral(i, "本頻道沒有進行中的投票！")
		return
	}
	g.reply(i, "投票已提前結束！")
}

func (g *Gateway) dispatchComponent(ctx context.Context, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID
	switch {
	case strings.HasPrefix(customID, voteCustomIDPrefix):
		g.handleVote(ctx, i, strings.TrimPrefix(customID, voteCustomIDPrefix))
	case customID == enrollCustomID:
		g.handleEnrollToggle(ctx, i)
	}
}

func (g *Gateway) handleVote(ctx context.Context, i *discordgo.InteractionCreate, optionID string) {
	result, err := g.polls.Polls.CastVote(ctx, pollcommands.CastVoteCommand{
		PollID:   i.Message.ID,
		OptionID: optionID,
		Voter: pollentities.VoterContext{
			UserID:      interactionUserID(i),
			DisplayName: interactionDisplayName(i),
			ChannelID:   i.ChannelID,
		},
	})
	switch {
	case errors.Is(err, pollerrors.ErrNotEligible):
		g.replyEphemeral(i, "你沒有投票資格！")
	case errors.Is(err, pollerrors.ErrVoteLimitExceeded):
		g.replyEphemeral(i, voteLimitMessage(err))
	case errors.Is(err, pollerrors.ErrPollClosed), errors.Is(err, pollerrors.ErrPollNotFound):
		g.replyEphemeral(i, "投票已結束！")
	case err != nil:
		g.logger.Warn("vote failed", "event", "discord_vote_failed", "error", err.Error())
		g.replyEphemeral(i, "投票失敗！")
	case result.Outcome == pollentities.ToggleRetracted:
		g.replyEphemeral(i, fmt.Sprintf("已收回「%s」的選票！", result.Option.Label))
	default:
		g.replyEphemeral(i, fmt.Sprintf("已投給「%s」！", result.Option.Label))
	}
}

func (g *Gateway) handleEnrollToggle(ctx context.Context, i *discordgo.InteractionCreate) {
	joined, err := g.gameplay.Gameplay.ToggleEnrollment(ctx, gameplaycommands.ToggleEnrollmentCommand{
		EnrollmentID: i.Message.ID,
		UserID:       interactionUserID(i),
		DisplayName:  interactionDisplayName(i),
	})
	if err == nil {
		if joined {
			g.replyEphemeral(i, "參選成功！")
		} else {
			g.replyEphemeral(i, "退選成功！")
		}
		return
	}
	if !errors.Is(err, gameplayerrors.ErrEnrollmentNotFound) && !errors.Is(err, gameplayerrors.ErrEnrollmentClosed) {
		g.logger.Warn("enroll toggle failed", "event", "discord_enroll_failed", "error", err.Error())
		g.replyEphemeral(i, "報名操作失敗！")
		return
	}

	// A press after the deadline still withdraws an enrolled candidate.
	session, ok := g.sessionForGuild(ctx, i.GuildID)
	if !ok {
		g.replyEphemeral(i, "報名已截止！")
		return
	}
	removed, err := g.gameplay.Gameplay.WithdrawCandidate(ctx, gameplaycommands.WithdrawCandidateCommand{
		SessionID: session.ID,
		UserID:    interactionUserID(i),
	})
	if err == nil && removed {
		g.replyEphemeral(i, "退選成功！")
		return
	}
	g.replyEphemeral(i, "報名已截止，不可再參選！")
}

func (g *Gateway) sessionForGuild(ctx context.Context, guildID string) (sessionentities.Session, bool) {
	sessions, err := g.sessions.Queries.ListSessions(ctx)
	if err != nil {
		return sessionentities.Session{}, false
	}
	for _, session := range sessions {
		if session.GuildID == guildID {
			return session, true
		}
	}
	return sessionentities.Session{}, false
}

func (g *Gateway) reply(i *discordgo.InteractionCreate, content string) {
	g.respond(i, content, false)
}

func (g *Gateway) replyEphemeral(i *discordgo.InteractionCreate, content string) {
	g.respond(i, content, true)
}

func (g *Gateway) respond(i *discordgo.InteractionCreate, content string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := g.client.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		g.logger.Warn("interaction respond failed",
			"event", "discord_respond_failed",
			"module", "internal/platform/discord",
			"layer", "platform",
			"error", err.Error(),
		)
	}
}

func (g *Gateway) replySessionErr(i *discordgo.InteractionCreate, err error, success string) {
	if err != nil {
		g.replySessionError(i, err)
		return
	}
	g.reply(i, success)
}

func (g *Gateway) replySessionError(i *discordgo.InteractionCreate, err error) {
	switch {
	case errors.Is(err, sessionerrors.ErrRoleCountMismatch):
		g.replyEphemeral(i, "玩家人數和號碼數量不符！")
	case errors.Is(err, sessionerrors.ErrRoomCountMismatch):
		g.replyEphemeral(i, "房間位置和角色數量不符！請確認狼人房間的人數上限。")
	case errors.Is(err, sessionerrors.ErrPlayerNotFound):
		g.replyEphemeral(i, "這個人不在本場遊戲中！")
	default:
		g.logger.Error("session command failed", "event", "discord_session_failed", "error", err.Error())
		g.replyEphemeral(i, "指令執行失敗！")
	}
}

func (g *Gateway) replyGameplayErr(i *discordgo.InteractionCreate, err error, success string) {
	switch {
	case err == nil:
		g.reply(i, success)
	case errors.Is(err, gameplayerrors.ErrNoAlivePlayers):
		g.replyEphemeral(i, "沒有活著的玩家！")
	case errors.Is(err, gameplayerrors.ErrNoCandidates):
		g.replyEphemeral(i, "無人參選警長或尚未啟動參選警長選單！")
	case errors.Is(err, gameplayerrors.ErrCountdownActive):
		g.replyEphemeral(i, "已有計時器在執行中！")
	case errors.Is(err, gameplayerrors.ErrCountdownNotFound):
		g.replyEphemeral(i, "沒有執行中的計時器！")
	case errors.Is(err, gameplayerrors.ErrInvalidDuration):
		g.replyEphemeral(i, "秒數必須大於零！")
	default:
		g.logger.Error("gameplay command failed", "event", "discord_gameplay_failed", "error", err.Error())
		g.replyEphemeral(i, "指令執行失敗！")
	}
}

// voteLimitMessage enumerates the options the voter currently holds so
// they know which picks to retract first.
func voteLimitMessage(err error) string {
	var limitErr *pollerrors.LimitExceededError
	if !errors.As(err, &limitErr) {
		return "已達投票上限！請先收回一張選票。"
	}
	return fmt.Sprintf("你最多只能投%d票，你投給的選項：%s",
		limitErr.Limit, strings.Join(limitErr.Selections, "、"))
}

func isAdministrator(i *discordgo.InteractionCreate) bool {
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func interactionDisplayName(i *discordgo.InteractionCreate) string {
	if i.Member != nil {
		return displayName(i.Member)
	}
	if i.User != nil {
		return i.User.Username
	}
	return ""
}

func optionUserID(data discordgo.ApplicationCommandInteractionData) string {
	for _, option := range data.Options {
		if option.Name == "member" {
			if id, ok := option.Value.(string); ok {
				return id
			}
		}
	}
	return ""
}

func optionInt(data discordgo.ApplicationCommandInteractionData, name string) int64 {
	for _, option := range data.Options {
		if option.Name == name {
			return option.IntValue()
		}
	}
	return 0
}

