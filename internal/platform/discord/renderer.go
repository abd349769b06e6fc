package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	gameplayentities "werewolf/contexts/game/gameplay-service/domain/entities"
	pollentities "werewolf/contexts/game/poll-engine/domain/entities"
)

const (
	voteCustomIDPrefix = "poll_vote:"
	enrollCustomID     = "police_enroll"
	pollEmbedColor     = 0x3498DB
	closedEmbedColor   = 0x95A5A6
	enrollEmbedColor   = 0x2ECC71
	maxButtonsPerRow   = 5
)

// Renderer draws polls and sign-up windows as embeds with button rows. The
// published message id doubles as the poll or window id, so component
// interactions route straight back without extra bookkeeping.
type Renderer struct {
	client *Client
}

func NewRenderer(client *Client) *Renderer {
	return &Renderer{client: client}
}

func (r *Renderer) Publish(_ context.Context, view pollentities.PollView) (string, error) {
	message, err := r.client.Session().ChannelMessageSendComplex(view.ChannelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{pollEmbed(view)},
		Components: pollButtons(view, false),
	})
	if err != nil {
		return "", fmt.Errorf("publish poll message: %w", err)
	}
	return message.ID, nil
}

func (r *Renderer) Refresh(_ context.Context, view pollentities.PollView) error {
	edit := discordgo.NewMessageEdit(view.ChannelID, view.RenderRef)
	edit.Embeds = &[]*discordgo.MessageEmbed{pollEmbed(view)}
	_, err := r.client.Session().ChannelMessageEditComplex(edit)
	return err
}

func (r *Renderer) Close(_ context.Context, view pollentities.PollView, winners []pollentities.Option) error {
	edit := discordgo.NewMessageEdit(view.ChannelID, view.RenderRef)
	edit.Embeds = &[]*discordgo.MessageEmbed{closedPollEmbed(view, winners)}
	components := pollButtons(view, true)
	edit.Components = &components
	_, err := r.client.Session().ChannelMessageEditComplex(edit)
	return err
}

func (r *Renderer) Announce(_ context.Context, view pollentities.PollView, winners []pollentities.Option) error {
	names := make([]string, 0, len(winners))
	for _, winner := range winners {
		names = append(names, winner.Label)
	}
	content := fmt.Sprintf("投票「%s」結束，最高票：%s", view.Topic, strings.Join(names, "，"))
	_, err := r.client.Session().ChannelMessageSend(view.ChannelID, content)
	return err
}

func pollEmbed(view pollentities.PollView) *discordgo.MessageEmbed {
	var body strings.Builder
	for _, count := range view.Options {
		if view.ShowLiveCounts {
			fmt.Fprintf(&body, "%s：%d 票\n", count.Option.Label, count.Count)
		} else {
			fmt.Fprintf(&body, "%s\n", count.Option.Label)
		}
	}
	return &discordgo.MessageEmbed{
		Title:       view.Topic,
		Description: body.String(),
		Color:       pollEmbedColor,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("每人最多 %d 票，點擊按鈕投票，再按一次收回", view.MaxVotesPerUser),
		},
	}
}

func closedPollEmbed(view pollentities.PollView, winners []pollentities.Option) *discordgo.MessageEmbed {
	var body strings.Builder
	for _, count := range view.Options {
		fmt.Fprintf(&body, "%s：%d 票", count.Option.Label, count.Count)
		if !view.AnonymousVote && len(count.Voters) > 0 {
			fmt.Fprintf(&body, "（%s）", strings.Join(mentions(count.Voters), "、"))
		}
		body.WriteString("\n")
	}
	names := make([]string, 0, len(winners))
	for _, winner := range winners {
		names = append(names, winner.Label)
	}
	return &discordgo.MessageEmbed{
		Title:       view.Topic + "（已結束）",
		Description: body.String(),
		Color:       closedEmbedColor,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "最高票：" + strings.Join(names, "，"),
		},
	}
}

func pollButtons(view pollentities.PollView, disabled bool) []discordgo.MessageComponent {
	rows := make([]discordgo.MessageComponent, 0, (len(view.Options)+maxButtonsPerRow-1)/maxButtonsPerRow)
	row := discordgo.ActionsRow{}
	for _, count := range view.Options {
		row.Components = append(row.Components, discordgo.Button{
			Label:    count.Option.Label,
			Style:    discordgo.PrimaryButton,
			CustomID: voteCustomIDPrefix + count.Option.ID,
			Disabled: disabled,
		})
		if len(row.Components) == maxButtonsPerRow {
			rows = append(rows, row)
			row = discordgo.ActionsRow{}
		}
	}
	if len(row.Components) > 0 {
		rows = append(rows, row)
	}
	return rows
}

func mentions(userIDs []string) []string {
	out := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		out = append(out, "<@!"+id+">")
	}
	return out
}

// PublishEnrollment posts the sheriff sign-up message with its toggle
// button; the message id becomes the window id.
func (r *Renderer) PublishEnrollment(_ context.Context, view gameplayentities.EnrollmentView) (string, error) {
	message, err := r.client.Session().ChannelMessageSendComplex(view.ChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "欲參選警長者請按下按鈕",
			Description: "時間有限！請加快手速！",
			Color:       enrollEmbedColor,
		}},
		Components: []discordgo.MessageComponent{discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{discordgo.Button{
				Label:    "參選警長",
				Style:    discordgo.SuccessButton,
				CustomID: enrollCustomID,
			}},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("publish enrollment message: %w", err)
	}
	return message.ID, nil
}

func (r *Renderer) CloseEnrollment(_ context.Context, view gameplayentities.EnrollmentView) error {
	edit := discordgo.NewMessageEdit(view.ChannelID, view.RenderRef)
	edit.Embeds = &[]*discordgo.MessageEmbed{{
		Title:       "參選警長（已截止）",
		Description: fmt.Sprintf("共 %d 人參選", len(view.Members)),
		Color:       closedEmbedColor,
	}}
	// The button stays enabled after the deadline: late presses are
	// withdrawals, which a closed window still accepts.
	components := []discordgo.MessageComponent{discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{discordgo.Button{
			Label:    "參選警長",
			Style:    discordgo.SecondaryButton,
			CustomID: enrollCustomID,
		}},
	}}
	edit.Components = &components
	_, err := r.client.Session().ChannelMessageEditComplex(edit)
	return err
}
