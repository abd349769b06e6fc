package http

import (
	"time"

	"werewolf/contexts/game/poll-engine/domain/entities"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type OptionCountResponse struct {
	OptionID string   `json:"option_id"`
	Label    string   `json:"label"`
	Count    int      `json:"count"`
	Voters   []string `json:"voters,omitempty"`
}

type PollResponse struct {
	PollID          string                `json:"poll_id"`
	Topic           string                `json:"topic"`
	Options         []OptionCountResponse `json:"options"`
	ExpireAt        time.Time             `json:"expire_at"`
	MaxVotesPerUser int                   `json:"max_votes_per_user"`
	AnonymousVote   bool                  `json:"anonymous_vote"`
	ShowLiveCounts  bool                  `json:"show_live_counts"`
	ChannelID       string                `json:"channel_id"`
}

type PollListResponse struct {
	Items []PollResponse `json:"items"`
}

// PollResponseFromView hides counts and voter identities the same way the
// rendered message does: live counts only when enabled, identities only for
// non-anonymous polls.
func PollResponseFromView(view entities.PollView) PollResponse {
	options := make([]OptionCountResponse, 0, len(view.Options))
	for _, count := range view.Options {
		item := OptionCountResponse{
			OptionID: count.Option.ID,
			Label:    count.Option.Label,
		}
		if view.ShowLiveCounts || view.Closed {
			item.Count = count.Count
			if !view.AnonymousVote {
				item.Voters = count.Voters
			}
		}
		options = append(options, item)
	}
	return PollResponse{
		PollID:          view.ID,
		Topic:           view.Topic,
		Options:         options,
		ExpireAt:        view.ExpireAt,
		MaxVotesPerUser: view.MaxVotesPerUser,
		AnonymousVote:   view.AnonymousVote,
		ShowLiveCounts:  view.ShowLiveCounts,
		ChannelID:       view.ChannelID,
	}
}
