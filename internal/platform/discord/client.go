package discord

import (
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// Client owns the gateway session. Adapters for the game modules share it.
type Client struct {
	session *discordgo.Session
	logger  *slog.Logger
}

func New(token string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if token == "" {
		return nil, fmt.Errorf("discord token is required")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates

	return &Client{session: session, logger: logger}, nil
}

func (c *Client) Session() *discordgo.Session {
	return c.session
}

func (c *Client) Open() error {
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	c.logger.Info("discord gateway connected",
		"event", "discord_gateway_connected",
		"module", "internal/platform/discord",
		"layer", "platform",
	)
	return nil
}

func (c *Client) Close() error {
	return c.session.Close()
}
