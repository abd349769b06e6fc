package discord

import "context"

// Messenger implements the gameplay service's plain message port.
type Messenger struct {
	client *Client
}

func NewMessenger(client *Client) *Messenger {
	return &Messenger{client: client}
}

func (m *Messenger) Send(_ context.Context, channelID, content string) (string, error) {
	message, err := m.client.Session().ChannelMessageSend(channelID, content)
	if err != nil {
		return "", err
	}
	return message.ID, nil
}

func (m *Messenger) Edit(_ context.Context, channelID, messageID, content string) error {
	_, err := m.client.Session().ChannelMessageEdit(channelID, messageID, content)
	return err
}
