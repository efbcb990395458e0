package wecom

import (
	"context"

	"github.com/boddenberg/wecom-agent-go/internal/domain"

	"go.uber.org/zap"
)

const pathMessageSend = "/cgi-bin/message/send"

// Send validates msg, resolves the recipients and posts an app message.
// Recipient and payload validation fail before any HTTP call.
func (c *Client) Send(ctx context.Context, to domain.Recipients, msg *domain.Message) (*domain.SendResult, error) {
	resolved, err := domain.ResolveRecipients(to)
	if err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	msg.Address(c.creds.AgentID, resolved)

	var result domain.SendResult
	if err := c.Post(ctx, pathMessageSend, msg, nil, &result); err != nil {
		c.logger.Error("wecom: send message failed",
			zap.String("msgtype", string(msg.MsgType)),
			zap.String("touser", resolved.ToUser),
			zap.String("toparty", resolved.ToParty),
			zap.String("totag", resolved.ToTag),
			zap.Error(err),
		)
		return nil, err
	}

	if result.HasInvalidRecipients() {
		c.logger.Warn("wecom: message delivered with invalid recipients",
			zap.String("msgid", result.MsgID),
			zap.String("invaliduser", result.InvalidUser),
			zap.String("invalidparty", result.InvalidParty),
			zap.String("invalidtag", result.InvalidTag),
		)
	} else {
		c.logger.Debug("wecom: message sent",
			zap.String("msgtype", string(msg.MsgType)),
			zap.String("msgid", result.MsgID),
		)
	}
	return &result, nil
}

// SendText sends a text message.
func (c *Client) SendText(ctx context.Context, to domain.Recipients, content string) (*domain.SendResult, error) {
	return c.Send(ctx, to, domain.NewTextMessage(content))
}

// SendCard sends a text card. The platform truncates the description beyond
// 512 bytes and the button label beyond 4 characters.
func (c *Client) SendCard(ctx context.Context, to domain.Recipients, card domain.TextCardBody) (*domain.SendResult, error) {
	return c.Send(ctx, to, domain.NewTextCardMessage(card.Title, card.Description, card.URL, card.BtnTxt))
}

// SendFile sends a previously uploaded media file.
func (c *Client) SendFile(ctx context.Context, to domain.Recipients, mediaID string) (*domain.SendResult, error) {
	return c.Send(ctx, to, domain.NewFileMessage(mediaID))
}

// SendMarkdown sends a markdown message.
func (c *Client) SendMarkdown(ctx context.Context, to domain.Recipients, content string) (*domain.SendResult, error) {
	return c.Send(ctx, to, domain.NewMarkdownMessage(content))
}
