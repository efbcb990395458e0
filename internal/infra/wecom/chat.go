package wecom

import (
	"context"
	"net/url"

	"github.com/boddenberg/wecom-agent-go/internal/domain"

	"go.uber.org/zap"
)

const (
	pathChatCreate = "/cgi-bin/appchat/create"
	pathChatUpdate = "/cgi-bin/appchat/update"
	pathChatGet    = "/cgi-bin/appchat/get"
	pathChatSend   = "/cgi-bin/appchat/send"
)

// ChatService manages group chats created by the agent and sends messages
// into them. Only self-built apps whose visibility is the root department may
// use it, and only chats the app created can be addressed.
//
// The platform caps chat messages at 20k recipients/minute and 200k/hour per
// corp (a 100-member chat counts 100 per message), and each member at 200
// messages/minute; excess messages are dropped silently. None of this is
// enforced here.
type ChatService struct {
	client *Client
	logger *zap.Logger
}

// CreateChat creates a chat and returns its id, assigned by the platform when
// spec.ChatID is empty.
func (s *ChatService) CreateChat(ctx context.Context, spec domain.ChatSpec) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}
	if domain.NameTruncated(spec.Name) {
		s.logger.Debug("wecom: chat name will be truncated by the platform",
			zap.Int("max_runes", domain.MaxChatNameRunes),
		)
	}

	var resp struct {
		ChatID string `json:"chatid"`
	}
	if err := s.client.Post(ctx, pathChatCreate, spec, nil, &resp); err != nil {
		s.logger.Error("wecom: create chat failed",
			zap.String("name", spec.Name),
			zap.String("owner", spec.Owner),
			zap.Int("members", len(spec.UserList)),
			zap.Error(err),
		)
		return "", err
	}

	s.logger.Info("wecom: chat created",
		zap.String("chatid", resp.ChatID),
		zap.String("name", spec.Name),
	)
	return resp.ChatID, nil
}

// ModifyChat applies a patch. Only fields set on update are sent.
func (s *ChatService) ModifyChat(ctx context.Context, chatID string, update domain.ChatUpdate) error {
	if chatID == "" {
		return &domain.ErrValidation{Field: "chatid", Message: "required"}
	}
	if update.IsEmpty() {
		return &domain.ErrValidation{Field: "update", Message: "nothing to change"}
	}

	req := domain.ChatUpdateRequest{ChatID: chatID, ChatUpdate: update}
	if err := s.client.Post(ctx, pathChatUpdate, req, nil, nil); err != nil {
		s.logger.Error("wecom: modify chat failed",
			zap.String("chatid", chatID),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("wecom: chat modified", zap.String("chatid", chatID))
	return nil
}

// GetChat reads a chat's name, owner and members.
func (s *ChatService) GetChat(ctx context.Context, chatID string) (*domain.ChatInfo, error) {
	if chatID == "" {
		return nil, &domain.ErrValidation{Field: "chatid", Message: "required"}
	}
	q := url.Values{}
	q.Set("chatid", chatID)

	var resp struct {
		ChatInfo domain.ChatInfo `json:"chat_info"`
	}
	if err := s.client.Get(ctx, pathChatGet, q, &resp); err != nil {
		return nil, err
	}
	return &resp.ChatInfo, nil
}

// Send posts msg into a chat.
func (s *ChatService) Send(ctx context.Context, chatID string, msg *domain.Message) error {
	if chatID == "" {
		return &domain.ErrValidation{Field: "chatid", Message: "required"}
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	msg.AddressChat(chatID)

	if err := s.client.Post(ctx, pathChatSend, msg, nil, nil); err != nil {
		s.logger.Error("wecom: send chat message failed",
			zap.String("chatid", chatID),
			zap.String("msgtype", string(msg.MsgType)),
			zap.Error(err),
		)
		return err
	}

	s.logger.Debug("wecom: chat message sent",
		zap.String("chatid", chatID),
		zap.String("msgtype", string(msg.MsgType)),
	)
	return nil
}

// SendText sends a text message into a chat.
func (s *ChatService) SendText(ctx context.Context, chatID, content string) error {
	return s.Send(ctx, chatID, domain.NewTextMessage(content))
}

// SendCard sends a text card into a chat.
func (s *ChatService) SendCard(ctx context.Context, chatID string, card domain.TextCardBody) error {
	return s.Send(ctx, chatID, domain.NewTextCardMessage(card.Title, card.Description, card.URL, card.BtnTxt))
}

// SendFile sends a previously uploaded media file into a chat.
func (s *ChatService) SendFile(ctx context.Context, chatID, mediaID string) error {
	return s.Send(ctx, chatID, domain.NewFileMessage(mediaID))
}

// SendMarkdown sends a markdown message into a chat.
func (s *ChatService) SendMarkdown(ctx context.Context, chatID, content string) error {
	return s.Send(ctx, chatID, domain.NewMarkdownMessage(content))
}
