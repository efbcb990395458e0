package service

import (
	"context"
	"time"

	"github.com/boddenberg/wecom-agent-go/internal/domain"
	"github.com/boddenberg/wecom-agent-go/internal/infra/observability"
	"github.com/boddenberg/wecom-agent-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service")

const (
	channelDirect = "direct"
	channelChat   = "chat"
)

// Notifier turns gateway requests into platform sends and chat operations,
// recording metrics for each.
type Notifier struct {
	sender   port.MessageSender
	chats    port.ChatManager
	uploader port.MediaUploader
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewNotifier creates the notifier with all dependencies injected.
func NewNotifier(
	sender port.MessageSender,
	chats port.ChatManager,
	uploader port.MediaUploader,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Notifier {
	return &Notifier{
		sender:   sender,
		chats:    chats,
		uploader: uploader,
		metrics:  metrics,
		logger:   logger,
	}
}

// SendDirect delivers an app message to the request's recipients.
func (n *Notifier) SendDirect(ctx context.Context, req *domain.SendRequest) (*domain.SendResult, error) {
	ctx, span := tracer.Start(ctx, "Notifier.SendDirect")
	defer span.End()
	span.SetAttributes(attribute.String("wecom.msgtype", req.MsgType))

	msg, err := req.Message()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := n.sender.Send(ctx, req.Recipients, msg)
	n.metrics.RecordRequestDuration("send_direct", time.Since(start))
	n.record(channelDirect, msg.MsgType, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SendToChat delivers a message into an agent-owned chat.
func (n *Notifier) SendToChat(ctx context.Context, chatID string, req *domain.SendRequest) error {
	ctx, span := tracer.Start(ctx, "Notifier.SendToChat")
	defer span.End()
	span.SetAttributes(
		attribute.String("wecom.chatid", chatID),
		attribute.String("wecom.msgtype", req.MsgType),
	)

	msg, err := req.Message()
	if err != nil {
		return err
	}

	start := time.Now()
	err = n.chats.Send(ctx, chatID, msg)
	n.metrics.RecordRequestDuration("send_chat", time.Since(start))
	n.record(channelChat, msg.MsgType, err)
	return err
}

// CreateChat creates a chat, generating the chat id locally when asked to.
func (n *Notifier) CreateChat(ctx context.Context, req *domain.CreateChatRequest) (string, error) {
	ctx, span := tracer.Start(ctx, "Notifier.CreateChat")
	defer span.End()

	spec := req.ChatSpec
	if req.GenerateChatID && spec.ChatID == "" {
		spec.ChatID = domain.NewChatID()
	}

	start := time.Now()
	chatID, err := n.chats.CreateChat(ctx, spec)
	n.metrics.RecordRequestDuration("chat_create", time.Since(start))
	if err != nil {
		n.metrics.IncrError(err)
		return "", err
	}
	return chatID, nil
}

// ModifyChat applies a chat patch.
func (n *Notifier) ModifyChat(ctx context.Context, chatID string, update domain.ChatUpdate) error {
	ctx, span := tracer.Start(ctx, "Notifier.ModifyChat")
	defer span.End()

	start := time.Now()
	err := n.chats.ModifyChat(ctx, chatID, update)
	n.metrics.RecordRequestDuration("chat_update", time.Since(start))
	if err != nil {
		n.metrics.IncrError(err)
	}
	return err
}

// GetChat reads a chat.
func (n *Notifier) GetChat(ctx context.Context, chatID string) (*domain.ChatInfo, error) {
	info, err := n.chats.GetChat(ctx, chatID)
	if err != nil {
		n.metrics.IncrError(err)
		return nil, err
	}
	return info, nil
}

// UploadMedia uploads a staged local file.
func (n *Notifier) UploadMedia(ctx context.Context, filePath string, mediaType domain.MediaType) (*domain.MediaUpload, error) {
	ctx, span := tracer.Start(ctx, "Notifier.UploadMedia")
	defer span.End()

	start := time.Now()
	upload, err := n.uploader.UploadMedia(ctx, filePath, mediaType)
	n.metrics.RecordRequestDuration("media_upload", time.Since(start))
	if err != nil {
		n.metrics.IncrError(err)
		return nil, err
	}
	return upload, nil
}

func (n *Notifier) record(channel string, mt domain.MsgType, err error) {
	if err != nil {
		n.metrics.IncrMessage(channel, mt, "error")
		n.metrics.IncrError(err)
		n.logger.Warn("message not delivered",
			zap.String("channel", channel),
			zap.String("msgtype", string(mt)),
			zap.String("kind", string(domain.KindOf(err))),
			zap.Error(err),
		)
		return
	}
	n.metrics.IncrMessage(channel, mt, "success")
}
