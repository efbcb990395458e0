// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service layer
// from the concrete platform client.
package port

import (
	"context"

	"github.com/boddenberg/wecom-agent-go/internal/domain"
)

// MessageSender delivers app messages to users, departments and tags.
type MessageSender interface {
	Send(ctx context.Context, to domain.Recipients, msg *domain.Message) (*domain.SendResult, error)
}

// ChatManager manages agent-owned group chats and sends into them.
type ChatManager interface {
	CreateChat(ctx context.Context, spec domain.ChatSpec) (string, error)
	ModifyChat(ctx context.Context, chatID string, update domain.ChatUpdate) error
	GetChat(ctx context.Context, chatID string) (*domain.ChatInfo, error)
	Send(ctx context.Context, chatID string, msg *domain.Message) error
}

// Directory reads the organization directory and the agent configuration.
type Directory interface {
	GetAppInfo(ctx context.Context) (*domain.AppInfo, error)
	ListDepartments(ctx context.Context, departmentID int) ([]domain.Department, error)
	ListDepartmentUsers(ctx context.Context, departmentID int) ([]domain.DepartmentMember, error)
	GetTagUsers(ctx context.Context, tagID int) (*domain.TagMembers, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}

// MediaUploader uploads temporary media from a local path.
type MediaUploader interface {
	UploadMedia(ctx context.Context, filePath string, mediaType domain.MediaType) (*domain.MediaUpload, error)
}

// Platform is everything the gateway needs from the platform client.
type Platform interface {
	MessageSender
	Directory
	MediaUploader
}
