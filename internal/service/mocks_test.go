package service_test

import (
	"context"
	"sync"

	"github.com/boddenberg/wecom-agent-go/internal/domain"
)

// --- Mocks ---

type mockSender struct {
	result *domain.SendResult
	err    error

	calls int
	to    domain.Recipients
	msg   *domain.Message
}

func (m *mockSender) Send(_ context.Context, to domain.Recipients, msg *domain.Message) (*domain.SendResult, error) {
	m.calls++
	m.to = to
	m.msg = msg
	return m.result, m.err
}

type mockChats struct {
	createdID string
	info      *domain.ChatInfo
	err       error

	spec    domain.ChatSpec
	update  domain.ChatUpdate
	chatID  string
	msg     *domain.Message
	created int
	sent    int
}

func (m *mockChats) CreateChat(_ context.Context, spec domain.ChatSpec) (string, error) {
	m.created++
	m.spec = spec
	if m.err != nil {
		return "", m.err
	}
	if spec.ChatID != "" {
		return spec.ChatID, nil
	}
	return m.createdID, nil
}

func (m *mockChats) ModifyChat(_ context.Context, chatID string, update domain.ChatUpdate) error {
	m.chatID = chatID
	m.update = update
	return m.err
}

func (m *mockChats) GetChat(_ context.Context, chatID string) (*domain.ChatInfo, error) {
	m.chatID = chatID
	return m.info, m.err
}

func (m *mockChats) Send(_ context.Context, chatID string, msg *domain.Message) error {
	m.sent++
	m.chatID = chatID
	m.msg = msg
	return m.err
}

type mockDirectory struct {
	mu    sync.Mutex
	users map[string]*domain.User
	err   error
	calls []string
}

func (m *mockDirectory) GetAppInfo(_ context.Context) (*domain.AppInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.AppInfo{AgentID: 1000002, Name: "Ops Notifier"}, nil
}

func (m *mockDirectory) ListDepartments(_ context.Context, _ int) ([]domain.Department, error) {
	return []domain.Department{{ID: 1, Name: "HQ"}}, m.err
}

func (m *mockDirectory) ListDepartmentUsers(_ context.Context, _ int) ([]domain.DepartmentMember, error) {
	return nil, m.err
}

func (m *mockDirectory) GetTagUsers(_ context.Context, _ int) (*domain.TagMembers, error) {
	return &domain.TagMembers{TagName: "oncall"}, m.err
}

func (m *mockDirectory) GetUser(_ context.Context, userID string) (*domain.User, error) {
	m.mu.Lock()
	m.calls = append(m.calls, userID)
	m.mu.Unlock()

	if u, ok := m.users[userID]; ok {
		return u, nil
	}
	if m.err != nil {
		return nil, m.err
	}
	return nil, &domain.ErrAPI{Path: "/cgi-bin/user/get", Code: 60111, Message: "userid not found"}
}

type mockUploader struct {
	upload *domain.MediaUpload
	err    error
	path   string
	typ    domain.MediaType
}

func (m *mockUploader) UploadMedia(_ context.Context, filePath string, mediaType domain.MediaType) (*domain.MediaUpload, error) {
	m.path = filePath
	m.typ = mediaType
	return m.upload, m.err
}
