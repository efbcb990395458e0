package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/wecom-agent-go/internal/domain"
	"github.com/boddenberg/wecom-agent-go/internal/handler"
	"github.com/boddenberg/wecom-agent-go/internal/infra/observability"
	"github.com/boddenberg/wecom-agent-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockSender struct {
	result *domain.SendResult
	err    error
	calls  int
}

func (m *mockSender) Send(_ context.Context, to domain.Recipients, _ *domain.Message) (*domain.SendResult, error) {
	m.calls++
	if _, err := domain.ResolveRecipients(to); err != nil {
		return nil, err
	}
	return m.result, m.err
}

type mockChats struct {
	err    error
	chatID string
	update domain.ChatUpdate
}

func (m *mockChats) CreateChat(_ context.Context, spec domain.ChatSpec) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}
	if spec.ChatID != "" {
		return spec.ChatID, m.err
	}
	return "CHATNEW", m.err
}

func (m *mockChats) ModifyChat(_ context.Context, chatID string, update domain.ChatUpdate) error {
	m.chatID, m.update = chatID, update
	return m.err
}

func (m *mockChats) GetChat(_ context.Context, chatID string) (*domain.ChatInfo, error) {
	return &domain.ChatInfo{ChatID: chatID, Name: "incident", Owner: "u1", UserList: []string{"u1", "u2"}}, m.err
}

func (m *mockChats) Send(_ context.Context, chatID string, _ *domain.Message) error {
	m.chatID = chatID
	return m.err
}

type mockDirectory struct {
	err error
}

func (m *mockDirectory) GetAppInfo(_ context.Context) (*domain.AppInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.AppInfo{AgentID: 1000002, Name: "Ops Notifier"}, nil
}

func (m *mockDirectory) ListDepartments(_ context.Context, id int) ([]domain.Department, error) {
	return []domain.Department{{ID: max(id, 1), Name: "HQ"}}, m.err
}

func (m *mockDirectory) ListDepartmentUsers(_ context.Context, _ int) ([]domain.DepartmentMember, error) {
	return []domain.DepartmentMember{{UserID: "u1", Name: "Ana"}}, m.err
}

func (m *mockDirectory) GetTagUsers(_ context.Context, _ int) (*domain.TagMembers, error) {
	return &domain.TagMembers{TagName: "oncall"}, m.err
}

func (m *mockDirectory) GetUser(_ context.Context, userID string) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.User{UserID: userID, Name: "User " + userID}, nil
}

type mockUploader struct {
	sawFile  bool
	path     string
	contents string
}

func (m *mockUploader) UploadMedia(_ context.Context, filePath string, mediaType domain.MediaType) (*domain.MediaUpload, error) {
	m.path = filePath
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, &domain.ErrFileNotFound{Path: filePath}
	}
	m.sawFile = true
	m.contents = string(data)
	return &domain.MediaUpload{Type: mediaType, MediaID: "media-1", CreatedAt: "1700000000"}, nil
}

// --- Helpers ---

type fixture struct {
	sender   *mockSender
	chats    *mockChats
	dir      *mockDirectory
	uploader *mockUploader
	metrics  *observability.Metrics
	router   http.Handler
}

func newFixture(auth *service.TokenIssuer) *fixture {
	f := &fixture{
		sender:   &mockSender{result: &domain.SendResult{MsgID: "m-1"}},
		chats:    &mockChats{},
		dir:      &mockDirectory{},
		uploader: &mockUploader{},
		metrics:  observability.NewMetrics(),
	}
	logger := zap.NewNop()
	notifier := service.NewNotifier(f.sender, f.chats, f.uploader, f.metrics, logger)
	dir := service.NewDirectoryService(f.dir, 4, f.metrics, logger)
	f.router = handler.NewRouter(notifier, dir, auth, f.metrics, logger)
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// --- Operational ---

func TestHealthz(t *testing.T) {
	router := handler.NewRouter(nil, nil, nil, observability.NewMetrics(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHealthz_PlatformDegraded(t *testing.T) {
	f := newFixture(nil)
	f.dir.err = &domain.ErrCircuitOpen{Service: "wecom"}

	rec := f.do(http.MethodGet, "/healthz", "")

	var health domain.HealthStatus
	decode(t, rec, &health)
	if health.Status != "degraded" {
		t.Errorf("expected degraded, got %q", health.Status)
	}
	if len(health.Services) != 2 || health.Services[1].Detail != "circuit_open" {
		t.Errorf("unexpected services: %+v", health.Services)
	}
}

func TestReadyz(t *testing.T) {
	router := handler.NewRouter(nil, nil, nil, observability.NewMetrics(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	router := handler.NewRouter(nil, nil, nil, observability.NewMetrics(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

// --- Auth ---

func TestAuth(t *testing.T) {
	issuer := service.NewTokenIssuer("s3cret", time.Hour)
	f := newFixture(issuer)

	if rec := f.do(http.MethodGet, "/v1/app", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/app", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for non-bearer scheme, got %d", rec.Code)
	}

	token, err := issuer.Issue("billing-svc")
	if err != nil {
		t.Fatal(err)
	}
	req = httptest.NewRequest(http.MethodGet, "/v1/app", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", rec.Code)
	}

	if rec := f.do(http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("expected /healthz to stay public, got %d", rec.Code)
	}
}

// --- Messages ---

func TestSendMessage(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(http.MethodPost, "/v1/messages",
		`{"msgtype":"text","to_user":["u1","u2"],"text":{"content":"deploy done"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp domain.MessageSent
	decode(t, rec, &resp)
	if resp.Status != "sent" || resp.Result.MsgID != "m-1" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestSendMessage_PartialDelivery(t *testing.T) {
	f := newFixture(nil)
	f.sender.result = &domain.SendResult{MsgID: "m-2", InvalidUser: "ghost"}

	rec := f.do(http.MethodPost, "/v1/messages",
		`{"msgtype":"text","to_user":["u1","ghost"],"text":{"content":"hi"}}`)

	var resp domain.MessageSent
	decode(t, rec, &resp)
	if resp.Status != "partial" || resp.Result.InvalidUser != "ghost" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestSendMessage_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{
			name:       "malformed body",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "no recipients",
			body:       `{"msgtype":"text","text":{"content":"hi"}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "platform errcode",
			body:       `{"msgtype":"text","to_user":["u1"],"text":{"content":"hi"}}`,
			err:        &domain.ErrAPI{Path: "/cgi-bin/message/send", Code: 81013, Message: "all invalid"},
			wantStatus: http.StatusBadGateway,
			wantCode:   81013,
		},
		{
			name:       "transport",
			body:       `{"msgtype":"text","to_user":["u1"],"text":{"content":"hi"}}`,
			err:        &domain.ErrExternalService{Service: "wecom", Err: context.DeadlineExceeded},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "circuit open",
			body:       `{"msgtype":"text","to_user":["u1"],"text":{"content":"hi"}}`,
			err:        &domain.ErrCircuitOpen{Service: "wecom"},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(nil)
			f.sender.err = tt.err

			rec := f.do(http.MethodPost, "/v1/messages", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			var resp struct {
				Error   string `json:"error"`
				ErrCode int    `json:"errcode"`
			}
			decode(t, rec, &resp)
			if resp.ErrCode != tt.wantCode {
				t.Errorf("expected errcode %d, got %d", tt.wantCode, resp.ErrCode)
			}
		})
	}
}

func TestMessageMetrics(t *testing.T) {
	f := newFixture(nil)
	f.do(http.MethodPost, "/v1/messages", `{"msgtype":"markdown","to_tag":["7"],"markdown":{"content":"**ok**"}}`)

	rec := f.do(http.MethodGet, "/v1/metrics/messages", "")
	var snap domain.MessageMetrics
	decode(t, rec, &snap)
	if snap.MessagesSent != 1 || snap.ByType["markdown"] != 1 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

// --- Chats ---

func TestChatLifecycle(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(http.MethodPost, "/v1/chats", `{"name":"incident","userlist":["u1","u2"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created domain.ChatCreated
	decode(t, rec, &created)
	if created.ChatID != "CHATNEW" {
		t.Errorf("expected CHATNEW, got %q", created.ChatID)
	}

	rec = f.do(http.MethodPatch, "/v1/chats/CHATNEW", `{"name":"renamed","add_user_list":["u3"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.chats.chatID != "CHATNEW" || f.chats.update.Name == nil || *f.chats.update.Name != "renamed" {
		t.Errorf("unexpected update forwarded: %+v", f.chats.update)
	}

	rec = f.do(http.MethodGet, "/v1/chats/CHATNEW", "")
	var info domain.ChatInfo
	decode(t, rec, &info)
	if info.ChatID != "CHATNEW" || len(info.UserList) != 2 {
		t.Errorf("unexpected chat info: %+v", info)
	}

	rec = f.do(http.MethodPost, "/v1/chats/CHATNEW/messages", `{"msgtype":"text","text":{"content":"hi"}}`)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateChat_GeneratedID(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(http.MethodPost, "/v1/chats", `{"name":"incident","userlist":["u1","u2"],"generate_chatid":true}`)
	var created domain.ChatCreated
	decode(t, rec, &created)
	if len(created.ChatID) != domain.MaxChatIDLength {
		t.Errorf("expected generated id, got %q", created.ChatID)
	}
}

func TestCreateChat_TooFewMembers(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(http.MethodPost, "/v1/chats", `{"name":"solo","userlist":["u1"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

// --- Directory ---

func TestDirectoryRoutes(t *testing.T) {
	f := newFixture(nil)

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/v1/app", http.StatusOK},
		{"/v1/departments", http.StatusOK},
		{"/v1/departments?id=3", http.StatusOK},
		{"/v1/departments?id=abc", http.StatusBadRequest},
		{"/v1/departments/3/users", http.StatusOK},
		{"/v1/departments/x/users", http.StatusBadRequest},
		{"/v1/tags/7/users", http.StatusOK},
		{"/v1/users/u1", http.StatusOK},
		{"/v1/users?ids=u1,u2,u3", http.StatusOK},
		{"/v1/users", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := f.do(http.MethodGet, tt.path, "")
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestBatchUsersOrder(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(http.MethodGet, "/v1/users?ids=u3,u1,u2", "")
	var users []domain.User
	decode(t, rec, &users)
	if len(users) != 3 || users[0].UserID != "u3" || users[2].UserID != "u2" {
		t.Errorf("unexpected order: %+v", users)
	}
}

// --- Media ---

func TestUploadMedia_RemovesStagedFile(t *testing.T) {
	f := newFixture(nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("media", "report.pdf")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("%PDF-1.4 quarterly"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/media?type=file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !f.uploader.sawFile || f.uploader.contents != "%PDF-1.4 quarterly" {
		t.Errorf("expected staged file contents, got %q", f.uploader.contents)
	}
	if !strings.HasSuffix(f.uploader.path, "report.pdf") {
		t.Errorf("expected original file name kept, got %q", f.uploader.path)
	}
	if _, err := os.Stat(f.uploader.path); !os.IsNotExist(err) {
		t.Errorf("expected staged file removed, stat err = %v", err)
	}
}

func TestUploadMedia_BadRequests(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(http.MethodPost, "/v1/media?type=gif", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unsupported type, got %d", rec.Code)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("other", "x")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without media field, got %d", rec.Code)
	}
	if f.uploader.path != "" {
		t.Error("expected uploader not called")
	}
}
