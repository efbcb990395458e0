// Package wecom is a client for the WeCom (WeChat Work) application API:
// access tokens, app messages, group chats, directory lookups and temporary
// media. Every call fetches its own access token unless a token cache is
// configured.
package wecom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/boddenberg/wecom-agent-go/internal/domain"
	"github.com/boddenberg/wecom-agent-go/internal/infra/cache"
	"github.com/boddenberg/wecom-agent-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultBaseURL is the public API host.
const DefaultBaseURL = "https://qyapi.weixin.qq.com"

const serviceName = "wecom"

var tracer = otel.Tracer("wecom")

// TokenObserver is notified every time a token is fetched from the platform.
type TokenObserver interface {
	IncrTokenFetch()
}

// Client owns the application credentials and the HTTP machinery shared by
// direct sends, directory lookups, media upload and the chat façade.
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      domain.Credentials
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	tokens     *cache.InMemory[string]
	observer   TokenObserver
	logger     *zap.Logger

	info *domain.AppInfo
	chat *ChatService
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient sets the transport. Defaults to a client with a 10s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL points the client at another host (tests, proxies).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithCircuitBreaker replaces the default breaker.
func WithCircuitBreaker(cb *gobreaker.CircuitBreaker) Option {
	return func(c *Client) { c.cb = cb }
}

// WithBulkhead bounds concurrent in-flight platform calls.
func WithBulkhead(b *resilience.Bulkhead) Option {
	return func(c *Client) { c.bulkhead = b }
}

// WithTokenCache keeps fetched tokens for at most ttl (and never beyond the
// platform's expires_in). A non-positive ttl keeps fetch-per-call.
func WithTokenCache(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.tokens = cache.New[string](ttl)
		}
	}
}

// WithTokenObserver registers a token fetch observer (metrics).
func WithTokenObserver(o TokenObserver) Option {
	return func(c *Client) { c.observer = o }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New builds a client and fetches the agent configuration once. Any failure
// of that lookup is returned as *domain.ErrInitialization.
func New(ctx context.Context, creds domain.Credentials, opts ...Option) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    DefaultBaseURL,
		creds:      creds,
		bulkhead:   resilience.NewBulkhead(0),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cb == nil {
		c.cb = resilience.NewCircuitBreaker(serviceName, resilience.DefaultConfig(), countsAgainstBreaker)
	}
	c.chat = &ChatService{client: c, logger: c.logger}

	if err := validateCredentials(creds); err != nil {
		return nil, &domain.ErrInitialization{Err: err}
	}

	c.logger.Info("wecom: initializing application", zap.Int64("agent_id", creds.AgentID))

	info, err := c.GetAppInfo(ctx)
	if err != nil {
		initErr := &domain.ErrInitialization{Err: err}
		var apiErr *domain.ErrAPI
		if errors.As(err, &apiErr) {
			initErr.Payload = apiErr.Raw
		}
		c.Close()
		return nil, initErr
	}
	c.info = info
	c.logAppInfo(info)

	return c, nil
}

func validateCredentials(creds domain.Credentials) error {
	switch {
	case creds.CorpID == "":
		return &domain.ErrValidation{Field: "corp_id", Message: "required"}
	case creds.Secret == "":
		return &domain.ErrValidation{Field: "secret", Message: "required"}
	case creds.AgentID <= 0:
		return &domain.ErrValidation{Field: "agent_id", Message: "must be positive"}
	}
	return nil
}

func (c *Client) logAppInfo(info *domain.AppInfo) {
	fields := []zap.Field{
		zap.String("name", info.Name),
		zap.Strings("users", info.UserIDs()),
		zap.String("redirect_domain", info.RedirectDomain),
		zap.String("description", info.Description),
	}
	if len(info.AllowedParties) > 0 {
		fields = append(fields, zap.Strings("parties", info.PartyIDs()))
	}
	if len(info.AllowedTags) > 0 {
		fields = append(fields, zap.Strings("tags", info.AllowedTags))
	}
	c.logger.Info("wecom: application ready", fields...)
}

// Info returns the agent configuration fetched at construction.
func (c *Client) Info() *domain.AppInfo {
	return c.info
}

// AgentID returns the configured agent id.
func (c *Client) AgentID() int64 {
	return c.creds.AgentID
}

// Chat returns the group chat façade bound to this client.
func (c *Client) Chat() *ChatService {
	return c.chat
}

// Close releases background resources (the token cache janitor).
func (c *Client) Close() {
	if c.tokens != nil {
		c.tokens.Close()
	}
}

// ============================================================
// Generic GET / POST
// ============================================================

// envelope is present in every platform response.
type envelope struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// Get performs an authenticated GET and decodes the body into out (may be nil).
func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	return c.authorized(ctx, path, params, func(q url.Values) error {
		return c.do(ctx, http.MethodGet, path, q, nil, "", out)
	})
}

// Post performs an authenticated JSON POST of data and decodes the body into out (may be nil).
func (c *Client) Post(ctx context.Context, path string, data any, params url.Values, out any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return &domain.ErrValidation{Field: "body", Message: err.Error()}
	}
	return c.authorized(ctx, path, params, func(q url.Values) error {
		return c.do(ctx, http.MethodPost, path, q, body, "application/json", out)
	})
}

// authorized injects a freshly obtained access token into the query.
// A token rejected by the platform is evicted from the cache.
func (c *Client) authorized(ctx context.Context, path string, params url.Values, fn func(url.Values) error) error {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return err
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = append([]string(nil), v...)
	}
	q.Set("access_token", token)

	err = fn(q)
	if isTokenRejected(err) {
		c.logger.Warn("wecom: access token rejected, evicting", zap.String("path", path))
		c.evictToken()
	}
	return err
}

// do executes one platform call under the bulkhead, the circuit breaker and a span.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, contentType string, out any) (err error) {
	ctx, span := tracer.Start(ctx, "wecom "+path)
	defer func() { endSpan(span, err) }()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("wecom.path", path),
	)

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return &domain.ErrExternalService{Service: serviceName, Err: err}
	}
	defer c.bulkhead.Release()

	_, err = c.cb.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, method, path, query, body, contentType, out)
	})
	if resilience.IsOpen(err) {
		return &domain.ErrCircuitOpen{Service: serviceName}
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body []byte, contentType string, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return &domain.ErrExternalService{Service: serviceName, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("wecom: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return &domain.ErrExternalService{Service: serviceName, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.ErrExternalService{Service: serviceName, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("wecom: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(raw)),
		)
		return &domain.ErrExternalService{Service: serviceName, Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &domain.ErrExternalService{Service: serviceName, Err: fmt.Errorf("decode envelope: %w", err)}
	}
	if env.ErrCode != 0 {
		return &domain.ErrAPI{Path: path, Code: env.ErrCode, Message: env.ErrMsg, Raw: string(raw)}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &domain.ErrExternalService{Service: serviceName, Err: fmt.Errorf("decode %s: %w", path, err)}
		}
	}

	c.logger.Debug("wecom: request OK",
		zap.String("method", method),
		zap.String("path", path),
	)
	return nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// countsAgainstBreaker keeps business errors and local validation out of
// the breaker; only transport-level failures trip it.
func countsAgainstBreaker(err error) bool {
	return domain.KindOf(err) == domain.KindTransport
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if code := domain.ErrCode(err); code != 0 {
			span.SetAttributes(attribute.Int("wecom.errcode", code))
		}
	}
	span.End()
}
