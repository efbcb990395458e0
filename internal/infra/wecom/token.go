package wecom

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/boddenberg/wecom-agent-go/internal/domain"

	"go.uber.org/zap"
)

const pathGetToken = "/cgi-bin/gettoken"

// Platform errcodes meaning the token itself was refused.
const (
	errCodeInvalidToken = 40014
	errCodeExpiredToken = 42001
)

// tokenSkew is subtracted from expires_in so a cached token is never used
// right at the edge of its lifetime.
const tokenSkew = 5 * time.Minute

var errEmptyToken = errors.New("token response carried no access_token")

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// AccessToken returns a token for the configured corp/secret. Without a
// token cache every call hits the platform.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	key := c.tokenKey()
	if c.tokens != nil {
		if token, ok := c.tokens.Get(key); ok {
			return token, nil
		}
	}

	q := url.Values{}
	q.Set("corpid", c.creds.CorpID)
	q.Set("corpsecret", c.creds.Secret)

	var resp tokenResponse
	if err := c.do(ctx, http.MethodGet, pathGetToken, q, nil, "", &resp); err != nil {
		c.logger.Error("wecom: failed to fetch access token", zap.Error(err))
		return "", err
	}
	if resp.AccessToken == "" {
		return "", &domain.ErrExternalService{Service: serviceName, Err: errEmptyToken}
	}
	if c.observer != nil {
		c.observer.IncrTokenFetch()
	}

	if c.tokens != nil {
		ttl := time.Duration(resp.ExpiresIn)*time.Second - tokenSkew
		if ttl > 0 {
			c.tokens.SetWithTTL(key, resp.AccessToken, ttl)
		}
	}
	return resp.AccessToken, nil
}

func (c *Client) tokenKey() string {
	return c.creds.CorpID + ":" + strconv.FormatInt(c.creds.AgentID, 10)
}

func (c *Client) evictToken() {
	if c.tokens != nil {
		c.tokens.Delete(c.tokenKey())
	}
}

func isTokenRejected(err error) bool {
	code := domain.ErrCode(err)
	return code == errCodeInvalidToken || code == errCodeExpiredToken
}
