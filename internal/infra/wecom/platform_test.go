package wecom_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/boddenberg/wecom-agent-go/internal/domain"
	"github.com/boddenberg/wecom-agent-go/internal/infra/wecom"
)

const testAgentID = 1000002

// fakePlatform is an in-process stand-in for the platform API. It answers
// gettoken and agent/get by default; tests override any path with handle.
type fakePlatform struct {
	t        *testing.T
	server   *httptest.Server
	mu       sync.Mutex
	hits     map[string]int
	bodies   map[string][]byte
	queries  map[string]string
	handlers map[string]http.HandlerFunc
}

func newFakePlatform(t *testing.T) *fakePlatform {
	t.Helper()
	fp := &fakePlatform{
		t:        t,
		hits:     map[string]int{},
		bodies:   map[string][]byte{},
		queries:  map[string]string{},
		handlers: map[string]http.HandlerFunc{},
	}

	fp.handle("/cgi-bin/gettoken", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"errcode": 0, "errmsg": "ok", "access_token": "tok-1", "expires_in": 7200})
	})
	fp.handle("/cgi-bin/agent/get", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"errcode":         0,
			"errmsg":          "ok",
			"agentid":         testAgentID,
			"name":            "Ops Notifier",
			"description":     "alerts",
			"redirect_domain": "ops.example.com",
			"allow_userinfos": map[string]any{"user": []map[string]string{{"userid": "u1"}, {"userid": "u2"}}},
			"allow_partys":    map[string]any{"partyid": []int{1, 2}},
			"allow_tags":      map[string]any{"tagid": []int{7}},
		})
	})

	fp.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		fp.mu.Lock()
		fp.hits[r.URL.Path]++
		fp.bodies[r.URL.Path] = body
		fp.queries[r.URL.Path] = r.URL.RawQuery
		h, ok := fp.handlers[r.URL.Path]
		fp.mu.Unlock()

		if !ok {
			http.NotFound(w, r)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		h(w, r)
	}))
	t.Cleanup(fp.server.Close)
	return fp
}

func (fp *fakePlatform) handle(path string, h http.HandlerFunc) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.handlers[path] = h
}

func (fp *fakePlatform) ok(path string, extra map[string]any) {
	fp.handle(path, func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{"errcode": 0, "errmsg": "ok"}
		for k, v := range extra {
			resp[k] = v
		}
		writeJSON(w, resp)
	})
}

func (fp *fakePlatform) fail(path string, code int, msg string) {
	fp.handle(path, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"errcode": code, "errmsg": msg})
	})
}

func (fp *fakePlatform) hitCount(path string) int {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return fp.hits[path]
}

func (fp *fakePlatform) totalHits() int {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	n := 0
	for _, v := range fp.hits {
		n += v
	}
	return n
}

// lastBody decodes the last JSON body posted to path.
func (fp *fakePlatform) lastBody(path string) map[string]any {
	fp.t.Helper()
	fp.mu.Lock()
	raw := fp.bodies[path]
	fp.mu.Unlock()

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		fp.t.Fatalf("decode body of %s: %v (%s)", path, err, raw)
	}
	return m
}

func (fp *fakePlatform) lastQuery(path string) string {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return fp.queries[path]
}

func (fp *fakePlatform) newClient(opts ...wecom.Option) *wecom.Client {
	fp.t.Helper()
	c, err := fp.tryClient(opts...)
	if err != nil {
		fp.t.Fatalf("expected client, got %v", err)
	}
	fp.t.Cleanup(c.Close)
	return c
}

func (fp *fakePlatform) tryClient(opts ...wecom.Option) (*wecom.Client, error) {
	all := append([]wecom.Option{
		wecom.WithBaseURL(fp.server.URL),
		wecom.WithHTTPClient(fp.server.Client()),
	}, opts...)
	return wecom.New(context.Background(), domain.Credentials{
		CorpID:  "corp",
		Secret:  "secret",
		AgentID: testAgentID,
	}, all...)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
