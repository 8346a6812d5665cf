package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pqtree/pkg/cache"
	"github.com/matzehuels/pqtree/pkg/errors"
	"github.com/matzehuels/pqtree/pkg/observability"
	"github.com/matzehuels/pqtree/pkg/render"
	"github.com/matzehuels/pqtree/pkg/scenario"
)

const reverseDoc = `
name = "reverse"
[tree]
id = "q"
type = "QNODE"
  [[tree.children]]
  id = "a"
  [[tree.children]]
  id = "b"
  real = 1
[[ops]]
op = "reverse"
target = "q"
expect = ["b", "a"]
`

const reverseYAML = `
name: reverse
tree:
  id: q
  type: QNODE
  children: [{id: a}, {id: b, real: 1}]
ops:
  - {op: reverse, target: q, expect: [b, a]}
`

func newTestServer(t *testing.T, metrics *observability.Metrics) *httptest.Server {
	t.Helper()
	c, err := cache.NewMemoryCache(16)
	if err != nil {
		t.Fatal(err)
	}
	logger := log.New(io.Discard)
	s := New(Config{},
		scenario.NewRunner(c, nil, logger),
		render.New(render.WithCache(c), render.WithLogger(logger)),
		metrics, logger)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, contentType, body string, header ...string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", contentType)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.Version == "" {
		t.Errorf("body = %+v", body)
	}
	if resp.Header.Get(HeaderRequestID) == "" {
		t.Error("missing request id")
	}
}

func TestRequestIDReused(t *testing.T) {
	ts := newTestServer(t, nil)
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set(HeaderRequestID, "client-42")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(HeaderRequestID); got != "client-42" {
		t.Errorf("request id = %q, want client-42", got)
	}
}

func TestScenario(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name        string
		url         string
		contentType string
		body        string
	}{
		{"toml", "/v1/scenarios", "application/toml", reverseDoc},
		{"yaml by content type", "/v1/scenarios", "application/yaml", reverseYAML},
		{"yaml by query", "/v1/scenarios?input=yaml", "text/plain", reverseYAML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+tt.url, tt.contentType, tt.body)
			if resp.StatusCode != http.StatusOK {
				b, _ := io.ReadAll(resp.Body)
				t.Fatalf("status = %d: %s", resp.StatusCode, b)
			}
			var res scenario.Result
			if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
				t.Fatal(err)
			}
			if res.Final != "q[b a]" || len(res.Steps) != 1 {
				t.Errorf("result = %+v", res)
			}
		})
	}
}

func TestScenarioCacheHeader(t *testing.T) {
	ts := newTestServer(t, nil)
	first := post(t, ts.URL+"/v1/scenarios", "application/toml", reverseDoc)
	second := post(t, ts.URL+"/v1/scenarios", "application/toml", reverseDoc)
	if got := first.Header.Get("X-Cache"); got != "miss" {
		t.Errorf("first X-Cache = %q, want miss", got)
	}
	if got := second.Header.Get("X-Cache"); got != "hit" {
		t.Errorf("second X-Cache = %q, want hit", got)
	}
}

func TestScenarioErrors(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name    string
		body    string
		status  int
		code    errors.Code
		partial bool
	}{
		{"empty", "  \n", http.StatusBadRequest, errors.ErrCodeInvalidInput, false},
		{"malformed", "name = ", http.StatusBadRequest, errors.ErrCodeInvalidScenario, false},
		{
			name:    "failed expectation",
			body:    strings.Replace(reverseDoc, `expect = ["b", "a"]`, `expect = ["a", "b"]`, 1),
			status:  http.StatusUnprocessableEntity,
			code:    errors.ErrCodeExpectation,
			partial: true,
		},
		{
			name:    "unknown node",
			body:    strings.Replace(reverseDoc, `target = "q"`, `target = "zz"`, 1),
			status:  http.StatusUnprocessableEntity,
			code:    errors.ErrCodeNotFound,
			partial: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+"/v1/scenarios", "application/toml", tt.body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var body errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Error.Code != tt.code {
				t.Errorf("code = %s, want %s", body.Error.Code, tt.code)
			}
			if (body.Result != nil) != tt.partial {
				t.Errorf("partial result present = %v, want %v", body.Result != nil, tt.partial)
			}
		})
	}
}

func TestScenarioBodyLimit(t *testing.T) {
	c := cache.NewNullCache()
	logger := log.New(io.Discard)
	s := New(Config{MaxBodyBytes: 16}, scenario.NewRunner(c, nil, logger), render.New(), nil, logger)

	req := httptest.NewRequest(http.MethodPost, "/v1/scenarios", strings.NewReader(reverseDoc))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "exceeds 16 bytes") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRender(t *testing.T) {
	ts := newTestServer(t, nil)

	t.Run("dot", func(t *testing.T) {
		resp := post(t, ts.URL+"/v1/render?format=dot", "application/toml", reverseDoc)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		b, _ := io.ReadAll(resp.Body)
		if !strings.HasPrefix(string(b), "digraph PQTree {") {
			t.Errorf("body = %.60s", b)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/vnd.graphviz") {
			t.Errorf("Content-Type = %q", ct)
		}
	})

	t.Run("json", func(t *testing.T) {
		resp := post(t, ts.URL+"/v1/render?format=json", "application/toml", reverseDoc)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		var tree struct {
			ID       string `json:"id"`
			Type     string `json:"type"`
			Children []struct {
				ID string `json:"id"`
			} `json:"children"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&tree); err != nil {
			t.Fatal(err)
		}
		if tree.ID != "q" || tree.Type != "QNODE" || len(tree.Children) != 2 || tree.Children[0].ID != "b" {
			t.Errorf("tree = %+v", tree)
		}
	})

	t.Run("etag", func(t *testing.T) {
		first := post(t, ts.URL+"/v1/render?format=dot", "application/toml", reverseDoc)
		etag := first.Header.Get("ETag")
		if etag == "" {
			t.Fatal("missing ETag")
		}
		second := post(t, ts.URL+"/v1/render?format=dot", "application/toml", reverseDoc, "If-None-Match", etag)
		if second.StatusCode != http.StatusNotModified {
			t.Errorf("status = %d, want 304", second.StatusCode)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		resp := post(t, ts.URL+"/v1/render?format=gif", "application/toml", reverseDoc)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestMetricsRoute(t *testing.T) {
	m, err := observability.NewMetrics()
	if err != nil {
		t.Fatal(err)
	}
	observability.Install(m)
	defer observability.Reset()

	ts := newTestServer(t, m)
	post(t, ts.URL+"/v1/scenarios", "application/toml", reverseDoc)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	for _, want := range []string{
		`pqtree_http_requests_total{code="200",method="POST",route="/v1/scenarios"} 1`,
		`pqtree_scenario_runs_total{outcome="ok"} 1`,
		`pqtree_cache_operations_total{key_type="scenario",result="miss"} 1`,
	} {
		if !strings.Contains(string(b), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestServeShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	logger := log.New(io.Discard)
	s := New(Config{}, scenario.NewRunner(nil, nil, logger), render.New(), nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
