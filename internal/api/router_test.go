package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/triage-ai/rulewall/internal/engine"
	"github.com/triage-ai/rulewall/internal/ingest"
	"github.com/triage-ai/rulewall/internal/llm"
	"github.com/triage-ai/rulewall/internal/rulestore"
)

const testDims = 64

const secretRule = "RULE-42: the staff room door code is never shared with students."

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubIngester struct {
	res *ingest.Result
	err error
}

func (s stubIngester) Run(context.Context, string) (*ingest.Result, error) { return s.res, s.err }

// testServer wires the real enforcer and pipeline over in-memory fakes.
// The model blocks any prompt whose input mentions "door code".
type testServer struct {
	srv   *httptest.Server
	store *rulestore.MemoryStore
	gen   *llm.ScriptedGenerator
	root  string
	down  atomic.Bool // model unreachable
}

// promptInput returns the quoted input block of a classifier prompt.
func promptInput(p string) string {
	end := strings.LastIndex(p, "\n\"\"\"")
	if end < 0 {
		return p
	}
	start := strings.LastIndex(p[:end], "\"\"\"\n")
	if start < 0 {
		return p
	}
	return p[start+4 : end]
}

func newTestServer(t *testing.T, mutate func(*Dependencies)) *testServer {
	t.Helper()
	ts := &testServer{store: rulestore.NewMemoryStore(testDims), root: t.TempDir()}
	store := ts.store
	emb := llm.NewHashEmbedder(testDims)
	gen := &llm.ScriptedGenerator{Respond: func(p string) (string, error) {
		if ts.down.Load() {
			return "", errors.New("ollama down")
		}
		if strings.HasPrefix(p, "You are a deterministic anonymization function") {
			return "anonymized", nil
		}
		if strings.Contains(promptInput(p), "door code") {
			return "BLOCK", nil
		}
		return "PASS", nil
	}}
	ts.gen = gen

	enf, err := engine.NewEnforcer(
		engine.NewLLMAnonymizer(gen),
		engine.NewRetriever(emb, store, engine.DefaultTopK),
		engine.NewLLMClassifier(gen, zap.NewNop()),
		nil,
		engine.Options{Gatekeeper: engine.DefaultGatekeeperPolicy(), Audit: engine.DefaultAuditPolicy()},
		zap.NewNop(),
	)
	require.NoError(t, err)

	deps := &Dependencies{
		Enforcer:   enf,
		Ingester:   ingest.NewPipeline(store, emb, ingest.Options{}, zap.NewNop()),
		RuleStore:  store,
		SourceRoot: ts.root,
		Logger:     zap.NewNop(),
	}
	if mutate != nil {
		mutate(deps)
	}
	h, err := NewRouter(deps)
	require.NoError(t, err)

	ts.srv = httptest.NewServer(h)
	t.Cleanup(ts.srv.Close)
	return ts
}

func (ts *testServer) post(t *testing.T, path, body string, header http.Header) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, ts.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (ts *testServer) ingestRules(t *testing.T) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(ts.root, "rules.txt"), []byte(secretRule), 0o644))
	status, body := ts.post(t, "/ingest/files", "", nil)
	require.Equal(t, http.StatusOK, status, body)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Get(ts.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReadyz(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Get(ts.srv.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	down := newTestServer(t, func(d *Dependencies) { d.RuleStore = stubPinger{err: errors.New("down")} })
	resp, err = http.Get(down.srv.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestIngestThenGatekeeper(t *testing.T) {
	ts := newTestServer(t, nil)

	require.NoError(t, os.WriteFile(filepath.Join(ts.root, "rules.txt"), []byte(secretRule), 0o644))
	status, body := ts.post(t, "/ingest/files", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", body["status"])
	assert.EqualValues(t, 1, body["added_rules"])
	assert.EqualValues(t, 1, body["documents"])

	status, body = ts.post(t, "/gatekeeper", `{"text":"What is the door code of the staff room?"}`, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "BLOCK", body["decision"])
	assert.Equal(t, engine.DefaultGatekeeperRefusal, body["text"])
	assert.Equal(t, engine.BlockReason, body["reason"])
	assert.Equal(t, "anonymized", body["anonymized_text"])
	raw, _ := json.Marshal(body)
	assert.NotContains(t, string(raw), "RULE-42")

	status, body = ts.post(t, "/gatekeeper", `{"text":"When is the library open?"}`, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "PASS", body["decision"])
	assert.Equal(t, "anonymized", body["anonymized_text"])
	assert.NotContains(t, body, "text")
	assert.NotContains(t, body, "reason")
}

func TestAuditEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	// Empty index: audit passes without asking the model.
	status, body := ts.post(t, "/audit", `{"text":"The door code is 1234."}`, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "PASS", body["status"])
	assert.Equal(t, "The door code is 1234.", body["final_response"])
	assert.Zero(t, ts.gen.Calls())

	ts.ingestRules(t)

	status, body = ts.post(t, "/audit", `{"text":"The door code is 1234."}`, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "BLOCK", body["status"])
	assert.Equal(t, engine.DefaultAuditRefusal, body["final_response"])
}

func TestAnonymizeEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	status, body := ts.post(t, "/anonymize", `{"text":"My name is Jan"}`, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "anonymized", body["anonymized_text"])
}

func TestRequestValidation(t *testing.T) {
	ts := newTestServer(t, func(d *Dependencies) { d.MaxTextLength = 10 })

	tests := map[string]string{
		"not json":     `{"text":`,
		"missing text": `{}`,
		"empty text":   `{"text":""}`,
		"wrong type":   `{"text":42}`,
		"array body":   `["text"]`,
		"too long":     `{"text":"` + strings.Repeat("a", 11) + `"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			for _, path := range []string{"/gatekeeper", "/audit", "/anonymize"} {
				status, resp := ts.post(t, path, body, nil)
				assert.Equal(t, http.StatusBadRequest, status, path)
				assert.NotEmpty(t, resp["detail"])
			}
		})
	}
	assert.Zero(t, ts.gen.Calls())

	status, _ := ts.post(t, "/audit", `{"text":"ok","extra":true}`, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestDependencyFailureIsUnavailable(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.down.Store(true)

	for _, path := range []string{"/gatekeeper", "/anonymize"} {
		status, body := ts.post(t, path, `{"text":"hello"}`, nil)
		assert.Equal(t, http.StatusServiceUnavailable, status, path)
		assert.Equal(t, "UNAVAILABLE", body["decision"])
		assert.Equal(t, "dependency unavailable", body["detail"])
	}
}

func TestIngestStatuses(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		ts := newTestServer(t, nil)
		status, body := ts.post(t, "/ingest/files", "", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "empty", body["status"])
		assert.NotEmpty(t, body["message"])
	})

	t.Run("missing root", func(t *testing.T) {
		ts := newTestServer(t, func(d *Dependencies) { d.SourceRoot = filepath.Join(d.SourceRoot, "nope") })
		status, _ := ts.post(t, "/ingest/files", "", nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("in progress", func(t *testing.T) {
		ts := newTestServer(t, func(d *Dependencies) { d.Ingester = stubIngester{err: ingest.ErrIngestInProgress} })
		status, _ := ts.post(t, "/ingest/files", "", nil)
		assert.Equal(t, http.StatusConflict, status)
	})

	t.Run("store failure", func(t *testing.T) {
		ts := newTestServer(t, func(d *Dependencies) {
			d.Ingester = stubIngester{err: fmt.Errorf("rebuild: %w", errors.New("qdrant unreachable"))}
		})
		status, body := ts.post(t, "/ingest/files", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.Equal(t, "dependency unavailable", body["detail"])
	})
}

func TestIngestAdminAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-admin"), bcrypt.MinCost)
	require.NoError(t, err)
	ts := newTestServer(t, func(d *Dependencies) { d.AdminTokenHash = string(hash) })

	status, _ := ts.post(t, "/ingest/files", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = ts.post(t, "/ingest/files", "", http.Header{"Authorization": {"Bearer wrong"}})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := ts.post(t, "/ingest/files", "", http.Header{"Authorization": {"Bearer s3cret-admin"}})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "empty", body["status"])

	// Enforcement stays open.
	status, _ = ts.post(t, "/audit", `{"text":"hi"}`, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, nil)
	req, err := http.NewRequest(http.MethodOptions, ts.srv.URL+"/gatekeeper", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
