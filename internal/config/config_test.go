package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8015, cfg.Server.HTTPPort)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.URL)
	assert.Equal(t, "llama3", cfg.LLM.ChatModel)
	assert.Equal(t, "nomic-embed-text", cfg.LLM.EmbeddingModel)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "qdrant", cfg.RuleStore.Backend)
	assert.Equal(t, "agent5_rules", cfg.RuleStore.Collection)
	assert.Equal(t, 768, cfg.RuleStore.Dimensions)
	assert.Equal(t, 3, cfg.RuleStore.TopK)
	assert.Equal(t, 1000, cfg.Ingest.ChunkSize)
	assert.Equal(t, 100, cfg.Ingest.ChunkOverlap)
	assert.Equal(t, "resources", cfg.Ingest.SourceRoot)
	assert.Equal(t, "fallback", cfg.Policy.Gatekeeper.OnEmptyContext)
	assert.Equal(t, "pass", cfg.Policy.Audit.OnEmptyContext)
	assert.Equal(t, DefaultGatekeeperFallback, cfg.Policy.Gatekeeper.FallbackContext)
	assert.Equal(t, 2*time.Second, cfg.Policy.DetectorTimeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RULEWALL_RULESTORE_COLLECTION", "custom_rules")
	t.Setenv("RULEWALL_POLICY_AUDIT_ON_EMPTY_CONTEXT", "block")
	t.Setenv("OLLAMA_URL", "http://ollama.internal:11434")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "custom_rules", cfg.RuleStore.Collection)
	assert.Equal(t, "block", cfg.Policy.Audit.OnEmptyContext)
	assert.Equal(t, "http://ollama.internal:11434", cfg.LLM.URL)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rulewall.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rulestore:
  backend: memory
  top_k: 5
ingest:
  chunk_size: 400
  chunk_overlap: 40
events:
  backend: sqlite
  sqlite_path: /tmp/events.db
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.RuleStore.Backend)
	assert.Equal(t, 5, cfg.RuleStore.TopK)
	assert.Equal(t, 400, cfg.Ingest.ChunkSize)
	assert.Equal(t, "sqlite", cfg.Events.Backend)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.RuleStore.Backend = "chroma" }},
		{"overlap not below size", func(c *Config) { c.Ingest.ChunkOverlap = c.Ingest.ChunkSize }},
		{"pgvector without dsn", func(c *Config) { c.RuleStore.Backend = "pgvector"; c.RuleStore.DSN = "" }},
		{"bad empty-context mode", func(c *Config) { c.Policy.Gatekeeper.OnEmptyContext = "maybe" }},
		{"zero top k", func(c *Config) { c.RuleStore.TopK = 0 }},
		{"zero detector timeout", func(c *Config) { c.Policy.DetectorTimeout = 0 }},
		{"sqlite without path", func(c *Config) { c.Events.Backend = "sqlite"; c.Events.SQLitePath = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestEventsConfig_PostgresDSN(t *testing.T) {
	e := EventsConfig{Host: "db", Port: 5433, Database: "logs", User: "u", Password: "p", SSLMode: "require"}
	assert.Equal(t, "postgres://u:p@db:5433/logs?sslmode=require", e.PostgresDSN())
}
