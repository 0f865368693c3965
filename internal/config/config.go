package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/triage-ai/rulewall/internal/engine"
)

// EnvPrefix is prepended to every environment override (RULEWALL_LLM_URL, ...).
const EnvPrefix = "RULEWALL"

// Config is the full runtime configuration for the firewall.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	LLM       LLMConfig       `mapstructure:"llm"`
	RuleStore RuleStoreConfig `mapstructure:"rulestore"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Events    EventsConfig    `mapstructure:"events"`
	Policy    PolicyConfig    `mapstructure:"policy"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	HTTPPort       int           `mapstructure:"http_port" validate:"min=1,max=65535"`
	AdminTokenHash string        `mapstructure:"admin_token_hash"` // bcrypt hash; empty disables auth on /ingest/files
	ReadTimeout    time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	MaxTextLength  int           `mapstructure:"max_text_length" validate:"min=1"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// LLMConfig points at the Ollama server used for generation and embeddings.
type LLMConfig struct {
	URL            string        `mapstructure:"url" validate:"required,url"`
	ChatModel      string        `mapstructure:"chat_model" validate:"required"`
	EmbeddingModel string        `mapstructure:"embedding_model" validate:"required"`
	Timeout        time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// RuleStoreConfig selects and configures the vector index backend.
type RuleStoreConfig struct {
	Backend    string `mapstructure:"backend" validate:"oneof=qdrant pgvector memory"`
	URL        string `mapstructure:"url"`
	GRPCPort   int    `mapstructure:"grpc_port" validate:"min=0,max=65535"`
	APIKey     string `mapstructure:"api_key"`
	DSN        string `mapstructure:"dsn" validate:"required_if=Backend pgvector"`
	Collection string `mapstructure:"collection" validate:"required"`
	Dimensions int    `mapstructure:"dimensions" validate:"min=1"`
	TopK       int    `mapstructure:"top_k" validate:"min=1,max=100"`
}

// IngestConfig controls document loading and splitting.
type IngestConfig struct {
	SourceRoot     string        `mapstructure:"source_root" validate:"required"`
	ChunkSize      int           `mapstructure:"chunk_size" validate:"min=1"`
	ChunkOverlap   int           `mapstructure:"chunk_overlap" validate:"min=0,ltfield=ChunkSize"`
	EmbedBatchSize int           `mapstructure:"embed_batch_size" validate:"min=1"`
	Watch          bool          `mapstructure:"watch"`
	Debounce       time.Duration `mapstructure:"debounce" validate:"gte=0"`
}

// EventsConfig selects where security events are recorded.
type EventsConfig struct {
	Backend       string `mapstructure:"backend" validate:"oneof=postgres sqlite clickhouse log"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port" validate:"min=0,max=65535"`
	Database      string `mapstructure:"database"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	SSLMode       string `mapstructure:"sslmode"`
	SQLitePath    string `mapstructure:"sqlite_path" validate:"required_if=Backend sqlite"`
	ClickHouseDSN string `mapstructure:"clickhouse_dsn" validate:"required_if=Backend clickhouse"`
}

// PostgresDSN assembles a connection URL from the discrete event-store fields.
func (e EventsConfig) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(e.User, e.Password),
		Host:     fmt.Sprintf("%s:%d", e.Host, e.Port),
		Path:     "/" + e.Database,
		RawQuery: "sslmode=" + url.QueryEscape(e.SSLMode),
	}
	return u.String()
}

// PolicyConfig holds classification settings shared by both endpoints.
type PolicyConfig struct {
	Classifier     string  `mapstructure:"classifier" validate:"oneof=llm rules"`
	BlockThreshold float32 `mapstructure:"block_threshold" validate:"gt=0,lte=1"`
	// DetectorTimeout bounds the rules classifier; a detector that misses it
	// makes the request unavailable.
	DetectorTimeout time.Duration  `mapstructure:"detector_timeout" validate:"gt=0"`
	Gatekeeper      EndpointConfig `mapstructure:"gatekeeper"`
	Audit           EndpointConfig `mapstructure:"audit"`
}

// EndpointConfig is the per-endpoint policy surface.
type EndpointConfig struct {
	OnEmptyContext  string `mapstructure:"on_empty_context" validate:"oneof=fallback pass block"`
	FallbackContext string `mapstructure:"fallback_context"`
	Refusal         string `mapstructure:"refusal" validate:"required"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", 8015)
	v.SetDefault("server.admin_token_hash", "")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.max_text_length", 32768)

	v.SetDefault("log.level", "info")

	v.SetDefault("llm.url", "http://localhost:11434")
	v.SetDefault("llm.chat_model", "llama3")
	v.SetDefault("llm.embedding_model", "nomic-embed-text")
	v.SetDefault("llm.timeout", "60s")

	v.SetDefault("rulestore.backend", "qdrant")
	v.SetDefault("rulestore.url", "http://localhost:6333")
	v.SetDefault("rulestore.grpc_port", 6334)
	v.SetDefault("rulestore.api_key", "")
	v.SetDefault("rulestore.dsn", "")
	v.SetDefault("rulestore.collection", "agent5_rules")
	v.SetDefault("rulestore.dimensions", 768)
	v.SetDefault("rulestore.top_k", 3)

	v.SetDefault("ingest.source_root", "resources")
	v.SetDefault("ingest.chunk_size", 1000)
	v.SetDefault("ingest.chunk_overlap", 100)
	v.SetDefault("ingest.embed_batch_size", 64)
	v.SetDefault("ingest.watch", false)
	v.SetDefault("ingest.debounce", "2s")

	v.SetDefault("events.backend", "log")
	v.SetDefault("events.host", "localhost")
	v.SetDefault("events.port", 5432)
	v.SetDefault("events.database", "rulewall")
	v.SetDefault("events.user", "postgres")
	v.SetDefault("events.password", "")
	v.SetDefault("events.sslmode", "disable")
	v.SetDefault("events.sqlite_path", "")
	v.SetDefault("events.clickhouse_dsn", "")

	v.SetDefault("policy.classifier", "llm")
	v.SetDefault("policy.block_threshold", 0.8)
	v.SetDefault("policy.detector_timeout", "2s")
	v.SetDefault("policy.gatekeeper.on_empty_context", "fallback")
	v.SetDefault("policy.gatekeeper.fallback_context", DefaultGatekeeperFallback)
	v.SetDefault("policy.gatekeeper.refusal", DefaultGatekeeperRefusal)
	v.SetDefault("policy.audit.on_empty_context", "pass")
	v.SetDefault("policy.audit.fallback_context", "")
	v.SetDefault("policy.audit.refusal", DefaultAuditRefusal)
}

const (
	DefaultGatekeeperFallback = engine.DefaultGatekeeperFallback
	DefaultGatekeeperRefusal  = engine.DefaultGatekeeperRefusal
	DefaultAuditRefusal       = engine.DefaultAuditRefusal
)

// Load reads configuration from the optional YAML file at path, then applies
// RULEWALL_* environment overrides, then validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unprefixed names kept for compatibility with existing deployments.
	if err := v.BindEnv("llm.url", EnvPrefix+"_LLM_URL", "OLLAMA_URL"); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	if err := v.BindEnv("rulestore.url", EnvPrefix+"_RULESTORE_URL", "QDRANT_URL"); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("Load: failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("Load: failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks struct tags and reports every violation in one error.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validation error: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed '%s' (value: %v)", e.Namespace(), e.Tag(), e.Value()))
	}
	return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
