package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as database/sql driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/triage-ai/rulewall/internal/config"
	"github.com/triage-ai/rulewall/internal/engine"
	"github.com/triage-ai/rulewall/internal/engine/detectors"
	"github.com/triage-ai/rulewall/internal/ingest"
	"github.com/triage-ai/rulewall/internal/llm"
	"github.com/triage-ai/rulewall/internal/rulestore"
	"github.com/triage-ai/rulewall/internal/storage"
)

// app is everything the commands need, built once from config.
type app struct {
	cfg      *config.Config
	store    rulestore.Store
	embedder llm.Embedder
	pipeline *ingest.Pipeline
	enforcer *engine.Enforcer
	events   storage.EventWriter
	logger   *zap.Logger

	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// buildApp constructs the rule store, models and pipeline. The enforcer and
// event writer are only built when withEnforcer is set.
func buildApp(ctx context.Context, cfg *config.Config, withEnforcer bool, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	store, err := buildRuleStore(cfg.RuleStore, logger)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, store.Close)

	ollamaCfg := ollamaConfigFor(cfg)
	emb, err := llm.NewOllamaEmbedder(ollamaCfg)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("buildApp: %w", err)
	}
	a.embedder = emb

	a.pipeline = ingest.NewPipeline(store, emb, ingest.Options{
		ChunkSize:    cfg.Ingest.ChunkSize,
		ChunkOverlap: cfg.Ingest.ChunkOverlap,
	}, logger)

	if !withEnforcer {
		return a, nil
	}

	classifier, anonymizer, err := buildClassifier(cfg, ollamaCfg, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.events = buildEventWriter(ctx, cfg.Events, logger)
	a.closers = append(a.closers, a.events.Close)

	gk, audit := buildPolicies(cfg.Policy)
	a.enforcer, err = engine.NewEnforcer(
		anonymizer,
		engine.NewRetriever(emb, store, cfg.RuleStore.TopK),
		classifier,
		a.events,
		engine.Options{Gatekeeper: gk, Audit: audit},
		logger,
	)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("buildApp: %w", err)
	}
	return a, nil
}

func ollamaConfigFor(cfg *config.Config) llm.OllamaConfig {
	return llm.OllamaConfig{
		ServerURL:      cfg.LLM.URL,
		ChatModel:      cfg.LLM.ChatModel,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		Timeout:        cfg.LLM.Timeout,
		BatchSize:      cfg.Ingest.EmbedBatchSize,
	}
}

func buildRuleStore(cfg config.RuleStoreConfig, logger *zap.Logger) (rulestore.Store, error) {
	switch cfg.Backend {
	case "qdrant":
		s, err := rulestore.NewQdrantStore(rulestore.QdrantConfig{
			URL:        cfg.URL,
			GRPCPort:   cfg.GRPCPort,
			APIKey:     cfg.APIKey,
			Collection: cfg.Collection,
			Dimensions: cfg.Dimensions,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("buildRuleStore: %w", err)
		}
		return s, nil
	case "pgvector":
		db, err := sql.Open("pgx", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("buildRuleStore: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		return &closingStore{Store: rulestore.NewPGVectorStore(db, cfg.Collection, cfg.Dimensions), db: db}, nil
	case "memory":
		logger.Warn("using in-memory rule store; the index is lost on restart")
		return rulestore.NewMemoryStore(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("buildRuleStore: unknown backend %q", cfg.Backend)
	}
}

// closingStore releases the database handle the pgvector store borrows.
type closingStore struct {
	rulestore.Store
	db *sql.DB
}

func (s *closingStore) Close() error {
	return errors.Join(s.Store.Close(), s.db.Close())
}

func buildClassifier(cfg *config.Config, ollamaCfg llm.OllamaConfig, logger *zap.Logger) (engine.Classifier, engine.Anonymizer, error) {
	switch cfg.Policy.Classifier {
	case "rules":
		c := engine.NewPatternClassifier(map[engine.Endpoint][]engine.Detector{
			engine.EndpointGatekeeper: detectors.Gatekeeper(),
			engine.EndpointAudit:      detectors.Audit(),
		}, cfg.Policy.DetectorTimeout, engine.AggregatorConfig{BlockThreshold: cfg.Policy.BlockThreshold}, logger)
		logger.Info("rules classifier enabled",
			zap.Float32("block_threshold", cfg.Policy.BlockThreshold),
			zap.Duration("detector_timeout", cfg.Policy.DetectorTimeout),
		)
		return c, detectors.NewPatternAnonymizer(), nil
	case "llm", "":
		gen, err := llm.NewOllamaGenerator(ollamaCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("buildClassifier: %w", err)
		}
		return engine.NewLLMClassifier(gen, logger), engine.NewLLMAnonymizer(gen), nil
	default:
		return nil, nil, fmt.Errorf("buildClassifier: unknown classifier %q", cfg.Policy.Classifier)
	}
}

func buildPolicies(cfg config.PolicyConfig) (engine.EndpointPolicy, engine.EndpointPolicy) {
	gk := engine.DefaultGatekeeperPolicy()
	applyEndpointConfig(&gk, cfg.Gatekeeper)
	audit := engine.DefaultAuditPolicy()
	applyEndpointConfig(&audit, cfg.Audit)
	return gk, audit
}

func applyEndpointConfig(p *engine.EndpointPolicy, c config.EndpointConfig) {
	if c.OnEmptyContext != "" {
		p.OnEmptyContext = engine.EmptyContext(c.OnEmptyContext)
	}
	if c.FallbackContext != "" {
		p.FallbackContext = c.FallbackContext
	}
	if c.Refusal != "" {
		p.Refusal = c.Refusal
	}
}

// buildEventWriter never fails: an unreachable event store degrades to the
// log writer so enforcement keeps running.
func buildEventWriter(ctx context.Context, cfg config.EventsConfig, logger *zap.Logger) storage.EventWriter {
	w, err := openEventWriter(ctx, cfg, logger)
	if err != nil {
		logger.Warn("event store unavailable, falling back to log writer",
			zap.String("backend", cfg.Backend),
			zap.Error(err),
		)
		return storage.NewLogWriter(logger)
	}
	logger.Info("event writer ready", zap.String("backend", cfg.Backend))
	return w
}

func openEventWriter(ctx context.Context, cfg config.EventsConfig, logger *zap.Logger) (storage.EventWriter, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch cfg.Backend {
	case "postgres":
		return openSQLWriter(ctx, "pgx", cfg.PostgresDSN(), storage.DialectPostgres)
	case "sqlite":
		return openSQLWriter(ctx, "sqlite", cfg.SQLitePath, storage.DialectSQLite)
	case "clickhouse":
		return storage.NewClickHouseWriter(ctx, cfg.ClickHouseDSN, logger)
	case "log", "":
		return storage.NewLogWriter(logger), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

func openSQLWriter(ctx context.Context, driver, dsn string, dialect storage.Dialect) (*storage.SQLWriter, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	w := storage.NewSQLWriter(db, dialect)
	if err := w.EnsureSchema(ctx); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}
