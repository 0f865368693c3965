// Package ingest turns a directory of policy documents into rule fragments
// and rebuilds the rule store from them.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/triage-ai/rulewall/internal/llm"
	"github.com/triage-ai/rulewall/internal/rulestore"
)

var tracer = otel.Tracer("github.com/triage-ai/rulewall/internal/ingest")

// fragmentNamespace seeds name-based fragment IDs.
var fragmentNamespace = uuid.MustParse("6f1c3a5e-8d2b-4c7e-9a41-2b5d0e7f9c13")

var (
	// ErrSourceNotFound is returned when the source root is missing or not a directory.
	ErrSourceNotFound = errors.New("ingest: source root not found")

	// ErrIngestInProgress is returned when another run holds the pipeline.
	ErrIngestInProgress = errors.New("ingest: run already in progress")
)

// Run statuses.
const (
	StatusSuccess = "success"
	StatusEmpty   = "empty"
)

// Result summarizes one ingestion run.
type Result struct {
	Status         string        `json:"status"`
	FragmentsAdded int           `json:"fragments_added"`
	Documents      int           `json:"documents"`
	Files          int           `json:"files"`
	Skipped        []SkippedFile `json:"skipped,omitempty"`
	Duration       time.Duration `json:"duration_ns"`
}

// SkippedFile records a file that failed to load.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Options tunes a Pipeline. Zero values fall back to the defaults.
type Options struct {
	ChunkSize    int
	ChunkOverlap int
	Loaders      map[string]Loader
}

// Pipeline loads, splits, embeds and indexes a document tree. Runs are
// serialized; a concurrent Run fails fast with ErrIngestInProgress.
type Pipeline struct {
	store    rulestore.Store
	embedder llm.Embedder
	splitter textsplitter.TextSplitter
	loaders  map[string]Loader
	logger   *zap.Logger

	mu sync.Mutex
}

// NewPipeline creates a pipeline writing to store.
func NewPipeline(store rulestore.Store, embedder llm.Embedder, opts Options, logger *zap.Logger) *Pipeline {
	loaders := opts.Loaders
	if loaders == nil {
		loaders = DefaultLoaders()
	}
	return &Pipeline{
		store:    store,
		embedder: embedder,
		splitter: NewSplitter(opts.ChunkSize, opts.ChunkOverlap),
		loaders:  loaders,
		logger:   logger,
	}
}

// Run replaces the rule index with the fragments found under root.
// When no fragments are produced the index is left untouched and the result
// status is StatusEmpty.
func (p *Pipeline) Run(ctx context.Context, root string) (*Result, error) {
	if !p.mu.TryLock() {
		return nil, ErrIngestInProgress
	}
	defer p.mu.Unlock()

	ctx, span := tracer.Start(ctx, "ingest.Run")
	defer span.End()
	span.SetAttributes(attribute.String("ingest.root", root))

	start := time.Now()
	res, err := p.run(ctx, root)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	res.Duration = time.Since(start)
	span.SetAttributes(
		attribute.String("ingest.status", res.Status),
		attribute.Int("ingest.fragments", res.FragmentsAdded),
		attribute.Int("ingest.skipped", len(res.Skipped)),
	)

	p.logger.Info("ingestion finished",
		zap.String("root", root),
		zap.String("status", res.Status),
		zap.Int("files", res.Files),
		zap.Int("documents", res.Documents),
		zap.Int("fragments", res.FragmentsAdded),
		zap.Int("skipped", len(res.Skipped)),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, root string) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, root)
	}

	// 1. Load
	res := &Result{}
	docs, err := p.load(ctx, root, res)
	if err != nil {
		return nil, err
	}
	res.Documents = len(docs)

	// 2. Split
	records, err := p.split(docs)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		res.Status = StatusEmpty
		return res, nil
	}

	// 3. Embed
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}
	vecs, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("Pipeline.Run: embed: %w", err)
	}
	if len(vecs) != len(records) {
		return nil, fmt.Errorf("Pipeline.Run: embedder returned %d vectors for %d fragments", len(vecs), len(records))
	}
	for i := range records {
		records[i].Vector = vecs[i]
	}

	// 4. Rebuild
	if err := p.store.Rebuild(ctx, records); err != nil {
		return nil, fmt.Errorf("Pipeline.Run: rebuild: %w", err)
	}

	res.Status = StatusSuccess
	res.FragmentsAdded = len(records)
	return res, nil
}

// load walks root in lexical order. Per-file failures are logged and recorded
// on res; only context cancellation aborts the walk.
func (p *Pipeline) load(ctx context.Context, root string, res *Result) ([]Document, error) {
	var docs []Document
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if walkErr != nil {
			if path == root {
				return walkErr
			}
			p.skip(res, rel, walkErr)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		loader, ok := loaderFor(p.loaders, path)
		if !ok {
			p.logger.Debug("unsupported file type, skipping", zap.String("path", rel))
			return nil
		}
		res.Files++

		loaded, err := loader(ctx, path)
		if err != nil {
			p.skip(res, rel, err)
			return nil
		}
		for i := range loaded {
			loaded[i].Source = rel
		}
		p.logger.Debug("loaded file",
			zap.String("path", rel),
			zap.Int("documents", len(loaded)),
		)
		docs = append(docs, loaded...)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrSourceNotFound, err)
	}
	return docs, nil
}

func (p *Pipeline) skip(res *Result, rel string, err error) {
	p.logger.Warn("failed to load file, skipping",
		zap.String("path", rel),
		zap.Error(err),
	)
	res.Skipped = append(res.Skipped, SkippedFile{Path: rel, Reason: err.Error()})
}

// split fragments every document. Record IDs are derived from the source
// path, the fragment's position and its text, so identical sources always
// produce identical records.
func (p *Pipeline) split(docs []Document) ([]rulestore.Record, error) {
	var records []rulestore.Record
	perSource := map[string]int{}
	for _, doc := range docs {
		chunks, err := p.splitter.SplitText(doc.Content)
		if err != nil {
			return nil, fmt.Errorf("Pipeline.Run: split %s: %w", doc.Source, err)
		}
		for _, c := range chunks {
			if strings.TrimSpace(c) == "" {
				continue
			}
			ordinal := perSource[doc.Source]
			perSource[doc.Source]++
			records = append(records, rulestore.Record{
				ID:     fragmentID(doc.Source, ordinal, c),
				Text:   c,
				Source: doc.Source,
			})
		}
	}
	return records, nil
}

func fragmentID(source string, ordinal int, text string) string {
	name := source + "\x00" + strconv.Itoa(ordinal) + "\x00" + text
	return uuid.NewSHA1(fragmentNamespace, []byte(name)).String()
}
