package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
)

// DocType is the declared type of a source document.
type DocType string

const (
	DocText       DocType = "text"
	DocPDF        DocType = "pdf"
	DocWord       DocType = "docx"
	DocStructured DocType = "structured"
)

// Document is a unit of loaded text. One file yields one or more Documents
// (PDF pages, structured-data elements).
type Document struct {
	Source  string // path relative to the ingestion root, slash separated
	Type    DocType
	Content string
	Meta    map[string]any
}

// Loader reads the file at path into Documents. Source is filled in by the pipeline.
type Loader func(ctx context.Context, path string) ([]Document, error)

// ErrInvalidEncoding is returned for text files that are not valid UTF-8.
var ErrInvalidEncoding = errors.New("ingest: file is not valid UTF-8")

// DefaultLoaders maps lowercase file extensions to loaders.
func DefaultLoaders() map[string]Loader {
	return map[string]Loader{
		".txt":  LoadText,
		".md":   LoadText,
		".pdf":  LoadPDF,
		".docx": LoadDocx,
		".json": LoadJSON,
		".yaml": LoadYAML,
		".yml":  LoadYAML,
	}
}

func loaderFor(loaders map[string]Loader, path string) (Loader, bool) {
	l, ok := loaders[strings.ToLower(filepath.Ext(path))]
	return l, ok
}

// LoadText reads a UTF-8 text file as a single Document.
func LoadText(ctx context.Context, path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	docs, err := documentloaders.NewText(f).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("LoadText: %w", err)
	}
	out := fromSchema(docs, DocText)
	for _, d := range out {
		if !utf8.ValidString(d.Content) {
			return nil, ErrInvalidEncoding
		}
	}
	return out, nil
}

// LoadPDF extracts text page by page; empty pages are dropped.
func LoadPDF(ctx context.Context, path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	docs, err := documentloaders.NewPDF(f, info.Size()).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("LoadPDF: %w", err)
	}
	return fromSchema(docs, DocPDF), nil
}

func fromSchema(docs []schema.Document, typ DocType) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if strings.TrimSpace(d.PageContent) == "" {
			continue
		}
		out = append(out, Document{
			Type:    typ,
			Content: d.PageContent,
			Meta:    d.Metadata,
		})
	}
	return out
}
