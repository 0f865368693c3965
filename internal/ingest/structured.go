package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadJSON yields one Document per element of a top-level array, or a single
// Document for any other value. Each is re-serialized as indented JSON.
func LoadJSON(_ context.Context, path string) ([]Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("LoadJSON: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("LoadJSON: trailing data after top-level value")
	}
	return structuredDocs([]any{v})
}

// LoadYAML applies the JSON element rule to every document in a YAML stream.
func LoadYAML(_ context.Context, path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	dec := yaml.NewDecoder(f)
	var values []any
	for {
		var v any
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("LoadYAML: %w", err)
		}
		if v == nil {
			continue
		}
		values = append(values, normalizeYAML(v))
	}
	return structuredDocs(values)
}

func structuredDocs(values []any) ([]Document, error) {
	var docs []Document
	for _, v := range values {
		elems, isList := v.([]any)
		if !isList {
			elems = []any{v}
		}
		for i, e := range elems {
			text, err := canonicalJSON(e)
			if err != nil {
				return nil, err
			}
			meta := map[string]any{}
			if isList {
				meta["element"] = i
			}
			docs = append(docs, Document{Type: DocStructured, Content: text, Meta: meta})
		}
	}
	return docs, nil
}

// canonicalJSON renders v with two-space indentation, sorted object keys and
// non-ASCII text kept verbatim.
func canonicalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("canonicalJSON: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// normalizeYAML converts map[any]any (non-string keys) into map[string]any so
// the value can be encoded as JSON.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return m
	case []any:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	default:
		return v
	}
}
