package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// maxBodyBytes caps request bodies before schema validation.
const maxBodyBytes = 1 << 20

// textSchema validates the {text} request body shared by the enforcement
// endpoints.
type textSchema struct {
	schema *jsonschema.Schema
}

func newTextSchema(maxLength int) (*textSchema, error) {
	doc := map[string]any{
		"type":     "object",
		"required": []any{"text"},
		"properties": map[string]any{
			"text": map[string]any{
				"type":      "string",
				"minLength": 1,
				"maxLength": maxLength,
			},
		},
	}
	// Round-trip so the compiler sees plain JSON values.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("newTextSchema: %w", err)
	}
	schemaObj, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("newTextSchema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("text_request.json", schemaObj); err != nil {
		return nil, fmt.Errorf("newTextSchema: %w", err)
	}
	sch, err := c.Compile("text_request.json")
	if err != nil {
		return nil, fmt.Errorf("newTextSchema: %w", err)
	}
	return &textSchema{schema: sch}, nil
}

var errBodyTooLarge = errors.New("request body too large")

// decode reads r's body, validates it and unmarshals it into a TextRequest.
func (s *textSchema) decode(r *http.Request) (*TextRequest, error) {
	defer func() { _ = r.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, errBodyTooLarge
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := s.schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	var req TextRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	return &req, nil
}
