package ingest

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoDocumentBody is returned for a .docx archive without word/document.xml.
var ErrNoDocumentBody = errors.New("ingest: docx has no word/document.xml")

// LoadDocx extracts the full text of a WordprocessingML document, one line per
// paragraph, including paragraphs nested in tables.
func LoadDocx(_ context.Context, path string) ([]Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("LoadDocx: %w", err)
	}
	defer func() { _ = zr.Close() }()

	for _, file := range zr.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("LoadDocx: %w", err)
		}
		text, err := docxText(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("LoadDocx: %w", err)
		}
		if strings.TrimSpace(text) == "" {
			return nil, nil
		}
		return []Document{{Type: DocWord, Content: text}}, nil
	}
	return nil, ErrNoDocumentBody
}

// docxText walks the XML token stream collecting w:t runs. w:tab and w:br
// become whitespace; each closing w:p ends a line.
func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}
