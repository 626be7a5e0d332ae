package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Renderer serializes a Document to bytes.
type Renderer interface {
	Render(doc Document) ([]byte, error)
}

// TextRenderer renders a Document in its human-readable form.
type TextRenderer struct{}

func (r *TextRenderer) Render(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	doc.WriteText(&buf)
	return buf.Bytes(), nil
}

// JSONRenderer renders a Document as indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// YAMLRenderer renders a Document as YAML.
type YAMLRenderer struct{}

func (r *YAMLRenderer) Render(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RendererFor returns the renderer for format ("text", "json" or "yaml").
// An empty format means text.
func RendererFor(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return &TextRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "yaml", "yml":
		return &YAMLRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown format %q (want text, json or yaml)", format)
}
