package gateway

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Shape names a JSON schema that structured replies must satisfy. The
// schema is compiled once, on first use, and reused across calls.
type Shape struct {
	Name   string
	Schema map[string]any

	once       sync.Once
	compiled   *jsonschema.Schema
	compileErr error
}

func (s *Shape) compile() (*jsonschema.Schema, error) {
	s.once.Do(func() {
		b, err := json.Marshal(s.Schema)
		if err != nil {
			s.compileErr = eris.Wrapf(err, "gateway: marshal schema %s", s.Name)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(s.Name+".json", bytes.NewReader(b)); err != nil {
			s.compileErr = eris.Wrapf(err, "gateway: add schema %s", s.Name)
			return
		}
		s.compiled, s.compileErr = compiler.Compile(s.Name + ".json")
	})
	return s.compiled, s.compileErr
}

// Decode cleans the raw model output, decodes it as a JSON object, and
// validates it against the shape's schema.
func (s *Shape) Decode(raw string) (map[string]any, error) {
	schema, err := s.compile()
	if err != nil {
		return nil, err
	}

	cleaned := cleanJSON(raw)
	var v map[string]any
	if err := json.Unmarshal([]byte(cleaned), &v); err != nil {
		return nil, eris.Wrapf(err, "gateway: decode %s reply", s.Name)
	}
	if err := schema.Validate(v); err != nil {
		return nil, eris.Wrapf(err, "gateway: %s reply does not match schema", s.Name)
	}
	return v, nil
}

// cleanJSON strips markdown fences and extracts the JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
