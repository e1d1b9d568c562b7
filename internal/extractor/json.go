package extractor

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// JSONExtractor handles pre-extracted documents. Two shapes are accepted: a
// top-level array of page objects with a "texts" list, and a top-level object
// with typed "blocks" where image blocks become [IMAGE: …] markers.
type JSONExtractor struct{}

type jsonPage struct {
	Texts []string `json:"texts"`
}

type jsonBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type jsonDocument struct {
	Blocks []jsonBlock `json:"blocks"`
}

func (p *JSONExtractor) Extract(r io.Reader, filename string) (string, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read json: %w", err)
	}
	trimmed := strings.TrimSpace(string(src))
	if trimmed == "" {
		return "", ErrEmptyDocument
	}

	if strings.HasPrefix(trimmed, "[") {
		var pages []jsonPage
		if err := json.Unmarshal(src, &pages); err != nil {
			return "", fmt.Errorf("decode json pages: %w", err)
		}
		var out []string
		for _, page := range pages {
			for _, t := range page.Texts {
				if t = strings.TrimSpace(t); t != "" {
					out = append(out, t)
				}
			}
		}
		return strings.Join(out, "\n"), nil
	}

	var doc jsonDocument
	if err := json.Unmarshal(src, &doc); err != nil {
		return "", fmt.Errorf("decode json document: %w", err)
	}
	var out []string
	for _, b := range doc.Blocks {
		text := strings.TrimSpace(b.Text)
		if text == "" {
			continue
		}
		if strings.EqualFold(b.Type, "image") {
			out = append(out, "[IMAGE: "+text+"]")
		} else {
			out = append(out, text)
		}
	}
	return strings.Join(out, "\n"), nil
}
