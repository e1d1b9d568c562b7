package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jwyang/deckgen/internal/deck"
	"github.com/jwyang/deckgen/internal/gemini"
	"github.com/jwyang/deckgen/internal/krtext"
)

const rewritePrompt = `Rewrite slide text to presentation keywords only.
Rules:
- No sentence endings.
- No formal endings like 합니다/입니다/됩니다/있습니다.
- KEY_MESSAGE must be exactly 3 keyword phrases.
- BULLETS must be short noun phrases.
- EVIDENCE text must be short noun phrases.
Return JSON only with keys: title, key_message_keywords, bullets, evidence.`

// rewriteFormalLines asks the model once to convert sentence-style slide
// text into memo phrases, updating the slide in place on success.
func (g *Generator) rewriteFormalLines(ctx context.Context, s *deck.Slide) error {
	payload, err := json.Marshal(map[string]any{
		"title":       s.Title,
		"key_message": s.KeyMessage,
		"bullets":     s.Bullets,
		"evidence":    s.Evidence,
	})
	if err != nil {
		return fmt.Errorf("marshal slide: %w", err)
	}

	raw, err := g.client.GenerateText(ctx, g.cfg.Model, gemini.GenConfig{
		Temperature:     0.2,
		MaxOutputTokens: 1024,
		JSONResponse:    true,
		MaxRetries:      1,
	}, rewritePrompt, string(payload))
	if err != nil {
		return err
	}

	var obj struct {
		Title              string          `json:"title"`
		KeyMessageKeywords []string        `json:"key_message_keywords"`
		Bullets            []string        `json:"bullets"`
		Evidence           []deck.Evidence `json:"evidence"`
	}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return fmt.Errorf("decode rewrite: %w", err)
	}

	if t := krtext.MemoPhrase(obj.Title); t != "" {
		s.Title = t
	}

	var km []string
	for _, k := range obj.KeyMessageKeywords {
		if p := krtext.MemoPhrase(k); p != "" {
			km = append(km, p)
		}
	}
	s.KeyMessage = krtext.KeyMessage(strings.Join(km, ", "), s.Title, s.Bullets)

	if len(obj.Bullets) > 0 {
		var bullets []string
		for _, b := range obj.Bullets {
			if p := krtext.MemoPhrase(b); p != "" && !krtext.ContainsFormalLine(p) {
				bullets = append(bullets, p)
			}
		}
		s.Bullets = bullets
	}

	if len(obj.Evidence) > 0 {
		var evidence []deck.Evidence
		for _, ev := range obj.Evidence {
			t := krtext.MemoPhrase(ev.Text)
			if t == "" || krtext.ContainsFormalLine(t) {
				continue
			}
			typ := strings.TrimSpace(ev.Type)
			if typ == "" {
				typ = "근거"
			}
			evidence = append(evidence, deck.Evidence{Type: typ, Text: t})
		}
		s.Evidence = evidence
	}
	return nil
}
