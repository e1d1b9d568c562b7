// Package generate turns per-section source text into slide candidates by
// prompting the generation model section by section and repairing its output
// into memo-style presentation text.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/jwyang/deckgen/internal/deck"
	"github.com/jwyang/deckgen/internal/gemini"
	"github.com/jwyang/deckgen/internal/krtext"
	"github.com/jwyang/deckgen/internal/section"
	"github.com/jwyang/deckgen/internal/slidetext"
)

// ErrNoSections is returned when no section yields a single slide.
var ErrNoSections = errors.New("generate: no section produced slides")

// Defaults for chunking and model calls.
const (
	DefaultChunkChars        = 6000
	DefaultMaxChunks         = 3
	DefaultContentChunkChars = 2400
	DefaultContentMaxChunks  = 4
	DefaultMaxOutputTokens   = 8192
	DefaultTemperature       = 0.4
)

// Banned meta phrases the model tends to emit about its own output.
var bannedPhrases = []string{"본 슬라이드", "추후 보완", "제공되지 않아", "원문 근거 부족"}

var dedupeKeyRE = regexp.MustCompile(`\s+`)

// Config tunes one Generator.
type Config struct {
	Model             string
	MaxOutputTokens   int32
	Temperature       float32
	MaxRetries        int
	ChunkChars        int
	MaxChunks         int
	ContentChunkChars int
	ContentMaxChunks  int
	// RewriteFormalLines enables the extra LLM pass that converts
	// sentence-style slide text to memo style.
	RewriteFormalLines bool
}

func (c *Config) fill() {
	if c.MaxOutputTokens == 0 {
		c.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.ChunkChars == 0 {
		c.ChunkChars = DefaultChunkChars
	}
	if c.MaxChunks == 0 {
		c.MaxChunks = DefaultMaxChunks
	}
	if c.ContentChunkChars == 0 {
		c.ContentChunkChars = DefaultContentChunkChars
	}
	if c.ContentMaxChunks == 0 {
		c.ContentMaxChunks = DefaultContentMaxChunks
	}
}

// TextGenerator is the model call the generator depends on; satisfied by
// *gemini.Client.
type TextGenerator interface {
	GenerateText(ctx context.Context, model string, cfg gemini.GenConfig, prompts ...string) (string, error)
}

// Generator drives the per-section generation calls.
type Generator struct {
	client TextGenerator
	cfg    Config
	log    *slog.Logger
}

// Result carries the per-section slides plus the deck title the model
// reported, if any.
type Result struct {
	DeckTitle string
	Sections  map[section.Label][]*deck.Slide
}

func New(client TextGenerator, cfg Config, log *slog.Logger) *Generator {
	cfg.fill()
	if log == nil {
		log = slog.Default()
	}
	return &Generator{client: client, cfg: cfg, log: log}
}

// Generate produces slide candidates for every non-empty section chunk. The
// org-intro section gets a fixed placeholder without a model call; sections
// whose chunks all fail to parse are skipped for the merger to backfill.
func (g *Generator) Generate(ctx context.Context, chunks map[section.Label]string) (*Result, error) {
	res := &Result{Sections: make(map[section.Label][]*deck.Slide)}
	orderCursor := 1

	for _, label := range section.CanonicalOrder {
		if label == section.OrgIntro {
			res.Sections[label] = []*deck.Slide{orgPlaceholderSlide(orderCursor)}
			orderCursor++
			continue
		}

		text := strings.TrimSpace(chunks[label])
		maxChars, maxChunks := g.cfg.ChunkChars, g.cfg.MaxChunks
		if label == section.Content {
			maxChars, maxChunks = g.cfg.ContentChunkChars, g.cfg.ContentMaxChunks
		}
		parts := splitForLLM(text, maxChars, maxChunks)
		if len(parts) == 0 {
			continue
		}

		prompt := basePrompt + "\n\n" + commonRules
		if extra := sectionRules(label); extra != "" {
			prompt += "\n\n" + extra
		}
		g.log.Debug("generating section", "section", label.String(), "chunks", len(parts), "source_len", len(text))

		var slides []*deck.Slide
		for i, chunk := range parts {
			input := fmt.Sprintf("[섹션: %s] [분할 %d/%d]\n%s", label, i+1, len(parts), chunk)
			raw, err := g.client.GenerateText(ctx, g.cfg.Model, gemini.GenConfig{
				Temperature:     g.cfg.Temperature,
				MaxOutputTokens: g.cfg.MaxOutputTokens,
				MaxRetries:      g.cfg.MaxRetries,
			}, prompt, input)
			if err != nil {
				if errors.Is(err, gemini.ErrQuotaExhausted) || errors.Is(err, context.Canceled) {
					return nil, err
				}
				g.log.Warn("section chunk generation failed", "section", label.String(), "chunk", i+1, "error", err)
				continue
			}

			if res.DeckTitle == "" {
				res.DeckTitle = slidetext.ParseDeckTitle(raw)
			}

			parsed := slidetext.ParseSlides(raw, label, orderCursor+len(slides))
			parsed = g.repair(ctx, parsed)
			if len(parsed) == 0 {
				parsed = g.repair(ctx, slidetext.FallbackSlides(raw, label, orderCursor+len(slides)))
			}
			slides = append(slides, parsed...)
		}

		slides = dedupeByTitle(slides)
		if len(slides) == 0 {
			continue
		}
		for i, s := range slides {
			s.Order = orderCursor + i
		}
		orderCursor += len(slides)
		res.Sections[label] = slides
	}

	produced := 0
	for label, ss := range res.Sections {
		if label == section.OrgIntro {
			continue
		}
		produced += len(ss)
	}
	if produced == 0 {
		return nil, ErrNoSections
	}
	return res, nil
}

// repair cleans generated slides into memo style: strips banned meta
// phrases and formal endings, reformats the key message, and drops slides
// that end up below three bullets.
func (g *Generator) repair(ctx context.Context, slides []*deck.Slide) []*deck.Slide {
	var out []*deck.Slide
	for _, s := range slides {
		s.ImageNeeded = false
		s.ImageType = "none"
		s.ImageBrief = ""

		if g.cfg.RewriteFormalLines && g.client != nil && slideHasFormalLines(s) {
			if err := g.rewriteFormalLines(ctx, s); err != nil {
				g.log.Debug("formal line rewrite skipped", "title", s.Title, "error", err)
			}
		}

		if containsBanned(s.KeyMessage) {
			s.KeyMessage = ""
		}
		s.Title = krtext.MemoPhrase(s.Title)
		if krtext.ContainsFormalLine(s.Title) {
			s.Title = ""
		}

		var bullets []string
		for _, b := range s.Bullets {
			bt := strings.TrimSpace(b)
			if bt == "" || containsBanned(bt) {
				continue
			}
			bp := krtext.MemoPhrase(bt)
			if bp != "" && !krtext.ContainsFormalLine(bp) {
				bullets = append(bullets, bp)
			}
		}
		s.Bullets = bullets

		s.KeyMessage = krtext.KeyMessage(s.KeyMessage, s.Title, s.Bullets)
		if krtext.ContainsFormalLine(s.KeyMessage) {
			s.KeyMessage = krtext.KeyMessage("", s.Title, s.Bullets)
		}

		var evidence []deck.Evidence
		for _, ev := range s.Evidence {
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

		for _, spec := range []*string{&s.TableMD, &s.DiagramSpec, &s.ChartSpec} {
			v := strings.TrimSpace(*spec)
			if strings.Contains(v, "미기재") || strings.Contains(v, "원문") {
				*spec = ""
			}
		}

		if len(s.Bullets) < 3 {
			continue
		}
		out = append(out, s)
	}
	return out
}

func slideHasFormalLines(s *deck.Slide) bool {
	if krtext.ContainsFormalLine(s.Title) || krtext.ContainsFormalLine(s.KeyMessage) {
		return true
	}
	for _, b := range s.Bullets {
		if krtext.ContainsFormalLine(b) {
			return true
		}
	}
	for _, ev := range s.Evidence {
		if krtext.ContainsFormalLine(ev.Text) {
			return true
		}
	}
	return false
}

func containsBanned(s string) bool {
	for _, b := range bannedPhrases {
		if strings.Contains(s, b) {
			return true
		}
	}
	return false
}

func dedupeByTitle(slides []*deck.Slide) []*deck.Slide {
	seen := make(map[string]bool)
	var out []*deck.Slide
	for _, s := range slides {
		key := dedupeKeyRE.ReplaceAllString(strings.ToLower(s.Title), "")
		if key != "" {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return slides
	}
	return out
}

// orgPlaceholderSlide is the fixed org-intro slide emitted without a model
// call; the merger rewrites it with evidence-backed content.
func orgPlaceholderSlide(order int) *deck.Slide {
	return &deck.Slide{
		Order:      order,
		Section:    section.OrgIntro,
		Title:      "기관 소개 및 수행역량",
		KeyMessage: "기관 정보 연동 대기",
		Bullets:    []string{"주관/참여기관 정보 연동 대기", "기관 핵심역량 및 수행실적 연동 대기"},
		ImageType:  "none",
		TableMD: "| 항목 | 내용 |\n|---|---|\n" +
			"| 기관 소개 | 기관 정보 연동 대기 |\n" +
			"| 수행역량 | DB 연동 후 자동 반영 |\n",
	}
}
