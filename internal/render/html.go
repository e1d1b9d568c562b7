package render

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/jwyang/deckgen/internal/deck"
)

// HTMLRenderer writes a deck as one standalone HTML file, mainly for local
// preview without the generation API.
type HTMLRenderer struct {
	md goldmark.Markdown
}

func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		md: goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
}

// RenderDeck writes the deck to outputPath and returns the path written,
// numbered to avoid clobbering an existing file.
func (r *HTMLRenderer) RenderDeck(d *deck.Deck, outputPath string) (string, error) {
	outPath := avoidCollision(outputPath)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	var b strings.Builder
	title := strings.TrimSpace(d.Title)
	if title == "" {
		title = "발표자료"
	}
	b.WriteString("<!DOCTYPE html>\n<html lang=\"ko\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	b.WriteString("<style>\n" + deckCSS + "</style>\n</head>\n<body>\n")
	fmt.Fprintf(&b, "<h1 class=\"deck-title\">%s</h1>\n", html.EscapeString(title))

	for _, s := range d.Slides {
		r.writeSlide(&b, s, len(d.Slides))
	}

	b.WriteString("</body>\n</html>\n")
	if err := os.WriteFile(outPath, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write html: %w", err)
	}
	return outPath, nil
}

func (r *HTMLRenderer) writeSlide(b *strings.Builder, s *deck.Slide, total int) {
	fmt.Fprintf(b, "<section class=\"slide slide-%s\" data-order=\"%d\">\n",
		html.EscapeString(s.Layout), s.Order)
	fmt.Fprintf(b, "<div class=\"slide-meta\">%d / %d · %s</div>\n",
		s.Order, total, html.EscapeString(s.Section.String()))
	fmt.Fprintf(b, "<h2>%s</h2>\n", html.EscapeString(s.Title))

	if km := strings.TrimSpace(s.KeyMessage); km != "" {
		fmt.Fprintf(b, "<p class=\"key-message\">%s</p>\n", html.EscapeString(km))
	}

	if len(s.Bullets) > 0 {
		b.WriteString("<ul>\n")
		for _, bl := range s.Bullets {
			fmt.Fprintf(b, "<li>%s</li>\n", html.EscapeString(bl))
		}
		b.WriteString("</ul>\n")
	}

	if t := strings.TrimSpace(s.TableMD); t != "" {
		b.WriteString("<div class=\"table-block\">\n")
		b.WriteString(r.markdown(t))
		b.WriteString("</div>\n")
	}
	for _, spec := range []struct{ class, text string }{
		{"diagram-spec", s.DiagramSpec},
		{"chart-spec", s.ChartSpec},
	} {
		if t := strings.TrimSpace(spec.text); t != "" {
			fmt.Fprintf(b, "<p class=\"%s\">%s</p>\n", spec.class, html.EscapeString(t))
		}
	}

	// One slot per fixed image target; the post-processor fills ImagePath.
	if s.ImagePromptTag != "" {
		if s.ImagePath != "" {
			fmt.Fprintf(b, "<figure class=\"image-slot\"><img src=\"%s\" alt=\"%s\"></figure>\n",
				html.EscapeString(s.ImagePath), html.EscapeString(s.ImageBrief))
		} else {
			fmt.Fprintf(b, "<figure class=\"image-slot\" data-tag=\"%s\"></figure>\n",
				html.EscapeString(s.ImagePromptTag))
		}
	}

	if len(s.Evidence) > 0 {
		b.WriteString("<footer class=\"evidence\">\n<ol>\n")
		for _, ev := range s.Evidence {
			fmt.Fprintf(b, "<li>(%s) %s</li>\n", html.EscapeString(ev.Type), html.EscapeString(ev.Text))
		}
		b.WriteString("</ol>\n</footer>\n")
	}
	b.WriteString("</section>\n")
}

func (r *HTMLRenderer) markdown(src string) string {
	var out bytes.Buffer
	if err := r.md.Convert([]byte(src), &out); err != nil {
		return "<pre>" + html.EscapeString(src) + "</pre>"
	}
	return out.String()
}

const deckCSS = `body { font-family: 'Pretendard', 'Malgun Gothic', sans-serif; background: #f4f5f7; margin: 0; padding: 2rem; }
.deck-title { text-align: center; color: #1b3a6b; }
.slide { background: #fff; border-radius: 8px; box-shadow: 0 1px 4px rgba(0,0,0,.12); max-width: 960px; margin: 1.5rem auto; padding: 1.5rem 2rem; aspect-ratio: 16 / 9; overflow: auto; }
.slide-meta { color: #8a93a0; font-size: .8rem; }
.slide h2 { color: #1b3a6b; margin: .3rem 0 .6rem; }
.key-message { background: #eef3fb; border-left: 4px solid #2f6fd6; padding: .5rem .8rem; font-weight: 600; }
.table-block table { border-collapse: collapse; width: 100%; }
.table-block th { background: #2f6fd6; color: #fff; }
.table-block th, .table-block td { border: 1px solid #d4dae3; padding: .4rem .6rem; font-size: .9rem; }
.table-block tr:nth-child(even) td { background: #f4f7fc; }
.diagram-spec, .chart-spec { color: #555; font-style: normal; border: 1px dashed #b9c2cf; padding: .5rem .8rem; }
.image-slot { border: 1px solid #d4dae3; border-radius: 6px; min-height: 180px; display: flex; align-items: center; justify-content: center; margin: .8rem 0; }
.image-slot img { max-width: 100%; max-height: 320px; }
.evidence { color: #8a93a0; font-size: .75rem; margin-top: .8rem; }
`
