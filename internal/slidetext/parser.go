// Package slidetext parses the delimited SLIDE…ENDSLIDE text format the
// generation model emits into slide structures, with a lenient fallback for
// responses that miss the strict format.
package slidetext

import (
	"regexp"
	"strings"

	"github.com/jwyang/deckgen/internal/deck"
	"github.com/jwyang/deckgen/internal/krtext"
	"github.com/jwyang/deckgen/internal/section"
)

var (
	deckTitleRE = regexp.MustCompile(`(?m)^DECK_TITLE:\s*(.+)$`)
	slideRE     = regexp.MustCompile(`(?s)\bSLIDE\b(.*?)\bENDSLIDE\b`)
	bulletsRE   = regexp.MustCompile(`(?s)\bBULLETS\s*:\s*(.*?)(?:\n[A-Z_]+\s*:|$)`)
	evidenceRE  = regexp.MustCompile(`(?s)\bEVIDENCE\s*:\s*(.*?)(?:\n[A-Z_]+\s*:|$)`)
)

var dropTitleMarkers = []string{"CHAPTER", "PART", "SECTION"}

// ParseDeckTitle extracts the DECK_TITLE line, or "" when absent.
func ParseDeckTitle(raw string) string {
	if m := deckTitleRE.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// ParseSlides extracts every SLIDE…ENDSLIDE block. Blocks with chapter or
// part divider titles and blocks with fewer than three bullets are dropped;
// image generation flags are always forced off, visuals come from the
// structured specs and the fixed-target pass.
func ParseSlides(raw string, defaultSection section.Label, startOrder int) []*deck.Slide {
	var slides []*deck.Slide
	order := startOrder

	for _, m := range slideRE.FindAllStringSubmatch(raw, -1) {
		block := strings.TrimSpace(m[1])

		secName := grabField(block, "SECTION")
		title := grabField(block, "TITLE")
		keyMessage := grabField(block, "KEY_MESSAGE")

		label := defaultSection
		if secName != "" {
			if parsed, ok := section.ParseLabel(secName); ok {
				label = parsed
			}
		}

		if hasDividerMarker(title) || hasDividerMarker(secName) {
			continue
		}

		var bullets []string
		for _, b := range parseBullets(block) {
			if p := krtext.MemoPhrase(b); p != "" {
				bullets = append(bullets, p)
			}
		}
		if len(bullets) < 3 {
			continue
		}

		slide := &deck.Slide{
			Order:       order,
			Section:     label,
			Title:       firstNonEmpty(krtext.MemoPhrase(title), title),
			KeyMessage:  krtext.KeyMessage(keyMessage, title, bullets),
			Bullets:     bullets,
			Evidence:    parseEvidence(block),
			ImageType:   "none",
			TableMD:     grabMultilineField(block, "TABLE_MD"),
			DiagramSpec: grabMultilineField(block, "DIAGRAM_SPEC_KO"),
			ChartSpec:   grabMultilineField(block, "CHART_SPEC_KO"),
		}
		slides = append(slides, slide)
		order++
	}
	return slides
}

// FallbackSlides recovers one slide from free-form model output that missed
// the strict format, so a section does not silently vanish. Returns nil when
// not even three bullets can be scraped.
func FallbackSlides(raw string, defaultSection section.Label, order int) []*deck.Slide {
	txt := strings.TrimSpace(raw)
	if txt == "" {
		return nil
	}

	title := defaultSection.String()
	keyMessage := ""
	var bullets []string

	for _, line := range strings.Split(txt, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if keyMessage == "" && krtext.RuneLen(line) <= 80 && !strings.HasPrefix(line, "-") {
			keyMessage = line
			continue
		}
		if strings.HasPrefix(line, "-") {
			if b := strings.TrimSpace(line[1:]); b != "" {
				bullets = append(bullets, b)
			}
		} else if krtext.RuneLen(line) <= 120 {
			bullets = append(bullets, line)
		}
		if len(bullets) >= 4 {
			break
		}
	}

	if keyMessage == "" {
		keyMessage = title
	}
	var cleaned []string
	for _, b := range bullets {
		if p := krtext.MemoPhrase(b); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) < 3 {
		return nil
	}
	if len(cleaned) > 4 {
		cleaned = cleaned[:4]
	}
	return []*deck.Slide{{
		Order:      order,
		Section:    defaultSection,
		Title:      title,
		KeyMessage: krtext.KeyMessage(keyMessage, title, cleaned),
		Bullets:    cleaned,
		ImageType:  "none",
	}}
}

func grabField(block, field string) string {
	re := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(field) + `\s*:\s*(.+)$`)
	if m := re.FindStringSubmatch(block); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func grabMultilineField(block, field string) string {
	re := regexp.MustCompile(`(?ms)^` + regexp.QuoteMeta(field) + `\s*:\s*(.*?)(?:\n[A-Z_]+\s*:|\z)`)
	if m := re.FindStringSubmatch(strings.TrimSpace(block)); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func parseBullets(block string) []string {
	m := bulletsRE.FindStringSubmatch(block)
	if m == nil {
		return nil
	}
	var bullets []string
	for _, line := range strings.Split(m[1], "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "-") {
			if t := strings.TrimSpace(line[1:]); t != "" {
				bullets = append(bullets, t)
			}
		}
	}
	return bullets
}

// parseEvidence accepts both the "- type:/text:" pair form and plain "- "
// items, which default to type 근거.
func parseEvidence(block string) []deck.Evidence {
	m := evidenceRE.FindStringSubmatch(block)
	if m == nil {
		return nil
	}
	var items []deck.Evidence
	var cur *deck.Evidence
	for _, line := range strings.Split(m[1], "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		switch {
		case strings.HasPrefix(trimmed, "- type:"):
			if cur != nil {
				items = append(items, *cur)
			}
			cur = &deck.Evidence{Type: strings.TrimSpace(strings.TrimPrefix(trimmed, "- type:"))}
		case strings.HasPrefix(trimmed, "text:"):
			if cur != nil {
				cur.Text = strings.TrimSpace(strings.TrimPrefix(trimmed, "text:"))
			}
		case strings.HasPrefix(trimmed, "-"):
			if cur != nil {
				items = append(items, *cur)
				cur = nil
			}
			if t := strings.TrimSpace(trimmed[1:]); t != "" {
				items = append(items, deck.Evidence{Type: "근거", Text: t})
			}
		}
	}
	if cur != nil {
		items = append(items, *cur)
	}

	var cleaned []deck.Evidence
	for _, it := range items {
		if t := strings.TrimSpace(it.Text); t != "" {
			typ := strings.TrimSpace(it.Type)
			if typ == "" {
				typ = "근거"
			}
			cleaned = append(cleaned, deck.Evidence{Type: typ, Text: t})
		}
	}
	return cleaned
}

func hasDividerMarker(s string) bool {
	u := strings.ToUpper(s)
	for _, m := range dropTitleMarkers {
		if strings.Contains(u, m) {
			return true
		}
	}
	return false
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
