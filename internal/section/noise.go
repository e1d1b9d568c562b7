package section

import (
	"regexp"
	"strings"

	"github.com/jwyang/deckgen/internal/krtext"
)

var (
	dotLeaderRE = regexp.MustCompile(`·\s*·`)
	tocLineRE   = regexp.MustCompile(`^\s*\d+(?:-\d+)?\.\s*.+·`)
)

// Template boilerplate that proposal forms carry and slides never need.
var noiseHints = []string{
	"연구개발계획서(본문1)",
	"본 서식은 연구개발계획서 본문1",
	"범부처 통합연구지원시스템",
	"제출 시 불필요하며",
	"목 차",
	"< 본문 1 >",
}

var noiseExact = map[string]bool{
	"< 본문 1 >": true,
	"<본문1>":    true,
	"목차":       true,
	"목 차":      true,
}

func isNoiseLine(line string) bool {
	t := krtext.Normalize(line)
	if t == "" {
		return true
	}
	for _, h := range noiseHints {
		if strings.Contains(t, h) {
			return true
		}
	}
	if dotLeaderRE.MatchString(t) {
		return true
	}
	if tocLineRE.MatchString(t) {
		return true
	}
	return noiseExact[t]
}

// cleanChunk drops noise lines but never the first line, which is the
// heading the chunk was cut on.
func cleanChunk(text string) string {
	var out []string
	for i, raw := range strings.Split(text, "\n") {
		if i > 0 && isNoiseLine(raw) {
			continue
		}
		if krtext.Normalize(raw) == "" {
			continue
		}
		out = append(out, raw)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
