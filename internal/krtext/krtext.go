// Package krtext holds Korean presentation-text helpers shared by the
// splitter, the slide parser, and the deck merger: whitespace/ending
// normalization, keyword tokenization, and key-message formatting.
package krtext

import (
	"regexp"
	"strings"
)

// Noun-phrase endings that mark a formal (sentence-style) line. Slide text
// must stay in memo style, so these are stripped or rejected.
var formalLineRE = regexp.MustCompile(
	`(합니다|입니다|됩니다|있습니다|가능합니다|예상됩니다|필요합니다|수행합니다|한다|된다|있다)\s*[.!?]?$`)

// forbiddenEndings are trimmed from the tail of a phrase, longest first so
// 합니다 is removed before its suffix 다.
var forbiddenEndings = []string{"입니다", "합니다", "됩니다", "니다", "다"}

// KeyMessageFallbacks pad a key message up to exactly three phrases.
var KeyMessageFallbacks = []string{"핵심 과제", "추진 방향", "운영 계획"}

var (
	spaceRE       = regexp.MustCompile(`\s+`)
	trailPunctRE  = regexp.MustCompile(`[.!?]+$`)
	normKeyRE     = regexp.MustCompile(`[^0-9a-z가-힣]+`)
	numPrefixRE   = regexp.MustCompile(`^\d+[.)]\s*`)
	multiSpaceRE  = regexp.MustCompile(`\s{2,}`)
	tokenSplitRE  = regexp.MustCompile(`[,/|·;]`)
	nbspReplacer  = strings.NewReplacer(" ", " ", "​", "")
)

// Normalize collapses runs of whitespace into single spaces and trims.
func Normalize(s string) string {
	return strings.TrimSpace(spaceRE.ReplaceAllString(nbspReplacer.Replace(s), " "))
}

// NormKey lowercases and strips everything but digits, latin letters, and
// hangul syllables. Used for keyword matching and dedupe keys.
func NormKey(s string) string {
	return normKeyRE.ReplaceAllString(strings.ToLower(s), "")
}

// ContainsFormalLine reports whether any line of text ends with a formal
// sentence ending.
func ContainsFormalLine(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	for _, line := range strings.Split(t, "\n") {
		if formalLineRE.MatchString(strings.TrimSpace(line)) {
			return true
		}
	}
	return false
}

// MemoPhrase normalizes whitespace, drops trailing punctuation, and strips
// one formal ending so the result reads as a memo-style phrase.
func MemoPhrase(text string) string {
	t := Normalize(text)
	if t == "" {
		return ""
	}
	t = strings.TrimSpace(trailPunctRE.ReplaceAllString(t, ""))
	for _, end := range forbiddenEndings {
		if strings.HasSuffix(t, end) {
			t = strings.TrimSpace(strings.TrimSuffix(t, end))
			break
		}
	}
	return t
}

// KeywordTokens splits text on common Korean list separators and returns the
// surviving memo phrases, skipping formal lines and bare list numbers.
func KeywordTokens(text string) []string {
	src := strings.ReplaceAll(text, "\n", ",")
	var out []string
	for _, p := range tokenSplitRE.Split(src, -1) {
		k := MemoPhrase(p)
		k = strings.TrimSpace(numPrefixRE.ReplaceAllString(k, ""))
		k = strings.TrimSpace(multiSpaceRE.ReplaceAllString(k, " "))
		if k == "" || ContainsFormalLine(k) {
			continue
		}
		out = append(out, k)
	}
	return out
}

// KeyMessage builds a key message of exactly three comma-separated keyword
// phrases, drawing from the raw key message, then the first six bullets,
// then the title, padding with fixed fallbacks when short.
func KeyMessage(keyMessage, title string, bullets []string) string {
	var candidates []string
	candidates = append(candidates, KeywordTokens(keyMessage)...)
	for i, b := range bullets {
		if i >= 6 {
			break
		}
		candidates = append(candidates, KeywordTokens(b)...)
	}
	candidates = append(candidates, KeywordTokens(title)...)

	seen := make(map[string]bool)
	var uniq []string
	for _, c := range candidates {
		key := spaceRE.ReplaceAllString(strings.ToLower(c), "")
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		uniq = append(uniq, c)
		if len(uniq) >= 3 {
			break
		}
	}
	for len(uniq) < 3 {
		uniq = append(uniq, KeyMessageFallbacks[len(uniq)])
	}
	return strings.Join(uniq[:3], ", ")
}

// TruncateRunes cuts s to at most n runes.
func TruncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// RuneLen counts runes, the unit all length thresholds use for Korean text.
func RuneLen(s string) int {
	return len([]rune(s))
}
