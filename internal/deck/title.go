package deck

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwyang/deckgen/internal/krtext"
)

const (
	genericTitle    = "연구개발 과제 제안서"
	missingTitle    = "(과제명 미기재)"
	maxTitleRunes   = 56
	maxScannedLines = 120
)

var titlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`과제명\s*[:·]\s*(.+)`),
	regexp.MustCompile(`연구개발\s*과제명\s*[:·]\s*(.+)`),
	regexp.MustCompile(`과제\s*제목\s*[:·]\s*(.+)`),
	regexp.MustCompile(`사업명\s*[:·]\s*(.+)`),
}

var titleBanPhrases = []string{
	"범부처 통합연구지원시스템",
	"첨부하여 제출",
	"작성하여",
	"제출하여",
	"붙임",
	"유의사항",
	"작성요령",
}

var titleSkipHints = []string{"목차", "본문", "요약", "기관 소개", "연구 필요성"}

var badTitleMarkers = []string{
	"첨부하여 제출",
	"통합연구지원시스템",
	"작성하여 제출",
	"시행규칙",
	"서식",
	"사업 공고",
	"발표자료",
}

var (
	numericLineRE  = regexp.MustCompile(`^[0-9.\-_/ ]+$`)
	titlePrefixRE  = regexp.MustCompile(`^(과제명|사업명|연구과제명)\s*[:：]\s*`)
	punctOnlyRE    = regexp.MustCompile(`^[_\-\s]+$`)
	sepRunRE       = regexp.MustCompile(`[_\-]+`)
	nonWordRE      = regexp.MustCompile(`[^\w가-힣 ]+`)
	refineBanRE    = regexp.MustCompile(`\s{2,}`)
)

// refineBanPhrases are stripped out of a resolved title before the cap.
var refineBanPhrases = []string{
	"작성하여 범부처 통합연구지원시스템에 첨부하여 제출",
	"범부처 통합연구지원시스템에 첨부",
	"첨부하여 제출",
	"작성하여 제출",
	"제안서",
}

// ResolveTitle applies the title fallback chain: explicit title, then a
// pattern or first-meaningful-line extraction from the source text, then the
// source filename, then a generic title. The order is load-bearing.
func ResolveTitle(explicit, sourceText, sourcePath string) string {
	title := krtext.Normalize(explicit)
	if title == "" || strings.Contains(title, "미기재") {
		title = extractTitleFromText(sourceText)
		if title == "" {
			title = titleFromFilename(sourcePath)
		}
		if title == "" {
			title = genericTitle
		}
	}
	if isGenericTitle(title) {
		if guessed := extractTitleFromText(sourceText); guessed != "" && !isGenericTitle(guessed) {
			title = guessed
		} else if fn := titleFromFilename(sourcePath); fn != "" && !isGenericTitle(fn) {
			title = fn
		} else if isGenericTitle(title) {
			title = genericTitle
		}
	}
	if refined := refineTitle(title); refined != "" {
		title = refined
	}
	for _, m := range badTitleMarkers {
		if strings.Contains(title, m) {
			return genericTitle
		}
	}
	if title == "" {
		return genericTitle
	}
	return title
}

// extractTitleFromText tries the explicit 과제명/사업명 patterns first, then
// scans the top of the document for the first plausible title line.
func extractTitleFromText(text string) string {
	text = strings.ReplaceAll(text, " ", " ")
	for _, pat := range titlePatterns {
		if m := pat.FindStringSubmatch(text); m != nil {
			return krtext.TruncateRunes(krtext.Normalize(m[1]), 80)
		}
	}
	lines := strings.Split(text, "\n")
	if len(lines) > maxScannedLines {
		lines = lines[:maxScannedLines]
	}
	for _, line := range lines {
		ln := krtext.Normalize(line)
		if ln == "" || krtext.RuneLen(ln) < 8 {
			continue
		}
		if numericLineRE.MatchString(ln) {
			continue
		}
		if containsAny(ln, titleBanPhrases) || containsAny(ln, titleSkipHints) {
			continue
		}
		ln = strings.TrimSpace(titlePrefixRE.ReplaceAllString(ln, ""))
		if ln != "" && krtext.RuneLen(ln) >= 8 {
			return krtext.TruncateRunes(ln, 80)
		}
	}
	return ""
}

// titleFromFilename derives a title from the upload's base name, dropping
// upload/revision words and separator runs.
func titleFromFilename(sourcePath string) string {
	src := krtext.Normalize(sourcePath)
	if src == "" {
		return ""
	}
	base := filepath.Base(src)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	for _, bad := range []string{"제안서", "사용자업로드", "업로드", "최종", "정식"} {
		base = strings.TrimSpace(strings.ReplaceAll(base, bad, ""))
	}
	base = sepRunRE.ReplaceAllString(base, " ")
	base = nonWordRE.ReplaceAllString(base, " ")
	base = krtext.Normalize(base)
	if base == "" || punctOnlyRE.MatchString(base) {
		return ""
	}
	return krtext.TruncateRunes(base, 80)
}

func refineTitle(title string) string {
	t := cleanText(title)
	if t == "" {
		return ""
	}
	for _, bp := range refineBanPhrases {
		t = strings.TrimSpace(strings.ReplaceAll(t, bp, ""))
	}
	t = strings.Trim(refineBanRE.ReplaceAllString(t, " "), " -_|")
	if krtext.RuneLen(t) > maxTitleRunes {
		t = strings.TrimRight(krtext.TruncateRunes(t, maxTitleRunes), " ")
	}
	return t
}

func isGenericTitle(title string) bool {
	t := cleanText(title)
	if t == "" || t == missingTitle || t == genericTitle {
		return true
	}
	// Garbled CP949 artifacts occasionally surface as short titles.
	if strings.Contains(t, "媛쒖슂") && strings.Contains(t, "紐⑺몴") && krtext.RuneLen(t) <= 20 {
		return true
	}
	return punctOnlyRE.MatchString(t)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
