package generate

import (
	"regexp"
	"strings"

	"github.com/jwyang/deckgen/internal/krtext"
)

var paraSplitRE = regexp.MustCompile(`\n{2,}`)

// splitForLLM packs paragraphs into chunks of at most maxChars runes. The
// budget counts runes, not bytes, so Korean text gets the same headroom as
// ASCII. When more than maxChunks result, the first, middle, and last chunks
// are kept so long documents lose the least information.
func splitForLLM(text string, maxChars, maxChunks int) []string {
	txt := strings.TrimSpace(text)
	if txt == "" {
		return nil
	}
	if krtext.RuneLen(txt) <= maxChars {
		return []string{txt}
	}

	var paras []string
	for _, p := range paraSplitRE.Split(txt, -1) {
		if p = strings.TrimSpace(p); p != "" {
			paras = append(paras, p)
		}
	}
	if len(paras) == 0 {
		paras = []string{txt}
	}

	var chunks []string
	cur, curLen := "", 0
	for _, p := range paras {
		pLen := krtext.RuneLen(p)
		switch {
		case cur == "":
			cur, curLen = p, pLen
		case curLen+2+pLen <= maxChars:
			cur += "\n\n" + p
			curLen += 2 + pLen
		default:
			chunks = append(chunks, cur)
			cur, curLen = p, pLen
		}
	}
	if cur != "" {
		chunks = append(chunks, cur)
	}

	if len(chunks) <= maxChunks {
		return chunks
	}
	switch {
	case maxChunks <= 1:
		return chunks[:1]
	case maxChunks == 2:
		return []string{chunks[0], chunks[len(chunks)-1]}
	default:
		mid := len(chunks) / 2
		return []string{chunks[0], chunks[mid], chunks[len(chunks)-1]}
	}
}
