package section

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jwyang/deckgen/internal/krtext"
)

var headingNumRE = regexp.MustCompile(`^\s*(\d+)(?:[.\-](\d+))?[.)]?\s*(.+?)\s*$`)

// Heading is one numbered heading line, e.g. "2.3 연구 내용" → main 2, sub 3.
type Heading struct {
	Main  int
	Sub   int
	Title string
}

// parseHeading matches a numbered heading with a title of 2 to 120 runes.
// Sub is 0 when the heading has no sub number.
func parseHeading(line string) (Heading, bool) {
	m := headingNumRE.FindStringSubmatch(krtext.Normalize(line))
	if m == nil {
		return Heading{}, false
	}
	main, err := strconv.Atoi(m[1])
	if err != nil {
		return Heading{}, false
	}
	sub := 0
	if m[2] != "" {
		if sub, err = strconv.Atoi(m[2]); err != nil {
			return Heading{}, false
		}
	}
	title := krtext.Normalize(m[3])
	if n := krtext.RuneLen(title); n < 2 || n > 120 {
		return Heading{}, false
	}
	return Heading{Main: main, Sub: sub, Title: title}, true
}

// labelForHeading maps heading numbers to sections. Chapter 2 without a
// recognized sub number is split on whether the title mentions 목표.
func labelForHeading(h Heading) (Label, bool) {
	switch h.Main {
	case 1:
		if h.Sub == 1 {
			return Overview, true
		}
		return Necessity, true
	case 2:
		switch h.Sub {
		case 1, 2:
			return Goals, true
		case 3:
			return Content, true
		case 4:
			return Plan, true
		}
		if strings.Contains(krtext.NormKey(h.Title), "목표") {
			return Goals, true
		}
		return Content, true
	case 3:
		return Plan, true
	case 4:
		return Impact, true
	case 5, 6:
		return Commercial, true
	}
	return Unknown, false
}

// allowedLabels is the set a reclassifier may move a block into, mirroring
// labelForHeading but keeping both options open for ambiguous chapter 2.
func allowedLabels(h Heading, headingLabel Label) []Label {
	switch h.Main {
	case 1:
		if h.Sub == 1 {
			return []Label{Overview}
		}
		return []Label{Necessity}
	case 2:
		switch h.Sub {
		case 1, 2:
			return []Label{Goals}
		case 3:
			return []Label{Content}
		case 4:
			return []Label{Plan}
		}
		return []Label{Goals, Content}
	case 3:
		return []Label{Plan}
	case 4:
		return []Label{Impact}
	case 5, 6:
		return []Label{Commercial}
	}
	if headingLabel != Unknown {
		return []Label{headingLabel}
	}
	return nil
}
