// Package section splits extracted proposal text into canonical presentation
// sections using numbered-heading rules, keyword scoring, and an optional
// LLM reclassifier for ambiguous blocks.
package section

import (
	"fmt"
	"strings"

	"github.com/jwyang/deckgen/internal/krtext"
)

// Label identifies one canonical deck section.
type Label int

const (
	OrgIntro Label = iota
	Overview
	Necessity
	Goals
	Content
	Plan
	Impact
	Commercial
	// Structural labels exist only in merged decks, never as split targets.
	Cover
	Agenda
	QA

	Unknown Label = -1
)

// CanonicalOrder is the fixed order content sections appear in a deck.
var CanonicalOrder = []Label{OrgIntro, Overview, Necessity, Goals, Content, Plan, Impact, Commercial}

var labelNames = map[Label]string{
	OrgIntro:   "기관 소개",
	Overview:   "연구 개요",
	Necessity:  "연구 필요성",
	Goals:      "연구 목표",
	Content:    "연구 내용",
	Plan:       "추진 계획",
	Impact:     "활용방안 및 기대효과",
	Commercial: "사업화 전략 및 계획",
	Cover:      "표지",
	Agenda:     "목차",
	QA:         "Q&A",
}

// labelAliases maps common variant spellings onto canonical labels.
var labelAliases = map[string]Label{
	"연구내용":      Content,
	"추진계획":      Plan,
	"기대효과":      Impact,
	"활용계획":      Impact,
	"활용방안":      Impact,
	"사업개요":      Overview,
	"사업 개요":     Overview,
	"연구개요":      Overview,
	"사업화 계획":    Commercial,
	"사업화계획":     Commercial,
	"보안조치 이행계획": Commercial,
	"안전조치 이행계획": Commercial,
	"기관소개":      OrgIntro,
	"질의응답":      QA,
	"QNA":       QA,
	"QA":        QA,
}

func (l Label) String() string {
	if name, ok := labelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Label(%d)", int(l))
}

// Structural reports whether the label is a cover/agenda/Q&A slide rather
// than a content section.
func (l Label) Structural() bool {
	return l == Cover || l == Agenda || l == QA
}

// ParseLabel resolves a display name or known alias to its label.
func ParseLabel(s string) (Label, bool) {
	t := krtext.Normalize(s)
	if strings.EqualFold(t, "Q&A") {
		return QA, true
	}
	for l, name := range labelNames {
		if t == name {
			return l, true
		}
	}
	if l, ok := labelAliases[t]; ok {
		return l, true
	}
	if l, ok := labelAliases[strings.ToUpper(t)]; ok {
		return l, true
	}
	return Unknown, false
}

// MarshalText writes the Korean display name, which is what checkpoint
// files and API responses carry.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText is tolerant: unrecognized names become Unknown so checkpoint
// loading can canonicalize them from context instead of failing.
func (l *Label) UnmarshalText(b []byte) error {
	if parsed, ok := ParseLabel(string(b)); ok {
		*l = parsed
	} else {
		*l = Unknown
	}
	return nil
}

// canonicalizeKeywords drives Canonicalize for section names that fail
// ParseLabel, checked in order so more specific hints win.
var canonicalizeKeywords = []struct {
	hint  string
	label Label
}{
	{"기관", OrgIntro},
	{"개요", Overview},
	{"필요", Necessity},
	{"목표", Goals},
	{"내용", Content},
	{"추진", Plan},
	{"계획", Plan},
	{"기대", Impact},
	{"활용", Impact},
	{"사업화", Commercial},
}

// Canonicalize maps a free-form section string (as found in checkpoints or
// model output) to a label, falling back to keyword hints over the section
// name and slide title, and finally to Content.
func Canonicalize(rawSection, title string) Label {
	if l, ok := ParseLabel(rawSection); ok {
		return l
	}
	probe := krtext.Normalize(rawSection + " " + title)
	for _, ck := range canonicalizeKeywords {
		if strings.Contains(probe, ck.hint) {
			return ck.label
		}
	}
	return Content
}
