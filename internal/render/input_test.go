package render

import (
	"strings"
	"testing"

	"github.com/jwyang/deckgen/internal/deck"
	"github.com/jwyang/deckgen/internal/section"
)

func sampleDeck() *deck.Deck {
	return &deck.Deck{
		Title: "지능형 데이터 플랫폼 개발",
		Slides: []*deck.Slide{
			{
				Order: 1, Section: section.Cover, Title: "지능형 데이터 플랫폼 개발",
				TableMD: "| 항목 | 내용 |\n|---|---|\n| 발표 제목 | 지능형 데이터 플랫폼 개발 |\n",
			},
			{
				Order: 2, Section: section.Overview, Title: "과제 개요",
				KeyMessage: "핵심 과제, 추진 방향, 운영 계획",
				Bullets:    []string{"b1", "b2", "b3", "b4", "b5", "b6", "b7", "b8", "b9"},
				Evidence: []deck.Evidence{
					{Type: "수치", Text: "정확도 95% 목표"},
					{Type: "", Text: "근거 텍스트"},
					{Type: "출처", Text: "3장"},
					{Type: "출처", Text: "4장"},
				},
			},
		},
	}
}

func TestBuildInputTextHeader(t *testing.T) {
	got := BuildInputText(sampleDeck())
	for _, want := range []string{
		"[DECK]",
		"DECK_TITLE: 지능형 데이터 플랫폼 개발",
		"TOTAL_SLIDES: 2",
		"정확히 2장만 생성",
		"[/DECK]",
		"[SLIDE 1/2]",
		"[SLIDE 2/2]",
		"[ENDSLIDE]",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q", want)
		}
	}
	if !strings.Contains(got, "\n\n---\n\n") {
		t.Error("slide blocks must be separated by --- breaks")
	}
}

func TestBuildInputTextLimits(t *testing.T) {
	got := BuildInputText(sampleDeck())
	if strings.Contains(got, "- b8") {
		t.Error("bullets beyond the limit must be dropped")
	}
	if !strings.Contains(got, "- b7") {
		t.Error("seventh bullet must survive")
	}
	if !strings.Contains(got, "- (수치) 정확도 95% 목표") {
		t.Error("typed evidence line missing")
	}
	if !strings.Contains(got, "- (근거) 근거 텍스트") {
		t.Error("untyped evidence must default to 근거")
	}
	if strings.Contains(got, "4장") {
		t.Error("evidence beyond the limit must be dropped")
	}
}

func TestBuildInputTextEmptyTitle(t *testing.T) {
	d := sampleDeck()
	d.Title = "  "
	got := BuildInputText(d)
	if !strings.Contains(got, "DECK_TITLE: 발표자료") {
		t.Error("empty deck title must fall back")
	}
}

func TestSafeFilename(t *testing.T) {
	cases := []struct{ in, want string }{
		{`제안서: 최종*버전?`, "제안서 최종 버전"},
		{"  ", "result"},
		{"(괄호) [포함] 제목", "괄호 포함 제목"},
	}
	for _, tc := range cases {
		if got := SafeFilename(tc.in); got != tc.want {
			t.Errorf("SafeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	long := strings.Repeat("가나다 ", 20)
	got := SafeFilename(long)
	if len([]rune(got)) > 36 {
		t.Errorf("long name not capped: %q (%d runes)", got, len([]rune(got)))
	}
	if strings.HasSuffix(got, " ") {
		t.Errorf("trailing space survived: %q", got)
	}
}
