package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jwyang/deckgen/internal/deck"
	"github.com/jwyang/deckgen/internal/section"
)

func TestHTMLRendererOutput(t *testing.T) {
	d := &deck.Deck{
		Title: "지능형 플랫폼",
		Slides: []*deck.Slide{
			{Order: 1, Section: section.Cover, Title: "표지", TableMD: "| a | b |\n|---|---|\n| 1 | 2 |"},
			{
				Order: 2, Section: section.Overview, Title: "과제 개요",
				KeyMessage:     "핵심, 방향, 계획",
				Bullets:        []string{"항목 하나", "항목 둘", "항목 셋"},
				Evidence:       []deck.Evidence{{Type: "출처", Text: "제안서 원문"}},
				ImagePromptTag: deck.ImageOverviewLast,
			},
			{
				Order: 3, Section: section.Content, Title: "시스템 아키텍처",
				DiagramSpec: "3계층 구성도", ImagePromptTag: deck.ImageSystemArchitecture,
				ImagePath: "images/slide_03_system_architecture.png",
			},
			{
				Order: 4, Section: section.Plan, Title: "추진 일정",
				Bullets:        []string{"단계 구분", "산출물 정의", "검증 지표"},
				ImagePromptTag: deck.ImagePlanOrgChart,
			},
		},
	}

	out := filepath.Join(t.TempDir(), "deck.html")
	path, err := NewHTMLRenderer().RenderDeck(d, out)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)

	if got := strings.Count(html, "<section"); got != len(d.Slides) {
		t.Errorf("section blocks = %d, want %d", got, len(d.Slides))
	}
	if got := strings.Count(html, "image-slot"); got != 3 {
		t.Errorf("image slots = %d, want 3", got)
	}
	if !strings.Contains(html, "slide_03_system_architecture.png") {
		t.Error("resolved image path must be referenced")
	}
	if !strings.Contains(html, "<table>") {
		t.Error("TABLE_MD must render as an html table")
	}
	if !strings.Contains(html, "key-message") {
		t.Error("key message band missing")
	}
	if !strings.Contains(html, "(출처) 제안서 원문") {
		t.Error("evidence footnote missing")
	}
}

func TestHTMLRendererEscapes(t *testing.T) {
	d := &deck.Deck{
		Title: "x",
		Slides: []*deck.Slide{{
			Order: 1, Section: section.Overview,
			Title:   "<script>alert(1)</script>",
			Bullets: []string{"안전한 항목", "둘", "셋"},
		}},
	}
	path, err := NewHTMLRenderer().RenderDeck(d, filepath.Join(t.TempDir(), "x.html"))
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "<script>alert") {
		t.Error("slide title must be escaped")
	}
}
