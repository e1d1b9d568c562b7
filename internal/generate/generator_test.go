package generate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jwyang/deckgen/internal/deck"
	"github.com/jwyang/deckgen/internal/gemini"
	"github.com/jwyang/deckgen/internal/section"
)

type stubModel struct {
	responses map[string]string // keyed by section name found in the input
	err       error
	calls     int
}

func (s *stubModel) GenerateText(_ context.Context, _ string, _ gemini.GenConfig, prompts ...string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	input := prompts[len(prompts)-1]
	for key, resp := range s.responses {
		if strings.Contains(input, "[섹션: "+key+"]") {
			return resp, nil
		}
	}
	return "no slides here", nil
}

func strictBlock(sec, title string) string {
	return strings.Join([]string{
		"SLIDE",
		"SECTION: " + sec,
		"TITLE: " + title,
		"KEY_MESSAGE: 핵심, 방향, 계획",
		"BULLETS:",
		"- 데이터 확보 체계 구축",
		"- 단계별 검증 수행 예정",
		"- 산출물 및 지표 정의",
		"ENDSLIDE",
	}, "\n")
}

func TestGenerateParsesSections(t *testing.T) {
	stub := &stubModel{responses: map[string]string{
		"연구 개요": "DECK_TITLE: 지능형 플랫폼 개발\n\n" + strictBlock("연구 개요", "과제 개요 정리"),
		"연구 내용": strictBlock("연구 내용", "데이터 파이프라인 구축"),
	}}
	g := New(stub, Config{Model: "test-model"}, nil)

	res, err := g.Generate(context.Background(), map[section.Label]string{
		section.Overview: "개요 원문 텍스트",
		section.Content:  "내용 원문 텍스트",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.DeckTitle != "지능형 플랫폼 개발" {
		t.Errorf("deck title = %q", res.DeckTitle)
	}
	if len(res.Sections[section.Overview]) != 1 {
		t.Errorf("overview slides = %d", len(res.Sections[section.Overview]))
	}
	if len(res.Sections[section.Content]) != 1 {
		t.Errorf("content slides = %d", len(res.Sections[section.Content]))
	}
	// Org intro is always the fixed placeholder, no model call needed.
	org := res.Sections[section.OrgIntro]
	if len(org) != 1 || org[0].Title != "기관 소개 및 수행역량" {
		t.Fatalf("org slides = %+v", org)
	}
	// Empty sections are skipped entirely.
	if _, ok := res.Sections[section.Commercial]; ok {
		t.Error("empty section must be absent")
	}
}

func TestGenerateFallbackParse(t *testing.T) {
	stub := &stubModel{responses: map[string]string{
		"추진 계획": "핵심 추진 방향 요약\n- 단계 구분 및 일정 수립\n- 산출물 정의\n- 협업 체계 구축",
	}}
	g := New(stub, Config{Model: "test-model"}, nil)
	res, err := g.Generate(context.Background(), map[section.Label]string{section.Plan: "계획 원문"})
	if err != nil {
		t.Fatal(err)
	}
	slides := res.Sections[section.Plan]
	if len(slides) != 1 {
		t.Fatalf("plan slides = %d", len(slides))
	}
	if slides[0].Title != section.Plan.String() {
		t.Errorf("fallback title = %q", slides[0].Title)
	}
}

func TestGenerateQuotaErrorAborts(t *testing.T) {
	stub := &stubModel{err: gemini.ErrQuotaExhausted}
	g := New(stub, Config{Model: "test-model"}, nil)
	_, err := g.Generate(context.Background(), map[section.Label]string{section.Overview: "본문"})
	if !errors.Is(err, gemini.ErrQuotaExhausted) {
		t.Fatalf("err = %v", err)
	}
}

func TestGenerateAllEmptyFails(t *testing.T) {
	// The org placeholder needs no model call, so it alone must not count as
	// generated output.
	stub := &stubModel{}
	g := New(stub, Config{Model: "test-model"}, nil)
	if _, err := g.Generate(context.Background(), map[section.Label]string{}); !errors.Is(err, ErrNoSections) {
		t.Fatalf("err = %v, want ErrNoSections", err)
	}
}

func TestRepairDropsFormalAndBanned(t *testing.T) {
	g := New(&stubModel{}, Config{Model: "m"}, nil)
	s := &deck.Slide{
		Section:    section.Content,
		Title:      "시스템을 구축합니다.",
		KeyMessage: "본 슬라이드 요약",
		Bullets: []string{
			"데이터 수집 체계 확보",
			"추후 보완 예정 항목",
			"성능 평가를 수행합니다.",
			"검증 지표 정의",
			"운영 체계 정비",
		},
		Evidence: []deck.Evidence{
			{Type: "수치", Text: "정확도 95% 목표 달성"},
			{Type: "", Text: "원문 2장 수치"},
		},
		TableMD: "| a |\n|---|\n| 미기재 |",
	}
	out := g.repair(context.Background(), []*deck.Slide{s})
	if len(out) != 1 {
		t.Fatalf("repair dropped slide: %+v", out)
	}
	r := out[0]
	if r.Title != "시스템을 구축" {
		t.Errorf("formal ending must be stripped from title, got %q", r.Title)
	}
	if strings.Contains(r.KeyMessage, "본 슬라이드") {
		t.Errorf("banned key message survived: %q", r.KeyMessage)
	}
	if len(strings.Split(r.KeyMessage, ", ")) != 3 {
		t.Errorf("key message must hold three phrases, got %q", r.KeyMessage)
	}
	if len(r.Bullets) != 4 {
		t.Errorf("bullets = %v", r.Bullets)
	}
	for _, b := range r.Bullets {
		if strings.Contains(b, "추후 보완") {
			t.Errorf("banned bullet survived: %q", b)
		}
		if strings.Contains(b, "합니다") {
			t.Errorf("formal ending survived: %q", b)
		}
	}
	if r.TableMD != "" {
		t.Errorf("미기재 table must be cleared, got %q", r.TableMD)
	}
	if len(r.Evidence) != 2 {
		t.Fatalf("evidence = %+v", r.Evidence)
	}
	if r.Evidence[1].Type != "근거" {
		t.Errorf("empty evidence type must default, got %q", r.Evidence[1].Type)
	}
}

func TestRepairDropsThinSlides(t *testing.T) {
	g := New(&stubModel{}, Config{Model: "m"}, nil)
	s := &deck.Slide{Title: "얇은 슬라이드", Bullets: []string{"하나", "둘"}}
	if out := g.repair(context.Background(), []*deck.Slide{s}); len(out) != 0 {
		t.Fatalf("thin slide must be dropped, got %+v", out)
	}
}
