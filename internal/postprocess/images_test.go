package postprocess

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jwyang/deckgen/internal/deck"
	"github.com/jwyang/deckgen/internal/section"
)

type stubImageGen struct {
	err   error
	calls int
}

func (g *stubImageGen) GenerateImage(_ context.Context, _, _ string) ([]byte, string, error) {
	g.calls++
	if g.err != nil {
		return nil, "", g.err
	}
	img := image.NewRGBA(image.Rect(0, 0, 64, 36))
	for y := 0; y < 36; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 90, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "image/png", nil
}

func taggedDeck() *deck.Deck {
	return &deck.Deck{
		Title: "테스트 덱",
		Slides: []*deck.Slide{
			{Order: 1, Section: section.Cover, Title: "표지"},
			{
				Order: 4, Section: section.Overview, Title: "개요 마무리",
				ImagePromptTag: deck.ImageOverviewLast, ImageNeeded: true, ImageType: "diagram",
				Layout: "text_image", VisualSlot: "right_40",
			},
			{
				Order: 9, Section: section.Content, Title: "시스템 아키텍처",
				ImagePromptTag: deck.ImageSystemArchitecture, ImageNeeded: true, ImageType: "diagram",
			},
		},
	}
}

func TestApplyWritesImages(t *testing.T) {
	dir := t.TempDir()
	gen := &stubImageGen{}
	p := NewProcessor(gen, "", dir, nil)
	d := taggedDeck()

	if got := p.Apply(context.Background(), d); got != 2 {
		t.Fatalf("applied = %d, want 2", got)
	}
	if gen.calls != 2 {
		t.Errorf("generator calls = %d", gen.calls)
	}

	overview := d.Slides[1]
	wantPath := filepath.Join(dir, "images", "slide_04_overview_last.png")
	if overview.ImagePath != wantPath {
		t.Errorf("image path = %q, want %q", overview.ImagePath, wantPath)
	}
	f, err := os.Open(wantPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 896 || cfg.Height != 432 {
		t.Errorf("resized to %dx%d, want 896x432", cfg.Width, cfg.Height)
	}
}

func TestApplyDowngradesOnFailure(t *testing.T) {
	gen := &stubImageGen{err: errors.New("model unavailable")}
	p := NewProcessor(gen, "", t.TempDir(), nil)
	d := taggedDeck()

	if got := p.Apply(context.Background(), d); got != 0 {
		t.Fatalf("applied = %d, want 0", got)
	}
	for _, s := range d.Slides[1:] {
		if s.ImageNeeded || s.ImageType != "none" || s.ImagePath != "" {
			t.Errorf("slide %d not downgraded: %+v", s.Order, s)
		}
		if s.Layout != "text_only" {
			t.Errorf("slide %d layout = %q", s.Order, s.Layout)
		}
	}
}

func TestStripPlaceholderMarkers(t *testing.T) {
	d := &deck.Deck{Slides: []*deck.Slide{{
		Order:      3,
		KeyMessage: "기관 정보 연동 대기",
		Bullets:    []string{"정상 항목", "기관 핵심역량 연동 대기", "DB 자동 반영 예정"},
	}}}
	stripPlaceholderMarkers(d)
	s := d.Slides[0]
	if s.KeyMessage != "" {
		t.Errorf("placeholder key message survived: %q", s.KeyMessage)
	}
	if len(s.Bullets) != 1 || s.Bullets[0] != "정상 항목" {
		t.Errorf("bullets = %v", s.Bullets)
	}
}

func TestBuildImagePromptPerTag(t *testing.T) {
	arch := &deck.Slide{Section: section.Content, Title: "시스템 아키텍처", ImagePromptTag: deck.ImageSystemArchitecture}
	if got := BuildImagePrompt("덱", arch); !strings.Contains(got, "system architecture diagram") {
		t.Errorf("architecture prompt missing: %q", got[:80])
	}
	plan := &deck.Slide{Section: section.Plan, Title: "추진 체계", ImagePromptTag: deck.ImagePlanOrgChart}
	got := BuildImagePrompt("해양 예측", plan)
	if !strings.Contains(got, "workflow/process") || !strings.Contains(got, "해양 예측") {
		t.Errorf("plan prompt missing context: %q", got[:120])
	}
	over := &deck.Slide{Section: section.Overview, Title: "개요", ImagePromptTag: deck.ImageOverviewLast}
	if got := BuildImagePrompt("덱", over); !strings.Contains(got, "pure white background") {
		t.Error("overview prompt missing background rule")
	}
}
