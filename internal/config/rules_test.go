package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jwyang/deckgen/internal/section"
)

func TestLoadRulesEmptyPath(t *testing.T) {
	r, err := LoadRules("")
	if err != nil {
		t.Fatal(err)
	}
	if len(r.MinSlides) != 0 || len(r.MaxSlides) != 0 || len(r.Keywords) != 0 {
		t.Errorf("empty path must yield empty rules: %+v", r)
	}
}

func TestLoadRulesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	doc := `sections:
  연구 내용:
    min_slides: 4
    max_slides: 8
    keywords: [파이프라인, 데이터셋]
  사업화 전략 및 계획:
    max_slides: 4
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadRules(path)
	if err != nil {
		t.Fatal(err)
	}
	if r.MinSlides[section.Content] != 4 {
		t.Errorf("content min = %d", r.MinSlides[section.Content])
	}
	if r.MaxSlides[section.Content] != 8 {
		t.Errorf("content max = %d", r.MaxSlides[section.Content])
	}
	if r.MaxSlides[section.Commercial] != 4 {
		t.Errorf("commercial max = %d", r.MaxSlides[section.Commercial])
	}
	if got := r.Keywords[section.Content]; len(got) != 2 || got[0] != "파이프라인" {
		t.Errorf("keywords = %v", got)
	}
	if _, ok := r.MinSlides[section.Commercial]; ok {
		t.Error("zero min_slides must not register an override")
	}
}

func TestLoadRulesUnknownSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("sections:\n  없는 섹션:\n    min_slides: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRules(path); err == nil {
		t.Fatal("unknown section name must fail")
	}
}
