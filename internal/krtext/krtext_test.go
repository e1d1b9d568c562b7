package krtext

import (
	"strings"
	"testing"
)

func TestMemoPhraseStripsFormalEnding(t *testing.T) {
	cases := map[string]string{
		"데이터 기반 분석을 수행합니다.":    "데이터 기반 분석을 수행",
		"과제를 성공적으로 수행할 것입니다.": "과제를 성공적으로 수행할 것",
		"핵심 기술이 확보됩니다":        "핵심 기술이 확보",
		"모델 정확도 95% 달성":       "모델 정확도 95% 달성",
		"추진  체계   확립!":        "추진 체계 확립",
		"":                     "",
	}
	for in, want := range cases {
		if got := MemoPhrase(in); got != want {
			t.Errorf("MemoPhrase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContainsFormalLine(t *testing.T) {
	if !ContainsFormalLine("첫 줄 키워드\n시스템을 구축합니다.") {
		t.Error("expected formal line to be detected")
	}
	if ContainsFormalLine("데이터 확보, 일정 검토") {
		t.Error("memo phrase should not be formal")
	}
}

func TestKeyMessageExactlyThree(t *testing.T) {
	got := KeyMessage("", "", nil)
	parts := strings.Split(got, ", ")
	if len(parts) != 3 {
		t.Fatalf("want 3 phrases, got %d in %q", len(parts), got)
	}
	for i, f := range KeyMessageFallbacks {
		if parts[i] != f {
			t.Errorf("fallback %d = %q, want %q", i, parts[i], f)
		}
	}

	got = KeyMessage("데이터 확보, 모델 고도화, 실증 검증, 확산 전략", "제목", nil)
	parts = strings.Split(got, ", ")
	if len(parts) != 3 {
		t.Fatalf("want 3 phrases, got %d in %q", len(parts), got)
	}
	if parts[0] != "데이터 확보" || parts[2] != "실증 검증" {
		t.Errorf("unexpected phrases: %q", got)
	}
}

func TestKeyMessageDedupes(t *testing.T) {
	got := KeyMessage("핵심 과제", "핵심과제", []string{"핵심 과제"})
	parts := strings.Split(got, ", ")
	if len(parts) != 3 {
		t.Fatalf("want 3 phrases, got %q", got)
	}
	if parts[1] == parts[0] {
		t.Errorf("duplicate phrase survived: %q", got)
	}
}

func TestNormKey(t *testing.T) {
	if got := NormKey("연구 내용 (Phase-1)"); got != "연구내용phase1" {
		t.Errorf("NormKey = %q", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("가나다라마", 3); got != "가나다" {
		t.Errorf("TruncateRunes = %q", got)
	}
	if got := TruncateRunes("ab", 3); got != "ab" {
		t.Errorf("TruncateRunes short = %q", got)
	}
}
