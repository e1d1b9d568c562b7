package section

import "testing"

func TestParseHeading(t *testing.T) {
	cases := []struct {
		line  string
		ok    bool
		main  int
		sub   int
		title string
	}{
		{"1.1 연구개발 과제의 개요", true, 1, 1, "연구개발 과제의 개요"},
		{"2-3. 연구개발과제의 내용", true, 2, 3, "연구개발과제의 내용"},
		{"3) 추진 전략 및 체계", true, 3, 0, "추진 전략 및 체계"},
		{"  4. 활용방안 및 기대효과  ", true, 4, 0, "활용방안 및 기대효과"},
		{"5", false, 0, 0, ""},
		{"1. x", false, 0, 0, ""},
		{"일반 본문 문장입니다", false, 0, 0, ""},
	}
	for _, c := range cases {
		h, ok := parseHeading(c.line)
		if ok != c.ok {
			t.Errorf("parseHeading(%q) ok = %v, want %v", c.line, ok, c.ok)
			continue
		}
		if !ok {
			continue
		}
		if h.Main != c.main || h.Sub != c.sub || h.Title != c.title {
			t.Errorf("parseHeading(%q) = %+v", c.line, h)
		}
	}
}

func TestLabelForHeading(t *testing.T) {
	cases := []struct {
		main, sub int
		title     string
		want      Label
	}{
		{1, 1, "개요", Overview},
		{1, 2, "국내외 현황", Necessity},
		{1, 0, "필요성", Necessity},
		{2, 1, "최종목표", Goals},
		{2, 2, "성능지표", Goals},
		{2, 3, "연구 내용", Content},
		{2, 4, "추진 일정", Plan},
		{2, 5, "세부 목표 체계", Goals},
		{2, 5, "세부 수행 항목", Content},
		{3, 0, "추진 전략", Plan},
		{4, 0, "기대효과", Impact},
		{5, 0, "사업화 계획", Commercial},
		{6, 0, "보안조치 이행계획", Commercial},
	}
	for _, c := range cases {
		got, ok := labelForHeading(Heading{Main: c.main, Sub: c.sub, Title: c.title})
		if !ok || got != c.want {
			t.Errorf("labelForHeading(%d.%d %q) = %v ok=%v, want %v", c.main, c.sub, c.title, got, ok, c.want)
		}
	}
	if _, ok := labelForHeading(Heading{Main: 7, Title: "부록"}); ok {
		t.Error("chapter 7 should not map to a section")
	}
}

func TestAllowedLabelsChapterTwoOther(t *testing.T) {
	got := allowedLabels(Heading{Main: 2, Sub: 5}, Content)
	if len(got) != 2 || got[0] != Goals || got[1] != Content {
		t.Errorf("allowedLabels(2.5) = %v", got)
	}
}

func TestParseLabelAliases(t *testing.T) {
	cases := map[string]Label{
		"연구 내용":  Content,
		"연구내용":   Content,
		"사업개요":   Overview,
		"기대효과":   Impact,
		"q&a":    QA,
		"QNA":    QA,
		"사업화 계획": Commercial,
	}
	for in, want := range cases {
		got, ok := ParseLabel(in)
		if !ok || got != want {
			t.Errorf("ParseLabel(%q) = %v ok=%v, want %v", in, got, ok, want)
		}
	}
	if _, ok := ParseLabel("이상한 섹션"); ok {
		t.Error("unknown name should not parse")
	}
}

func TestCanonicalizeFallback(t *testing.T) {
	if got := Canonicalize("이상한 값", "최종 목표 달성 체계"); got != Goals {
		t.Errorf("Canonicalize by title = %v", got)
	}
	if got := Canonicalize("아무것도", "없음"); got != Content {
		t.Errorf("Canonicalize default = %v", got)
	}
}
