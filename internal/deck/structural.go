package deck

import (
	"fmt"
	"strings"

	"github.com/jwyang/deckgen/internal/krtext"
	"github.com/jwyang/deckgen/internal/section"
)

const evidenceSource = "제안서 원문"

func agendaTable(labels []section.Label) string {
	var b strings.Builder
	b.WriteString("| 번호 | 제목 |\n|---|---|\n")
	for i, l := range labels {
		if i >= 8 {
			break
		}
		fmt.Fprintf(&b, "| %02d | %s |\n", i+1, l)
	}
	return b.String()
}

func makeCover(deckTitle, orgName string) *Slide {
	title := cleanText(deckTitle)
	if title == "" {
		title = missingTitle
	}
	if punctOnlyRE.MatchString(title) {
		title = genericTitle
	}
	table := "| 항목 | 내용 |\n|---|---|\n" +
		fmt.Sprintf("| 발표 제목 | %s |\n", title)
	if org := cleanText(orgName); org != "" {
		table += fmt.Sprintf("| 주관기관 | %s |\n", org)
	}
	s := &Slide{
		Order:   1,
		Section: section.Cover,
		Title:   title,
		TableMD: table,
	}
	assignLayoutHints(s)
	return s
}

func makeAgenda() *Slide {
	s := &Slide{
		Order:   2,
		Section: section.Agenda,
		Title:   "목차",
		TableMD: agendaTable(section.CanonicalOrder),
	}
	assignLayoutHints(s)
	return s
}

func makeThanks(order int, orgName string) *Slide {
	table := "| 항목 | 내용 |\n|---|---|\n| Q&A 진행 | 질의응답 |\n"
	if org := cleanText(orgName); org != "" {
		table += fmt.Sprintf("| 주관기관 | %s |\n", org)
	}
	s := &Slide{
		Order:      order,
		Section:    section.QA,
		Title:      "감사합니다",
		KeyMessage: "질의응답",
		TableMD:    table,
	}
	assignLayoutHints(s)
	return s
}

// makeFiller synthesizes one slide for a section that produced nothing,
// seeding the key message from the section's source chunk when available.
func makeFiller(label section.Label, order int, chunkText string, variant int) *Slide {
	base := strings.ReplaceAll(cleanText(chunkText), "\n", " ")
	if krtext.RuneLen(base) > 120 {
		base = strings.TrimRight(krtext.TruncateRunes(base, 120), " ") + "..."
	}
	title := fmt.Sprintf("%s 핵심 정리", label)
	if variant > 1 {
		title = fmt.Sprintf("%s 핵심 정리 %d", label, variant)
	}
	key := base
	if key == "" {
		key = fmt.Sprintf("%s 핵심 키워드", label)
	}
	s := &Slide{
		Order:      order,
		Section:    label,
		Title:      title,
		KeyMessage: key,
		Bullets:    []string{title, key, "발표 핵심 포인트"},
	}
	assignLayoutHints(s)
	return s
}

// makeRiskSlide is injected right before the Plan section.
func makeRiskSlide(order int) *Slide {
	table := "| 난이도 요인 | 리스크 | 대응 |\n" +
		"|---|---|---|\n" +
		"| 데이터 확보·품질 | 수집 지연, 품질 편차·결측 | QC 체계, 표준화 정제 |\n" +
		"| 핵심 기술 구현 | 구현 난이도·검증 부담 | 모듈 분리, 단계별 성능 검증 |\n" +
		"| 인프라·자원 | 연산시간·자원부하 | 병렬 최적화, 단계별 실행 |\n" +
		"| 일정·협업 | 기관 간 일정 충돌 | 마일스톤 관리, 역할분담 명문화 |\n"
	s := &Slide{
		Order:      order,
		Section:    section.Plan,
		Title:      "기술 난이도·리스크 및 대응",
		KeyMessage: "데이터 품질, 구현 난이도, 일정·협업 관리",
		Bullets: []string{
			"데이터 수집·품질관리(QC) 체계 선행 구축",
			"핵심 기술 모듈 분리 및 단계별 검증",
			"연산 인프라 병렬 최적화·단계별 실행",
			"기관 간 역할분담·마일스톤 기반 일정 관리",
		},
		Evidence: []Evidence{{Type: "출처", Text: evidenceSource}},
		TableMD:  table,
	}
	assignLayoutHints(s)
	return s
}

// makeWhyUsSlide is injected right after the Overview section.
func makeWhyUsSlide(order int) *Slide {
	table := "| 성과 기반 | 데이터·인프라 기반 | 추진체계 기반 |\n" +
		"|---|---|---|\n" +
		"| 선행연구 성과·실적 보유 | 자체 데이터·운영 인프라 | 주관·공동·위탁기관 역할분담 |\n" +
		"| 관련 분야 수행 경험 | 장기 축적 자료 활용 | 제안서 명시 역할 중심 수행 |\n" +
		"| 성과 검증 경험 | 관측·연산 연계 기반 | 단계별 개발·검증 체계 |\n"
	s := &Slide{
		Order:      order,
		Section:    section.Overview,
		Title:      "왜 우리가 해야 하는가(기관역량·수행근거)",
		KeyMessage: "성과 기반, 데이터·인프라 기반, 추진체계 기반",
		Bullets: []string{
			"선행연구 실적 및 관련 분야 수행 경험",
			"자체 보유 데이터·인프라 및 장기 축적 자료",
			"추진체계: 주관·공동·위탁·협력기관 역할분담",
		},
		Evidence: []Evidence{{Type: "출처", Text: evidenceSource}},
		TableMD:  table,
	}
	assignLayoutHints(s)
	return s
}

// makeArchitectureSlide is appended at the end of the Content section and is
// one of the fixed image targets.
func makeArchitectureSlide(order int) *Slide {
	s := &Slide{
		Order:          order,
		Section:        section.Content,
		Title:          "시스템 아키텍처",
		Evidence:       []Evidence{{Type: "출처", Text: evidenceSource}},
		DiagramSpec:    "상단 서비스 계층, 중단 처리·분석 계층, 하단 데이터 계층의 3계층 구성도",
		ImageNeeded:    true,
		ImageType:      "diagram",
		ImagePromptTag: ImageSystemArchitecture,
		ImageTitleOnly: true,
		ImageBrief:     "통합 시스템 아키텍처 구성도",
	}
	assignLayoutHints(s)
	return s
}

// isOrgPlaceholder detects the generator's fixed DB-pending org slide.
func isOrgPlaceholder(s *Slide) bool {
	parts := []string{s.Title, s.KeyMessage}
	parts = append(parts, s.Bullets...)
	blob := strings.ToLower(strings.Join(parts, " "))
	return strings.Contains(blob, "db") || strings.Contains(blob, "연동") ||
		strings.Contains(blob, "대기") || strings.Contains(blob, "자동 반영")
}

// rewriteOrgSlide replaces placeholder org content with an evidence-backed
// capability summary, optionally naming the organization.
func rewriteOrgSlide(s *Slide, orgName string) {
	s.Title = "기관 소개 및 수행역량"
	s.KeyMessage = "선행연구 성과, 보유 인프라, 참여기관 역할분담"
	s.Bullets = []string{
		"선행연구 성과 요약: 관련 분야 연구 실적 및 검증 경험",
		"보유 인프라: 데이터·연산 자원 및 운영 체계",
		"참여기관 역할분담: 주관·공동·위탁·협력기관 역할",
	}
	s.Evidence = []Evidence{{Type: "출처", Text: evidenceSource}}
	table := "| 구분 | 핵심 근거 |\n|---|---|\n" +
		"| 선행연구 성과 | 관련 분야 연구 실적, 성과 검증 경험 |\n" +
		"| 보유 인프라 | 데이터·연산 자원, 운영 체계 |\n" +
		"| 참여기관 역할분담 | 주관·공동·위탁·협력기관 역할 |\n"
	if org := cleanText(orgName); org != "" {
		table += fmt.Sprintf("| 주관기관 | %s |\n", org)
	}
	s.TableMD = table
	s.DiagramSpec = ""
	s.ChartSpec = ""
	s.ImageNeeded = false
	s.ImageType = "none"
	s.ImageBrief = ""
	assignLayoutHints(s)
}

// planExtraBullets pad Plan slides up to the bullet minimum.
var planExtraBullets = []string{
	"핵심 과업 단계별 수행",
	"주요 산출물 및 검증 지표",
	"리스크 대응 및 협업 체계",
}

// ensureMinBullets pads a slide's bullets from its key message, title, and
// fixed extras up to minCount, capping at max(minCount, 5).
func ensureMinBullets(s *Slide, minCount int) {
	var bullets []string
	for _, b := range s.Bullets {
		if p := krtext.MemoPhrase(b); p != "" {
			bullets = append(bullets, p)
		}
	}
	key := krtext.MemoPhrase(s.KeyMessage)
	title := cleanText(s.Title)
	if key != "" && !stringIn(key, bullets) {
		bullets = append(bullets, key)
	}
	if title != "" && !stringIn(title, bullets) {
		bullets = append(bullets, title)
	}
	for _, x := range planExtraBullets {
		if len(bullets) >= minCount {
			break
		}
		if !stringIn(x, bullets) {
			bullets = append(bullets, x)
		}
	}
	limit := minCount
	if limit < 5 {
		limit = 5
	}
	if len(bullets) > limit {
		bullets = bullets[:limit]
	}
	s.Bullets = bullets
}

func stringIn(s string, xs []string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
