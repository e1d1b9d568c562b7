// Package render turns a finalized deck into a presentation artifact, either
// through the gamma generation API (pptx) or a local standalone HTML file.
package render

import (
	"fmt"
	"strings"

	"github.com/jwyang/deckgen/internal/deck"
)

const (
	maxInputBullets  = 7
	maxInputEvidence = 3
)

// BuildInputText renders the deck as the delimited text the generation API
// consumes: a [DECK] header with absolute rules, then one [SLIDE i/N] block
// per slide. Block boundaries drive card splitting, so the block markers must
// stay exactly as written here.
func BuildInputText(d *deck.Deck) string {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		title = "발표자료"
	}
	n := len(d.Slides)

	var header strings.Builder
	fmt.Fprintf(&header, "[DECK]\nDECK_TITLE: %s\nTOTAL_SLIDES: %d\n\n", title, n)
	header.WriteString("ABSOLUTE RULES:\n")
	fmt.Fprintf(&header, "- 정확히 %d장만 생성. 추가/삭제/분할/병합 금지.\n", n)
	header.WriteString("- 슬라이드 순서 변경 금지.\n")
	header.WriteString("- 사진/실사/캐릭터/배경 이미지 생성 금지.\n")
	header.WriteString("- 빈 이미지 placeholder(회색 박스, 깨진 아이콘) 생성 금지.\n")
	header.WriteString("- 텍스트는 한국어 중심으로 작성(고유명사/약어만 예외).\n")
	header.WriteString("[/DECK]")

	blocks := make([]string, 0, n)
	for i, s := range d.Slides {
		blocks = append(blocks, slideBlock(s, i+1, n))
	}
	return header.String() + "\n\n" + strings.Join(blocks, "\n\n---\n\n")
}

func slideBlock(s *deck.Slide, i, n int) string {
	slideTitle := strings.TrimSpace(s.Title)
	if slideTitle == "" {
		slideTitle = "슬라이드"
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("[SLIDE %d/%d]", i, n))
	lines = append(lines, "SECTION: "+s.Section.String())
	lines = append(lines, "TITLE: "+slideTitle)
	if km := strings.TrimSpace(s.KeyMessage); km != "" {
		lines = append(lines, "KEY_MESSAGE: "+km)
	}
	lines = append(lines, "SLIDE_LAYOUT: "+s.SlideLayout)
	lines = append(lines, "VISUAL_SLOT: "+s.VisualSlot)
	lines = append(lines, "CONTENT_DENSITY: "+s.ContentDensity)
	lines = append(lines, fmt.Sprintf("IMAGE_NEEDED: %v", s.ImageNeeded))
	imageType := s.ImageType
	if imageType == "" {
		imageType = "none"
	}
	lines = append(lines, "IMAGE_TYPE: "+imageType)
	if brief := strings.TrimSpace(s.ImageBrief); brief != "" {
		lines = append(lines, "IMAGE_BRIEF_KO: "+brief)
	}

	lines = append(lines, "BULLETS:")
	count := 0
	for _, b := range s.Bullets {
		if b = strings.TrimSpace(b); b == "" {
			continue
		}
		lines = append(lines, "- "+b)
		if count++; count >= maxInputBullets {
			break
		}
	}

	if len(s.Evidence) > 0 {
		var evLines []string
		for _, ev := range s.Evidence {
			if len(evLines) >= maxInputEvidence {
				break
			}
			text := strings.TrimSpace(ev.Text)
			if text == "" {
				continue
			}
			typ := strings.TrimSpace(ev.Type)
			if typ == "" {
				typ = "근거"
			}
			evLines = append(evLines, fmt.Sprintf("- (%s) %s", typ, text))
		}
		if len(evLines) > 0 {
			lines = append(lines, "EVIDENCE:")
			lines = append(lines, evLines...)
		}
	}

	if t := strings.TrimSpace(s.TableMD); t != "" {
		lines = append(lines, "TABLE_MD:", t)
	}
	if t := strings.TrimSpace(s.DiagramSpec); t != "" {
		lines = append(lines, "DIAGRAM_SPEC_KO:", t)
	}
	if t := strings.TrimSpace(s.ChartSpec); t != "" {
		lines = append(lines, "CHART_SPEC_KO:", t)
	}

	lines = append(lines, "[ENDSLIDE]")
	return strings.Join(lines, "\n")
}
