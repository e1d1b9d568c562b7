package deck

import (
	"strings"

	"github.com/jwyang/deckgen/internal/krtext"
	"github.com/jwyang/deckgen/internal/section"
)

// Layout values on a finalized slide.
const (
	LayoutTextOnly  = "text_only"
	LayoutTextImage = "text_image"

	SlideLayoutCover        = "cover"
	SlideLayoutAgenda       = "agenda"
	SlideLayoutTableFocus   = "table_focus"
	SlideLayoutDiagramFocus = "diagram_focus"
	SlideLayoutTextImage    = "text_image"
	SlideLayoutTextOnly     = "text_only"

	VisualSlotNone       = "none"
	VisualSlotRightLarge = "right_large"

	DensityLow  = "low"
	DensityMid  = "mid"
	DensityHigh = "high"
)

var imageKeywords = []string{"구조", "개요", "흐름", "플랫폼", "서비스", "아키텍처", "시스템"}
var imageDenyKeywords = []string{"조직도", "복잡한 구성도", "시장 분석", "예산"}
var imageDenySections = map[section.Label]bool{section.Goals: true}

func cleanText(v string) string {
	t := krtext.Normalize(v)
	t = strings.ReplaceAll(t, "(미기재)", "")
	t = strings.ReplaceAll(t, "미기재", "")
	return strings.Trim(t, " -:|")
}

// isImageCandidate decides whether a slide's text suggests a generated
// visual. Slides with structured specs draw those instead.
func isImageCandidate(s *Slide) bool {
	if imageDenySections[s.Section] {
		return false
	}
	if s.HasStructuredVisual() {
		return false
	}
	parts := []string{cleanText(s.Title), cleanText(s.KeyMessage)}
	for _, b := range s.Bullets {
		parts = append(parts, cleanText(b))
	}
	blob := strings.Join(parts, " ")
	if containsAny(blob, imageDenyKeywords) {
		return false
	}
	return containsAny(blob, imageKeywords)
}

// assignLayoutHints fills the image flags and the layout contract fields
// from the slide's content and section.
func assignLayoutHints(s *Slide) {
	hasTable := cleanText(s.TableMD) != ""
	hasDiag := cleanText(s.DiagramSpec) != ""
	hasChart := cleanText(s.ChartSpec) != ""

	s.ImageNeeded = isImageCandidate(s)
	if s.ImageNeeded {
		s.ImageType = "diagram"
		if cleanText(s.ImageBrief) == "" {
			s.ImageBrief = "구조/개요/흐름 중심의 발표용 벡터 인포그래픽"
		}
	} else {
		s.ImageType = "none"
	}

	if s.Section.Structural() || !s.ImageNeeded {
		s.Layout = LayoutTextOnly
	} else {
		s.Layout = LayoutTextImage
	}

	switch {
	case s.Section == section.Cover:
		s.SlideLayout, s.VisualSlot = SlideLayoutCover, VisualSlotNone
	case s.Section == section.Agenda:
		s.SlideLayout, s.VisualSlot = SlideLayoutAgenda, VisualSlotNone
	case hasTable && !hasDiag && !hasChart:
		s.SlideLayout, s.VisualSlot = SlideLayoutTableFocus, VisualSlotNone
	case hasDiag || hasChart:
		s.SlideLayout, s.VisualSlot = SlideLayoutDiagramFocus, VisualSlotRightLarge
	case s.Layout == LayoutTextImage:
		s.SlideLayout, s.VisualSlot = SlideLayoutTextImage, VisualSlotRightLarge
	default:
		s.SlideLayout, s.VisualSlot = SlideLayoutTextOnly, VisualSlotNone
	}

	switch n := len(s.Bullets); {
	case n <= 2:
		s.ContentDensity = DensityLow
	case n >= 5:
		s.ContentDensity = DensityHigh
	default:
		s.ContentDensity = DensityMid
	}
}

// forceFixedImageTargets clears every image flag and then marks exactly
// three slides: the last Overview slide, the last Plan slide (org chart),
// and the Content slide titled 시스템 아키텍처. Sections below minimum may
// yield fewer targets, never more.
func forceFixedImageTargets(slides []*Slide) {
	for _, s := range slides {
		s.ImageNeeded = false
		s.ImageType = "none"
		if s.Layout == LayoutTextImage {
			s.Layout = LayoutTextOnly
			s.SlideLayout = SlideLayoutTextOnly
			s.VisualSlot = VisualSlotNone
		}
	}

	overviewLast, planLast := -1, -1
	for i, s := range slides {
		switch s.Section {
		case section.Overview:
			overviewLast = i
		case section.Plan:
			planLast = i
		}
	}

	mark := func(s *Slide, tag string) {
		s.ImageNeeded = true
		s.ImageType = "diagram"
		s.ImagePromptTag = tag
		s.Layout = LayoutTextImage
		s.SlideLayout = SlideLayoutTextImage
		s.VisualSlot = VisualSlotRightLarge
	}

	archMarked := false
	for i, s := range slides {
		switch {
		case i == overviewLast && overviewLast >= 0:
			mark(s, ImageOverviewLast)
		case i == planLast && planLast >= 0:
			mark(s, ImagePlanOrgChart)
		case !archMarked && s.Section == section.Content && strings.Contains(s.Title, "시스템 아키텍처"):
			mark(s, ImageSystemArchitecture)
			s.ImageTitleOnly = true
			archMarked = true
		}
	}
}
