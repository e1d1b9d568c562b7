// Package deck merges per-section slide lists into a finalized presentation
// deck: cover and agenda up front, per-section validation and filler slides,
// injected structural slides, layout hints, and the fixed image targets.
package deck

import (
	"encoding/json"

	"github.com/jwyang/deckgen/internal/krtext"
	"github.com/jwyang/deckgen/internal/section"
)

// Image prompt tags for the three fixed image targets.
const (
	ImageOverviewLast       = "overview_last"
	ImagePlanOrgChart       = "plan_orgchart"
	ImageSystemArchitecture = "system_architecture"
)

// Evidence is one sourced claim attached to a slide.
type Evidence struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Slide is one finalized slide specification.
type Slide struct {
	Order      int             `json:"order"`
	Section    section.Label   `json:"section"`
	Title      string          `json:"slide_title"`
	KeyMessage string          `json:"key_message"`
	Bullets    []string        `json:"bullets"`
	Evidence   []Evidence      `json:"evidence,omitempty"`

	TableMD     string `json:"table_md,omitempty"`
	DiagramSpec string `json:"diagram_spec,omitempty"`
	ChartSpec   string `json:"chart_spec,omitempty"`

	ImageNeeded    bool   `json:"image_needed"`
	ImageType      string `json:"image_type"`
	ImagePromptTag string `json:"image_prompt_type,omitempty"`
	ImageTitleOnly bool   `json:"image_title_only,omitempty"`
	ImageBrief     string `json:"image_brief,omitempty"`
	ImagePath      string `json:"image_path,omitempty"`

	Layout         string `json:"layout"`
	SlideLayout    string `json:"slide_layout"`
	VisualSlot     string `json:"visual_slot"`
	ContentDensity string `json:"content_density"`
}

// Deck is the pipeline's central artifact between merging and rendering.
type Deck struct {
	Title  string   `json:"deck_title"`
	Slides []*Slide `json:"slides"`
}

// UnmarshalJSON canonicalizes the section field so checkpoints written with
// variant or unknown section names still load onto a known label.
func (s *Slide) UnmarshalJSON(b []byte) error {
	type alias Slide
	aux := struct {
		*alias
		Section string `json:"section"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if l, ok := section.ParseLabel(aux.Section); ok {
		s.Section = l
	} else {
		s.Section = section.Canonicalize(aux.Section, aux.Title)
	}
	return nil
}

// HasStructuredVisual reports whether the slide carries a table, diagram, or
// chart spec.
func (s *Slide) HasStructuredVisual() bool {
	return cleanText(s.TableMD) != "" || cleanText(s.DiagramSpec) != "" || cleanText(s.ChartSpec) != ""
}

// normalize cleans titles, key message, and bullets in place and reports
// whether the slide is valid: at least 3 bullets or a structured visual.
func (s *Slide) normalize() bool {
	var bullets []string
	for _, b := range s.Bullets {
		if p := krtext.MemoPhrase(cleanText(b)); p != "" {
			bullets = append(bullets, p)
		}
	}
	s.Bullets = bullets
	s.Title = cleanText(s.Title)
	s.KeyMessage = krtext.MemoPhrase(cleanText(s.KeyMessage))
	return len(bullets) >= 3 || s.HasStructuredVisual()
}

// clone returns a shallow copy with its own bullet and evidence slices.
func (s *Slide) clone() *Slide {
	c := *s
	c.Bullets = append([]string(nil), s.Bullets...)
	c.Evidence = append([]Evidence(nil), s.Evidence...)
	return &c
}
