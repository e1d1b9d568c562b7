package deck

import (
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/jwyang/deckgen/internal/section"
)

// ErrNoSlides is returned when the generator produced no slides for any
// section at all.
var ErrNoSlides = errors.New("no generated slides in any section")

// DefaultMinSlides is the per-section minimum the merger backfills to.
var DefaultMinSlides = map[section.Label]int{
	section.OrgIntro:   1,
	section.Overview:   1,
	section.Necessity:  3,
	section.Goals:      2,
	section.Content:    5,
	section.Plan:       2,
	section.Impact:     2,
	section.Commercial: 2,
}

// DefaultMaxSlides caps sections that tend to overrun; zero means no cap.
var DefaultMaxSlides = map[section.Label]int{
	section.Commercial: 6,
}

// Options configures one merge.
type Options struct {
	// ExplicitTitle is the deck title reported by the generator, if any.
	ExplicitTitle string
	// SourceText feeds the title extraction fallback.
	SourceText string
	// SourcePath feeds the filename title fallback.
	SourcePath string
	// OrgName, when set, is stamped into the cover/thanks/org tables.
	OrgName string
	// SectionChunks seed filler slides with source text.
	SectionChunks map[section.Label]string
	// MinSlides and MaxSlides override the defaults per section.
	MinSlides map[section.Label]int
	MaxSlides map[section.Label]int

	Log *slog.Logger
}

var dedupeSpaceRE = regexp.MustCompile(`\s+`)

// Merge assembles the final deck from per-section generated slides. It fails
// only when every section is empty; everything else is repaired in place.
func Merge(sections map[section.Label][]*Slide, opts Options) (*Deck, error) {
	total := 0
	for _, ss := range sections {
		total += len(ss)
	}
	if total == 0 {
		return nil, ErrNoSlides
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	title := ResolveTitle(opts.ExplicitTitle, opts.SourceText, opts.SourcePath)
	mins := resolveLimits(DefaultMinSlides, opts.MinSlides, 1)
	maxs := resolveLimits(DefaultMaxSlides, opts.MaxSlides, 0)

	slides := []*Slide{makeCover(title, opts.OrgName), makeAgenda()}
	order := 3

	for _, label := range section.CanonicalOrder {
		valid := validateSection(label, sections[label])

		if max := maxs[label]; max > 0 && len(valid) > max {
			log.Debug("section capped", "section", label.String(), "from", len(valid), "to", max)
			valid = valid[:max]
		}

		if len(valid) == 0 {
			valid = []*Slide{makeFiller(label, order, opts.SectionChunks[label], 1)}
		}

		if label == section.OrgIntro {
			replaced := false
			for _, s := range valid {
				if isOrgPlaceholder(s) {
					rewriteOrgSlide(s, opts.OrgName)
					replaced = true
				}
			}
			if !replaced {
				rewriteOrgSlide(valid[0], opts.OrgName)
			}
		}

		min := mins[label]
		if min < 1 {
			min = 1
		}
		for len(valid) < min {
			valid = append(valid, makeFiller(label, order+len(valid), opts.SectionChunks[label], len(valid)+1))
		}

		if label == section.Plan {
			risk := makeRiskSlide(order)
			order++
			slides = append(slides, risk)
		}

		for _, s := range valid {
			s.Order = order
			order++
			if label == section.Plan {
				ensureMinBullets(s, 3)
			}
			assignLayoutHints(s)
			slides = append(slides, s)
		}

		switch label {
		case section.Content:
			arch := makeArchitectureSlide(order)
			order++
			slides = append(slides, arch)
		case section.Overview:
			why := makeWhyUsSlide(order)
			order++
			slides = append(slides, why)
		}
	}

	slides = append(slides, makeThanks(order, opts.OrgName))
	forceFixedImageTargets(slides)

	return &Deck{Title: title, Slides: slides}, nil
}

// validateSection normalizes, validates, and dedupes one section's slides,
// keeping the first occurrence of each title.
func validateSection(label section.Label, raw []*Slide) []*Slide {
	var valid []*Slide
	seen := make(map[string]bool)
	for _, s := range raw {
		if s == nil {
			continue
		}
		c := s.clone()
		c.Section = label
		if !c.normalize() {
			continue
		}
		key := dedupeSpaceRE.ReplaceAllString(strings.ToLower(cleanText(c.Title)), "")
		if key != "" {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		valid = append(valid, c)
	}
	return valid
}

func resolveLimits(defaults, overrides map[section.Label]int, floor int) map[section.Label]int {
	out := make(map[section.Label]int, len(defaults))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range overrides {
		if _, known := DefaultMinSlides[k]; !known {
			continue
		}
		if v < floor {
			v = floor
		}
		out[k] = v
	}
	return out
}
