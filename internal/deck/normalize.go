package deck

import (
	"sort"

	"github.com/jwyang/deckgen/internal/section"
)

// sectionRank orders sections for presentation: cover, agenda, the canonical
// content sections, then Q&A.
func sectionRank(l section.Label) int {
	switch l {
	case section.Cover:
		return 0
	case section.Agenda:
		return 1
	case section.QA:
		return 2 + len(section.CanonicalOrder)
	}
	for i, c := range section.CanonicalOrder {
		if c == l {
			return 2 + i
		}
	}
	return 1 + len(section.CanonicalOrder)
}

// NormalizeOrder restores a loaded deck to presentation order: slides with
// unknown sections are re-canonicalized from their titles, slides are stably
// re-sorted into section order, numbering becomes contiguous from 1, and the
// agenda table is rebuilt. Used when resuming from a checkpoint whose JSON
// may have been edited or shuffled.
func (d *Deck) NormalizeOrder() {
	for _, s := range d.Slides {
		if s.Section == section.Unknown {
			s.Section = section.Canonicalize("", s.Title)
		}
	}
	sort.SliceStable(d.Slides, func(i, j int) bool {
		ri, rj := sectionRank(d.Slides[i].Section), sectionRank(d.Slides[j].Section)
		if ri != rj {
			return ri < rj
		}
		return d.Slides[i].Order < d.Slides[j].Order
	})
	for i, s := range d.Slides {
		s.Order = i + 1
		if s.Section == section.Agenda {
			s.TableMD = agendaTable(section.CanonicalOrder)
		}
	}
}
