// Package postprocess fills the deck's fixed image targets after rendering:
// it generates one diagram image per tagged slide, resizes it to the slide's
// visual slot, and records the file path on the slide. Image failures degrade
// the slide to text-only instead of failing the run.
package postprocess

import (
	"fmt"
	"strings"

	"github.com/jwyang/deckgen/internal/deck"
)

// Shared style base for diagram prompts. Generated images must stay label
// free; readable text comes from the slide itself.
const imagePromptBase = `public-funded national R&D presentation visual
official technical report tone
institutional and credible style
research program briefing material style
non-decorative and evidence-oriented composition

flat vector infographic
presentation diagram
workflow or process illustration
clear logical flow
simple geometric shapes
clean arrows and connections
balanced layout

professional infographic used in government or research presentation

white or light background
limited color palette (blue / teal / gray)
high contrast icons

NO TEXT
NO LETTERS
NO NUMBERS
All boxes must be empty
Do not render any characters

avoid AI-art look
avoid fantasy style
avoid cinematic rendering
avoid 3D render look
no photorealistic
avoid Korean text
no UI screenshots`

const architecturePrompt = `Create a complex system architecture diagram for a Korean government R&D evaluation presentation.
Style: clean 2D vector infographic, institutional/technical report tone, minimal, no decorative art, no 3D, no cinematic lighting, no heavy gradients, no AI-art look.
Background: white or very light gray with generous margins, crisp borders, perfectly aligned.
Layout (three-tier, like a portal/system blueprint):
Left column: four user groups represented only by icons. From each group, draw 1-2 arrows pointing to the central platform.
Center: one large frame containing 3-4 section panels (authentication/roles, service modules, data repositories, unified search/analytics). Inside each panel, place 6-12 small rounded rectangles as modules, densely but neatly arranged, ALL EMPTY (no labels).
Repositories panel: include 6-10 database cylinder icons, NO labels.
Bottom row: 6-8 infrastructure icons aligned horizontally connected with thin lines to the center.
Visual rules: consistent stroke width, right-angle connectors, simple geometric icons, complex yet organized appearance.
Text rule: NO TEXT anywhere (no English, no Korean, no acronyms). Empty boxes only. If any text appears, it is a failure.
Use pictograms or icons to indicate meaning instead of labels.
Output: 16:9 slide-ready, high resolution, sharp vector look.
Negative prompt:
text, letters, numbers, words, labels, captions, acronyms, Korean text, watermark, photorealistic, 3D, cinematic, anime, cartoon, fantasy`

// BuildImagePrompt assembles the generation prompt for one fixed image
// target. Untagged slides get the generic concept-image prompt.
func BuildImagePrompt(deckTitle string, s *deck.Slide) string {
	context := strings.TrimSpace(strings.Join([]string{
		strings.TrimSpace(deckTitle),
		s.Section.String(),
		strings.TrimSpace(s.Title),
	}, " "))

	switch s.ImagePromptTag {
	case deck.ImageSystemArchitecture:
		return architecturePrompt
	case deck.ImagePlanOrgChart:
		return fmt.Sprintf("Create one workflow/process concept image for a presentation slide context: %s.\n", context) +
			imagePromptBase +
			"\nNO TEXT. Use icons and shapes only. Empty panels only." +
			"\nUse pictograms or icons to indicate meaning instead of labels."
	case deck.ImageOverviewLast:
		return fmt.Sprintf("Create one concept image for a presentation slide context: %s.\n", context) +
			`public-funded national R&D presentation visual
official technical report tone
clean 2D vector infographic style
balanced composition with central focus
Fill most of the canvas with content; avoid large empty margins.
MUST use pure white background (#FFFFFF)
no dark background, no black background, no gradient background
limited palette (blue/teal/gray)
English text only if absolutely necessary.
Prefer NO TEXT.
If text is used, at most 2 labels total, each 1-2 English words.
Never use Korean text.
avoid long sentences
avoid photorealistic style
avoid 3D and cinematic look
slide-ready 16:9 composition`
	}
	return fmt.Sprintf("Create one concept image for a presentation slide context: %s.\n", context) +
		imagePromptBase + "\nNO TEXT. Use icons and shapes only."
}
