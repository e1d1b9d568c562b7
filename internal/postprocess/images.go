package postprocess

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"

	"github.com/jwyang/deckgen/internal/deck"
)

// DefaultImageModel is the image-capable generation model.
const DefaultImageModel = "gemini-2.5-flash-image"

// Slot pixel sizes per image target on a 1280x720 slide.
var slotSizes = map[string][2]int{
	deck.ImageOverviewLast:       {896, 432},
	deck.ImagePlanOrgChart:       {1126, 518},
	deck.ImageSystemArchitecture: {1126, 532},
}

// ImageGenerator is the model call the processor depends on; satisfied by
// *gemini.Client.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, model, prompt string) ([]byte, string, error)
}

// Processor generates and places the fixed-target diagram images.
type Processor struct {
	gen       ImageGenerator
	model     string
	outputDir string
	log       *slog.Logger
}

func NewProcessor(gen ImageGenerator, model, outputDir string, log *slog.Logger) *Processor {
	if model == "" {
		model = DefaultImageModel
	}
	if log == nil {
		log = slog.Default()
	}
	return &Processor{gen: gen, model: model, outputDir: outputDir, log: log}
}

// Apply fills every tagged image slot in the deck. Per-slide failures
// downgrade that slide to text-only and continue; the returned count is the
// number of images written.
func (p *Processor) Apply(ctx context.Context, d *deck.Deck) int {
	done := 0
	for _, s := range d.Slides {
		if s.ImagePromptTag == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			p.downgrade(s)
			continue
		}
		path, err := p.renderTarget(ctx, d.Title, s)
		if err != nil {
			p.log.Warn("diagram image failed, slide downgraded to text",
				"order", s.Order, "tag", s.ImagePromptTag, "error", err)
			p.downgrade(s)
			continue
		}
		s.ImagePath = path
		s.ImageNeeded = true
		s.ImageType = "diagram"
		done++
	}
	stripPlaceholderMarkers(d)
	return done
}

func (p *Processor) renderTarget(ctx context.Context, deckTitle string, s *deck.Slide) (string, error) {
	prompt := BuildImagePrompt(deckTitle, s)
	raw, mime, err := p.gen.GenerateImage(ctx, p.model, prompt)
	if err != nil {
		return "", err
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("decode %s image: %w", mime, err)
	}
	img = resizeToSlot(img, s.ImagePromptTag)

	dir := filepath.Join(p.outputDir, "images")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("slide_%02d_%s.png", s.Order, s.ImagePromptTag))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

func (p *Processor) downgrade(s *deck.Slide) {
	s.ImageNeeded = false
	s.ImageType = "none"
	s.ImagePath = ""
	s.Layout = "text_only"
	s.VisualSlot = "none"
}

// resizeToSlot scales the image to the target's slot size with CatmullRom,
// which keeps diagram edges crisp enough at slide resolution.
func resizeToSlot(src image.Image, tag string) image.Image {
	size, ok := slotSizes[tag]
	if !ok {
		return src
	}
	b := src.Bounds()
	if b.Dx() == size[0] && b.Dy() == size[1] {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, size[0], size[1]))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

// Leftover generator placeholders that must never reach the final deck.
var placeholderMarkers = []string{"연동 대기", "자동 반영", "(미기재)"}

// stripPlaceholderMarkers removes bullets and key messages that still carry
// DB-pending placeholder text after the merge.
func stripPlaceholderMarkers(d *deck.Deck) {
	for _, s := range d.Slides {
		var bullets []string
		for _, b := range s.Bullets {
			if containsMarker(b) {
				continue
			}
			bullets = append(bullets, b)
		}
		s.Bullets = bullets
		if containsMarker(s.KeyMessage) {
			s.KeyMessage = ""
		}
	}
}

func containsMarker(s string) bool {
	for _, m := range placeholderMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
