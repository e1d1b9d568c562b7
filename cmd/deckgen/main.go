// Command deckgen runs the proposal-to-deck pipeline once, without the HTTP
// service: extract, split, generate, merge, render, postprocess. A saved
// checkpoint can be resumed at the render stage after hand-editing.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/jwyang/deckgen/internal/config"
	"github.com/jwyang/deckgen/internal/deck"
	"github.com/jwyang/deckgen/internal/extractor"
	"github.com/jwyang/deckgen/internal/gemini"
	"github.com/jwyang/deckgen/internal/generate"
	"github.com/jwyang/deckgen/internal/noticestore"
	"github.com/jwyang/deckgen/internal/postprocess"
	"github.com/jwyang/deckgen/internal/render"
	"github.com/jwyang/deckgen/internal/section"
)

func main() {
	var (
		source      = flag.String("source", "", "proposal file (.pdf/.docx/.json/.txt/.md/.html)")
		noticeID    = flag.String("notice-id", "", "notice id for org-name injection")
		renderMode  = flag.String("render", "", "render mode: gamma or html (default from RENDER_MODE)")
		checkpoint  = flag.String("checkpoint", "", "resume from a saved deck checkpoint instead of -source")
		prepareOnly = flag.Bool("prepare-only", false, "stop after merging and saving the checkpoint")
		theme       = flag.String("theme", "", "gamma theme name or id")
		title       = flag.String("title", "", "explicit deck title")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := config.Load()
	if *renderMode == "" {
		*renderMode = cfg.DefaultRenderMode
	}
	if *theme == "" {
		*theme = cfg.GammaTheme
	}

	if err := run(cfg, *source, *noticeID, *renderMode, *checkpoint, *theme, *title, *prepareOnly, log); err != nil {
		log.Error("deckgen failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, source, noticeID, renderMode, checkpoint, theme, title string, prepareOnly bool, log *slog.Logger) error {
	ctx := context.Background()

	if checkpoint == "" && source == "" {
		return fmt.Errorf("either -source or -checkpoint is required")
	}
	if renderMode != "gamma" && renderMode != "html" {
		return fmt.Errorf("render mode must be gamma or html, got %q", renderMode)
	}

	var client *gemini.Client
	if cfg.GeminiAPIKey != "" {
		c, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, log)
		if err != nil {
			return fmt.Errorf("gemini client: %w", err)
		}
		defer c.Close()
		client = c
	}

	var d *deck.Deck
	if checkpoint != "" {
		loaded, err := render.LoadCheckpoint(checkpoint)
		if err != nil {
			return fmt.Errorf("load checkpoint: %w", err)
		}
		d = loaded
		log.Info("checkpoint loaded", "path", checkpoint, "slides", len(d.Slides))
	} else {
		merged, err := prepare(ctx, cfg, client, source, noticeID, title, log)
		if err != nil {
			return err
		}
		d = merged
		path, err := render.SaveCheckpoint(cfg.OutputDir, d)
		if err != nil {
			log.Warn("checkpoint save failed", "error", err)
		} else {
			log.Info("checkpoint saved", "path", path)
		}
	}

	if prepareOnly {
		log.Info("prepare-only run complete", "slides", len(d.Slides))
		return nil
	}

	base := render.SafeFilename(d.Title)
	var artifact string
	switch renderMode {
	case "html":
		path, err := render.NewHTMLRenderer().RenderDeck(d, filepath.Join(cfg.OutputDir, base+".html"))
		if err != nil {
			return fmt.Errorf("render html: %w", err)
		}
		artifact = path
	case "gamma":
		if cfg.GammaAPIKey == "" {
			return fmt.Errorf("GAMMA_API_KEY is required for gamma rendering")
		}
		gamma := render.NewGammaClient(cfg.GammaBaseURL, cfg.GammaAPIKey, log)
		gamma.SetPollTimeout(cfg.RenderTimeout)
		path, err := gamma.RenderDeck(ctx, render.BuildInputText(d), len(d.Slides), render.RenderOptions{
			Theme:      theme,
			OutputPath: filepath.Join(cfg.OutputDir, base+".pptx"),
		})
		if err != nil {
			return fmt.Errorf("render gamma: %w", err)
		}
		artifact = path
	}
	log.Info("deck rendered", "path", artifact, "slides", len(d.Slides))

	if client != nil {
		post := postprocess.NewProcessor(client, cfg.GeminiImageModel, cfg.OutputDir, log)
		applied := post.Apply(ctx, d)
		log.Info("diagram images applied", "count", applied)
		if applied > 0 && renderMode == "html" {
			// Refresh the artifact in place so image slots resolve.
			os.Remove(artifact)
			if _, err := render.NewHTMLRenderer().RenderDeck(d, artifact); err != nil {
				log.Warn("html re-render after images failed", "error", err)
			}
		}
	}
	return nil
}

// prepare runs extract through merge for a source document and returns the
// merged deck.
func prepare(ctx context.Context, cfg config.Config, client *gemini.Client, source, noticeID, title string, log *slog.Logger) (*deck.Deck, error) {
	if client == nil {
		return nil, fmt.Errorf("GEMINI_API_KEY is required to generate from -source")
	}
	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, err
	}

	text, err := extractor.ExtractFile(source)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", source, err)
	}
	log.Info("source extracted", "path", source, "chars", len(text))

	classifier := gemini.NewSectionClassifier(client, cfg.GeminiModel)
	split := section.NewSplitter(classifier, rules.Keywords, log).Split(ctx, text)
	log.Info("sections split", "decisions", len(split.Decisions))

	gen, err := generate.New(client, generate.Config{Model: cfg.GeminiModel}, log).Generate(ctx, split.Chunks)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	explicit := title
	if explicit == "" {
		explicit = gen.DeckTitle
	}
	d, err := deck.Merge(gen.Sections, deck.Options{
		ExplicitTitle: explicit,
		SourceText:    text,
		SourcePath:    source,
		OrgName:       lookupOrgName(ctx, cfg, noticeID, log),
		SectionChunks: split.Chunks,
		MinSlides:     rules.MinSlides,
		MaxSlides:     rules.MaxSlides,
		Log:           log,
	})
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	log.Info("deck merged", "title", d.Title, "slides", len(d.Slides))
	return d, nil
}

func lookupOrgName(ctx context.Context, cfg config.Config, noticeID string, log *slog.Logger) string {
	if noticeID == "" {
		return ""
	}
	store, err := noticestore.Open(cfg.NoticeDBPath)
	if err != nil {
		log.Warn("notice store open failed, org name skipped", "error", err)
		return ""
	}
	defer store.Close()
	n, err := store.Get(ctx, noticeID)
	if err != nil || n == nil {
		log.Warn("notice not found, org name skipped", "notice_id", noticeID)
		return ""
	}
	return n.Agency
}
