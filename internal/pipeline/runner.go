package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwyang/deckgen/internal/deck"
	"github.com/jwyang/deckgen/internal/extractor"
	"github.com/jwyang/deckgen/internal/generate"
	"github.com/jwyang/deckgen/internal/noticestore"
	"github.com/jwyang/deckgen/internal/postprocess"
	"github.com/jwyang/deckgen/internal/render"
	"github.com/jwyang/deckgen/internal/section"
)

// RunnerConfig tunes one Runner.
type RunnerConfig struct {
	OutputDir            string
	DefaultRenderMode    string
	DefaultTheme         string
	SaveCheckpoints      bool
	PDFFallbackPdftotext bool

	// MinSlides and MaxSlides override the merger defaults per section.
	MinSlides map[section.Label]int
	MaxSlides map[section.Label]int
}

// Runner executes the full deck pipeline for one job at a time. Notices,
// gamma, and the post-processor are optional; a nil collaborator disables
// that step.
type Runner struct {
	splitter  *section.Splitter
	generator *generate.Generator
	notices   *noticestore.Store
	gamma     *render.GammaClient
	html      *render.HTMLRenderer
	post      *postprocess.Processor
	cfg       RunnerConfig
	log       *slog.Logger
}

func NewRunner(splitter *section.Splitter, generator *generate.Generator,
	notices *noticestore.Store, gamma *render.GammaClient, post *postprocess.Processor,
	cfg RunnerConfig, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	if cfg.DefaultRenderMode == "" {
		cfg.DefaultRenderMode = "gamma"
	}
	return &Runner{
		splitter:  splitter,
		generator: generator,
		notices:   notices,
		gamma:     gamma,
		html:      render.NewHTMLRenderer(),
		post:      post,
		cfg:       cfg,
		log:       log,
	}
}

// Run carries the typed values flowing between stages for a single job. Each
// stage reads the fields of the previous one; a Run is owned by one worker
// and never shared.
type Run struct {
	Job   *Job
	Text  string
	Split *section.Result
	Gen   *generate.Result
	Deck  *deck.Deck

	ArtifactPath string

	log *slog.Logger
}

// Process runs the full pipeline for a job. Failures set the job to failed
// with the stage recorded in the phase; Process never returns an error
// because the job itself is the result.
func (r *Runner) Process(ctx context.Context, job *Job) {
	run := &Run{Job: job, log: r.log.With("job_id", job.ID, "filename", job.Filename)}

	stages := []struct {
		status JobStatus
		phase  string
		fn     func(context.Context, *Run) error
	}{
		{StatusExtracting, "extract", r.extract},
		{StatusSplitting, "split", r.split},
		{StatusGenerating, "generate", r.generateSlides},
		{StatusMerging, "merge", r.merge},
		{StatusRendering, "render", r.renderDeck},
		{StatusPostprocessing, "postprocess", r.postprocessDeck},
	}
	for _, st := range stages {
		job.SetStatus(st.status, st.phase)
		if err := st.fn(ctx, run); err != nil {
			run.log.Error("stage failed", "stage", st.phase, "error", err)
			job.AddError(fmt.Sprintf("%s: %s", st.phase, err))
			job.SetStatus(StatusFailed, st.phase)
			return
		}
	}

	job.SetStatus(StatusCompleted, "done")
	run.log.Info("deck completed",
		"slides", len(run.Deck.Slides), "artifact", run.ArtifactPath)
}

func (r *Runner) extract(_ context.Context, run *Run) error {
	job := run.Job
	ex, err := extractor.ForFile(job.Filename)
	if err != nil {
		return err
	}
	if pdfEx, ok := ex.(*extractor.PDFExtractor); ok {
		pdfEx.FallbackPdftotext = r.cfg.PDFFallbackPdftotext
	}

	text, err := ex.Extract(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return extractor.ErrEmptyDocument
	}
	run.Text = text
	job.clearFileData()
	run.log.Info("extracted source text", "chars", len(text))
	return nil
}

// split never fails: with no usable headings the whole text lands under the
// overview section.
func (r *Runner) split(ctx context.Context, run *Run) error {
	run.Split = r.splitter.Split(ctx, run.Text)
	run.Job.SetSplitDecisions(len(run.Split.Decisions))
	return nil
}

func (r *Runner) generateSlides(ctx context.Context, run *Run) error {
	res, err := r.generator.Generate(ctx, run.Split.Chunks)
	if err != nil {
		return err
	}
	run.Gen = res
	return nil
}

func (r *Runner) merge(ctx context.Context, run *Run) error {
	job := run.Job

	explicit := job.Title
	if explicit == "" {
		explicit = run.Gen.DeckTitle
	}
	d, err := deck.Merge(run.Gen.Sections, deck.Options{
		ExplicitTitle: explicit,
		SourceText:    run.Text,
		SourcePath:    job.Filename,
		OrgName:       r.lookupOrgName(ctx, run),
		SectionChunks: run.Split.Chunks,
		MinSlides:     r.cfg.MinSlides,
		MaxSlides:     r.cfg.MaxSlides,
		Log:           run.log,
	})
	if err != nil {
		return err
	}
	run.Deck = d
	job.SetSlideCount(len(d.Slides))

	if r.cfg.SaveCheckpoints {
		path, err := render.SaveCheckpoint(r.cfg.OutputDir, d)
		if err != nil {
			run.log.Warn("checkpoint save failed", "error", err)
		} else {
			job.SetCheckpoint(path)
			run.log.Info("checkpoint saved", "path", path)
		}
	}
	return nil
}

// lookupOrgName resolves the issuing agency from the notice store. A missing
// store, id, or row skips the injection instead of failing the job.
func (r *Runner) lookupOrgName(ctx context.Context, run *Run) string {
	id := run.Job.NoticeID
	if id == "" || r.notices == nil {
		return ""
	}
	n, err := r.notices.Get(ctx, id)
	if err != nil {
		run.log.Warn("notice lookup failed, org name skipped", "notice_id", id, "error", err)
		return ""
	}
	if n == nil {
		run.log.Warn("notice not found, org name skipped", "notice_id", id)
		return ""
	}
	run.log.Info("org name injected from notice", "notice_id", id, "agency", n.Agency)
	return n.Agency
}

func (r *Runner) renderDeck(ctx context.Context, run *Run) error {
	path, err := r.renderTo(ctx, run)
	if err != nil {
		return err
	}
	run.ArtifactPath = path
	run.Job.SetArtifact(path)
	return nil
}

func (r *Runner) renderTo(ctx context.Context, run *Run) (string, error) {
	base := render.SafeFilename(run.Deck.Title)

	switch r.renderMode(run.Job) {
	case "html":
		return r.html.RenderDeck(run.Deck, filepath.Join(r.cfg.OutputDir, base+".html"))
	case "gamma":
		if r.gamma == nil {
			return "", fmt.Errorf("gamma renderer not configured")
		}
		theme := run.Job.Theme
		if theme == "" {
			theme = r.cfg.DefaultTheme
		}
		inputText := render.BuildInputText(run.Deck)
		return r.gamma.RenderDeck(ctx, inputText, len(run.Deck.Slides), render.RenderOptions{
			Theme:      theme,
			OutputPath: filepath.Join(r.cfg.OutputDir, base+".pptx"),
		})
	default:
		return "", fmt.Errorf("unknown render mode %q", run.Job.RenderMode)
	}
}

// postprocessDeck fills the fixed diagram targets. In html mode the deck is
// re-rendered afterwards so the image slots reference the written files.
func (r *Runner) postprocessDeck(ctx context.Context, run *Run) error {
	if r.post == nil {
		return nil
	}
	applied := r.post.Apply(ctx, run.Deck)
	run.Job.SetImagesApplied(applied)

	if applied > 0 && r.renderMode(run.Job) == "html" {
		// The renderer numbers colliding paths, so drop the stale file first
		// to refresh the artifact in place.
		if err := os.Remove(run.ArtifactPath); err != nil && !os.IsNotExist(err) {
			run.log.Warn("stale artifact removal failed", "error", err)
		}
		path, err := r.html.RenderDeck(run.Deck, run.ArtifactPath)
		if err != nil {
			run.log.Warn("html re-render after images failed", "error", err)
			return nil
		}
		run.ArtifactPath = path
		run.Job.SetArtifact(path)
	}
	return nil
}

func (r *Runner) renderMode(job *Job) string {
	if job.RenderMode != "" {
		return job.RenderMode
	}
	return r.cfg.DefaultRenderMode
}
