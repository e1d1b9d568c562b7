package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jwyang/deckgen/internal/api"
	"github.com/jwyang/deckgen/internal/config"
	"github.com/jwyang/deckgen/internal/gemini"
	"github.com/jwyang/deckgen/internal/generate"
	"github.com/jwyang/deckgen/internal/noticestore"
	"github.com/jwyang/deckgen/internal/pipeline"
	"github.com/jwyang/deckgen/internal/postprocess"
	"github.com/jwyang/deckgen/internal/render"
	"github.com/jwyang/deckgen/internal/section"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		log.Error("invalid rules file", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Shared Gemini client: text generation, section reclassification, and
	// diagram images all go through it.
	client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, log)
	if err != nil {
		log.Error("gemini client init failed", "error", err)
		os.Exit(1)
	}

	notices, err := noticestore.Open(cfg.NoticeDBPath)
	if err != nil {
		log.Error("notice store open failed", "path", cfg.NoticeDBPath, "error", err)
		os.Exit(1)
	}

	var gamma *render.GammaClient
	if cfg.GammaAPIKey != "" {
		gamma = render.NewGammaClient(cfg.GammaBaseURL, cfg.GammaAPIKey, log)
		gamma.SetPollTimeout(cfg.RenderTimeout)
	}

	classifier := gemini.NewSectionClassifier(client, cfg.GeminiModel)
	splitter := section.NewSplitter(classifier, rules.Keywords, log)
	generator := generate.New(client, generate.Config{Model: cfg.GeminiModel}, log)
	post := postprocess.NewProcessor(client, cfg.GeminiImageModel, cfg.OutputDir, log)

	runner := pipeline.NewRunner(splitter, generator, notices, gamma, post, pipeline.RunnerConfig{
		OutputDir:            cfg.OutputDir,
		DefaultRenderMode:    cfg.DefaultRenderMode,
		DefaultTheme:         cfg.GammaTheme,
		SaveCheckpoints:      cfg.SaveCheckpoints,
		PDFFallbackPdftotext: cfg.PDFFallbackPdftotext,
		MinSlides:            rules.MinSlides,
		MaxSlides:            rules.MaxSlides,
	}, log)

	orch := pipeline.NewOrchestrator(runner, cfg.WorkerCount, cfg.MaxQueueSize, cfg.JobTTL, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, notices, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		client.Close()
		notices.Close()
	}()

	log.Info("starting deckgen", "port", cfg.Port, "render_mode", cfg.DefaultRenderMode)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
