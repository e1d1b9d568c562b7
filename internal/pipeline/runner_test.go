package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jwyang/deckgen/internal/gemini"
	"github.com/jwyang/deckgen/internal/generate"
	"github.com/jwyang/deckgen/internal/noticestore"
	"github.com/jwyang/deckgen/internal/postprocess"
	"github.com/jwyang/deckgen/internal/section"
)

type stubText struct {
	response string
}

func (s *stubText) GenerateText(_ context.Context, _ string, _ gemini.GenConfig, _ ...string) (string, error) {
	return s.response, nil
}

type stubImages struct{}

func (stubImages) GenerateImage(_ context.Context, _, _ string) ([]byte, string, error) {
	img := image.NewRGBA(image.Rect(0, 0, 32, 18))
	for y := 0; y < 18; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 100, B: 180, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "image/png", nil
}

func overviewResponse() string {
	return strings.Join([]string{
		"DECK_TITLE: 지능형 해양 예측 플랫폼",
		"",
		"SLIDE",
		"SECTION: 연구 개요",
		"TITLE: 과제 개요 정리",
		"KEY_MESSAGE: 핵심, 방향, 계획",
		"BULLETS:",
		"- 데이터 확보 체계 구축",
		"- 단계별 검증 수행 예정",
		"- 산출물 및 지표 정의",
		"ENDSLIDE",
	}, "\n")
}

func testRunner(t *testing.T, outDir string) (*Runner, *noticestore.Store) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	notices, err := noticestore.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { notices.Close() })

	splitter := section.NewSplitter(nil, nil, log)
	generator := generate.New(&stubText{response: overviewResponse()}, generate.Config{Model: "test-model"}, log)
	post := postprocess.NewProcessor(stubImages{}, "test-image-model", outDir, log)

	r := NewRunner(splitter, generator, notices, nil, post, RunnerConfig{
		OutputDir:         outDir,
		DefaultRenderMode: "html",
		SaveCheckpoints:   true,
	}, log)
	return r, notices
}

func TestRunnerFullHTMLRun(t *testing.T) {
	dir := t.TempDir()
	r, notices := testRunner(t, dir)
	ctx := context.Background()

	if err := notices.Put(ctx, &noticestore.Notice{
		ID:     "notice-7",
		Agency: "한국해양과학기술원",
	}); err != nil {
		t.Fatal(err)
	}

	job := &Job{
		ID:         NewJobID(),
		Filename:   "제안서.txt",
		NoticeID:   "notice-7",
		RenderMode: "html",
		Status:     StatusQueued,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	job.SetFileData([]byte("해양 예측 플랫폼 구축을 위한 제안서 본문.\n데이터 수집과 모델 개발, 검증 체계를 다룬다.\n"))

	r.Process(ctx, job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("status = %q, phase = %q, errors = %v", snap.Status, snap.Phase, snap.Progress.Errors)
	}
	if snap.Progress.SlideCount < 5 {
		t.Errorf("slide count = %d", snap.Progress.SlideCount)
	}
	if snap.Progress.SplitDecisions == 0 {
		t.Error("split decisions not recorded")
	}
	// The merger forces exactly the three fixed diagram targets.
	if snap.Progress.ImagesApplied != 3 {
		t.Errorf("images applied = %d, want 3", snap.Progress.ImagesApplied)
	}
	if snap.Progress.CheckpointPath == "" {
		t.Error("checkpoint path not recorded")
	}
	if _, err := os.Stat(snap.Progress.CheckpointPath); err != nil {
		t.Errorf("checkpoint missing: %v", err)
	}

	artifact := snap.Progress.ArtifactPath
	if !strings.HasSuffix(artifact, ".html") {
		t.Fatalf("artifact = %q", artifact)
	}
	data, err := os.ReadFile(artifact)
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)
	if !strings.Contains(html, "한국해양과학기술원") {
		t.Error("agency from notice must appear in the rendered deck")
	}
	if !strings.Contains(html, "images/") {
		t.Error("re-rendered html must reference generated images")
	}
	// Upload bytes are dropped after extraction.
	if job.FileData() != nil {
		t.Error("file data must be cleared after extract")
	}
}

func TestRunnerMissingNoticeNonFatal(t *testing.T) {
	dir := t.TempDir()
	r, _ := testRunner(t, dir)

	job := &Job{
		ID:         NewJobID(),
		Filename:   "제안서.txt",
		NoticeID:   "no-such-notice",
		RenderMode: "html",
		Status:     StatusQueued,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	job.SetFileData([]byte("제안서 본문 텍스트. 연구 목표와 추진 체계를 담고 있다.\n"))

	r.Process(context.Background(), job)

	if job.Snapshot().Status != StatusCompleted {
		t.Fatalf("missing notice must not fail the job: %+v", job.Snapshot())
	}
}

func TestRunnerUnsupportedExtensionFails(t *testing.T) {
	r, _ := testRunner(t, t.TempDir())

	job := &Job{
		ID:        NewJobID(),
		Filename:  "slides.pptx",
		Status:    StatusQueued,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	job.SetFileData([]byte("binary"))

	r.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("status = %q", snap.Status)
	}
	if snap.Phase != "extract" {
		t.Errorf("phase = %q", snap.Phase)
	}
	if len(snap.Progress.Errors) == 0 {
		t.Error("expected a recorded error")
	}
}

func TestOrchestratorQueueFull(t *testing.T) {
	r, _ := testRunner(t, t.TempDir())
	o := NewOrchestrator(r, 1, 1, time.Hour, nil)
	// Not started: nothing drains the queue.

	first := &Job{ID: "q-1", Status: StatusQueued, UpdatedAt: time.Now()}
	if err := o.Submit(first); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second := &Job{ID: "q-2", Status: StatusQueued, UpdatedAt: time.Now()}
	if err := o.Submit(second); err == nil {
		t.Fatal("expected queue-full rejection")
	}
	if second.Status != StatusFailed || second.Phase != "queue_full" {
		t.Errorf("rejected job state = %q/%q", second.Status, second.Phase)
	}
	// Both jobs remain queryable.
	if o.GetJob("q-1") == nil || o.GetJob("q-2") == nil {
		t.Error("submitted jobs must be in the store")
	}
	if o.QueueDepth() != 1 {
		t.Errorf("queue depth = %d", o.QueueDepth())
	}
}
