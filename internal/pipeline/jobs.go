// Package pipeline orchestrates deck-generation jobs: a bounded queue of
// workers runs each uploaded proposal through extract, split, generate,
// merge, render, and postprocess stages sequentially.
package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of a deck-generation job.
type JobStatus string

const (
	StatusQueued         JobStatus = "queued"
	StatusExtracting     JobStatus = "extracting"
	StatusSplitting      JobStatus = "splitting"
	StatusGenerating     JobStatus = "generating"
	StatusMerging        JobStatus = "merging"
	StatusRendering      JobStatus = "rendering"
	StatusPostprocessing JobStatus = "postprocessing"
	StatusCompleted      JobStatus = "completed"
	StatusFailed         JobStatus = "failed"
)

// NewJobID returns a fresh job identifier.
func NewJobID() string {
	return "job_" + uuid.NewString()
}

// Job tracks the state of a single proposal-to-deck run.
type Job struct {
	mu sync.Mutex

	ID       string `json:"job_id"`
	Filename string `json:"filename"`

	// Request parameters.
	Title      string `json:"title,omitempty"`
	NoticeID   string `json:"notice_id,omitempty"`
	RenderMode string `json:"render_mode"`
	Theme      string `json:"theme,omitempty"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	errors   []string
}

// Progress tracks per-stage outcomes exposed through the status API.
type Progress struct {
	SplitDecisions int      `json:"split_decisions"`
	SlideCount     int      `json:"slide_count"`
	ImagesApplied  int      `json:"images_applied"`
	ArtifactPath   string   `json:"artifact_path,omitempty"`
	CheckpointPath string   `json:"checkpoint_path,omitempty"`
	Errors         []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetSplitDecisions records how many routing decisions the splitter made.
func (j *Job) SetSplitDecisions(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.SplitDecisions = n
	j.UpdatedAt = time.Now()
}

// SetSlideCount records the merged deck size.
func (j *Job) SetSlideCount(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.SlideCount = n
	j.UpdatedAt = time.Now()
}

// SetImagesApplied records how many diagram images postprocess produced.
func (j *Job) SetImagesApplied(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ImagesApplied = n
	j.UpdatedAt = time.Now()
}

// SetArtifact records the rendered artifact path.
func (j *Job) SetArtifact(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ArtifactPath = path
	j.UpdatedAt = time.Now()
}

// SetCheckpoint records the merged-deck checkpoint path.
func (j *Job) SetCheckpoint(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.CheckpointPath = path
	j.UpdatedAt = time.Now()
}

// ArtifactPath returns the rendered artifact path, empty until rendering is
// done.
func (j *Job) ArtifactPath() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Progress.ArtifactPath
}

// SetFileData sets the raw upload bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw upload bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// clearFileData drops the upload once the text is extracted.
func (j *Job) clearFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID         string    `json:"job_id"`
	Filename   string    `json:"filename"`
	Title      string    `json:"title,omitempty"`
	NoticeID   string    `json:"notice_id,omitempty"`
	RenderMode string    `json:"render_mode"`
	Status     JobStatus `json:"status"`
	Phase      string    `json:"phase"`
	Progress   Progress  `json:"progress"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:         j.ID,
		Filename:   j.Filename,
		Title:      j.Title,
		NoticeID:   j.NoticeID,
		RenderMode: j.RenderMode,
		Status:     j.Status,
		Phase:      j.Phase,
		Progress: Progress{
			SplitDecisions: j.Progress.SplitDecisions,
			SlideCount:     j.Progress.SlideCount,
			ImagesApplied:  j.Progress.ImagesApplied,
			ArtifactPath:   j.Progress.ArtifactPath,
			CheckpointPath: j.Progress.CheckpointPath,
			Errors:         errs,
		},
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
