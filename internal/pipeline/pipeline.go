// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the end-to-end document generation pipeline.
// Implements: prd001-pipeline (R1-R6);
//
//	docs/ARCHITECTURE § Generation Pipeline.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/draft-engine/internal/literature"
	"github.com/pdiddy/draft-engine/internal/llm"
	"github.com/pdiddy/draft-engine/pkg/types"
)

// ModelBackend is the slice of the model gateway the pipeline needs.
// Tests substitute scripted implementations.
type ModelBackend interface {
	Complete(ctx context.Context, req llm.Request) (llm.Result, error)
}

// LiteratureSearcher retrieves key papers for a topic.
type LiteratureSearcher interface {
	ExtractKeyPapers(ctx context.Context, topic string, count int) (literature.KeyPapers, error)
}

// Store is the persistence contract the pipeline writes through. The
// document and all of its children are created in a single transaction.
type Store interface {
	CreateJob(ctx context.Context, job *types.GenerationJob) error
	UpdateJob(ctx context.Context, job *types.GenerationJob) error
	GetJob(ctx context.Context, id int64) (*types.GenerationJob, error)
	CreateDocumentSet(ctx context.Context, doc *types.Document, authors []types.Author, citations []types.Citation, figures []types.Figure, tables []types.Table) error
}

// Orchestrator drives a generation request through the pipeline phases,
// updating the job record after every phase.
type Orchestrator struct {
	store Store
	model ModelBackend
	lit   LiteratureSearcher
	cfg   types.PipelineConfig
	log   zerolog.Logger
}

// NewOrchestrator wires a pipeline against its collaborators.
func NewOrchestrator(store Store, model ModelBackend, lit LiteratureSearcher, cfg types.PipelineConfig, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{store: store, model: model, lit: lit, cfg: cfg, log: log}
}

// phase is one pipeline stage. Weights sum to 100 and drive the
// progress and ETA reported on the job.
type phase struct {
	name   string
	weight int
	run    func(ctx context.Context, run *genRun) error
}

func (o *Orchestrator) phases() []phase {
	return []phase{
		{"Literature Review", 15, o.literatureReview},
		{"Novelty Assessment", 10, o.noveltyAssessment},
		{"Argument Architecture", 10, o.argumentArchitecture},
		{"Section Writing", 30, o.sectionWriting},
		{"Figure Generation", 10, o.figureGeneration},
		{"Internal Review", 10, o.internalReview},
		{"Final Assembly", 15, o.finalAssembly},
	}
}

// Start creates a queued job for the request and runs it on a detached
// goroutine. It returns the job id immediately.
func (o *Orchestrator) Start(ctx context.Context, req types.GenerationRequest) (int64, error) {
	job := &types.GenerationJob{Status: types.JobQueued}
	if err := o.store.CreateJob(ctx, job); err != nil {
		return 0, fmt.Errorf("creating job: %w", err)
	}
	go func() {
		if err := o.Run(context.Background(), job.ID, req); err != nil {
			o.log.Error().Err(err).Int64("job_id", job.ID).Msg("generation failed")
		}
	}()
	return job.ID, nil
}

// Run executes every phase in order for an existing job. A phase error
// marks the job failed with the phase name prefixed in brackets and
// stops the run.
func (o *Orchestrator) Run(ctx context.Context, jobID int64, req types.GenerationRequest) error {
	job, err := o.store.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("loading job %d: %w", jobID, err)
	}
	job.Status = types.JobProcessing
	if err := o.store.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("updating job %d: %w", jobID, err)
	}

	run := newGenRun(req)
	start := time.Now()
	done := 0
	total := 0
	for _, p := range o.phases() {
		total += p.weight
	}

	for _, p := range o.phases() {
		job.Phase = p.name
		if err := o.store.UpdateJob(ctx, job); err != nil {
			return fmt.Errorf("updating job %d: %w", jobID, err)
		}
		o.log.Info().Int64("job_id", jobID).Str("phase", p.name).Msg("phase started")

		if err := p.run(ctx, run); err != nil {
			phaseErr := fmt.Errorf("[%s] %w", p.name, err)
			job.Status = types.JobFailed
			job.Error = phaseErr.Error()
			if uerr := o.store.UpdateJob(ctx, job); uerr != nil {
				o.log.Error().Err(uerr).Int64("job_id", jobID).Msg("recording failure")
			}
			return phaseErr
		}

		done += p.weight
		job.Progress = done * 100 / total
		job.ETASeconds = etaSeconds(start, done, total)
		if err := o.store.UpdateJob(ctx, job); err != nil {
			return fmt.Errorf("updating job %d: %w", jobID, err)
		}
	}

	job.Status = types.JobCompleted
	job.Phase = ""
	job.Progress = 100
	job.ETASeconds = 0
	job.DocumentID = run.documentID
	job.NoveltyScore = run.novelty
	job.QualityScore = run.quality
	if err := o.store.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("updating job %d: %w", jobID, err)
	}
	o.log.Info().Int64("job_id", jobID).Int64("document_id", run.documentID).Msg("generation completed")
	return nil
}

// Cancel marks a job failed with a cancellation message. A run that is
// mid-phase keeps executing; the cancellation record is simply the last
// write on the job.
func (o *Orchestrator) Cancel(ctx context.Context, jobID int64) error {
	job, err := o.store.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("loading job %d: %w", jobID, err)
	}
	job.Status = types.JobFailed
	job.Error = "cancelled by user"
	if err := o.store.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("updating job %d: %w", jobID, err)
	}
	return nil
}

// etaSeconds projects the remaining time from the average seconds spent
// per completed weight point.
func etaSeconds(start time.Time, done, total int) int {
	if done <= 0 || done >= total {
		return 0
	}
	perPoint := time.Since(start).Seconds() / float64(done)
	return int(perPoint * float64(total-done))
}
