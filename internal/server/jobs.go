// ABOUTME: Job bookkeeping around conversions
// ABOUTME: Records progress and outcome in the job store and metrics
package server

import (
	"context"
	"log"
	"time"

	"github.com/ion-space/spaceconvert/internal/store"
	"github.com/ion-space/spaceconvert/pkg/convert"
)

// bufferSink keeps the delivered file in memory for the response
type bufferSink struct {
	file *convert.File
}

func (s *bufferSink) Deliver(ctx context.Context, file convert.File) error {
	s.file = &file
	return nil
}

// jobProgress saves every step to the store before forwarding it
type jobProgress struct {
	ctx  context.Context
	jobs store.Store
	job  *store.Job
	next convert.ProgressReporter
}

func (p *jobProgress) Progress(percent int, text string) {
	p.job.Status = store.StatusProcessing
	p.job.Progress = percent
	p.job.Message = text
	if err := p.jobs.Save(p.ctx, p.job); err != nil {
		log.Printf("Job %s: failed to save progress: %v", p.job.ID, err)
	}

	if p.next != nil {
		p.next.Progress(percent, text)
	}
}

// jobRun is one conversion executed by runJob
type jobRun func(ctx context.Context, c *convert.Converter, jobID string) (*convert.Result, error)

// runJob creates a job record, runs the conversion on base and records the outcome.
// The delivered file is returned on success.
func (s *Server) runJob(ctx context.Context, base *convert.Converter, kind, title, videoID string, progress convert.ProgressReporter, run jobRun) (*store.Job, *convert.File, error) {
	job := &store.Job{
		ID:        convert.NewJobID(),
		Title:     title,
		VideoID:   videoID,
		Status:    store.StatusPending,
		CreatedAt: time.Now(),
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		log.Printf("Job %s: failed to save: %v", job.ID, err)
	}

	finish := s.metrics.JobStarted(ctx, kind)

	sink := &bufferSink{}
	c := base.WithSink(sink).WithProgress(&jobProgress{ctx: ctx, jobs: s.jobs, job: job, next: progress})

	res, err := run(ctx, c, job.ID)

	job.CompletedAt = time.Now()
	if err != nil {
		job.Status = store.StatusFailed
		job.Error = err.Error()
		job.Message = convert.FallbackMessage(err)
		finish(0, err)
		log.Printf("Job %s failed: %v", job.ID, err)
	} else {
		job.Status = store.StatusCompleted
		job.Progress = 100
		job.FileName = res.FileName
		job.Size = res.Size
		finish(res.Size, nil)
	}

	// The request context may be gone by now; the record must still be written
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if saveErr := s.jobs.Save(saveCtx, job); saveErr != nil {
		log.Printf("Job %s: failed to save outcome: %v", job.ID, saveErr)
	}

	if err != nil {
		return job, nil, err
	}
	return job, sink.file, nil
}
