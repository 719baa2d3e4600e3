// Package batch implements resumable bulk processing of seed URLs and
// email addresses with a worker pool and cursor-based progress tracking.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vnykmshr/goflow/pkg/ratelimit/bucket"

	"github.com/vnykmshr/mailsift/internal/domain"
)

// Config tunes the coordinator.
type Config struct {
	// Concurrency is the worker pool size for one batch slice.
	Concurrency int
	// BulkRate is the global pacing rate in items per second across all
	// workers. Zero disables pacing. Per-host crawl limits apply on top.
	BulkRate float64
	// MaxURLs caps the item count of a scrape job. Zero means no cap.
	MaxURLs int
	// MaxAddresses caps the item count of a validation job. Zero means no cap.
	MaxAddresses int
}

// Coordinator drives batch jobs slice by slice. Jobs carry their own
// cursor and results arena, so a coordinator holds no per-job state and
// a loaded snapshot resumes on any coordinator instance.
type Coordinator struct {
	cfg       Config
	crawler   domain.SiteCrawler
	validator domain.AddressValidator
	store     domain.JobStore
	pacer     bucket.Limiter
	progress  domain.ProgressFunc
	logger    *slog.Logger
}

// New creates a coordinator. The store and progress callback may be nil.
func New(cfg Config, crawler domain.SiteCrawler, validator domain.AddressValidator, store domain.JobStore, progress domain.ProgressFunc, logger *slog.Logger) *Coordinator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	var pacer bucket.Limiter
	if cfg.BulkRate > 0 {
		burst := int(cfg.BulkRate * 2)
		if burst < 1 {
			burst = 1
		}
		limiter, err := bucket.NewSafe(bucket.Limit(cfg.BulkRate), burst)
		if err != nil {
			logger.Error("Failed to create bulk pacer, pacing disabled", "error", err)
		} else {
			pacer = limiter
		}
	}

	return &Coordinator{
		cfg:       cfg,
		crawler:   crawler,
		validator: validator,
		store:     store,
		pacer:     pacer,
		progress:  progress,
		logger:    logger,
	}
}

// NewJob validates the inputs and creates a pending job with an empty
// results arena.
func (c *Coordinator) NewJob(kind domain.JobKind, mode domain.ValidationMode, items []string, batchSize int) (*domain.BatchJob, error) {
	if len(items) == 0 {
		return nil, &domain.BatchSetupError{Reason: "no items submitted"}
	}
	if batchSize < 1 {
		return nil, &domain.BatchSetupError{Reason: fmt.Sprintf("batch size %d must be positive", batchSize)}
	}

	switch kind {
	case domain.JobScrape:
		if c.cfg.MaxURLs > 0 && len(items) > c.cfg.MaxURLs {
			return nil, &domain.BatchSetupError{
				Reason: fmt.Sprintf("%d urls exceeds the limit of %d", len(items), c.cfg.MaxURLs),
			}
		}
	case domain.JobValidate:
		if c.cfg.MaxAddresses > 0 && len(items) > c.cfg.MaxAddresses {
			return nil, &domain.BatchSetupError{
				Reason: fmt.Sprintf("%d addresses exceeds the limit of %d", len(items), c.cfg.MaxAddresses),
			}
		}
		if _, err := domain.ParseValidationMode(string(mode)); err != nil {
			return nil, &domain.BatchSetupError{Reason: err.Error()}
		}
	default:
		return nil, &domain.BatchSetupError{Reason: fmt.Sprintf("unknown job kind %q", kind)}
	}

	now := time.Now().UTC()
	job := &domain.BatchJob{
		ID:        uuid.NewString(),
		Kind:      kind,
		Mode:      mode,
		Items:     append([]string(nil), items...),
		BatchSize: batchSize,
		Results:   make([]*domain.ItemResult, len(items)),
		Status:    domain.JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return job, nil
}

// CheckResume verifies that a job snapshot is internally consistent
// before any slice runs against it.
func CheckResume(job *domain.BatchJob) error {
	if job.Cursor < 0 || job.Cursor > len(job.Items) {
		return &domain.ResumeMismatchError{
			JobID:  job.ID,
			Reason: fmt.Sprintf("cursor %d out of range for %d items", job.Cursor, len(job.Items)),
		}
	}
	if len(job.Results) != len(job.Items) {
		return &domain.ResumeMismatchError{
			JobID:  job.ID,
			Reason: fmt.Sprintf("%d result slots for %d items", len(job.Results), len(job.Items)),
		}
	}
	for i := 0; i < job.Cursor; i++ {
		if job.Results[i] == nil {
			return &domain.ResumeMismatchError{
				JobID:  job.ID,
				Reason: fmt.Sprintf("item %d before the cursor has no result", i),
			}
		}
	}
	return nil
}

// RunBatch processes one slice of up to BatchSize items starting at the
// cursor, then advances the cursor over the completed prefix, snapshots
// the job and reports progress. On cancellation the job is left paused
// with the cursor at the first unprocessed item.
func (c *Coordinator) RunBatch(ctx context.Context, job *domain.BatchJob) error {
	if err := CheckResume(job); err != nil {
		return err
	}
	if job.Terminal() {
		return nil
	}
	if job.Cursor >= len(job.Items) {
		return c.finish(ctx, job, domain.JobCompleted)
	}

	job.Status = domain.JobRunning

	end := job.Cursor + job.BatchSize
	if end > len(job.Items) {
		end = len(job.Items)
	}

	indices := make(chan int)
	var wg sync.WaitGroup

	workers := c.cfg.Concurrency
	if workers > end-job.Cursor {
		workers = end - job.Cursor
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indices {
				c.processItem(ctx, job, idx)
			}
		}()
	}

	for idx := job.Cursor; idx < end; idx++ {
		indices <- idx
	}
	close(indices)
	wg.Wait()

	// Advance over the contiguous completed prefix. A canceled slice may
	// leave holes; the cursor stops at the first one so resuming
	// reprocesses nothing that finished.
	for job.Cursor < len(job.Items) && job.Results[job.Cursor] != nil {
		job.Cursor++
	}

	status := domain.JobRunning
	switch {
	case job.Cursor >= len(job.Items):
		status = domain.JobCompleted
	case ctx.Err() != nil:
		status = domain.JobPaused
	}
	return c.finish(ctx, job, status)
}

// RunToCompletion runs slices until the job completes or is interrupted.
func (c *Coordinator) RunToCompletion(ctx context.Context, job *domain.BatchJob) error {
	for !job.Terminal() {
		if err := c.RunBatch(ctx, job); err != nil {
			return err
		}
		if job.Status == domain.JobPaused {
			return ctx.Err()
		}
	}
	return nil
}

// Resume loads a job snapshot from the store and verifies it.
func (c *Coordinator) Resume(ctx context.Context, id string) (*domain.BatchJob, error) {
	if c.store == nil {
		return nil, fmt.Errorf("resume requires a job store")
	}
	job, err := c.store.LoadJob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading job %s: %w", id, err)
	}
	if err := CheckResume(job); err != nil {
		return nil, err
	}
	return job, nil
}

func (c *Coordinator) processItem(ctx context.Context, job *domain.BatchJob, idx int) {
	if ctx.Err() != nil {
		return
	}
	if c.pacer != nil {
		if err := c.pacer.Wait(ctx); err != nil {
			return
		}
	}

	item := job.Items[idx]
	result := &domain.ItemResult{Item: item}

	switch job.Kind {
	case domain.JobScrape:
		crawl := c.crawler.Crawl(ctx, item)
		result.Crawl = &crawl
	case domain.JobValidate:
		verdict := c.validator.Validate(ctx, item, job.Mode)
		result.Verdict = &verdict
	}

	if ctx.Err() != nil {
		// Treat an item interrupted mid-flight as unprocessed.
		return
	}

	result.CompletedAt = time.Now().UTC()
	// Workers own distinct slots, so no lock is needed.
	job.Results[idx] = result
}

func (c *Coordinator) finish(ctx context.Context, job *domain.BatchJob, status domain.JobStatus) error {
	job.Status = status
	job.UpdatedAt = time.Now().UTC()

	if c.store != nil {
		// The snapshot must land even when the run context is canceled,
		// otherwise pausing loses the very progress it is meant to keep.
		saveCtx := ctx
		if ctx.Err() != nil {
			var cancel context.CancelFunc
			saveCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
		}
		if err := c.store.SaveJob(saveCtx, job); err != nil {
			return fmt.Errorf("saving job %s: %w", job.ID, err)
		}
	}

	if c.progress != nil {
		current := ""
		if job.Cursor > 0 {
			current = job.Items[job.Cursor-1]
		}
		c.progress(job.Cursor, len(job.Items), current)
	}

	c.logger.Debug("batch slice finished",
		"job_id", job.ID, "cursor", job.Cursor, "total", len(job.Items), "status", job.Status)
	return nil
}
