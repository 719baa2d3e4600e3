// Package domain defines core domain types and interfaces for the email
// discovery and validation tool.
package domain

import "context"

// SiteCrawler discovers candidate addresses starting from a seed URL.
// Implementations fetch the seed page plus a bounded set of likely
// contact pages, honoring per-host rate limits.
type SiteCrawler interface {
	// Crawl fetches the seed URL and likely contact pages and returns the
	// deduplicated addresses found. Per-page fetch failures are recorded
	// in the result, never returned as an error.
	Crawl(ctx context.Context, seedURL string) CrawlResult
}

// AddressValidator runs the staged validation pipeline for one address.
type AddressValidator interface {
	// Validate executes the stage sequence selected by mode and returns
	// the aggregate verdict. Network failures surface as failed stage
	// results inside the verdict.
	Validate(ctx context.Context, address string, mode ValidationMode) Verdict
}

// HostLimiter enforces a minimum interval between requests to one host.
// Wait blocks (without busy-waiting) until the host's interval has
// elapsed or the context is canceled.
type HostLimiter interface {
	Wait(ctx context.Context, host string) error
}

// JobStore persists batch job snapshots and result collections so work
// can resume after interruption. The core treats stored snapshots as
// opaque: a loaded job is handed back to the coordinator unchanged.
type JobStore interface {
	// SaveJob upserts a job snapshot.
	SaveJob(ctx context.Context, job *BatchJob) error
	// LoadJob retrieves a previously stored snapshot by ID.
	LoadJob(ctx context.Context, id string) (*BatchJob, error)
}

// ProgressFunc is invoked after each batch slice with the number of
// completed items, the total and the last item processed.
type ProgressFunc func(done, total int, currentItem string)
