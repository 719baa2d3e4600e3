package domain

import (
	"fmt"
	"time"
)

// ValidationStage identifies one check in the validation pipeline.
// The set of stages is closed; modes select an ordered subset.
type ValidationStage string

// Pipeline stages in their canonical execution order.
const (
	StageFormat    ValidationStage = "format"
	StageBlacklist ValidationStage = "blacklist"
	StageDNS       ValidationStage = "dns"
	StageSMTP      ValidationStage = "smtp"
)

// ValidationMode selects how deep the pipeline probes an address.
type ValidationMode string

// Supported validation modes, ordered by increasing cost.
const (
	// ModeFormatOnly runs only the syntax check.
	ModeFormatOnly ValidationMode = "format"
	// ModeQuick runs the syntax check plus a DNS lookup.
	ModeQuick ValidationMode = "quick"
	// ModeComplete runs all four stages including the SMTP probe.
	ModeComplete ValidationMode = "complete"
)

// ParseValidationMode converts a user-supplied mode string.
func ParseValidationMode(s string) (ValidationMode, error) {
	switch ValidationMode(s) {
	case ModeFormatOnly, ModeQuick, ModeComplete:
		return ValidationMode(s), nil
	}
	return "", fmt.Errorf("unknown validation mode %q (want format, quick or complete)", s)
}

// FinalStatus is the aggregate outcome of validating one address.
// It is determined solely by the first failing stage, or Valid when
// every selected stage passes.
type FinalStatus string

const (
	StatusValid              FinalStatus = "valid"
	StatusInvalidFormat      FinalStatus = "invalid_format"
	StatusBlacklisted        FinalStatus = "blacklisted"
	StatusNoMailServer       FinalStatus = "no_mail_server"
	StatusMailboxUnreachable FinalStatus = "mailbox_unreachable"
	// StatusUnknown marks inconclusive outcomes such as SMTP greylisting
	// (temporary 4xx replies). The address may still be deliverable.
	StatusUnknown FinalStatus = "unknown"
)

// CandidateAddress is an email address discovered in crawled content.
// The address is guaranteed to match the extraction grammar and carries
// the URL of the first page it was seen on.
type CandidateAddress struct {
	// Address is the extracted address with a case-normalized domain part.
	Address string `json:"address"`
	// SourceURL is the page the address was first discovered on.
	SourceURL string `json:"source_url"`
	// DiscoveredAt is when the extractor surfaced the address.
	DiscoveredAt time.Time `json:"discovered_at"`
}

// Domain returns the part after the last '@', or "" for malformed input.
func (c CandidateAddress) Domain() string {
	return AddressDomain(c.Address)
}

// AddressDomain returns the domain part of an email address.
func AddressDomain(address string) string {
	for i := len(address) - 1; i >= 0; i-- {
		if address[i] == '@' {
			return address[i+1:]
		}
	}
	return ""
}

// StageResult records one stage's outcome for one address.
// Immutable once produced.
type StageResult struct {
	// Stage is the check that produced this result.
	Stage ValidationStage `json:"stage"`
	// Passed is true if the stage found no problem.
	Passed bool `json:"passed"`
	// Skipped is true when a stage was selected by the mode but disabled
	// by configuration (SMTP probing switched off). Skipped results are
	// recorded so the trail shows the check never ran; they never count
	// as failures.
	Skipped bool `json:"skipped,omitempty"`
	// Detail carries a human-readable diagnostic, usually a failure reason.
	Detail string `json:"detail,omitempty"`
	// DurationMs is how long the stage took.
	DurationMs int64 `json:"duration_ms"`
}

// Verdict is the aggregate validation result for one address.
type Verdict struct {
	// Address is the address that was validated.
	Address string `json:"address"`
	// Stages holds the results of the stages that actually ran, in
	// pipeline order. Stages skipped by the selected mode are absent.
	Stages []StageResult `json:"stages"`
	// FinalStatus summarizes the outcome.
	FinalStatus FinalStatus `json:"final_status"`
	// Confidence estimates deliverability in [0,1] from which stages ran
	// and passed. It is a best-effort signal, not a guarantee.
	Confidence float64 `json:"confidence"`
}

// StageRan reports whether the given stage appears in the trail.
func (v Verdict) StageRan(stage ValidationStage) bool {
	for _, s := range v.Stages {
		if s.Stage == stage {
			return true
		}
	}
	return false
}

// PageError records a non-fatal fetch failure for a single page.
type PageError struct {
	// URL is the page that failed.
	URL string `json:"url"`
	// Detail is the sanitized failure reason.
	Detail string `json:"detail"`
	// Timestamp is when the failure occurred.
	Timestamp time.Time `json:"timestamp"`
}

// CrawlResult aggregates everything a crawl of one seed URL produced.
type CrawlResult struct {
	// SeedURL is the URL the crawl started from.
	SeedURL string `json:"seed_url"`
	// Addresses are the deduplicated candidate addresses found across all
	// visited pages.
	Addresses []CandidateAddress `json:"addresses"`
	// PagesVisited counts pages actually fetched, including failed fetches.
	PagesVisited int `json:"pages_visited"`
	// Errors holds per-page fetch failures. A failed page never aborts
	// the crawl.
	Errors []PageError `json:"errors,omitempty"`
}

// JobKind distinguishes what a batch job's items are.
type JobKind string

const (
	// JobScrape items are seed URLs fed to the crawler.
	JobScrape JobKind = "scrape"
	// JobValidate items are email addresses fed to the pipeline.
	JobValidate JobKind = "validate"
)

// JobStatus is the lifecycle state of a batch job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobPaused    JobStatus = "paused"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// ItemResult is the outcome of processing one batch item. Exactly one of
// Verdict or Crawl is set depending on the job kind; Error is set instead
// when the item could not be processed at all.
type ItemResult struct {
	// Item echoes the input URL or address.
	Item string `json:"item"`
	// Verdict is set for validation jobs.
	Verdict *Verdict `json:"verdict,omitempty"`
	// Crawl is set for scrape jobs.
	Crawl *CrawlResult `json:"crawl,omitempty"`
	// Error is the sanitized reason this item yielded no result.
	Error string `json:"error,omitempty"`
	// CompletedAt is when processing of the item finished.
	CompletedAt time.Time `json:"completed_at"`
}

// BatchJob is a resumable unit of bulk work. Results is an arena parallel
// to Items: entry i is nil until item i has been processed. Cursor only
// advances forward and resuming re-enters at Cursor without reprocessing
// completed items.
type BatchJob struct {
	// ID uniquely identifies the job across snapshots.
	ID string `json:"id"`
	// Kind selects crawling or validation.
	Kind JobKind `json:"kind"`
	// Mode applies to validation jobs only.
	Mode ValidationMode `json:"mode,omitempty"`
	// Items is the ordered input list (URLs or addresses).
	Items []string `json:"items"`
	// BatchSize is how many items one RunBatch invocation processes.
	BatchSize int `json:"batch_size"`
	// Cursor is the index of the next unprocessed item.
	Cursor int `json:"cursor"`
	// Results holds one entry per item, nil until processed.
	Results []*ItemResult `json:"results"`
	// Status is the job lifecycle state.
	Status JobStatus `json:"status"`
	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is bumped after every slice.
	UpdatedAt time.Time `json:"updated_at"`
}

// Done counts completed items.
func (j *BatchJob) Done() int {
	return j.Cursor
}

// Total returns the item count.
func (j *BatchJob) Total() int {
	return len(j.Items)
}

// Terminal reports whether the job needs no further RunBatch calls.
func (j *BatchJob) Terminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}

// CompletedResults returns the filled results in original item order.
func (j *BatchJob) CompletedResults() []ItemResult {
	out := make([]ItemResult, 0, j.Cursor)
	for _, r := range j.Results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// BatchSetupError is a fatal precondition failure at job creation time:
// an empty item list, an over-cap submission, or invalid configuration.
type BatchSetupError struct {
	Reason string
}

func (e *BatchSetupError) Error() string {
	return fmt.Sprintf("batch setup: %s", e.Reason)
}

// ResumeMismatchError rejects resuming a job whose snapshot is internally
// inconsistent, rather than silently reprocessing or skipping items.
type ResumeMismatchError struct {
	JobID  string
	Reason string
}

func (e *ResumeMismatchError) Error() string {
	return fmt.Sprintf("resume job %s: %s", e.JobID, e.Reason)
}
