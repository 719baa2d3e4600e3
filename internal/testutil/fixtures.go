// Package testutil provides shared test fixtures and utilities for use across test files.
package testutil

import (
	"time"

	"github.com/vnykmshr/mailsift/internal/domain"
)

// SampleVerdict returns a complete verdict fixture for a valid address.
func SampleVerdict() *domain.Verdict {
	return &domain.Verdict{
		Address: "sales@acme.io",
		Stages: []domain.StageResult{
			{Stage: domain.StageFormat, Passed: true, DurationMs: 0},
			{Stage: domain.StageBlacklist, Passed: true, DurationMs: 0},
			{Stage: domain.StageDNS, Passed: true, DurationMs: 18},
			{Stage: domain.StageSMTP, Passed: true, DurationMs: 240},
		},
		FinalStatus: domain.StatusValid,
		Confidence:  1.0,
	}
}

// SampleCrawlResult returns a crawl result fixture with one found address
// and one page error.
func SampleCrawlResult() *domain.CrawlResult {
	return &domain.CrawlResult{
		SeedURL:      "https://acme.io",
		PagesVisited: 2,
		Addresses: []domain.CandidateAddress{
			{
				Address:      "sales@acme.io",
				SourceURL:    "https://acme.io/contact",
				DiscoveredAt: time.Now(),
			},
		},
		Errors: []domain.PageError{
			{
				URL:       "https://acme.io/team",
				Detail:    "unexpected status 404",
				Timestamp: time.Now(),
			},
		},
	}
}

// SampleValidationJob returns a completed validation job with two results.
func SampleValidationJob() *domain.BatchJob {
	now := time.Now().UTC()
	return &domain.BatchJob{
		ID:        "fixture-validate",
		Kind:      domain.JobValidate,
		Mode:      domain.ModeComplete,
		Items:     []string{"sales@acme.io", "test@mailinator.com"},
		BatchSize: 50,
		Cursor:    2,
		Results: []*domain.ItemResult{
			{
				Item:        "sales@acme.io",
				Verdict:     SampleVerdict(),
				CompletedAt: now,
			},
			{
				Item: "test@mailinator.com",
				Verdict: &domain.Verdict{
					Address: "test@mailinator.com",
					Stages: []domain.StageResult{
						{Stage: domain.StageFormat, Passed: true},
						{Stage: domain.StageBlacklist, Passed: false, Detail: "disposable email provider"},
					},
					FinalStatus: domain.StatusBlacklisted,
					Confidence:  0.2,
				},
				CompletedAt: now,
			},
		},
		Status:    domain.JobCompleted,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SampleScrapeJob returns a completed scrape job with one crawled seed.
func SampleScrapeJob() *domain.BatchJob {
	now := time.Now().UTC()
	return &domain.BatchJob{
		ID:        "fixture-scrape",
		Kind:      domain.JobScrape,
		Items:     []string{"https://acme.io"},
		BatchSize: 50,
		Cursor:    1,
		Results: []*domain.ItemResult{
			{
				Item:        "https://acme.io",
				Crawl:       SampleCrawlResult(),
				CompletedAt: now,
			},
		},
		Status:    domain.JobCompleted,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
