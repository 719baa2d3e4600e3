package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/vnykmshr/mailsift/internal/domain"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "mailsift.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleJob() *domain.BatchJob {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.BatchJob{
		ID:        "job-abc",
		Kind:      domain.JobValidate,
		Mode:      domain.ModeQuick,
		Items:     []string{"a@acme.io", "b@acme.io", "c@acme.io"},
		BatchSize: 2,
		Cursor:    2,
		Results: []*domain.ItemResult{
			{
				Item: "a@acme.io",
				Verdict: &domain.Verdict{
					Address:     "a@acme.io",
					FinalStatus: domain.StatusValid,
					Confidence:  0.5,
					Stages: []domain.StageResult{
						{Stage: domain.StageFormat, Passed: true},
						{Stage: domain.StageDNS, Passed: true, DurationMs: 12},
					},
				},
				CompletedAt: now,
			},
			{
				Item: "b@acme.io",
				Verdict: &domain.Verdict{
					Address:     "b@acme.io",
					FinalStatus: domain.StatusInvalidFormat,
				},
				CompletedAt: now,
			},
			nil,
		},
		Status:    domain.JobPaused,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSaveAndLoadJob(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	job := sampleJob()

	if err := s.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	loaded, err := s.LoadJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("LoadJob failed: %v", err)
	}

	if loaded.Kind != job.Kind || loaded.Mode != job.Mode || loaded.Status != job.Status {
		t.Errorf("Loaded job metadata differs: %+v", loaded)
	}
	if loaded.Cursor != 2 || loaded.BatchSize != 2 {
		t.Errorf("Loaded cursor/batch size differ: %+v", loaded)
	}
	if len(loaded.Items) != 3 || loaded.Items[2] != "c@acme.io" {
		t.Errorf("Loaded items differ: %v", loaded.Items)
	}
	if len(loaded.Results) != 3 || loaded.Results[2] != nil {
		t.Fatalf("Results arena shape lost: %v", loaded.Results)
	}
	v := loaded.Results[0].Verdict
	if v == nil || v.FinalStatus != domain.StatusValid || len(v.Stages) != 2 {
		t.Errorf("Verdict detail lost on roundtrip: %+v", v)
	}
	if !loaded.UpdatedAt.Equal(job.UpdatedAt) {
		t.Errorf("UpdatedAt %v, want %v", loaded.UpdatedAt, job.UpdatedAt)
	}
}

func TestSaveJob_UpsertAdvancesCursor(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	job := sampleJob()

	if err := s.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	job.Cursor = 3
	job.Status = domain.JobCompleted
	job.Results[2] = &domain.ItemResult{
		Item:        "c@acme.io",
		Verdict:     &domain.Verdict{Address: "c@acme.io", FinalStatus: domain.StatusValid},
		CompletedAt: time.Now().UTC(),
	}
	if err := s.SaveJob(ctx, job); err != nil {
		t.Fatalf("Second SaveJob failed: %v", err)
	}

	loaded, err := s.LoadJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("LoadJob failed: %v", err)
	}
	if loaded.Cursor != 3 || loaded.Status != domain.JobCompleted {
		t.Errorf("Upsert did not advance the snapshot: %+v", loaded)
	}
	if loaded.Results[2] == nil {
		t.Error("Third result missing after upsert")
	}
}

func TestLoadJob_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LoadJob(context.Background(), "no-such-job")
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Expected ErrJobNotFound, got %v", err)
	}
}

func TestCountVerdictsByStatus(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveJob(ctx, sampleJob()); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	counts, err := s.CountVerdictsByStatus(ctx, "job-abc")
	if err != nil {
		t.Fatalf("CountVerdictsByStatus failed: %v", err)
	}
	if counts[domain.StatusValid] != 1 || counts[domain.StatusInvalidFormat] != 1 {
		t.Errorf("Unexpected counts: %v", counts)
	}
}

func TestListJobs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := sampleJob()
	if err := s.SaveJob(ctx, first); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	second := sampleJob()
	second.ID = "job-def"
	second.UpdatedAt = first.UpdatedAt.Add(time.Minute)
	if err := s.SaveJob(ctx, second); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	jobs, err := s.ListJobs(ctx)
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != "job-def" {
		t.Errorf("Expected newest job first, got %v", jobs)
	}
}
