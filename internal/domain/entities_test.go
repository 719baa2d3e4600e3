package domain

import (
	"errors"
	"testing"
)

func TestParseValidationMode(t *testing.T) {
	tests := []struct {
		input   string
		want    ValidationMode
		wantErr bool
	}{
		{"format", ModeFormatOnly, false},
		{"quick", ModeQuick, false},
		{"complete", ModeComplete, false},
		{"thorough", "", true},
		{"", "", true},
		{"COMPLETE", "", true},
	}

	for _, tt := range tests {
		got, err := ParseValidationMode(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseValidationMode(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseValidationMode(%q) = (%v, %v), want %v", tt.input, got, err, tt.want)
		}
	}
}

func TestAddressDomain(t *testing.T) {
	tests := []struct {
		address string
		want    string
	}{
		{"sales@acme.io", "acme.io"},
		{"weird@local@acme.io", "acme.io"},
		{"no-at-sign", ""},
		{"", ""},
		{"trailing@", ""},
	}

	for _, tt := range tests {
		if got := AddressDomain(tt.address); got != tt.want {
			t.Errorf("AddressDomain(%q) = %q, want %q", tt.address, got, tt.want)
		}
	}
}

func TestVerdict_StageRan(t *testing.T) {
	v := Verdict{
		Address: "sales@acme.io",
		Stages: []StageResult{
			{Stage: StageFormat, Passed: true},
			{Stage: StageBlacklist, Passed: false},
		},
		FinalStatus: StatusBlacklisted,
	}

	if !v.StageRan(StageFormat) || !v.StageRan(StageBlacklist) {
		t.Error("Expected format and blacklist stages in the trail")
	}
	if v.StageRan(StageDNS) || v.StageRan(StageSMTP) {
		t.Error("DNS and SMTP must not appear after a blacklist failure")
	}
}

func TestBatchJob_Progress(t *testing.T) {
	job := &BatchJob{
		Items:   []string{"a@acme.io", "b@acme.io", "c@acme.io"},
		Results: make([]*ItemResult, 3),
		Cursor:  2,
		Status:  JobRunning,
	}
	job.Results[0] = &ItemResult{Item: "a@acme.io"}
	job.Results[1] = &ItemResult{Item: "b@acme.io"}

	if job.Done() != 2 {
		t.Errorf("Expected 2 done, got %d", job.Done())
	}
	if job.Total() != 3 {
		t.Errorf("Expected 3 total, got %d", job.Total())
	}
	if job.Terminal() {
		t.Error("A running job is not terminal")
	}

	completed := job.CompletedResults()
	if len(completed) != 2 || completed[0].Item != "a@acme.io" {
		t.Errorf("Unexpected completed results: %v", completed)
	}

	job.Status = JobCompleted
	if !job.Terminal() {
		t.Error("A completed job is terminal")
	}
}

func TestBatchSetupError(t *testing.T) {
	var err error = &BatchSetupError{Reason: "no items submitted"}

	var setupErr *BatchSetupError
	if !errors.As(err, &setupErr) {
		t.Fatal("Expected errors.As to match BatchSetupError")
	}
	if setupErr.Error() != "batch setup: no items submitted" {
		t.Errorf("Unexpected message: %s", setupErr.Error())
	}
}

func TestResumeMismatchError(t *testing.T) {
	var err error = &ResumeMismatchError{JobID: "job-1", Reason: "cursor 9 out of range for 3 items"}

	var mismatch *ResumeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatal("Expected errors.As to match ResumeMismatchError")
	}
	if mismatch.JobID != "job-1" {
		t.Errorf("Expected job ID in the error, got %s", mismatch.JobID)
	}
}
