// Package reporter renders batch job results as console summaries, JSON
// and CSV exports.
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/vnykmshr/mailsift/internal/domain"
)

// Reporter renders the results of one batch job
type Reporter struct {
	job *domain.BatchJob
	out io.Writer
}

// New creates a report generator writing console output to stdout
func New(job *domain.BatchJob) *Reporter {
	return &Reporter{job: job, out: os.Stdout}
}

// NewWithWriter creates a report generator with a custom console writer
func NewWithWriter(job *domain.BatchJob, out io.Writer) *Reporter {
	return &Reporter{job: job, out: out}
}

// PrintSummary prints a console summary of the job results
func (r *Reporter) PrintSummary() {
	title := "EMAIL VALIDATION RESULTS"
	if r.job.Kind == domain.JobScrape {
		title = "EMAIL SCRAPING RESULTS"
	}

	fmt.Fprintf(r.out, "\n%s\n", strings.Repeat("=", 60))
	fmt.Fprintf(r.out, "%s\n", title)
	fmt.Fprintf(r.out, "%s\n", strings.Repeat("=", 60))
	fmt.Fprintf(r.out, "Job ID:          %s\n", r.job.ID)
	fmt.Fprintf(r.out, "Status:          %s\n", r.job.Status)
	fmt.Fprintf(r.out, "Items Processed: %d of %d\n", r.job.Done(), r.job.Total())
	if r.job.Kind == domain.JobValidate {
		fmt.Fprintf(r.out, "Mode:            %s\n", r.job.Mode)
	}

	switch r.job.Kind {
	case domain.JobValidate:
		r.printValidationSummary()
	case domain.JobScrape:
		r.printScrapeSummary()
	}

	r.printItemErrors()
}

func (r *Reporter) printValidationSummary() {
	counts := make(map[domain.FinalStatus]int)
	for _, result := range r.job.CompletedResults() {
		if result.Verdict != nil {
			counts[result.Verdict.FinalStatus]++
		}
	}
	if len(counts) == 0 {
		return
	}

	fmt.Fprintf(r.out, "\n%s\n", strings.Repeat("-", 60))
	fmt.Fprintf(r.out, "VERDICTS\n")
	fmt.Fprintf(r.out, "%s\n", strings.Repeat("-", 60))

	statuses := make([]string, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, string(status))
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		fmt.Fprintf(r.out, "  %-22s %d\n", status, counts[domain.FinalStatus(status)])
	}
}

func (r *Reporter) printScrapeSummary() {
	var pages, pageErrors int
	unique := make(map[string]struct{})
	for _, result := range r.job.CompletedResults() {
		if result.Crawl == nil {
			continue
		}
		pages += result.Crawl.PagesVisited
		pageErrors += len(result.Crawl.Errors)
		for _, addr := range result.Crawl.Addresses {
			unique[addr.Address] = struct{}{}
		}
	}

	fmt.Fprintf(r.out, "\n%s\n", strings.Repeat("-", 60))
	fmt.Fprintf(r.out, "CRAWL SUMMARY\n")
	fmt.Fprintf(r.out, "%s\n", strings.Repeat("-", 60))
	fmt.Fprintf(r.out, "Pages Visited:    %d\n", pages)
	fmt.Fprintf(r.out, "Unique Addresses: %d\n", len(unique))
	fmt.Fprintf(r.out, "Page Errors:      %d\n", pageErrors)
}

func (r *Reporter) printItemErrors() {
	errorCounts := make(map[string]int)
	for _, result := range r.job.CompletedResults() {
		if result.Error != "" {
			errorCounts[result.Error]++
		}
	}
	if len(errorCounts) == 0 {
		return
	}

	fmt.Fprintf(r.out, "\n%s\n", strings.Repeat("-", 60))
	fmt.Fprintf(r.out, "ERRORS SUMMARY\n")
	fmt.Fprintf(r.out, "%s\n", strings.Repeat("-", 60))
	for errorMsg, count := range errorCounts {
		fmt.Fprintf(r.out, "  %s: %d occurrence(s)\n", errorMsg, count)
	}
}

// GenerateJSON writes the full job snapshot as indented JSON
func (r *Reporter) GenerateJSON(outputPath string) error {
	data, err := json.MarshalIndent(r.job, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}

	err = os.WriteFile(outputPath, data, 0o600)
	if err != nil {
		return fmt.Errorf("writing JSON file: %w", err)
	}

	return nil
}

// GenerateCSV writes one row per address. Validation jobs export the
// verdict per input address; scrape jobs export every discovered address
// with its source page.
func (r *Reporter) GenerateCSV(outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating CSV file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	w := csv.NewWriter(file)

	switch r.job.Kind {
	case domain.JobValidate:
		if err := w.Write([]string{"address", "final_status", "confidence"}); err != nil {
			return fmt.Errorf("writing CSV header: %w", err)
		}
		for _, result := range r.job.CompletedResults() {
			if result.Verdict == nil {
				continue
			}
			record := []string{
				result.Verdict.Address,
				string(result.Verdict.FinalStatus),
				strconv.FormatFloat(result.Verdict.Confidence, 'f', 2, 64),
			}
			if err := w.Write(record); err != nil {
				return fmt.Errorf("writing CSV row: %w", err)
			}
		}
	case domain.JobScrape:
		if err := w.Write([]string{"address", "source_url", "seed_url"}); err != nil {
			return fmt.Errorf("writing CSV header: %w", err)
		}
		for _, result := range r.job.CompletedResults() {
			if result.Crawl == nil {
				continue
			}
			for _, addr := range result.Crawl.Addresses {
				if err := w.Write([]string{addr.Address, addr.SourceURL, result.Crawl.SeedURL}); err != nil {
					return fmt.Errorf("writing CSV row: %w", err)
				}
			}
		}
	}

	w.Flush()
	return w.Error()
}
