package app

import (
	"time"

	"scriptlint/internal/engine/rules"
)

// Stats summarizes a run.
type Stats struct {
	Files            int           `json:"files"`
	Fragments        int           `json:"fragments"`
	Findings         int           `json:"findings"`
	Errors           int           `json:"errors"`
	Warnings         int           `json:"warnings"`
	ParseFailures    int           `json:"parse_failures"`
	DetectorFailures int           `json:"detector_failures"`
	ExtractErrors    int           `json:"extract_errors"`
	Duration         time.Duration `json:"duration"`
}

// FileError records a host file that could not be read or decoded.
type FileError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Report is the result of one analysis run.
type Report struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	// Partial is set when the run was cancelled before every fragment was
	// analysed.
	Partial          bool                   `json:"partial,omitempty"`
	Findings         []rules.Finding        `json:"findings"`
	ParseFailures    []rules.ParseFailure   `json:"parse_failures,omitempty"`
	DetectorFailures []*rules.DetectorError `json:"-"`
	ExtractErrors    []FileError            `json:"extract_errors,omitempty"`
	Stats            Stats                  `json:"stats"`
}

// HasErrors reports whether any finding has error severity.
func (r *Report) HasErrors() bool {
	return r != nil && r.Stats.Errors > 0
}

// RuleCounts returns the number of findings per rule id.
func (r *Report) RuleCounts() map[string]int {
	counts := make(map[string]int)
	for _, f := range r.Findings {
		counts[f.RuleID]++
	}
	return counts
}

func (r *Report) tally() {
	r.Stats.Findings = len(r.Findings)
	r.Stats.Errors, r.Stats.Warnings = 0, 0
	for _, f := range r.Findings {
		switch f.Severity {
		case rules.SeverityError:
			r.Stats.Errors++
		case rules.SeverityWarning:
			r.Stats.Warnings++
		}
	}
	r.Stats.ParseFailures = len(r.ParseFailures)
	r.Stats.DetectorFailures = len(r.DetectorFailures)
	r.Stats.ExtractErrors = len(r.ExtractErrors)
}
