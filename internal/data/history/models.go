package history

import "time"

const SchemaVersion = 1

// Run is the persisted summary of one analysis run.
type Run struct {
	SchemaVersion    int            `json:"schema_version"`
	RunID            string         `json:"run_id"`
	Timestamp        time.Time      `json:"timestamp"`
	CommitHash       string         `json:"commit_hash,omitempty"`
	CommitTimestamp  time.Time      `json:"commit_timestamp,omitempty"`
	Files            int            `json:"files"`
	Fragments        int            `json:"fragments"`
	Findings         int            `json:"findings"`
	Errors           int            `json:"errors"`
	Warnings         int            `json:"warnings"`
	ParseFailures    int            `json:"parse_failures"`
	DetectorFailures int            `json:"detector_failures"`
	Duration         time.Duration  `json:"duration"`
	RuleCounts       map[string]int `json:"rule_counts,omitempty"`
}

type TrendPoint struct {
	Timestamp          time.Time `json:"timestamp"`
	RunID              string    `json:"run_id"`
	CommitHash         string    `json:"commit_hash,omitempty"`
	Files              int       `json:"files"`
	Fragments          int       `json:"fragments"`
	Findings           int       `json:"findings"`
	Errors             int       `json:"errors"`
	ParseFailures      int       `json:"parse_failures"`
	DeltaFindings      int       `json:"delta_findings"`
	DeltaErrors        int       `json:"delta_errors"`
	DeltaParseFailures int       `json:"delta_parse_failures"`
	FindingsPerFile    float64   `json:"findings_per_file"`
	AvgFindings        float64   `json:"avg_findings"`
	AvgErrors          float64   `json:"avg_errors"`
	WindowHours        float64   `json:"window_hours"`
}

type TrendReport struct {
	SchemaVersion int          `json:"schema_version"`
	Since         time.Time    `json:"since"`
	Until         time.Time    `json:"until"`
	Window        string       `json:"window"`
	RunCount      int          `json:"run_count"`
	Points        []TrendPoint `json:"points"`
}
