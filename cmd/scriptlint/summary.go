package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"scriptlint/internal/core/app"
	"scriptlint/internal/core/config"
	"scriptlint/internal/engine/rules"
	"scriptlint/internal/shared/util"
)

func printSummary(w io.Writer, report *app.Report) {
	if report == nil {
		return
	}
	for _, f := range report.Findings {
		loc := fmt.Sprintf("%s:%d:%d", f.FilePath, f.Line, f.Column)
		if f.FieldPath != "" {
			loc += " [" + f.FieldPath + "]"
		}
		fmt.Fprintf(w, "%s %s %s: %s\n", loc, f.Severity, f.RuleID, f.Message)
	}
	for _, e := range report.ExtractErrors {
		fmt.Fprintf(w, "%s: skipped: %s\n", e.Path, e.Error)
	}

	s := report.Stats
	status := ""
	if report.Partial {
		status = " (partial)"
	}
	fmt.Fprintf(w, "%d files, %d fragments, %d findings (%d errors, %d warnings), %d parse failures in %s%s\n",
		s.Files, s.Fragments, s.Findings, s.Errors, s.Warnings, s.ParseFailures, s.Duration.Round(time.Millisecond), status)
}

func printRules(w io.Writer, cfg *config.Config) {
	registry := rules.DefaultRegistry()
	for _, id := range registry.IDs() {
		rule, _ := registry.Get(id)
		state := "on"
		severity := rule.Severity
		if s, ok := cfg.Rules[id]; ok {
			if s.Enabled != nil && !*s.Enabled {
				state = "off"
			}
			if sev, err := rules.ParseSeverity(s.Severity); err == nil && s.Severity != "" {
				severity = sev
			}
		}
		var thresholds []string
		for _, key := range util.SortedStringKeys(map[string]int(rule.Defaults)) {
			value := rule.Defaults[key]
			if s, ok := cfg.Rules[id]; ok {
				if v, ok := s.Thresholds[key]; ok {
					value = v
				}
			}
			thresholds = append(thresholds, fmt.Sprintf("%s=%d", key, value))
		}
		line := fmt.Sprintf("%-20s %-3s %-7s %s", id, state, severity, rule.Description)
		if len(thresholds) > 0 {
			line += " (" + strings.Join(thresholds, ", ") + ")"
		}
		fmt.Fprintln(w, line)
	}
}
