package history

import (
	"fmt"
	"math"
	"time"
)

// BuildTrendReport turns runs (oldest first) into per-run deltas and
// moving averages over window.
func BuildTrendReport(runs []Run, window time.Duration) (TrendReport, error) {
	if len(runs) == 0 {
		return TrendReport{}, fmt.Errorf("no runs available")
	}

	points := make([]TrendPoint, 0, len(runs))
	for i, current := range runs {
		point := TrendPoint{
			Timestamp:     current.Timestamp,
			RunID:         current.RunID,
			CommitHash:    current.CommitHash,
			Files:         current.Files,
			Fragments:     current.Fragments,
			Findings:      current.Findings,
			Errors:        current.Errors,
			ParseFailures: current.ParseFailures,
		}
		if current.Files > 0 {
			point.FindingsPerFile = round2(float64(current.Findings) / float64(current.Files))
		}

		if i > 0 {
			prev := runs[i-1]
			point.DeltaFindings = current.Findings - prev.Findings
			point.DeltaErrors = current.Errors - prev.Errors
			point.DeltaParseFailures = current.ParseFailures - prev.ParseFailures
		}

		avgFindings, avgErrors := movingAverages(runs, i, window)
		point.AvgFindings = round2(avgFindings)
		point.AvgErrors = round2(avgErrors)
		point.WindowHours = round2(window.Hours())
		points = append(points, point)
	}

	return TrendReport{
		SchemaVersion: SchemaVersion,
		Since:         runs[0].Timestamp,
		Until:         runs[len(runs)-1].Timestamp,
		Window:        window.String(),
		RunCount:      len(points),
		Points:        points,
	}, nil
}

func movingAverages(runs []Run, index int, window time.Duration) (float64, float64) {
	if window <= 0 {
		return float64(runs[index].Findings), float64(runs[index].Errors)
	}

	cutoff := runs[index].Timestamp.Add(-window)
	var findingsTotal int
	var errorsTotal int
	count := 0
	for i := index; i >= 0; i-- {
		if runs[i].Timestamp.Before(cutoff) {
			break
		}
		findingsTotal += runs[i].Findings
		errorsTotal += runs[i].Errors
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return float64(findingsTotal) / float64(count), float64(errorsTotal) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
