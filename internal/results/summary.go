// Package results summarizes a matching run and persists the summary.
package results

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/lehigh-university-libraries/fuzzymatch/internal/match"
)

// maxRowErrors caps how many row failures a summary keeps.
const maxRowErrors = 20

// Summary describes the outcome of one run.
type Summary struct {
	Mode          string `yaml:"mode" json:"mode"`
	Scorer        string `yaml:"scorer" json:"scorer"`
	PeriodLevel   string `yaml:"period_level" json:"period_level"`
	QueryRows     int    `yaml:"query_rows" json:"query_rows"`
	ReferenceRows int    `yaml:"reference_rows" json:"reference_rows"`
	Output        string `yaml:"output,omitempty" json:"output,omitempty"`

	Processed    int `yaml:"processed" json:"processed"`
	Matched      int `yaml:"matched" json:"matched"`
	Unmatched    int `yaml:"unmatched" json:"unmatched"`
	MultiMatches int `yaml:"multi_matches" json:"multi_matches"`
	Failed       int `yaml:"failed" json:"failed"`

	AverageScore float64 `yaml:"average_score" json:"average_score"`
	MedianScore  float64 `yaml:"median_score" json:"median_score"`
	MinScore     float64 `yaml:"min_score" json:"min_score"`
	MaxScore     float64 `yaml:"max_score" json:"max_score"`
	Bands        []Band  `yaml:"score_bands" json:"score_bands"`

	RowErrors []RowError `yaml:"row_errors,omitempty" json:"row_errors,omitempty"`

	StartedAt time.Time     `yaml:"started_at" json:"started_at"`
	Duration  time.Duration `yaml:"duration" json:"duration"`
	Cancelled bool          `yaml:"cancelled,omitempty" json:"cancelled,omitempty"`
}

// Band counts matched rows whose score lies in [Min, Max).
type Band struct {
	Label string  `yaml:"label" json:"label"`
	Min   float64 `yaml:"min" json:"min"`
	Max   float64 `yaml:"max" json:"max"`
	Count int     `yaml:"count" json:"count"`
}

// RowError records one row that failed to match.
type RowError struct {
	Row   int    `yaml:"row" json:"row"`
	Error string `yaml:"error" json:"error"`
}

func defaultBands() []Band {
	return []Band{
		{Label: "exact", Min: 100, Max: 101},
		{Label: "90-99", Min: 90, Max: 100},
		{Label: "80-89", Min: 80, Max: 90},
		{Label: "50-79", Min: 50, Max: 80},
		{Label: "0-49", Min: 0, Max: 50},
	}
}

// Summarize computes match statistics over results. Rows never processed,
// for example after cancellation, count toward neither matched nor unmatched.
func Summarize(res []match.Result) *Summary {
	summary := &Summary{
		QueryRows: len(res),
		Bands:     defaultBands(),
	}

	var scores []float64
	for _, r := range res {
		if !r.Processed() {
			continue
		}
		summary.Processed++

		if r.Err != nil {
			summary.Failed++
			if len(summary.RowErrors) < maxRowErrors {
				summary.RowErrors = append(summary.RowErrors, RowError{Row: r.Row, Error: r.Err.Error()})
			}
			continue
		}
		if !r.Matched {
			summary.Unmatched++
			continue
		}

		summary.Matched++
		if r.Multi() {
			summary.MultiMatches++
		}
		scores = append(scores, r.Score)

		for i := range summary.Bands {
			if r.Score >= summary.Bands[i].Min && r.Score < summary.Bands[i].Max {
				summary.Bands[i].Count++
				break
			}
		}
	}

	if len(scores) > 0 {
		var total float64
		for _, score := range scores {
			total += score
		}
		summary.AverageScore = total / float64(len(scores))

		sort.Float64s(scores)
		mid := len(scores) / 2
		if len(scores)%2 == 0 {
			summary.MedianScore = (scores[mid-1] + scores[mid]) / 2
		} else {
			summary.MedianScore = scores[mid]
		}

		summary.MinScore = scores[0]
		summary.MaxScore = scores[len(scores)-1]
	}

	return summary
}

// MatchRate is the share of processed rows that found a match.
func (s *Summary) MatchRate() float64 {
	if s.Processed == 0 {
		return 0
	}
	return float64(s.Matched) / float64(s.Processed)
}

// Print writes a human readable summary.
func Print(w io.Writer, s *Summary) {
	fmt.Fprintln(w, "\n========================================")
	fmt.Fprintln(w, "Match Summary")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Mode:               %s\n", s.Mode)
	fmt.Fprintf(w, "Scorer:             %s\n", s.Scorer)
	fmt.Fprintf(w, "Period Filter:      %s\n", s.PeriodLevel)
	fmt.Fprintf(w, "Query Rows:         %d\n", s.QueryRows)
	fmt.Fprintf(w, "Reference Rows:     %d\n", s.ReferenceRows)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Processed:          %d\n", s.Processed)
	fmt.Fprintf(w, "Matched:            %d (%.2f%%)\n", s.Matched, s.MatchRate()*100)
	fmt.Fprintf(w, "Unmatched:          %d\n", s.Unmatched)
	fmt.Fprintf(w, "Multiple IDs:       %d\n", s.MultiMatches)
	fmt.Fprintf(w, "Failed:             %d\n", s.Failed)
	if s.Cancelled {
		fmt.Fprintln(w, "Cancelled:          yes")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Average Score:      %.2f\n", s.AverageScore)
	fmt.Fprintf(w, "Median Score:       %.2f\n", s.MedianScore)
	fmt.Fprintf(w, "Min Score:          %.2f\n", s.MinScore)
	fmt.Fprintf(w, "Max Score:          %.2f\n", s.MaxScore)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Score Bands:")
	for _, b := range s.Bands {
		fmt.Fprintf(w, "  %-6s %d\n", b.Label+":", b.Count)
	}
	if len(s.RowErrors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Row Errors:")
		for _, e := range s.RowErrors {
			fmt.Fprintf(w, "  row %d: %s\n", e.Row, e.Error)
		}
	}
	if s.Output != "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Output:             %s\n", s.Output)
	}
	fmt.Fprintf(w, "Duration:           %s\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintln(w, "========================================")
}
