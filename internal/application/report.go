package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/qirune/anyrouter-checkin/internal/domain"
)

// ReportTitle is the notification subject for every run.
const ReportTitle = "AnyRouter Check-in Results"

// Summary aggregates a run's results into the three outcome buckets.
type Summary struct {
	Total     int
	Succeeded int
	Skipped   int
	Failed    int
}

func Summarize(results []domain.CheckinResult) Summary {
	s := Summary{Total: len(results)}
	for _, result := range results {
		switch result.Outcome {
		case domain.OutcomeSuccess:
			s.Succeeded++
		case domain.OutcomeAlreadyCheckedIn:
			s.Skipped++
		default:
			s.Failed++
		}
	}
	return s
}

// StatusLine renders the overall verdict, from best to worst: everything
// succeeded, everything at least processed, something succeeded, nothing did.
func (s Summary) StatusLine() string {
	switch {
	case s.Total > 0 && s.Succeeded == s.Total:
		return "[SUCCESS] All accounts check-in successful!"
	case s.Total > 0 && s.Succeeded+s.Skipped == s.Total:
		return "[INFO] All accounts processed, some already checked in today"
	case s.Succeeded > 0:
		return "[WARN] Some accounts check-in successful"
	default:
		return "[ERROR] All accounts check-in failed"
	}
}

// ExitCode maps the summary onto the process exit contract: a run counts as
// useful when at least one account succeeded or had already checked in.
func (s Summary) ExitCode() int {
	if s.Succeeded+s.Skipped > 0 {
		return 0
	}
	return 1
}

// Report is the terminal artifact of a run: every per-account result plus
// the aggregate view, rendered into one text block for the sinks.
type Report struct {
	GeneratedAt time.Time
	Results     []domain.CheckinResult
	Summary     Summary
}

func NewReport(generatedAt time.Time, results []domain.CheckinResult) *Report {
	return &Report{GeneratedAt: generatedAt, Results: results, Summary: Summarize(results)}
}

func (r *Report) ExitCode() int { return r.Summary.ExitCode() }

// Body renders the notification text: timestamp, per-account details, the
// summary block, and a trailing list of verified balance increases.
func (r *Report) Body() string {
	sections := []string{
		fmt.Sprintf("[TIME] Execution time: %s", r.GeneratedAt.Format("2006-01-02 15:04:05")),
		r.accountsSection(),
		r.summarySection(),
	}
	if balance := r.balanceSection(); balance != "" {
		sections = append(sections, balance)
	}
	return strings.Join(sections, "\n\n")
}

func (r *Report) accountsSection() string {
	entries := make([]string, 0, len(r.Results))
	for _, result := range r.Results {
		entries = append(entries, formatResult(result))
	}
	return strings.Join(entries, "\n")
}

func (r *Report) summarySection() string {
	lines := []string{
		"[STATS] Check-in result statistics:",
		fmt.Sprintf("[SUCCESS] Success: %d/%d", r.Summary.Succeeded, r.Summary.Total),
		fmt.Sprintf("[SKIP] Already checked in: %d/%d", r.Summary.Skipped, r.Summary.Total),
		fmt.Sprintf("[FAIL] Failed: %d/%d", r.Summary.Failed, r.Summary.Total),
		r.Summary.StatusLine(),
	}
	return strings.Join(lines, "\n")
}

func (r *Report) balanceSection() string {
	var lines []string
	for _, result := range r.Results {
		delta, ok := result.BalanceDelta()
		if !ok || delta <= 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("[SUCCESS] %s: +$%.2f", result.Label, delta))
	}
	if len(lines) == 0 {
		return ""
	}
	return "[STATS] Balance changes:\n" + strings.Join(lines, "\n")
}

func formatResult(result domain.CheckinResult) string {
	var b strings.Builder
	b.WriteString(outcomeTag(result.Outcome))
	b.WriteString(" ")
	b.WriteString(result.Label)
	if result.UserInfo != "" {
		b.WriteString("\n")
		b.WriteString(result.UserInfo)
	}
	if result.Error != "" {
		b.WriteString("\nError: ")
		b.WriteString(result.Error)
	}
	return b.String()
}

func outcomeTag(outcome domain.Outcome) string {
	switch outcome {
	case domain.OutcomeSuccess:
		return "[SUCCESS]"
	case domain.OutcomeAlreadyCheckedIn:
		return "[SKIP]"
	default:
		return "[FAIL]"
	}
}
