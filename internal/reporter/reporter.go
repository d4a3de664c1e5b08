package reporter

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/thoth/thoth/internal/models"
	"github.com/thoth/thoth/pkg/utils"
)

// Source is the part of the repository reports are built from
type Source interface {
	GetLaunchSummarySince(since time.Time) ([]models.LaunchSummary, error)
	CountFailuresSince(since time.Time) (int64, error)
}

// Reporter handles report generation
type Reporter struct {
	repo Source
	now  func() time.Time
}

// New creates a new reporter
func New(repo Source) *Reporter {
	return &Reporter{
		repo: repo,
		now:  time.Now,
	}
}

// GenerateReport generates a report for the specified period
func (r *Reporter) GenerateReport(periodType string) (*models.Report, error) {
	period, err := r.getPeriod(periodType)
	if err != nil {
		return nil, err
	}

	summaries, err := r.repo.GetLaunchSummarySince(period.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to get launch summary: %w", err)
	}

	failures, err := r.repo.CountFailuresSince(period.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to count failures: %w", err)
	}

	var total int64
	for i := range summaries {
		total += summaries[i].Launches
	}

	if total > 0 {
		for i := range summaries {
			summaries[i].Percentage = (float64(summaries[i].Launches) / float64(total)) * 100.0
		}
	}

	report := &models.Report{
		Period:        *period,
		Apps:          summaries,
		TotalLaunches: total,
		Failures:      failures,
		GeneratedAt:   r.now(),
	}

	return report, nil
}

// getPeriod calculates the time range for the report
func (r *Reporter) getPeriod(periodType string) (*models.ReportPeriod, error) {
	now := r.now()
	var start, end time.Time

	switch periodType {
	case "day", "today", "":
		periodType = "day"
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 0, 1)

	case "week":
		// Start of week (Monday)
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday = 7
		}
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(weekday - 1))
		end = start.AddDate(0, 0, 7)

	case "month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, 0)

	default:
		return nil, fmt.Errorf("invalid period type: %s (valid: day, week, month)", periodType)
	}

	return &models.ReportPeriod{
		Start: start,
		End:   end,
		Type:  periodType,
	}, nil
}

// FormatReportText formats the report as human-readable text
func (r *Reporter) FormatReportText(report *models.Report) string {
	output := fmt.Sprintf("Launch Report - %s\n", report.Period.Type)
	output += fmt.Sprintf("Period: %s to %s\n",
		report.Period.Start.Format("2006-01-02 15:04"),
		report.Period.End.Format("2006-01-02 15:04"))
	output += fmt.Sprintf("Total Launches: %d (%d failed)\n\n", report.TotalLaunches, report.Failures)

	if len(report.Apps) == 0 {
		output += "No launches recorded for this period.\n"
		return output
	}

	output += fmt.Sprintf("%-30s %10s %10s %12s\n", "Application", "Launches", "Percent", "Last")
	output += fmt.Sprintf("%s\n", "--------------------------------------------------------------------")

	for _, app := range report.Apps {
		output += fmt.Sprintf("%-30s %10d %9.1f%% %12s\n",
			utils.Truncate(app.Name, 30),
			app.Launches,
			app.Percentage,
			utils.FormatAgo(app.LastLaunch, report.GeneratedAt))
	}

	return output
}

// FormatReportJSON formats the report as JSON
func (r *Reporter) FormatReportJSON(report *models.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}
