package stats

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

const (
	maxInsights = 4

	minLogsForTrend       = 14
	minLogsForConsistency = 7
	minLogsForWarning     = 5
	minLogsConsistentMsg  = 10
	minCompletedForDay    = 7

	excellentRate = 80
	goodRate      = 60
	lowRate       = 40

	consistentScore = 0.8
)

func sortChronological(logs []models.HabitLog) {
	slices.SortStableFunc(logs, func(a, b models.HabitLog) int {
		if c := cmp.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

// Weekly buckets logs into the weeksBack weeks ending with the week containing today,
// oldest first. Weeks start on Sunday.
func Weekly(logs []models.HabitLog, weeksBack int, today time.Time) []models.WeeklyStats {
	if weeksBack <= 0 {
		return []models.WeeklyStats{}
	}

	current := utils.WeekStart(today)
	out := make([]models.WeeklyStats, weeksBack)
	index := make(map[string]int, weeksBack)
	for i := range weeksBack {
		start := current.AddDate(0, 0, -7*(weeksBack-1-i))
		out[i].WeekStart = utils.FormatDate(start)
		index[out[i].WeekStart] = i
	}

	for _, l := range logs {
		d, err := utils.ParseDate(l.Date)
		if err != nil {
			continue
		}
		i, ok := index[utils.FormatDate(utils.WeekStart(d))]
		if !ok {
			continue
		}
		tally(&out[i].Completed, &out[i].Missed, l.Status)
		out[i].Total = out[i].Completed + out[i].Missed
	}
	return out
}

// Monthly buckets logs into the monthsBack calendar months ending with today's month,
// oldest first.
func Monthly(logs []models.HabitLog, monthsBack int, today time.Time) []models.MonthlyStats {
	if monthsBack <= 0 {
		return []models.MonthlyStats{}
	}

	current := utils.MonthStart(today)
	out := make([]models.MonthlyStats, monthsBack)
	index := make(map[string]int, monthsBack)
	for i := range monthsBack {
		month := current.AddDate(0, -(monthsBack - 1 - i), 0)
		out[i].Month = month.Format(constants.MonthFormat)
		index[out[i].Month] = i
	}

	for _, l := range logs {
		if len(l.Date) < len(constants.MonthFormat) {
			continue
		}
		i, ok := index[l.Date[:len(constants.MonthFormat)]]
		if !ok {
			continue
		}
		tally(&out[i].Completed, &out[i].Missed, l.Status)
	}
	for i := range out {
		out[i].Total = out[i].Completed + out[i].Missed
		out[i].CompletionRate = CompletionRate(out[i].Completed, out[i].Missed)
	}
	return out
}

func tally(completed, missed *int, status constants.LogStatus) {
	switch status {
	case constants.StatusCompleted:
		*completed++
	case constants.StatusMissed:
		*missed++
	}
}

// TrendOf compares the completion rate of the older and newer halves of the logs.
// Fewer than 14 logs is always stable.
func TrendOf(logs []models.HabitLog) models.Trend {
	if len(logs) < minLogsForTrend {
		return models.TrendStable
	}

	ordered := slices.Clone(logs)
	sortChronological(ordered)
	mid := len(ordered) / 2

	diff := rateOf(ordered[mid:]) - rateOf(ordered[:mid])
	switch {
	case diff > constants.TrendThreshold:
		return models.TrendImproving
	case diff < -constants.TrendThreshold:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

func rateOf(logs []models.HabitLog) float64 {
	var completed, missed int
	for _, l := range logs {
		tally(&completed, &missed, l.Status)
	}
	if completed+missed == 0 {
		return 0
	}
	return 100 * float64(completed) / float64(completed+missed)
}

// Consistency scores how evenly the logged days cover the span from the first to the last
// one: 1 minus the share of days in that span without any log. Fewer than 7 logs scores 0.
func Consistency(logs []models.HabitLog) float64 {
	if len(logs) < minLogsForConsistency {
		return 0
	}

	days := make(map[string]struct{}, len(logs))
	var first, last time.Time
	for _, l := range logs {
		d, err := utils.ParseDate(l.Date)
		if err != nil {
			continue
		}
		days[l.Date] = struct{}{}
		if first.IsZero() || d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}
	if len(days) == 0 {
		return 0
	}

	span := utils.DaysBetween(first, last) + 1
	gaps := span - len(days)
	return 1 - float64(gaps)/float64(span)
}

// BestDay returns the weekday with the most completions. Ties go to the earlier weekday.
func BestDay(logs []models.HabitLog) (time.Weekday, int) {
	var counts [7]int
	for _, l := range logs {
		if l.Status != constants.StatusCompleted {
			continue
		}
		d, err := utils.ParseDate(l.Date)
		if err != nil {
			continue
		}
		counts[d.Weekday()]++
	}

	best := time.Sunday
	for wd := time.Monday; wd <= time.Saturday; wd++ {
		if counts[wd] > counts[best] {
			best = wd
		}
	}
	return best, counts[best]
}

// activeStreak counts consecutive days ending today that have at least one completion
func activeStreak(logs []models.HabitLog, today time.Time) int {
	done := make(map[string]bool, len(logs))
	for _, l := range logs {
		if l.Status == constants.StatusCompleted {
			done[l.Date] = true
		}
	}

	day := utils.CalendarDate(today)
	streak := 0
	for streak < constants.StreakWalkLimit && done[utils.FormatDate(day)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// Insights derives at most four observations from a log history
func Insights(logs []models.HabitLog, today time.Time) []models.Insight {
	insights := []models.Insight{}
	if len(logs) == 0 {
		return insights
	}

	var completed, missed int
	for _, l := range logs {
		tally(&completed, &missed, l.Status)
	}
	rate := CompletionRate(completed, missed)

	switch {
	case rate >= excellentRate:
		insights = append(insights, models.Insight{
			Type:    models.InsightSuccess,
			Title:   "Excellent performance",
			Message: fmt.Sprintf("You're completing %d%% of your habits. Keep it up!", rate),
		})
	case rate >= goodRate:
		insights = append(insights, models.Insight{
			Type:    models.InsightInfo,
			Title:   "Good progress",
			Message: fmt.Sprintf("%d%% completion rate. You're on the right track.", rate),
		})
	case rate < lowRate && len(logs) > minLogsForWarning:
		insights = append(insights, models.Insight{
			Type:    models.InsightWarning,
			Title:   "Room for improvement",
			Message: fmt.Sprintf("%d%% completion rate. Try focusing on fewer habits at once.", rate),
		})
	}

	switch streak := activeStreak(logs, today); {
	case streak >= 7:
		insights = append(insights, models.Insight{
			Type:    models.InsightAchievement,
			Title:   "Streak master",
			Message: fmt.Sprintf("%d days in a row with a completed habit.", streak),
		})
	case streak >= 3:
		insights = append(insights, models.Insight{
			Type:    models.InsightInfo,
			Title:   "Building momentum",
			Message: fmt.Sprintf("%d days in a row. Keep going!", streak),
		})
	}

	if completed > minCompletedForDay {
		day, n := BestDay(logs)
		insights = append(insights, models.Insight{
			Type:    models.InsightInfo,
			Title:   "Best day",
			Message: fmt.Sprintf("%s is your strongest day with %d completions.", day, n),
		})
	}

	switch TrendOf(logs) {
	case models.TrendImproving:
		insights = append(insights, models.Insight{
			Type:    models.InsightSuccess,
			Title:   "Trending up",
			Message: "Your recent completion rate is higher than before.",
		})
	case models.TrendDeclining:
		insights = append(insights, models.Insight{
			Type:    models.InsightWarning,
			Title:   "Trending down",
			Message: "Your recent completion rate has dropped. Consider adjusting your goals.",
		})
	}

	if score := Consistency(logs); score >= consistentScore && len(logs) > minLogsConsistentMsg {
		insights = append(insights, models.Insight{
			Type:    models.InsightAchievement,
			Title:   "Consistent tracker",
			Message: fmt.Sprintf("You logged on %.0f%% of days in your history.", score*100),
		})
	}

	if len(insights) > maxInsights {
		insights = insights[:maxInsights]
	}
	return insights
}

// Report loads the user's logs covering the requested windows and derives the weekly,
// monthly, and insight analytics from them.
func (e *Engine) Report(ctx context.Context, userID string, weeks, months int) (models.Report, error) {
	if weeks <= 0 {
		weeks = constants.DefaultWeeksBack
	}
	if months <= 0 {
		months = constants.DefaultMonthsBack
	}

	today := utils.CalendarDate(e.clock.Now())
	start := utils.WeekStart(today).AddDate(0, 0, -7*(weeks-1))
	if monthStart := utils.MonthStart(today).AddDate(0, -(months-1), 0); monthStart.Before(start) {
		start = monthStart
	}

	logs, err := e.store.GetLogsInRange(ctx, userID, utils.FormatDate(start), utils.FormatDate(today))
	if err != nil {
		return models.Report{}, err
	}

	return models.Report{
		Weekly:   Weekly(logs, weeks, today),
		Monthly:  Monthly(logs, months, today),
		Insights: Insights(logs, today),
	}, nil
}
