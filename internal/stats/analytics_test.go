package stats

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage/storagetest"
	"github.com/julianstephens/habitual/internal/utils"
)

// run builds one log per day starting at start, with the given statuses in order
func run(t *testing.T, start string, statuses ...constants.LogStatus) []models.HabitLog {
	t.Helper()
	d := day(t, start)
	logs := make([]models.HabitLog, 0, len(statuses))
	for i, s := range statuses {
		date := utils.FormatDate(d.AddDate(0, 0, i))
		logs = append(logs, storagetest.Log(fmt.Sprintf("r%d", i), "u1", "h1", date, s))
	}
	return logs
}

func repeat(s constants.LogStatus, n int) []constants.LogStatus {
	out := make([]constants.LogStatus, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func TestWeekly(t *testing.T) {
	logs := history(
		"2023-12-20", c,
		"2024-01-01", c,
		"2024-01-06", m,
		"2024-01-08", c,
	)

	got := Weekly(logs, 2, day(t, "2024-01-10"))
	want := []models.WeeklyStats{
		{WeekStart: "2023-12-31", Completed: 1, Missed: 1, Total: 2},
		{WeekStart: "2024-01-07", Completed: 1, Total: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Weekly() = %+v, want %+v", got, want)
	}

	if got := Weekly(logs, 0, day(t, "2024-01-10")); len(got) != 0 {
		t.Errorf("Weekly(0) returned %d buckets", len(got))
	}
}

func TestMonthly(t *testing.T) {
	logs := history(
		"2023-12-31", c,
		"2024-01-05", c,
		"2024-01-06", m,
		"2024-03-01", c,
	)

	got := Monthly(logs, 3, day(t, "2024-03-31"))
	want := []models.MonthlyStats{
		{Month: "2024-01", Completed: 1, Missed: 1, Total: 2, CompletionRate: 50},
		{Month: "2024-02"},
		{Month: "2024-03", Completed: 1, Total: 1, CompletionRate: 100},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Monthly() = %+v, want %+v", got, want)
	}
}

func TestTrendOf(t *testing.T) {
	tests := []struct {
		name string
		logs []models.HabitLog
		want models.Trend
	}{
		{
			name: "too few logs",
			logs: run(t, "2024-01-01", append(repeat(m, 6), repeat(c, 7)...)...),
			want: models.TrendStable,
		},
		{
			name: "improving",
			logs: run(t, "2024-01-01", append(repeat(m, 7), repeat(c, 7)...)...),
			want: models.TrendImproving,
		},
		{
			name: "declining",
			logs: run(t, "2024-01-01", append(repeat(c, 7), repeat(m, 7)...)...),
			want: models.TrendDeclining,
		},
		{
			name: "within threshold",
			logs: run(t, "2024-01-01", c, m, c, m, c, m, c, c, m, c, m, c, m, c),
			want: models.TrendStable,
		},
		{
			name: "one more completion a week is under 15 points",
			logs: run(t, "2024-01-01", m, m, m, m, c, c, c, c, c, c, c, m, m, m),
			want: models.TrendStable,
		},
		{
			name: "exactly 15 points is stable",
			logs: run(t, "2024-01-01", slices.Concat(repeat(c, 10), repeat(m, 10), repeat(c, 13), repeat(m, 7))...),
			want: models.TrendStable,
		},
		{
			name: "over 15 points",
			logs: run(t, "2024-01-01", slices.Concat(repeat(c, 10), repeat(m, 10), repeat(c, 14), repeat(m, 6))...),
			want: models.TrendImproving,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrendOf(tt.logs); got != tt.want {
				t.Errorf("TrendOf() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestConsistency(t *testing.T) {
	daily := run(t, "2024-01-01", repeat(c, 7)...)
	if got := Consistency(daily); got != 1 {
		t.Errorf("Consistency(daily) = %v, want 1", got)
	}

	var alternate []models.HabitLog
	for i := range 7 {
		date := utils.FormatDate(day(t, "2024-01-01").AddDate(0, 0, 2*i))
		alternate = append(alternate, storagetest.Log(fmt.Sprintf("a%d", i), "u1", "h1", date, m))
	}
	if got, want := Consistency(alternate), 7.0/13.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("Consistency(alternate) = %v, want %v", got, want)
	}

	if got := Consistency(daily[:6]); got != 0 {
		t.Errorf("Consistency with 6 logs = %v, want 0", got)
	}
}

func TestBestDay(t *testing.T) {
	logs := history(
		"2024-01-01", c, // Monday
		"2024-01-08", c, // Monday
		"2024-01-03", c, // Wednesday
		"2024-01-10", m, // Wednesday, missed
	)

	wd, n := BestDay(logs)
	if wd != time.Monday || n != 2 {
		t.Errorf("BestDay() = (%s, %d), want (Monday, 2)", wd, n)
	}
}

func insightTypes(insights []models.Insight) []models.InsightType {
	out := make([]models.InsightType, len(insights))
	for i, in := range insights {
		out[i] = in.Type
	}
	return out
}

func TestInsights(t *testing.T) {
	tests := []struct {
		name  string
		logs  []models.HabitLog
		today string
		want  []models.InsightType
	}{
		{
			name:  "no logs",
			today: "2024-01-10",
			want:  []models.InsightType{},
		},
		{
			name:  "strong streak",
			logs:  run(t, "2024-01-01", repeat(c, 10)...),
			today: "2024-01-10",
			want: []models.InsightType{
				models.InsightSuccess,
				models.InsightAchievement,
				models.InsightInfo,
			},
		},
		{
			name:  "struggling",
			logs:  run(t, "2024-01-01", repeat(m, 6)...),
			today: "2024-01-06",
			want:  []models.InsightType{models.InsightWarning},
		},
		{
			name:  "capped at four",
			logs:  run(t, "2024-01-01", append(repeat(m, 4), repeat(c, 16)...)...),
			today: "2024-01-20",
			want: []models.InsightType{
				models.InsightSuccess,
				models.InsightAchievement,
				models.InsightInfo,
				models.InsightSuccess,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := insightTypes(Insights(tt.logs, day(t, tt.today)))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Insights() types = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngineReport(t *testing.T) {
	ctx := context.Background()
	engine, store := newEngine(t, "2024-01-10")

	logs := append(history("2023-12-31", c, "2024-01-02", m, "2024-01-09", c),
		storagetest.Log("other", "u2", "h2", "2024-01-09", c))
	for _, l := range logs {
		if err := store.UpsertLog(ctx, l); err != nil {
			t.Fatalf("UpsertLog failed: %v", err)
		}
	}

	report, err := engine.Report(ctx, "u1", 2, 1)
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	wantWeekly := []models.WeeklyStats{
		{WeekStart: "2023-12-31", Completed: 1, Missed: 1, Total: 2},
		{WeekStart: "2024-01-07", Completed: 1, Total: 1},
	}
	if !reflect.DeepEqual(report.Weekly, wantWeekly) {
		t.Errorf("Weekly = %+v, want %+v", report.Weekly, wantWeekly)
	}
	wantMonthly := []models.MonthlyStats{
		{Month: "2024-01", Completed: 1, Missed: 1, Total: 2, CompletionRate: 50},
	}
	if !reflect.DeepEqual(report.Monthly, wantMonthly) {
		t.Errorf("Monthly = %+v, want %+v", report.Monthly, wantMonthly)
	}

	defaults, err := engine.Report(ctx, "u1", 0, 0)
	if err != nil {
		t.Fatalf("Report with defaults failed: %v", err)
	}
	if len(defaults.Weekly) != constants.DefaultWeeksBack || len(defaults.Monthly) != constants.DefaultMonthsBack {
		t.Errorf("default buckets = (%d, %d), want (%d, %d)",
			len(defaults.Weekly), len(defaults.Monthly), constants.DefaultWeeksBack, constants.DefaultMonthsBack)
	}
}
