package models

// WeeklyStats aggregates logs of all habits for one week (weeks start on Sunday)
type WeeklyStats struct {
	WeekStart string `json:"week_start"` // YYYY-MM-DD
	Completed int    `json:"completed"`
	Missed    int    `json:"missed"`
	Total     int    `json:"total"`
}

// MonthlyStats aggregates logs of all habits for one calendar month
type MonthlyStats struct {
	Month          string `json:"month"` // YYYY-MM
	Completed      int    `json:"completed"`
	Missed         int    `json:"missed"`
	Total          int    `json:"total"`
	CompletionRate int    `json:"completion_rate"`
}

type InsightType string

const (
	InsightSuccess     InsightType = "success"
	InsightWarning     InsightType = "warning"
	InsightInfo        InsightType = "info"
	InsightAchievement InsightType = "achievement"
)

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// Insight is a short human-readable observation derived from a log history
type Insight struct {
	Type    InsightType `json:"type"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
}

// Report bundles the analytics of a user over a window
type Report struct {
	Weekly   []WeeklyStats  `json:"weekly"`
	Monthly  []MonthlyStats `json:"monthly"`
	Insights []Insight      `json:"insights"`
}
