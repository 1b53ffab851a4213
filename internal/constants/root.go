package constants

import "time"

// FrequencyType is the recurrence rule tag of a habit
type FrequencyType string

// LogStatus is the recorded outcome of a habit on a day
type LogStatus string

const (
	AppName            = "habitual"
	Version            = "v0.1.0"
	DefaultConfigDir   = "~/.config/habitual"
	DefaultConfigFile  = "config.toml"
	DefaultDBFile      = "habitual.db"
	DefaultUserID      = "local"
	DefaultKeyringUser = "database-connection"

	// DateFormat is the calendar-date format used for every log and stats date (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// MonthFormat is used for monthly analytics buckets (YYYY-MM)
	MonthFormat = "2006-01"

	// Frequency types
	FrequencyDaily   FrequencyType = "daily"
	FrequencyWeekly  FrequencyType = "weekly"
	FrequencyMonthly FrequencyType = "monthly"

	// Log statuses. Pending is never stored; it is the absence of a log.
	StatusCompleted LogStatus = "completed"
	StatusMissed    LogStatus = "missed"
	StatusPending   LogStatus = "pending"

	// DefaultHabitColor is applied when a habit is created without a color
	DefaultHabitColor = "#3B82F6"

	MaxHabitNameLength = 100

	// StreakWalkLimit bounds the backward current-streak walk in days
	StreakWalkLimit = 365

	// Analytics defaults
	DefaultWeeksBack  = 4
	DefaultMonthsBack = 6

	// TrendThreshold is the completion-rate delta (in percentage points) a trend must exceed
	TrendThreshold = 15

	// SQLitePollInterval is how often a subscribed sqlite store checks for commits made by
	// other connections
	SQLitePollInterval = time.Second

	// Firestore limits a batch to 500 writes; stay under it
	MaxBatchSize = 450

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habitual-"
	BackupFileSuffix = ".db"

	// Server constants
	DefaultServerAddr  = ":8080"
	DefaultRateLimit   = 5
	DefaultRateBurst   = 30
	VisitorTTL         = 3 * time.Minute
	RequestTimeout     = 5 * time.Second
	UserIDHeader       = "X-User-ID"
	LogsNotifyChannel  = "habitual_logs"
	SubscriptionBuffer = 16
)
