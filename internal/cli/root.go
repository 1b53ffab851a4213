package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/backup"
	"github.com/julianstephens/habitual/internal/clock"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/metrics"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/tracker"
	"github.com/julianstephens/habitual/internal/utils"
	"github.com/julianstephens/habitual/internal/view"
)

// Context is handed to every command's Run method
type Context struct {
	Config  *config.Config
	Store   storage.Provider
	Tracker *tracker.Service
	Views   *view.Service
	Metrics *metrics.Metrics
	Clock   clock.Clock

	ConfigPath string
	UserID     string
	Date       string // --date flag; empty means today
	Out        io.Writer

	ctx context.Context
	ids clock.IDGenerator
}

type Option func(*Context)

func WithClock(c clock.Clock) Option {
	return func(ctx *Context) { ctx.Clock = c }
}

func WithOutput(w io.Writer) Option {
	return func(ctx *Context) { ctx.Out = w }
}

func WithIDGenerator(g clock.IDGenerator) Option {
	return func(ctx *Context) { ctx.ids = g }
}

// NewContext builds the services shared by all commands on top of store
func NewContext(ctx context.Context, cfg *config.Config, store storage.Provider, opts ...Option) *Context {
	c := &Context{
		Config: cfg,
		Store:  store,
		Clock:  clock.RealClock{},
		UserID: cfg.UserID,
		Out:    os.Stdout,
		ctx:    ctx,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Metrics = metrics.New()
	trackerOpts := []tracker.Option{tracker.WithClock(c.Clock), tracker.WithRecorder(c.Metrics)}
	if c.ids != nil {
		trackerOpts = append(trackerOpts, tracker.WithIDGenerator(c.ids))
	}
	c.Tracker = tracker.New(store, trackerOpts...)
	c.Views = view.NewService(store, c.Clock)
	return c
}

func (c *Context) Ctx() context.Context {
	return c.ctx
}

// Day resolves the --date flag to a calendar date
func (c *Context) Day() (string, error) {
	if c.Date == "" {
		return clock.Today(c.Clock), nil
	}
	if !utils.ValidateDateFormat(c.Date) {
		return "", errors.Validation("date", "invalid date %q (expected YYYY-MM-DD)", c.Date)
	}
	return c.Date, nil
}

// FindHabit looks a habit up by id or name for the current user
func (c *Context) FindHabit(ref string) (models.Habit, error) {
	return c.Tracker.FindHabit(c.ctx, c.UserID, ref)
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}

// IsSQLite reports whether the store is a local database file that can be snapshotted
func (c *Context) IsSQLite() bool {
	return c.Config.Storage.Type == config.StorageSQLite
}

// PerformAutomaticBackup snapshots a SQLite database and silently handles errors.
// It returns the backup path, or "" when nothing was written.
func (c *Context) PerformAutomaticBackup() string {
	if !c.IsSQLite() {
		return ""
	}
	mgr := backup.NewManager(c.Store.GetConfigPath(), backup.WithClock(c.Clock))
	path, err := mgr.Create()
	if err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
		return ""
	}
	return path
}

// ParseWeekdays parses a comma-separated list of weekdays into 0 (Sunday) ... 6 (Saturday)
func ParseWeekdays(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	var weekdays []int

	dayMap := map[string]time.Weekday{
		"sun":       time.Sunday,
		"sunday":    time.Sunday,
		"mon":       time.Monday,
		"monday":    time.Monday,
		"tue":       time.Tuesday,
		"tuesday":   time.Tuesday,
		"wed":       time.Wednesday,
		"wednesday": time.Wednesday,
		"thu":       time.Thursday,
		"thursday":  time.Thursday,
		"fri":       time.Friday,
		"friday":    time.Friday,
		"sat":       time.Saturday,
		"saturday":  time.Saturday,
	}

	for _, part := range parts {
		part = strings.TrimSpace(strings.ToLower(part))
		if wd, ok := dayMap[part]; ok {
			weekdays = append(weekdays, int(wd))
		} else {
			// Try parsing as number (0=Sunday, 6=Saturday)
			num, err := strconv.Atoi(part)
			if err == nil && num >= 0 && num <= 6 {
				weekdays = append(weekdays, num)
			} else {
				return nil, fmt.Errorf("invalid weekday: %s", part)
			}
		}
	}

	return weekdays, nil
}

// ParseMonthDays parses a comma-separated list of days of the month (1-31)
func ParseMonthDays(s string) ([]int, error) {
	var days []int
	for _, part := range strings.Split(s, ",") {
		num, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || num < 1 || num > 31 {
			return nil, fmt.Errorf("invalid day of month: %s", strings.TrimSpace(part))
		}
		days = append(days, num)
	}
	return days, nil
}

// ParseFrequency builds a frequency from the --every/--days flags shared by habit add and edit
func ParseFrequency(every, days string) (models.Frequency, error) {
	freq := models.Frequency{Type: constants.FrequencyType(strings.ToLower(every))}
	switch freq.Type {
	case "", constants.FrequencyDaily:
		freq.Type = constants.FrequencyDaily
		if days != "" {
			return models.Frequency{}, fmt.Errorf("--days only applies to weekly or monthly habits")
		}
	case constants.FrequencyWeekly:
		if days == "" {
			return freq, nil
		}
		weekdays, err := ParseWeekdays(days)
		if err != nil {
			return models.Frequency{}, err
		}
		freq.DaysOfWeek = weekdays
	case constants.FrequencyMonthly:
		if days == "" {
			return freq, nil
		}
		monthDays, err := ParseMonthDays(days)
		if err != nil {
			return models.Frequency{}, err
		}
		freq.DaysOfMonth = monthDays
	default:
		return models.Frequency{}, fmt.Errorf("invalid frequency %q (expected daily, weekly or monthly)", every)
	}
	return freq, nil
}

// FormatFrequency formats a frequency into a human-readable string
func FormatFrequency(freq models.Frequency) string {
	switch freq.Type {
	case "", constants.FrequencyDaily:
		return "daily"
	case constants.FrequencyWeekly:
		if len(freq.DaysOfWeek) > 0 {
			var days []string
			for _, wd := range freq.DaysOfWeek {
				days = append(days, time.Weekday(wd).String()[:3])
			}
			return fmt.Sprintf("weekly on %s", strings.Join(days, ","))
		}
		return "weekly (no days)"
	case constants.FrequencyMonthly:
		if len(freq.DaysOfMonth) > 0 {
			var days []string
			for _, d := range freq.DaysOfMonth {
				days = append(days, strconv.Itoa(d))
			}
			return fmt.Sprintf("monthly on %s", strings.Join(days, ","))
		}
		return "monthly (no days)"
	default:
		return "unknown"
	}
}
