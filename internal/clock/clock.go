package clock

import (
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitual/internal/constants"
)

// Clock abstracts time retrieval so "today" is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time in the local zone.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Today returns the clock's current calendar date (YYYY-MM-DD) in the clock's own zone.
func Today(c Clock) string {
	return c.Now().Format(constants.DateFormat)
}

// IDGenerator abstracts unique ID generation so tests are deterministic.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }
