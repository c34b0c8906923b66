package mood

import (
	"fmt"
	"time"
)

const (
	MinValue = 1
	MaxValue = 5

	// DateLayout is the calendar-day format used for check-ins.
	DateLayout = "2006-01-02"

	DefaultSeriesDays = 14
)

// Entry is one daily mood check-in. A user has at most one entry per date.
type Entry struct {
	UserID string  `json:"userId"`
	Date   string  `json:"date"`
	Value  int     `json:"mood"`
	Note   *string `json:"note,omitempty"`
}

// Point is a (date, mood) pair of a mood series.
type Point struct {
	Date  string `json:"date"`
	Value int    `json:"mood"`
}

// Validate checks the mood range and the date format.
func (e Entry) Validate() error {
	if e.Value < MinValue || e.Value > MaxValue {
		return fmt.Errorf("mood must be between %d and %d, got %d", MinValue, MaxValue, e.Value)
	}
	if _, err := time.Parse(DateLayout, e.Date); err != nil {
		return fmt.Errorf("invalid date %q: %w", e.Date, err)
	}
	return nil
}

// Today formats t as a check-in date.
func Today(t time.Time) string {
	return t.Format(DateLayout)
}
