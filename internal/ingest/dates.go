package ingest

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DateLayout is the upstream calendar date format
	DateLayout = "2006-01-02"

	// MaxDaysToIngest bounds how far back a single run may reach
	MaxDaysToIngest = 365
)

// ValidationError reports an invalid run argument. Nothing is fetched when
// a run fails validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error (%s): %s", e.Field, e.Message)
}

// AsValidationError attempts to unwrap an error into a ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr, true
	}
	return nil, false
}

// DateRange returns days+1 consecutive calendar dates in ascending order,
// ending on the calendar date of now in now's location.
func DateRange(now time.Time, days int) ([]string, error) {
	if days < 0 || days > MaxDaysToIngest {
		return nil, &ValidationError{
			Field:   "daysToIngest",
			Message: fmt.Sprintf("must be between 0 and %d, got %d", MaxDaysToIngest, days),
		}
	}

	// Noon keeps day arithmetic clear of DST transitions
	year, month, day := now.Date()
	dates := make([]string, 0, days+1)
	for i := days; i >= 0; i-- {
		date := time.Date(year, month, day-i, 12, 0, 0, 0, now.Location())
		dates = append(dates, date.Format(DateLayout))
	}
	return dates, nil
}
