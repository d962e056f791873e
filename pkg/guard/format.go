package guard

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Kind enumerates the formats this layer knows how to validate.
type Kind string

const (
	// KindUUID is a canonical 36-character UUID.
	KindUUID Kind = "uuid"

	// KindDate is a YYYY-MM-DD calendar date.
	KindDate Kind = "date"

	// KindTime is a 24-hour HH:MM clock time.
	KindTime Kind = "time"

	// KindWeekday is a lowercase English day-of-week name.
	KindWeekday Kind = "weekday"
)

// FormatError reports the field and format rule an input violated.
// Validation-class errors are the one place the taxonomy reports the exact
// rule to the caller.
type FormatError struct {
	Field string
	Kind  Kind
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("guard: field %q is not a valid %s", e.Field, e.Kind)
}

var (
	// dateShape pins digit counts before the calendar check so "26-1-2" or
	// "2026-1-02" can't sneak through time.Parse leniency.
	dateShape = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeShape = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

	weekdays = map[string]bool{
		"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
		"friday": true, "saturday": true, "sunday": true,
	}
)

// ValidateFormat reports whether value matches the named format. Mixed or
// partial matches are rejected - either the whole value conforms or it
// doesn't.
func ValidateFormat(kind Kind, value string) bool {
	switch kind {
	case KindUUID:
		if len(value) != 36 {
			return false
		}
		_, err := uuid.Parse(value)
		return err == nil
	case KindDate:
		if !dateShape.MatchString(value) {
			return false
		}
		_, err := time.Parse("2006-01-02", value)
		return err == nil
	case KindTime:
		return timeShape.MatchString(value)
	case KindWeekday:
		return weekdays[value]
	default:
		return false
	}
}
