package domain

import "time"

// DateKeyLayout is the format of the date a snapshot is stored under.
const DateKeyLayout = time.DateOnly

// DateKey returns the UTC date key for t.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateKeyLayout)
}

// ValidateDateKey returns a validation error unless key is a calendar date in YYYY-MM-DD form.
func ValidateDateKey(key string) error {
	if _, err := time.Parse(DateKeyLayout, key); err != nil {
		return NewValidationErrorWithValue("date", "must be a YYYY-MM-DD date", key)
	}

	return nil
}
