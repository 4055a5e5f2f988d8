package pointer

import "time"

// Pointer returns a pointer to a copy of v.
func Pointer[T any](v T) *T {
	return &v
}

// Time returns a pointer to t, or nil if t is the zero time.
func Time(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
