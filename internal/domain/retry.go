package domain

import "time"

// RetryEntry is one scheduled re-indexing attempt. At identifies the schedule:
// rescheduling the same native id yields an entry with a later At.
type RetryEntry struct {
	NativeID string
	At       time.Time
}
