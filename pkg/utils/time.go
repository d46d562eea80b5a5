package utils

import "time"

// TimeNowUTC returns the current time in UTC. All persisted timestamps use it.
func TimeNowUTC() time.Time {
	return time.Now().UTC()
}

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time {
	return &t
}
