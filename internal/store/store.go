package store

import "time"

// sqlTime formats a timestamp the way SQLite's CURRENT_TIMESTAMP does, so
// bound parameters compare lexically against column defaults.
func sqlTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}
