// Package utils
package utils

import (
	"time"
)

const DateLayout = "2006-01-02"

// GetToday return ISO format: YYYY-MM-DD
func GetToday() string {
	return time.Now().Format(DateLayout)
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
