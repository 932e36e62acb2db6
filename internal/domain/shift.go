package domain

import (
	"strings"
	"time"
)

// DateLayout is the calendar day format used by shifts and assignments.
const DateLayout = "2006-01-02"

// ClockLayout is the time-of-day format used by shift bounds and workUntil.
const ClockLayout = "15:04"

// Shift records a person being available to work on a date.
type Shift struct {
	ID                 string    `json:"id"`
	PersonID           string    `json:"personId"`
	BranchID           string    `json:"branchId"`
	Date               string    `json:"date"`
	StartTime          string    `json:"startTime"`
	EndTime            string    `json:"endTime"`
	IsWorking          bool      `json:"isWorking"`
	DestinationAddress string    `json:"destinationAddress"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Day formats t as a calendar day.
func Day(t time.Time) string {
	return t.Format(DateLayout)
}

// ValidDate reports whether s is a calendar day in DateLayout.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ValidClock reports whether s is a time of day in ClockLayout.
func ValidClock(s string) bool {
	_, err := time.Parse(ClockLayout, strings.TrimSpace(s))
	return err == nil
}
