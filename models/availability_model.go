package models

import "time"

// AvailabilityWindow is one free-form {start, end} entry of a mentor's availability.
// Entries are neither ordered nor checked for overlap.
type AvailabilityWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
