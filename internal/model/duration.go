package model

import "fmt"

// Duration is a non-negative worked time split into whole hours and
// minutes, with Minutes < 60.
type Duration struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// DurationFromMinutes normalizes a minute count. Negative input clamps to zero.
func DurationFromMinutes(total int) Duration {
	if total < 0 {
		total = 0
	}
	return Duration{Hours: total / 60, Minutes: total % 60}
}

// TotalMinutes returns the duration as a single minute count.
func (d Duration) TotalMinutes() int {
	return d.Hours*60 + d.Minutes
}

// String formats the duration as "7h 0m".
func (d Duration) String() string {
	return fmt.Sprintf("%dh %dm", d.Hours, d.Minutes)
}
