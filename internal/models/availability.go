package models

import "time"

// Availability represents a lecturer's bookable window, either recurring
// on a weekday or tied to a single calendar date.
type Availability struct {
	ID           string     `db:"id" json:"id"`
	LecturerID   string     `db:"lecturer_id" json:"lecturer_id"`
	Recurring    bool       `db:"recurring" json:"recurring"`
	DayOfWeek    *int       `db:"day_of_week" json:"day_of_week,omitempty"`
	SpecificDate *time.Time `db:"specific_date" json:"specific_date,omitempty"`
	StartTime    string     `db:"start_time" json:"start_time"`
	EndTime      string     `db:"end_time" json:"end_time"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// AvailabilityFilter captures filters for listing availability windows.
type AvailabilityFilter struct {
	LecturerID string
	Recurring  *bool
	Page       int
	PageSize   int
}
