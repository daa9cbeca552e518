package models

import "time"

// Course represents a published course owned by a lecturer.
type Course struct {
	ID              string    `db:"id" json:"id"`
	LecturerID      string    `db:"lecturer_id" json:"lecturer_id"`
	Name            string    `db:"name" json:"name"`
	Subject         string    `db:"subject" json:"subject"`
	Level           string    `db:"level" json:"level"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	HourlyRate      float64   `db:"hourly_rate" json:"hourly_rate"`
	Description     string    `db:"description" json:"description"`
	FlyerKey        *string   `db:"flyer_key" json:"-"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// CourseDetail extends Course with lecturer display info.
type CourseDetail struct {
	Course
	LecturerName string `db:"lecturer_name" json:"lecturer_name"`
}

// CourseFilter defines filter criteria for listing courses.
type CourseFilter struct {
	LecturerID string
	Subject    string
	Level      string
	Search     string
	Active     *bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
