package models

import "time"

// ClassStatus represents the lifecycle of a scheduled class.
type ClassStatus string

// Possible class statuses.
const (
	ClassStatusScheduled ClassStatus = "SCHEDULED"
	ClassStatusCompleted ClassStatus = "COMPLETED"
	ClassStatusCancelled ClassStatus = "CANCELLED"
)

// Class represents a scheduled session for a course with either a single
// student or a student group. Exactly one of StudentID and StudentGroupID
// is set.
type Class struct {
	ID             string      `db:"id" json:"id"`
	CourseID       string      `db:"course_id" json:"course_id"`
	LecturerID     string      `db:"lecturer_id" json:"lecturer_id"`
	StudentID      *string     `db:"student_id" json:"student_id,omitempty"`
	StudentGroupID *string     `db:"student_group_id" json:"student_group_id,omitempty"`
	StartsAt       time.Time   `db:"starts_at" json:"starts_at"`
	EndsAt         time.Time   `db:"ends_at" json:"ends_at"`
	Status         ClassStatus `db:"status" json:"status"`
	Notes          string      `db:"notes" json:"notes"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

// ClassDetail extends Class with course and attendee display names.
type ClassDetail struct {
	Class
	CourseName  string  `db:"course_name" json:"course_name"`
	StudentName *string `db:"student_name" json:"student_name,omitempty"`
	GroupName   *string `db:"group_name" json:"group_name,omitempty"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	CourseID       string
	LecturerID     string
	StudentID      string
	StudentGroupID string
	Status         ClassStatus
	From           *time.Time
	To             *time.Time
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}
