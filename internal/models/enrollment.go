package models

import "time"

// EnrollmentStatus represents the decision state of an enrollment request.
type EnrollmentStatus string

// An enrollment starts PENDING and is decided exactly once; APPROVED and
// REJECTED are terminal.
const (
	EnrollmentStatusPending  EnrollmentStatus = "PENDING"
	EnrollmentStatusApproved EnrollmentStatus = "APPROVED"
	EnrollmentStatusRejected EnrollmentStatus = "REJECTED"
)

// EnrollmentDecision is a requested transition out of PENDING.
type EnrollmentDecision string

const (
	DecisionApprove EnrollmentDecision = "APPROVE"
	DecisionReject  EnrollmentDecision = "REJECT"
)

// CourseEnrollment links a course to either a student or a student group.
// ApprovedAt is set iff status is APPROVED, RejectedAt iff REJECTED.
type CourseEnrollment struct {
	ID                string           `db:"id" json:"id"`
	CourseID          string           `db:"course_id" json:"course_id"`
	StudentID         *string          `db:"student_id" json:"student_id,omitempty"`
	StudentGroupID    *string          `db:"student_group_id" json:"student_group_id,omitempty"`
	GroupEnrollmentID *string          `db:"group_enrollment_id" json:"group_enrollment_id,omitempty"`
	Status            EnrollmentStatus `db:"status" json:"status"`
	ApprovedAt        *time.Time       `db:"approved_at" json:"approved_at,omitempty"`
	RejectedAt        *time.Time       `db:"rejected_at" json:"rejected_at,omitempty"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
}

// CourseEnrollmentDetail enriches CourseEnrollment with display info.
type CourseEnrollmentDetail struct {
	CourseEnrollment
	CourseName  string  `db:"course_name" json:"course_name"`
	StudentName *string `db:"student_name" json:"student_name,omitempty"`
	GroupName   *string `db:"group_name" json:"group_name,omitempty"`
}

// CourseEnrollmentFilter provides filters for listing course enrollments.
type CourseEnrollmentFilter struct {
	CourseID       string
	LecturerID     string
	StudentID      string
	StudentGroupID string
	Status         EnrollmentStatus
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}
