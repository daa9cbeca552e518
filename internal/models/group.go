package models

import "time"

// StudentGroup represents a study group created by a student. A unique
// six character group code is used by other students to request a join.
type StudentGroup struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	GroupCode string    `db:"group_code" json:"group_code"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// GroupEnrollment is a join record between a student and a group. One row
// per (student, group) pair regardless of outcome.
type GroupEnrollment struct {
	ID              string           `db:"id" json:"id"`
	GroupID         string           `db:"group_id" json:"group_id"`
	StudentID       string           `db:"student_id" json:"student_id"`
	Status          EnrollmentStatus `db:"status" json:"status"`
	ApprovedByOwner bool             `db:"approved_by_owner" json:"approved_by_owner"`
	ApprovedAt      *time.Time       `db:"approved_at" json:"approved_at,omitempty"`
	RejectedAt      *time.Time       `db:"rejected_at" json:"rejected_at,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
}

// GroupMember is the owner-facing view of an enrollment with student info.
type GroupMember struct {
	GroupEnrollment
	StudentName  string `db:"student_name" json:"student_name"`
	StudentEmail string `db:"student_email" json:"student_email"`
}

// GroupFilter captures filters for listing groups.
type GroupFilter struct {
	CreatedBy string
	MemberID  string
	Active    *bool
	Page      int
	PageSize  int
}
