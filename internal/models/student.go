package models

import "time"

// Student represents the student profile owned 1:1 by a user.
type Student struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	GradeLevel string    `db:"grade_level" json:"grade_level"`
	Phone      *string   `db:"phone" json:"phone,omitempty"`
	PhotoKey   *string   `db:"photo_key" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail enriches Student with account fields used in responses.
type StudentDetail struct {
	Student
	Email    string `db:"email" json:"email"`
	FullName string `db:"full_name" json:"full_name"`
	Active   bool   `db:"active" json:"active"`
}
