package models

import "time"

// Lecturer represents the lecturer profile owned 1:1 by a user.
type Lecturer struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Headline  string    `db:"headline" json:"headline"`
	Bio       string    `db:"bio" json:"bio"`
	Subjects  string    `db:"subjects" json:"subjects"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	PhotoKey  *string   `db:"photo_key" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// LecturerDetail enriches Lecturer with account fields used in responses.
type LecturerDetail struct {
	Lecturer
	Email    string `db:"email" json:"email"`
	FullName string `db:"full_name" json:"full_name"`
	Active   bool   `db:"active" json:"active"`
}

// LecturerFilter captures filtering options for listing lecturers.
type LecturerFilter struct {
	Subject   string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
