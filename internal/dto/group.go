package dto

import (
	"time"

	"github.com/lecturehub/lecturehub-api/internal/models"
)

// CreateGroupRequest defines payload for creating a student group.
type CreateGroupRequest struct {
	Name string `json:"name" validate:"required,min=2,max=80"`
}

// GroupSummary is the list projection of a group. The join code is only
// disclosed on groups the caller created.
type GroupSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	GroupCode   string    `json:"group_code,omitempty"`
	CreatedBy   string    `json:"created_by"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// GroupDetail is the single-group projection. Non-owners receive it without
// the join code and membership roster.
type GroupDetail struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	GroupCode   string               `json:"group_code,omitempty"`
	CreatedBy   string               `json:"created_by"`
	MemberCount int                  `json:"member_count"`
	CreatedAt   time.Time            `json:"created_at"`
	Members     []models.GroupMember `json:"members,omitempty"`
}

// DecisionRequest carries an approve/reject decision for an enrollment.
type DecisionRequest struct {
	Decision models.EnrollmentDecision `json:"decision" validate:"required,oneof=APPROVE REJECT"`
}
