package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lecturehub/lecturehub-api/internal/dto"
	"github.com/lecturehub/lecturehub-api/internal/models"
	appErrors "github.com/lecturehub/lecturehub-api/pkg/errors"
)

type groupRepository interface {
	CreateWithOwner(ctx context.Context, group *models.StudentGroup) error
	FindByID(ctx context.Context, id string) (*models.StudentGroup, error)
	FindActiveByCode(ctx context.Context, code string) (*models.StudentGroup, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	ListForStudent(ctx context.Context, studentID string) ([]models.StudentGroup, error)
	SetActive(ctx context.Context, id string, active bool) error
	ListMembers(ctx context.Context, groupID string, status models.EnrollmentStatus) ([]models.GroupMember, error)
	FindEnrollmentByID(ctx context.Context, id string) (*models.GroupEnrollment, error)
	MembershipExists(ctx context.Context, groupID, studentID string) (bool, error)
	CreateJoinRequest(ctx context.Context, enrollment *models.GroupEnrollment) error
	ApproveJoin(ctx context.Context, enrollmentID string, approvedAt time.Time) (bool, int, error)
	RejectJoin(ctx context.Context, enrollmentID string, rejectedAt time.Time) (bool, error)
	RemoveMember(ctx context.Context, groupID, studentID string) (bool, error)
}

// GroupService handles student group and membership workflows.
type GroupService struct {
	repo      groupRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGroupService creates a new group service.
func NewGroupService(repo groupRepository, validate *validator.Validate, logger *zap.Logger) *GroupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{repo: repo, validator: validate, logger: logger}
}

const (
	groupCodeLength   = 6
	groupCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	groupCodeRetries  = 5
)

// Create creates a group with a fresh join code and enrolls the creator as
// its first approved member.
func (s *GroupService) Create(ctx context.Context, studentID string, req dto.CreateGroupRequest) (*models.StudentGroup, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}

	code, err := s.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	group := &models.StudentGroup{
		Name:      strings.TrimSpace(req.Name),
		GroupCode: code,
		CreatedBy: studentID,
		Active:    true,
	}
	if err := s.repo.CreateWithOwner(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create group")
	}

	s.logger.Info("group created", zap.String("group_id", group.ID))
	return group, nil
}

// ListMine returns the caller's groups projected for the member view. The
// join code is only included on groups the caller created.
func (s *GroupService) ListMine(ctx context.Context, studentID string) ([]dto.GroupSummary, error) {
	groups, err := s.repo.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list groups")
	}

	summaries := make([]dto.GroupSummary, 0, len(groups))
	for _, g := range groups {
		members, err := s.repo.ListMembers(ctx, g.ID, models.EnrollmentStatusApproved)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count members")
		}
		summary := dto.GroupSummary{
			ID:          g.ID,
			Name:        g.Name,
			CreatedBy:   g.CreatedBy,
			MemberCount: len(members),
			CreatedAt:   g.CreatedAt,
		}
		if g.CreatedBy == studentID {
			summary.GroupCode = g.GroupCode
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Get returns a group. The creator sees the full membership roster and join
// code; approved members get the restricted projection.
func (s *GroupService) Get(ctx context.Context, id, studentID string) (*dto.GroupDetail, error) {
	group, err := s.activeGroup(ctx, id)
	if err != nil {
		return nil, err
	}

	isOwner := group.CreatedBy == studentID
	if !isOwner {
		members, err := s.repo.ListMembers(ctx, id, models.EnrollmentStatusApproved)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
		}
		isMember := false
		for _, m := range members {
			if m.StudentID == studentID {
				isMember = true
				break
			}
		}
		if !isMember {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "not a member of this group")
		}
		detail := &dto.GroupDetail{
			ID:          group.ID,
			Name:        group.Name,
			CreatedBy:   group.CreatedBy,
			CreatedAt:   group.CreatedAt,
			MemberCount: len(members),
		}
		return detail, nil
	}

	members, err := s.repo.ListMembers(ctx, id, models.EnrollmentStatusApproved)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}
	return &dto.GroupDetail{
		ID:          group.ID,
		Name:        group.Name,
		GroupCode:   group.GroupCode,
		CreatedBy:   group.CreatedBy,
		CreatedAt:   group.CreatedAt,
		MemberCount: len(members),
		Members:     members,
	}, nil
}

// Deactivate soft-deletes a group. Only the creator may do it.
func (s *GroupService) Deactivate(ctx context.Context, id, studentID string) error {
	group, err := s.activeGroup(ctx, id)
	if err != nil {
		return err
	}
	if group.CreatedBy != studentID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the group creator can delete the group")
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate group")
	}
	return nil
}

// Join records a PENDING join request against the group behind the code.
// A prior record in any status, including a rejection, blocks a re-request.
func (s *GroupService) Join(ctx context.Context, groupCode, studentID string) (*models.GroupEnrollment, error) {
	group, err := s.repo.FindActiveByCode(ctx, strings.ToUpper(strings.TrimSpace(groupCode)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}

	exists, err := s.repo.MembershipExists(ctx, group.ID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check membership")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a join request already exists for this group")
	}

	enrollment := &models.GroupEnrollment{
		GroupID:   group.ID,
		StudentID: studentID,
		Status:    models.EnrollmentStatusPending,
	}
	if err := s.repo.CreateJoinRequest(ctx, enrollment); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a join request already exists for this group")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create join request")
	}
	return enrollment, nil
}

// ListRequests returns a group's pending join requests for its creator.
func (s *GroupService) ListRequests(ctx context.Context, groupID, studentID string) ([]models.GroupMember, error) {
	group, err := s.activeGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.CreatedBy != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the group creator can review join requests")
	}
	requests, err := s.repo.ListMembers(ctx, groupID, models.EnrollmentStatusPending)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list join requests")
	}
	return requests, nil
}

// DecideJoin approves or rejects a pending join request. Approval cascades
// a PENDING course enrollment for every course the group already holds an
// approved enrollment for; the joining student still waits on each lecturer.
func (s *GroupService) DecideJoin(ctx context.Context, enrollmentID, studentID string, decision models.EnrollmentDecision) (*models.GroupEnrollment, error) {
	enrollment, err := s.repo.FindEnrollmentByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "join request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load join request")
	}

	group, err := s.repo.FindByID(ctx, enrollment.GroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	if group.CreatedBy != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the group creator can decide join requests")
	}

	now := time.Now().UTC()
	switch decision {
	case models.DecisionApprove:
		applied, cascaded, err := s.repo.ApproveJoin(ctx, enrollmentID, now)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve join request")
		}
		if !applied {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "join request has already been decided")
		}
		enrollment.Status = models.EnrollmentStatusApproved
		enrollment.ApprovedByOwner = true
		enrollment.ApprovedAt = &now
		s.logger.Info("group join approved",
			zap.String("enrollment_id", enrollmentID),
			zap.Int("cascaded_enrollments", cascaded))
	case models.DecisionReject:
		applied, err := s.repo.RejectJoin(ctx, enrollmentID, now)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject join request")
		}
		if !applied {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "join request has already been decided")
		}
		enrollment.Status = models.EnrollmentStatusRejected
		enrollment.RejectedAt = &now
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision must be APPROVE or REJECT")
	}
	return enrollment, nil
}

// RemoveMember removes a member from the group. The creator's own membership
// row can never be removed; deleting the group is the only exit for them.
func (s *GroupService) RemoveMember(ctx context.Context, groupID, targetStudentID, callerID string) error {
	group, err := s.activeGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.CreatedBy != callerID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the group creator can remove members")
	}
	if targetStudentID == group.CreatedBy {
		return appErrors.Clone(appErrors.ErrValidation, "the group creator cannot be removed")
	}

	removed, err := s.repo.RemoveMember(ctx, groupID, targetStudentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove member")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "member not found")
	}
	return nil
}

func (s *GroupService) activeGroup(ctx context.Context, id string) (*models.StudentGroup, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	if !group.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
	}
	return group, nil
}

// generateCode draws random codes until one is free, bounded by a fixed
// number of attempts.
func (s *GroupService) generateCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < groupCodeRetries; attempt++ {
		buf := make([]byte, groupCodeLength)
		if _, err := rand.Read(buf); err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate group code")
		}
		code := make([]byte, groupCodeLength)
		for i, b := range buf {
			code[i] = groupCodeAlphabet[int(b)%len(groupCodeAlphabet)]
		}
		exists, err := s.repo.CodeExists(ctx, string(code))
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check group code")
		}
		if !exists {
			return string(code), nil
		}
	}
	return "", appErrors.Wrap(fmt.Errorf("exhausted %d attempts", groupCodeRetries), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate group code")
}
