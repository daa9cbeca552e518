package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lecturehub/lecturehub-api/internal/dto"
	"github.com/lecturehub/lecturehub-api/internal/models"
	appErrors "github.com/lecturehub/lecturehub-api/pkg/errors"
)

type mockGroupRepo struct {
	groups          map[string]*models.StudentGroup
	codeIndex       map[string]string
	enrollments     map[string]*models.GroupEnrollment
	members         map[string][]models.GroupMember
	pending         map[string][]models.GroupMember
	membershipIndex map[string]bool
	takenCodes      map[string]bool
	alwaysTaken     bool
	codeChecks      []string
	joinRequests    []*models.GroupEnrollment
	removed         []string
	approveApplied  bool
	approveCascaded int
	rejectApplied   bool
	removeFound     bool
	deactivated     []string
}

func (m *mockGroupRepo) CreateWithOwner(ctx context.Context, group *models.StudentGroup) error {
	if group.ID == "" {
		group.ID = "generated"
	}
	group.CreatedAt = time.Now()
	if m.groups == nil {
		m.groups = make(map[string]*models.StudentGroup)
	}
	cp := *group
	m.groups[group.ID] = &cp
	return nil
}

func (m *mockGroupRepo) FindByID(ctx context.Context, id string) (*models.StudentGroup, error) {
	if g, ok := m.groups[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGroupRepo) FindActiveByCode(ctx context.Context, code string) (*models.StudentGroup, error) {
	if id, ok := m.codeIndex[code]; ok {
		return m.FindByID(ctx, id)
	}
	return nil, sql.ErrNoRows
}

func (m *mockGroupRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	m.codeChecks = append(m.codeChecks, code)
	if m.alwaysTaken {
		return true, nil
	}
	return m.takenCodes[code], nil
}

func (m *mockGroupRepo) ListForStudent(ctx context.Context, studentID string) ([]models.StudentGroup, error) {
	out := make([]models.StudentGroup, 0)
	for _, g := range m.groups {
		out = append(out, *g)
	}
	return out, nil
}

func (m *mockGroupRepo) SetActive(ctx context.Context, id string, active bool) error {
	m.deactivated = append(m.deactivated, id)
	if g, ok := m.groups[id]; ok {
		g.Active = active
	}
	return nil
}

func (m *mockGroupRepo) ListMembers(ctx context.Context, groupID string, status models.EnrollmentStatus) ([]models.GroupMember, error) {
	if status == models.EnrollmentStatusPending {
		return m.pending[groupID], nil
	}
	return m.members[groupID], nil
}

func (m *mockGroupRepo) FindEnrollmentByID(ctx context.Context, id string) (*models.GroupEnrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGroupRepo) MembershipExists(ctx context.Context, groupID, studentID string) (bool, error) {
	return m.membershipIndex[groupID+"/"+studentID], nil
}

func (m *mockGroupRepo) CreateJoinRequest(ctx context.Context, enrollment *models.GroupEnrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = "generated"
	}
	m.joinRequests = append(m.joinRequests, enrollment)
	return nil
}

func (m *mockGroupRepo) ApproveJoin(ctx context.Context, enrollmentID string, approvedAt time.Time) (bool, int, error) {
	return m.approveApplied, m.approveCascaded, nil
}

func (m *mockGroupRepo) RejectJoin(ctx context.Context, enrollmentID string, rejectedAt time.Time) (bool, error) {
	return m.rejectApplied, nil
}

func (m *mockGroupRepo) RemoveMember(ctx context.Context, groupID, studentID string) (bool, error) {
	m.removed = append(m.removed, groupID+"/"+studentID)
	return m.removeFound, nil
}

func newGroupService(repo *mockGroupRepo) *GroupService {
	return NewGroupService(repo, validator.New(), zap.NewNop())
}

func TestGroupServiceCreate(t *testing.T) {
	repo := &mockGroupRepo{}
	service := newGroupService(repo)

	group, err := service.Create(context.Background(), "stu-1", dto.CreateGroupRequest{Name: "  Physics Crew  "})
	require.NoError(t, err)
	assert.Equal(t, "Physics Crew", group.Name)
	assert.Equal(t, "stu-1", group.CreatedBy)
	assert.True(t, group.Active)
	assert.Len(t, group.GroupCode, 6)
	for _, r := range group.GroupCode {
		assert.Contains(t, groupCodeAlphabet, string(r))
	}
}

func TestGroupServiceCreateExhaustsCodeRetries(t *testing.T) {
	repo := &mockGroupRepo{alwaysTaken: true}
	service := newGroupService(repo)

	_, err := service.Create(context.Background(), "stu-1", dto.CreateGroupRequest{Name: "Crew"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.Len(t, repo.codeChecks, groupCodeRetries)
}

func TestGroupServiceCreateInvalidName(t *testing.T) {
	service := newGroupService(&mockGroupRepo{})

	_, err := service.Create(context.Background(), "stu-1", dto.CreateGroupRequest{Name: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGroupServiceListMineHidesForeignCodes(t *testing.T) {
	repo := &mockGroupRepo{
		groups: map[string]*models.StudentGroup{
			"g1": {ID: "g1", Name: "Mine", GroupCode: "AAAAAA", CreatedBy: "stu-1", Active: true},
			"g2": {ID: "g2", Name: "Joined", GroupCode: "BBBBBB", CreatedBy: "stu-2", Active: true},
		},
	}
	service := newGroupService(repo)

	summaries, err := service.ListMine(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	for _, s := range summaries {
		if s.CreatedBy == "stu-1" {
			assert.Equal(t, "AAAAAA", s.GroupCode)
		} else {
			assert.Empty(t, s.GroupCode)
		}
	}
}

func TestGroupServiceGetAsOwner(t *testing.T) {
	repo := &mockGroupRepo{
		groups: map[string]*models.StudentGroup{
			"g1": {ID: "g1", Name: "Crew", GroupCode: "AAAAAA", CreatedBy: "stu-1", Active: true},
		},
		members: map[string][]models.GroupMember{
			"g1": {
				{GroupEnrollment: models.GroupEnrollment{StudentID: "stu-1"}, StudentName: "Owner"},
				{GroupEnrollment: models.GroupEnrollment{StudentID: "stu-2"}, StudentName: "Member"},
			},
		},
	}
	service := newGroupService(repo)

	detail, err := service.Get(context.Background(), "g1", "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", detail.GroupCode)
	assert.Len(t, detail.Members, 2)
	assert.Equal(t, 2, detail.MemberCount)
}

func TestGroupServiceGetAsMemberIsRestricted(t *testing.T) {
	repo := &mockGroupRepo{
		groups: map[string]*models.StudentGroup{
			"g1": {ID: "g1", Name: "Crew", GroupCode: "AAAAAA", CreatedBy: "stu-1", Active: true},
		},
		members: map[string][]models.GroupMember{
			"g1": {
				{GroupEnrollment: models.GroupEnrollment{StudentID: "stu-2"}, StudentName: "Member"},
			},
		},
	}
	service := newGroupService(repo)

	detail, err := service.Get(context.Background(), "g1", "stu-2")
	require.NoError(t, err)
	assert.Empty(t, detail.GroupCode)
	assert.Empty(t, detail.Members)
	assert.Equal(t, 1, detail.MemberCount)
}

func TestGroupServiceGetAsStranger(t *testing.T) {
	repo := &mockGroupRepo{
		groups: map[string]*models.StudentGroup{
			"g1": {ID: "g1", CreatedBy: "stu-1", Active: true},
		},
	}
	service := newGroupService(repo)

	_, err := service.Get(context.Background(), "g1", "stu-9")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestGroupServiceGetInactive(t *testing.T) {
	repo := &mockGroupRepo{
		groups: map[string]*models.StudentGroup{
			"g1": {ID: "g1", CreatedBy: "stu-1", Active: false},
		},
	}
	service := newGroupService(repo)

	_, err := service.Get(context.Background(), "g1", "stu-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGroupServiceJoinNormalizesCode(t *testing.T) {
	repo := &mockGroupRepo{
		groups: map[string]*models.StudentGroup{
			"g1": {ID: "g1", CreatedBy: "stu-1", Active: true},
		},
		codeIndex: map[string]string{"AAAAAA": "g1"},
	}
	service := newGroupService(repo)

	enrollment, err := service.Join(context.Background(), "  aaaaaa ", "stu-2")
	require.NoError(t, err)
	assert.Equal(t, "g1", enrollment.GroupID)
	assert.Equal(t, models.EnrollmentStatusPending, enrollment.Status)
}

func TestGroupServiceJoinUnknownCode(t *testing.T) {
	service := newGroupService(&mockGroupRepo{})

	_, err := service.Join(context.Background(), "ZZZZZZ", "stu-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGroupServiceJoinTwice(t *testing.T) {
	repo := &mockGroupRepo{
		groups: map[string]*models.StudentGroup{
			"g1": {ID: "g1", CreatedBy: "stu-1", Active: true},
		},
		codeIndex:       map[string]string{"AAAAAA": "g1"},
		membershipIndex: map[string]bool{"g1/stu-2": true},
	}
	service := newGroupService(repo)

	// One row per (student, group) pair; a rejection also blocks re-joining.
	_, err := service.Join(context.Background(), "AAAAAA", "stu-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.joinRequests)
}

func TestGroupServiceListRequestsNonOwner(t *testing.T) {
	repo := &mockGroupRepo{
		groups: map[string]*models.StudentGroup{
			"g1": {ID: "g1", CreatedBy: "stu-1", Active: true},
		},
	}
	service := newGroupService(repo)

	_, err := service.ListRequests(context.Background(), "g1", "stu-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestGroupServiceDecideJoinApprove(t *testing.T) {
	repo := &mockGroupRepo{
		groups: map[string]*models.StudentGroup{
			"g1": {ID: "g1", CreatedBy: "stu-1", Active: true},
		},
		enrollments: map[string]*models.GroupEnrollment{
			"ge1": {ID: "ge1", GroupID: "g1", StudentID: "stu-2", Status: models.EnrollmentStatusPending},
		},
		approveApplied:  true,
		approveCascaded: 3,
	}
	service := newGroupService(repo)

	enrollment, err := service.DecideJoin(context.Background(), "ge1", "stu-1", models.DecisionApprove)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusApproved, enrollment.Status)
	assert.True(t, enrollment.ApprovedByOwner)
	assert.NotNil(t, enrollment.ApprovedAt)
}

func TestGroupServiceDecideJoinAlreadyDecided(t *testing.T) {
	repo := &mockGroupRepo{
		groups: map[string]*models.StudentGroup{
			"g1": {ID: "g1", CreatedBy: "stu-1", Active: true},
		},
		enrollments: map[string]*models.GroupEnrollment{
			"ge1": {ID: "ge1", GroupID: "g1", StudentID: "stu-2", Status: models.EnrollmentStatusApproved},
		},
		approveApplied: false,
	}
	service := newGroupService(repo)

	_, err := service.DecideJoin(context.Background(), "ge1", "stu-1", models.DecisionApprove)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestGroupServiceDecideJoinNonOwner(t *testing.T) {
	repo := &mockGroupRepo{
		groups: map[string]*models.StudentGroup{
			"g1": {ID: "g1", CreatedBy: "stu-1", Active: true},
		},
		enrollments: map[string]*models.GroupEnrollment{
			"ge1": {ID: "ge1", GroupID: "g1", StudentID: "stu-2", Status: models.EnrollmentStatusPending},
		},
	}
	service := newGroupService(repo)

	_, err := service.DecideJoin(context.Background(), "ge1", "stu-2", models.DecisionApprove)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestGroupServiceRemoveMember(t *testing.T) {
	repo := &mockGroupRepo{
		groups: map[string]*models.StudentGroup{
			"g1": {ID: "g1", CreatedBy: "stu-1", Active: true},
		},
		removeFound: true,
	}
	service := newGroupService(repo)

	err := service.RemoveMember(context.Background(), "g1", "stu-2", "stu-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"g1/stu-2"}, repo.removed)
}

func TestGroupServiceRemoveMemberCreator(t *testing.T) {
	repo := &mockGroupRepo{
		groups: map[string]*models.StudentGroup{
			"g1": {ID: "g1", CreatedBy: "stu-1", Active: true},
		},
	}
	service := newGroupService(repo)

	err := service.RemoveMember(context.Background(), "g1", "stu-1", "stu-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.removed)
}

func TestGroupServiceRemoveMemberNotFound(t *testing.T) {
	repo := &mockGroupRepo{
		groups: map[string]*models.StudentGroup{
			"g1": {ID: "g1", CreatedBy: "stu-1", Active: true},
		},
		removeFound: false,
	}
	service := newGroupService(repo)

	err := service.RemoveMember(context.Background(), "g1", "stu-9", "stu-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGroupServiceDeactivateNonOwner(t *testing.T) {
	repo := &mockGroupRepo{
		groups: map[string]*models.StudentGroup{
			"g1": {ID: "g1", CreatedBy: "stu-1", Active: true},
		},
	}
	service := newGroupService(repo)

	err := service.Deactivate(context.Background(), "g1", "stu-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deactivated)
}

func TestGroupServiceGeneratedCodeUsesAlphabet(t *testing.T) {
	repo := &mockGroupRepo{}
	service := newGroupService(repo)

	group, err := service.Create(context.Background(), "stu-1", dto.CreateGroupRequest{Name: "Crew"})
	require.NoError(t, err)
	// Ambiguous characters are excluded from join codes.
	assert.NotContains(t, group.GroupCode, "O")
	assert.NotContains(t, group.GroupCode, "0")
	assert.NotContains(t, group.GroupCode, "I")
	assert.NotContains(t, group.GroupCode, "1")
	assert.Equal(t, strings.ToUpper(group.GroupCode), group.GroupCode)
}
