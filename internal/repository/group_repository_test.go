package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecturehub/lecturehub-api/internal/models"
)

func newGroupRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestGroupRepositoryApproveJoinCascades(t *testing.T) {
	db, mock, cleanup := newGroupRepoMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	approvedAt := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE group_enrollments SET status = $2, approved_by_owner = TRUE, approved_at = $3 WHERE id = $1 AND status = $4`)).
		WithArgs("ge1", models.EnrollmentStatusApproved, approvedAt, models.EnrollmentStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .+ FROM group_enrollments WHERE id = \$1`).
		WithArgs("ge1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "student_id", "status", "approved_by_owner", "approved_at", "rejected_at", "created_at"}).
			AddRow("ge1", "g1", "stu-2", "APPROVED", true, approvedAt, nil, approvedAt))
	// Only courses where the group already holds an APPROVED enrollment are
	// mirrored for the new member, each as a fresh PENDING request.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT course_id FROM course_enrollments WHERE student_group_id = $1 AND student_id IS NULL AND status = $2`)).
		WithArgs("g1", models.EnrollmentStatusApproved).
		WillReturnRows(sqlmock.NewRows([]string{"course_id"}).AddRow("c1").AddRow("c2"))
	mock.ExpectExec(`INSERT INTO course_enrollments`).
		WithArgs(sqlmock.AnyArg(), "c1", "stu-2", "g1", "ge1", models.EnrollmentStatusPending, approvedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO course_enrollments`).
		WithArgs(sqlmock.AnyArg(), "c2", "stu-2", "g1", "ge1", models.EnrollmentStatusPending, approvedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	applied, cascaded, err := repo.ApproveJoin(context.Background(), "ge1", approvedAt)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, 2, cascaded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryApproveJoinNoApprovedCourses(t *testing.T) {
	db, mock, cleanup := newGroupRepoMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	approvedAt := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE group_enrollments SET status = $2, approved_by_owner = TRUE, approved_at = $3 WHERE id = $1 AND status = $4`)).
		WithArgs("ge1", models.EnrollmentStatusApproved, approvedAt, models.EnrollmentStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .+ FROM group_enrollments WHERE id = \$1`).
		WithArgs("ge1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "student_id", "status", "approved_by_owner", "approved_at", "rejected_at", "created_at"}).
			AddRow("ge1", "g1", "stu-2", "APPROVED", true, approvedAt, nil, approvedAt))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT course_id FROM course_enrollments WHERE student_group_id = $1 AND student_id IS NULL AND status = $2`)).
		WithArgs("g1", models.EnrollmentStatusApproved).
		WillReturnRows(sqlmock.NewRows([]string{"course_id"}))
	mock.ExpectCommit()

	applied, cascaded, err := repo.ApproveJoin(context.Background(), "ge1", approvedAt)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Zero(t, cascaded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryApproveJoinAlreadyDecided(t *testing.T) {
	db, mock, cleanup := newGroupRepoMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	approvedAt := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE group_enrollments SET status = $2, approved_by_owner = TRUE, approved_at = $3 WHERE id = $1 AND status = $4`)).
		WithArgs("ge1", models.EnrollmentStatusApproved, approvedAt, models.EnrollmentStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	applied, cascaded, err := repo.ApproveJoin(context.Background(), "ge1", approvedAt)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Zero(t, cascaded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryRejectJoin(t *testing.T) {
	db, mock, cleanup := newGroupRepoMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	rejectedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE group_enrollments SET status = $2, rejected_at = $3 WHERE id = $1 AND status = $4`)).
		WithArgs("ge1", models.EnrollmentStatusRejected, rejectedAt, models.EnrollmentStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	applied, err := repo.RejectJoin(context.Background(), "ge1", rejectedAt)
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestGroupRepositoryCodeExists(t *testing.T) {
	db, mock, cleanup := newGroupRepoMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM student_groups WHERE group_code = $1 LIMIT 1`)).
		WithArgs("AAAAAA").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.CodeExists(context.Background(), "AAAAAA")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM student_groups WHERE group_code = $1 LIMIT 1`)).
		WithArgs("BBBBBB").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.CodeExists(context.Background(), "BBBBBB")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGroupRepositoryRemoveMember(t *testing.T) {
	db, mock, cleanup := newGroupRepoMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM group_enrollments WHERE group_id = $1 AND student_id = $2`)).
		WithArgs("g1", "stu-2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	removed, err := repo.RemoveMember(context.Background(), "g1", "stu-2")
	require.NoError(t, err)
	assert.True(t, removed)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM group_enrollments WHERE group_id = $1 AND student_id = $2`)).
		WithArgs("g1", "stu-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err = repo.RemoveMember(context.Background(), "g1", "stu-9")
	require.NoError(t, err)
	assert.False(t, removed)
}
