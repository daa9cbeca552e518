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

func newEnrollmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryDecideApplied(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	decidedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE course_enrollments SET status = $2, approved_at = $3, rejected_at = NULL WHERE id = $1 AND status = $4`)).
		WithArgs("e1", models.EnrollmentStatusApproved, decidedAt, models.EnrollmentStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	applied, err := repo.Decide(context.Background(), "e1", models.EnrollmentStatusApproved, decidedAt)
	require.NoError(t, err)
	assert.True(t, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDecideAlreadyDecided(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	decidedAt := time.Now().UTC()
	// The status guard keeps a second decision from matching any row.
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE course_enrollments SET status = $2, rejected_at = $3, approved_at = NULL WHERE id = $1 AND status = $4`)).
		WithArgs("e1", models.EnrollmentStatusRejected, decidedAt, models.EnrollmentStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := repo.Decide(context.Background(), "e1", models.EnrollmentStatusRejected, decidedAt)
	require.NoError(t, err)
	assert.False(t, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDecideRejectsPending(t *testing.T) {
	db, _, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	_, err := repo.Decide(context.Background(), "e1", models.EnrollmentStatusPending, time.Now())
	require.Error(t, err)
}

func TestEnrollmentRepositoryExistsForStudent(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM course_enrollments WHERE course_id = $1 AND student_id = $2 LIMIT 1`)).
		WithArgs("c1", "stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsForStudent(context.Background(), "c1", "stu-1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestEnrollmentRepositoryExistsForStudentNoRows(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM course_enrollments WHERE course_id = $1 AND student_id = $2 LIMIT 1`)).
		WithArgs("c1", "stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.ExistsForStudent(context.Background(), "c1", "stu-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestEnrollmentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	created := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "course_id", "student_id", "student_group_id", "group_enrollment_id", "status", "approved_at", "rejected_at", "created_at"}).
		AddRow("e1", "c1", "stu-1", nil, nil, "PENDING", nil, nil, created)
	mock.ExpectQuery(`SELECT .+ FROM course_enrollments WHERE id = \$1`).
		WithArgs("e1").
		WillReturnRows(rows)

	enrollment, err := repo.FindByID(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusPending, enrollment.Status)
	require.NotNil(t, enrollment.StudentID)
	assert.Equal(t, "stu-1", *enrollment.StudentID)
}
