package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/course-checkout/internal/db"
	"github.com/nikolayk812/course-checkout/internal/domain"
	"github.com/nikolayk812/course-checkout/internal/port"
)

type enrollmentRepository struct {
	q *db.Queries
}

func NewEnrollment(pool *pgxpool.Pool) port.EnrollmentStore {
	return &enrollmentRepository{
		q: db.New(pool),
	}
}

func (r *enrollmentRepository) Create(ctx context.Context, userID, courseID int64) (domain.Enrollment, error) {
	if userID <= 0 || courseID <= 0 {
		return domain.Enrollment{}, fmt.Errorf("userID[%d] or courseID[%d] is not positive", userID, courseID)
	}

	row, err := r.q.CreateEnrollment(ctx, db.CreateEnrollmentParams{
		ID:       uuid.New(),
		UserID:   userID,
		CourseID: courseID,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Enrollment{}, fmt.Errorf("%w: user[%d] is already enrolled in course[%d]", domain.ErrConflict, userID, courseID)
		}
		return domain.Enrollment{}, fmt.Errorf("q.CreateEnrollment: %w", err)
	}

	return domain.Enrollment{
		ID:         row.ID,
		UserID:     row.UserID,
		CourseID:   row.CourseID,
		EnrolledAt: row.EnrolledAt,
	}, nil
}

func (r *enrollmentRepository) Exists(ctx context.Context, userID, courseID int64) (bool, error) {
	exists, err := r.q.EnrollmentExists(ctx, db.EnrollmentExistsParams{
		UserID:   userID,
		CourseID: courseID,
	})
	if err != nil {
		return false, fmt.Errorf("q.EnrollmentExists: %w", err)
	}

	return exists, nil
}
