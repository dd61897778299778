package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/course-checkout/internal/db"
	"github.com/nikolayk812/course-checkout/internal/domain"
	"github.com/nikolayk812/course-checkout/internal/port"
	"golang.org/x/text/currency"
)

// directoryRepository reads the local projections of the course and user services.
type directoryRepository struct {
	q *db.Queries
}

func NewCourseCatalog(pool *pgxpool.Pool) port.CourseCatalog {
	return &directoryRepository{q: db.New(pool)}
}

func NewUserDirectory(pool *pgxpool.Pool) port.UserDirectory {
	return &directoryRepository{q: db.New(pool)}
}

func (r *directoryRepository) GetCourse(ctx context.Context, courseID int64) (domain.Course, error) {
	row, err := r.q.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Course{}, fmt.Errorf("%w: course[%d]", domain.ErrNotFound, courseID)
		}
		return domain.Course{}, fmt.Errorf("q.GetCourse: %w", err)
	}

	cur, err := currency.ParseISO(row.Currency)
	if err != nil {
		return domain.Course{}, fmt.Errorf("currency.ParseISO[%s]: %w", row.Currency, err)
	}

	return domain.Course{
		ID:    row.ID,
		Title: row.Title,
		Price: domain.Money{
			Amount:   row.Price,
			Currency: cur,
		},
		ThumbnailURL:   row.ThumbnailUrl,
		InstructorName: row.InstructorName,
	}, nil
}

func (r *directoryRepository) GetUser(ctx context.Context, userID int64) (domain.User, error) {
	row, err := r.q.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, fmt.Errorf("%w: user[%d]", domain.ErrNotFound, userID)
		}
		return domain.User{}, fmt.Errorf("q.GetUser: %w", err)
	}

	return domain.User{
		ID:            row.ID,
		Email:         row.Email,
		EmailVerified: row.EmailVerified,
		Name:          row.Name,
		Phone:         row.Phone,
		PostalCode:    row.PostalCode,
	}, nil
}

// UpdateContact overwrites only the non-empty fields.
func (r *directoryRepository) UpdateContact(ctx context.Context, userID int64, fields domain.ContactFields) error {
	if fields.IsEmpty() {
		return nil
	}

	rowsAffected, err := r.q.UpdateUserContact(ctx, db.UpdateUserContactParams{
		Name:       fields.Name,
		Phone:      fields.Phone,
		PostalCode: fields.PostalCode,
		ID:         userID,
	})
	if err != nil {
		return fmt.Errorf("q.UpdateUserContact: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: user[%d]", domain.ErrNotFound, userID)
	}

	return nil
}
