package port

import (
	"context"

	"github.com/nikolayk812/course-checkout/internal/domain"
)

type UserDirectory interface {
	GetUser(ctx context.Context, userID int64) (domain.User, error)
	UpdateContact(ctx context.Context, userID int64, fields domain.ContactFields) error
}

type CourseCatalog interface {
	GetCourse(ctx context.Context, courseID int64) (domain.Course, error)
}
