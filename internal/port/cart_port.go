package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/course-checkout/internal/domain"
)

type CartRepository interface {
	GetOrCreate(ctx context.Context, userID int64) (domain.Cart, error)
	AddItem(ctx context.Context, userID, courseID int64, quantity int) (domain.CartItem, error)
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, itemID uuid.UUID) (bool, error)
	Clear(ctx context.Context, cartID uuid.UUID) error
}
