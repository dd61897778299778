package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/course-checkout/internal/db"
	"github.com/nikolayk812/course-checkout/internal/domain"
	"github.com/nikolayk812/course-checkout/internal/port"
)

type cartRepository struct {
	q    *db.Queries
	pool *pgxpool.Pool
}

func NewCart(pool *pgxpool.Pool) port.CartRepository {
	return &cartRepository{
		q:    db.New(pool),
		pool: pool,
	}
}

// cartInTx binds the repository to queries of a transaction that is already open.
func cartInTx(q *db.Queries) *cartRepository {
	return &cartRepository{
		q:    q,
		pool: nil,
	}
}

func (r *cartRepository) GetOrCreate(ctx context.Context, userID int64) (domain.Cart, error) {
	if userID <= 0 {
		return domain.Cart{}, fmt.Errorf("userID is not positive")
	}

	return withTx(ctx, r.pool, r.q, func(q *db.Queries) (domain.Cart, error) {
		dbCart, err := q.GetOrCreateCart(ctx, db.GetOrCreateCartParams{
			ID:     uuid.New(),
			UserID: userID,
		})
		if err != nil {
			return domain.Cart{}, fmt.Errorf("q.GetOrCreateCart: %w", err)
		}

		dbItems, err := q.ListCartItems(ctx, dbCart.ID)
		if err != nil {
			return domain.Cart{}, fmt.Errorf("q.ListCartItems: %w", err)
		}

		return domain.Cart{
			ID:        dbCart.ID,
			UserID:    dbCart.UserID,
			Items:     mapCartItemsToDomain(dbItems),
			CreatedAt: dbCart.CreatedAt,
		}, nil
	})
}

// AddItem creates the cart if needed and increments the quantity when the course
// is already in it. The upsert is atomic, so concurrent adds never produce two rows
// and never push the quantity past domain.MaxItemQuantity.
func (r *cartRepository) AddItem(ctx context.Context, userID, courseID int64, quantity int) (domain.CartItem, error) {
	if userID <= 0 {
		return domain.CartItem{}, fmt.Errorf("userID is not positive")
	}
	if courseID <= 0 {
		return domain.CartItem{}, fmt.Errorf("%w: courseID is not positive", domain.ErrValidation)
	}
	if err := validateQuantity(quantity); err != nil {
		return domain.CartItem{}, err
	}

	return withTx(ctx, r.pool, r.q, func(q *db.Queries) (domain.CartItem, error) {
		dbCart, err := q.GetOrCreateCart(ctx, db.GetOrCreateCartParams{
			ID:     uuid.New(),
			UserID: userID,
		})
		if err != nil {
			return domain.CartItem{}, fmt.Errorf("q.GetOrCreateCart: %w", err)
		}

		dbItem, err := q.UpsertCartItem(ctx, db.UpsertCartItemParams{
			ID:          uuid.New(),
			CartID:      dbCart.ID,
			CourseID:    courseID,
			Quantity:    int32(quantity),
			MaxQuantity: domain.MaxItemQuantity,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.CartItem{}, fmt.Errorf("%w: quantity of course[%d] would exceed %d",
					domain.ErrValidation, courseID, domain.MaxItemQuantity)
			}
			return domain.CartItem{}, fmt.Errorf("q.UpsertCartItem: %w", err)
		}

		return mapCartItemToDomain(dbItem), nil
	})
}

func (r *cartRepository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}

	rowsAffected, err := r.q.UpdateCartItemQuantity(ctx, db.UpdateCartItemQuantityParams{
		ID:       itemID,
		Quantity: int32(quantity),
	})
	if err != nil {
		return fmt.Errorf("q.UpdateCartItemQuantity: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: cart item[%s]", domain.ErrNotFound, itemID)
	}

	return nil
}

func (r *cartRepository) RemoveItem(ctx context.Context, itemID uuid.UUID) (bool, error) {
	rowsAffected, err := r.q.DeleteCartItem(ctx, itemID)
	if err != nil {
		return false, fmt.Errorf("q.DeleteCartItem: %w", err)
	}

	return rowsAffected > 0, nil
}

func (r *cartRepository) Clear(ctx context.Context, cartID uuid.UUID) error {
	if _, err := r.q.ClearCart(ctx, cartID); err != nil {
		return fmt.Errorf("q.ClearCart: %w", err)
	}

	return nil
}

// RemoveCourses deletes the items of the given courses and leaves the rest of the cart.
func (r *cartRepository) RemoveCourses(ctx context.Context, cartID uuid.UUID, courseIDs []int64) error {
	if _, err := r.q.DeleteCartItemsByCourse(ctx, db.DeleteCartItemsByCourseParams{
		CartID:    cartID,
		CourseIds: courseIDs,
	}); err != nil {
		return fmt.Errorf("q.DeleteCartItemsByCourse: %w", err)
	}

	return nil
}

func validateQuantity(quantity int) error {
	switch {
	case quantity < 1:
		return fmt.Errorf("%w: quantity must be at least 1", domain.ErrValidation)
	case quantity > domain.MaxItemQuantity:
		return fmt.Errorf("%w: quantity must be at most %d", domain.ErrValidation, domain.MaxItemQuantity)
	}
	return nil
}

func mapCartItemToDomain(row db.CartItem) domain.CartItem {
	return domain.CartItem{
		ID:       row.ID,
		CartID:   row.CartID,
		CourseID: row.CourseID,
		Quantity: int(row.Quantity),
		AddedAt:  row.AddedAt,
	}
}

func mapCartItemsToDomain(rows []db.CartItem) []domain.CartItem {
	var items []domain.CartItem

	for _, row := range rows {
		items = append(items, mapCartItemToDomain(row))
	}

	return items
}
