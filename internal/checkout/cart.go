package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nikolayk812/course-checkout/internal/domain"
	"go.uber.org/zap"
)

func (s *Service) GetCart(ctx context.Context, userID int64) (domain.PricedCart, error) {
	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return domain.PricedCart{}, fmt.Errorf("carts.GetOrCreate: %w", err)
	}

	priced, err := s.priceCart(ctx, cart)
	if err != nil {
		return domain.PricedCart{}, fmt.Errorf("priceCart: %w", err)
	}

	return priced, nil
}

func (s *Service) AddToCart(ctx context.Context, userID, courseID int64, quantity int) (domain.CartItem, error) {
	if err := validateQuantity(quantity); err != nil {
		return domain.CartItem{}, err
	}

	if _, err := s.courses.GetCourse(ctx, courseID); err != nil {
		return domain.CartItem{}, fmt.Errorf("courses.GetCourse: %w", err)
	}

	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("carts.GetOrCreate: %w", err)
	}

	if existing, ok := cart.ItemByCourse(courseID); ok && existing.Quantity+quantity > domain.MaxItemQuantity {
		return domain.CartItem{}, fmt.Errorf("%w: quantity of course[%d] would exceed %d", domain.ErrValidation, courseID, domain.MaxItemQuantity)
	}

	item, err := s.carts.AddItem(ctx, userID, courseID, quantity)
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("carts.AddItem: %w", err)
	}

	s.log(ctx).Debug("course added to cart",
		zap.Int64("user_id", userID),
		zap.Int64("course_id", courseID),
		zap.Int("quantity", item.Quantity))

	return item, nil
}

func (s *Service) UpdateCartItem(ctx context.Context, userID int64, itemID uuid.UUID, quantity int) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}

	if err := s.ownItem(ctx, userID, itemID); err != nil {
		return err
	}

	if err := s.carts.UpdateItemQuantity(ctx, itemID, quantity); err != nil {
		return fmt.Errorf("carts.UpdateItemQuantity: %w", err)
	}

	return nil
}

func (s *Service) RemoveCartItem(ctx context.Context, userID int64, itemID uuid.UUID) error {
	if err := s.ownItem(ctx, userID, itemID); err != nil {
		return err
	}

	removed, err := s.carts.RemoveItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("carts.RemoveItem: %w", err)
	}
	if !removed {
		return fmt.Errorf("%w: cart item[%s]", domain.ErrNotFound, itemID)
	}

	return nil
}

func (s *Service) ClearCart(ctx context.Context, userID int64) error {
	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("carts.GetOrCreate: %w", err)
	}

	if err := s.carts.Clear(ctx, cart.ID); err != nil {
		return fmt.Errorf("carts.Clear: %w", err)
	}

	return nil
}

func (s *Service) ownItem(ctx context.Context, userID int64, itemID uuid.UUID) error {
	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("carts.GetOrCreate: %w", err)
	}

	if _, ok := cart.ItemByID(itemID); !ok {
		return fmt.Errorf("%w: cart item[%s]", domain.ErrNotFound, itemID)
	}

	return nil
}

func validateQuantity(quantity int) error {
	if quantity < 1 || quantity > domain.MaxItemQuantity {
		return fmt.Errorf("%w: quantity[%d] must be between 1 and %d", domain.ErrValidation, quantity, domain.MaxItemQuantity)
	}
	return nil
}
