package checkout

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/nikolayk812/course-checkout/internal/domain"
	"golang.org/x/sync/errgroup"
)

// priceCart joins every cart item with the live catalog price of its course.
func (s *Service) priceCart(ctx context.Context, cart domain.Cart) (domain.PricedCart, error) {
	items := make([]domain.PricedItem, len(cart.Items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.PricingConcurrency)

	for i, item := range cart.Items {
		g.Go(func() error {
			course, err := s.courses.GetCourse(gctx, item.CourseID)
			if err != nil {
				return fmt.Errorf("courses.GetCourse[%d]: %w", item.CourseID, err)
			}

			items[i] = domain.PricedItem{CartItem: item, Course: course}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.PricedCart{}, err
	}

	priced := domain.PricedCart{
		Cart:     cart,
		Items:    items,
		Currency: s.cfg.Currency,
	}

	for i, item := range items {
		cur := item.Course.Price.Currency
		if i == 0 {
			priced.Currency = cur
			continue
		}
		if cur != priced.Currency {
			return domain.PricedCart{}, fmt.Errorf("%w: cart mixes currencies %s and %s", domain.ErrValidation, priced.Currency, cur)
		}
	}

	return priced, nil
}

// selectItems narrows a priced cart to the requested courses, all of them when
// none are requested.
func selectItems(priced domain.PricedCart, courseIDs []int64) (domain.PricedCart, error) {
	if priced.IsEmpty() {
		return domain.PricedCart{}, fmt.Errorf("%w: cart is empty", domain.ErrValidation)
	}
	if len(courseIDs) == 0 {
		return priced, nil
	}

	selected := domain.PricedCart{
		Cart:     priced.Cart,
		Currency: priced.Currency,
	}

	var seen []int64
	for _, courseID := range courseIDs {
		if slices.Contains(seen, courseID) {
			continue
		}
		seen = append(seen, courseID)

		idx := slices.IndexFunc(priced.Items, func(item domain.PricedItem) bool {
			return item.CourseID == courseID
		})
		if idx < 0 {
			return domain.PricedCart{}, fmt.Errorf("%w: course[%d] is not in the cart", domain.ErrValidation, courseID)
		}

		selected.Items = append(selected.Items, priced.Items[idx])
	}

	return selected, nil
}

var idempotencyNamespace = uuid.MustParse("6f1c9a52-3d0e-4c47-9b39-2a7e0f1d8c55")

// deriveIdempotencyKey is stable for the same cart, course set, amount,
// currency and description, so a retried create maps to the same gateway object.
func deriveIdempotencyKey(kind string, cartID uuid.UUID, courseIDs []int64, amountMinor int64, cur, description string) string {
	ids := slices.Clone(courseIDs)
	slices.Sort(ids)

	parts := make([]string, 0, len(ids)+5)
	parts = append(parts, kind, cartID.String(), strconv.FormatInt(amountMinor, 10), cur, description)
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}

	return kind + "-" + uuid.NewSHA1(idempotencyNamespace, []byte(strings.Join(parts, "|"))).String()
}

// nextIdempotencyKey chains a key past a gateway object that can no longer be
// paid. The chain is deterministic, so retries still converge on one object.
func nextIdempotencyKey(kind, key, closedID string) string {
	return kind + "-" + uuid.NewSHA1(idempotencyNamespace, []byte(key+"|"+closedID)).String()
}
