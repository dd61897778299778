package domain

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/currency"
)

// MaxItemQuantity caps the quantity of a single cart item.
const MaxItemQuantity = 99

type Cart struct {
	ID     uuid.UUID
	UserID int64
	Items  []CartItem

	CreatedAt time.Time
}

type CartItem struct {
	ID       uuid.UUID
	CartID   uuid.UUID
	CourseID int64
	Quantity int

	AddedAt time.Time
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c Cart) ItemByID(itemID uuid.UUID) (CartItem, bool) {
	for _, item := range c.Items {
		if item.ID == itemID {
			return item, true
		}
	}

	return CartItem{}, false
}

func (c Cart) ItemByCourse(courseID int64) (CartItem, bool) {
	for _, item := range c.Items {
		if item.CourseID == courseID {
			return item, true
		}
	}

	return CartItem{}, false
}

// PricedItem is a cart item joined with the live catalog entry of its course.
type PricedItem struct {
	CartItem
	Course Course
}

func (p PricedItem) UnitPrice() Money {
	return p.Course.Price
}

func (p PricedItem) LineTotal() Money {
	return p.Course.Price.Times(p.Quantity)
}

// PricedCart is a cart whose prices were read from the catalog at pricing time.
// All items share one currency.
type PricedCart struct {
	Cart     Cart
	Items    []PricedItem
	Currency currency.Unit
}

func (p PricedCart) IsEmpty() bool {
	return len(p.Items) == 0
}

func (p PricedCart) TotalPrice() Money {
	total := ZeroMoney(p.Currency)
	for _, item := range p.Items {
		total.Amount = total.Amount.Add(item.LineTotal().Amount)
	}

	return total
}

func (p PricedCart) CourseIDs() []int64 {
	ids := make([]int64, 0, len(p.Items))
	for _, item := range p.Items {
		ids = append(ids, item.CourseID)
	}

	return ids
}
