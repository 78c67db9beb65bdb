package cart

import (
	"fmt"
	"math"

	"github.com/fjod/go_shop/internal/domain"
)

// Event is one of the cart mutations: AddItem, RemoveItem, UpdateQuantity or
// ClearCart. The set is closed.
type Event interface {
	event()
}

type AddItem struct {
	Product domain.Product
}

type RemoveItem struct {
	ProductID string
}

type UpdateQuantity struct {
	ProductID string
	Quantity  int
}

type ClearCart struct{}

func (AddItem) event()        {}
func (RemoveItem) event()     {}
func (UpdateQuantity) event() {}
func (ClearCart) event()      {}

// Reduce applies ev to state and returns the new state. The input is never
// modified.
func Reduce(state domain.CartState, ev Event) domain.CartState {
	switch e := ev.(type) {
	case AddItem:
		return Add(state, e.Product)
	case RemoveItem:
		return Remove(state, e.ProductID)
	case UpdateQuantity:
		return SetQuantity(state, e.ProductID, e.Quantity)
	case ClearCart:
		return Clear()
	default:
		panic(fmt.Sprintf("cart: unknown event %T", ev))
	}
}

// Add increments the line for product by one, appending a new line when the
// product is not in the cart yet.
func Add(state domain.CartState, product domain.Product) domain.CartState {
	lines := cloneLines(state.Lines)
	if i := indexOf(lines, product.ID); i >= 0 {
		lines[i].Quantity++
		return newState(lines)
	}
	return newState(append(lines, domain.CartLine{Product: product, Quantity: 1}))
}

// Remove drops the line for productID. Missing products are a no-op.
func Remove(state domain.CartState, productID string) domain.CartState {
	lines := make([]domain.CartLine, 0, len(state.Lines))
	for _, l := range state.Lines {
		if l.Product.ID != productID {
			lines = append(lines, l)
		}
	}
	return newState(lines)
}

// SetQuantity sets the quantity of an existing line. A quantity <= 0 removes
// the line; an absent product is left absent.
func SetQuantity(state domain.CartState, productID string, quantity int) domain.CartState {
	if quantity <= 0 {
		return Remove(state, productID)
	}
	lines := cloneLines(state.Lines)
	if i := indexOf(lines, productID); i >= 0 {
		lines[i].Quantity = quantity
	}
	return newState(lines)
}

// Clear returns the canonical empty cart.
func Clear() domain.CartState {
	return domain.CartState{Lines: []domain.CartLine{}, Total: 0}
}

// Merge folds the guest cart into the user cart. User lines keep their position
// and product snapshot; guest quantities for the same product are added to them
// and guest-only lines are appended in guest order.
func Merge(guest, user domain.CartState) domain.CartState {
	if guest.IsEmpty() {
		return user
	}
	if user.IsEmpty() {
		return guest
	}

	lines := make([]domain.CartLine, 0, len(user.Lines)+len(guest.Lines))
	lines = append(lines, user.Lines...)
	for _, g := range guest.Lines {
		if i := indexOf(lines, g.Product.ID); i >= 0 {
			lines[i].Quantity += g.Quantity
			continue
		}
		lines = append(lines, g)
	}
	return newState(lines)
}

// Total sums effective price times quantity over lines, rounded to cents.
func Total(lines []domain.CartLine) float64 {
	var total float64
	for _, l := range lines {
		total += l.Product.EffectivePrice() * float64(l.Quantity)
	}
	return math.Round(total*100) / 100
}

// Normalize repairs a state read from storage: non-positive quantities are
// dropped, duplicate products are collapsed into the first line and the total
// is recomputed.
func Normalize(state domain.CartState) domain.CartState {
	lines := make([]domain.CartLine, 0, len(state.Lines))
	for _, l := range state.Lines {
		if l.Quantity <= 0 {
			continue
		}
		if i := indexOf(lines, l.Product.ID); i >= 0 {
			lines[i].Quantity += l.Quantity
			continue
		}
		lines = append(lines, l)
	}
	return newState(lines)
}

func newState(lines []domain.CartLine) domain.CartState {
	return domain.CartState{Lines: lines, Total: Total(lines)}
}

func cloneLines(lines []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, len(lines), len(lines)+1)
	copy(out, lines)
	return out
}

func cloneState(state domain.CartState) domain.CartState {
	return domain.CartState{Lines: cloneLines(state.Lines), Total: state.Total}
}

func indexOf(lines []domain.CartLine, productID string) int {
	for i, l := range lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}
