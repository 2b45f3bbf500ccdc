package cart

import "github.com/beyourshelf/bookstore/internal/entity"

// Line is one cart row projected for display and checkout: the book, its
// quantity, and whether the row is ticked for purchase. The selected flag
// only drives checkout filtering; it is never persisted.
type Line struct {
	Book     entity.Book
	Qty      int32
	Selected bool
}

// Total is the line price: unit price times quantity.
func (l Line) Total() entity.Money { return l.Book.Price().Mul(l.Qty) }

// Selected filters a snapshot down to the ticked lines.
func Selected(lines []Line) []Line {
	var out []Line
	for _, l := range lines {
		if l.Selected {
			out = append(out, l)
		}
	}
	return out
}

// SelectedTotal sums the ticked lines only.
func SelectedTotal(lines []Line) entity.Money {
	var total entity.Money
	for _, l := range lines {
		if l.Selected {
			total = total.Add(l.Total())
		}
	}
	return total
}
