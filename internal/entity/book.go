package entity

type Book struct {
	ID             int64
	Title          string
	Author         string
	PhysicalCopies int32
	PriceCents     int64
	SoldCopies     int32
}

func (b Book) Price() Money { return Money{Cents: b.PriceCents} }
