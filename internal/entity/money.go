package entity

import "fmt"

// Money is an amount in integer cents. Prices never touch floats.
type Money struct{ Cents int64 }

func (m Money) Add(o Money) Money   { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Mul(qty int32) Money { return Money{Cents: m.Cents * int64(qty)} }
func (m Money) IsZero() bool        { return m.Cents == 0 }

func (m Money) String() string {
	sign := ""
	c := m.Cents
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s$%d.%02d", sign, c/100, c%100)
}
