package reservation

import "errors"

var ErrNegativeAmount = errors.New("amount cannot be negative")

// Money is an integer number of cents. All fee arithmetic stays in integers
// so settlement splits and refunds are exact.
type Money struct {
	cents int64
}

func NewMoney(cents int64) (Money, error) {
	if cents < 0 {
		return Money{}, ErrNegativeAmount
	}
	return Money{cents: cents}, nil
}

func MustMoney(cents int64) Money {
	m, err := NewMoney(cents)
	if err != nil {
		panic(err)
	}
	return m
}

func ZeroMoney() Money {
	return Money{}
}

func (m Money) Cents() int64 {
	return m.cents
}

func (m Money) IsZero() bool {
	return m.cents == 0
}

func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents}
}

// Sub floors at zero; reservation money never goes negative.
func (m Money) Sub(other Money) Money {
	if other.cents >= m.cents {
		return Money{}
	}
	return Money{cents: m.cents - other.cents}
}

func (m Money) Mul(n int64) Money {
	return Money{cents: m.cents * n}
}

func (m Money) LessThan(other Money) bool {
	return m.cents < other.cents
}

// Min returns the smaller of the two amounts.
func (m Money) Min(other Money) Money {
	if other.cents < m.cents {
		return other
	}
	return m
}
