package domain

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// Amount is a base-10 decimal integer carried as a string at every
// boundary and as an unbounded integer everywhere else. Swap amounts,
// gas, and prices all cross process boundaries through this type so
// nothing ever round-trips through a 64-bit float.
type Amount struct {
	v *big.Int
}

// NewAmount wraps an existing big.Int. A nil v is treated as zero.
func NewAmount(v *big.Int) Amount {
	if v == nil {
		return Amount{v: big.NewInt(0)}
	}
	return Amount{v: new(big.Int).Set(v)}
}

// ParseAmount parses a base-10 decimal string into an Amount.
func ParseAmount(s string) (Amount, error) {
	if s == "" {
		return Amount{}, fmt.Errorf("amount: empty string")
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("amount: %q is not a base-10 integer", s)
	}
	return Amount{v: v}, nil
}

// MustParseAmount is ParseAmount but panics on error, for constants in
// tests and fixed-table data.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Int returns the underlying big.Int. Callers must not mutate it.
func (a Amount) Int() *big.Int {
	if a.v == nil {
		return big.NewInt(0)
	}
	return a.v
}

func (a Amount) String() string {
	return a.Int().String()
}

// Cmp compares two amounts, following big.Int.Cmp's contract.
func (a Amount) Cmp(b Amount) int {
	return a.Int().Cmp(b.Int())
}

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool {
	return a.Int().Sign() == 0
}

// BasisPoints returns a*bps/10000, truncating toward zero. Used for
// slippage tolerance (minOut = out*(10000-slippageBps)/10000) and similar
// ratio math that must never touch a float.
func (a Amount) BasisPoints(bps int64) Amount {
	num := new(big.Int).Mul(a.Int(), big.NewInt(bps))
	return Amount{v: num.Div(num, big.NewInt(10000))}
}

// Sub returns a-b.
func (a Amount) Sub(b Amount) Amount {
	return Amount{v: new(big.Int).Sub(a.Int(), b.Int())}
}

// MarshalJSON encodes the amount as a JSON string, never a JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes a JSON string into the amount.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
