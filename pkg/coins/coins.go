package coins

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tonkeeper/tongo/tlb"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Decimals is the number of fractional digits of one TON.
const Decimals = 9

var (
	ErrNegative  = errors.New("coins: negative amount")
	ErrOverflow  = errors.New("coins: amount does not fit into VarUInteger 16")
	ErrPrecision = errors.New("coins: more than 9 fractional digits")
)

// maxCoins is the largest amount representable by the TL-B Coins type (2^120-1).
var maxCoins = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 120), big.NewInt(1))

// Coins is an immutable non-negative amount of nanoTONs.
// The zero value is zero coins.
type Coins struct {
	n *big.Int
}

// Zero is zero coins.
var Zero = Coins{}

// FromNano returns the given amount of nanoTONs.
func FromNano(n uint64) Coins {
	return Coins{n: new(big.Int).SetUint64(n)}
}

// FromBig validates and copies an arbitrary precision amount of nanoTONs.
func FromBig(n *big.Int) (Coins, error) {
	if n == nil {
		return Zero, nil
	}
	if n.Sign() < 0 {
		return Zero, ErrNegative
	}
	if n.Cmp(maxCoins) > 0 {
		return Zero, ErrOverflow
	}
	return Coins{n: new(big.Int).Set(n)}, nil
}

// FromTlb converts a TL-B Coins value.
func FromTlb(v tlb.VarUInteger16) Coins {
	n := big.Int(v)
	return Coins{n: new(big.Int).Set(&n)}
}

// Parse reads a decimal amount of TONs like "0.87" or "5".
func Parse(s string) (Coins, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Zero, fmt.Errorf("coins: %w", err)
	}
	nano := d.Shift(Decimals)
	if !nano.Equal(nano.Truncate(0)) {
		return Zero, ErrPrecision
	}
	return FromBig(nano.BigInt())
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) Coins {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Coins) big() *big.Int {
	if c.n == nil {
		return new(big.Int)
	}
	return c.n
}

// Nano returns a copy of the amount in nanoTONs.
func (c Coins) Nano() *big.Int {
	return new(big.Int).Set(c.big())
}

// Uint64 returns the amount if it fits into uint64.
func (c Coins) Uint64() (uint64, bool) {
	if !c.big().IsUint64() {
		return 0, false
	}
	return c.big().Uint64(), true
}

// Tlb converts the amount to its TL-B representation.
func (c Coins) Tlb() tlb.VarUInteger16 {
	return tlb.VarUInteger16(*c.Nano())
}

// Decimal returns the amount in TONs.
func (c Coins) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(c.big(), -Decimals)
}

func (c Coins) Add(o Coins) (Coins, error) {
	return FromBig(new(big.Int).Add(c.big(), o.big()))
}

// Sub returns c-o or ErrNegative if o is greater than c.
func (c Coins) Sub(o Coins) (Coins, error) {
	return FromBig(new(big.Int).Sub(c.big(), o.big()))
}

func (c Coins) MulInt(k int64) (Coins, error) {
	return FromBig(new(big.Int).Mul(c.big(), big.NewInt(k)))
}

// Cmp compares c and o and returns -1, 0 or +1.
func (c Coins) Cmp(o Coins) int {
	return c.big().Cmp(o.big())
}

func (c Coins) Equal(o Coins) bool       { return c.Cmp(o) == 0 }
func (c Coins) LessThan(o Coins) bool    { return c.Cmp(o) < 0 }
func (c Coins) GreaterThan(o Coins) bool { return c.Cmp(o) > 0 }
func (c Coins) IsZero() bool             { return c.big().Sign() == 0 }

// Min returns the smaller of a and b.
func Min(a, b Coins) Coins {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Sum adds all amounts.
func Sum(amounts ...Coins) (Coins, error) {
	total := new(big.Int)
	for _, a := range amounts {
		total.Add(total, a.big())
	}
	return FromBig(total)
}

// String returns the amount in TONs without trailing zeros, e.g. "0.87".
func (c Coins) String() string {
	return c.Decimal().String()
}

// Format represents the amount in TONs according to the english locale (#,###.##).
func (c Coins) Format() string {
	p := message.NewPrinter(language.English)
	x := c.Decimal()
	intPart := p.Sprintf("%v", x.IntPart())
	if x.Equal(decimal.New(x.IntPart(), 0)) {
		return intPart
	}
	parts := strings.Split(x.String(), ".")
	if len(parts) != 2 {
		return intPart
	}
	return intPart + "." + parts[1]
}

func (c Coins) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Coins) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
