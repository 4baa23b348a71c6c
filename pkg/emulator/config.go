package emulator

import (
	"math/big"

	"github.com/go-faster/errors"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"

	"github.com/arnac-io/wton/pkg/coins"
	"github.com/arnac-io/wton/pkg/contract"
)

// Config holds the prices of the settlement environment.
type Config struct {
	// GasPrice is the price of one gas unit in nanoTONs.
	GasPrice uint64
	// MaxGas caps the gas limit of a single transaction.
	MaxGas uint64
	// FwdLumpPrice is paid for every outgoing message.
	FwdLumpPrice uint64
	// FwdBitPrice and FwdCellPrice are paid for every bit and cell of the body and StateInit.
	FwdBitPrice  uint64
	FwdCellPrice uint64
}

var _ contract.Prices = Config{}

func DefaultConfig() Config {
	return Config{
		GasPrice:     400,
		MaxGas:       1_000_000,
		FwdLumpPrice: 400_000,
		FwdBitPrice:  400,
		FwdCellPrice: 40_000,
	}
}

func (c Config) Validate() error {
	if c.GasPrice == 0 {
		return errors.New("gas price must be positive")
	}
	if c.MaxGas == 0 {
		return errors.New("max gas must be positive")
	}
	return nil
}

// GasFee is the price of the given amount of gas.
func (c Config) GasFee(gasUsed uint64) coins.Coins {
	fee, err := coins.FromNano(gasUsed).MulInt(int64(c.GasPrice))
	if err != nil {
		// gasUsed never exceeds MaxGas.
		panic(err)
	}
	return fee
}

// GasLimit is how much gas the inbound value and the balance can buy, capped by MaxGas.
func (c Config) GasLimit(value, balance coins.Coins) uint64 {
	limit := c.MaxGas
	price := new(big.Int).SetUint64(c.GasPrice)
	for _, amount := range []coins.Coins{value, balance} {
		units := amount.Nano()
		units.Quo(units, price)
		if units.IsUint64() && units.Uint64() < limit {
			limit = units.Uint64()
		}
	}
	return limit
}

// ForwardFee prices a message by the cells of its body and StateInit.
func (c Config) ForwardFee(body *boc.Cell, init *tlb.StateInit) (coins.Coins, error) {
	st := cellStats{seen: map[string]struct{}{}}
	if body != nil {
		if err := st.add(body); err != nil {
			return coins.Zero, err
		}
	}
	if init != nil {
		initCell := boc.NewCell()
		if err := tlb.Marshal(initCell, *init); err != nil {
			return coins.Zero, errors.Wrap(err, "marshal state init")
		}
		if err := st.add(initCell); err != nil {
			return coins.Zero, err
		}
	}
	return coins.FromNano(c.FwdLumpPrice + c.FwdBitPrice*st.bits + c.FwdCellPrice*st.cells), nil
}

// cellStats counts distinct cells of a tree.
type cellStats struct {
	seen  map[string]struct{}
	bits  uint64
	cells uint64
}

func (s *cellStats) add(c *boc.Cell) error {
	hash, err := c.HashString()
	if err != nil {
		return err
	}
	if _, ok := s.seen[hash]; ok {
		return nil
	}
	s.seen[hash] = struct{}{}
	s.cells++
	s.bits += uint64(c.BitSize())
	for _, ref := range c.Refs() {
		if err := s.add(ref); err != nil {
			return err
		}
	}
	return nil
}
