package contract

import (
	"github.com/go-faster/errors"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
)

// NewStateInit returns the StateInit deploying code with data.
func NewStateInit(code, data *boc.Cell) tlb.StateInit {
	var init tlb.StateInit
	code.ResetCounters()
	data.ResetCounters()
	init.Code.Exists = true
	init.Code.Value.Value = *code
	init.Data.Exists = true
	init.Data.Value.Value = *data
	return init
}

// StateInitHash is the hash of the serialized StateInit, i.e. the address it deploys to.
func StateInitHash(init tlb.StateInit) (ton.Bits256, error) {
	c := boc.NewCell()
	if err := tlb.Marshal(c, init); err != nil {
		return ton.Bits256{}, errors.Wrap(err, "marshal state init")
	}
	hash, err := c.Hash256()
	if err != nil {
		return ton.Bits256{}, err
	}
	return ton.Bits256(hash), nil
}

// AddressOf returns the address a StateInit deploys to on the given workchain.
func AddressOf(workchain int32, init tlb.StateInit) (ton.AccountID, error) {
	hash, err := StateInitHash(init)
	if err != nil {
		return ton.AccountID{}, err
	}
	return ton.AccountID{Workchain: workchain, Address: hash}, nil
}
