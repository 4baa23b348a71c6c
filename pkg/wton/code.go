package wton

import (
	"github.com/tonkeeper/tongo/boc"
)

const codeMagic = 0x77746f6e // "wton"

const (
	MinterCodeName = "wton-minter-v1"
	WalletCodeName = "wton-wallet-v1"
)

// codeCell builds the code cell identifying an implementation: the magic and its name.
// A fresh cell is returned every time so callers never share read counters.
func codeCell(name string) *boc.Cell {
	c := boc.NewCell()
	if err := c.WriteUint(codeMagic, 32); err != nil {
		panic(err)
	}
	for _, b := range []byte(name) {
		if err := c.WriteUint(uint64(b), 8); err != nil {
			panic(err)
		}
	}
	return c
}

// MinterCode returns the code cell of the minter.
func MinterCode() *boc.Cell {
	return codeCell(MinterCodeName)
}

// WalletCode returns the code cell of the wallet.
func WalletCode() *boc.Cell {
	return codeCell(WalletCodeName)
}
