package wton

import (
	"github.com/go-faster/errors"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"

	"github.com/arnac-io/wton/pkg/coins"
)

// minter data: total_supply:Coins admin:MsgAddress content:^Cell wallet_code:^Cell
type minterDataLayout struct {
	TotalSupply tlb.VarUInteger16
	Admin       tlb.MsgAddress
	Content     tlb.Any `tlb:"^"`
	WalletCode  tlb.Any `tlb:"^"`
}

// wallet data: balance:Coins owner:MsgAddress minter:MsgAddress wallet_code:^Cell
type walletDataLayout struct {
	Balance    tlb.VarUInteger16
	Owner      tlb.MsgAddress
	Minter     tlb.MsgAddress
	WalletCode tlb.Any `tlb:"^"`
}

// MinterData is the persistent state of a minter.
type MinterData struct {
	TotalSupply coins.Coins
	// Admin is nil for an admin-less minter.
	Admin      *ton.AccountID
	Content    *boc.Cell
	WalletCode *boc.Cell
}

// WalletData is the persistent state of a wallet.
type WalletData struct {
	Balance    coins.Coins
	Owner      ton.AccountID
	Minter     ton.AccountID
	WalletCode *boc.Cell
}

func (d MinterData) Cell() (*boc.Cell, error) {
	content := d.Content
	if content == nil {
		content = boc.NewCell()
	}
	if d.WalletCode == nil {
		return nil, errors.New("minter data without wallet code")
	}
	c := boc.NewCell()
	err := tlb.Marshal(c, minterDataLayout{
		TotalSupply: d.TotalSupply.Tlb(),
		Admin:       addressToTlb(d.Admin),
		Content:     anyOf(content),
		WalletCode:  anyOf(d.WalletCode),
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal minter data")
	}
	return c, nil
}

func ParseMinterData(c *boc.Cell) (MinterData, error) {
	if c == nil {
		return MinterData{}, errors.New("empty minter data")
	}
	c.ResetCounters()
	var layout minterDataLayout
	if err := tlb.Unmarshal(c, &layout); err != nil {
		return MinterData{}, errors.Wrap(err, "unmarshal minter data")
	}
	admin, err := addressFromTlb(layout.Admin)
	if err != nil {
		return MinterData{}, errors.Wrap(err, "admin")
	}
	content := boc.Cell(layout.Content)
	code := boc.Cell(layout.WalletCode)
	return MinterData{
		TotalSupply: coins.FromTlb(layout.TotalSupply),
		Admin:       admin,
		Content:     &content,
		WalletCode:  &code,
	}, nil
}

func (d WalletData) Cell() (*boc.Cell, error) {
	if d.WalletCode == nil {
		return nil, errors.New("wallet data without wallet code")
	}
	c := boc.NewCell()
	err := tlb.Marshal(c, walletDataLayout{
		Balance:    d.Balance.Tlb(),
		Owner:      d.Owner.ToMsgAddress(),
		Minter:     d.Minter.ToMsgAddress(),
		WalletCode: anyOf(d.WalletCode),
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal wallet data")
	}
	return c, nil
}

func ParseWalletData(c *boc.Cell) (WalletData, error) {
	if c == nil {
		return WalletData{}, errors.New("empty wallet data")
	}
	c.ResetCounters()
	var layout walletDataLayout
	if err := tlb.Unmarshal(c, &layout); err != nil {
		return WalletData{}, errors.Wrap(err, "unmarshal wallet data")
	}
	owner, err := addressFromTlb(layout.Owner)
	if err != nil || owner == nil {
		return WalletData{}, errors.New("wallet data: owner is not a std address")
	}
	minter, err := addressFromTlb(layout.Minter)
	if err != nil || minter == nil {
		return WalletData{}, errors.New("wallet data: minter is not a std address")
	}
	code := boc.Cell(layout.WalletCode)
	return WalletData{
		Balance:    coins.FromTlb(layout.Balance),
		Owner:      *owner,
		Minter:     *minter,
		WalletCode: &code,
	}, nil
}
