package wton

import (
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"

	"github.com/arnac-io/wton/pkg/cache"
	"github.com/arnac-io/wton/pkg/contract"
	"github.com/arnac-io/wton/pkg/core"
)

// WalletStateInit is the StateInit of an empty wallet of owner.
func WalletStateInit(minter, owner ton.AccountID, walletCode *boc.Cell) (tlb.StateInit, error) {
	data, err := WalletData{
		Owner:      owner,
		Minter:     minter,
		WalletCode: walletCode,
	}.Cell()
	if err != nil {
		return tlb.StateInit{}, err
	}
	code, err := core.CloneCell(walletCode)
	if err != nil {
		return tlb.StateInit{}, err
	}
	return contract.NewStateInit(code, data), nil
}

type walletAddressKey struct {
	minter   ton.AccountID
	owner    ton.AccountID
	codeHash ton.Bits256
}

var walletAddresses = cache.NewLRUCache[walletAddressKey, ton.AccountID](100_000, "wallet_address")

// WalletAddress derives the address of the wallet of owner. Wallets live on the minter's workchain.
func WalletAddress(minter, owner ton.AccountID, walletCode *boc.Cell) (ton.AccountID, error) {
	codeHash, err := walletCode.Hash256()
	if err != nil {
		return ton.AccountID{}, err
	}
	key := walletAddressKey{minter: minter, owner: owner, codeHash: ton.Bits256(codeHash)}
	return walletAddresses.GetOrCompute(key, func() (ton.AccountID, error) {
		init, err := WalletStateInit(minter, owner, walletCode)
		if err != nil {
			return ton.AccountID{}, err
		}
		return contract.AddressOf(minter.Workchain, init)
	})
}

// MinterStateInit is the StateInit of a minter with zero supply.
func MinterStateInit(admin *ton.AccountID, content *boc.Cell) (tlb.StateInit, error) {
	data, err := MinterData{
		Admin:      admin,
		Content:    content,
		WalletCode: WalletCode(),
	}.Cell()
	if err != nil {
		return tlb.StateInit{}, err
	}
	return contract.NewStateInit(MinterCode(), data), nil
}
