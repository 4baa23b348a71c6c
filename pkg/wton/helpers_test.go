package wton

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"

	"github.com/arnac-io/wton/pkg/coins"
	"github.com/arnac-io/wton/pkg/contract"
)

const testGasLimit = 1_000_000

func testAccount(workchain int32, b byte) ton.AccountID {
	var id ton.AccountID
	id.Workchain = workchain
	for i := range id.Address {
		id.Address[i] = b
	}
	return id
}

var (
	minterAddress = testAccount(0, 0x01)
	ownerAddress  = testAccount(0, 0x02)
	otherAddress  = testAccount(0, 0x03)
	masterAddress = testAccount(-1, 0x04)
)

func ownerWallet(t *testing.T, owner ton.AccountID) ton.AccountID {
	addr, err := WalletAddress(minterAddress, owner, WalletCode())
	require.Nil(t, err)
	return addr
}

func walletData(balance string) WalletData {
	return WalletData{
		Balance:    coins.MustParse(balance),
		Owner:      ownerAddress,
		Minter:     minterAddress,
		WalletCode: WalletCode(),
	}
}

type packer interface {
	Pack() (*boc.Cell, error)
}

func inbound(t *testing.T, source ton.AccountID, value string, body packer) contract.InternalMessage {
	c, err := body.Pack()
	require.Nil(t, err)
	return contract.InternalMessage{
		Source: source,
		Value:  coins.MustParse(value),
		Bounce: true,
		Body:   c,
	}
}

// runWallet executes one message on a wallet holding data and a native balance
// that already includes the value of msg.
func runWallet(t *testing.T, params Params, data WalletData, nativeBalance string, msg contract.InternalMessage) (*contract.Context, error) {
	dataCell, err := data.Cell()
	require.Nil(t, err)
	self := ownerWallet(t, data.Owner)
	ctx := contract.NewContext(self, coins.MustParse(nativeBalance), 1, WalletCode(), dataCell, testGasLimit)
	return ctx, NewWallet(params).ReceiveInternal(ctx, msg)
}

// runWalletPriced is runWallet with gas and forwarding charged at prices.
func runWalletPriced(t *testing.T, params Params, prices contract.Prices, data WalletData, nativeBalance string, msg contract.InternalMessage) (*contract.Context, error) {
	dataCell, err := data.Cell()
	require.Nil(t, err)
	self := ownerWallet(t, data.Owner)
	ctx := contract.NewContext(self, coins.MustParse(nativeBalance), 1, WalletCode(), dataCell, testGasLimit).WithPrices(prices)
	return ctx, NewWallet(params).ReceiveInternal(ctx, msg)
}

func runMinter(t *testing.T, params Params, data MinterData, nativeBalance string, msg contract.InternalMessage) (*contract.Context, error) {
	dataCell, err := data.Cell()
	require.Nil(t, err)
	ctx := contract.NewContext(minterAddress, coins.MustParse(nativeBalance), 1, MinterCode(), dataCell, testGasLimit)
	return ctx, NewMinter(params).ReceiveInternal(ctx, msg)
}

// flatPrices charges per gas unit and per forwarded cell.
type flatPrices struct {
	gasPrice  uint64
	cellPrice uint64
}

func (p flatPrices) GasFee(gasUsed uint64) coins.Coins {
	return coins.FromNano(gasUsed * p.gasPrice)
}

func (p flatPrices) ForwardFee(body *boc.Cell, init *tlb.StateInit) (coins.Coins, error) {
	cells := countCells(body)
	if init != nil {
		cells += 2
	}
	return coins.FromNano(cells * p.cellPrice), nil
}

func countCells(c *boc.Cell) uint64 {
	if c == nil {
		return 0
	}
	n := uint64(1)
	for _, ref := range c.Refs() {
		n += countCells(ref)
	}
	return n
}

// payloadChain builds a chain of distinct cells.
func payloadChain(t *testing.T, cells int) *boc.Cell {
	var next *boc.Cell
	for i := 0; i < cells; i++ {
		c := boc.NewCell()
		require.Nil(t, c.WriteUint(uint64(i), 32))
		if next != nil {
			require.Nil(t, c.AddRef(next))
		}
		next = c
	}
	return next
}

func requireExitCode(t *testing.T, err error, want contract.ExitCode) {
	t.Helper()
	code, ok := contract.ExitCodeOf(err)
	require.True(t, ok, "expected exit error, got %v", err)
	require.Equal(t, want, code)
}

func requireCoins(t *testing.T, want string, got coins.Coins) {
	t.Helper()
	require.Equal(t, coins.MustParse(want).String(), got.String())
}

func savedWallet(t *testing.T, ctx *contract.Context) WalletData {
	require.NotNil(t, ctx.NewData())
	data, err := ParseWalletData(ctx.NewData())
	require.Nil(t, err)
	return data
}

func savedMinter(t *testing.T, ctx *contract.Context) MinterData {
	require.NotNil(t, ctx.NewData())
	data, err := ParseMinterData(ctx.NewData())
	require.Nil(t, err)
	return data
}
