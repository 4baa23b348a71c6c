package emulator

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"

	"github.com/arnac-io/wton/pkg/coins"
	"github.com/arnac-io/wton/pkg/contract"
	"github.com/arnac-io/wton/pkg/core"
	"github.com/arnac-io/wton/pkg/wton"
)

// scriptedCode is a contract whose behaviour is set by the test.
type scriptedCode struct {
	name    string
	receive func(ctx *contract.Context, msg contract.InternalMessage) error
}

func (c *scriptedCode) Name() string {
	return c.name
}

func (c *scriptedCode) CodeCell() *boc.Cell {
	cell := boc.NewCell()
	_ = cell.WriteUint(0xc0de, 16)
	for _, b := range []byte(c.name) {
		_ = cell.WriteUint(uint64(b), 8)
	}
	return cell
}

func (c *scriptedCode) ReceiveInternal(ctx *contract.Context, msg contract.InternalMessage) error {
	if err := ctx.ConsumeGas(1_000); err != nil {
		return err
	}
	return c.receive(ctx, msg)
}

func (c *scriptedCode) GetMethods() map[string]contract.GetMethod {
	return nil
}

func testAccount(workchain int32, b byte) ton.AccountID {
	var id ton.AccountID
	id.Workchain = workchain
	for i := range id.Address {
		id.Address[i] = b
	}
	return id
}

var (
	alice   = testAccount(0, 0xa1)
	bob     = testAccount(0, 0xb0)
	mallory = testAccount(0, 0x66)
)

func newExecutor(t *testing.T, codes ...contract.Code) *Executor {
	registry, err := contract.NewRegistry(codes...)
	require.Nil(t, err)
	executor, err := NewExecutor(registry, DefaultConfig(), zap.NewNop(), WithOpNames(wton.OpName))
	require.Nil(t, err)
	return executor
}

func newNetwork(t *testing.T, params wton.Params, opts []Option, codes ...contract.Code) *Network {
	codes = append(codes, wton.NewMinter(params), wton.NewWallet(params))
	n := NewNetwork(newExecutor(t, codes...), zap.NewNop(), opts...)
	t.Cleanup(func() {
		require.Nil(t, n.Close())
	})
	return n
}

func scriptedAccount(code *scriptedCode, address ton.AccountID, balance string) core.Account {
	return core.Account{
		AccountAddress: address,
		Status:         core.AccountActive,
		Balance:        coins.MustParse(balance),
		Code:           code.CodeCell(),
		Data:           boc.NewCell(),
	}
}

func message(source, destination ton.AccountID, value string, bounce bool, body *boc.Cell) core.Message {
	return core.Message{
		MessageID: core.MessageID{Source: &source, Destination: &destination},
		Bounce:    bounce,
		Value:     coins.MustParse(value),
		Body:      body,
		OpCode:    core.ReadOpCode(body),
	}
}

type packer interface {
	Pack() (*boc.Cell, error)
}

func pack(t *testing.T, p packer) *boc.Cell {
	c, err := p.Pack()
	require.Nil(t, err)
	return c
}

func requireCoins(t *testing.T, want string, got coins.Coins) {
	t.Helper()
	require.Equal(t, coins.MustParse(want).String(), got.String())
}
