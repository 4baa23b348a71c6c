package contract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"

	"github.com/arnac-io/wton/pkg/coins"
)

type echoCode struct {
	tag uint64
}

func (c echoCode) Name() string { return "echo" }

func (c echoCode) CodeCell() *boc.Cell {
	cell := boc.NewCell()
	_ = cell.WriteUint(c.tag, 32)
	return cell
}

func (c echoCode) ReceiveInternal(ctx *Context, msg InternalMessage) error {
	return nil
}

func (c echoCode) GetMethods() map[string]GetMethod {
	return map[string]GetMethod{
		"balance": func(ctx GetContext, args ...any) (any, error) {
			return ctx.Balance, nil
		},
	}
}

func TestRegistry(t *testing.T) {
	one, two := echoCode{tag: 1}, echoCode{tag: 2}
	r, err := NewRegistry(one)
	require.Nil(t, err)

	got, err := r.Lookup(one.CodeCell())
	require.Nil(t, err)
	require.Equal(t, one, got)

	_, err = r.Lookup(two.CodeCell())
	require.ErrorIs(t, err, ErrUnknownCode)
	_, err = r.Lookup(nil)
	require.ErrorIs(t, err, ErrUnknownCode)
}

func TestRunGetMethod(t *testing.T) {
	ctx := GetContext{Balance: coins.MustParse("1.5")}
	v, err := RunGetMethod(echoCode{}, ctx, "balance")
	require.Nil(t, err)
	require.Equal(t, "1.5", v.(coins.Coins).String())

	_, err = RunGetMethod(echoCode{}, ctx, "missing")
	require.ErrorIs(t, err, ErrUnknownGetMethod)
}

func TestContext_ConsumeGas(t *testing.T) {
	ctx := NewContext(ton.AccountID{}, coins.Zero, 1, nil, nil, 1_000)
	require.Nil(t, ctx.ConsumeGas(600))
	require.Nil(t, ctx.ConsumeGas(400))
	require.Equal(t, uint64(1_000), ctx.GasUsed())

	err := ctx.ConsumeGas(1)
	code, ok := ExitCodeOf(err)
	require.True(t, ok)
	require.Equal(t, ExitOutOfGas, code)
	require.Equal(t, ctx.GasLimit(), ctx.GasUsed())
}

type unitPrices struct{}

func (unitPrices) GasFee(gasUsed uint64) coins.Coins {
	return coins.FromNano(gasUsed)
}

func (unitPrices) ForwardFee(body *boc.Cell, init *tlb.StateInit) (coins.Coins, error) {
	if init != nil {
		return coins.FromNano(2_000), nil
	}
	return coins.FromNano(1_000), nil
}

func TestContext_Prices(t *testing.T) {
	ctx := NewContext(ton.AccountID{}, coins.Zero, 1, nil, nil, 1_000)
	require.Nil(t, ctx.ConsumeGas(300))
	require.True(t, ctx.GasFee().IsZero())
	fwd, err := ctx.ForwardFee(OutMessage{Init: &tlb.StateInit{}})
	require.Nil(t, err)
	require.True(t, fwd.IsZero())

	ctx.WithPrices(unitPrices{})
	require.Equal(t, coins.FromNano(300).String(), ctx.GasFee().String())
	fwd, err = ctx.ForwardFee(OutMessage{Body: boc.NewCell()})
	require.Nil(t, err)
	require.Equal(t, coins.FromNano(1_000).String(), fwd.String())
	fwd, err = ctx.ForwardFee(OutMessage{Init: &tlb.StateInit{}})
	require.Nil(t, err)
	require.Equal(t, coins.FromNano(2_000).String(), fwd.String())
}

func TestContext_Actions(t *testing.T) {
	ctx := NewContext(ton.AccountID{}, coins.Zero, 1, nil, nil, 1_000)
	require.Nil(t, ctx.NewData())
	data := boc.NewCell()
	ctx.SetData(data)
	require.Equal(t, data, ctx.NewData())

	ctx.Send(SendModeCarryAllRemainingIncomingValue|SendModeIgnoreErrors, OutMessage{Value: coins.MustParse("1")})
	ctx.Send(SendModeOrdinary, OutMessage{})
	actions := ctx.Actions()
	require.Len(t, actions, 2)
	require.True(t, actions[0].Mode.Has(SendModeIgnoreErrors))
	require.True(t, actions[0].Mode.Has(SendModeCarryAllRemainingIncomingValue))
	require.False(t, actions[0].Mode.Has(SendModePayFeesSeparately))
}

func TestExitCodeOf(t *testing.T) {
	cause := errors.New("short body")
	tests := []struct {
		name   string
		err    error
		code   ExitCode
		isExit bool
	}{
		{name: "throw", err: Throw(ExitCellUnderflow), code: ExitCellUnderflow, isExit: true},
		{name: "with cause", err: ThrowWith(ExitCellOverflow, cause), code: ExitCellOverflow, isExit: true},
		{name: "wrapped", err: errors.Join(errors.New("context"), Throw(ExitIntegerOverflow)), code: ExitIntegerOverflow, isExit: true},
		{name: "plain error", err: cause},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := ExitCodeOf(tt.err)
			require.Equal(t, tt.isExit, ok)
			require.Equal(t, tt.code, code)
		})
	}
	require.ErrorIs(t, ThrowWith(ExitCellOverflow, cause), cause)
	require.Equal(t, "exit code 9", Throw(ExitCellUnderflow).Error())
}

func TestAddressOf(t *testing.T) {
	data := boc.NewCell()
	require.Nil(t, data.WriteUint(7, 8))
	init := NewStateInit(echoCode{tag: 1}.CodeCell(), data)

	first, err := AddressOf(0, init)
	require.Nil(t, err)
	second, err := AddressOf(0, NewStateInit(echoCode{tag: 1}.CodeCell(), data))
	require.Nil(t, err)
	require.Equal(t, first, second)

	other, err := AddressOf(0, NewStateInit(echoCode{tag: 2}.CodeCell(), data))
	require.Nil(t, err)
	require.NotEqual(t, first.Address, other.Address)

	masterchain, err := AddressOf(-1, init)
	require.Nil(t, err)
	require.Equal(t, int32(-1), masterchain.Workchain)
	require.Equal(t, first.Address, masterchain.Address)
}
