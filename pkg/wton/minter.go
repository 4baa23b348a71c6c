package wton

import (
	"github.com/tonkeeper/tongo/boc"

	"github.com/arnac-io/wton/pkg/coins"
	"github.com/arnac-io/wton/pkg/contract"
)

// Minter issues tokens against attached native coins and tracks the total supply.
type Minter struct {
	params Params
}

var _ contract.Code = (*Minter)(nil)

func NewMinter(params Params) *Minter {
	return &Minter{params: params}
}

func (m *Minter) Name() string {
	return MinterCodeName
}

func (m *Minter) CodeCell() *boc.Cell {
	return MinterCode()
}

func (m *Minter) GetMethods() map[string]contract.GetMethod {
	return map[string]contract.GetMethod{
		GetJettonDataMethod:    getJettonData,
		GetWalletAddressMethod: getWalletAddress,
	}
}

func (m *Minter) ReceiveInternal(ctx *contract.Context, msg contract.InternalMessage) error {
	if err := ctx.ConsumeGas(gasDispatch); err != nil {
		return err
	}
	data, err := ParseMinterData(ctx.Data)
	if err != nil {
		return err
	}
	op, err := ParseMinterOperation(msg)
	if err != nil {
		return err
	}
	switch op := op.(type) {
	case TopUp:
		return ctx.ConsumeGas(gasTopUp)
	case Bounced:
		return m.bounced(ctx, data, op)
	case Mint:
		return m.mint(ctx, msg, data, op)
	case BurnNotification:
		return m.burnNotification(ctx, msg, data, op)
	case WrapNotification:
		return m.wrapNotification(ctx, msg, data, op)
	case ChangeAdmin:
		return m.changeAdmin(ctx, msg, data, op)
	case ChangeContent:
		return m.changeContent(ctx, msg, data, op)
	case Unknown:
		return contract.Throw(ErrUnknownOperation)
	}
	return contract.Throw(ErrUnknownOperation)
}

func (m *Minter) mint(ctx *contract.Context, msg contract.InternalMessage, data MinterData, op Mint) error {
	if err := ctx.ConsumeGas(gasMint); err != nil {
		return err
	}
	if m.params.MintPolicy == MintAdminOnly && !isAdmin(data, msg) {
		return contract.Throw(ErrUnauthorizedAdmin)
	}
	if op.Receiver == nil || op.Receiver.Workchain != ctx.Self.Workchain {
		return contract.Throw(ErrWrongWorkchain)
	}
	amount, ok := m.params.MintedAmount(msg.Value)
	if !ok {
		return contract.Throw(ErrNotEnoughFunds)
	}
	supply, err := data.TotalSupply.Add(amount)
	if err != nil {
		return contract.ThrowWith(contract.ExitIntegerOverflow, err)
	}

	if err := ctx.ConsumeGas(gasAddressDerivation); err != nil {
		return err
	}
	init, err := WalletStateInit(ctx.Self, *op.Receiver, data.WalletCode)
	if err != nil {
		return err
	}
	to, err := WalletAddress(ctx.Self, *op.Receiver, data.WalletCode)
	if err != nil {
		return err
	}
	self := ctx.Self
	body, err := InternalTransfer{
		QueryID:         op.QueryID,
		Amount:          amount,
		From:            &self,
		ResponseAddress: op.Receiver,
	}.Pack()
	if err != nil {
		return contract.ThrowWith(contract.ExitCellOverflow, err)
	}
	ctx.Send(contract.SendModeCarryAllRemainingIncomingValue, contract.OutMessage{
		Destination: to,
		Value:       coins.Zero,
		Bounce:      true,
		Body:        body,
		Init:        &init,
	})
	data.TotalSupply = supply
	return saveMinter(ctx, data)
}

func (m *Minter) burnNotification(ctx *contract.Context, msg contract.InternalMessage, data MinterData, op BurnNotification) error {
	if err := ctx.ConsumeGas(gasBurnNotification); err != nil {
		return err
	}
	if op.Sender == nil {
		return contract.Throw(ErrUnauthorizedBurn)
	}
	if err := ctx.ConsumeGas(gasAddressDerivation); err != nil {
		return err
	}
	wallet, err := WalletAddress(ctx.Self, *op.Sender, data.WalletCode)
	if err != nil {
		return err
	}
	if msg.Source != wallet {
		return contract.Throw(ErrUnauthorizedBurn)
	}
	supply, err := data.TotalSupply.Sub(op.Amount)
	if err != nil {
		return contract.Throw(ErrNotEnoughFunds)
	}
	data.TotalSupply = supply
	return saveMinter(ctx, data)
}

// wrapNotification adds coins wrapped directly into a wallet to the supply.
func (m *Minter) wrapNotification(ctx *contract.Context, msg contract.InternalMessage, data MinterData, op WrapNotification) error {
	if err := ctx.ConsumeGas(gasWrapNotification); err != nil {
		return err
	}
	if op.Owner == nil {
		return contract.Throw(ErrUnauthorizedIncomingTransfer)
	}
	if err := ctx.ConsumeGas(gasAddressDerivation); err != nil {
		return err
	}
	wallet, err := WalletAddress(ctx.Self, *op.Owner, data.WalletCode)
	if err != nil {
		return err
	}
	if msg.Source != wallet {
		return contract.Throw(ErrUnauthorizedIncomingTransfer)
	}
	supply, err := data.TotalSupply.Add(op.Amount)
	if err != nil {
		return contract.ThrowWith(contract.ExitIntegerOverflow, err)
	}
	data.TotalSupply = supply
	return saveMinter(ctx, data)
}

func (m *Minter) changeAdmin(ctx *contract.Context, msg contract.InternalMessage, data MinterData, op ChangeAdmin) error {
	if err := ctx.ConsumeGas(gasAdmin); err != nil {
		return err
	}
	if !isAdmin(data, msg) {
		return contract.Throw(ErrUnauthorizedAdmin)
	}
	data.Admin = op.NewAdmin
	return saveMinter(ctx, data)
}

func (m *Minter) changeContent(ctx *contract.Context, msg contract.InternalMessage, data MinterData, op ChangeContent) error {
	if err := ctx.ConsumeGas(gasAdmin); err != nil {
		return err
	}
	if !isAdmin(data, msg) {
		return contract.Throw(ErrUnauthorizedAdmin)
	}
	data.Content = op.Content
	return saveMinter(ctx, data)
}

// bounced takes back the supply of a mint whose internal_transfer could not be delivered.
func (m *Minter) bounced(ctx *contract.Context, data MinterData, b Bounced) error {
	if err := ctx.ConsumeGas(gasBounce); err != nil {
		return err
	}
	if b.OpCode != OpInternalTransfer {
		return nil
	}
	supply, err := data.TotalSupply.Sub(b.Amount)
	if err != nil {
		return contract.Throw(ErrNotEnoughFunds)
	}
	data.TotalSupply = supply
	return saveMinter(ctx, data)
}

func isAdmin(data MinterData, msg contract.InternalMessage) bool {
	return data.Admin != nil && *data.Admin == msg.Source
}

func saveMinter(ctx *contract.Context, data MinterData) error {
	c, err := data.Cell()
	if err != nil {
		return err
	}
	ctx.SetData(c)
	return nil
}
