package wton

import (
	"github.com/tonkeeper/tongo/boc"

	"github.com/arnac-io/wton/pkg/coins"
	"github.com/arnac-io/wton/pkg/contract"
)

// Wallet holds the token balance of one owner.
type Wallet struct {
	params Params
}

var _ contract.Code = (*Wallet)(nil)

func NewWallet(params Params) *Wallet {
	return &Wallet{params: params}
}

func (w *Wallet) Name() string {
	return WalletCodeName
}

func (w *Wallet) CodeCell() *boc.Cell {
	return WalletCode()
}

func (w *Wallet) GetMethods() map[string]contract.GetMethod {
	return map[string]contract.GetMethod{
		GetWalletDataMethod: getWalletData,
	}
}

func (w *Wallet) ReceiveInternal(ctx *contract.Context, msg contract.InternalMessage) error {
	if err := ctx.ConsumeGas(gasDispatch); err != nil {
		return err
	}
	data, err := ParseWalletData(ctx.Data)
	if err != nil {
		return err
	}
	op, err := ParseWalletOperation(msg)
	if err != nil {
		return err
	}
	switch op := op.(type) {
	case TopUp:
		return ctx.ConsumeGas(gasTopUp)
	case Bounced:
		return w.bounced(ctx, data, op)
	case Transfer:
		return w.transfer(ctx, msg, data, op)
	case InternalTransfer:
		return w.internalTransfer(ctx, msg, data, op)
	case ExternalTransfer:
		return w.externalTransfer(ctx, msg, data, op)
	case Burn:
		return w.burn(ctx, msg, data, op)
	case Unknown:
		return contract.Throw(ErrUnknownOperation)
	}
	return contract.Throw(ErrUnknownOperation)
}

func (w *Wallet) transfer(ctx *contract.Context, msg contract.InternalMessage, data WalletData, t Transfer) error {
	if err := ctx.ConsumeGas(gasTransfer); err != nil {
		return err
	}
	if msg.Source != data.Owner {
		return contract.Throw(ErrUnauthorizedTransfer)
	}
	if t.Destination == nil || t.Destination.Workchain != ctx.Self.Workchain {
		return contract.Throw(ErrWrongWorkchain)
	}
	balance, err := data.Balance.Sub(t.Amount)
	if err != nil {
		return contract.Throw(ErrNotEnoughFunds)
	}
	outValue, err := w.params.TransferForwardValue(msg.Value, t.Amount)
	if err != nil {
		return contract.ThrowWith(contract.ExitIntegerOverflow, err)
	}
	minValue, err := w.params.TransferMinForwardValue(t.ForwardTonAmount)
	if err != nil {
		return contract.ThrowWith(contract.ExitIntegerOverflow, err)
	}
	if outValue.LessThan(minValue) {
		return contract.Throw(ErrNotEnoughFunds)
	}
	reserve, err := w.params.TransferRequiredReserve(outValue)
	if err != nil {
		return contract.ThrowWith(contract.ExitIntegerOverflow, err)
	}
	if ctx.Balance.LessThan(reserve) {
		return contract.Throw(ErrNotEnoughFunds)
	}

	if err := ctx.ConsumeGas(gasAddressDerivation); err != nil {
		return err
	}
	init, err := WalletStateInit(data.Minter, *t.Destination, data.WalletCode)
	if err != nil {
		return err
	}
	to, err := WalletAddress(data.Minter, *t.Destination, data.WalletCode)
	if err != nil {
		return err
	}
	owner := data.Owner
	body, err := InternalTransfer{
		QueryID:          t.QueryID,
		Amount:           t.Amount,
		From:             &owner,
		ResponseAddress:  t.ResponseDestination,
		ForwardTonAmount: t.ForwardTonAmount,
		ForwardPayload:   t.ForwardPayload,
	}.Pack()
	if err != nil {
		return contract.ThrowWith(contract.ExitCellOverflow, err)
	}
	out := contract.OutMessage{
		Destination: to,
		Value:       outValue,
		Bounce:      true,
		Body:        body,
		Init:        &init,
	}
	if err := requireAffordable(ctx, outValue, out); err != nil {
		return err
	}
	ctx.Send(contract.SendModePayFeesSeparately, out)
	data.Balance = balance
	return saveWallet(ctx, data)
}

func (w *Wallet) internalTransfer(ctx *contract.Context, msg contract.InternalMessage, data WalletData, t InternalTransfer) error {
	if err := ctx.ConsumeGas(gasInternalTransfer); err != nil {
		return err
	}
	if msg.Source != data.Minter {
		if t.From == nil {
			return contract.Throw(ErrUnauthorizedIncomingTransfer)
		}
		if err := ctx.ConsumeGas(gasAddressDerivation); err != nil {
			return err
		}
		sibling, err := WalletAddress(data.Minter, *t.From, data.WalletCode)
		if err != nil {
			return err
		}
		if msg.Source != sibling {
			return contract.Throw(ErrUnauthorizedIncomingTransfer)
		}
	}
	balance, err := data.Balance.Add(t.Amount)
	if err != nil {
		return contract.ThrowWith(contract.ExitIntegerOverflow, err)
	}
	if !t.ForwardTonAmount.IsZero() {
		body, err := TransferNotification{
			QueryID:        t.QueryID,
			Amount:         t.Amount,
			Sender:         t.From,
			ForwardPayload: t.ForwardPayload,
		}.Pack()
		if err != nil {
			return contract.ThrowWith(contract.ExitCellOverflow, err)
		}
		// The credit stands even if the notification cannot be paid for.
		ctx.Send(contract.SendModePayFeesSeparately|contract.SendModeIgnoreErrors, contract.OutMessage{
			Destination: data.Owner,
			Value:       t.ForwardTonAmount,
			Body:        body,
		})
	}
	data.Balance = balance
	return saveWallet(ctx, data)
}

// externalTransfer wraps the attached amount into this wallet and reports it to the minter,
// which keeps what is left of the attached value after the notification and fees.
func (w *Wallet) externalTransfer(ctx *contract.Context, msg contract.InternalMessage, data WalletData, t ExternalTransfer) error {
	if err := ctx.ConsumeGas(gasExternalTransfer); err != nil {
		return err
	}
	required, err := w.params.ExternalTransferRequired(t.Amount, t.ForwardTonAmount)
	if err != nil {
		return contract.ThrowWith(contract.ExitIntegerOverflow, err)
	}
	if msg.Value.LessThan(required) {
		return contract.Throw(ErrNotEnoughFunds)
	}
	balance, err := data.Balance.Add(t.Amount)
	if err != nil {
		return contract.ThrowWith(contract.ExitIntegerOverflow, err)
	}
	destination := data.Owner
	if t.ResponseAddress != nil {
		destination = *t.ResponseAddress
	}
	sender := msg.Source
	body, err := TransferNotification{
		QueryID:        t.QueryID,
		Amount:         t.Amount,
		Sender:         &sender,
		ForwardPayload: t.ForwardPayload,
	}.Pack()
	if err != nil {
		return contract.ThrowWith(contract.ExitCellOverflow, err)
	}
	owner := data.Owner
	report, err := WrapNotification{
		QueryID: t.QueryID,
		Amount:  t.Amount,
		Owner:   &owner,
	}.Pack()
	if err != nil {
		return contract.ThrowWith(contract.ExitCellOverflow, err)
	}
	notification := contract.OutMessage{
		Destination: destination,
		Value:       t.ForwardTonAmount,
		Body:        body,
	}
	wrap := contract.OutMessage{
		Destination: data.Minter,
		Bounce:      true,
		Body:        report,
	}
	fees, err := actionFees(ctx, notification, wrap)
	if err != nil {
		return err
	}
	spent, err := coins.Sum(t.Amount, t.ForwardTonAmount, fees)
	if err != nil {
		return contract.ThrowWith(contract.ExitIntegerOverflow, err)
	}
	if !msg.Value.GreaterThan(spent) {
		return contract.Throw(ErrNotEnoughFunds)
	}
	if wrap.Value, err = msg.Value.Sub(spent); err != nil {
		return contract.Throw(ErrNotEnoughFunds)
	}
	ctx.Send(contract.SendModePayFeesSeparately, notification)
	ctx.Send(contract.SendModePayFeesSeparately, wrap)
	data.Balance = balance
	return saveWallet(ctx, data)
}

func (w *Wallet) burn(ctx *contract.Context, msg contract.InternalMessage, data WalletData, b Burn) error {
	if err := ctx.ConsumeGas(gasBurn); err != nil {
		return err
	}
	if msg.Source != data.Owner {
		return contract.Throw(ErrUnauthorizedTransfer)
	}
	balance, err := data.Balance.Sub(b.Amount)
	if err != nil {
		return contract.Throw(ErrNotEnoughFunds)
	}
	reserve, err := w.params.BurnRequiredReserve(b.Amount)
	if err != nil {
		return contract.ThrowWith(contract.ExitIntegerOverflow, err)
	}
	if ctx.Balance.LessThan(reserve) {
		return contract.Throw(ErrNotEnoughFunds)
	}
	destination := data.Owner
	if b.ResponseDestination != nil {
		destination = *b.ResponseDestination
	}
	owner := data.Owner
	unwrap, err := UnwrapNotification{
		QueryID: b.QueryID,
		Amount:  b.Amount,
		From:    &owner,
	}.Pack()
	if err != nil {
		return contract.ThrowWith(contract.ExitCellOverflow, err)
	}
	notification, err := BurnNotification{
		QueryID:             b.QueryID,
		Amount:              b.Amount,
		Sender:              &owner,
		ResponseDestination: b.ResponseDestination,
	}.Pack()
	if err != nil {
		return contract.ThrowWith(contract.ExitCellOverflow, err)
	}
	unwrapMsg := contract.OutMessage{
		Destination: destination,
		Value:       b.Amount,
		Body:        unwrap,
	}
	ack := contract.OutMessage{
		Destination: data.Minter,
		Value:       w.params.GasConsumption,
		Body:        notification,
	}
	outValue, err := b.Amount.Add(w.params.GasConsumption)
	if err != nil {
		return contract.ThrowWith(contract.ExitIntegerOverflow, err)
	}
	if err := requireAffordable(ctx, outValue, unwrapMsg, ack); err != nil {
		return err
	}
	ctx.Send(contract.SendModePayFeesSeparately, unwrapMsg)
	ctx.Send(contract.SendModePayFeesSeparately, ack)
	data.Balance = balance
	return saveWallet(ctx, data)
}

// bounced restores the balance taken by a transfer whose internal_transfer came back
// and takes back a credit the minter refused to count.
// Coins of a refused wrap stay in the reserve.
func (w *Wallet) bounced(ctx *contract.Context, data WalletData, b Bounced) error {
	if err := ctx.ConsumeGas(gasBounce); err != nil {
		return err
	}
	var (
		balance coins.Coins
		err     error
	)
	switch b.OpCode {
	case OpInternalTransfer:
		if balance, err = data.Balance.Add(b.Amount); err != nil {
			return contract.ThrowWith(contract.ExitIntegerOverflow, err)
		}
	case OpWrapNotification:
		if balance, err = data.Balance.Sub(b.Amount); err != nil {
			return contract.Throw(ErrNotEnoughFunds)
		}
	default:
		return nil
	}
	data.Balance = balance
	return saveWallet(ctx, data)
}

// actionFees is the gas used so far plus the forwarding of msgs.
func actionFees(ctx *contract.Context, msgs ...contract.OutMessage) (coins.Coins, error) {
	fees := []coins.Coins{ctx.GasFee()}
	for _, m := range msgs {
		fwd, err := ctx.ForwardFee(m)
		if err != nil {
			return coins.Zero, err
		}
		fees = append(fees, fwd)
	}
	total, err := coins.Sum(fees...)
	if err != nil {
		return coins.Zero, contract.ThrowWith(contract.ExitIntegerOverflow, err)
	}
	return total, nil
}

// requireAffordable fails with ErrNotEnoughFunds unless the balance pays value, the gas
// and the forwarding of msgs, so that the action phase cannot run out of funds.
func requireAffordable(ctx *contract.Context, value coins.Coins, msgs ...contract.OutMessage) error {
	fees, err := actionFees(ctx, msgs...)
	if err != nil {
		return err
	}
	cost, err := value.Add(fees)
	if err != nil {
		return contract.ThrowWith(contract.ExitIntegerOverflow, err)
	}
	if ctx.Balance.LessThan(cost) {
		return contract.Throw(ErrNotEnoughFunds)
	}
	return nil
}

func saveWallet(ctx *contract.Context, data WalletData) error {
	c, err := data.Cell()
	if err != nil {
		return err
	}
	ctx.SetData(c)
	return nil
}
