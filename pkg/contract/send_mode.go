package contract

import (
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"

	"github.com/arnac-io/wton/pkg/coins"
)

// SendMode is a set of flags controlling how the action phase values and pays for a message.
type SendMode uint8

const (
	// SendModeOrdinary deducts forwarding fees from the message value.
	SendModeOrdinary SendMode = 0
	// SendModePayFeesSeparately pays forwarding fees from the account balance.
	SendModePayFeesSeparately SendMode = 1
	// SendModeIgnoreErrors skips the message instead of failing the action phase.
	SendModeIgnoreErrors SendMode = 2
	// SendModeCarryAllRemainingIncomingValue adds what is left of the inbound value after the compute phase.
	SendModeCarryAllRemainingIncomingValue SendMode = 64
	// SendModeCarryAllRemainingBalance sends the whole remaining balance of the account.
	SendModeCarryAllRemainingBalance SendMode = 128
)

func (m SendMode) Has(flag SendMode) bool {
	return m&flag == flag
}

// OutMessage is an internal message emitted by a handler.
type OutMessage struct {
	Destination ton.AccountID
	Value       coins.Coins
	Bounce      bool
	Body        *boc.Cell
	// Init deploys the destination if it is not active yet.
	Init *tlb.StateInit
}

// SendAction is a request to send a message during the action phase.
type SendAction struct {
	Mode    SendMode
	Message OutMessage
}
