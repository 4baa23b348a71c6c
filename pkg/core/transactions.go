package core

import (
	"fmt"
	"strings"

	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"

	"github.com/arnac-io/wton/pkg/coins"
)

type TransactionID struct {
	Lt      uint64
	Account ton.AccountID
}

func (id TransactionID) String() string {
	return fmt.Sprintf("%d:%s", id.Lt, id.Account.ToRaw())
}

// AccountStatus is the status of an account before or after a transaction.
type AccountStatus string

const (
	AccountNonexist AccountStatus = "nonexist"
	AccountUninit   AccountStatus = "uninit"
	AccountActive   AccountStatus = "active"
)

// TxComputeSkipReason explains why a compute phase was not executed.
type TxComputeSkipReason string

const (
	ComputeSkipNoState TxComputeSkipReason = "no_state"
	ComputeSkipNoGas   TxComputeSkipReason = "no_gas"
)

type TxComputePhase struct {
	Skipped    bool
	SkipReason TxComputeSkipReason
	Success    bool
	GasFees    coins.Coins
	GasUsed    uint64
	GasLimit   uint64
	ExitCode   int32
}

type TxActionPhase struct {
	Success        bool
	ResultCode     int32
	TotalActions   uint16
	SkippedActions uint16
	FwdFees        coins.Coins
}

type TxBouncePhase struct {
	Type BouncePhaseType
}

type BouncePhaseType string

const (
	BounceNoFunds BouncePhaseType = "TrPhaseBounceNofunds"
	BounceOk      BouncePhaseType = "TrPhaseBounceOk"
)

// Transaction is the result of applying one inbound message to one account.
type Transaction struct {
	TransactionID
	Success    bool
	InMsg      *Message
	OutMsgs    []Message
	OrigStatus AccountStatus
	EndStatus  AccountStatus

	EndBalance coins.Coins

	ComputePhase *TxComputePhase
	ActionPhase  *TxActionPhase
	BouncePhase  *TxBouncePhase

	Aborted bool

	// TotalFee is the sum of compute and forwarding fees paid by the account.
	TotalFee coins.Coins
}

// ComputeExitCode returns the exit code of the compute phase or zero if it was skipped.
func (tx Transaction) ComputeExitCode() int32 {
	if tx.ComputePhase == nil || tx.ComputePhase.Skipped {
		return 0
	}
	return tx.ComputePhase.ExitCode
}

// ComputeFailed reports whether the compute phase ran and aborted with a non-zero exit code.
func (tx Transaction) ComputeFailed() bool {
	return tx.ComputePhase != nil && !tx.ComputePhase.Skipped && !tx.ComputePhase.Success
}

// ActionFailed reports whether the compute phase succeeded but the action phase did not.
func (tx Transaction) ActionFailed() bool {
	return tx.ActionPhase != nil && !tx.ActionPhase.Success
}

type MessageID struct {
	CreatedLt   uint64
	Source      *ton.AccountID
	Destination *ton.AccountID
}

func (m MessageID) String() string {
	builder := strings.Builder{}
	builder.Write([]byte(fmt.Sprintf("%d/", m.CreatedLt)))
	if m.Source != nil {
		builder.Write([]byte(m.Source.ToRaw()))
	} else {
		builder.Write([]byte("x"))
	}
	if m.Destination != nil {
		builder.Write([]byte("/" + m.Destination.ToRaw()))
	} else {
		builder.Write([]byte("/x"))
	}
	return builder.String()
}

func (m MessageID) IsExternal() bool {
	return m.Source == nil
}

// Message is an immutable internal message.
// Body must not be read directly, use BodyCell to get an independent copy.
type Message struct {
	MessageID
	Bounce  bool
	Bounced bool
	Value   coins.Coins
	FwdFee  coins.Coins
	Init    *tlb.StateInit
	Body    *boc.Cell
	// OpCode is the first 32 bits of a message body indicating a possible operation.
	OpCode *uint32
}

// BodyCell returns a copy of the message body with reset read counters.
func (m Message) BodyCell() (*boc.Cell, error) {
	if m.Body == nil {
		return boc.NewCell(), nil
	}
	return CloneCell(m.Body)
}

// CloneCell deep-copies a cell tree so that reading the copy does not move the counters of the original.
func CloneCell(c *boc.Cell) (*boc.Cell, error) {
	raw, err := c.ToBoc()
	if err != nil {
		return nil, err
	}
	cells, err := boc.DeserializeBoc(raw)
	if err != nil {
		return nil, err
	}
	if len(cells) != 1 {
		return nil, fmt.Errorf("expected one root cell, got %d", len(cells))
	}
	return cells[0], nil
}

// ReadOpCode returns the first 32 bits of a body, if the body is long enough.
func ReadOpCode(body *boc.Cell) *uint32 {
	if body == nil {
		return nil
	}
	c, err := CloneCell(body)
	if err != nil || c.BitsAvailableForRead() < 32 {
		return nil
	}
	op, err := c.ReadUint(32)
	if err != nil {
		return nil
	}
	v := uint32(op)
	return &v
}
