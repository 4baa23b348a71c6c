package wton

import (
	"fmt"

	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"

	"github.com/arnac-io/wton/pkg/coins"
	"github.com/arnac-io/wton/pkg/contract"
	"github.com/arnac-io/wton/pkg/core"
)

// Operation is an inbound message body parsed once at the dispatcher boundary.
// The set of implementations is closed: the types below and nothing else.
type Operation interface {
	isOperation()
}

// TopUp is a body without an op code; its value is simply kept.
type TopUp struct{}

// Unknown is any op code the receiving contract has no handler for.
type Unknown struct {
	OpCode uint32
}

// Bounced is a message returned to its sender.
// QueryID and Amount are only set when the original op carried them.
type Bounced struct {
	OpCode  uint32
	QueryID uint64
	Amount  coins.Coins
}

func (TopUp) isOperation()            {}
func (Unknown) isOperation()          {}
func (Bounced) isOperation()          {}
func (Transfer) isOperation()         {}
func (InternalTransfer) isOperation() {}
func (ExternalTransfer) isOperation() {}
func (Burn) isOperation()             {}
func (BurnNotification) isOperation() {}
func (WrapNotification) isOperation() {}
func (Mint) isOperation()             {}
func (ChangeAdmin) isOperation()      {}
func (ChangeContent) isOperation()    {}

type opParser func(c *boc.Cell) (Operation, error)

var walletOperations = map[uint32]opParser{
	OpTransfer:         parseTransfer,
	OpInternalTransfer: parseInternalTransfer,
	OpExternalTransfer: parseExternalTransfer,
	OpBurn:             parseBurn,
}

var minterOperations = map[uint32]opParser{
	OpMint:             parseMint,
	OpBurnNotification: parseBurnNotification,
	OpWrapNotification: parseWrapNotification,
	OpChangeAdmin:      parseChangeAdmin,
	OpChangeContent:    parseChangeContent,
}

// ParseWalletOperation parses a body received by a wallet.
func ParseWalletOperation(msg contract.InternalMessage) (Operation, error) {
	return parseOperation(msg, walletOperations)
}

// ParseMinterOperation parses a body received by a minter.
func ParseMinterOperation(msg contract.InternalMessage) (Operation, error) {
	return parseOperation(msg, minterOperations)
}

// parseOperation returns an *contract.ExitError with ExitCellUnderflow for malformed bodies.
func parseOperation(msg contract.InternalMessage, parsers map[uint32]opParser) (Operation, error) {
	body := msg.Body
	if body == nil {
		return TopUp{}, nil
	}
	body.ResetCounters()
	if msg.Bounced {
		return parseBounced(body), nil
	}
	if body.BitsAvailableForRead() < 32 {
		return TopUp{}, nil
	}
	op, err := body.ReadUint(32)
	if err != nil {
		return nil, contract.ThrowWith(contract.ExitCellUnderflow, err)
	}
	parse, ok := parsers[uint32(op)]
	if !ok {
		return Unknown{OpCode: uint32(op)}, nil
	}
	operation, err := parse(body)
	if err != nil {
		return nil, contract.ThrowWith(contract.ExitCellUnderflow, err)
	}
	return operation, nil
}

func parseBounced(body *boc.Cell) Bounced {
	var b Bounced
	prefix, err := body.ReadUint(32)
	if err != nil || uint32(prefix) != bouncedPrefix {
		return b
	}
	op, err := body.ReadUint(32)
	if err != nil {
		return b
	}
	b.OpCode = uint32(op)
	queryID, err := body.ReadUint(64)
	if err != nil {
		return b
	}
	var amount tlb.VarUInteger16
	if err := tlb.Unmarshal(body, &amount); err != nil {
		return b
	}
	b.QueryID = queryID
	b.Amount = coins.FromTlb(amount)
	return b
}

func parseTransfer(c *boc.Cell) (Operation, error) {
	var body TransferMsgBody
	if err := tlb.Unmarshal(c, &body); err != nil {
		return nil, err
	}
	// A destination that is not a std address can never be on our workchain.
	destination, _ := addressFromTlb(body.Destination)
	response, err := addressFromTlb(body.ResponseDestination)
	if err != nil {
		return nil, err
	}
	return Transfer{
		QueryID:             body.QueryID,
		Amount:              coins.FromTlb(body.Amount),
		Destination:         destination,
		ResponseDestination: response,
		CustomPayload:       payloadFromMaybe(body.CustomPayload),
		ForwardTonAmount:    coins.FromTlb(body.ForwardTonAmount),
		ForwardPayload:      payloadFromEither(body.ForwardPayload),
	}, nil
}

func parseInternalTransfer(c *boc.Cell) (Operation, error) {
	var body InternalTransferMsgBody
	if err := tlb.Unmarshal(c, &body); err != nil {
		return nil, err
	}
	return internalTransferFromTlb(body)
}

func parseExternalTransfer(c *boc.Cell) (Operation, error) {
	var body ExternalTransferMsgBody
	if err := tlb.Unmarshal(c, &body); err != nil {
		return nil, err
	}
	response, err := addressFromTlb(body.ResponseAddress)
	if err != nil {
		return nil, err
	}
	return ExternalTransfer{
		QueryID:          body.QueryID,
		Amount:           coins.FromTlb(body.Amount),
		ResponseAddress:  response,
		ForwardTonAmount: coins.FromTlb(body.ForwardTonAmount),
		ForwardPayload:   payloadFromMaybe(body.ForwardPayload),
	}, nil
}

func parseBurn(c *boc.Cell) (Operation, error) {
	var body BurnMsgBody
	if err := tlb.Unmarshal(c, &body); err != nil {
		return nil, err
	}
	response, err := addressFromTlb(body.ResponseDestination)
	if err != nil {
		return nil, err
	}
	return Burn{
		QueryID:             body.QueryID,
		Amount:              coins.FromTlb(body.Amount),
		ResponseDestination: response,
		CustomPayload:       payloadFromMaybe(body.CustomPayload),
	}, nil
}

func parseBurnNotification(c *boc.Cell) (Operation, error) {
	var body BurnNotificationMsgBody
	if err := tlb.Unmarshal(c, &body); err != nil {
		return nil, err
	}
	sender, err := addressFromTlb(body.Sender)
	if err != nil {
		return nil, err
	}
	response, err := addressFromTlb(body.ResponseDestination)
	if err != nil {
		return nil, err
	}
	return BurnNotification{
		QueryID:             body.QueryID,
		Amount:              coins.FromTlb(body.Amount),
		Sender:              sender,
		ResponseDestination: response,
	}, nil
}

func parseWrapNotification(c *boc.Cell) (Operation, error) {
	var body WrapNotificationMsgBody
	if err := tlb.Unmarshal(c, &body); err != nil {
		return nil, err
	}
	owner, err := addressFromTlb(body.Owner)
	if err != nil {
		return nil, err
	}
	return WrapNotification{QueryID: body.QueryID, Amount: coins.FromTlb(body.Amount), Owner: owner}, nil
}

func parseMint(c *boc.Cell) (Operation, error) {
	var body MintMsgBody
	if err := tlb.Unmarshal(c, &body); err != nil {
		return nil, err
	}
	// Same as for transfers: a non-std receiver fails the workchain check.
	receiver, _ := addressFromTlb(body.Receiver)
	return Mint{QueryID: body.QueryID, Receiver: receiver}, nil
}

func parseChangeAdmin(c *boc.Cell) (Operation, error) {
	var body ChangeAdminMsgBody
	if err := tlb.Unmarshal(c, &body); err != nil {
		return nil, err
	}
	admin, err := addressFromTlb(body.NewAdmin)
	if err != nil {
		return nil, err
	}
	return ChangeAdmin{QueryID: body.QueryID, NewAdmin: admin}, nil
}

func parseChangeContent(c *boc.Cell) (Operation, error) {
	var body ChangeContentMsgBody
	if err := tlb.Unmarshal(c, &body); err != nil {
		return nil, err
	}
	content := boc.Cell(body.Content)
	return ChangeContent{QueryID: body.QueryID, Content: &content}, nil
}

// DecodeBody parses any body of the protocol regardless of its receiver, for display.
// Bodies of bounced messages and bodies without a known op code yield ErrUnexpectedOpCode.
func DecodeBody(body *boc.Cell) (any, error) {
	c, err := core.CloneCell(body)
	if err != nil {
		return nil, err
	}
	if c.BitsAvailableForRead() < 32 {
		return nil, ErrUnexpectedOpCode
	}
	op, err := c.ReadUint(32)
	if err != nil {
		return nil, err
	}
	if parse, ok := walletOperations[uint32(op)]; ok {
		return parse(c)
	}
	if parse, ok := minterOperations[uint32(op)]; ok {
		return parse(c)
	}
	c.ResetCounters()
	switch uint32(op) {
	case OpTransferNotification:
		return UnpackTransferNotification(c)
	case OpUnwrapNotification:
		return UnpackUnwrapNotification(c)
	}
	return nil, fmt.Errorf("%w: %#x", ErrUnexpectedOpCode, op)
}
