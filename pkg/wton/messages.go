package wton

import (
	"errors"
	"fmt"

	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"

	"github.com/arnac-io/wton/pkg/coins"
)

var ErrUnexpectedOpCode = errors.New("unexpected op code")

// TL-B layouts of message bodies, without the leading 32-bit op code.

// transfer#0f8a7ea5 query_id:uint64 amount:Coins destination:MsgAddress
// response_destination:MsgAddress custom_payload:(Maybe ^Cell)
// forward_ton_amount:Coins forward_payload:(Either Cell ^Cell) = InternalMsgBody;
type TransferMsgBody struct {
	QueryID             uint64
	Amount              tlb.VarUInteger16
	Destination         tlb.MsgAddress
	ResponseDestination tlb.MsgAddress
	CustomPayload       *tlb.Any `tlb:"maybe^"`
	ForwardTonAmount    tlb.VarUInteger16
	ForwardPayload      tlb.EitherRef[tlb.Any]
}

// internal_transfer#178d4519 query_id:uint64 amount:Coins from:MsgAddress
// response_address:MsgAddress forward_ton_amount:Coins
// forward_payload:(Either Cell ^Cell) = InternalMsgBody;
type InternalTransferMsgBody struct {
	QueryID          uint64
	Amount           tlb.VarUInteger16
	From             tlb.MsgAddress
	ResponseAddress  tlb.MsgAddress
	ForwardTonAmount tlb.VarUInteger16
	ForwardPayload   tlb.EitherRef[tlb.Any]
}

// transfer_notification#7362d09c query_id:uint64 amount:Coins sender:MsgAddress
// forward_payload:(Either Cell ^Cell) = InternalMsgBody;
type TransferNotificationMsgBody struct {
	QueryID        uint64
	Amount         tlb.VarUInteger16
	Sender         tlb.MsgAddress
	ForwardPayload tlb.EitherRef[tlb.Any]
}

// external_transfer#13d06244 query_id:uint64 amount:Coins response_address:MsgAddress
// forward_ton_amount:Coins forward_payload:(Maybe ^Cell) = InternalMsgBody;
type ExternalTransferMsgBody struct {
	QueryID          uint64
	Amount           tlb.VarUInteger16
	ResponseAddress  tlb.MsgAddress
	ForwardTonAmount tlb.VarUInteger16
	ForwardPayload   *tlb.Any `tlb:"maybe^"`
}

// burn#595f07bc query_id:uint64 amount:Coins response_destination:MsgAddress
// custom_payload:(Maybe ^Cell) = InternalMsgBody;
type BurnMsgBody struct {
	QueryID             uint64
	Amount              tlb.VarUInteger16
	ResponseDestination tlb.MsgAddress
	CustomPayload       *tlb.Any `tlb:"maybe^"`
}

// burn_notification#7bdd97de query_id:uint64 amount:Coins sender:MsgAddress
// response_destination:MsgAddress = InternalMsgBody;
type BurnNotificationMsgBody struct {
	QueryID             uint64
	Amount              tlb.VarUInteger16
	Sender              tlb.MsgAddress
	ResponseDestination tlb.MsgAddress
}

// unwrap_notification#10d0a42f query_id:uint64 amount:Coins from:MsgAddress = InternalMsgBody;
type UnwrapNotificationMsgBody struct {
	QueryID uint64
	Amount  tlb.VarUInteger16
	From    tlb.MsgAddress
}

// wrap_notification#4bb4ae4a query_id:uint64 amount:Coins owner:MsgAddress = InternalMsgBody;
type WrapNotificationMsgBody struct {
	QueryID uint64
	Amount  tlb.VarUInteger16
	Owner   tlb.MsgAddress
}

// mint#00000015 query_id:uint64 receiver:MsgAddress = InternalMsgBody;
type MintMsgBody struct {
	QueryID  uint64
	Receiver tlb.MsgAddress
}

// change_admin#00000003 query_id:uint64 new_admin:MsgAddress = InternalMsgBody;
type ChangeAdminMsgBody struct {
	QueryID  uint64
	NewAdmin tlb.MsgAddress
}

// change_content#00000004 query_id:uint64 content:^Cell = InternalMsgBody;
type ChangeContentMsgBody struct {
	QueryID uint64
	Content tlb.Any `tlb:"^"`
}

// PackBody serializes a body struct behind its op code.
func PackBody(op uint32, body any) (*boc.Cell, error) {
	c := boc.NewCell()
	if err := c.WriteUint(uint64(op), 32); err != nil {
		return nil, err
	}
	if err := tlb.Marshal(c, body); err != nil {
		return nil, err
	}
	return c, nil
}

// UnpackBody checks the op code and decodes the rest of the cell into body.
func UnpackBody(c *boc.Cell, op uint32, body any) error {
	c.ResetCounters()
	got, err := c.ReadUint(32)
	if err != nil {
		return err
	}
	if uint32(got) != op {
		return fmt.Errorf("%w: want %#x, got %#x", ErrUnexpectedOpCode, op, got)
	}
	return tlb.Unmarshal(c, body)
}

func addressToTlb(a *ton.AccountID) tlb.MsgAddress {
	if a == nil {
		return tlb.MsgAddress{SumType: "AddrNone"}
	}
	return a.ToMsgAddress()
}

// addressFromTlb returns nil for addr_none and an error for non-std addresses.
func addressFromTlb(a tlb.MsgAddress) (*ton.AccountID, error) {
	switch a.SumType {
	case "AddrNone", "AddrStd":
		return ton.AccountIDFromTlb(a)
	}
	return nil, fmt.Errorf("unsupported address type %v", a.SumType)
}

// anyOf converts a cell to tlb.Any with its read counters rewound,
// so that the whole cell gets serialized.
func anyOf(c *boc.Cell) tlb.Any {
	c.ResetCounters()
	return tlb.Any(*c)
}

func eitherPayload(payload *boc.Cell) tlb.EitherRef[tlb.Any] {
	if payload == nil {
		return tlb.EitherRef[tlb.Any]{Value: anyOf(boc.NewCell())}
	}
	return tlb.EitherRef[tlb.Any]{IsRight: true, Value: anyOf(payload)}
}

func payloadFromEither(e tlb.EitherRef[tlb.Any]) *boc.Cell {
	c := boc.Cell(e.Value)
	if !e.IsRight && c.BitSize() == 0 && c.RefsSize() == 0 {
		return nil
	}
	return &c
}

func maybePayload(payload *boc.Cell) *tlb.Any {
	if payload == nil {
		return nil
	}
	v := anyOf(payload)
	return &v
}

func payloadFromMaybe(a *tlb.Any) *boc.Cell {
	if a == nil {
		return nil
	}
	c := boc.Cell(*a)
	return &c
}

// Transfer asks the owner's wallet to move tokens to the wallet of Destination.
type Transfer struct {
	QueryID             uint64
	Amount              coins.Coins
	Destination         *ton.AccountID
	ResponseDestination *ton.AccountID
	CustomPayload       *boc.Cell
	ForwardTonAmount    coins.Coins
	ForwardPayload      *boc.Cell
}

func (t Transfer) Pack() (*boc.Cell, error) {
	return PackBody(OpTransfer, TransferMsgBody{
		QueryID:             t.QueryID,
		Amount:              t.Amount.Tlb(),
		Destination:         addressToTlb(t.Destination),
		ResponseDestination: addressToTlb(t.ResponseDestination),
		CustomPayload:       maybePayload(t.CustomPayload),
		ForwardTonAmount:    t.ForwardTonAmount.Tlb(),
		ForwardPayload:      eitherPayload(t.ForwardPayload),
	})
}

// InternalTransfer credits tokens to a wallet; sent by the minter or a sibling wallet.
type InternalTransfer struct {
	QueryID          uint64
	Amount           coins.Coins
	From             *ton.AccountID
	ResponseAddress  *ton.AccountID
	ForwardTonAmount coins.Coins
	ForwardPayload   *boc.Cell
}

func (t InternalTransfer) Pack() (*boc.Cell, error) {
	return PackBody(OpInternalTransfer, InternalTransferMsgBody{
		QueryID:          t.QueryID,
		Amount:           t.Amount.Tlb(),
		From:             addressToTlb(t.From),
		ResponseAddress:  addressToTlb(t.ResponseAddress),
		ForwardTonAmount: t.ForwardTonAmount.Tlb(),
		ForwardPayload:   eitherPayload(t.ForwardPayload),
	})
}

// TransferNotification tells an owner that tokens or coins arrived.
type TransferNotification struct {
	QueryID        uint64
	Amount         coins.Coins
	Sender         *ton.AccountID
	ForwardPayload *boc.Cell
}

func (n TransferNotification) Pack() (*boc.Cell, error) {
	return PackBody(OpTransferNotification, TransferNotificationMsgBody{
		QueryID:        n.QueryID,
		Amount:         n.Amount.Tlb(),
		Sender:         addressToTlb(n.Sender),
		ForwardPayload: eitherPayload(n.ForwardPayload),
	})
}

// UnpackTransferNotification decodes a transfer_notification body.
func UnpackTransferNotification(c *boc.Cell) (TransferNotification, error) {
	var body TransferNotificationMsgBody
	if err := UnpackBody(c, OpTransferNotification, &body); err != nil {
		return TransferNotification{}, err
	}
	sender, err := addressFromTlb(body.Sender)
	if err != nil {
		return TransferNotification{}, err
	}
	return TransferNotification{
		QueryID:        body.QueryID,
		Amount:         coins.FromTlb(body.Amount),
		Sender:         sender,
		ForwardPayload: payloadFromEither(body.ForwardPayload),
	}, nil
}

// ExternalTransfer pays coins to a wallet and asks it to notify ResponseAddress.
type ExternalTransfer struct {
	QueryID          uint64
	Amount           coins.Coins
	ResponseAddress  *ton.AccountID
	ForwardTonAmount coins.Coins
	ForwardPayload   *boc.Cell
}

func (t ExternalTransfer) Pack() (*boc.Cell, error) {
	return PackBody(OpExternalTransfer, ExternalTransferMsgBody{
		QueryID:          t.QueryID,
		Amount:           t.Amount.Tlb(),
		ResponseAddress:  addressToTlb(t.ResponseAddress),
		ForwardTonAmount: t.ForwardTonAmount.Tlb(),
		ForwardPayload:   maybePayload(t.ForwardPayload),
	})
}

// Burn unwraps tokens back to native coins.
type Burn struct {
	QueryID             uint64
	Amount              coins.Coins
	ResponseDestination *ton.AccountID
	CustomPayload       *boc.Cell
}

func (b Burn) Pack() (*boc.Cell, error) {
	return PackBody(OpBurn, BurnMsgBody{
		QueryID:             b.QueryID,
		Amount:              b.Amount.Tlb(),
		ResponseDestination: addressToTlb(b.ResponseDestination),
		CustomPayload:       maybePayload(b.CustomPayload),
	})
}

// BurnNotification acknowledges a burn to the minter.
type BurnNotification struct {
	QueryID             uint64
	Amount              coins.Coins
	Sender              *ton.AccountID
	ResponseDestination *ton.AccountID
}

func (n BurnNotification) Pack() (*boc.Cell, error) {
	return PackBody(OpBurnNotification, BurnNotificationMsgBody{
		QueryID:             n.QueryID,
		Amount:              n.Amount.Tlb(),
		Sender:              addressToTlb(n.Sender),
		ResponseDestination: addressToTlb(n.ResponseDestination),
	})
}

// WrapNotification tells the minter that a wallet credited coins wrapped by an external_transfer.
type WrapNotification struct {
	QueryID uint64
	Amount  coins.Coins
	Owner   *ton.AccountID
}

func (n WrapNotification) Pack() (*boc.Cell, error) {
	return PackBody(OpWrapNotification, WrapNotificationMsgBody{
		QueryID: n.QueryID,
		Amount:  n.Amount.Tlb(),
		Owner:   addressToTlb(n.Owner),
	})
}

// UnwrapNotification carries unwrapped coins to the response destination of a burn.
type UnwrapNotification struct {
	QueryID uint64
	Amount  coins.Coins
	From    *ton.AccountID
}

func (n UnwrapNotification) Pack() (*boc.Cell, error) {
	return PackBody(OpUnwrapNotification, UnwrapNotificationMsgBody{
		QueryID: n.QueryID,
		Amount:  n.Amount.Tlb(),
		From:    addressToTlb(n.From),
	})
}

// UnpackUnwrapNotification decodes an unwrap_notification body.
func UnpackUnwrapNotification(c *boc.Cell) (UnwrapNotification, error) {
	var body UnwrapNotificationMsgBody
	if err := UnpackBody(c, OpUnwrapNotification, &body); err != nil {
		return UnwrapNotification{}, err
	}
	from, err := addressFromTlb(body.From)
	if err != nil {
		return UnwrapNotification{}, err
	}
	return UnwrapNotification{
		QueryID: body.QueryID,
		Amount:  coins.FromTlb(body.Amount),
		From:    from,
	}, nil
}

// UnpackInternalTransfer decodes an internal_transfer body.
func UnpackInternalTransfer(c *boc.Cell) (InternalTransfer, error) {
	var body InternalTransferMsgBody
	if err := UnpackBody(c, OpInternalTransfer, &body); err != nil {
		return InternalTransfer{}, err
	}
	return internalTransferFromTlb(body)
}

func internalTransferFromTlb(body InternalTransferMsgBody) (InternalTransfer, error) {
	from, err := addressFromTlb(body.From)
	if err != nil {
		return InternalTransfer{}, err
	}
	response, err := addressFromTlb(body.ResponseAddress)
	if err != nil {
		return InternalTransfer{}, err
	}
	return InternalTransfer{
		QueryID:          body.QueryID,
		Amount:           coins.FromTlb(body.Amount),
		From:             from,
		ResponseAddress:  response,
		ForwardTonAmount: coins.FromTlb(body.ForwardTonAmount),
		ForwardPayload:   payloadFromEither(body.ForwardPayload),
	}, nil
}

// Mint wraps the value of the message into tokens credited to Receiver.
type Mint struct {
	QueryID  uint64
	Receiver *ton.AccountID
}

func (m Mint) Pack() (*boc.Cell, error) {
	return PackBody(OpMint, MintMsgBody{
		QueryID:  m.QueryID,
		Receiver: addressToTlb(m.Receiver),
	})
}

// ChangeAdmin replaces the admin of a minter; a nil NewAdmin makes it admin-less.
type ChangeAdmin struct {
	QueryID  uint64
	NewAdmin *ton.AccountID
}

func (m ChangeAdmin) Pack() (*boc.Cell, error) {
	return PackBody(OpChangeAdmin, ChangeAdminMsgBody{
		QueryID:  m.QueryID,
		NewAdmin: addressToTlb(m.NewAdmin),
	})
}

// ChangeContent replaces the metadata cell of a minter.
type ChangeContent struct {
	QueryID uint64
	Content *boc.Cell
}

func (m ChangeContent) Pack() (*boc.Cell, error) {
	content := m.Content
	if content == nil {
		content = boc.NewCell()
	}
	return PackBody(OpChangeContent, ChangeContentMsgBody{
		QueryID: m.QueryID,
		Content: anyOf(content),
	})
}
