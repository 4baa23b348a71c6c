package wton

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/boc"

	"github.com/arnac-io/wton/pkg/coins"
	"github.com/arnac-io/wton/pkg/contract"
)

func TestParseWalletOperation(t *testing.T) {
	destination := otherAddress
	transfer, err := Transfer{QueryID: 1, Amount: coins.MustParse("1"), Destination: &destination}.Pack()
	require.Nil(t, err)
	mint, err := Mint{QueryID: 1, Receiver: &destination}.Pack()
	require.Nil(t, err)
	truncated := boc.NewCell()
	require.Nil(t, truncated.WriteUint(uint64(OpTransfer), 32))
	require.Nil(t, truncated.WriteUint(1, 16))

	tests := []struct {
		name     string
		body     *boc.Cell
		bounced  bool
		want     Operation
		wantCode contract.ExitCode
	}{
		{name: "no body", body: nil, want: TopUp{}},
		{name: "transfer", body: transfer, want: Transfer{}},
		{name: "minter op on a wallet", body: mint, want: Unknown{OpCode: OpMint}},
		{name: "truncated", body: truncated, wantCode: contract.ExitCellUnderflow},
		{name: "bounced", body: truncated, bounced: true, want: Bounced{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := ParseWalletOperation(contract.InternalMessage{Source: ownerAddress, Body: tt.body, Bounced: tt.bounced})
			if tt.wantCode != 0 {
				requireExitCode(t, err, tt.wantCode)
				return
			}
			require.Nil(t, err)
			require.IsType(t, tt.want, op)
			if u, ok := tt.want.(Unknown); ok {
				require.Equal(t, u, op)
			}
		})
	}
}

func TestParseTransfer(t *testing.T) {
	destination := otherAddress
	response := testAccount(0, 0x0e)
	payload := boc.NewCell()
	require.Nil(t, payload.WriteUint(7, 8))
	body, err := Transfer{
		QueryID:             99,
		Amount:              coins.MustParse("1.5"),
		Destination:         &destination,
		ResponseDestination: &response,
		ForwardTonAmount:    coins.MustParse("0.01"),
		ForwardPayload:      payload,
	}.Pack()
	require.Nil(t, err)

	op, err := ParseWalletOperation(contract.InternalMessage{Body: body})
	require.Nil(t, err)
	transfer, ok := op.(Transfer)
	require.True(t, ok)
	require.Equal(t, uint64(99), transfer.QueryID)
	requireCoins(t, "1.5", transfer.Amount)
	require.Equal(t, destination, *transfer.Destination)
	require.Equal(t, response, *transfer.ResponseDestination)
	requireCoins(t, "0.01", transfer.ForwardTonAmount)
	require.Nil(t, transfer.CustomPayload)
	require.NotNil(t, transfer.ForwardPayload)
}

func TestParseMinterOperation(t *testing.T) {
	admin := testAccount(0, 0x0c)
	changeAdmin, err := ChangeAdmin{QueryID: 4, NewAdmin: &admin}.Pack()
	require.Nil(t, err)
	op, err := ParseMinterOperation(contract.InternalMessage{Body: changeAdmin})
	require.Nil(t, err)
	require.Equal(t, ChangeAdmin{QueryID: 4, NewAdmin: &admin}, op)

	burn, err := Burn{QueryID: 4, Amount: coins.MustParse("1")}.Pack()
	require.Nil(t, err)
	op, err = ParseMinterOperation(contract.InternalMessage{Body: burn})
	require.Nil(t, err)
	require.Equal(t, Unknown{OpCode: OpBurn}, op)
}

func TestOpName(t *testing.T) {
	require.Equal(t, "transfer", OpName(OpTransfer))
	require.Equal(t, "mint", OpName(OpMint))
	require.Equal(t, "wrap_notification", OpName(OpWrapNotification))
	require.Equal(t, "unknown", OpName(0))
}

func TestDecodeBody(t *testing.T) {
	receiver := otherAddress
	mint, err := Mint{QueryID: 9, Receiver: &receiver}.Pack()
	require.Nil(t, err)
	unwrap, err := UnwrapNotification{QueryID: 9, Amount: coins.MustParse("0.87"), From: &receiver}.Pack()
	require.Nil(t, err)
	burn, err := Burn{QueryID: 9, Amount: coins.MustParse("1")}.Pack()
	require.Nil(t, err)
	wrap, err := WrapNotification{QueryID: 9, Amount: coins.MustParse("2"), Owner: &receiver}.Pack()
	require.Nil(t, err)
	unknown := boc.NewCell()
	require.Nil(t, unknown.WriteUint(0xdeadbeef, 32))

	tests := []struct {
		name    string
		body    *boc.Cell
		want    any
		wantErr bool
	}{
		{name: "minter op", body: mint, want: Mint{QueryID: 9, Receiver: &receiver}},
		{name: "wallet op", body: burn, want: Burn{QueryID: 9, Amount: coins.MustParse("1")}},
		{name: "notification", body: unwrap, want: UnwrapNotification{QueryID: 9, Amount: coins.MustParse("0.87"), From: &receiver}},
		{name: "wrap report", body: wrap, want: WrapNotification{QueryID: 9, Amount: coins.MustParse("2"), Owner: &receiver}},
		{name: "unknown", body: unknown, wantErr: true},
		{name: "too short", body: boc.NewCell(), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeBody(tt.body)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnexpectedOpCode)
				return
			}
			require.Nil(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
