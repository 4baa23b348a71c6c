package wton

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/ton"

	"github.com/arnac-io/wton/pkg/coins"
	"github.com/arnac-io/wton/pkg/contract"
)

func minterData(supply string, admin *ton.AccountID) MinterData {
	content := boc.NewCell()
	_ = content.WriteUint(0x01, 8)
	return MinterData{
		TotalSupply: coins.MustParse(supply),
		Admin:       admin,
		Content:     content,
		WalletCode:  WalletCode(),
	}
}

func TestMinter_Mint(t *testing.T) {
	receiver := ownerAddress
	ctx, err := runMinter(t, DefaultParams(), minterData("10", nil), "11", inbound(t, otherAddress, "1", Mint{QueryID: 9, Receiver: &receiver}))
	require.Nil(t, err)
	requireCoins(t, "10.974", savedMinter(t, ctx).TotalSupply)

	actions := ctx.Actions()
	require.Len(t, actions, 1)
	out := actions[0]
	require.Equal(t, contract.SendModeCarryAllRemainingIncomingValue, out.Mode)
	require.True(t, out.Message.Bounce)
	require.True(t, out.Message.Value.IsZero())
	require.NotNil(t, out.Message.Init)
	wallet, err := WalletAddress(minterAddress, receiver, WalletCode())
	require.Nil(t, err)
	require.Equal(t, wallet, out.Message.Destination)

	transfer, err := UnpackInternalTransfer(out.Message.Body)
	require.Nil(t, err)
	require.Equal(t, uint64(9), transfer.QueryID)
	requireCoins(t, "0.974", transfer.Amount)
	require.Equal(t, minterAddress, *transfer.From)
	require.Equal(t, receiver, *transfer.ResponseAddress)
	require.True(t, transfer.ForwardTonAmount.IsZero())
}

func TestMinter_MintRejected(t *testing.T) {
	admin := testAccount(0, 0x0c)
	receiver := ownerAddress
	foreign := masterAddress
	adminOnly := DefaultParams()
	adminOnly.MintPolicy = MintAdminOnly

	tests := []struct {
		name     string
		params   Params
		admin    *ton.AccountID
		source   ton.AccountID
		receiver *ton.AccountID
		value    string
		wantCode contract.ExitCode
	}{
		{name: "value equal to fee", params: DefaultParams(), source: otherAddress, receiver: &receiver, value: "0.026", wantCode: ErrNotEnoughFunds},
		{name: "value below fee", params: DefaultParams(), source: otherAddress, receiver: &receiver, value: "0.01", wantCode: ErrNotEnoughFunds},
		{name: "receiver on another workchain", params: DefaultParams(), source: otherAddress, receiver: &foreign, value: "1", wantCode: ErrWrongWorkchain},
		{name: "no receiver", params: DefaultParams(), source: otherAddress, value: "1", wantCode: ErrWrongWorkchain},
		{name: "admin only, foreign sender", params: adminOnly, admin: &admin, source: otherAddress, receiver: &receiver, value: "1", wantCode: ErrUnauthorizedAdmin},
		{name: "admin only, no admin", params: adminOnly, source: otherAddress, receiver: &receiver, value: "1", wantCode: ErrUnauthorizedAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := inbound(t, tt.source, tt.value, Mint{Receiver: tt.receiver})
			ctx, err := runMinter(t, tt.params, minterData("0", tt.admin), "1", msg)
			requireExitCode(t, err, tt.wantCode)
			require.Nil(t, ctx.NewData())
			require.Empty(t, ctx.Actions())
		})
	}

	t.Run("admin only, admin sender", func(t *testing.T) {
		msg := inbound(t, admin, "1", Mint{Receiver: &receiver})
		_, err := runMinter(t, adminOnly, minterData("0", &admin), "1", msg)
		require.Nil(t, err)
	})
}

func TestMinter_BurnNotification(t *testing.T) {
	owner := ownerAddress
	notification := BurnNotification{QueryID: 1, Amount: coins.MustParse("0.87"), Sender: &owner}

	t.Run("from the owner wallet", func(t *testing.T) {
		ctx, err := runMinter(t, DefaultParams(), minterData("1", nil), "1", inbound(t, ownerWallet(t, owner), "0.013", notification))
		require.Nil(t, err)
		requireCoins(t, "0.13", savedMinter(t, ctx).TotalSupply)
		require.Empty(t, ctx.Actions())
	})
	t.Run("from another wallet", func(t *testing.T) {
		_, err := runMinter(t, DefaultParams(), minterData("1", nil), "1", inbound(t, ownerWallet(t, otherAddress), "0.013", notification))
		requireExitCode(t, err, ErrUnauthorizedBurn)
	})
	t.Run("from the owner itself", func(t *testing.T) {
		_, err := runMinter(t, DefaultParams(), minterData("1", nil), "1", inbound(t, owner, "0.013", notification))
		requireExitCode(t, err, ErrUnauthorizedBurn)
	})
}

func TestMinter_WrapNotification(t *testing.T) {
	owner := ownerAddress
	notification := WrapNotification{QueryID: 4, Amount: coins.MustParse("2"), Owner: &owner}
	tests := []struct {
		name     string
		source   ton.AccountID
		wantCode contract.ExitCode
	}{
		{name: "from the owner wallet", source: ownerWallet(t, owner)},
		{name: "from another wallet", source: ownerWallet(t, otherAddress), wantCode: ErrUnauthorizedIncomingTransfer},
		{name: "from the owner itself", source: owner, wantCode: ErrUnauthorizedIncomingTransfer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, err := runMinter(t, DefaultParams(), minterData("1", nil), "1", inbound(t, tt.source, "0.01", notification))
			if tt.wantCode != 0 {
				requireExitCode(t, err, tt.wantCode)
				return
			}
			require.Nil(t, err)
			requireCoins(t, "3", savedMinter(t, ctx).TotalSupply)
			require.Empty(t, ctx.Actions())
		})
	}
}

func TestMinter_AdminOperations(t *testing.T) {
	admin := testAccount(0, 0x0c)
	newAdmin := testAccount(0, 0x0d)
	content := boc.NewCell()
	require.Nil(t, content.WriteUint(0x42, 8))

	t.Run("change admin", func(t *testing.T) {
		ctx, err := runMinter(t, DefaultParams(), minterData("1", &admin), "1", inbound(t, admin, "0.05", ChangeAdmin{NewAdmin: &newAdmin}))
		require.Nil(t, err)
		require.Equal(t, newAdmin, *savedMinter(t, ctx).Admin)
	})
	t.Run("drop admin", func(t *testing.T) {
		ctx, err := runMinter(t, DefaultParams(), minterData("1", &admin), "1", inbound(t, admin, "0.05", ChangeAdmin{}))
		require.Nil(t, err)
		require.Nil(t, savedMinter(t, ctx).Admin)
	})
	t.Run("change content", func(t *testing.T) {
		ctx, err := runMinter(t, DefaultParams(), minterData("1", &admin), "1", inbound(t, admin, "0.05", ChangeContent{Content: content}))
		require.Nil(t, err)
		got := savedMinter(t, ctx).Content
		gotHash, err := got.HashString()
		require.Nil(t, err)
		wantHash, err := content.HashString()
		require.Nil(t, err)
		require.Equal(t, wantHash, gotHash)
	})
	t.Run("not admin", func(t *testing.T) {
		_, err := runMinter(t, DefaultParams(), minterData("1", &admin), "1", inbound(t, otherAddress, "0.05", ChangeAdmin{NewAdmin: &newAdmin}))
		requireExitCode(t, err, ErrUnauthorizedAdmin)
	})
	t.Run("admin-less minter", func(t *testing.T) {
		_, err := runMinter(t, DefaultParams(), minterData("1", nil), "1", inbound(t, otherAddress, "0.05", ChangeContent{Content: content}))
		requireExitCode(t, err, ErrUnauthorizedAdmin)
	})
}

func TestMinter_UnknownOperation(t *testing.T) {
	destination := otherAddress
	// A transfer means nothing to a minter.
	msg := inbound(t, ownerAddress, "1", Transfer{Amount: coins.MustParse("1"), Destination: &destination})
	_, err := runMinter(t, DefaultParams(), minterData("1", nil), "1", msg)
	requireExitCode(t, err, ErrUnknownOperation)
}

func TestGetMethods(t *testing.T) {
	admin := testAccount(0, 0x0c)
	minterCell, err := minterData("12.5", &admin).Cell()
	require.Nil(t, err)
	minter := NewMinter(DefaultParams())
	ctx := contract.GetContext{Self: minterAddress, Code: MinterCode(), Data: minterCell}

	first, err := GetJettonData(minter, ctx)
	require.Nil(t, err)
	second, err := GetJettonData(minter, ctx)
	require.Nil(t, err)
	requireCoins(t, "12.5", first.TotalSupply)
	require.True(t, first.Mintable)
	require.Equal(t, admin, *first.Admin)
	require.Equal(t, first.TotalSupply.String(), second.TotalSupply.String())

	addr, err := GetWalletAddress(minter, ctx, ownerAddress)
	require.Nil(t, err)
	require.Equal(t, ownerWallet(t, ownerAddress), addr)

	_, err = contract.RunGetMethod(minter, ctx, GetWalletAddressMethod)
	require.ErrorIs(t, err, ErrBadArguments)
	_, err = contract.RunGetMethod(minter, ctx, "seqno")
	require.ErrorIs(t, err, contract.ErrUnknownGetMethod)

	walletCell, err := walletData("3").Cell()
	require.Nil(t, err)
	wallet, err := GetWalletData(NewWallet(DefaultParams()), contract.GetContext{Data: walletCell})
	require.Nil(t, err)
	requireCoins(t, "3", wallet.Balance)
	require.Equal(t, ownerAddress, wallet.Owner)
	require.Equal(t, minterAddress, wallet.Minter)
}
