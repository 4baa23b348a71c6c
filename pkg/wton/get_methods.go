package wton

import (
	"github.com/go-faster/errors"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/ton"

	"github.com/arnac-io/wton/pkg/coins"
	"github.com/arnac-io/wton/pkg/contract"
)

const (
	GetJettonDataMethod    = "get_jetton_data"
	GetWalletAddressMethod = "get_wallet_address"
	GetWalletDataMethod    = "get_wallet_data"
)

var ErrBadArguments = errors.New("bad get method arguments")

// JettonData is the result of get_jetton_data.
type JettonData struct {
	TotalSupply coins.Coins
	// Mintable is always true, the minter has no way to stop minting.
	Mintable   bool
	Admin      *ton.AccountID
	Content    *boc.Cell
	WalletCode *boc.Cell
}

func getJettonData(ctx contract.GetContext, args ...any) (any, error) {
	data, err := ParseMinterData(ctx.Data)
	if err != nil {
		return nil, err
	}
	return JettonData{
		TotalSupply: data.TotalSupply,
		Mintable:    true,
		Admin:       data.Admin,
		Content:     data.Content,
		WalletCode:  data.WalletCode,
	}, nil
}

func getWalletAddress(ctx contract.GetContext, args ...any) (any, error) {
	if len(args) != 1 {
		return nil, errors.Wrapf(ErrBadArguments, "%v expects one argument, got %d", GetWalletAddressMethod, len(args))
	}
	var owner ton.AccountID
	switch a := args[0].(type) {
	case ton.AccountID:
		owner = a
	case *ton.AccountID:
		if a == nil {
			return nil, errors.Wrap(ErrBadArguments, "owner is null")
		}
		owner = *a
	default:
		return nil, errors.Wrapf(ErrBadArguments, "unexpected owner type %T", args[0])
	}
	data, err := ParseMinterData(ctx.Data)
	if err != nil {
		return nil, err
	}
	return WalletAddress(ctx.Self, owner, data.WalletCode)
}

func getWalletData(ctx contract.GetContext, args ...any) (any, error) {
	return ParseWalletData(ctx.Data)
}

// GetJettonData runs get_jetton_data and checks the result type.
func GetJettonData(code contract.Code, ctx contract.GetContext) (JettonData, error) {
	return runTyped[JettonData](code, ctx, GetJettonDataMethod)
}

// GetWalletAddress runs get_wallet_address for owner.
func GetWalletAddress(code contract.Code, ctx contract.GetContext, owner ton.AccountID) (ton.AccountID, error) {
	return runTyped[ton.AccountID](code, ctx, GetWalletAddressMethod, owner)
}

// GetWalletData runs get_wallet_data.
func GetWalletData(code contract.Code, ctx contract.GetContext) (WalletData, error) {
	return runTyped[WalletData](code, ctx, GetWalletDataMethod)
}

func runTyped[T any](code contract.Code, ctx contract.GetContext, method string, args ...any) (T, error) {
	var zero T
	res, err := contract.RunGetMethod(code, ctx, method, args...)
	if err != nil {
		return zero, err
	}
	v, ok := res.(T)
	if !ok {
		return zero, errors.Errorf("%v returned %T", method, res)
	}
	return v, nil
}
