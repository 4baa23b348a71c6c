package wton

import (
	"fmt"

	"github.com/arnac-io/wton/pkg/coins"
)

// DefaultGasConsumption is the native amount a single hop of the protocol is assumed to cost.
var DefaultGasConsumption = coins.FromNano(13_000_000)

// MintPolicy decides who may call mint on a minter.
type MintPolicy int

const (
	// MintPermissionless lets anyone wrap coins.
	MintPermissionless MintPolicy = iota
	// MintAdminOnly requires the sender to be the minter admin.
	MintAdminOnly
)

func (p MintPolicy) String() string {
	switch p {
	case MintPermissionless:
		return "permissionless"
	case MintAdminOnly:
		return "admin_only"
	}
	return fmt.Sprintf("MintPolicy(%d)", int(p))
}

// ParseMintPolicy is the inverse of MintPolicy.String.
func ParseMintPolicy(s string) (MintPolicy, error) {
	switch s {
	case "", "permissionless":
		return MintPermissionless, nil
	case "admin_only":
		return MintAdminOnly, nil
	}
	return 0, fmt.Errorf("unknown mint policy %q", s)
}

// Gas units charged by the handlers.
const (
	gasDispatch         uint64 = 600
	gasTopUp            uint64 = 200
	gasBounce           uint64 = 2_500
	gasTransfer         uint64 = 9_500
	gasInternalTransfer uint64 = 7_000
	gasExternalTransfer uint64 = 5_000
	gasBurn             uint64 = 8_000
	gasMint             uint64 = 9_000
	gasBurnNotification uint64 = 5_500
	gasWrapNotification uint64 = 5_500
	gasAdmin            uint64 = 3_000
	// gasAddressDerivation is charged once per derived wallet address.
	gasAddressDerivation uint64 = 1_500
)

// Params are the protocol constants shared by the minter and its wallets.
type Params struct {
	GasConsumption coins.Coins
	MintPolicy     MintPolicy
}

func DefaultParams() Params {
	return Params{
		GasConsumption: DefaultGasConsumption,
		MintPolicy:     MintPermissionless,
	}
}

func (p Params) gas(n int64) coins.Coins {
	v, err := p.GasConsumption.MulInt(n)
	if err != nil {
		// GasConsumption is a small constant, n is 1 or 2.
		panic(err)
	}
	return v
}

// MintFee is what a mint keeps from the attached value.
func (p Params) MintFee() coins.Coins {
	return p.gas(2)
}

// MintedAmount returns how many tokens a mint with the given value creates.
func (p Params) MintedAmount(value coins.Coins) (coins.Coins, bool) {
	fee := p.MintFee()
	if !value.GreaterThan(fee) {
		return coins.Zero, false
	}
	amount, err := value.Sub(fee)
	return amount, err == nil
}

// TransferForwardValue is the value carried by the internal_transfer of a transfer.
// The whole attached value goes along when it exceeds the amount; otherwise the amount
// plus the processing cost of two hops is taken from the wallet reserve.
func (p Params) TransferForwardValue(msgValue, amount coins.Coins) (coins.Coins, error) {
	if msgValue.GreaterThan(amount) {
		return msgValue, nil
	}
	return amount.Add(p.gas(2))
}

// TransferRequiredReserve is the native balance a wallet needs to send outValue.
func (p Params) TransferRequiredReserve(outValue coins.Coins) (coins.Coins, error) {
	return outValue.Add(p.GasConsumption)
}

// TransferMinForwardValue is the least internal_transfer value able to pay forwardAmount on.
func (p Params) TransferMinForwardValue(forwardAmount coins.Coins) (coins.Coins, error) {
	return forwardAmount.Add(p.gas(2))
}

// ExternalTransferRequired is the least value an external_transfer must carry.
func (p Params) ExternalTransferRequired(amount, forwardAmount coins.Coins) (coins.Coins, error) {
	return coins.Sum(amount, forwardAmount, p.GasConsumption)
}

// BurnRequiredReserve is the native balance a wallet needs to unwrap amount.
func (p Params) BurnRequiredReserve(amount coins.Coins) (coins.Coins, error) {
	return amount.Add(p.gas(2))
}
