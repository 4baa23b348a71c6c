package core

import (
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/ton"

	"github.com/arnac-io/wton/pkg/coins"
)

// Account holds the state of an account as seen by the settlement environment.
type Account struct {
	AccountAddress    ton.AccountID
	Status            AccountStatus
	Balance           coins.Coins
	LastTransactionLt uint64
	Code              *boc.Cell
	Data              *boc.Cell
}

// IsActive reports whether the account has code and data.
func (a Account) IsActive() bool {
	return a.Status == AccountActive && a.Code != nil && a.Data != nil
}
