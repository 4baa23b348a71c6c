package api

import (
	"context"

	"github.com/tonkeeper/tongo/ton"

	"github.com/arnac-io/wton/pkg/contract"
	"github.com/arnac-io/wton/pkg/core"
)

// network is the settlement environment the API reads from and injects into.
type network interface {
	Execute(ctx context.Context, msg core.Message) (*core.Trace, error)
	SendWithRetry(ctx context.Context, msg core.Message) error
	Account(address ton.AccountID) (core.Account, bool)
	Accounts() []ton.AccountID
	GetContext(address ton.AccountID) (contract.Code, contract.GetContext, error)
}
