package api

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/go-faster/errors"
	"github.com/tonkeeper/tongo/ton"

	"github.com/arnac-io/wton/pkg/contract"
	"github.com/arnac-io/wton/pkg/emulator"
)

// getMethodCacheKey identifies a get method call on a particular state of an account.
func getMethodCacheKey(accountID ton.AccountID, methodName string, lt uint64, args []string) (string, error) {
	d := xxhash.New()
	var x [8]byte
	binary.LittleEndian.PutUint64(x[:], lt)
	if _, err := d.Write(x[:]); err != nil {
		return "", err
	}
	if _, err := d.WriteString(methodName); err != nil {
		return "", err
	}
	for _, arg := range args {
		if _, err := d.WriteString(arg + "|"); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%s-%d", accountID.ToRaw(), d.Sum64()), nil
}

// runGetMethod runs a get method once per account state, later calls are served from the cache.
func runGetMethod[T any](h *Handler, account ton.AccountID, method string, args []string, run func(contract.Code, contract.GetContext) (T, error)) (T, error) {
	var zero T
	state, ok := h.network.Account(account)
	if !ok {
		return zero, errors.Wrap(emulator.ErrAccountMissing, account.ToRaw())
	}
	key, err := getMethodCacheKey(account, method, state.LastTransactionLt, args)
	if err != nil {
		return zero, err
	}
	v, err := h.getMethods.GetOrCompute(key, func() (any, error) {
		code, ctx, err := h.network.GetContext(account)
		if err != nil {
			return nil, err
		}
		return run(code, ctx)
	})
	if err != nil {
		return zero, err
	}
	res, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("get method %v returned %T", method, v)
	}
	return res, nil
}
