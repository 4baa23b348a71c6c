package contract

import (
	"errors"
	"fmt"

	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/ton"

	"github.com/arnac-io/wton/pkg/coins"
)

var (
	ErrUnknownCode      = errors.New("unknown contract code")
	ErrUnknownGetMethod = errors.New("unknown get method")
)

// GetContext is the read-only view of an account passed to get methods.
type GetContext struct {
	Self    ton.AccountID
	Balance coins.Coins
	Code    *boc.Cell
	Data    *boc.Cell
}

// GetMethod is a pure read over account data.
type GetMethod func(ctx GetContext, args ...any) (any, error)

// Code is a Go implementation of contract code identified by the hash of its code cell.
type Code interface {
	// Name is a human-readable name used in logs and metrics.
	Name() string
	// CodeCell is the cell deployed as the account code.
	CodeCell() *boc.Cell
	// ReceiveInternal handles one inbound internal message.
	// Returning an *ExitError aborts the compute phase, any other error is an environment failure.
	ReceiveInternal(ctx *Context, msg InternalMessage) error
	GetMethods() map[string]GetMethod
}

// Registry maps code hashes to implementations.
type Registry struct {
	codes map[ton.Bits256]Code
}

func NewRegistry(codes ...Code) (*Registry, error) {
	r := &Registry{codes: make(map[ton.Bits256]Code, len(codes))}
	for _, code := range codes {
		hash, err := code.CodeCell().Hash256()
		if err != nil {
			return nil, err
		}
		r.codes[ton.Bits256(hash)] = code
	}
	return r, nil
}

// Lookup finds the implementation of the given code cell.
func (r *Registry) Lookup(code *boc.Cell) (Code, error) {
	if code == nil {
		return nil, ErrUnknownCode
	}
	hash, err := code.Hash256()
	if err != nil {
		return nil, err
	}
	impl, ok := r.codes[ton.Bits256(hash)]
	if !ok {
		return nil, fmt.Errorf("%w: %x", ErrUnknownCode, hash)
	}
	return impl, nil
}

// RunGetMethod executes a get method by name.
func RunGetMethod(code Code, ctx GetContext, name string, args ...any) (any, error) {
	method, ok := code.GetMethods()[name]
	if !ok {
		return nil, fmt.Errorf("%w: %v.%v", ErrUnknownGetMethod, code.Name(), name)
	}
	return method(ctx, args...)
}
