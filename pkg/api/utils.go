package api

import (
	"fmt"

	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/ton"

	"github.com/arnac-io/wton/internal/g"
)

// deserializeBoc tries to deserialize boc string in base64 or hex format.
func deserializeBoc(bocStr string) ([]*boc.Cell, error) {
	cells, err := boc.DeserializeBocBase64(bocStr)
	if err != nil {
		return boc.DeserializeBocHex(bocStr)
	}
	return cells, nil
}

func deserializeSingleBoc(bocStr string) (*boc.Cell, error) {
	cells, err := deserializeBoc(bocStr)
	if err != nil {
		return nil, err
	}
	if len(cells) != 1 {
		return nil, fmt.Errorf("invalid boc roots number %v", len(cells))
	}
	return cells[0], nil
}

func parseAccountID(s string) (ton.AccountID, error) {
	account, err := ton.ParseAccountID(s)
	if err != nil {
		return ton.AccountID{}, toBadRequest(fmt.Errorf("invalid account %q: %w", s, err))
	}
	return account, nil
}

// parseOptionalAccountID returns nil for an empty string.
func parseOptionalAccountID(s string) (*ton.AccountID, error) {
	if s == "" {
		return nil, nil
	}
	account, err := parseAccountID(s)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func optionalRaw(a *ton.AccountID) *string {
	return g.NilToNil(ton.AccountID.ToRaw, a)
}
