package wton

import (
	"github.com/go-faster/errors"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tep64"

	"github.com/arnac-io/wton/pkg/core"
)

const (
	offchainContentPrefix = 0x01
	// a cell holds 1023 bits, the snake chain uses whole bytes.
	snakeCellBytes = 127
)

// OffchainContent builds jetton metadata pointing to uri, laid out as snake data.
func OffchainContent(uri string) (*boc.Cell, error) {
	data := append([]byte{offchainContentPrefix}, uri...)
	root := boc.NewCell()
	current := root
	for len(data) > 0 {
		n := min(len(data), snakeCellBytes)
		if err := current.WriteBytes(data[:n]); err != nil {
			return nil, errors.Wrap(err, "write content")
		}
		data = data[n:]
		if len(data) == 0 {
			break
		}
		next := boc.NewCell()
		if err := current.AddRef(next); err != nil {
			return nil, errors.Wrap(err, "chain content")
		}
		current = next
	}
	return root, nil
}

// ContentURI returns the uri of offchain metadata, or an empty string for onchain layouts.
func ContentURI(content *boc.Cell) (string, error) {
	if content == nil || content.BitSize() == 0 {
		return "", nil
	}
	c, err := core.CloneCell(content)
	if err != nil {
		return "", err
	}
	full, err := tep64.DecodeFullContentFromCell(c)
	if err != nil {
		return "", errors.Wrap(err, "decode content")
	}
	if full.Layout != tep64.OffChain {
		return "", nil
	}
	return string(full.Data), nil
}
