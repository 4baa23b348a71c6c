package genesis

import (
	"os"

	"github.com/go-faster/errors"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/arnac-io/wton/pkg/coins"
	"github.com/arnac-io/wton/pkg/contract"
	"github.com/arnac-io/wton/pkg/core"
	"github.com/arnac-io/wton/pkg/emulator"
	"github.com/arnac-io/wton/pkg/wton"
)

// File describes the accounts a network starts with.
type File struct {
	Workchain int32    `yaml:"workchain"`
	Minter    Minter   `yaml:"minter"`
	Wallets   []Wallet `yaml:"wallets"`
}

type Minter struct {
	// Admin is a raw or user-friendly address, empty for a minter without admin.
	Admin      string      `yaml:"admin"`
	ContentURI string      `yaml:"content_uri"`
	Balance    coins.Coins `yaml:"balance"`
}

type Wallet struct {
	Owner string `yaml:"owner"`
	// Balance is the amount of wrapped coins held.
	Balance coins.Coins `yaml:"balance"`
	// Ton is the native balance of the wallet account, defaults to Balance.
	Ton *coins.Coins `yaml:"ton"`
}

// State is the result of applying a genesis file.
type State struct {
	Minter  ton.AccountID
	Wallets map[ton.AccountID]ton.AccountID
	Supply  coins.Coins
}

// Load reads and validates a genesis file.
func Load(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, errors.Wrap(err, "read genesis")
	}
	return Parse(raw)
}

func Parse(raw []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return File{}, errors.Wrap(err, "decode genesis")
	}
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// FromAccounts funds every owner with the same amount of wrapped coins.
func FromAccounts(owners []ton.AccountID, balance coins.Coins) File {
	f := File{}
	for _, owner := range owners {
		f.Wallets = append(f.Wallets, Wallet{Owner: owner.ToRaw(), Balance: balance})
	}
	return f
}

// Validate reports every problem of the file at once.
func (f File) Validate() error {
	var err error
	if f.Minter.Admin != "" {
		if _, e := ton.ParseAccountID(f.Minter.Admin); e != nil {
			err = multierr.Append(err, errors.Wrapf(e, "minter admin %q", f.Minter.Admin))
		}
	}
	seen := map[ton.AccountID]struct{}{}
	for i, w := range f.Wallets {
		owner, e := ton.ParseAccountID(w.Owner)
		if e != nil {
			err = multierr.Append(err, errors.Wrapf(e, "wallet %d: owner %q", i, w.Owner))
			continue
		}
		if _, ok := seen[owner]; ok {
			err = multierr.Append(err, errors.Errorf("wallet %d: duplicate owner %s", i, owner.ToRaw()))
		}
		seen[owner] = struct{}{}
		if w.Ton != nil && w.Ton.LessThan(w.Balance) {
			err = multierr.Append(err, errors.Errorf("wallet %d: ton %s does not back balance %s", i, w.Ton, w.Balance))
		}
	}
	return err
}

// Apply deploys the minter and the wallets into the network.
// The minter lives at the address of its zero-supply StateInit and wallets at their derived addresses.
func (f File) Apply(n *emulator.Network) (State, error) {
	if err := f.Validate(); err != nil {
		return State{}, err
	}
	var admin *ton.AccountID
	if f.Minter.Admin != "" {
		a := ton.MustParseAccountID(f.Minter.Admin)
		admin = &a
	}
	content := boc.NewCell()
	if f.Minter.ContentURI != "" {
		c, err := wton.OffchainContent(f.Minter.ContentURI)
		if err != nil {
			return State{}, err
		}
		content = c
	}
	init, err := wton.MinterStateInit(admin, content)
	if err != nil {
		return State{}, err
	}
	minter, err := contract.AddressOf(f.Workchain, init)
	if err != nil {
		return State{}, err
	}

	state := State{Minter: minter, Wallets: map[ton.AccountID]ton.AccountID{}}
	var wallets []core.Account
	for _, w := range f.Wallets {
		owner := ton.MustParseAccountID(w.Owner)
		address, err := wton.WalletAddress(minter, owner, wton.WalletCode())
		if err != nil {
			return State{}, err
		}
		data, err := wton.WalletData{
			Balance:    w.Balance,
			Owner:      owner,
			Minter:     minter,
			WalletCode: wton.WalletCode(),
		}.Cell()
		if err != nil {
			return State{}, err
		}
		native := w.Balance
		if w.Ton != nil {
			native = *w.Ton
		}
		wallets = append(wallets, core.Account{
			AccountAddress: address,
			Status:         core.AccountActive,
			Balance:        native,
			Code:           wton.WalletCode(),
			Data:           data,
		})
		state.Wallets[owner] = address
		if state.Supply, err = state.Supply.Add(w.Balance); err != nil {
			return State{}, err
		}
	}

	data, err := wton.MinterData{
		TotalSupply: state.Supply,
		Admin:       admin,
		Content:     content,
		WalletCode:  wton.WalletCode(),
	}.Cell()
	if err != nil {
		return State{}, err
	}
	err = n.Deploy(core.Account{
		AccountAddress: minter,
		Status:         core.AccountActive,
		Balance:        f.Minter.Balance,
		Code:           wton.MinterCode(),
		Data:           data,
	})
	for _, w := range wallets {
		err = multierr.Append(err, n.Deploy(w))
	}
	if err != nil {
		return State{}, err
	}
	return state, nil
}
