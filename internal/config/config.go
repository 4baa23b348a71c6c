package config

import (
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/tonkeeper/tongo/ton"

	"github.com/arnac-io/wton/pkg/coins"
	"github.com/arnac-io/wton/pkg/emulator"
	"github.com/arnac-io/wton/pkg/wton"
)

type Config struct {
	API struct {
		Port int `env:"PORT" envDefault:"8081"`
		// WriteRateLimit caps POST requests per WriteRateWindow, zero disables it.
		WriteRateLimit  uint64        `env:"WRITE_RATE_LIMIT" envDefault:"0"`
		WriteRateWindow time.Duration `env:"WRITE_RATE_WINDOW" envDefault:"1s"`
	}
	App struct {
		LogLevel    string `env:"LOG_LEVEL" envDefault:"INFO"`
		MetricsPort int    `env:"METRICS_PORT" envDefault:"9010"`
		// GenesisPath points to a yaml file with the initial accounts.
		GenesisPath string `env:"GENESIS_PATH"`
		// Accounts are owners funded at startup when no genesis file is given.
		Accounts       accountsList `env:"ACCOUNTS"`
		AccountBalance coins.Coins  `env:"ACCOUNT_BALANCE" envDefault:"100"`
	}
	Wton struct {
		GasConsumption coins.Coins     `env:"GAS_CONSUMPTION" envDefault:"0.013"`
		MintPolicy     wton.MintPolicy `env:"MINT_POLICY" envDefault:"permissionless"`
	}
	Emulator struct {
		Workchain       int32  `env:"WORKCHAIN" envDefault:"0"`
		GasPrice        uint64 `env:"GAS_PRICE" envDefault:"400"`
		MaxGas          uint64 `env:"MAX_GAS" envDefault:"1000000"`
		FwdLumpPrice    uint64 `env:"FWD_LUMP_PRICE" envDefault:"400000"`
		FwdBitPrice     uint64 `env:"FWD_BIT_PRICE" envDefault:"400"`
		FwdCellPrice    uint64 `env:"FWD_CELL_PRICE" envDefault:"40000"`
		MailboxCapacity int    `env:"MAILBOX_CAPACITY" envDefault:"1024"`
	}
}

type accountsList []ton.AccountID

// Params returns the protocol constants for the minter and wallets.
func (c Config) Params() wton.Params {
	return wton.Params{
		GasConsumption: c.Wton.GasConsumption,
		MintPolicy:     c.Wton.MintPolicy,
	}
}

// Prices returns the settlement environment prices.
func (c Config) Prices() emulator.Config {
	return emulator.Config{
		GasPrice:     c.Emulator.GasPrice,
		MaxGas:       c.Emulator.MaxGas,
		FwdLumpPrice: c.Emulator.FwdLumpPrice,
		FwdBitPrice:  c.Emulator.FwdBitPrice,
		FwdCellPrice: c.Emulator.FwdCellPrice,
	}
}

var parsers = map[reflect.Type]env.ParserFunc{
	reflect.TypeOf(accountsList{}): func(v string) (interface{}, error) {
		var accs accountsList
		for _, s := range strings.Split(v, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			a, err := ton.ParseAccountID(s)
			if err != nil {
				return nil, err
			}
			accs = append(accs, a)
		}
		return accs, nil
	},
	reflect.TypeOf(wton.MintPolicy(0)): func(v string) (interface{}, error) {
		return wton.ParseMintPolicy(v)
	},
}

// Parse reads the configuration from the environment.
func Parse() (Config, error) {
	var c Config
	if err := env.ParseWithFuncs(&c, parsers); err != nil {
		return Config{}, err
	}
	return c, nil
}

func Load() Config {
	c, err := Parse()
	if err != nil {
		log.Panicf("[‼️  Config parsing failed] %+v\n", err)
	}
	return c
}
