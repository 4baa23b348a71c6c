package contract

import (
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"

	"github.com/arnac-io/wton/pkg/coins"
)

// InternalMessage is the inbound message a handler is invoked with.
// Body is a private copy owned by the handler.
type InternalMessage struct {
	Source  ton.AccountID
	Value   coins.Coins
	Bounce  bool
	Bounced bool
	Body    *boc.Cell
}

// Prices are the fees the environment charges a transaction.
type Prices interface {
	GasFee(gasUsed uint64) coins.Coins
	ForwardFee(body *boc.Cell, init *tlb.StateInit) (coins.Coins, error)
}

// Context is the view of the account a handler runs against.
// Handlers mutate nothing but the Context: new data and actions are only committed
// by the environment when the whole transaction succeeds.
type Context struct {
	Self ton.AccountID
	// Balance includes the value of the inbound message.
	Balance coins.Coins
	Lt      uint64
	Code    *boc.Cell
	Data    *boc.Cell

	gasLimit uint64
	gasUsed  uint64
	prices   Prices
	newData  *boc.Cell
	actions  []SendAction
}

func NewContext(self ton.AccountID, balance coins.Coins, lt uint64, code, data *boc.Cell, gasLimit uint64) *Context {
	return &Context{
		Self:     self,
		Balance:  balance,
		Lt:       lt,
		Code:     code,
		Data:     data,
		gasLimit: gasLimit,
	}
}

// WithPrices lets handlers see what their gas and outgoing messages cost.
func (c *Context) WithPrices(prices Prices) *Context {
	c.prices = prices
	return c
}

// GasFee is the price of the gas used so far. It is zero when no prices are set.
func (c *Context) GasFee() coins.Coins {
	if c.prices == nil {
		return coins.Zero
	}
	return c.prices.GasFee(c.gasUsed)
}

// ForwardFee is the price of sending msg. It is zero when no prices are set.
func (c *Context) ForwardFee(msg OutMessage) (coins.Coins, error) {
	if c.prices == nil {
		return coins.Zero, nil
	}
	return c.prices.ForwardFee(msg.Body, msg.Init)
}

// ConsumeGas charges gas units and fails with ExitOutOfGas once the limit is exceeded.
func (c *Context) ConsumeGas(units uint64) error {
	c.gasUsed += units
	if c.gasUsed > c.gasLimit {
		c.gasUsed = c.gasLimit
		return Throw(ExitOutOfGas)
	}
	return nil
}

func (c *Context) GasUsed() uint64 {
	return c.gasUsed
}

func (c *Context) GasLimit() uint64 {
	return c.gasLimit
}

// SetData replaces the persistent data of the account.
func (c *Context) SetData(data *boc.Cell) {
	c.newData = data
}

// NewData returns the data set by the handler, or nil if it was left untouched.
func (c *Context) NewData() *boc.Cell {
	return c.newData
}

// Send queues an outgoing message.
func (c *Context) Send(mode SendMode, msg OutMessage) {
	c.actions = append(c.actions, SendAction{Mode: mode, Message: msg})
}

func (c *Context) Actions() []SendAction {
	return c.actions
}
