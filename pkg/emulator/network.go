package emulator

import (
	"context"
	"hash/maphash"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go"
	"github.com/getsentry/sentry-go"
	"github.com/go-faster/errors"
	"github.com/puzpuzpuz/xsync/v2"
	"github.com/sourcegraph/conc"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/ton"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/arnac-io/wton/pkg/coins"
	"github.com/arnac-io/wton/pkg/contract"
	"github.com/arnac-io/wton/pkg/core"
	wsentry "github.com/arnac-io/wton/pkg/sentry"
)

var (
	ErrMailboxFull    = errors.New("mailbox is full")
	ErrClosed         = errors.New("network is closed")
	ErrAccountExists  = errors.New("account already exists")
	ErrAccountMissing = errors.New("account not found")
	ErrNotActive      = errors.New("account is not active")
	ErrForgedBounce   = errors.New("only the network may send bounced messages")
)

var injectedMessages, _ = otel.Meter("github.com/arnac-io/wton/pkg/emulator").Int64Counter(
	"wton_injected_messages",
	metric.WithDescription("Messages injected into the network by result"),
)

// DefaultMailboxCapacity bounds how many injected messages may wait for one account.
const DefaultMailboxCapacity = 1024

// Network runs every account as an actor with its own mailbox.
// A message is applied completely before the account takes the next one, and messages
// between any two accounts are delivered in the order they were sent.
type Network struct {
	executor *Executor
	logger   *zap.Logger
	capacity int

	accounts *xsync.MapOf[ton.AccountID, *actor]
	wg       conc.WaitGroup
	closed   atomic.Bool

	actorsMu sync.Mutex
	actors   []*actor

	mu       sync.Mutex
	inflight int
	idle     chan struct{}
}

type Option func(n *Network)

// WithMailboxCapacity limits the number of injected messages queued per account.
func WithMailboxCapacity(capacity int) Option {
	return func(n *Network) {
		n.capacity = capacity
	}
}

func NewNetwork(executor *Executor, logger *zap.Logger, opts ...Option) *Network {
	idle := make(chan struct{})
	close(idle)
	n := &Network{
		executor: executor,
		logger:   logger,
		capacity: DefaultMailboxCapacity,
		accounts: xsync.NewTypedMapOf[ton.AccountID, *actor](hashAccountID),
		idle:     idle,
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

func hashAccountID(seed maphash.Seed, s ton.AccountID) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	h.WriteString(s.String())
	return h.Sum64()
}

// run tracks the trace of one injected message.
type run struct {
	mu      sync.Mutex
	root    *core.Trace
	err     error
	pending atomic.Int64
	done    chan struct{}
}

func newRun() *run {
	r := &run{done: make(chan struct{})}
	r.pending.Store(1)
	return r
}

func (r *run) attach(parent, node *core.Trace) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if parent == nil {
		r.root = node
		return
	}
	parent.Children = append(parent.Children, node)
}

func (r *run) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = multierr.Append(r.err, err)
}

func (r *run) finish() {
	if r.pending.Add(-1) == 0 {
		close(r.done)
	}
}

func (r *run) result() (*core.Trace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.root, r.err
}

// Deploy puts an account into the network, typically at genesis.
func (n *Network) Deploy(account core.Account) error {
	if n.closed.Load() {
		return ErrClosed
	}
	if account.Status == "" {
		account.Status = core.AccountActive
	}
	_, loaded := n.accounts.LoadOrCompute(account.AccountAddress, func() *actor {
		return n.spawn(account)
	})
	if loaded {
		return errors.Wrap(ErrAccountExists, account.AccountAddress.ToRaw())
	}
	return nil
}

// DeployContract deploys code with data at the address derived from their StateInit.
func (n *Network) DeployContract(workchain int32, code contract.Code, data *boc.Cell, balance coins.Coins) (ton.AccountID, error) {
	init := contract.NewStateInit(code.CodeCell(), data)
	address, err := contract.AddressOf(workchain, init)
	if err != nil {
		return ton.AccountID{}, err
	}
	return address, n.Deploy(core.Account{
		AccountAddress: address,
		Status:         core.AccountActive,
		Balance:        balance,
		Code:           code.CodeCell(),
		Data:           data,
	})
}

func (n *Network) spawn(state core.Account) *actor {
	a := &actor{address: state.AccountAddress, mailbox: newMailbox(), state: state}
	n.actorsMu.Lock()
	defer n.actorsMu.Unlock()
	if n.closed.Load() {
		a.mailbox.close()
		return a
	}
	n.actors = append(n.actors, a)
	n.wg.Go(func() {
		n.loop(a)
	})
	return a
}

func (n *Network) actorFor(address ton.AccountID) *actor {
	a, _ := n.accounts.LoadOrCompute(address, func() *actor {
		return n.spawn(core.Account{AccountAddress: address, Status: core.AccountNonexist})
	})
	return a
}

func (n *Network) loop(a *actor) {
	for {
		env, ok := a.mailbox.pop()
		if !ok {
			return
		}
		n.process(a, env)
	}
}

func (n *Network) process(a *actor, env envelope) {
	defer n.done()
	defer env.run.finish()

	a.mu.RLock()
	state := a.state
	a.mu.RUnlock()

	tx, next, err := n.executor.Execute(context.Background(), state, env.msg)
	if err != nil {
		n.logger.Error("failed to execute message",
			zap.String("account", a.address.ToRaw()),
			zap.String("message", env.msg.MessageID.String()),
			zap.Error(err))
		wsentry.Send("failed to execute message", wsentry.SentryInfoData{
			"account": a.address.ToRaw(),
			"message": env.msg.MessageID.String(),
			"error":   err.Error(),
		}, sentry.LevelError)
		a.mu.Lock()
		a.err = multierr.Append(a.err, err)
		a.mu.Unlock()
		env.run.fail(err)
		return
	}
	a.mu.Lock()
	a.state = next
	a.mu.Unlock()

	node := &core.Trace{Transaction: tx}
	env.run.attach(env.parent, node)
	for _, out := range tx.OutMsgs {
		env.run.pending.Add(1)
		n.begin()
		if err := n.actorFor(*out.Destination).mailbox.push(envelope{msg: out, parent: node, run: env.run}, 0); err != nil {
			// Only a closed network refuses internal messages.
			n.done()
			env.run.finish()
		}
	}
}

func (n *Network) begin() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.inflight == 0 {
		n.idle = make(chan struct{})
	}
	n.inflight++
}

func (n *Network) done() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.inflight--
	if n.inflight == 0 {
		close(n.idle)
	}
}

func injectResult(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, ErrMailboxFull):
		return "mailbox_full"
	case errors.Is(err, ErrForgedBounce):
		return "forged_bounce"
	case errors.Is(err, ErrClosed):
		return "closed"
	}
	return "invalid"
}

func (n *Network) inject(msg core.Message) (r *run, err error) {
	defer func() {
		injectedMessages.Add(context.Background(), 1, metric.WithAttributes(attribute.String("result", injectResult(err))))
	}()
	if n.closed.Load() {
		return nil, ErrClosed
	}
	if msg.Destination == nil {
		return nil, errors.New("message without destination")
	}
	if msg.Bounced {
		return nil, ErrForgedBounce
	}
	if msg.OpCode == nil {
		msg.OpCode = core.ReadOpCode(msg.Body)
	}
	r = newRun()
	n.begin()
	if err := n.actorFor(*msg.Destination).mailbox.push(envelope{msg: msg, run: r}, n.capacity); err != nil {
		n.done()
		return nil, err
	}
	return r, nil
}

// Send injects a message without waiting for it to be processed.
// It fails with ErrMailboxFull when the destination has too many injected messages queued.
func (n *Network) Send(msg core.Message) error {
	_, err := n.inject(msg)
	return err
}

// SendWithRetry is Send retried while the destination mailbox is full.
func (n *Network) SendWithRetry(ctx context.Context, msg core.Message) error {
	return retry.Do(func() error {
		return n.Send(msg)
	},
		retry.Context(ctx),
		retry.Attempts(10),
		retry.Delay(10*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, ErrMailboxFull)
		}))
}

// Execute injects a message and waits for the whole trace it causes.
func (n *Network) Execute(ctx context.Context, msg core.Message) (*core.Trace, error) {
	r, err := n.inject(msg)
	if err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.done:
	}
	return r.result()
}

// Wait blocks until no message is in flight.
func (n *Network) Wait(ctx context.Context) error {
	n.mu.Lock()
	idle := n.idle
	n.mu.Unlock()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-idle:
		return nil
	}
}

// Account returns the current state of an account.
func (n *Network) Account(address ton.AccountID) (core.Account, bool) {
	a, ok := n.accounts.Load(address)
	if !ok {
		return core.Account{}, false
	}
	return a.snapshot(), true
}

// Accounts returns the addresses of all known accounts in a stable order.
func (n *Network) Accounts() []ton.AccountID {
	known := map[ton.AccountID]struct{}{}
	n.accounts.Range(func(key ton.AccountID, _ *actor) bool {
		known[key] = struct{}{}
		return true
	})
	addresses := maps.Keys(known)
	slices.SortFunc(addresses, func(a, b ton.AccountID) int {
		if a.Workchain != b.Workchain {
			return int(a.Workchain - b.Workchain)
		}
		return slices.Compare(a.Address[:], b.Address[:])
	})
	return addresses
}

// RunGetMethod runs a get method against a snapshot of an active account.
func (n *Network) RunGetMethod(ctx context.Context, address ton.AccountID, method string, args ...any) (any, error) {
	state, ok := n.Account(address)
	if !ok {
		return nil, errors.Wrap(ErrAccountMissing, address.ToRaw())
	}
	if !state.IsActive() {
		return nil, errors.Wrap(ErrNotActive, address.ToRaw())
	}
	getCtx, err := n.getContext(state)
	if err != nil {
		return nil, err
	}
	code, err := n.executor.Registry().Lookup(state.Code)
	if err != nil {
		return nil, err
	}
	return contract.RunGetMethod(code, getCtx, method, args...)
}

// GetContext returns a private copy of the account state for get methods.
func (n *Network) GetContext(address ton.AccountID) (contract.Code, contract.GetContext, error) {
	state, ok := n.Account(address)
	if !ok {
		return nil, contract.GetContext{}, errors.Wrap(ErrAccountMissing, address.ToRaw())
	}
	if !state.IsActive() {
		return nil, contract.GetContext{}, errors.Wrap(ErrNotActive, address.ToRaw())
	}
	code, err := n.executor.Registry().Lookup(state.Code)
	if err != nil {
		return nil, contract.GetContext{}, err
	}
	getCtx, err := n.getContext(state)
	return code, getCtx, err
}

func (n *Network) getContext(state core.Account) (contract.GetContext, error) {
	code, err := core.CloneCell(state.Code)
	if err != nil {
		return contract.GetContext{}, err
	}
	data, err := core.CloneCell(state.Data)
	if err != nil {
		return contract.GetContext{}, err
	}
	return contract.GetContext{
		Self:    state.AccountAddress,
		Balance: state.Balance,
		Code:    code,
		Data:    data,
	}, nil
}

// Close stops all actors. Messages still queued are dropped.
// The returned error combines every environment failure seen by the actors.
func (n *Network) Close() error {
	n.actorsMu.Lock()
	if n.closed.Swap(true) {
		n.actorsMu.Unlock()
		return nil
	}
	actors := n.actors
	n.actorsMu.Unlock()
	for _, a := range actors {
		for _, env := range a.mailbox.close() {
			n.done()
			env.run.finish()
		}
	}
	n.wg.Wait()
	var err error
	for _, a := range actors {
		a.mu.RLock()
		err = multierr.Append(err, a.err)
		a.mu.RUnlock()
	}
	return err
}
