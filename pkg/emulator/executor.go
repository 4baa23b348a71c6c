package emulator

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tonkeeper/tongo/boc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/arnac-io/wton/pkg/coins"
	"github.com/arnac-io/wton/pkg/contract"
	"github.com/arnac-io/wton/pkg/core"
)

// ResultNotEnoughFunds is the action phase result code when a message cannot be paid for.
const ResultNotEnoughFunds int32 = 37

// bounceBodyBits is how much of the original body a bounced message keeps.
const bounceBodyBits = 256

var (
	ErrNoSource = errors.New("message without source")

	transactionsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wton_transactions_total",
			Help: "Executed transactions by contract, operation and result",
		},
		[]string{"contract", "op", "result"},
	)
	exitCodesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wton_compute_exit_codes_total",
			Help: "Non-zero compute phase exit codes",
		},
		[]string{"contract", "code"},
	)
	executionTimeHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wton_transaction_execution_seconds",
			Help:    "Transaction execution duration distribution in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)
)

// Executor applies one inbound message to one account.
// It holds no account state, so a single Executor may be shared by many goroutines.
type Executor struct {
	registry *contract.Registry
	config   Config
	logger   *zap.Logger
	tracer   trace.Tracer
	opName   func(uint32) string
}

type ExecutorOption func(e *Executor)

// WithOpNames sets the function naming op codes in logs and metrics.
func WithOpNames(fn func(uint32) string) ExecutorOption {
	return func(e *Executor) {
		e.opName = fn
	}
}

func NewExecutor(registry *contract.Registry, config Config, logger *zap.Logger, opts ...ExecutorOption) (*Executor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	e := &Executor{
		registry: registry,
		config:   config,
		logger:   logger,
		tracer:   otel.Tracer("github.com/arnac-io/wton/pkg/emulator"),
		opName: func(op uint32) string {
			return fmt.Sprintf("0x%08x", op)
		},
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

func (e *Executor) Config() Config {
	return e.config
}

func (e *Executor) Registry() *contract.Registry {
	return e.registry
}

// Execute runs the credit, compute, action and bounce phases and returns the transaction
// together with the new state of the account.
// A non-nil error means the environment itself failed and the account must be left as is.
func (e *Executor) Execute(ctx context.Context, account core.Account, msg core.Message) (core.Transaction, core.Account, error) {
	if msg.Source == nil {
		return core.Transaction{}, account, ErrNoSource
	}
	_, span := e.tracer.Start(ctx, "Execute", trace.WithAttributes(
		attribute.String("account", account.AccountAddress.ToRaw()),
		attribute.String("message", msg.MessageID.String()),
	))
	defer span.End()
	start := time.Now()
	defer func() {
		executionTimeHistogram.Observe(time.Since(start).Seconds())
	}()

	tx, state, err := e.execute(account, msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return core.Transaction{}, account, err
	}
	span.SetAttributes(
		attribute.Int64("lt", int64(tx.Lt)),
		attribute.Bool("success", tx.Success),
		attribute.Int("exit_code", int(tx.ComputeExitCode())),
	)
	e.observe(state, msg, tx)
	return tx, state, nil
}

type execution struct {
	state   core.Account
	msg     core.Message
	lt      uint64
	balance coins.Coins
	tx      core.Transaction
	fees    coins.Coins
}

func (e *Executor) execute(account core.Account, msg core.Message) (core.Transaction, core.Account, error) {
	lt := account.LastTransactionLt
	if msg.CreatedLt > lt {
		lt = msg.CreatedLt
	}
	lt++
	ex := &execution{
		state: account,
		msg:   msg,
		lt:    lt,
		tx: core.Transaction{
			TransactionID: core.TransactionID{Lt: lt, Account: account.AccountAddress},
			InMsg:         &msg,
			OrigStatus:    account.Status,
		},
	}
	if ex.state.Status == "" {
		ex.state.Status = core.AccountNonexist
		ex.tx.OrigStatus = core.AccountNonexist
	}

	// credit
	balance, err := account.Balance.Add(msg.Value)
	if err != nil {
		return core.Transaction{}, account, errors.Wrap(err, "credit")
	}
	ex.balance = balance
	if ex.state.Status == core.AccountNonexist {
		ex.state.Status = core.AccountUninit
	}
	if err := e.deploy(ex); err != nil {
		return core.Transaction{}, account, err
	}

	cctx, err := e.compute(ex)
	if err != nil {
		return core.Transaction{}, account, err
	}
	compute := ex.tx.ComputePhase
	success := !compute.Skipped && compute.Success
	if success {
		success, err = e.action(ex, cctx)
		if err != nil {
			return core.Transaction{}, account, err
		}
	}
	if success {
		if data := cctx.NewData(); data != nil {
			ex.state.Data = data
		}
	} else {
		if err := e.bounce(ex); err != nil {
			return core.Transaction{}, account, err
		}
	}

	ex.tx.Success = success
	ex.tx.Aborted = !success
	ex.tx.EndStatus = ex.state.Status
	ex.tx.EndBalance = ex.balance
	ex.tx.TotalFee = ex.fees
	ex.state.Balance = ex.balance
	ex.state.LastTransactionLt = lt + uint64(len(ex.tx.OutMsgs))
	return ex.tx, ex.state, nil
}

// deploy activates an account whose inbound message carries a StateInit hashing to its address.
func (e *Executor) deploy(ex *execution) error {
	init := ex.msg.Init
	if ex.state.IsActive() || init == nil || !init.Code.Exists || !init.Data.Exists {
		return nil
	}
	hash, err := contract.StateInitHash(*init)
	if err != nil {
		return err
	}
	if hash != ex.state.AccountAddress.Address {
		e.logger.Debug("state init does not match the address",
			zap.String("account", ex.state.AccountAddress.ToRaw()))
		return nil
	}
	code := init.Code.Value.Value
	data := init.Data.Value.Value
	if ex.state.Code, err = core.CloneCell(&code); err != nil {
		return err
	}
	if ex.state.Data, err = core.CloneCell(&data); err != nil {
		return err
	}
	ex.state.Status = core.AccountActive
	return nil
}

func (e *Executor) compute(ex *execution) (cctx *contract.Context, err error) {
	phase := &core.TxComputePhase{}
	ex.tx.ComputePhase = phase
	if !ex.state.IsActive() {
		phase.Skipped = true
		phase.SkipReason = core.ComputeSkipNoState
		return nil, nil
	}
	gasLimit := e.config.GasLimit(ex.msg.Value, ex.balance)
	if gasLimit == 0 {
		phase.Skipped = true
		phase.SkipReason = core.ComputeSkipNoGas
		return nil, nil
	}
	code, err := e.registry.Lookup(ex.state.Code)
	if err != nil {
		return nil, errors.Wrap(err, "lookup code")
	}
	data, err := core.CloneCell(ex.state.Data)
	if err != nil {
		return nil, errors.Wrap(err, "clone data")
	}
	var body *boc.Cell
	if ex.msg.Body != nil {
		if body, err = ex.msg.BodyCell(); err != nil {
			return nil, errors.Wrap(err, "clone body")
		}
	}
	cctx = contract.NewContext(ex.state.AccountAddress, ex.balance, ex.lt, ex.state.Code, data, gasLimit).WithPrices(e.config)
	handlerErr := receive(code, cctx, contract.InternalMessage{
		Source:  *ex.msg.Source,
		Value:   ex.msg.Value,
		Bounce:  ex.msg.Bounce,
		Bounced: ex.msg.Bounced,
		Body:    body,
	})
	exitCode, isExit := contract.ExitCodeOf(handlerErr)
	if handlerErr != nil && !isExit {
		return nil, errors.Wrapf(handlerErr, "%v", code.Name())
	}

	phase.GasLimit = gasLimit
	phase.GasUsed = cctx.GasUsed()
	phase.GasFees = coins.Min(e.config.GasFee(phase.GasUsed), ex.balance)
	phase.Success = handlerErr == nil
	phase.ExitCode = int32(exitCode)
	if ex.balance, err = ex.balance.Sub(phase.GasFees); err != nil {
		return nil, err
	}
	if ex.fees, err = ex.fees.Add(phase.GasFees); err != nil {
		return nil, err
	}
	return cctx, nil
}

// receive turns a panicking handler into an environment error.
func receive(code contract.Code, ctx *contract.Context, msg contract.InternalMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %v: %v", code.Name(), r)
		}
	}()
	return code.ReceiveInternal(ctx, msg)
}

// action sends the messages queued by the compute phase. Nothing is committed unless all of them
// are either sent or skipped with SendModeIgnoreErrors.
func (e *Executor) action(ex *execution, cctx *contract.Context) (bool, error) {
	actions := cctx.Actions()
	phase := &core.TxActionPhase{TotalActions: uint16(len(actions))}
	ex.tx.ActionPhase = phase

	balance := ex.balance
	remainingIncoming, err := ex.msg.Value.Sub(ex.tx.ComputePhase.GasFees)
	if err != nil {
		remainingIncoming = coins.Zero
	}
	fwdFees := coins.Zero
	self := ex.state.AccountAddress
	var out []core.Message
	for _, a := range actions {
		m := a.Message
		value := m.Value
		switch {
		case a.Mode.Has(contract.SendModeCarryAllRemainingBalance):
			value = balance
		case a.Mode.Has(contract.SendModeCarryAllRemainingIncomingValue):
			if value, err = value.Add(remainingIncoming); err != nil {
				return false, err
			}
		}
		fwd, err := e.config.ForwardFee(m.Body, m.Init)
		if err != nil {
			return false, err
		}
		sent, cost := value, value
		affordable := true
		if a.Mode.Has(contract.SendModePayFeesSeparately) && !a.Mode.Has(contract.SendModeCarryAllRemainingBalance) {
			if cost, err = value.Add(fwd); err != nil {
				return false, err
			}
		} else if sent, err = value.Sub(fwd); err != nil {
			affordable = false
		}
		if !affordable || balance.LessThan(cost) {
			if a.Mode.Has(contract.SendModeIgnoreErrors) {
				phase.SkippedActions++
				continue
			}
			phase.ResultCode = ResultNotEnoughFunds
			return false, nil
		}
		if balance, err = balance.Sub(cost); err != nil {
			return false, err
		}
		if a.Mode.Has(contract.SendModeCarryAllRemainingIncomingValue) {
			remainingIncoming = coins.Zero
		}
		if fwdFees, err = fwdFees.Add(fwd); err != nil {
			return false, err
		}
		source, destination := self, m.Destination
		out = append(out, core.Message{
			MessageID: core.MessageID{
				CreatedLt:   ex.lt + uint64(len(out)) + 1,
				Source:      &source,
				Destination: &destination,
			},
			Bounce: m.Bounce,
			Value:  sent,
			FwdFee: fwd,
			Init:   m.Init,
			Body:   m.Body,
			OpCode: core.ReadOpCode(m.Body),
		})
	}
	phase.Success = true
	phase.FwdFees = fwdFees
	ex.balance = balance
	ex.tx.OutMsgs = out
	if ex.fees, err = ex.fees.Add(fwdFees); err != nil {
		return false, err
	}
	return true, nil
}

// bounce returns what is left of the inbound value to its sender.
func (e *Executor) bounce(ex *execution) error {
	msg := ex.msg
	if !msg.Bounce || msg.Bounced {
		return nil
	}
	phase := &core.TxBouncePhase{Type: core.BounceNoFunds}
	ex.tx.BouncePhase = phase

	remaining, err := msg.Value.Sub(ex.tx.ComputePhase.GasFees)
	if err != nil {
		return nil
	}
	remaining = coins.Min(remaining, ex.balance)
	body, err := bounceBody(msg.Body)
	if err != nil {
		return errors.Wrap(err, "bounce body")
	}
	fwd, err := e.config.ForwardFee(body, nil)
	if err != nil {
		return err
	}
	if !remaining.GreaterThan(fwd) {
		return nil
	}
	sent, err := remaining.Sub(fwd)
	if err != nil {
		return err
	}
	if ex.balance, err = ex.balance.Sub(remaining); err != nil {
		return err
	}
	if ex.fees, err = ex.fees.Add(fwd); err != nil {
		return err
	}
	source, destination := ex.state.AccountAddress, *msg.Source
	ex.tx.OutMsgs = []core.Message{{
		MessageID: core.MessageID{
			CreatedLt:   ex.lt + 1,
			Source:      &source,
			Destination: &destination,
		},
		Bounced: true,
		Value:   sent,
		FwdFee:  fwd,
		Body:    body,
		OpCode:  core.ReadOpCode(body),
	}}
	phase.Type = core.BounceOk
	return nil
}

// bounceBody is 0xffffffff followed by the first 256 bits of the original body.
func bounceBody(original *boc.Cell) (*boc.Cell, error) {
	c := boc.NewCell()
	if err := c.WriteUint(0xffffffff, 32); err != nil {
		return nil, err
	}
	if original == nil {
		return c, nil
	}
	src, err := core.CloneCell(original)
	if err != nil {
		return nil, err
	}
	n := src.BitsAvailableForRead()
	if n > bounceBodyBits {
		n = bounceBodyBits
	}
	for n > 0 {
		chunk := n
		if chunk > 64 {
			chunk = 64
		}
		v, err := src.ReadUint(chunk)
		if err != nil {
			return nil, err
		}
		if err := c.WriteUint(v, chunk); err != nil {
			return nil, err
		}
		n -= chunk
	}
	return c, nil
}

func (e *Executor) observe(state core.Account, msg core.Message, tx core.Transaction) {
	name := "none"
	if state.IsActive() {
		if code, err := e.registry.Lookup(state.Code); err == nil {
			name = code.Name()
		}
	}
	op := "none"
	if msg.Bounced {
		op = "bounced"
	} else if msg.OpCode != nil {
		op = e.opName(*msg.OpCode)
	}
	result := "success"
	switch {
	case tx.ComputePhase != nil && tx.ComputePhase.Skipped:
		result = "skipped_" + string(tx.ComputePhase.SkipReason)
	case tx.ComputeFailed():
		result = "compute_failed"
		exitCodesCounter.WithLabelValues(name, strconv.Itoa(int(tx.ComputeExitCode()))).Inc()
	case tx.ActionFailed():
		result = "action_failed"
	}
	transactionsCounter.WithLabelValues(name, op, result).Inc()
	e.logger.Debug("transaction executed",
		zap.String("account", tx.Account.ToRaw()),
		zap.Uint64("lt", tx.Lt),
		zap.String("contract", name),
		zap.String("op", op),
		zap.String("result", result),
		zap.Int32("exit_code", tx.ComputeExitCode()),
		zap.Stringer("fee", tx.TotalFee),
		zap.Int("out_msgs", len(tx.OutMsgs)))
}
