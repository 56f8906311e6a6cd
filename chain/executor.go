// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ava-labs/stackvm/codec"
	"github.com/ava-labs/stackvm/consts"
	"github.com/ava-labs/stackvm/gas"
	"github.com/ava-labs/stackvm/interpreter"
	"github.com/ava-labs/stackvm/loader"
	"github.com/ava-labs/stackvm/state"
	"github.com/ava-labs/stackvm/tstate"
	"github.com/ava-labs/stackvm/types"
	"github.com/ava-labs/stackvm/verifier"
)

// changedKeysEstimate sizes the buffered view of a transaction: the
// sender's account plus a handful of script writes.
const changedKeysEstimate = 8

// Executor runs signed transactions through the prologue, the script and the
// epilogue against a read-only view and reports their combined effect.
type Executor struct {
	log      logging.Logger
	tracer   trace.Tracer
	loader   *loader.Loader
	interp   *interpreter.Interpreter
	schedule *gas.Schedule
	rules    Rules
	metrics  *metrics
}

func NewExecutor(
	log logging.Logger,
	tracer trace.Tracer,
	registerer prometheus.Registerer,
	l *loader.Loader,
	interp *interpreter.Interpreter,
	schedule *gas.Schedule,
	rules Rules,
) (*Executor, error) {
	m, err := newMetrics(registerer)
	if err != nil {
		return nil, err
	}
	return &Executor{
		log:      log,
		tracer:   tracer,
		loader:   l,
		interp:   interp,
		schedule: schedule,
		rules:    rules,
		metrics:  m,
	}, nil
}

// Execute runs [tx] against [view]. It never returns a partial effect: the
// output is either [Discarded] with no writes, [Aborted] with only the
// epilogue's writes, or [Finalized] with every write.
//
// An invariant violation raised during execution is logged and re-panicked.
func (e *Executor) Execute(ctx context.Context, tx *SignedTransaction, view state.View) *TransactionOutput {
	return e.run(ctx, tx, view, false)
}

// ExecuteVerified is [Execute] for a transaction whose signature the caller
// has already checked, for example as part of a batch.
func (e *Executor) ExecuteVerified(ctx context.Context, tx *SignedTransaction, view state.View) *TransactionOutput {
	return e.run(ctx, tx, view, true)
}

func (e *Executor) run(ctx context.Context, tx *SignedTransaction, view state.View, verified bool) *TransactionOutput {
	ctx, span := e.tracer.Start(ctx, "Executor.Execute")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			if v, ok := r.(*types.InvariantViolation); ok {
				e.log.Error("invariant violation during execution",
					zap.Stringer("sender", tx.Raw.Sender),
					zap.Uint64("sequenceNumber", tx.Raw.SequenceNumber),
					zap.String("reason", v.Reason),
				)
			}
			panic(r)
		}
	}()

	out := e.execute(ctx, tx, view, verified)
	e.metrics.record(out)
	e.log.Debug("executed transaction",
		zap.Stringer("sender", tx.Raw.Sender),
		zap.Uint64("sequenceNumber", tx.Raw.SequenceNumber),
		zap.Stringer("phase", out.Phase),
		zap.Stringer("status", out.Status),
		zap.Uint64("gasUsed", out.GasUsed),
	)
	return out
}

func discarded(status VMStatus) *TransactionOutput {
	return &TransactionOutput{Phase: Discarded, Status: status}
}

func (e *Executor) execute(ctx context.Context, tx *SignedTransaction, view state.View, verified bool) *TransactionOutput {
	raw := &tx.Raw
	b, err := tx.Bytes()
	if err != nil {
		return discarded(discard(UnknownValidationFailure))
	}
	if reason := e.validate(raw, len(b)); reason != NoDiscard {
		return discarded(discard(reason))
	}
	if !verified {
		if err := tx.Verify(); err != nil {
			return discarded(discard(InvalidSignature))
		}
	}
	args, argTypes, err := decodeArguments(raw.Args)
	if err != nil {
		return discarded(discard(UnknownScriptArgument))
	}

	ts := tstate.New(view, changedKeysEstimate)
	tv := ts.NewView()

	// Prologue: any failure drops the transaction.
	if status := e.prologue(ctx, tx, view, tv); status.Code != Executed {
		return discarded(status)
	}

	// Main: the script's writes are rolled back unless it succeeds.
	mainStart := tv.OpIndex()
	meter := gas.NewMeter(raw.MaxGasAmount)
	phase := Finalized
	res, status := e.main(ctx, raw, len(b), args, argTypes, meter, view, tv)
	if status.Code == Discard {
		return discarded(status)
	}
	var events []types.Event
	if status.Code == Executed {
		events = res.Events
	} else {
		tv.Rollback(ctx, mainStart)
		phase = Aborted
	}
	gasUsed := meter.Used()

	// Epilogue: charge for the gas used and bump the sequence number.
	if err := e.system(ctx, EpilogueFunction, view, tv,
		types.Address(raw.Sender),
		types.U64(raw.SequenceNumber),
		types.U64(raw.GasUnitPrice),
		types.U64(gasUsed),
	); err != nil {
		estatus := statusOf(err)
		if estatus.Code == Discard {
			return discarded(estatus)
		}
		e.log.Warn("epilogue failed",
			zap.Stringer("sender", raw.Sender),
			zap.Uint64("gasUsed", gasUsed),
			zap.Error(err),
		)
		tv.Rollback(ctx, 0)
		if err := e.system(ctx, BumpSequenceFunction, view, tv,
			types.Address(raw.Sender),
			types.U64(raw.SequenceNumber),
		); err != nil {
			bstatus := statusOf(err)
			if bstatus.Code != Discard {
				bstatus = discard(UnknownValidationFailure)
			}
			return discarded(bstatus)
		}
		if status.Code == Executed {
			status = estatus
		}
		phase = Aborted
		events = nil
	}

	tv.Commit()
	return &TransactionOutput{
		Phase:    phase,
		WriteSet: ts.ExportWriteSet(ctx, e.tracer),
		Events:   events,
		GasUsed:  gasUsed,
		Status:   status,
	}
}

// validate applies the static checks that need no state.
func (e *Executor) validate(raw *RawTransaction, size int) DiscardReason {
	switch {
	case size > e.rules.GetMaxTransactionSize():
		return ExceededMaxTransactionSize
	case raw.MaxGasAmount > e.rules.GetMaxGasAmount():
		return MaxGasUnitsExceedsMaxGasUnitsBound
	case raw.GasUnitPrice < e.rules.GetMinGasUnitPrice():
		return GasUnitPriceBelowMinBound
	case raw.GasUnitPrice > e.rules.GetMaxGasUnitPrice():
		return GasUnitPriceAboveMaxBound
	}
	intrinsic, err := e.schedule.Intrinsic(size)
	if err != nil || intrinsic > raw.MaxGasAmount {
		return MaxGasUnitsBelowMinTransactionGasUnits
	}
	return NoDiscard
}

func (e *Executor) prologue(ctx context.Context, tx *SignedTransaction, view state.View, tv *tstate.TStateView) VMStatus {
	raw := &tx.Raw
	fn, err := e.loader.FunctionByName(ctx, view, AccountModuleID, PrologueFunction)
	if err != nil {
		return prologueStatus(err)
	}
	_, err = e.interp.Execute(ctx, fn, nil, []types.Value{
		types.Address(raw.Sender),
		types.Bytes(tx.PublicKey[:]),
		types.U64(raw.SequenceNumber),
		types.U64(raw.MaxGasAmount),
		types.U64(raw.GasUnitPrice),
	}, gas.NewUnmeteredMeter(), tv)
	if err != nil {
		return prologueStatus(err)
	}
	return VMStatus{Code: Executed}
}

// prologueStatus maps a prologue failure to the reason the transaction is
// dropped. Verification failures of the system module stay distinct.
func prologueStatus(err error) VMStatus {
	var abort *interpreter.AbortError
	if errors.As(err, &abort) {
		if reason, ok := prologueDiscards[abort.Code]; ok {
			return discard(reason)
		}
	}
	status := statusOf(err)
	switch status.Code {
	case Discard, VerificationError:
		return status
	default:
		return discard(UnknownValidationFailure)
	}
}

func (e *Executor) main(
	ctx context.Context,
	raw *RawTransaction,
	size int,
	args []types.Value,
	argTypes []types.Type,
	meter *gas.Meter,
	view state.View,
	tv *tstate.TStateView,
) (*interpreter.Result, VMStatus) {
	intrinsic, err := e.schedule.Intrinsic(size)
	if err != nil {
		intrinsic = consts.MaxUint64
	}
	if err := meter.Charge(intrinsic); err != nil {
		return nil, statusOf(err)
	}

	script, err := e.loader.LoadScript(ctx, view, raw.Script)
	if err != nil {
		return nil, statusOf(err)
	}
	entry := script.Main
	if len(raw.TypeArgs) != int(entry.TypeParameters) {
		return nil, statusOf(fmt.Errorf("%w: want %d, got %d", ErrTypeArgumentCount, entry.TypeParameters, len(raw.TypeArgs)))
	}
	typeArgs := make([]types.Type, len(raw.TypeArgs))
	for i, tag := range raw.TypeArgs {
		typeArgs[i], err = e.loader.ResolveTag(ctx, view, tag)
		if err != nil {
			return nil, statusOf(err)
		}
	}
	values, err := bindArguments(entry, typeArgs, raw.Sender, args, argTypes)
	if err != nil {
		return nil, statusOf(err)
	}

	res, err := e.interp.Execute(ctx, entry, typeArgs, values, meter, tv)
	if err != nil {
		return nil, statusOf(err)
	}
	return res, VMStatus{Code: Executed}
}

// system runs a non-generic function of the Account module unmetered.
func (e *Executor) system(ctx context.Context, name string, view state.View, tv *tstate.TStateView, args ...types.Value) error {
	fn, err := e.loader.FunctionByName(ctx, view, AccountModuleID, name)
	if err != nil {
		return err
	}
	_, err = e.interp.Execute(ctx, fn, nil, args, gas.NewUnmeteredMeter(), tv)
	return err
}

// statusOf classifies an execution or load error.
func statusOf(err error) VMStatus {
	var (
		serr  *state.StorageError
		abort *interpreter.AbortError
	)
	switch {
	case errors.As(err, &serr):
		return discard(StorageError)
	case errors.As(err, &abort):
		return VMStatus{Code: MoveAbort, AbortCode: abort.Code, Location: abort.Location}
	case errors.Is(err, gas.ErrOutOfGas):
		return VMStatus{Code: OutOfGas}
	case loader.IsKind(err, loader.VerificationFailed):
		return verificationStatus(err)
	default:
		return VMStatus{Code: ExecutionFailure}
	}
}

// verificationStatus names the binary and the item in it that failed
// verification, and the check that failed.
func verificationStatus(err error) VMStatus {
	status := VMStatus{Code: VerificationError, Message: err.Error()}
	var lerr *loader.LoadError
	if errors.As(err, &lerr) {
		status.Location = lerr.ID.String()
		status.Message = lerr.Err.Error()
	}
	location, cause := verifier.Locate(err)
	if cause == nil {
		return status
	}
	if status.Location != "" {
		location = status.Location + ": " + location
	}
	status.Location = location
	status.Message = cause.Error()
	return status
}

func decodeArguments(args []TransactionArgument) ([]types.Value, []types.Type, error) {
	values := make([]types.Value, len(args))
	ts := make([]types.Type, len(args))
	for i, arg := range args {
		v, err := arg.Value()
		if err != nil {
			return nil, nil, err
		}
		values[i] = v
		ts[i], _ = argumentType(arg.Type)
	}
	return values, ts, nil
}

// bindArguments matches decoded arguments against the parameters of
// [entry]. A leading signer parameter receives the sender.
func bindArguments(
	entry *loader.Function,
	typeArgs []types.Type,
	sender codec.Address,
	args []types.Value,
	argTypes []types.Type,
) ([]types.Value, error) {
	params := entry.Parameters
	values := make([]types.Value, 0, len(params))
	if len(params) > 0 && params[0].Kind == types.SignerType {
		values = append(values, types.Signer(sender))
		params = params[1:]
	}
	if len(params) != len(args) {
		return nil, fmt.Errorf("%w: want %d arguments, got %d", ErrArgumentMismatch, len(params), len(args))
	}
	for i, param := range params {
		if want := param.Subst(typeArgs); !want.Equal(argTypes[i]) {
			return nil, fmt.Errorf("%w: argument %d is %s, want %s", ErrArgumentMismatch, i, argTypes[i], want)
		}
		values = append(values, args[i])
	}
	return values, nil
}
