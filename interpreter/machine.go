// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package interpreter

import (
	"context"
	"sort"
	"strings"

	smath "github.com/ava-labs/avalanchego/utils/math"
	"github.com/ava-labs/avalanchego/utils/set"

	"github.com/ava-labs/stackvm/bytecode"
	"github.com/ava-labs/stackvm/consts"
	"github.com/ava-labs/stackvm/gas"
	"github.com/ava-labs/stackvm/loader"
	"github.com/ava-labs/stackvm/natives"
	"github.com/ava-labs/stackvm/state"
	"github.com/ava-labs/stackvm/types"
)

var _ natives.Context = (*machine)(nil)

// frame is one activation record. Arguments and results of a frame live on
// the shared operand stack above [base].
type frame struct {
	id       uint64
	fn       *loader.Function
	typeArgs []types.Type
	locals   []types.Value
	pc       int
	base     int
}

type machine struct {
	ctx      context.Context
	interp   *Interpreter
	schedule *gas.Schedule
	meter    *gas.Meter
	view     state.Mutable

	stack   []types.Value
	frames  []*frame
	frameID uint64

	globals  map[string]*global
	events   []types.Event
	eventSeq map[string]uint64

	// instantiated holds the generic instantiations already paid for.
	instantiated set.Set[instantiation]
}

type instantiation struct {
	fn       *loader.Function
	typeArgs string
}

func instantiationOf(fn *loader.Function, typeArgs []types.Type) instantiation {
	var sb strings.Builder
	for i, arg := range typeArgs {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(arg.String())
	}
	return instantiation{fn: fn, typeArgs: sb.String()}
}

func newMachine(ctx context.Context, i *Interpreter, meter *gas.Meter, view state.Mutable) *machine {
	return &machine{
		ctx:      ctx,
		interp:   i,
		schedule: i.schedule,
		meter:    meter,
		view:     view,
		globals:  make(map[string]*global),
		eventSeq: make(map[string]uint64),
	}
}

func (m *machine) run() error {
	for len(m.frames) > 0 {
		if err := m.step(m.frames[len(m.frames)-1]); err != nil {
			return err
		}
	}
	return nil
}

func (m *machine) step(f *frame) error {
	if f.pc >= len(f.fn.Code) {
		types.Violation("%s: pc %d past end of code", f.fn, f.pc)
	}
	inst := f.fn.Code[f.pc]
	op := ops[inst.Op]
	if op == nil {
		types.Violation("%s: no handler for %s", f.fn, inst.Op)
	}
	if err := m.meter.Charge(m.schedule.InstructionCost(inst.Op)); err != nil {
		return err
	}
	return op(m, f, inst)
}

// charge consumes a computed cost. A cost that overflowed can never be
// paid.
func (m *machine) charge(units uint64, err error) error {
	if err != nil {
		units = consts.MaxUint64
	}
	return m.meter.Charge(units)
}

// chargeBytes charges the value-dependent part of an instruction.
func (m *machine) chargeBytes(n uint64) error {
	return m.charge(m.schedule.Bytes(n))
}

func (m *machine) push(v types.Value) error {
	if len(m.stack) >= m.interp.config.MaxStackSize {
		return ErrStackOverflow
	}
	m.stack = append(m.stack, v)
	return nil
}

func (m *machine) pop() types.Value {
	if len(m.stack) == 0 || (len(m.frames) > 0 && len(m.stack) <= m.frames[len(m.frames)-1].base) {
		types.Violation("operand stack underflow")
	}
	v := m.stack[len(m.stack)-1]
	m.stack[len(m.stack)-1] = nil
	m.stack = m.stack[:len(m.stack)-1]
	return v
}

// popN pops [n] values and returns them in push order.
func (m *machine) popN(n int) []types.Value {
	vs := make([]types.Value, n)
	for i := n - 1; i >= 0; i-- {
		vs[i] = m.pop()
	}
	return vs
}

func pop[T types.Value](m *machine) T {
	v := m.pop()
	t, ok := v.(T)
	if !ok {
		types.Violation("unexpected operand %s (%T)", v, v)
	}
	return t
}

func (m *machine) abort(f *frame, code uint64) error {
	return &AbortError{Code: code, Location: f.fn.String(), PC: f.pc}
}

// call enters [fn]. Arguments are taken from [args] when given, otherwise
// popped from the operand stack. Each distinct instantiation is charged
// once per execution.
func (m *machine) call(fn *loader.Function, typeArgs []types.Type, args []types.Value) error {
	var (
		locals    = fn.Locals
		params    = len(fn.Parameters)
		typeNodes uint64
	)
	if fn.TypeParameters > 0 || len(typeArgs) > 0 {
		inst := m.interp.loader.InstantiateFunction(fn, typeArgs)
		locals = inst.Locals
		if key := instantiationOf(fn, typeArgs); !m.instantiated.Contains(key) {
			m.instantiated.Add(key)
			typeNodes = inst.TypeNodes
		}
	}
	perType, err := smath.Mul(m.schedule.InstantiationPerType, typeNodes)
	if err := m.charge(perType, err); err != nil {
		return err
	}
	perLocal, err := smath.Mul(m.schedule.CallPerLocal, uint64(len(locals)))
	if err := m.charge(perLocal, err); err != nil {
		return err
	}

	if args == nil {
		args = m.popN(params)
	}
	if fn.Native {
		return m.callNative(fn, typeArgs, args)
	}
	if len(m.frames) >= m.interp.config.MaxCallDepth {
		return m.abort(m.frames[len(m.frames)-1], CallStackOverflow)
	}
	f := &frame{
		id:       m.frameID,
		fn:       fn,
		typeArgs: typeArgs,
		locals:   make([]types.Value, len(locals)),
		base:     len(m.stack),
	}
	m.frameID++
	copy(f.locals, args)
	m.frames = append(m.frames, f)
	return nil
}

func (m *machine) callNative(fn *loader.Function, typeArgs []types.Type, args []types.Value) error {
	hf, ok := m.interp.natives.Lookup(fn.Module, fn.Name)
	if !ok {
		return ErrUnknownNative
	}
	base, err := smath.Add(m.schedule.NativeBase, hf.Cost)
	if err := m.charge(base, err); err != nil {
		return err
	}
	results, err := hf.Function(m, typeArgs, args)
	if err != nil {
		return err
	}
	for _, r := range results {
		if err := m.push(r); err != nil {
			return err
		}
	}
	return nil
}

// ret leaves the current frame. Its results are already on the operand
// stack.
func (m *machine) ret(f *frame) {
	if got, want := len(m.stack)-f.base, len(f.fn.Returns); got != want {
		types.Violation("%s returned %d values, declared %d", f.fn, got, want)
	}
	m.frames[len(m.frames)-1] = nil
	m.frames = m.frames[:len(m.frames)-1]
}

// frameByID finds a live frame. Frame ids increase with depth.
func (m *machine) frameByID(id uint64) *frame {
	i := sort.Search(len(m.frames), func(i int) bool { return m.frames[i].id >= id })
	if i == len(m.frames) || m.frames[i].id != id {
		types.Violation("reference to dead frame %d", id)
	}
	return m.frames[i]
}

func (m *machine) Charge(bytes uint64) error {
	units, err := smath.Mul(m.schedule.NativePerByte, bytes)
	return m.charge(units, err)
}

func (m *machine) ReadRef(ref types.Reference) types.Value {
	return types.Copy(m.deref(ref))
}

func (m *machine) Emit(key []byte, tag types.TypeTag, data []byte) error {
	seq := m.eventSeq[string(key)]
	m.eventSeq[string(key)] = seq + 1
	m.events = append(m.events, types.Event{
		Key:            key,
		SequenceNumber: seq,
		Type:           tag,
		Data:           data,
	})
	return nil
}

// typeArgsOf instantiates [args] in the scope of frame [f].
func typeArgsOf(f *frame, args []types.Type) []types.Type {
	if len(f.typeArgs) == 0 {
		return args
	}
	out := make([]types.Type, len(args))
	for i, a := range args {
		out[i] = a.Subst(f.typeArgs)
	}
	return out
}

func branch(f *frame, inst bytecode.Instruction) {
	f.pc = int(inst.Arg)
}
