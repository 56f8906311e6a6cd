// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package verifier

import (
	"slices"

	"github.com/ava-labs/stackvm/bytecode"
)

var _ Verifier = TypeVerifier{}

// TypeVerifier runs the checks of [BoundsVerifier] and then simulates every
// function body over a stack of types, one basic block at a time. Operands
// must have the kinds their instruction expects, and the stack must agree
// wherever control flow joins and match the declared returns at each Ret.
// Reference and resource safety are not checked.
type TypeVerifier struct{}

func (TypeVerifier) VerifyModule(m *bytecode.Module) (*VerifiedModule, error) {
	if err := checkModule(m); err != nil {
		return nil, err
	}
	t := moduleTables(m)
	for _, fd := range m.FunctionDefs {
		if fd.Native {
			continue
		}
		h := m.FunctionHandles[fd.Handle]
		c := &typeChecker{
			tables:  t,
			locals:  append(slices.Clone(h.Parameters), fd.Locals...),
			returns: h.Returns,
			code:    fd.Code,
		}
		if err := c.check(); err != nil {
			return nil, newError(err, "function %s", h.Name)
		}
	}
	return &VerifiedModule{Module: m}, nil
}

func (TypeVerifier) VerifyScript(s *bytecode.Script) (*VerifiedScript, error) {
	if err := checkScript(s); err != nil {
		return nil, err
	}
	c := &typeChecker{
		tables: scriptTables(s),
		locals: append(slices.Clone(s.Parameters), s.Locals...),
		code:   s.Code,
	}
	if err := c.check(); err != nil {
		return nil, newError(err, "script")
	}
	return &VerifiedScript{Script: s}, nil
}

// typeChecker holds the abstract state of one function body. Tables and
// operands were bounds checked before it runs.
type typeChecker struct {
	*tables
	locals  []bytecode.SignatureToken
	returns []bytecode.SignatureToken
	code    []bytecode.Instruction

	stack   []bytecode.SignatureToken
	entries map[int][]bytecode.SignatureToken
	work    []int
}

func blockStarts(code []bytecode.Instruction) []bool {
	starts := make([]bool, len(code))
	starts[0] = true
	for pc, inst := range code {
		switch inst.Op {
		case bytecode.BrTrue, bytecode.BrFalse, bytecode.Branch:
			starts[inst.Arg] = true
		case bytecode.Ret, bytecode.Abort:
		default:
			continue
		}
		if pc+1 < len(code) {
			starts[pc+1] = true
		}
	}
	return starts
}

func (c *typeChecker) check() error {
	starts := blockStarts(c.code)
	c.entries = map[int][]bytecode.SignatureToken{0: nil}
	c.work = []int{0}
	for len(c.work) > 0 {
		start := c.work[len(c.work)-1]
		c.work = c.work[:len(c.work)-1]
		c.stack = slices.Clone(c.entries[start])
		for pc := start; ; pc++ {
			if pc > start && starts[pc] {
				if err := c.join(pc); err != nil {
					return newError(err, "pc %d", pc)
				}
				break
			}
			inst := c.code[pc]
			done, err := c.step(pc, inst)
			if err != nil {
				return newError(err, "pc %d (%s)", pc, inst.Op)
			}
			if done {
				break
			}
		}
	}
	return nil
}

// join records the stack on entry to the block at [pc], or checks it
// against the one already recorded.
func (c *typeChecker) join(pc int) error {
	prev, ok := c.entries[pc]
	if !ok {
		c.entries[pc] = slices.Clone(c.stack)
		c.work = append(c.work, pc)
		return nil
	}
	if !slices.EqualFunc(prev, c.stack, equalTokens) {
		return ErrStackMismatch
	}
	return nil
}

func (c *typeChecker) push(toks ...bytecode.SignatureToken) {
	c.stack = append(c.stack, toks...)
}

func (c *typeChecker) pop() (bytecode.SignatureToken, error) {
	if len(c.stack) == 0 {
		return bytecode.SignatureToken{}, ErrStackUnderflow
	}
	tok := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return tok, nil
}

// popPair returns the top of the stack as [b] and the value below it as [a].
func (c *typeChecker) popPair() (a, b bytecode.SignatureToken, err error) {
	if b, err = c.pop(); err != nil {
		return a, b, err
	}
	a, err = c.pop()
	return a, b, err
}

func (c *typeChecker) popKind(kinds ...bytecode.TokenKind) (bytecode.SignatureToken, error) {
	tok, err := c.pop()
	if err != nil {
		return tok, err
	}
	if !slices.Contains(kinds, tok.Kind) {
		return tok, ErrTypeMismatch
	}
	return tok, nil
}

func (c *typeChecker) popAssignable(want bytecode.SignatureToken) error {
	got, err := c.pop()
	if err != nil {
		return err
	}
	if !assignable(want, got) {
		return ErrTypeMismatch
	}
	return nil
}

// popArgs pops values for [params], last parameter on top.
func (c *typeChecker) popArgs(params []bytecode.SignatureToken) error {
	for i := len(params) - 1; i >= 0; i-- {
		if err := c.popAssignable(params[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *typeChecker) step(pc int, inst bytecode.Instruction) (bool, error) {
	arg := int(inst.Arg)
	switch op := inst.Op; op {
	case bytecode.Nop:
	case bytecode.Pop:
		_, err := c.pop()
		return false, err
	case bytecode.Ret:
		if len(c.stack) != len(c.returns) {
			return true, ErrStackMismatch
		}
		for i, want := range c.returns {
			if !assignable(want, c.stack[i]) {
				return true, ErrTypeMismatch
			}
		}
		return true, nil
	case bytecode.Abort:
		_, err := c.popKind(bytecode.U64Kind)
		return true, err
	case bytecode.Branch:
		return true, c.join(arg)
	case bytecode.BrTrue, bytecode.BrFalse:
		if _, err := c.popKind(bytecode.BoolKind); err != nil {
			return true, err
		}
		if err := c.join(arg); err != nil {
			return true, err
		}
		return true, c.join(pc + 1)

	case bytecode.LdU8:
		c.push(bytecode.U8Token)
	case bytecode.LdU64:
		c.push(bytecode.U64Token)
	case bytecode.LdU128:
		c.push(bytecode.U128Token)
	case bytecode.LdTrue, bytecode.LdFalse:
		c.push(bytecode.BoolToken)
	case bytecode.LdAddr:
		c.push(bytecode.AddressToken)
	case bytecode.LdBytes:
		c.push(bytecode.BytesToken)

	case bytecode.CopyLoc, bytecode.MoveLoc:
		c.push(c.locals[arg])
	case bytecode.StLoc:
		return false, c.popAssignable(c.locals[arg])
	case bytecode.MutBorrowLoc, bytecode.ImmBorrowLoc:
		local := c.locals[arg]
		if local.IsReference() {
			return false, ErrTypeMismatch
		}
		c.push(borrow(local, op == bytecode.MutBorrowLoc))

	case bytecode.MutBorrowField, bytecode.ImmBorrowField:
		fh := c.fieldHandles[arg]
		return false, c.borrowField(fh, nil, op == bytecode.MutBorrowField)
	case bytecode.MutBorrowFieldGeneric, bytecode.ImmBorrowFieldGeneric:
		fi := c.fieldInsts[arg]
		return false, c.borrowField(c.fieldHandles[fi.Handle], fi.TypeArgs, op == bytecode.MutBorrowFieldGeneric)
	case bytecode.ReadRef:
		ref, err := c.popKind(bytecode.ReferenceKind, bytecode.MutableReferenceKind)
		if err != nil {
			return false, err
		}
		c.push(*ref.Elem)
	case bytecode.WriteRef:
		ref, err := c.popKind(bytecode.MutableReferenceKind)
		if err != nil {
			return false, err
		}
		return false, c.popAssignable(*ref.Elem)
	case bytecode.FreezeRef:
		ref, err := c.popKind(bytecode.MutableReferenceKind)
		if err != nil {
			return false, err
		}
		c.push(bytecode.RefToken(*ref.Elem))

	case bytecode.Call:
		h := c.functionHandles[arg]
		if err := c.popArgs(h.Parameters); err != nil {
			return false, err
		}
		c.push(h.Returns...)
	case bytecode.CallGeneric:
		fi := c.functionInsts[arg]
		h := c.functionHandles[fi.Handle]
		if err := c.popArgs(substituteAll(h.Parameters, fi.TypeArgs)); err != nil {
			return false, err
		}
		c.push(substituteAll(h.Returns, fi.TypeArgs)...)
	case bytecode.Pack, bytecode.PackGeneric:
		def, typeArgs := c.structOperand(inst)
		if err := c.popArgs(fieldTypes(def, typeArgs)); err != nil {
			return false, err
		}
		c.push(bytecode.StructToken(def.Handle, typeArgs...))
	case bytecode.Unpack, bytecode.UnpackGeneric:
		def, typeArgs := c.structOperand(inst)
		if err := c.popAssignable(bytecode.StructToken(def.Handle, typeArgs...)); err != nil {
			return false, err
		}
		c.push(fieldTypes(def, typeArgs)...)

	case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.Div, bytecode.Mod,
		bytecode.BitAnd, bytecode.BitOr, bytecode.Xor:
		a, b, err := c.popPair()
		if err != nil {
			return false, err
		}
		if !isInteger(a) || !equalTokens(a, b) {
			return false, ErrTypeMismatch
		}
		c.push(a)
	case bytecode.Shl, bytecode.Shr:
		a, b, err := c.popPair()
		if err != nil {
			return false, err
		}
		if !isInteger(a) || b.Kind != bytecode.U8Kind {
			return false, ErrTypeMismatch
		}
		c.push(a)
	case bytecode.Lt, bytecode.Gt, bytecode.Le, bytecode.Ge:
		a, b, err := c.popPair()
		if err != nil {
			return false, err
		}
		if !isInteger(a) || !equalTokens(a, b) {
			return false, ErrTypeMismatch
		}
		c.push(bytecode.BoolToken)
	case bytecode.Eq, bytecode.Neq:
		a, b, err := c.popPair()
		if err != nil {
			return false, err
		}
		if !equalTokens(deref(a), deref(b)) {
			return false, ErrTypeMismatch
		}
		c.push(bytecode.BoolToken)
	case bytecode.And, bytecode.Or:
		a, b, err := c.popPair()
		if err != nil {
			return false, err
		}
		if a.Kind != bytecode.BoolKind || b.Kind != bytecode.BoolKind {
			return false, ErrTypeMismatch
		}
		c.push(bytecode.BoolToken)
	case bytecode.Not:
		if _, err := c.popKind(bytecode.BoolKind); err != nil {
			return false, err
		}
		c.push(bytecode.BoolToken)
	case bytecode.CastU8:
		return false, c.cast(bytecode.U8Token)
	case bytecode.CastU64:
		return false, c.cast(bytecode.U64Token)
	case bytecode.CastU128:
		return false, c.cast(bytecode.U128Token)

	case bytecode.Exists, bytecode.ExistsGeneric:
		if _, err := c.resource(inst); err != nil {
			return false, err
		}
		if _, err := c.popKind(bytecode.AddressKind); err != nil {
			return false, err
		}
		c.push(bytecode.BoolToken)
	case bytecode.MutBorrowGlobal, bytecode.MutBorrowGlobalGeneric,
		bytecode.ImmBorrowGlobal, bytecode.ImmBorrowGlobalGeneric:
		tok, err := c.resource(inst)
		if err != nil {
			return false, err
		}
		if _, err := c.popKind(bytecode.AddressKind); err != nil {
			return false, err
		}
		c.push(borrow(tok, op == bytecode.MutBorrowGlobal || op == bytecode.MutBorrowGlobalGeneric))
	case bytecode.MoveFrom, bytecode.MoveFromGeneric:
		tok, err := c.resource(inst)
		if err != nil {
			return false, err
		}
		if _, err := c.popKind(bytecode.AddressKind); err != nil {
			return false, err
		}
		c.push(tok)
	case bytecode.MoveTo, bytecode.MoveToGeneric:
		tok, err := c.resource(inst)
		if err != nil {
			return false, err
		}
		if err := c.popAssignable(tok); err != nil {
			return false, err
		}
		signer, err := c.pop()
		if err != nil {
			return false, err
		}
		if deref(signer).Kind != bytecode.SignerKind {
			return false, ErrTypeMismatch
		}

	case bytecode.BytesLen:
		v, err := c.pop()
		if err != nil {
			return false, err
		}
		if deref(v).Kind != bytecode.BytesKind {
			return false, ErrTypeMismatch
		}
		c.push(bytecode.U64Token)
	case bytecode.BytesConcat:
		a, b, err := c.popPair()
		if err != nil {
			return false, err
		}
		if a.Kind != bytecode.BytesKind || b.Kind != bytecode.BytesKind {
			return false, ErrTypeMismatch
		}
		c.push(bytecode.BytesToken)
	}
	return false, nil
}

func (c *typeChecker) cast(to bytecode.SignatureToken) error {
	if _, err := c.popKind(bytecode.U8Kind, bytecode.U64Kind, bytecode.U128Kind); err != nil {
		return err
	}
	c.push(to)
	return nil
}

func (c *typeChecker) borrowField(fh bytecode.FieldHandle, typeArgs []bytecode.SignatureToken, mutable bool) error {
	def := c.structDefs[fh.Owner]
	kinds := []bytecode.TokenKind{bytecode.MutableReferenceKind}
	if !mutable {
		kinds = append(kinds, bytecode.ReferenceKind)
	}
	ref, err := c.popKind(kinds...)
	if err != nil {
		return err
	}
	if !equalTokens(*ref.Elem, bytecode.StructToken(def.Handle, typeArgs...)) {
		return ErrTypeMismatch
	}
	c.push(borrow(substitute(def.Fields[fh.Field].Type, typeArgs), mutable))
	return nil
}

// structOperand resolves the struct definition named by a struct or
// struct instantiation operand.
func (c *typeChecker) structOperand(inst bytecode.Instruction) (bytecode.StructDef, []bytecode.SignatureToken) {
	switch inst.Op {
	case bytecode.PackGeneric, bytecode.UnpackGeneric, bytecode.ExistsGeneric,
		bytecode.MutBorrowGlobalGeneric, bytecode.ImmBorrowGlobalGeneric,
		bytecode.MoveFromGeneric, bytecode.MoveToGeneric:
		si := c.structInsts[inst.Arg]
		return c.structDefs[si.Def], si.TypeArgs
	}
	return c.structDefs[inst.Arg], nil
}

// resource returns the type of the resource a global instruction operates
// on.
func (c *typeChecker) resource(inst bytecode.Instruction) (bytecode.SignatureToken, error) {
	def, typeArgs := c.structOperand(inst)
	if !c.structHandles[def.Handle].IsResource {
		return bytecode.SignatureToken{}, ErrNotResource
	}
	return bytecode.StructToken(def.Handle, typeArgs...), nil
}

func fieldTypes(def bytecode.StructDef, typeArgs []bytecode.SignatureToken) []bytecode.SignatureToken {
	out := make([]bytecode.SignatureToken, len(def.Fields))
	for i, f := range def.Fields {
		out[i] = substitute(f.Type, typeArgs)
	}
	return out
}

func borrow(tok bytecode.SignatureToken, mutable bool) bytecode.SignatureToken {
	if mutable {
		return bytecode.MutRefToken(tok)
	}
	return bytecode.RefToken(tok)
}

func deref(tok bytecode.SignatureToken) bytecode.SignatureToken {
	if tok.IsReference() {
		return *tok.Elem
	}
	return tok
}

func isInteger(tok bytecode.SignatureToken) bool {
	switch tok.Kind {
	case bytecode.U8Kind, bytecode.U64Kind, bytecode.U128Kind:
		return true
	}
	return false
}

func equalTokens(a, b bytecode.SignatureToken) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case bytecode.StructKind:
		return a.StructHandle == b.StructHandle && slices.EqualFunc(a.TypeArgs, b.TypeArgs, equalTokens)
	case bytecode.ReferenceKind, bytecode.MutableReferenceKind:
		return equalTokens(*a.Elem, *b.Elem)
	case bytecode.TypeParameterKind:
		return a.TypeParam == b.TypeParam
	}
	return true
}

// assignable reports whether a value of type [got] may be stored where
// [want] is expected. A mutable reference may stand in for an immutable one.
func assignable(want, got bytecode.SignatureToken) bool {
	if want.Kind == bytecode.ReferenceKind && got.Kind == bytecode.MutableReferenceKind {
		return equalTokens(*want.Elem, *got.Elem)
	}
	return equalTokens(want, got)
}

// substitute replaces the type parameters in [tok] with [typeArgs].
func substitute(tok bytecode.SignatureToken, typeArgs []bytecode.SignatureToken) bytecode.SignatureToken {
	switch tok.Kind {
	case bytecode.TypeParameterKind:
		if int(tok.TypeParam) < len(typeArgs) {
			return typeArgs[tok.TypeParam]
		}
	case bytecode.StructKind:
		if len(tok.TypeArgs) > 0 {
			return bytecode.StructToken(tok.StructHandle, substituteAll(tok.TypeArgs, typeArgs)...)
		}
	case bytecode.ReferenceKind:
		return bytecode.RefToken(substitute(*tok.Elem, typeArgs))
	case bytecode.MutableReferenceKind:
		return bytecode.MutRefToken(substitute(*tok.Elem, typeArgs))
	}
	return tok
}

func substituteAll(toks []bytecode.SignatureToken, typeArgs []bytecode.SignatureToken) []bytecode.SignatureToken {
	if len(typeArgs) == 0 {
		return toks
	}
	out := make([]bytecode.SignatureToken, len(toks))
	for i, tok := range toks {
		out[i] = substitute(tok, typeArgs)
	}
	return out
}
