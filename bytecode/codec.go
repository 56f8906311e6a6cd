// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bytecode

import (
	"fmt"

	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/stackvm/codec"
	"github.com/ava-labs/stackvm/consts"
)

var magic = [4]byte{'S', 'V', 'M', 0x01}

const (
	moduleKind byte = 1
	scriptKind byte = 2

	flagPublic byte = 1 << 0
	flagNative byte = 1 << 1
)

// Deserializer turns encoded binaries into their unresolved form.
type Deserializer interface {
	DecodeModule([]byte) (*Module, error)
	DecodeScript([]byte) (*Script, error)
}

// Codec is the canonical [Deserializer].
type Codec struct{}

var _ Deserializer = Codec{}

func (Codec) DecodeModule(b []byte) (*Module, error) { return DecodeModule(b) }

func (Codec) DecodeScript(b []byte) (*Script, error) { return DecodeScript(b) }

// EncodeModule returns the canonical encoding of [m].
func EncodeModule(m *Module) ([]byte, error) {
	if len(m.ModuleHandles) == 0 {
		return nil, ErrMissingSelfHandle
	}
	w := newWriter(moduleKind)
	w.moduleHandles(m.ModuleHandles)
	w.structHandles(m.StructHandles)
	w.functionHandles(m.FunctionHandles)
	w.count(len(m.FieldHandles))
	for _, fh := range m.FieldHandles {
		w.p.PackShort(fh.Owner)
		w.p.PackShort(fh.Field)
	}
	w.count(len(m.StructInstantiations))
	for _, si := range m.StructInstantiations {
		w.p.PackShort(si.Def)
		w.tokens(si.TypeArgs)
	}
	w.functionInstantiations(m.FunctionInstantiations)
	w.count(len(m.FieldInstantiations))
	for _, fi := range m.FieldInstantiations {
		w.p.PackShort(fi.Handle)
		w.tokens(fi.TypeArgs)
	}
	w.count(len(m.StructDefs))
	for _, sd := range m.StructDefs {
		w.p.PackShort(sd.Handle)
		w.count(len(sd.Fields))
		for _, f := range sd.Fields {
			w.ident(f.Name)
			w.token(f.Type, 0)
		}
	}
	w.count(len(m.FunctionDefs))
	for _, fd := range m.FunctionDefs {
		w.p.PackShort(fd.Handle)
		var flags byte
		if fd.Public {
			flags |= flagPublic
		}
		if fd.Native {
			flags |= flagNative
		}
		w.p.PackByte(flags)
		w.tokens(fd.Locals)
		w.code(fd.Code)
	}
	return w.finish()
}

// EncodeScript returns the canonical encoding of [s].
func EncodeScript(s *Script) ([]byte, error) {
	w := newWriter(scriptKind)
	w.moduleHandles(s.ModuleHandles)
	w.structHandles(s.StructHandles)
	w.functionHandles(s.FunctionHandles)
	w.functionInstantiations(s.FunctionInstantiations)
	w.p.PackShort(s.TypeParameters)
	w.tokens(s.Parameters)
	w.tokens(s.Locals)
	w.code(s.Code)
	return w.finish()
}

// DecodeModule parses a module encoded by [EncodeModule].
func DecodeModule(b []byte) (*Module, error) {
	r, err := newReader(b, moduleKind)
	if err != nil {
		return nil, err
	}
	m := &Module{}
	m.ModuleHandles = r.moduleHandles()
	if r.err == nil && len(m.ModuleHandles) == 0 {
		return nil, ErrMissingSelfHandle
	}
	m.StructHandles = r.structHandles()
	m.FunctionHandles = r.functionHandles()
	n := r.count()
	m.FieldHandles = make([]FieldHandle, 0, n)
	for i := 0; i < n && r.ok(); i++ {
		m.FieldHandles = append(m.FieldHandles, FieldHandle{
			Owner: r.p.UnpackShort(),
			Field: r.p.UnpackShort(),
		})
	}
	n = r.count()
	m.StructInstantiations = make([]StructInstantiation, 0, n)
	for i := 0; i < n && r.ok(); i++ {
		m.StructInstantiations = append(m.StructInstantiations, StructInstantiation{
			Def:      r.p.UnpackShort(),
			TypeArgs: r.tokens(),
		})
	}
	m.FunctionInstantiations = r.functionInstantiations()
	n = r.count()
	m.FieldInstantiations = make([]FieldInstantiation, 0, n)
	for i := 0; i < n && r.ok(); i++ {
		m.FieldInstantiations = append(m.FieldInstantiations, FieldInstantiation{
			Handle:   r.p.UnpackShort(),
			TypeArgs: r.tokens(),
		})
	}
	n = r.count()
	m.StructDefs = make([]StructDef, 0, n)
	for i := 0; i < n && r.ok(); i++ {
		sd := StructDef{Handle: r.p.UnpackShort()}
		fields := r.count()
		sd.Fields = make([]FieldDef, 0, fields)
		for j := 0; j < fields && r.ok(); j++ {
			sd.Fields = append(sd.Fields, FieldDef{
				Name: r.ident(),
				Type: r.token(0),
			})
		}
		m.StructDefs = append(m.StructDefs, sd)
	}
	n = r.count()
	m.FunctionDefs = make([]FunctionDef, 0, n)
	for i := 0; i < n && r.ok(); i++ {
		fd := FunctionDef{Handle: r.p.UnpackShort()}
		flags := r.p.UnpackByte()
		fd.Public = flags&flagPublic != 0
		fd.Native = flags&flagNative != 0
		fd.Locals = r.tokens()
		fd.Code = r.code()
		m.FunctionDefs = append(m.FunctionDefs, fd)
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return m, nil
}

// DecodeScript parses a script encoded by [EncodeScript].
func DecodeScript(b []byte) (*Script, error) {
	r, err := newReader(b, scriptKind)
	if err != nil {
		return nil, err
	}
	s := &Script{
		ModuleHandles:          r.moduleHandles(),
		StructHandles:          r.structHandles(),
		FunctionHandles:        r.functionHandles(),
		FunctionInstantiations: r.functionInstantiations(),
		TypeParameters:         r.p.UnpackShort(),
		Parameters:             r.tokens(),
		Locals:                 r.tokens(),
		Code:                   r.code(),
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return s, nil
}

type writer struct {
	p   *wrappers.Packer
	err error
}

func newWriter(kind byte) *writer {
	w := &writer{p: &wrappers.Packer{MaxSize: consts.MaxBinarySize}}
	w.p.PackFixedBytes(magic[:])
	w.p.PackByte(kind)
	return w
}

func (w *writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *writer) count(n int) {
	if n > consts.MaxTableEntries {
		w.fail(fmt.Errorf("%w: %d", ErrTooManyEntries, n))
		return
	}
	w.p.PackShort(uint16(n))
}

func (w *writer) ident(s string) {
	if len(s) > consts.MaxIdentifierLen {
		w.fail(fmt.Errorf("%w: %q", ErrIdentifierTooLong, s))
		return
	}
	w.p.PackStr(s)
}

func (w *writer) moduleHandles(handles []BinaryID) {
	w.count(len(handles))
	for _, h := range handles {
		w.p.PackFixedBytes(h.Address[:])
		w.ident(h.Name)
	}
}

func (w *writer) structHandles(handles []StructHandle) {
	w.count(len(handles))
	for _, h := range handles {
		w.p.PackShort(h.Module)
		w.ident(h.Name)
		w.p.PackShort(h.TypeParameters)
		w.p.PackBool(h.IsResource)
	}
}

func (w *writer) functionHandles(handles []FunctionHandle) {
	w.count(len(handles))
	for _, h := range handles {
		w.p.PackShort(h.Module)
		w.ident(h.Name)
		w.tokens(h.Parameters)
		w.tokens(h.Returns)
		w.p.PackShort(h.TypeParameters)
	}
}

func (w *writer) functionInstantiations(insts []FunctionInstantiation) {
	w.count(len(insts))
	for _, fi := range insts {
		w.p.PackShort(fi.Handle)
		w.tokens(fi.TypeArgs)
	}
}

func (w *writer) tokens(toks []SignatureToken) {
	w.count(len(toks))
	for _, t := range toks {
		w.token(t, 0)
	}
}

func (w *writer) token(t SignatureToken, depth int) {
	if depth > consts.MaxTypeDepth {
		w.fail(ErrTypeTooDeep)
		return
	}
	if !t.Kind.valid() {
		w.fail(fmt.Errorf("%w: %d", ErrUnknownTokenKind, t.Kind))
		return
	}
	w.p.PackByte(byte(t.Kind))
	switch t.Kind {
	case StructKind:
		w.p.PackShort(t.StructHandle)
		w.count(len(t.TypeArgs))
		for _, arg := range t.TypeArgs {
			w.token(arg, depth+1)
		}
	case ReferenceKind, MutableReferenceKind:
		if t.Elem == nil {
			w.fail(fmt.Errorf("%w: reference without element", ErrMalformed))
			return
		}
		w.token(*t.Elem, depth+1)
	case TypeParameterKind:
		w.p.PackShort(t.TypeParam)
	}
}

func (w *writer) code(code []Instruction) {
	w.count(len(code))
	for _, inst := range code {
		if !inst.Op.Valid() {
			w.fail(fmt.Errorf("%w: %d", ErrUnknownOpcode, inst.Op))
			return
		}
		w.p.PackByte(byte(inst.Op))
		switch inst.Op.Operand() {
		case U8Operand:
			if inst.Arg > uint64(consts.MaxUint8) {
				w.fail(fmt.Errorf("%w: %s %d", ErrOperandOutOfRange, inst.Op, inst.Arg))
				return
			}
			w.p.PackByte(byte(inst.Arg))
		case U16Operand:
			if inst.Arg > uint64(consts.MaxUint16) {
				w.fail(fmt.Errorf("%w: %s %d", ErrOperandOutOfRange, inst.Op, inst.Arg))
				return
			}
			w.p.PackShort(uint16(inst.Arg))
		case U64Operand:
			w.p.PackLong(inst.Arg)
		case U128Operand:
			if len(inst.Data) != consts.Uint128Len {
				w.fail(fmt.Errorf("%w: %s immediate of %d bytes", ErrOperandOutOfRange, inst.Op, len(inst.Data)))
				return
			}
			w.p.PackFixedBytes(inst.Data)
		case AddressOperand:
			if len(inst.Data) != codec.AddressLen {
				w.fail(fmt.Errorf("%w: %s immediate of %d bytes", ErrOperandOutOfRange, inst.Op, len(inst.Data)))
				return
			}
			w.p.PackFixedBytes(inst.Data)
		case BytesOperand:
			w.p.PackBytes(inst.Data)
		}
	}
}

func (w *writer) finish() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if w.p.Err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBinaryTooLarge, w.p.Err)
	}
	return w.p.Bytes, nil
}

type reader struct {
	p   *wrappers.Packer
	err error
}

func newReader(b []byte, kind byte) (*reader, error) {
	if len(b) > consts.MaxBinarySize {
		return nil, fmt.Errorf("%w: %d bytes", ErrBinaryTooLarge, len(b))
	}
	r := &reader{p: &wrappers.Packer{Bytes: b}}
	header := r.p.UnpackFixedBytes(len(magic))
	if r.p.Errored() || [4]byte(header) != magic {
		return nil, ErrBadMagic
	}
	got := r.p.UnpackByte()
	if r.p.Errored() {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, r.p.Err)
	}
	if got != kind {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrUnexpectedKind, got, kind)
	}
	return r, nil
}

func (r *reader) ok() bool {
	return r.err == nil && !r.p.Errored()
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) count() int {
	if !r.ok() {
		return 0
	}
	return int(r.p.UnpackShort())
}

func (r *reader) ident() string {
	if !r.ok() {
		return ""
	}
	s := r.p.UnpackLimitedStr(consts.MaxIdentifierLen)
	if r.p.Errored() {
		r.fail(fmt.Errorf("%w: %w", ErrIdentifierTooLong, r.p.Err))
	}
	return s
}

func (r *reader) moduleHandles() []BinaryID {
	n := r.count()
	handles := make([]BinaryID, 0, n)
	for i := 0; i < n && r.ok(); i++ {
		var id BinaryID
		copy(id.Address[:], r.p.UnpackFixedBytes(codec.AddressLen))
		id.Name = r.ident()
		handles = append(handles, id)
	}
	return handles
}

func (r *reader) structHandles() []StructHandle {
	n := r.count()
	handles := make([]StructHandle, 0, n)
	for i := 0; i < n && r.ok(); i++ {
		handles = append(handles, StructHandle{
			Module:         r.p.UnpackShort(),
			Name:           r.ident(),
			TypeParameters: r.p.UnpackShort(),
			IsResource:     r.p.UnpackBool(),
		})
	}
	return handles
}

func (r *reader) functionHandles() []FunctionHandle {
	n := r.count()
	handles := make([]FunctionHandle, 0, n)
	for i := 0; i < n && r.ok(); i++ {
		handles = append(handles, FunctionHandle{
			Module:         r.p.UnpackShort(),
			Name:           r.ident(),
			Parameters:     r.tokens(),
			Returns:        r.tokens(),
			TypeParameters: r.p.UnpackShort(),
		})
	}
	return handles
}

func (r *reader) functionInstantiations() []FunctionInstantiation {
	n := r.count()
	insts := make([]FunctionInstantiation, 0, n)
	for i := 0; i < n && r.ok(); i++ {
		insts = append(insts, FunctionInstantiation{
			Handle:   r.p.UnpackShort(),
			TypeArgs: r.tokens(),
		})
	}
	return insts
}

func (r *reader) tokens() []SignatureToken {
	n := r.count()
	toks := make([]SignatureToken, 0, n)
	for i := 0; i < n && r.ok(); i++ {
		toks = append(toks, r.token(0))
	}
	return toks
}

func (r *reader) token(depth int) SignatureToken {
	if !r.ok() {
		return SignatureToken{}
	}
	if depth > consts.MaxTypeDepth {
		r.fail(ErrTypeTooDeep)
		return SignatureToken{}
	}
	t := SignatureToken{Kind: TokenKind(r.p.UnpackByte())}
	if r.p.Errored() {
		return t
	}
	if !t.Kind.valid() {
		r.fail(fmt.Errorf("%w: %d", ErrUnknownTokenKind, t.Kind))
		return t
	}
	switch t.Kind {
	case StructKind:
		t.StructHandle = r.p.UnpackShort()
		n := r.count()
		if n > 0 {
			t.TypeArgs = make([]SignatureToken, 0, n)
		}
		for i := 0; i < n && r.ok(); i++ {
			t.TypeArgs = append(t.TypeArgs, r.token(depth+1))
		}
	case ReferenceKind, MutableReferenceKind:
		elem := r.token(depth + 1)
		t.Elem = &elem
	case TypeParameterKind:
		t.TypeParam = r.p.UnpackShort()
	}
	return t
}

func (r *reader) code() []Instruction {
	n := r.count()
	code := make([]Instruction, 0, n)
	for i := 0; i < n && r.ok(); i++ {
		inst := Instruction{Op: Opcode(r.p.UnpackByte())}
		if r.p.Errored() {
			break
		}
		if !inst.Op.Valid() {
			r.fail(fmt.Errorf("%w: %d at offset %d", ErrUnknownOpcode, inst.Op, i))
			break
		}
		switch inst.Op.Operand() {
		case U8Operand:
			inst.Arg = uint64(r.p.UnpackByte())
		case U16Operand:
			inst.Arg = uint64(r.p.UnpackShort())
		case U64Operand:
			inst.Arg = r.p.UnpackLong()
		case U128Operand:
			inst.Data = r.p.UnpackFixedBytes(consts.Uint128Len)
		case AddressOperand:
			inst.Data = r.p.UnpackFixedBytes(codec.AddressLen)
		case BytesOperand:
			inst.Data = r.p.UnpackLimitedBytes(consts.MaxBinarySize)
		}
		code = append(code, inst)
	}
	return code
}

func (r *reader) finish() error {
	if r.err != nil {
		return r.err
	}
	if r.p.Errored() {
		return fmt.Errorf("%w: %w", ErrMalformed, r.p.Err)
	}
	if r.p.Offset != len(r.p.Bytes) {
		return fmt.Errorf("%w: %d", ErrTrailingBytes, len(r.p.Bytes)-r.p.Offset)
	}
	return nil
}
