// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/ava-labs/stackvm/bytecode"
	"github.com/ava-labs/stackvm/consts"
	"github.com/ava-labs/stackvm/state"
	"github.com/ava-labs/stackvm/types"
)

// Instantiation is a function with concrete type arguments applied to its
// signature and locals.
type Instantiation struct {
	Function   *Function
	TypeArgs   []types.Type
	Parameters []types.Type
	Returns    []types.Type
	Locals     []types.Type
	// TypeNodes is the number of type nodes in TypeArgs.
	TypeNodes uint64
}

// StructLayout is a struct applied to concrete type arguments.
type StructLayout struct {
	Type   types.Type
	Fields []types.Type
}

func instantiationKey(name string, typeArgs []types.Type) string {
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteByte('<')
	for i, arg := range typeArgs {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(arg.String())
	}
	sb.WriteByte('>')
	return sb.String()
}

func substAll(ts []types.Type, args []types.Type) []types.Type {
	if len(args) == 0 || len(ts) == 0 {
		return ts
	}
	out := make([]types.Type, len(ts))
	for i, t := range ts {
		out[i] = t.Subst(args)
	}
	return out
}

func typeNodes(ts []types.Type) uint64 {
	var n uint64
	for _, t := range ts {
		n++
		switch t.Kind {
		case types.StructType:
			n += typeNodes(t.TypeArgs)
		case types.ReferenceType, types.MutableReferenceType:
			n += typeNodes([]types.Type{*t.Elem})
		}
	}
	return n
}

// InstantiateFunction returns [fn] applied to [typeArgs]. Results are
// memoized per function and type argument list. A memoized entry built for
// another [*Function] of the same name, as left behind by a module upgrade
// across [Loader.Reset], is replaced.
func (l *Loader) InstantiateFunction(fn *Function, typeArgs []types.Type) *Instantiation {
	if len(typeArgs) != int(fn.TypeParameters) {
		types.Violation("%s expects %d type arguments, got %d", fn, fn.TypeParameters, len(typeArgs))
	}
	l.resetL.RLock()
	defer l.resetL.RUnlock()

	key := instantiationKey(fn.String(), typeArgs)
	if inst, ok := l.functions.Get(key); ok && inst.Function == fn {
		return inst
	}
	inst := &Instantiation{
		Function:   fn,
		TypeArgs:   typeArgs,
		Parameters: substAll(fn.Parameters, typeArgs),
		Returns:    substAll(fn.Returns, typeArgs),
		Locals:     substAll(fn.Locals, typeArgs),
		TypeNodes:  typeNodes(typeArgs),
	}
	l.functions.Put(key, inst)
	return inst
}

// InstantiateStruct returns [def] applied to [typeArgs]. Results are
// memoized per struct and type argument list, and replaced like those of
// [Loader.InstantiateFunction] when [def] is not the definition they were
// built from.
func (l *Loader) InstantiateStruct(def *types.StructDef, typeArgs []types.Type) *StructLayout {
	if len(typeArgs) != int(def.TypeParameters) {
		types.Violation("%s expects %d type arguments, got %d", def.Tag(), def.TypeParameters, len(typeArgs))
	}
	l.resetL.RLock()
	defer l.resetL.RUnlock()

	key := instantiationKey(def.Tag(), typeArgs)
	if layout, ok := l.structs.Get(key); ok && layout.Type.Struct == def {
		return layout
	}
	t := types.NewStructType(def, typeArgs...)
	layout := &StructLayout{Type: t, Fields: t.FieldTypes()}
	l.structs.Put(key, layout)
	return layout
}

// ResolveTag converts a type tag into a runtime type, loading the modules
// declaring the structs it names.
func (l *Loader) ResolveTag(ctx context.Context, view state.View, tag types.TypeTag) (types.Type, error) {
	ctx, span := l.tracer.Start(ctx, "Loader.ResolveTag")
	defer span.End()

	l.resetL.RLock()
	defer l.resetL.RUnlock()

	return l.resolveTag(ctx, view, tag, 0)
}

func (l *Loader) resolveTag(ctx context.Context, view state.View, tag types.TypeTag, depth int) (types.Type, error) {
	if depth > consts.MaxTypeDepth {
		return types.Type{}, fmt.Errorf("%w: too deep", ErrBadTypeTag)
	}
	switch kind := tag.TypeKind(); kind {
	case types.BoolType, types.U8Type, types.U64Type, types.U128Type,
		types.AddressType, types.SignerType, types.BytesType:
		return types.Type{Kind: kind}, nil
	case types.StructType:
	default:
		return types.Type{}, fmt.Errorf("%w: kind %d", ErrBadTypeTag, tag.Kind)
	}

	m, err := l.load(ctx, view, tag.ModuleID(), nil)
	if err != nil {
		return types.Type{}, err
	}
	def, ok := m.Struct(tag.Name)
	if !ok {
		return types.Type{}, fmt.Errorf("%w: %s", ErrMissingDefinition, tag)
	}
	if len(tag.TypeArgs) != int(def.TypeParameters) {
		return types.Type{}, fmt.Errorf("%w: %s expects %d type arguments", ErrBadTypeTag, def.Tag(), def.TypeParameters)
	}
	args := make([]types.Type, len(tag.TypeArgs))
	for i, arg := range tag.TypeArgs {
		if arg.TypeKind() == types.SignerType {
			return types.Type{}, fmt.Errorf("%w: signer type argument", ErrBadTypeTag)
		}
		args[i], err = l.resolveTag(ctx, view, arg, depth+1)
		if err != nil {
			return types.Type{}, err
		}
	}
	return types.NewStructType(def, args...), nil
}

// FunctionByName loads [module] and returns its function [name].
func (l *Loader) FunctionByName(ctx context.Context, view state.View, module bytecode.BinaryID, name string) (*Function, error) {
	m, err := l.Load(ctx, view, module)
	if err != nil {
		return nil, err
	}
	fn, ok := m.Function(name)
	if !ok {
		return nil, linkErrorf(module, "%w: function %s", ErrMissingDefinition, name)
	}
	return fn, nil
}
