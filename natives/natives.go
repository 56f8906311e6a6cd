// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package natives binds functions declared native in a module to host
// implementations.
package natives

import (
	"errors"
	"fmt"

	"github.com/ava-labs/stackvm/bytecode"
	"github.com/ava-labs/stackvm/codec"
	"github.com/ava-labs/stackvm/types"
)

var (
	ErrDuplicateNative = errors.New("duplicate native function")
	ErrBadArguments    = errors.New("bad native arguments")
)

// StdlibAddress is the address system modules are published under.
var StdlibAddress = codec.ShortAddress(1)

// Context is the view of the running interpreter a native function gets.
type Context interface {
	// Charge consumes [bytes] of value-dependent native work.
	Charge(bytes uint64) error
	// ReadRef returns a copy of the value [ref] points to.
	ReadRef(ref types.Reference) types.Value
	// Emit appends an event to the transaction output.
	Emit(key []byte, tag types.TypeTag, data []byte) error
}

// Function is a host implementation. It receives the instantiated type
// arguments and the arguments in parameter order.
type Function func(ctx Context, typeArgs []types.Type, args []types.Value) ([]types.Value, error)

// HostFunction is a native with the flat cost charged before it runs.
type HostFunction struct {
	Cost     uint64
	Function Function
}

// ImportModule groups the natives of one module.
type ImportModule struct {
	Name          string
	HostFunctions map[string]HostFunction
}

type Registry struct {
	functions map[string]HostFunction
}

func NewRegistry() *Registry {
	return &Registry{functions: make(map[string]HostFunction)}
}

func key(module bytecode.BinaryID, name string) string {
	return module.String() + "::" + name
}

// Register binds every function of [m] under [address].
func (r *Registry) Register(address codec.Address, m *ImportModule) error {
	id := bytecode.NewBinaryID(address, m.Name)
	for name, fn := range m.HostFunctions {
		k := key(id, name)
		if _, ok := r.functions[k]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateNative, k)
		}
		r.functions[k] = fn
	}
	return nil
}

func (r *Registry) Lookup(module bytecode.BinaryID, name string) (HostFunction, bool) {
	fn, ok := r.functions[key(module, name)]
	return fn, ok
}

// Standard returns a registry holding the system natives.
func Standard() *Registry {
	r := NewRegistry()
	for _, m := range []*ImportModule{
		NewHashModule(),
		NewSignerModule(),
		NewEventModule(),
		NewSignatureModule(),
		NewBytesModule(),
	} {
		if err := r.Register(StdlibAddress, m); err != nil {
			panic(err)
		}
	}
	return r
}

func badArgs(name string, args []types.Value) error {
	return fmt.Errorf("%w: %s%v", ErrBadArguments, name, args)
}
