// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package interpreter

import (
	"fmt"
	"slices"

	"golang.org/x/exp/maps"

	"github.com/ava-labs/stackvm/codec"
	"github.com/ava-labs/stackvm/loader"
	"github.com/ava-labs/stackvm/state"
	"github.com/ava-labs/stackvm/types"
)

// global is a resource read or written during execution. A nil value means
// the resource does not exist (or was moved out).
type global struct {
	key     string
	layout  types.Type
	value   types.Value
	existed bool
	dirty   bool
}

// global returns the cached resource of type [layout] under [addr], reading
// it from the view on first access.
func (m *machine) global(layout *loader.StructLayout, addr codec.Address) (*global, error) {
	path := state.ResourcePath(addr, layout.Type.String())
	key := string(path.Key())
	if g, ok := m.globals[key]; ok {
		return g, nil
	}
	if err := m.meter.Charge(m.schedule.GlobalRead); err != nil {
		return nil, err
	}
	b, ok, err := state.Get(m.ctx, m.view, path)
	if err != nil {
		return nil, err
	}
	g := &global{key: key, layout: layout.Type}
	if ok {
		if err := m.chargeBytes(uint64(len(b))); err != nil {
			return nil, err
		}
		v, err := types.Deserialize(layout.Type, b)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCorruptStorage, path, err)
		}
		g.value = v
		g.existed = true
	}
	m.globals[key] = g
	return g, nil
}

func (m *machine) markDirty(g *global) error {
	if g.dirty {
		return nil
	}
	if err := m.meter.Charge(m.schedule.GlobalWrite); err != nil {
		return err
	}
	g.dirty = true
	return nil
}

// flush writes every changed resource to the view in key order.
func (m *machine) flush() error {
	keys := maps.Keys(m.globals)
	slices.Sort(keys)
	for _, k := range keys {
		g := m.globals[k]
		if !g.dirty {
			continue
		}
		if g.value == nil {
			if !g.existed {
				continue
			}
			if err := m.view.Remove(m.ctx, []byte(k)); err != nil {
				return err
			}
			continue
		}
		b, err := types.Serialize(g.value)
		if err != nil {
			return err
		}
		if err := m.view.Insert(m.ctx, []byte(k), b); err != nil {
			return err
		}
	}
	return nil
}

// root returns the slot holding the root of a reference.
func (m *machine) root(loc types.Location) (*types.Value, *global) {
	switch loc := loc.(type) {
	case types.LocalLocation:
		f := m.frameByID(loc.Frame)
		if int(loc.Slot) >= len(f.locals) {
			types.Violation("reference to slot %d of %s", loc.Slot, f.fn)
		}
		return &f.locals[loc.Slot], nil
	case types.GlobalLocation:
		g, ok := m.globals[loc.Key]
		if !ok {
			types.Violation("reference to unloaded %s", loc)
		}
		return &g.value, g
	default:
		types.Violation("unknown location %T", loc)
		return nil, nil
	}
}

func walk(v types.Value, path []uint16) types.Value {
	for _, idx := range path {
		s, ok := v.(*types.Struct)
		if !ok || int(idx) >= len(s.Fields) {
			types.Violation("bad field path %v", path)
		}
		v = s.Fields[idx]
	}
	return v
}

// deref returns the value [ref] points to, without copying it.
func (m *machine) deref(ref types.Reference) types.Value {
	slot, _ := m.root(ref.Root)
	if *slot == nil {
		types.Violation("dangling reference %s", ref)
	}
	return walk(*slot, ref.Path)
}

func (m *machine) write(ref types.Reference, v types.Value) error {
	if !ref.Mutable {
		types.Violation("write through immutable reference %s", ref)
	}
	slot, g := m.root(ref.Root)
	if *slot == nil {
		types.Violation("dangling reference %s", ref)
	}
	if g != nil {
		if err := m.markDirty(g); err != nil {
			return err
		}
	}
	if len(ref.Path) == 0 {
		*slot = v
		return nil
	}
	parent, ok := walk(*slot, ref.Path[:len(ref.Path)-1]).(*types.Struct)
	last := ref.Path[len(ref.Path)-1]
	if !ok || int(last) >= len(parent.Fields) {
		types.Violation("bad field path %v", ref.Path)
	}
	parent.Fields[last] = v
	return nil
}
