// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/stackvm/bytecode"
	"github.com/ava-labs/stackvm/codec"
	"github.com/ava-labs/stackvm/consts"
)

var (
	ErrInvalidAccessPath = errors.New("invalid access path")
	ErrUnknownPathKind   = errors.New("unknown access path kind")
)

const maxTagLen = 4096

type PathKind uint8

const (
	ResourceKind PathKind = iota + 1
	CodeKind
)

func (k PathKind) String() string {
	switch k {
	case ResourceKind:
		return "resource"
	case CodeKind:
		return "code"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// AccessPath addresses one cell of ledger state: either a published module
// or a resource stored under an account. [Fields] optionally narrows the
// path to a nested field of a resource.
type AccessPath struct {
	Address codec.Address
	Kind    PathKind
	Tag     string
	Fields  []uint16
}

// ResourcePath is the location of the resource with struct tag [tag] under
// [addr].
func ResourcePath(addr codec.Address, tag string) AccessPath {
	return AccessPath{Address: addr, Kind: ResourceKind, Tag: tag}
}

// CodePath is the location of the module [id].
func CodePath(id bytecode.BinaryID) AccessPath {
	return AccessPath{Address: id.Address, Kind: CodeKind, Tag: id.Name}
}

// Key returns the canonical storage key:
// address || kind || len(tag) || tag || len(fields) || fields.
func (p AccessPath) Key() []byte {
	size := codec.AddressLen + consts.ByteLen + consts.Uint16Len + len(p.Tag)
	if len(p.Fields) > 0 {
		size += consts.Uint16Len * (1 + len(p.Fields))
	}
	packer := wrappers.Packer{Bytes: make([]byte, 0, size), MaxSize: size}
	packer.PackFixedBytes(p.Address[:])
	packer.PackByte(byte(p.Kind))
	packer.PackStr(p.Tag)
	if len(p.Fields) > 0 {
		packer.PackShort(uint16(len(p.Fields)))
		for _, f := range p.Fields {
			packer.PackShort(f)
		}
	}
	return packer.Bytes
}

func (p AccessPath) String() string {
	if len(p.Fields) == 0 {
		return fmt.Sprintf("%s/%s/%s", p.Address, p.Kind, p.Tag)
	}
	return fmt.Sprintf("%s/%s/%s%v", p.Address, p.Kind, p.Tag, p.Fields)
}

// ParseAccessPath is the inverse of [AccessPath.Key].
func ParseAccessPath(key []byte) (AccessPath, error) {
	packer := wrappers.Packer{Bytes: key, MaxSize: len(key)}
	var p AccessPath
	copy(p.Address[:], packer.UnpackFixedBytes(codec.AddressLen))
	p.Kind = PathKind(packer.UnpackByte())
	p.Tag = packer.UnpackLimitedStr(maxTagLen)
	if packer.Err == nil && packer.Offset < len(key) {
		n := packer.UnpackShort()
		if n == 0 {
			return AccessPath{}, fmt.Errorf("%w: empty field list", ErrInvalidAccessPath)
		}
		p.Fields = make([]uint16, n)
		for i := range p.Fields {
			p.Fields[i] = packer.UnpackShort()
		}
	}
	if packer.Err != nil {
		return AccessPath{}, fmt.Errorf("%w: %w", ErrInvalidAccessPath, packer.Err)
	}
	if packer.Offset != len(key) {
		return AccessPath{}, fmt.Errorf("%w: %d trailing bytes", ErrInvalidAccessPath, len(key)-packer.Offset)
	}
	if p.Kind != ResourceKind && p.Kind != CodeKind {
		return AccessPath{}, fmt.Errorf("%w: %d", ErrUnknownPathKind, p.Kind)
	}
	return p, nil
}
