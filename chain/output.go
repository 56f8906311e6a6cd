// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/stackvm/consts"
	"github.com/ava-labs/stackvm/state"
	"github.com/ava-labs/stackvm/types"
)

// TransactionOutput is everything a caller needs to apply a transaction:
// the writes to commit, the events to index and the gas to report.
type TransactionOutput struct {
	// Phase is the terminal phase reached: [Finalized], [Aborted] or
	// [Discarded].
	Phase    Phase
	WriteSet state.WriteSet
	Events   []types.Event
	GasUsed  uint64
	Status   VMStatus
}

// Bytes is the canonical encoding of [o]. Equal outputs have identical
// encodings.
func (o *TransactionOutput) Bytes() ([]byte, error) {
	ws := o.WriteSet.Bytes()
	size := consts.ByteLen*3 + consts.Uint64Len*2 + strLen(o.Status.Location) +
		strLen(o.Status.Message) + bytesLen(ws) + consts.IntLen
	for _, ev := range o.Events {
		size += bytesLen(ev.Key) + consts.Uint64Len + strLen(ev.Type.String()) + bytesLen(ev.Data)
	}
	p := wrappers.Packer{Bytes: make([]byte, 0, size), MaxSize: size}
	p.PackByte(byte(o.Phase))
	p.PackByte(byte(o.Status.Code))
	p.PackLong(o.Status.AbortCode)
	p.PackStr(o.Status.Location)
	p.PackStr(o.Status.Message)
	p.PackByte(byte(o.Status.Reason))
	p.PackLong(o.GasUsed)
	p.PackBytes(ws)
	p.PackInt(uint32(len(o.Events)))
	for _, ev := range o.Events {
		p.PackBytes(ev.Key)
		p.PackLong(ev.SequenceNumber)
		p.PackStr(ev.Type.String())
		p.PackBytes(ev.Data)
	}
	return p.Bytes, p.Err
}

func bytesLen(b []byte) int { return consts.IntLen + len(b) }

func strLen(s string) int { return consts.Uint16Len + len(s) }
