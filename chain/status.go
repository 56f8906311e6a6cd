// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import "fmt"

// StatusCode is the terminal classification of a transaction.
type StatusCode uint8

const (
	Executed StatusCode = iota
	MoveAbort
	OutOfGas
	VerificationError
	ExecutionFailure
	Discard
)

func (c StatusCode) String() string {
	switch c {
	case Executed:
		return "Executed"
	case MoveAbort:
		return "MoveAbort"
	case OutOfGas:
		return "OutOfGas"
	case VerificationError:
		return "VerificationError"
	case ExecutionFailure:
		return "ExecutionFailure"
	case Discard:
		return "Discard"
	default:
		return fmt.Sprintf("StatusCode(%d)", uint8(c))
	}
}

// DiscardReason explains why a transaction was dropped without effect.
type DiscardReason uint8

const (
	NoDiscard DiscardReason = iota
	SequenceNumberTooOld
	SequenceNumberTooNew
	InsufficientBalanceForTransactionFee
	InvalidAuthKey
	InvalidSignature
	SendingAccountDoesNotExist
	ExceededMaxTransactionSize
	MaxGasUnitsExceedsMaxGasUnitsBound
	MaxGasUnitsBelowMinTransactionGasUnits
	GasUnitPriceBelowMinBound
	GasUnitPriceAboveMaxBound
	StorageError
	UnknownScriptArgument
	UnknownValidationFailure
)

var discardReasons = [...]string{
	NoDiscard:                              "None",
	SequenceNumberTooOld:                   "SequenceNumberTooOld",
	SequenceNumberTooNew:                   "SequenceNumberTooNew",
	InsufficientBalanceForTransactionFee:   "InsufficientBalanceForTransactionFee",
	InvalidAuthKey:                         "InvalidAuthKey",
	InvalidSignature:                       "InvalidSignature",
	SendingAccountDoesNotExist:             "SendingAccountDoesNotExist",
	ExceededMaxTransactionSize:             "ExceededMaxTransactionSize",
	MaxGasUnitsExceedsMaxGasUnitsBound:     "MaxGasUnitsExceedsMaxGasUnitsBound",
	MaxGasUnitsBelowMinTransactionGasUnits: "MaxGasUnitsBelowMinTransactionGasUnits",
	GasUnitPriceBelowMinBound:              "GasUnitPriceBelowMinBound",
	GasUnitPriceAboveMaxBound:              "GasUnitPriceAboveMaxBound",
	StorageError:                           "StorageError",
	UnknownScriptArgument:                  "UnknownScriptArgument",
	UnknownValidationFailure:               "UnknownValidationFailure",
}

func (r DiscardReason) String() string {
	if int(r) < len(discardReasons) {
		return discardReasons[r]
	}
	return fmt.Sprintf("DiscardReason(%d)", uint8(r))
}

// VMStatus is the outcome reported for a transaction. AbortCode and
// Location are set for [MoveAbort]. Location and Message name the failing
// binary item and the check it broke for [VerificationError]. Reason is set
// for [Discard].
type VMStatus struct {
	Code      StatusCode
	AbortCode uint64
	Location  string
	Message   string
	Reason    DiscardReason
}

func (s VMStatus) String() string {
	switch s.Code {
	case MoveAbort:
		return fmt.Sprintf("MoveAbort(%d) in %s", s.AbortCode, s.Location)
	case VerificationError:
		if s.Message == "" {
			return s.Code.String()
		}
		return fmt.Sprintf("VerificationError(%s) in %s", s.Message, s.Location)
	case Discard:
		return "Discard(" + s.Reason.String() + ")"
	default:
		return s.Code.String()
	}
}

func discard(reason DiscardReason) VMStatus {
	return VMStatus{Code: Discard, Reason: reason}
}

// Phase is a state of the transaction pipeline. Finalized, Discarded and
// Aborted are terminal.
type Phase uint8

const (
	Prologue Phase = iota
	Main
	Epilogue
	Finalized
	Discarded
	Aborted
)

func (p Phase) String() string {
	switch p {
	case Prologue:
		return "Prologue"
	case Main:
		return "Main"
	case Epilogue:
		return "Epilogue"
	case Finalized:
		return "Finalized"
	case Discarded:
		return "Discarded"
	case Aborted:
		return "Aborted"
	default:
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
}
