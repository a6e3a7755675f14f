package turing

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Kind classifies a failure so the presentation layer can tell bad input
// apart from a chain rejection or an unknown outcome.
type Kind int

const (
	KindUnknown Kind = iota
	KindConnectivity
	KindAuthorization
	KindValidation
	KindChainRejection
	KindIndeterminate
)

func (k Kind) String() string {
	switch k {
	case KindConnectivity:
		return "connectivity"
	case KindAuthorization:
		return "authorization"
	case KindValidation:
		return "validation"
	case KindChainRejection:
		return "chain rejection"
	case KindIndeterminate:
		return "indeterminate"
	default:
		return "unknown"
	}
}

var (
	// ErrNoWalletFound is returned when no wallet endpoint is configured or reachable.
	ErrNoWalletFound = errors.New("turing: no wallet found")

	// ErrConnectionLost is returned when the transport to the wallet fails mid-session.
	ErrConnectionLost = errors.New("turing: connection lost")

	// ErrNetworkMismatch is returned when the wallet is on a different chain than
	// the configured deployment, or the contract address holds no code.
	ErrNetworkMismatch = errors.New("turing: network mismatch")

	// ErrUserRejected is returned when the user declines account authorization.
	ErrUserRejected = errors.New("turing: user rejected account access")

	// ErrRejectedBySigner is returned when the wallet declines to sign a transaction.
	ErrRejectedBySigner = errors.New("turing: rejected by signer")

	// ErrInvalidInput is returned for malformed local input. It never reaches the network.
	ErrInvalidInput = errors.New("turing: invalid input")

	// ErrVotingClosed is returned when a vote is attempted while voting is inactive.
	ErrVotingClosed = errors.New("turing: voting closed")

	// ErrReverted is matched by every RevertError.
	ErrReverted = errors.New("turing: reverted on chain")

	// ErrDropped is returned when a submitted transaction never confirms
	// within the bounded wait. Its outcome is unknown.
	ErrDropped = errors.New("turing: transaction dropped")

	// ErrStoppedWaiting is returned when the caller abandons a confirmation
	// wait. The transaction itself may still confirm.
	ErrStoppedWaiting = errors.New("turing: stopped waiting for confirmation")

	// ErrPartialReadFailure is matched by every PartialReadError.
	ErrPartialReadFailure = errors.New("turing: partial read failure")
)

// RevertError is a state transition rejected by the contract's own logic.
type RevertError struct {
	Reason string // decoded Error(string) reason, empty if none
	Data   []byte // raw revert payload
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "execution reverted"
	}
	return "execution reverted: " + e.Reason
}

func (e *RevertError) Is(target error) bool { return target == ErrReverted }

// TxError reports a submitted transaction whose outcome is not known.
type TxError struct {
	Hash common.Hash
	Err  error // ErrDropped, ErrStoppedWaiting or a connection failure
}

func (e *TxError) Error() string {
	return fmt.Sprintf("%v (tx %s)", e.Err, e.Hash.Hex())
}

func (e *TxError) Unwrap() error { return e.Err }

// PartialReadError fails a whole aggregation because one read failed.
type PartialReadError struct {
	Participant string
	Err         error
}

func (e *PartialReadError) Error() string {
	return fmt.Sprintf("%v: participant %q: %v", ErrPartialReadFailure, e.Participant, e.Err)
}

func (e *PartialReadError) Is(target error) bool { return target == ErrPartialReadFailure }

func (e *PartialReadError) Unwrap() error { return e.Err }

// KindOf classifies err. A PartialReadError takes the kind of its cause.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrVotingClosed):
		return KindValidation
	case errors.Is(err, ErrReverted):
		return KindChainRejection
	case errors.Is(err, ErrDropped), errors.Is(err, ErrStoppedWaiting):
		return KindIndeterminate
	case errors.Is(err, ErrUserRejected), errors.Is(err, ErrRejectedBySigner):
		return KindAuthorization
	case errors.Is(err, ErrNoWalletFound), errors.Is(err, ErrConnectionLost), errors.Is(err, ErrNetworkMismatch):
		return KindConnectivity
	}
	return KindUnknown
}
