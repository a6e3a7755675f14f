package turing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{nil, KindUnknown},
		{errors.New("boom"), KindUnknown},
		{ErrNoWalletFound, KindConnectivity},
		{fmt.Errorf("dial: %w", ErrConnectionLost), KindConnectivity},
		{ErrNetworkMismatch, KindConnectivity},
		{ErrUserRejected, KindAuthorization},
		{fmt.Errorf("send: %w", ErrRejectedBySigner), KindAuthorization},
		{fmt.Errorf("%w: amount must be positive", ErrInvalidInput), KindValidation},
		{ErrVotingClosed, KindValidation},
		{&RevertError{Reason: "voting is off"}, KindChainRejection},
		{&TxError{Err: ErrDropped}, KindIndeterminate},
		{&TxError{Err: ErrStoppedWaiting}, KindIndeterminate},
		{&TxError{Err: fmt.Errorf("receipt: %w", ErrConnectionLost)}, KindConnectivity},
		{&PartialReadError{Participant: "nome1", Err: ErrConnectionLost}, KindConnectivity},
		{&PartialReadError{Participant: "nome1", Err: &RevertError{}}, KindChainRejection},
	}
	for i, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("test %d: KindOf(%v) = %v, want %v", i, tt.err, got, tt.want)
		}
	}
}

func TestPartialReadErrorMatches(t *testing.T) {
	err := fmt.Errorf("refresh: %w", &PartialReadError{Participant: "nome2", Err: context.DeadlineExceeded})
	if !errors.Is(err, ErrPartialReadFailure) {
		t.Fatalf("expected ErrPartialReadFailure match")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected cause to be reachable")
	}
	var pre *PartialReadError
	if !errors.As(err, &pre) || pre.Participant != "nome2" {
		t.Fatalf("unexpected partial read error: %v", pre)
	}
}

func TestTxErrorKeepsHash(t *testing.T) {
	hash := common.HexToHash("0xabc")
	err := &TxError{Hash: hash, Err: ErrStoppedWaiting}
	if errors.Is(err, ErrDropped) {
		t.Fatalf("stopped waiting must not match dropped")
	}
	if !errors.Is(err, ErrStoppedWaiting) {
		t.Fatalf("expected ErrStoppedWaiting match")
	}
	if want := "turing: stopped waiting for confirmation (tx " + hash.Hex() + ")"; err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestRevertErrorMessage(t *testing.T) {
	if msg := (&RevertError{}).Error(); msg != "execution reverted" {
		t.Fatalf("unexpected message: %q", msg)
	}
	if msg := (&RevertError{Reason: "only owner"}).Error(); msg != "execution reverted: only owner" {
		t.Fatalf("unexpected message: %q", msg)
	}
}
