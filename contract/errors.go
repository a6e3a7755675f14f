package contract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/tos-network/turing"
	"github.com/tos-network/turing/walletclient"
)

const revertPrefix = "execution reverted"

// classify maps a wallet error onto the client's failure taxonomy. Context
// cancellation is passed through untouched so callers can tell it apart.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if !walletclient.IsRemote(err) {
		return fmt.Errorf("%w: %v", turing.ErrConnectionLost, err)
	}
	switch walletclient.ErrorCode(err) {
	case walletclient.CodeUserRejected, walletclient.CodeUnauthorized:
		return fmt.Errorf("%w: %v", turing.ErrRejectedBySigner, err)
	}
	if rev := revertFromRPC(err); rev != nil {
		return rev
	}
	return fmt.Errorf("wallet: %w", err)
}

// revertFromRPC extracts a revert from an RPC error. Geth reports reverts with
// code 3 and the payload as hex data; other nodes use -32000 and put the
// reason in the message only.
func revertFromRPC(err error) *turing.RevertError {
	code := walletclient.ErrorCode(err)
	msg := err.Error()
	if code != walletclient.CodeExecutionError && !strings.Contains(msg, revertPrefix) {
		return nil
	}
	rev := new(turing.RevertError)
	if s, ok := walletclient.ErrorData(err).(string); ok {
		if data, derr := hexutil.Decode(s); derr == nil {
			rev.Data = data
			if reason, uerr := abi.UnpackRevert(data); uerr == nil {
				rev.Reason = reason
				return rev
			}
		}
	}
	if i := strings.Index(msg, revertPrefix+": "); i >= 0 {
		rev.Reason = msg[i+len(revertPrefix)+2:]
	}
	return rev
}
