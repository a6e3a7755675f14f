package walletclient

import (
	"bytes"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/tos-network/turing"
)

// TransactionArgs represents the arguments to construct a new transaction
// or a message call.
type TransactionArgs struct {
	From  *common.Address `json:"from"`
	To    *common.Address `json:"to"`
	Gas   *hexutil.Uint64 `json:"gas,omitempty"`
	Value *hexutil.Big    `json:"value,omitempty"`

	// We accept "data" and "input" for backwards-compatibility reasons.
	// "input" is the newer name and should be preferred by clients.
	Data  *hexutil.Bytes `json:"data,omitempty"`
	Input *hexutil.Bytes `json:"input,omitempty"`
}

// Sender retrieves the transaction sender address.
func (args *TransactionArgs) Sender() common.Address {
	if args.From == nil {
		return common.Address{}
	}
	return *args.From
}

// Calldata retrieves the transaction calldata. Input field is preferred.
func (args *TransactionArgs) Calldata() []byte {
	if args.Input != nil {
		return *args.Input
	}
	if args.Data != nil {
		return *args.Data
	}
	return nil
}

// Validate rejects argument sets a wallet would refuse to sign.
func (args *TransactionArgs) Validate() error {
	if args.Data != nil && args.Input != nil && !bytes.Equal(*args.Data, *args.Input) {
		return errors.New(`both "data" and "input" are set and not equal. Please use "input" to pass transaction call data`)
	}
	if args.To == nil {
		return errors.New("contract creation is not supported")
	}
	return nil
}

func toTransactionArgs(msg turing.CallMsg) TransactionArgs {
	from := msg.From
	args := TransactionArgs{
		From: &from,
		To:   msg.To,
	}
	if len(msg.Data) > 0 {
		input := hexutil.Bytes(msg.Data)
		args.Input = &input
	}
	if msg.Value != nil {
		args.Value = (*hexutil.Big)(msg.Value)
	}
	if msg.Gas != 0 {
		gas := hexutil.Uint64(msg.Gas)
		args.Gas = &gas
	}
	return args
}
