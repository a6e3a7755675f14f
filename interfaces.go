// Package turing defines the types shared by the Turing contract client:
// the error taxonomy and the wallet-facing call messages.
package turing

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// CallMsg contains parameters for contract calls and transactions sent
// through the wallet.
type CallMsg struct {
	From  common.Address  // the sender of the 'transaction'
	To    *common.Address // the destination contract
	Gas   uint64          // if 0, the wallet estimates it
	Value *big.Int        // amount of wei sent along with the call
	Data  []byte          // input data, usually an ABI-encoded contract method invocation
}

// Receipt is the confirmation record of an included transaction.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber *big.Int
	BlockHash   common.Hash
	Status      uint64
	GasUsed     uint64
}

const (
	// ReceiptStatusFailed is the status code of a transaction if execution failed.
	ReceiptStatusFailed = uint64(0)

	// ReceiptStatusSuccessful is the status code of a transaction if execution succeeded.
	ReceiptStatusSuccessful = uint64(1)
)

// NotFound is returned by API methods if the requested item does not exist.
var NotFound = errors.New("not found")
