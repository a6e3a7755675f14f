// Package walletclient provides a client for the JSON-RPC API exposed by an
// EIP-1193 wallet endpoint.
package walletclient

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/tos-network/turing"
)

// EIP-1193 and JSON-RPC error codes that carry meaning for callers.
const (
	CodeUserRejected   = 4001   // the user rejected the request
	CodeUnauthorized   = 4100   // the requested account or method is not authorized
	CodeExecutionError = 3      // execution reverted, data holds the revert payload
	CodeServerError    = -32000 // generic server error, used by some nodes for reverts
	CodeMethodNotFound = -32601 // the method does not exist
)

// Client defines typed wrappers for the wallet RPC API.
type Client struct {
	c *rpc.Client
}

// DialContext connects a client to the given URL.
func DialContext(ctx context.Context, rawurl string) (*Client, error) {
	c, err := rpc.DialContext(ctx, rawurl)
	if err != nil {
		return nil, err
	}
	return NewClient(c), nil
}

// NewClient creates a client that uses the given RPC client.
func NewClient(c *rpc.Client) *Client {
	return &Client{c}
}

func (wc *Client) Close() {
	wc.c.Close()
}

// Accounts and chain identity

// RequestAccounts asks the wallet to authorize this client and returns the
// accounts it may act for. Wallets without eth_requestAccounts are asked
// for eth_accounts instead.
func (wc *Client) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	var result []common.Address
	err := wc.c.CallContext(ctx, &result, "eth_requestAccounts")
	if ErrorCode(err) == CodeMethodNotFound {
		return wc.Accounts(ctx)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Accounts returns the accounts already authorized for this client.
func (wc *Client) Accounts(ctx context.Context) ([]common.Address, error) {
	var result []common.Address
	if err := wc.c.CallContext(ctx, &result, "eth_accounts"); err != nil {
		return nil, err
	}
	return result, nil
}

// ChainID retrieves the chain ID the wallet is currently connected to.
func (wc *Client) ChainID(ctx context.Context) (*big.Int, error) {
	var result hexutil.Big
	err := wc.c.CallContext(ctx, &result, "eth_chainId")
	if err != nil {
		return nil, err
	}
	return (*big.Int)(&result), err
}

// CodeAt returns the contract code of the given account.
// The block number can be nil, in which case the code is taken from the latest known block.
func (wc *Client) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	var result hexutil.Bytes
	err := wc.c.CallContext(ctx, &result, "eth_getCode", account, toBlockNumArg(blockNumber))
	return result, err
}

// Contract Calling

// CallContract executes a message call transaction, which is directly executed in the VM
// of the node, but never mined into the blockchain.
//
// blockNumber selects the block height at which the call runs. It can be nil, in which
// case the code is taken from the latest known block.
func (wc *Client) CallContract(ctx context.Context, msg turing.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var hex hexutil.Bytes
	err := wc.c.CallContext(ctx, &hex, "eth_call", toTransactionArgs(msg), toBlockNumArg(blockNumber))
	if err != nil {
		return nil, err
	}
	return hex, nil
}

// Transactions

// SendTransaction hands an unsigned transaction to the wallet, which signs
// and broadcasts it. The returned hash identifies the submission; it does
// not mean the transaction was included.
func (wc *Client) SendTransaction(ctx context.Context, msg turing.CallMsg) (common.Hash, error) {
	var hash common.Hash
	err := wc.c.CallContext(ctx, &hash, "eth_sendTransaction", toTransactionArgs(msg))
	return hash, err
}

// TransactionReceipt returns the receipt of a transaction by transaction hash.
// Note that the receipt is not available for pending transactions.
func (wc *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*turing.Receipt, error) {
	var r *rpcReceipt
	err := wc.c.CallContext(ctx, &r, "eth_getTransactionReceipt", txHash)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, turing.NotFound
	}
	return r.toReceipt(), nil
}

// ErrorCode returns the JSON-RPC error code carried by err, or 0 if err did
// not come from the remote side.
func ErrorCode(err error) int {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode()
	}
	return 0
}

// ErrorData returns the data field of a JSON-RPC error, if any.
func ErrorData(err error) interface{} {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		return dataErr.ErrorData()
	}
	return nil
}

// IsRemote reports whether err is an error response produced by the wallet,
// as opposed to a transport failure.
func IsRemote(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr)
}

func toBlockNumArg(number *big.Int) string {
	if number == nil {
		return "latest"
	}
	pending := big.NewInt(-1)
	if number.Cmp(pending) == 0 {
		return "pending"
	}
	return hexutil.EncodeBig(number)
}

type rpcReceipt struct {
	TxHash      common.Hash    `json:"transactionHash"`
	BlockHash   common.Hash    `json:"blockHash"`
	BlockNumber *hexutil.Big   `json:"blockNumber"`
	Status      hexutil.Uint64 `json:"status"`
	GasUsed     hexutil.Uint64 `json:"gasUsed"`
}

func (r *rpcReceipt) toReceipt() *turing.Receipt {
	var number *big.Int
	if r.BlockNumber != nil {
		number = new(big.Int).Set((*big.Int)(r.BlockNumber))
	}
	return &turing.Receipt{
		TxHash:      r.TxHash,
		BlockHash:   r.BlockHash,
		BlockNumber: number,
		Status:      uint64(r.Status),
		GasUsed:     uint64(r.GasUsed),
	}
}
