package turingtest

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/tos-network/turing/walletclient"
)

type rpcError struct {
	msg  string
	code int
	data interface{}
}

func (e *rpcError) Error() string          { return e.msg }
func (e *rpcError) ErrorCode() int         { return e.code }
func (e *rpcError) ErrorData() interface{} { return e.data }

var (
	errUserRejected = &rpcError{msg: "User rejected the request.", code: walletclient.CodeUserRejected}
	errReadFailure  = &rpcError{msg: "missing trie node", code: -32603}
)

func toRPCError(err error) error {
	if rev, ok := err.(*revertError); ok {
		return &rpcError{
			msg:  rev.Error(),
			code: walletclient.CodeExecutionError,
			data: hexutil.Encode(encodeRevert(rev.reason)),
		}
	}
	if err == errReadFailed {
		return errReadFailure
	}
	return err
}

// ethService exposes the chain under the "eth" namespace.
type ethService struct {
	c *Chain
}

func (s *ethService) RequestAccounts() ([]common.Address, error) {
	s.c.count("eth_requestAccounts")
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.rejectAccounts {
		return nil, errUserRejected
	}
	return append([]common.Address{}, s.c.accounts...), nil
}

func (s *ethService) Accounts() []common.Address {
	s.c.count("eth_accounts")
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.rejectAccounts {
		return []common.Address{}
	}
	return append([]common.Address{}, s.c.accounts...)
}

func (s *ethService) ChainId() *hexutil.Big {
	s.c.count("eth_chainId")
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return (*hexutil.Big)(new(big.Int).Set(s.c.chainID))
}

func (s *ethService) GetCode(address common.Address, block string) hexutil.Bytes {
	s.c.count("eth_getCode")
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.noCode || address != ContractAddress {
		return hexutil.Bytes{}
	}
	return hexutil.Bytes{0x60, 0x80, 0x60, 0x40}
}

func (s *ethService) Call(args walletclient.TransactionArgs, block string) (hexutil.Bytes, error) {
	s.c.count("eth_call")
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if args.To == nil || *args.To != ContractAddress || s.c.noCode {
		return hexutil.Bytes{}, nil
	}
	out, err := s.c.execute(args.Sender(), args.Calldata(), false)
	if err != nil {
		return nil, toRPCError(err)
	}
	return out, nil
}

func (s *ethService) SendTransaction(args walletclient.TransactionArgs) (common.Hash, error) {
	s.c.count("eth_sendTransaction")
	if err := args.Validate(); err != nil {
		return common.Hash{}, err
	}
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.rejectSigning {
		return common.Hash{}, errUserRejected
	}
	if s.c.preflightReverts {
		if _, err := s.c.execute(args.Sender(), args.Calldata(), false); err != nil {
			return common.Hash{}, toRPCError(err)
		}
	}
	s.c.nonce++
	tx := &simTx{
		hash: crypto.Keccak256Hash(args.Sender().Bytes(), args.Calldata(), big.NewInt(int64(s.c.nonce)).Bytes()),
		from: args.Sender(),
		data: args.Calldata(),
	}
	switch {
	case s.c.dropAll:
	case s.c.holdReceipts:
		s.c.held = append(s.c.held, tx)
	default:
		s.c.include(tx)
	}
	return tx.hash, nil
}

func (s *ethService) GetTransactionReceipt(hash common.Hash) interface{} {
	s.c.count("eth_getTransactionReceipt")
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	r, ok := s.c.receipts[hash]
	if !ok {
		return nil
	}
	return map[string]interface{}{
		"transactionHash": r.hash,
		"blockHash":       common.BigToHash(new(big.Int).SetUint64(r.block)),
		"blockNumber":     hexutil.Uint64(r.block),
		"status":          hexutil.Uint64(r.status),
		"gasUsed":         hexutil.Uint64(50000),
	}
}

// Server returns a JSON-RPC server serving the chain.
func (c *Chain) Server() (*rpc.Server, error) {
	server := rpc.NewServer()
	if err := server.RegisterName("eth", &ethService{c}); err != nil {
		return nil, err
	}
	return server, nil
}

// Dial returns a wallet client connected in-process to the chain. The
// connection is torn down when the test ends.
func (c *Chain) Dial(t testing.TB) *walletclient.Client {
	t.Helper()
	server, err := c.Server()
	if err != nil {
		t.Fatalf("failed to register eth service: %v", err)
	}
	raw := rpc.DialInProc(server)
	t.Cleanup(func() {
		raw.Close()
		server.Stop()
	})
	return walletclient.NewClient(raw)
}

// Dialer returns a dial function for session.Connect that ignores the URL
// and connects to the chain.
func (c *Chain) Dialer(t testing.TB) func(ctx context.Context, rawurl string) (*walletclient.Client, error) {
	return func(ctx context.Context, rawurl string) (*walletclient.Client, error) {
		return c.Dial(t), nil
	}
}
