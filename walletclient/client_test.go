package walletclient

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/tos-network/turing"
)

type rpcTestError struct {
	msg  string
	code int
	data interface{}
}

func (e rpcTestError) Error() string          { return e.msg }
func (e rpcTestError) ErrorCode() int         { return e.code }
func (e rpcTestError) ErrorData() interface{} { return e.data }

type walletTestService struct {
	accounts []common.Address

	lastCallArgs  TransactionArgs
	lastCallBlock string
	lastSendArgs  TransactionArgs
	lastCodeBlock string
}

func (s *walletTestService) RequestAccounts() []common.Address { return s.accounts }

func (s *walletTestService) ChainId() *hexutil.Big { return (*hexutil.Big)(big.NewInt(31337)) }

func (s *walletTestService) GetCode(address common.Address, block string) hexutil.Bytes {
	s.lastCodeBlock = block
	return hexutil.Bytes{0x60, 0x80}
}

func (s *walletTestService) Call(args TransactionArgs, block string) hexutil.Bytes {
	s.lastCallArgs = args
	s.lastCallBlock = block
	return hexutil.Bytes{0x01, 0x02}
}

func (s *walletTestService) SendTransaction(args TransactionArgs) (common.Hash, error) {
	if err := args.Validate(); err != nil {
		return common.Hash{}, err
	}
	s.lastSendArgs = args
	return common.HexToHash("0x1234"), nil
}

func (s *walletTestService) GetTransactionReceipt(hash common.Hash) interface{} {
	if hash != common.HexToHash("0x1234") {
		return nil
	}
	return map[string]interface{}{
		"transactionHash": hash,
		"blockHash":       common.HexToHash("0xb10c"),
		"blockNumber":     hexutil.Uint64(7),
		"status":          hexutil.Uint64(1),
		"gasUsed":         hexutil.Uint64(21000),
	}
}

func newWalletTestClient(t *testing.T) (*Client, *walletTestService, func()) {
	t.Helper()
	service := &walletTestService{
		accounts: []common.Address{common.HexToAddress("0x00000000000000000000000000000000000000aa")},
	}
	server := rpc.NewServer()
	if err := server.RegisterName("eth", service); err != nil {
		t.Fatalf("failed to register eth service: %v", err)
	}
	raw := rpc.DialInProc(server)
	client := NewClient(raw)
	return client, service, func() {
		raw.Close()
		server.Stop()
	}
}

func TestAccountsAndChain(t *testing.T) {
	client, svc, cleanup := newWalletTestClient(t)
	defer cleanup()

	ctx := context.Background()
	accounts, err := client.RequestAccounts(ctx)
	if err != nil {
		t.Fatalf("RequestAccounts error: %v", err)
	}
	if len(accounts) != 1 || accounts[0] != svc.accounts[0] {
		t.Fatalf("unexpected accounts: %v", accounts)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		t.Fatalf("ChainID error: %v", err)
	}
	if chainID.Cmp(big.NewInt(31337)) != 0 {
		t.Fatalf("unexpected chain id: %v", chainID)
	}
	code, err := client.CodeAt(ctx, common.HexToAddress("0x01"), big.NewInt(-1))
	if err != nil || len(code) != 2 {
		t.Fatalf("unexpected code: %x, %v", code, err)
	}
	if svc.lastCodeBlock != "pending" {
		t.Fatalf("CodeAt block arg = %q, want pending", svc.lastCodeBlock)
	}
}

func TestCallAndSend(t *testing.T) {
	client, svc, cleanup := newWalletTestClient(t)
	defer cleanup()

	ctx := context.Background()
	from := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	to := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

	out, err := client.CallContract(ctx, turing.CallMsg{From: from, To: &to, Data: []byte{0xde, 0xad}}, big.NewInt(15))
	if err != nil {
		t.Fatalf("CallContract error: %v", err)
	}
	if len(out) != 2 || out[0] != 0x01 {
		t.Fatalf("unexpected call output: %x", out)
	}
	if svc.lastCallBlock != "0xf" {
		t.Fatalf("CallContract block arg = %q, want 0xf", svc.lastCallBlock)
	}
	if got := svc.lastCallArgs.Calldata(); len(got) != 2 || got[1] != 0xad {
		t.Fatalf("calldata was not forwarded: %x", got)
	}

	hash, err := client.SendTransaction(ctx, turing.CallMsg{From: from, To: &to, Data: []byte{0xbe, 0xef}})
	if err != nil {
		t.Fatalf("SendTransaction error: %v", err)
	}
	if hash != common.HexToHash("0x1234") {
		t.Fatalf("unexpected hash: %s", hash.Hex())
	}
	if svc.lastSendArgs.Sender() != from || *svc.lastSendArgs.To != to {
		t.Fatalf("send args were not forwarded: %+v", svc.lastSendArgs)
	}

	receipt, err := client.TransactionReceipt(ctx, hash)
	if err != nil {
		t.Fatalf("TransactionReceipt error: %v", err)
	}
	if receipt.Status != turing.ReceiptStatusSuccessful || receipt.BlockNumber.Uint64() != 7 || receipt.GasUsed != 21000 {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	if _, err := client.TransactionReceipt(ctx, common.HexToHash("0x99")); !errors.Is(err, turing.NotFound) {
		t.Fatalf("pending receipt error = %v, want NotFound", err)
	}
}

type walletErrorService struct{}

func (s *walletErrorService) RequestAccounts() ([]common.Address, error) {
	return nil, rpcTestError{msg: "User rejected the request.", code: CodeUserRejected}
}

func (s *walletErrorService) Call(args TransactionArgs, block string) (hexutil.Bytes, error) {
	return nil, rpcTestError{msg: "execution reverted", code: CodeExecutionError, data: "0x08c379a0"}
}

type legacyWalletService struct{}

func (s *legacyWalletService) Accounts() []common.Address {
	return []common.Address{common.HexToAddress("0xbb")}
}

func TestErrorPropagation(t *testing.T) {
	server := rpc.NewServer()
	if err := server.RegisterName("eth", &walletErrorService{}); err != nil {
		t.Fatalf("failed to register eth service: %v", err)
	}
	raw := rpc.DialInProc(server)
	client := NewClient(raw)
	defer raw.Close()
	defer server.Stop()

	_, err := client.RequestAccounts(context.Background())
	if ErrorCode(err) != CodeUserRejected {
		t.Fatalf("RequestAccounts error code = %d, want %d", ErrorCode(err), CodeUserRejected)
	}
	if !IsRemote(err) {
		t.Fatalf("expected remote error, got %T", err)
	}

	_, err = client.CallContract(context.Background(), turing.CallMsg{}, nil)
	if ErrorCode(err) != CodeExecutionError {
		t.Fatalf("CallContract error code = %d, want %d", ErrorCode(err), CodeExecutionError)
	}
	if data, ok := ErrorData(err).(string); !ok || data != "0x08c379a0" {
		t.Fatalf("unexpected error data: %v", ErrorData(err))
	}

	if ErrorCode(errors.New("dial tcp: refused")) != 0 || IsRemote(errors.New("eof")) {
		t.Fatalf("local errors must not look remote")
	}
}

func TestRequestAccountsFallback(t *testing.T) {
	server := rpc.NewServer()
	if err := server.RegisterName("eth", &legacyWalletService{}); err != nil {
		t.Fatalf("failed to register eth service: %v", err)
	}
	raw := rpc.DialInProc(server)
	client := NewClient(raw)
	defer raw.Close()
	defer server.Stop()

	accounts, err := client.RequestAccounts(context.Background())
	if err != nil {
		t.Fatalf("RequestAccounts error: %v", err)
	}
	if len(accounts) != 1 || accounts[0] != common.HexToAddress("0xbb") {
		t.Fatalf("unexpected accounts: %v", accounts)
	}
}
