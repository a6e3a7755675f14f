// Package contract is a typed facade over the Turing token/voting contract.
// It is the only package that issues calls against the chain.
package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/tos-network/turing"
	"golang.org/x/time/rate"
)

// Backend is the wallet capability the client needs. walletclient.Client
// implements it.
type Backend interface {
	CallContract(ctx context.Context, msg turing.CallMsg, blockNumber *big.Int) ([]byte, error)
	SendTransaction(ctx context.Context, msg turing.CallMsg) (common.Hash, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*turing.Receipt, error)
}

// Config binds a client to one deployment and one signing account.
type Config struct {
	Address  common.Address // deployed contract
	From     common.Address // account the wallet signs for
	ABI      *abi.ABI       // nil selects the embedded Turing ABI
	ReadRate float64        // read calls per second, 0 disables throttling
}

// Submission is the handle of a transaction the wallet accepted for
// broadcast. It says nothing about inclusion.
type Submission struct {
	Hash   common.Hash
	Method string
	From   common.Address
	Data   []byte
}

// Client issues read and write calls against the Turing contract.
type Client struct {
	backend Backend
	abi     *abi.ABI
	getter  string // voting flag getter, empty if the ABI has none
	address common.Address
	from    common.Address
	limiter *rate.Limiter
	log     log.Logger
}

// New creates a contract client.
func New(backend Backend, cfg Config) *Client {
	parsed := cfg.ABI
	if parsed == nil {
		parsed = DefaultABI()
	}
	c := &Client{
		backend: backend,
		abi:     parsed,
		getter:  votingGetter(parsed),
		address: cfg.Address,
		from:    cfg.From,
		log:     log.New("contract", cfg.Address),
	}
	if cfg.ReadRate > 0 {
		burst := int(cfg.ReadRate)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.ReadRate), burst)
	}
	return c
}

// Address returns the contract address the client is bound to.
func (c *Client) Address() common.Address { return c.address }

// From returns the signing account.
func (c *Client) From() common.Address { return c.from }

// Reads

// Participants returns every registered codinome.
func (c *Client) Participants(ctx context.Context) ([]string, error) {
	out, err := c.call(ctx, nil, MethodGetCodinomes)
	if err != nil {
		return nil, err
	}
	names, ok := out[0].([]string)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected result type %T", MethodGetCodinomes, out[0])
	}
	return names, nil
}

// AddressOf resolves a codinome through the contract registry.
func (c *Client) AddressOf(ctx context.Context, label string) (common.Address, error) {
	out, err := c.call(ctx, nil, MethodCodinomes, label)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%s: unexpected result type %T", MethodCodinomes, out[0])
	}
	return addr, nil
}

// BalanceOf returns the token balance of account in minimal units.
func (c *Client) BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error) {
	out, err := c.call(ctx, nil, MethodBalanceOf, account)
	if err != nil {
		return nil, err
	}
	b, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected result type %T", MethodBalanceOf, out[0])
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return nil, fmt.Errorf("%s: balance %v overflows uint256", MethodBalanceOf, b)
	}
	return v, nil
}

// CanReadVoting reports whether the bound ABI exposes the voting flag.
func (c *Client) CanReadVoting() bool { return c.getter != "" }

// VotingActive reads the on-chain voting flag. It fails with
// ErrNoVotingGetter when the contract has no getter for it.
func (c *Client) VotingActive(ctx context.Context) (bool, error) {
	if c.getter == "" {
		return false, ErrNoVotingGetter
	}
	out, err := c.call(ctx, nil, c.getter)
	if err != nil {
		return false, err
	}
	active, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("%s: unexpected result type %T", c.getter, out[0])
	}
	return active, nil
}

// Writes

// IssueToken mints amount minimal units to the participant.
func (c *Client) IssueToken(ctx context.Context, label string, amount *uint256.Int) (*Submission, error) {
	return c.transact(ctx, MethodIssueToken, label, amount.ToBig())
}

// Vote transfers amount minimal units of the sender's vote to the participant.
func (c *Client) Vote(ctx context.Context, label string, amount *uint256.Int) (*Submission, error) {
	return c.transact(ctx, MethodVote, label, amount.ToBig())
}

// SetVoting switches voting on or off.
func (c *Client) SetVoting(ctx context.Context, enabled bool) (*Submission, error) {
	if enabled {
		return c.transact(ctx, MethodVotingOn)
	}
	return c.transact(ctx, MethodVotingOff)
}

// Confirmation

// Receipt returns the receipt of a submitted transaction, or nil if it has
// not been included yet.
func (c *Client) Receipt(ctx context.Context, hash common.Hash) (*turing.Receipt, error) {
	r, err := c.backend.TransactionReceipt(ctx, hash)
	if errors.Is(err, turing.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	return r, nil
}

// RevertReason replays a failed submission against the state it was
// included on to recover the contract's revert reason. The returned error is
// always a *turing.RevertError; its Reason is empty when the replay does not
// reproduce the failure.
func (c *Client) RevertReason(ctx context.Context, sub *Submission, blockNumber *big.Int) *turing.RevertError {
	var at *big.Int
	if blockNumber != nil && blockNumber.Sign() > 0 {
		at = new(big.Int).Sub(blockNumber, common.Big1)
	}
	_, err := c.backend.CallContract(ctx, turing.CallMsg{From: sub.From, To: &c.address, Data: sub.Data}, at)
	var rev *turing.RevertError
	if errors.As(classify(err), &rev) {
		return rev
	}
	if err != nil {
		c.log.Debug("Revert replay failed", "hash", sub.Hash, "err", err)
	}
	return new(turing.RevertError)
}

func (c *Client) call(ctx context.Context, blockNumber *big.Int, method string, args ...interface{}) ([]interface{}, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	input, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", turing.ErrInvalidInput, method, err)
	}
	output, err := c.backend.CallContract(ctx, turing.CallMsg{From: c.from, To: &c.address, Data: input}, blockNumber)
	if err != nil {
		return nil, classify(err)
	}
	if len(output) == 0 {
		return nil, fmt.Errorf("%w: %s returned no data, no contract code at %s?", turing.ErrNetworkMismatch, method, c.address.Hex())
	}
	out, err := c.abi.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: empty result", method)
	}
	return out, nil
}

func (c *Client) transact(ctx context.Context, method string, args ...interface{}) (*Submission, error) {
	input, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", turing.ErrInvalidInput, method, err)
	}
	hash, err := c.backend.SendTransaction(ctx, turing.CallMsg{From: c.from, To: &c.address, Data: input})
	if err != nil {
		return nil, classify(err)
	}
	c.log.Debug("Submitted transaction", "method", method, "hash", hash)
	return &Submission{Hash: hash, Method: method, From: c.from, Data: input}, nil
}
