// Package turingtest runs an in-process wallet endpoint backed by a
// simulated Turing contract. It answers the same JSON-RPC methods a real
// wallet does, so tests exercise the full wire path.
package turingtest

import (
	"fmt"
	"math/big"
	"sync"

	mapset "github.com/deckarep/golang-set"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/tos-network/turing/contract"
	"github.com/tos-network/turing/params"
)

var (
	// Owner is the deployer account; only it may issue tokens or toggle voting.
	Owner = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

	// ContractAddress is where the simulated contract lives.
	ContractAddress = params.LocalDeployment.Contract

	// ChainID is the chain the simulated wallet reports.
	ChainID = params.LocalDeployment.ChainID

	maxVote     = new(big.Int).Mul(big.NewInt(2), big.NewInt(params.TUR))
	voterReward = new(big.Int).Div(big.NewInt(params.TUR), big.NewInt(5))
)

// CoreABI returns the Turing interface without a voting flag getter, the
// shape of a contract that keeps the flag private.
func CoreABI() *abi.ABI {
	parsed := contract.DefaultABI()
	delete(parsed.Methods, contract.MethodIsVotingActive)
	return parsed
}

// Participant is a registry entry of the simulated contract.
type Participant struct {
	Label   string
	Address common.Address
}

// Participants returns n registry entries named nome1..nomeN.
func Participants(n int) []Participant {
	ps := make([]Participant, n)
	for i := range ps {
		ps[i] = Participant{
			Label:   fmt.Sprintf("nome%d", i+1),
			Address: common.BigToAddress(big.NewInt(int64(0x1000 + i + 1))),
		}
	}
	return ps
}

// Chain is the simulated wallet plus contract state.
type Chain struct {
	mu  sync.Mutex
	abi *abi.ABI

	accounts     []common.Address
	labels       []string
	registry     map[string]common.Address
	balances     map[common.Address]*big.Int
	voted        map[common.Address]mapset.Set // labels each account voted for
	votingActive bool

	block    uint64
	nonce    uint64
	held     []*simTx
	receipts map[common.Hash]*simReceipt

	calls     map[string]int
	failReads map[string]bool

	rejectAccounts   bool
	rejectSigning    bool
	noCode           bool
	dropAll          bool
	holdReceipts     bool
	preflightReverts bool
	chainID          *big.Int
}

type simTx struct {
	hash common.Hash
	from common.Address
	data []byte
}

type simReceipt struct {
	hash   common.Hash
	block  uint64
	status uint64
}

// New creates a chain with the given participants registered, voting on, and
// the owner plus every participant authorized in the wallet.
func New(participants []Participant) *Chain {
	c := &Chain{
		abi:          contract.DefaultABI(),
		accounts:     []common.Address{Owner},
		registry:     make(map[string]common.Address),
		balances:     make(map[common.Address]*big.Int),
		voted:        make(map[common.Address]mapset.Set),
		votingActive: true,
		block:        1,
		receipts:     make(map[common.Hash]*simReceipt),
		calls:        make(map[string]int),
		failReads:    make(map[string]bool),
		chainID:      ChainID,
	}
	for _, p := range participants {
		c.labels = append(c.labels, p.Label)
		c.registry[p.Label] = p.Address
		c.accounts = append(c.accounts, p.Address)
	}
	return c
}

// SetBalance overwrites the token balance of a registered participant.
func (c *Chain) SetBalance(label string, amount *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[c.registry[label]] = new(big.Int).Set(amount)
}

// Balance returns the token balance of a registered participant.
func (c *Chain) Balance(label string) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(big.Int).Set(c.balanceOf(c.registry[label]))
}

// SetVotingActive flips the on-chain voting flag directly.
func (c *Chain) SetVotingActive(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.votingActive = active
}

// VotingActive reports the on-chain voting flag.
func (c *Chain) VotingActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.votingActive
}

// FailReads makes balance reads for the participant fail.
func (c *Chain) FailReads(label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failReads[label] = true
}

// RejectAccounts makes the wallet decline account authorization.
func (c *Chain) RejectAccounts(reject bool) { c.set(&c.rejectAccounts, reject) }

// RejectSigning makes the wallet decline to sign transactions.
func (c *Chain) RejectSigning(reject bool) { c.set(&c.rejectSigning, reject) }

// RemoveCode makes the contract address look empty.
func (c *Chain) RemoveCode(remove bool) { c.set(&c.noCode, remove) }

// DropTransactions makes every submitted transaction vanish without a receipt.
func (c *Chain) DropTransactions(drop bool) { c.set(&c.dropAll, drop) }

// HoldReceipts keeps submitted transactions pending until Mine is called.
func (c *Chain) HoldReceipts(hold bool) { c.set(&c.holdReceipts, hold) }

// PreflightReverts makes the wallet refuse reverting transactions at
// submission time, as wallets that estimate gas do.
func (c *Chain) PreflightReverts(on bool) { c.set(&c.preflightReverts, on) }

// SetChainID changes the chain the wallet reports.
func (c *Chain) SetChainID(id *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chainID = new(big.Int).Set(id)
}

func (c *Chain) set(flag *bool, v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	*flag = v
}

// Mine includes every held transaction in a new block.
func (c *Chain) Mine() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tx := range c.held {
		c.include(tx)
	}
	c.held = nil
}

// Calls returns how many times the JSON-RPC method was invoked.
func (c *Chain) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// TotalCalls returns the number of JSON-RPC requests served.
func (c *Chain) TotalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.calls {
		total += n
	}
	return total
}

func (c *Chain) count(method string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[method]++
}

func (c *Chain) balanceOf(addr common.Address) *big.Int {
	if b, ok := c.balances[addr]; ok {
		return b
	}
	return new(big.Int)
}

func (c *Chain) credit(addr common.Address, amount *big.Int) {
	c.balances[addr] = new(big.Int).Add(c.balanceOf(addr), amount)
}

// include executes tx on the current state and records its receipt.
// Caller holds c.mu.
func (c *Chain) include(tx *simTx) {
	c.block++
	status := uint64(1)
	if _, err := c.execute(tx.from, tx.data, true); err != nil {
		status = 0
	}
	c.receipts[tx.hash] = &simReceipt{hash: tx.hash, block: c.block, status: status}
}
