package turingtest

import (
	"errors"
	"fmt"
	"math/big"

	mapset "github.com/deckarep/golang-set"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/tos-network/turing/contract"
	"golang.org/x/crypto/sha3"
)

// revertError is a contract-level rejection.
type revertError struct {
	reason string
}

func (e *revertError) Error() string { return "execution reverted: " + e.reason }

var errReadFailed = errors.New("missing trie node")

var errorSelector = func() []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte("Error(string)"))
	return h.Sum(nil)[:4]
}()

// encodeRevert builds the Error(string) payload solc emits for require().
func encodeRevert(reason string) []byte {
	typ, _ := abi.NewType("string", "", nil)
	packed, err := abi.Arguments{{Type: typ}}.Pack(reason)
	if err != nil {
		panic(err)
	}
	return append(append([]byte{}, errorSelector...), packed...)
}

// execute runs calldata against the contract state. State changes are only
// kept when commit is set. Caller holds c.mu.
func (c *Chain) execute(from common.Address, data []byte, commit bool) ([]byte, error) {
	if len(data) < 4 {
		return nil, &revertError{"no method selector"}
	}
	method, err := c.abi.MethodById(data[:4])
	if err != nil {
		return nil, &revertError{"unknown method"}
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, &revertError{fmt.Sprintf("bad arguments: %v", err)}
	}
	switch method.Name {
	case contract.MethodGetCodinomes:
		return method.Outputs.Pack(append([]string{}, c.labels...))

	case contract.MethodCodinomes:
		return method.Outputs.Pack(c.registry[args[0].(string)])

	case contract.MethodBalanceOf:
		addr := args[0].(common.Address)
		for label, failing := range c.failReads {
			if failing && c.registry[label] == addr {
				return nil, errReadFailed
			}
		}
		return method.Outputs.Pack(new(big.Int).Set(c.balanceOf(addr)))

	case contract.MethodIsVotingActive:
		return method.Outputs.Pack(c.votingActive)

	case contract.MethodIssueToken:
		label, amount := args[0].(string), args[1].(*big.Int)
		if from != Owner {
			return nil, &revertError{"Only the owner can issue tokens"}
		}
		target, ok := c.registry[label]
		if !ok {
			return nil, &revertError{"Unknown codinome"}
		}
		if amount.Sign() <= 0 {
			return nil, &revertError{"Amount must be positive"}
		}
		if commit {
			c.credit(target, amount)
		}
		return nil, nil

	case contract.MethodVote:
		label, amount := args[0].(string), args[1].(*big.Int)
		if !c.votingActive {
			return nil, &revertError{"Voting is not active"}
		}
		target, ok := c.registry[label]
		if !ok {
			return nil, &revertError{"Unknown codinome"}
		}
		if !c.authorized(from) {
			return nil, &revertError{"Not authorized to vote"}
		}
		if target == from {
			return nil, &revertError{"Cannot vote for yourself"}
		}
		if votes := c.voted[from]; votes != nil && votes.Contains(label) {
			return nil, &revertError{"Already voted for this codinome"}
		}
		if amount.Sign() <= 0 {
			return nil, &revertError{"Amount must be positive"}
		}
		if amount.Cmp(maxVote) > 0 {
			return nil, &revertError{"Amount exceeds 2 TUR"}
		}
		if commit {
			if c.voted[from] == nil {
				c.voted[from] = mapset.NewSet()
			}
			c.voted[from].Add(label)
			c.credit(target, amount)
			c.credit(from, voterReward)
		}
		return nil, nil

	case contract.MethodVotingOn, contract.MethodVotingOff:
		if from != Owner {
			return nil, &revertError{"Only the owner can change voting"}
		}
		if commit {
			c.votingActive = method.Name == contract.MethodVotingOn
		}
		return nil, nil
	}
	return nil, &revertError{"unknown method"}
}

func (c *Chain) authorized(addr common.Address) bool {
	if addr == Owner {
		return true
	}
	for _, a := range c.registry {
		if a == addr {
			return true
		}
	}
	return false
}
