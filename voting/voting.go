// Package voting mirrors the contract's voting flag and gates votes on it.
package voting

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/log"
	"github.com/tos-network/turing"
)

// State is the binary voting flag.
type State uint32

const (
	// Unknown is the state before the flag has been read from the contract.
	Unknown State = iota
	Active
	Inactive
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Inactive:
		return "inactive"
	default:
		return "unknown"
	}
}

// FromBool maps the contract flag onto a State.
func FromBool(active bool) State {
	if active {
		return Active
	}
	return Inactive
}

// Reader reads the authoritative flag.
type Reader interface {
	VotingActive(ctx context.Context) (bool, error)
}

// Machine is the local copy of the voting flag. The zero value is Unknown,
// which leaves enforcement to the contract until Load or Set settles it.
type Machine struct {
	state atomic.Uint32
}

// Load reads the flag from the contract and replaces the local state.
func (m *Machine) Load(ctx context.Context, r Reader) (State, error) {
	active, err := r.VotingActive(ctx)
	if err != nil {
		return m.State(), fmt.Errorf("voting state: %w", err)
	}
	s := FromBool(active)
	m.Set(s)
	return s, nil
}

// Set replaces the local state. It is called after a confirmed toggle.
func (m *Machine) Set(s State) {
	if old := State(m.state.Swap(uint32(s))); old != s {
		log.Info("Voting state changed", "from", old, "to", s)
	}
}

// State returns the current local state.
func (m *Machine) State() State {
	return State(m.state.Load())
}

// CheckVote returns turing.ErrVotingClosed when voting is known to be
// inactive.
func (m *Machine) CheckVote() error {
	if m.State() == Inactive {
		return turing.ErrVotingClosed
	}
	return nil
}
