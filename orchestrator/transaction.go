package orchestrator

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/tos-network/turing"
)

// Action is a state-changing contract operation.
type Action int

const (
	IssueToken Action = iota + 1
	Vote
	SetVoting
)

func (a Action) String() string {
	switch a {
	case IssueToken:
		return "issueToken"
	case Vote:
		return "vote"
	case SetVoting:
		return "setVoting"
	default:
		return "unknown"
	}
}

// State is the lifecycle position of a transaction.
type State int

const (
	Built State = iota
	Submitted
	Confirmed
	Reverted
	Dropped
	// Abandoned means the caller stopped waiting. The transaction itself
	// may still confirm.
	Abandoned
)

func (s State) String() string {
	switch s {
	case Built:
		return "built"
	case Submitted:
		return "submitted"
	case Confirmed:
		return "confirmed"
	case Reverted:
		return "reverted"
	case Dropped:
		return "dropped"
	case Abandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Request is a state change as the user entered it. Amount is the raw
// decimal string; it is validated before anything is sent.
type Request struct {
	Action      Action
	Participant string // target codinome for IssueToken and Vote
	Amount      string // decimal TUR amount for IssueToken and Vote
	Enabled     bool   // target flag for SetVoting

	// After runs once an IssueToken or Vote has confirmed. Its error is
	// reported in Result.AfterErr and does not fail the transaction.
	After func(ctx context.Context, receipt *turing.Receipt) error
}

// PendingTransaction is the in-memory record of one transaction.
type PendingTransaction struct {
	ID          uuid.UUID
	Action      Action
	Participant string
	Amount      *uint256.Int
	Enabled     bool
	Hash        common.Hash
	SubmittedAt time.Time
	State       State
}

// Result reports the outcome of a submitted transaction.
type Result struct {
	Tx       PendingTransaction
	Receipt  *turing.Receipt // nil unless the transaction was included
	AfterErr error           // error of the post-confirmation hook, if any
}
