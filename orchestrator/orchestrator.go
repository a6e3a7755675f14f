// Package orchestrator drives state-changing contract calls from local
// validation through submission to confirmation.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/tos-network/turing"
	"github.com/tos-network/turing/contract"
	"github.com/tos-network/turing/units"
	"github.com/tos-network/turing/voting"
)

// Writer is the contract surface the orchestrator submits through.
// contract.Client implements it.
type Writer interface {
	IssueToken(ctx context.Context, label string, amount *uint256.Int) (*contract.Submission, error)
	Vote(ctx context.Context, label string, amount *uint256.Int) (*contract.Submission, error)
	SetVoting(ctx context.Context, enabled bool) (*contract.Submission, error)
	Receipt(ctx context.Context, hash common.Hash) (*turing.Receipt, error)
	RevertReason(ctx context.Context, sub *contract.Submission, blockNumber *big.Int) *turing.RevertError
}

// Config tunes the confirmation wait.
type Config struct {
	PollInterval   time.Duration // delay between receipt polls
	ConfirmTimeout time.Duration // wait after which a transaction counts as dropped
}

// DefaultConfig contains the default confirmation settings.
var DefaultConfig = Config{
	PollInterval:   time.Second,
	ConfirmTimeout: 2 * time.Minute,
}

// Orchestrator submits transactions and waits for their outcome. It holds no
// contract-derived state besides the voting machine it updates.
type Orchestrator struct {
	w       Writer
	voting  *voting.Machine
	cfg     Config
	pending sync.Map // uuid.UUID -> PendingTransaction
}

// New creates an orchestrator. A nil machine is replaced by one in the
// Unknown state, which rejects every vote.
func New(w Writer, vm *voting.Machine, cfg Config) *Orchestrator {
	if vm == nil {
		vm = new(voting.Machine)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig.PollInterval
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = DefaultConfig.ConfirmTimeout
	}
	return &Orchestrator{w: w, voting: vm, cfg: cfg}
}

// Voting returns the machine the orchestrator gates votes on.
func (o *Orchestrator) Voting() *voting.Machine { return o.voting }

// Pending returns the transactions currently awaiting confirmation, oldest
// first.
func (o *Orchestrator) Pending() []PendingTransaction {
	var txs []PendingTransaction
	o.pending.Range(func(_, v any) bool {
		txs = append(txs, v.(PendingTransaction))
		return true
	})
	sort.Slice(txs, func(i, j int) bool { return txs[i].SubmittedAt.Before(txs[j].SubmittedAt) })
	return txs
}

// Submit validates req, sends it and waits for the outcome.
//
// Validation failures (turing.ErrInvalidInput, turing.ErrVotingClosed) and
// submission failures return a nil Result. Once the wallet accepted the
// transaction a Result is always returned, together with a *turing.RevertError
// when it reverted or a *turing.TxError when its outcome is unknown. A
// session lost while waiting surfaces as a *turing.TxError matching
// turing.ErrConnectionLost.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (*Result, error) {
	tx, err := o.build(req)
	if err != nil {
		invalidMeter.Mark(1)
		return nil, err
	}
	sub, err := o.send(ctx, tx)
	if err != nil {
		rejectedMeter.Mark(1)
		log.Debug("Transaction not submitted", "id", tx.ID, "action", tx.Action, "err", err)
		return nil, err
	}
	tx.Hash, tx.SubmittedAt, tx.State = sub.Hash, time.Now(), Submitted
	submittedMeter.Mark(1)
	log.Info("Transaction submitted", "id", tx.ID, "action", tx.Action, "hash", tx.Hash)

	o.pending.Store(tx.ID, tx)
	defer o.pending.Delete(tx.ID)

	res := &Result{Tx: tx}
	receipt, err := o.await(ctx, tx.Hash)
	if err != nil {
		if errors.Is(err, turing.ErrStoppedWaiting) || errors.Is(err, turing.ErrConnectionLost) {
			res.Tx.State = Abandoned
			abandonedMeter.Mark(1)
		} else {
			res.Tx.State = Dropped
			droppedMeter.Mark(1)
		}
		log.Warn("Transaction outcome unknown", "id", tx.ID, "hash", tx.Hash, "state", res.Tx.State)
		return res, &turing.TxError{Hash: tx.Hash, Err: err}
	}
	res.Receipt = receipt
	confirmTimer.UpdateSince(tx.SubmittedAt)

	if receipt.Status != turing.ReceiptStatusSuccessful {
		res.Tx.State = Reverted
		revertedMeter.Mark(1)
		rev := o.w.RevertReason(ctx, sub, receipt.BlockNumber)
		log.Warn("Transaction reverted", "id", tx.ID, "hash", tx.Hash, "block", receipt.BlockNumber, "reason", rev.Reason)
		return res, rev
	}
	res.Tx.State = Confirmed
	confirmedMeter.Mark(1)
	log.Info("Transaction confirmed", "id", tx.ID, "hash", tx.Hash, "block", receipt.BlockNumber)

	switch tx.Action {
	case SetVoting:
		o.voting.Set(voting.FromBool(tx.Enabled))
	default:
		if req.After != nil {
			if err := req.After(ctx, receipt); err != nil {
				log.Warn("Post-confirmation step failed", "id", tx.ID, "err", err)
				res.AfterErr = err
			}
		}
	}
	return res, nil
}

// build validates the request without touching the network.
func (o *Orchestrator) build(req Request) (PendingTransaction, error) {
	tx := PendingTransaction{
		ID:          uuid.New(),
		Action:      req.Action,
		Participant: strings.TrimSpace(req.Participant),
		Enabled:     req.Enabled,
		State:       Built,
	}
	switch req.Action {
	case SetVoting:
		return tx, nil
	case Vote:
		if err := o.voting.CheckVote(); err != nil {
			return tx, err
		}
	case IssueToken:
	default:
		return tx, fmt.Errorf("%w: unknown action %d", turing.ErrInvalidInput, req.Action)
	}
	if tx.Participant == "" {
		return tx, fmt.Errorf("%w: no participant selected", turing.ErrInvalidInput)
	}
	amount, err := units.ParseAmount(req.Amount)
	if err != nil {
		return tx, err
	}
	if amount.IsZero() {
		return tx, fmt.Errorf("%w: amount must be greater than zero", turing.ErrInvalidInput)
	}
	tx.Amount = amount
	return tx, nil
}

func (o *Orchestrator) send(ctx context.Context, tx PendingTransaction) (*contract.Submission, error) {
	switch tx.Action {
	case IssueToken:
		return o.w.IssueToken(ctx, tx.Participant, tx.Amount)
	case Vote:
		return o.w.Vote(ctx, tx.Participant, tx.Amount)
	default:
		return o.w.SetVoting(ctx, tx.Enabled)
	}
}

// await polls for the receipt of hash. It returns turing.ErrDropped when the
// confirm timeout passes and turing.ErrStoppedWaiting when ctx is done. A lost
// session ends the wait with its error; other lookup errors are retried.
func (o *Orchestrator) await(ctx context.Context, hash common.Hash) (*turing.Receipt, error) {
	deadline := time.NewTimer(o.cfg.ConfirmTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(o.cfg.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := o.w.Receipt(ctx, hash)
		switch {
		case ctx.Err() != nil:
			return nil, turing.ErrStoppedWaiting
		case errors.Is(err, turing.ErrConnectionLost):
			return nil, err
		case err != nil:
			log.Debug("Receipt lookup failed", "hash", hash, "err", err)
		case receipt != nil:
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, turing.ErrStoppedWaiting
		case <-deadline.C:
			return nil, turing.ErrDropped
		case <-ticker.C:
		}
	}
}
