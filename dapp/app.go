// Package dapp is the session context: it owns the wallet session, the
// current ranking snapshot and the voting state, and routes user actions to
// the orchestrator.
package dapp

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/tos-network/turing"
	"github.com/tos-network/turing/contract"
	"github.com/tos-network/turing/orchestrator"
	"github.com/tos-network/turing/ranking"
	"github.com/tos-network/turing/voting"
)

// Config tunes reads and confirmations.
type Config struct {
	Ranking ranking.Options
	Tx      orchestrator.Config
}

// Session is what the App needs from a connected wallet session.
// session.Session implements it.
type Session interface {
	Contract() *contract.Client
}

// Snapshot is an immutable ranking read at one point in time.
type Snapshot struct {
	Ranking ranking.Ranking
	Taken   time.Time
}

// App is the explicit application context.
type App struct {
	client   *contract.Client
	voting   *voting.Machine
	orch     *orchestrator.Orchestrator
	opts     ranking.Options
	snapshot atomic.Pointer[Snapshot]
}

// New loads the voting state and the first ranking. A contract without a
// voting getter starts Unknown until the first confirmed toggle.
func New(ctx context.Context, sess Session, cfg Config) (*App, error) {
	client := sess.Contract()
	vm := new(voting.Machine)
	if _, err := vm.Load(ctx, client); err != nil {
		if !errors.Is(err, contract.ErrNoVotingGetter) {
			return nil, err
		}
		log.Warn("Voting state not readable, deferring to the contract", "contract", client.Address())
	}
	app := &App{
		client: client,
		voting: vm,
		orch:   orchestrator.New(client, vm, cfg.Tx),
		opts:   cfg.Ranking,
	}
	if _, err := app.Refresh(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

// Refresh recomputes the ranking and replaces the snapshot. On failure the
// previous snapshot is kept.
func (a *App) Refresh(ctx context.Context) (*Snapshot, error) {
	rk, err := ranking.Compute(ctx, a.client, a.opts)
	if err != nil {
		return nil, fmt.Errorf("refresh ranking: %w", err)
	}
	snap := &Snapshot{Ranking: rk, Taken: time.Now()}
	a.snapshot.Store(snap)
	return snap, nil
}

// Ranking returns the latest snapshot. It never reads the chain.
func (a *App) Ranking() *Snapshot {
	return a.snapshot.Load()
}

// Participants reads the registered codinomes.
func (a *App) Participants(ctx context.Context) ([]string, error) {
	return a.client.Participants(ctx)
}

// Voting returns the local voting state.
func (a *App) Voting() voting.State {
	return a.voting.State()
}

// ReloadVoting re-reads the voting flag from the contract. Without a voting
// getter it returns the local state.
func (a *App) ReloadVoting(ctx context.Context) (voting.State, error) {
	if !a.client.CanReadVoting() {
		return a.voting.State(), nil
	}
	return a.voting.Load(ctx, a.client)
}

// Pending lists transactions awaiting confirmation.
func (a *App) Pending() []orchestrator.PendingTransaction {
	return a.orch.Pending()
}

// Issue mints amount TUR to participant and refreshes the ranking once the
// transaction confirms.
func (a *App) Issue(ctx context.Context, participant, amount string) (*orchestrator.Result, error) {
	return a.orch.Submit(ctx, orchestrator.Request{
		Action:      orchestrator.IssueToken,
		Participant: participant,
		Amount:      amount,
		After:       a.refreshAfter,
	})
}

// Vote votes amount TUR for participant and refreshes the ranking once the
// transaction confirms.
func (a *App) Vote(ctx context.Context, participant, amount string) (*orchestrator.Result, error) {
	return a.orch.Submit(ctx, orchestrator.Request{
		Action:      orchestrator.Vote,
		Participant: participant,
		Amount:      amount,
		After:       a.refreshAfter,
	})
}

// SetVoting switches voting on or off.
func (a *App) SetVoting(ctx context.Context, enabled bool) (*orchestrator.Result, error) {
	return a.orch.Submit(ctx, orchestrator.Request{Action: orchestrator.SetVoting, Enabled: enabled})
}

func (a *App) refreshAfter(ctx context.Context, receipt *turing.Receipt) error {
	snap, err := a.Refresh(ctx)
	if err != nil {
		return err
	}
	log.Debug("Ranking refreshed", "tx", receipt.TxHash, "participants", len(snap.Ranking))
	return nil
}
