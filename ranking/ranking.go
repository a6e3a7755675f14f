// Package ranking rebuilds the participant ranking from independent contract
// reads.
package ranking

import (
	"context"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/tos-network/turing"
	"github.com/tos-network/turing/units"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the number of participants resolved at once.
const DefaultConcurrency = 8

// Reader is the subset of the contract client the aggregator reads through.
type Reader interface {
	Participants(ctx context.Context) ([]string, error)
	AddressOf(ctx context.Context, label string) (common.Address, error)
	BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error)
}

// Options tunes a Compute call.
type Options struct {
	Concurrency int // participants resolved in parallel, 0 selects DefaultConcurrency
}

// Entry is one row of the ranking.
type Entry struct {
	Participant string
	Address     common.Address
	Balance     *uint256.Int
}

// Ranking is a list of entries sorted by balance, highest first.
type Ranking []Entry

// Row is an entry rendered for display.
type Row struct {
	Position    int
	Participant string
	Address     string
	Balance     string
}

// Compute reads every participant's balance and returns them ranked. Any
// failed read fails the whole call with a *turing.PartialReadError and the
// outstanding reads are cancelled. Results are never cached.
func Compute(ctx context.Context, r Reader, opts Options) (Ranking, error) {
	labels, err := r.Participants(ctx)
	if err != nil {
		return nil, fmt.Errorf("participants: %w", err)
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	entries := make(Ranking, len(labels))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, label := range labels {
		i, label := i, label
		g.Go(func() error {
			addr, err := r.AddressOf(gctx, label)
			if err != nil {
				return &turing.PartialReadError{Participant: label, Err: err}
			}
			balance, err := r.BalanceOf(gctx, addr)
			if err != nil {
				return &turing.PartialReadError{Participant: label, Err: err}
			}
			entries[i] = Entry{Participant: label, Address: addr, Balance: balance}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Debug("Ranking aborted", "participants", len(labels), "err", err)
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Balance.Cmp(entries[j].Balance) > 0
	})
	log.Debug("Ranking computed", "participants", len(entries))
	return entries, nil
}

// Equal reports whether two rankings hold the same entries in the same order.
func (rk Ranking) Equal(other Ranking) bool {
	if len(rk) != len(other) {
		return false
	}
	for i := range rk {
		a, b := rk[i], other[i]
		if a.Participant != b.Participant || a.Address != b.Address || !a.Balance.Eq(b.Balance) {
			return false
		}
	}
	return true
}

// Format renders the ranking with 1-based positions and decimal balances.
func (rk Ranking) Format() []Row {
	rows := make([]Row, len(rk))
	for i, e := range rk {
		rows[i] = Row{
			Position:    i + 1,
			Participant: e.Participant,
			Address:     e.Address.Hex(),
			Balance:     units.FormatAmount(e.Balance),
		}
	}
	return rows
}
