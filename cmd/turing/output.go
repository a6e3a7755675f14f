package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/tos-network/turing"
	"github.com/tos-network/turing/orchestrator"
	"github.com/tos-network/turing/params"
	"github.com/tos-network/turing/ranking"
	"github.com/tos-network/turing/units"
	"github.com/tos-network/turing/voting"
)

// Process exit codes, one per failure kind.
const (
	exitUnknown        = 1
	exitConnectivity   = 2
	exitAuthorization  = 3
	exitValidation     = 4
	exitChainRejection = 5
	exitIndeterminate  = 6
	exitConfig         = 7
)

var errConfig = errors.New("invalid configuration")

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed, color.Bold)
)

// reportError prints err the way its kind calls for and returns the exit code.
func reportError(w io.Writer, err error) int {
	if errors.Is(err, errConfig) {
		failColor.Fprintf(w, "Configuration error: %v\n", err)
		return exitConfig
	}
	switch turing.KindOf(err) {
	case turing.KindConnectivity:
		failColor.Fprintf(w, "Cannot use the wallet: %v\n", err)
		var txErr *turing.TxError
		if errors.As(err, &txErr) {
			fmt.Fprintf(w, "Transaction %s was submitted and may still confirm.\n", txErr.Hash.Hex())
		}
		if errors.Is(err, turing.ErrNetworkMismatch) {
			fmt.Fprintln(w, "Check that the wallet is on the right network and the contract is deployed there.")
		}
		return exitConnectivity
	case turing.KindAuthorization:
		warnColor.Fprintf(w, "Request declined in the wallet: %v\n", err)
		return exitAuthorization
	case turing.KindValidation:
		warnColor.Fprintf(w, "Not sent: %v\n", err)
		return exitValidation
	case turing.KindChainRejection:
		var rev *turing.RevertError
		if errors.As(err, &rev) && rev.Reason != "" {
			failColor.Fprintf(w, "Rejected by the contract: %s\n", rev.Reason)
		} else {
			failColor.Fprintf(w, "Rejected by the contract: %v\n", err)
		}
		return exitChainRejection
	case turing.KindIndeterminate:
		tx := "the transaction"
		var txErr *turing.TxError
		if errors.As(err, &txErr) {
			tx = "transaction " + txErr.Hash.Hex()
		}
		if errors.Is(err, turing.ErrStoppedWaiting) {
			warnColor.Fprintf(w, "Stopped waiting for %s. It may still confirm.\n", tx)
		} else {
			warnColor.Fprintf(w, "No confirmation for %s in time. Its outcome is unknown.\n", tx)
		}
		return exitIndeterminate
	}
	failColor.Fprintf(w, "Error: %v\n", err)
	return exitUnknown
}

// printRanking renders the ranking as a table.
func printRanking(w io.Writer, rk ranking.Ranking) {
	if len(rk) == 0 {
		fmt.Fprintln(w, "No participants registered.")
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Participant", "Address", "Balance (" + params.Symbol + ")"})
	table.SetAutoFormatHeaders(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	for _, row := range rk.Format() {
		table.Append([]string{strconv.Itoa(row.Position), row.Participant, row.Address, row.Balance})
	}
	table.Render()
}

// printResult reports a confirmed transaction.
func printResult(w io.Writer, res *orchestrator.Result) {
	okColor.Fprintf(w, "%s confirmed", res.Tx.Action)
	fmt.Fprintf(w, " in block %v (tx %s)\n", res.Receipt.BlockNumber, res.Tx.Hash.Hex())
	if res.Tx.Amount != nil {
		fmt.Fprintf(w, "Amount: %s %s to %s\n", units.FormatAmount(res.Tx.Amount), params.Symbol, res.Tx.Participant)
	}
	if res.AfterErr != nil {
		warnColor.Fprintf(w, "Ranking could not be refreshed: %v\n", res.AfterErr)
	}
}

func printVoting(w io.Writer, s voting.State) {
	c := failColor
	if s == voting.Active {
		c = okColor
	}
	fmt.Fprint(w, "Voting is ")
	c.Fprintln(w, s)
}
