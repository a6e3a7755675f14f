package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/tos-network/turing"
	"github.com/tos-network/turing/contract"
	"github.com/tos-network/turing/dapp"
	"github.com/tos-network/turing/orchestrator"
	"github.com/tos-network/turing/voting"
	"github.com/urfave/cli/v2"
)

var (
	intervalFlag = &cli.DurationFlag{
		Name:  "interval",
		Usage: "Time between ranking refreshes",
		Value: 10 * time.Second,
	}
	countFlag = &cli.IntFlag{
		Name:  "count",
		Usage: "Stop after this many refreshes (0 = run until interrupted)",
	}
)

var commandRanking = &cli.Command{
	Name:   "ranking",
	Usage:  "Print participants ranked by token balance",
	Action: showRanking,
}

var commandParticipants = &cli.Command{
	Name:   "participants",
	Usage:  "List the registered participants",
	Action: listParticipants,
}

var commandWatch = &cli.Command{
	Name:  "watch",
	Usage: "Re-render the ranking periodically",
	Flags: []cli.Flag{intervalFlag, countFlag},
	Description: `
The watch command refreshes the ranking every --interval until interrupted.
A failed refresh is reported and the previous ranking stays on screen.`,
	Action: watchRanking,
}

var commandIssue = &cli.Command{
	Name:      "issue",
	Usage:     "Issue tokens to a participant (contract owner only)",
	ArgsUsage: "<participant> <amount>",
	Action: func(ctx *cli.Context) error {
		return transact(ctx, orchestrator.IssueToken)
	},
}

var commandVote = &cli.Command{
	Name:      "vote",
	Usage:     "Vote for a participant with up to 2 TUR",
	ArgsUsage: "<participant> <amount>",
	Action: func(ctx *cli.Context) error {
		return transact(ctx, orchestrator.Vote)
	},
}

var commandVoting = &cli.Command{
	Name:  "voting",
	Usage: "Show or switch the voting state",
	Subcommands: []*cli.Command{
		{
			Name:   "status",
			Usage:  "Show whether voting is active",
			Action: votingStatus,
		},
		{
			Name:   "on",
			Usage:  "Open voting (contract owner only)",
			Action: func(ctx *cli.Context) error { return setVoting(ctx, true) },
		},
		{
			Name:   "off",
			Usage:  "Close voting (contract owner only)",
			Action: func(ctx *cli.Context) error { return setVoting(ctx, false) },
		},
	},
}

func showRanking(ctx *cli.Context) error {
	app, sess, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()
	printRanking(ctx.App.Writer, app.Ranking().Ranking)
	return nil
}

func listParticipants(ctx *cli.Context) error {
	sess, _, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()
	names, err := sess.Contract().Participants(ctx.Context)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(ctx.App.Writer, name)
	}
	return nil
}

func watchRanking(ctx *cli.Context) error {
	app, sess, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	w := ctx.App.Writer
	render := func(snap *dapp.Snapshot) {
		fmt.Fprintf(w, "Ranking at %s, voting %s\n", snap.Taken.Format(time.RFC3339), app.Voting())
		printRanking(w, snap.Ranking)
	}
	render(app.Ranking())

	ticker := time.NewTicker(ctx.Duration(intervalFlag.Name))
	defer ticker.Stop()
	for n := 1; ctx.Int(countFlag.Name) == 0 || n < ctx.Int(countFlag.Name); n++ {
		select {
		case <-ctx.Context.Done():
			return nil
		case <-ticker.C:
		}
		if _, err := app.ReloadVoting(ctx.Context); err != nil {
			log.Warn("Voting state refresh failed", "err", err)
		}
		snap, err := app.Refresh(ctx.Context)
		if err != nil {
			if ctx.Context.Err() != nil {
				return nil
			}
			reportError(ctx.App.ErrWriter, err)
			continue
		}
		render(snap)
	}
	return nil
}

func transact(ctx *cli.Context, action orchestrator.Action) error {
	if ctx.NArg() != 2 {
		return fmt.Errorf("%w: expected <participant> <amount>", turing.ErrInvalidInput)
	}
	app, sess, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	participant, amount := ctx.Args().Get(0), ctx.Args().Get(1)
	var res *orchestrator.Result
	switch action {
	case orchestrator.IssueToken:
		res, err = app.Issue(ctx.Context, participant, amount)
	default:
		res, err = app.Vote(ctx.Context, participant, amount)
	}
	if err != nil {
		return err
	}
	printResult(ctx.App.Writer, res)
	if res.AfterErr == nil {
		printRanking(ctx.App.Writer, app.Ranking().Ranking)
	}
	return nil
}

func votingStatus(ctx *cli.Context) error {
	sess, _, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()
	active, err := sess.Contract().VotingActive(ctx.Context)
	switch {
	case errors.Is(err, contract.ErrNoVotingGetter):
		printVoting(ctx.App.Writer, voting.Unknown)
		return nil
	case err != nil:
		return err
	}
	printVoting(ctx.App.Writer, voting.FromBool(active))
	return nil
}

func setVoting(ctx *cli.Context, enabled bool) error {
	app, sess, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()
	res, err := app.SetVoting(ctx.Context, enabled)
	if err != nil {
		return err
	}
	printResult(ctx.App.Writer, res)
	printVoting(ctx.App.Writer, app.Voting())
	return nil
}
