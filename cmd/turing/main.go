// turing is the command line client for the Turing token and voting contract.
package main

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/joho/godotenv"
	"github.com/tos-network/turing/cmd/utils"
	"github.com/tos-network/turing/internal/flags"
	"github.com/urfave/cli/v2"
)

// Git SHA1 commit hash of the release (set via linker flags)
var gitCommit = ""
var gitDate = ""

func newApp(stdout, stderr io.Writer) *cli.App {
	app := flags.NewApp(gitCommit, gitDate, "the Turing token and voting client")
	app.Writer = stdout
	app.ErrWriter = stderr
	app.Flags = flags.Merge(utils.ClientFlags, utils.LoggingFlags, utils.MetricsFlags)
	app.Commands = []*cli.Command{
		commandRanking,
		commandParticipants,
		commandWatch,
		commandIssue,
		commandVote,
		commandVoting,
		commandDumpConfig,
	}
	app.Before = func(ctx *cli.Context) error {
		utils.SetupLogging(ctx, stderr)
		flags.CheckEnvVars(ctx, app.Flags, "TURING")
		return nil
	}
	// Errors are reported by run, not by the cli package.
	app.ExitErrHandler = func(*cli.Context, error) {}
	return app
}

// run executes the client and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if err := newApp(stdout, stderr).RunContext(ctx, args); err != nil {
		return reportError(stderr, err)
	}
	return 0
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("Failed to load .env file", "err", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
