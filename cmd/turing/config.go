package main

import (
	"fmt"

	"github.com/tos-network/turing/cmd/utils"
	"github.com/tos-network/turing/dapp"
	"github.com/tos-network/turing/session"
	"github.com/tos-network/turing/turingconfig"
	"github.com/urfave/cli/v2"
)

var commandDumpConfig = &cli.Command{
	Name:        "dumpconfig",
	Usage:       "Show configuration values",
	ArgsUsage:   "",
	Description: `The dumpconfig command shows configuration values.`,
	Action:      dumpConfig,
}

// makeConfig loads the configuration file, then applies flags on top.
func makeConfig(ctx *cli.Context) (turingconfig.Config, error) {
	cfg := turingconfig.Defaults
	if file := ctx.String(utils.ConfigFileFlag.Name); file != "" {
		if err := turingconfig.Load(file, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: %v", errConfig, err)
		}
	}
	if err := utils.SetTuringConfig(ctx, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", errConfig, err)
	}
	return cfg, nil
}

func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	out, err := turingconfig.Marshal(&cfg)
	if err != nil {
		return err
	}
	if file := ctx.String(utils.ConfigFileFlag.Name); file != "" {
		fmt.Fprintf(ctx.App.Writer, "# loaded from %s\n\n", file)
	}
	_, err = ctx.App.Writer.Write(out)
	return err
}

// openSession connects to the wallet and starts metrics collection.
func openSession(ctx *cli.Context) (*session.Session, turingconfig.Config, error) {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return nil, cfg, err
	}
	utils.SetupMetrics(ctx, &cfg.Metrics)
	sc, err := cfg.SessionConfig()
	if err != nil {
		return nil, cfg, fmt.Errorf("%w: %v", errConfig, err)
	}
	sess, err := session.Connect(ctx.Context, sc, nil)
	if err != nil {
		return nil, cfg, err
	}
	return sess, cfg, nil
}

// openApp connects and loads the voting state and the first ranking.
func openApp(ctx *cli.Context) (*dapp.App, *session.Session, error) {
	sess, cfg, err := openSession(ctx)
	if err != nil {
		return nil, nil, err
	}
	app, err := dapp.New(ctx.Context, sess, cfg.AppConfig())
	if err != nil {
		sess.Close()
		return nil, nil, err
	}
	return app, sess, nil
}
