// Copyright 2015 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

package utils

import (
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/metrics/exp"
	"github.com/ethereum/go-ethereum/metrics/influxdb"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/tos-network/turing/internal/flags"
	"github.com/tos-network/turing/params"
	"github.com/tos-network/turing/turingconfig"
	"github.com/urfave/cli/v2"
)

// These are all the command line flags we support.
// If you add to this list, please remember to include the
// flag in the appropriate command definition.
//
// The flags are defined here so their names and help texts
// are the same for all commands.

var (
	// General settings
	ConfigFileFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "TOML configuration file",
		EnvVars:  []string{"TURING_CONFIG"},
		Category: flags.MiscCategory,
	}

	// Wallet settings
	EndpointFlag = &cli.StringFlag{
		Name:     "endpoint",
		Usage:    "Wallet JSON-RPC endpoint (http, ws or ipc)",
		Value:    turingconfig.Defaults.Endpoint,
		EnvVars:  []string{"TURING_ENDPOINT"},
		Category: flags.WalletCategory,
	}
	FromFlag = &cli.StringFlag{
		Name:     "from",
		Usage:    "Account to sign with (default = first account the wallet authorizes)",
		EnvVars:  []string{"TURING_FROM"},
		Category: flags.WalletCategory,
	}

	// Contract settings
	NetworkFlag = &cli.StringFlag{
		Name:     "network",
		Usage:    "Named deployment (" + strings.Join(params.DeploymentNames(), ", ") + ")",
		Value:    turingconfig.Defaults.Network,
		EnvVars:  []string{"TURING_NETWORK"},
		Category: flags.ContractCategory,
	}
	ChainIDFlag = &cli.Uint64Flag{
		Name:     "chainid",
		Usage:    "Chain the wallet must be on (0 = accept any)",
		EnvVars:  []string{"TURING_CHAINID"},
		Category: flags.ContractCategory,
	}
	ContractFlag = &cli.StringFlag{
		Name:     "contract",
		Usage:    "Address of the deployed Turing contract",
		EnvVars:  []string{"TURING_CONTRACT"},
		Category: flags.ContractCategory,
	}
	ArtifactFlag = &cli.StringFlag{
		Name:     "artifact",
		Usage:    "Hardhat artifact to load the contract ABI from",
		EnvVars:  []string{"TURING_ARTIFACT"},
		Category: flags.ContractCategory,
	}

	// Performance tuning
	ReadConcurrencyFlag = &cli.IntFlag{
		Name:     "read.concurrency",
		Usage:    "Participants resolved in parallel while ranking",
		Value:    turingconfig.Defaults.ReadConcurrency,
		EnvVars:  []string{"TURING_READ_CONCURRENCY"},
		Category: flags.PerfCategory,
	}
	ReadRateFlag = &cli.Float64Flag{
		Name:     "read.rate",
		Usage:    "Maximum contract reads per second (0 = unlimited)",
		Value:    turingconfig.Defaults.ReadRate,
		EnvVars:  []string{"TURING_READ_RATE"},
		Category: flags.PerfCategory,
	}

	// Transaction settings
	ConfirmPollFlag = &cli.DurationFlag{
		Name:     "confirm.poll",
		Usage:    "Interval between receipt polls",
		Value:    turingconfig.Defaults.ConfirmPoll,
		EnvVars:  []string{"TURING_CONFIRM_POLL"},
		Category: flags.TransactionCategory,
	}
	ConfirmTimeoutFlag = &cli.DurationFlag{
		Name:     "confirm.timeout",
		Usage:    "Time after which an unconfirmed transaction counts as dropped",
		Value:    turingconfig.Defaults.ConfirmTimeout,
		EnvVars:  []string{"TURING_CONFIRM_TIMEOUT"},
		Category: flags.TransactionCategory,
	}

	// Logging
	VerbosityFlag = &cli.IntFlag{
		Name:     "verbosity",
		Usage:    "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value:    3,
		EnvVars:  []string{"TURING_VERBOSITY"},
		Category: flags.LoggingCategory,
	}
	LogJSONFlag = &cli.BoolFlag{
		Name:     "log.json",
		Usage:    "Format logs with JSON",
		EnvVars:  []string{"TURING_LOG_JSON"},
		Category: flags.LoggingCategory,
	}

	// Metrics flags
	MetricsEnabledFlag = &cli.BoolFlag{
		Name:     "metrics",
		Usage:    "Enable metrics collection and reporting",
		Category: flags.MetricsCategory,
	}

	// MetricsHTTPFlag defines the endpoint for a stand-alone metrics HTTP endpoint.
	MetricsHTTPFlag = &cli.StringFlag{
		Name:     "metrics.addr",
		Usage:    "Enable stand-alone metrics HTTP server listening interface",
		Value:    turingconfig.DefaultMetrics.HTTP,
		Category: flags.MetricsCategory,
	}
	MetricsPortFlag = &cli.IntFlag{
		Name:     "metrics.port",
		Usage:    "Metrics HTTP server listening port",
		Value:    turingconfig.DefaultMetrics.Port,
		Category: flags.MetricsCategory,
	}
	MetricsEnableInfluxDBFlag = &cli.BoolFlag{
		Name:     "metrics.influxdb",
		Usage:    "Enable metrics export/push to an external InfluxDB database",
		Category: flags.MetricsCategory,
	}
	MetricsInfluxDBEndpointFlag = &cli.StringFlag{
		Name:     "metrics.influxdb.endpoint",
		Usage:    "InfluxDB API endpoint to report metrics to",
		Value:    turingconfig.DefaultMetrics.InfluxDBEndpoint,
		Category: flags.MetricsCategory,
	}
	MetricsInfluxDBDatabaseFlag = &cli.StringFlag{
		Name:     "metrics.influxdb.database",
		Usage:    "InfluxDB database name to push reported metrics to",
		Value:    turingconfig.DefaultMetrics.InfluxDBDatabase,
		Category: flags.MetricsCategory,
	}
	MetricsInfluxDBUsernameFlag = &cli.StringFlag{
		Name:     "metrics.influxdb.username",
		Usage:    "Username to authorize access to the database",
		Value:    turingconfig.DefaultMetrics.InfluxDBUsername,
		Category: flags.MetricsCategory,
	}
	MetricsInfluxDBPasswordFlag = &cli.StringFlag{
		Name:     "metrics.influxdb.password",
		Usage:    "Password to authorize access to the database",
		Value:    turingconfig.DefaultMetrics.InfluxDBPassword,
		Category: flags.MetricsCategory,
	}
	// Tags are part of every measurement sent to InfluxDB. Queries on tags are faster in InfluxDB.
	MetricsInfluxDBTagsFlag = &cli.StringFlag{
		Name:     "metrics.influxdb.tags",
		Usage:    "Comma-separated InfluxDB tags (key/values) attached to all measurements",
		Value:    turingconfig.DefaultMetrics.InfluxDBTags,
		Category: flags.MetricsCategory,
	}
	MetricsEnableInfluxDBV2Flag = &cli.BoolFlag{
		Name:     "metrics.influxdbv2",
		Usage:    "Enable metrics export/push to an external InfluxDB v2 database",
		Category: flags.MetricsCategory,
	}
	MetricsInfluxDBTokenFlag = &cli.StringFlag{
		Name:     "metrics.influxdb.token",
		Usage:    "Token to authorize access to the database (v2 only)",
		Value:    turingconfig.DefaultMetrics.InfluxDBToken,
		Category: flags.MetricsCategory,
	}
	MetricsInfluxDBBucketFlag = &cli.StringFlag{
		Name:     "metrics.influxdb.bucket",
		Usage:    "InfluxDB bucket name to push reported metrics to (v2 only)",
		Value:    turingconfig.DefaultMetrics.InfluxDBBucket,
		Category: flags.MetricsCategory,
	}
	MetricsInfluxDBOrganizationFlag = &cli.StringFlag{
		Name:     "metrics.influxdb.organization",
		Usage:    "InfluxDB organization name (v2 only)",
		Value:    turingconfig.DefaultMetrics.InfluxDBOrganization,
		Category: flags.MetricsCategory,
	}
)

var (
	// ClientFlags configure the wallet session and contract binding.
	ClientFlags = []cli.Flag{
		ConfigFileFlag,
		EndpointFlag,
		FromFlag,
		NetworkFlag,
		ChainIDFlag,
		ContractFlag,
		ArtifactFlag,
		ReadConcurrencyFlag,
		ReadRateFlag,
		ConfirmPollFlag,
		ConfirmTimeoutFlag,
	}

	// LoggingFlags configure the log output.
	LoggingFlags = []cli.Flag{
		VerbosityFlag,
		LogJSONFlag,
	}

	// MetricsFlags configure metrics collection and export.
	MetricsFlags = []cli.Flag{
		MetricsEnabledFlag,
		MetricsHTTPFlag,
		MetricsPortFlag,
		MetricsEnableInfluxDBFlag,
		MetricsInfluxDBEndpointFlag,
		MetricsInfluxDBDatabaseFlag,
		MetricsInfluxDBUsernameFlag,
		MetricsInfluxDBPasswordFlag,
		MetricsInfluxDBTagsFlag,
		MetricsEnableInfluxDBV2Flag,
		MetricsInfluxDBTokenFlag,
		MetricsInfluxDBBucketFlag,
		MetricsInfluxDBOrganizationFlag,
	}
)

// SetupLogging installs the root logger as configured by the logging flags.
// Terminal output is coloured when it goes to a terminal.
func SetupLogging(ctx *cli.Context, output io.Writer) {
	if output == nil {
		output = os.Stderr
	}
	var glogger *log.GlogHandler
	if ctx.Bool(LogJSONFlag.Name) {
		glogger = log.NewGlogHandler(log.JSONHandler(output))
	} else {
		useColor := false
		if f, ok := output.(*os.File); ok {
			useColor = (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) && os.Getenv("TERM") != "dumb"
			if useColor {
				output = colorable.NewColorable(f)
			}
		}
		glogger = log.NewGlogHandler(log.NewTerminalHandler(output, useColor))
	}
	glogger.Verbosity(log.FromLegacyLevel(ctx.Int(VerbosityFlag.Name)))
	log.SetDefault(log.NewLogger(glogger))
}

// SetTuringConfig applies client-related command line flags to the config.
func SetTuringConfig(ctx *cli.Context, cfg *turingconfig.Config) error {
	if ctx.IsSet(NetworkFlag.Name) {
		if err := cfg.SetNetwork(ctx.String(NetworkFlag.Name)); err != nil {
			return err
		}
	}
	if ctx.IsSet(EndpointFlag.Name) {
		cfg.Endpoint = ctx.String(EndpointFlag.Name)
	}
	if ctx.IsSet(ChainIDFlag.Name) {
		if id := ctx.Uint64(ChainIDFlag.Name); id == 0 {
			cfg.ChainID = nil
		} else {
			cfg.ChainID = new(big.Int).SetUint64(id)
		}
	}
	if ctx.IsSet(ContractFlag.Name) {
		addr, err := parseAddress(ctx.String(ContractFlag.Name))
		if err != nil {
			return fmt.Errorf("--%s: %v", ContractFlag.Name, err)
		}
		cfg.Contract = addr
	}
	if ctx.IsSet(FromFlag.Name) {
		addr, err := parseAddress(ctx.String(FromFlag.Name))
		if err != nil {
			return fmt.Errorf("--%s: %v", FromFlag.Name, err)
		}
		cfg.From = addr
	}
	if ctx.IsSet(ArtifactFlag.Name) {
		cfg.ArtifactPath = ctx.String(ArtifactFlag.Name)
	}
	if ctx.IsSet(ReadConcurrencyFlag.Name) {
		cfg.ReadConcurrency = ctx.Int(ReadConcurrencyFlag.Name)
	}
	if ctx.IsSet(ReadRateFlag.Name) {
		cfg.ReadRate = ctx.Float64(ReadRateFlag.Name)
	}
	if ctx.IsSet(ConfirmPollFlag.Name) {
		cfg.ConfirmPoll = ctx.Duration(ConfirmPollFlag.Name)
	}
	if ctx.IsSet(ConfirmTimeoutFlag.Name) {
		cfg.ConfirmTimeout = ctx.Duration(ConfirmTimeoutFlag.Name)
	}
	SetMetricsConfig(ctx, &cfg.Metrics)
	return cfg.Validate()
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// SetMetricsConfig applies metrics-related command line flags to the config.
func SetMetricsConfig(ctx *cli.Context, cfg *metrics.Config) {
	if ctx.IsSet(MetricsEnabledFlag.Name) {
		cfg.Enabled = ctx.Bool(MetricsEnabledFlag.Name)
	}
	if ctx.IsSet(MetricsHTTPFlag.Name) {
		cfg.HTTP = ctx.String(MetricsHTTPFlag.Name)
	}
	if ctx.IsSet(MetricsPortFlag.Name) {
		cfg.Port = ctx.Int(MetricsPortFlag.Name)
	}
	if ctx.IsSet(MetricsEnableInfluxDBFlag.Name) {
		cfg.EnableInfluxDB = ctx.Bool(MetricsEnableInfluxDBFlag.Name)
	}
	if ctx.IsSet(MetricsInfluxDBEndpointFlag.Name) {
		cfg.InfluxDBEndpoint = ctx.String(MetricsInfluxDBEndpointFlag.Name)
	}
	if ctx.IsSet(MetricsInfluxDBDatabaseFlag.Name) {
		cfg.InfluxDBDatabase = ctx.String(MetricsInfluxDBDatabaseFlag.Name)
	}
	if ctx.IsSet(MetricsInfluxDBUsernameFlag.Name) {
		cfg.InfluxDBUsername = ctx.String(MetricsInfluxDBUsernameFlag.Name)
	}
	if ctx.IsSet(MetricsInfluxDBPasswordFlag.Name) {
		cfg.InfluxDBPassword = ctx.String(MetricsInfluxDBPasswordFlag.Name)
	}
	if ctx.IsSet(MetricsInfluxDBTagsFlag.Name) {
		cfg.InfluxDBTags = ctx.String(MetricsInfluxDBTagsFlag.Name)
	}
	if ctx.IsSet(MetricsEnableInfluxDBV2Flag.Name) {
		cfg.EnableInfluxDBV2 = ctx.Bool(MetricsEnableInfluxDBV2Flag.Name)
	}
	if ctx.IsSet(MetricsInfluxDBTokenFlag.Name) {
		cfg.InfluxDBToken = ctx.String(MetricsInfluxDBTokenFlag.Name)
	}
	if ctx.IsSet(MetricsInfluxDBBucketFlag.Name) {
		cfg.InfluxDBBucket = ctx.String(MetricsInfluxDBBucketFlag.Name)
	}
	if ctx.IsSet(MetricsInfluxDBOrganizationFlag.Name) {
		cfg.InfluxDBOrganization = ctx.String(MetricsInfluxDBOrganizationFlag.Name)
	}
}

// SetupMetrics starts the metrics exporters selected by cfg.
func SetupMetrics(ctx *cli.Context, cfg *metrics.Config) {
	if !cfg.Enabled {
		return
	}
	metrics.Enabled = true
	log.Info("Enabling metrics collection")

	if cfg.EnableInfluxDB && cfg.EnableInfluxDBV2 {
		Fatalf("Flags --%s and --%s can't be used at the same time", MetricsEnableInfluxDBFlag.Name, MetricsEnableInfluxDBV2Flag.Name)
	}
	if cfg.EnableInfluxDB {
		v2FlagIsSet := ctx.IsSet(MetricsInfluxDBTokenFlag.Name) ||
			ctx.IsSet(MetricsInfluxDBOrganizationFlag.Name) ||
			ctx.IsSet(MetricsInfluxDBBucketFlag.Name)
		if v2FlagIsSet {
			Fatalf("Flags --metrics.influxdb.organization, --metrics.influxdb.token, --metrics.influxdb.bucket are only available for influxdb-v2")
		}
		log.Info("Enabling metrics export to InfluxDB")
		go influxdb.InfluxDBWithTags(metrics.DefaultRegistry, 10*time.Second, cfg.InfluxDBEndpoint, cfg.InfluxDBDatabase, cfg.InfluxDBUsername, cfg.InfluxDBPassword, "turing.", SplitTagsFlag(cfg.InfluxDBTags))
	} else if cfg.EnableInfluxDBV2 {
		v1FlagIsSet := ctx.IsSet(MetricsInfluxDBUsernameFlag.Name) ||
			ctx.IsSet(MetricsInfluxDBPasswordFlag.Name)
		if v1FlagIsSet {
			Fatalf("Flags --metrics.influxdb.username, --metrics.influxdb.password are only available for influxdb-v1")
		}
		log.Info("Enabling metrics export to InfluxDB (v2)")
		go influxdb.InfluxDBV2WithTags(metrics.DefaultRegistry, 10*time.Second, cfg.InfluxDBEndpoint, cfg.InfluxDBToken, cfg.InfluxDBBucket, cfg.InfluxDBOrganization, "turing.", SplitTagsFlag(cfg.InfluxDBTags))
	}

	if address := metricsHTTPAddress(ctx, cfg); address != "" {
		log.Info("Enabling stand-alone metrics HTTP endpoint", "address", address)
		exp.Setup(address)
	}
}

// metricsHTTPAddress returns the listen address of the stand-alone metrics
// endpoint, or "" when it is off. Setting only the port listens on localhost.
func metricsHTTPAddress(ctx *cli.Context, cfg *metrics.Config) string {
	host := cfg.HTTP
	if host == "" && ctx.IsSet(MetricsPortFlag.Name) {
		host = "127.0.0.1"
	}
	if host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", host, cfg.Port)
}

func SplitTagsFlag(tagsFlag string) map[string]string {
	tags := strings.Split(tagsFlag, ",")
	tagsMap := map[string]string{}

	for _, t := range tags {
		if t != "" {
			kv := strings.Split(t, "=")

			if len(kv) == 2 {
				tagsMap[kv[0]] = kv[1]
			}
		}
	}

	return tagsMap
}
