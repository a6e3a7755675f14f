// Copyright 2019 The go-ethereum Authors
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
	"bytes"
	"flag"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/tos-network/turing/internal/flags"
	"github.com/tos-network/turing/turingconfig"
	"github.com/urfave/cli/v2"
)

func Test_SplitTagsFlag(t *testing.T) {
	tests := []struct {
		name string
		args string
		want map[string]string
	}{
		{
			"2 tags case",
			"host=localhost,bzzkey=123",
			map[string]string{
				"host":   "localhost",
				"bzzkey": "123",
			},
		},
		{
			"1 tag case",
			"host=localhost123",
			map[string]string{
				"host": "localhost123",
			},
		},
		{
			"empty case",
			"",
			map[string]string{},
		},
		{
			"garbage",
			"smth=smthelse=123",
			map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitTagsFlag(tt.args); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitTagsFlag() = %v, want %v", got, tt.want)
			}
		})
	}
}

func newContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	app := cli.NewApp()
	app.Flags = flags.Merge(ClientFlags, LoggingFlags, MetricsFlags)

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range app.Flags {
		if err := f.Apply(set); err != nil {
			t.Fatalf("apply flag: %v", err)
		}
	}
	if err := set.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cli.NewContext(app, set, nil)
}

func TestSetTuringConfigDefaults(t *testing.T) {
	cfg := turingconfig.Defaults
	if err := SetTuringConfig(newContext(t), &cfg); err != nil {
		t.Fatalf("SetTuringConfig error: %v", err)
	}
	if cfg.Endpoint != turingconfig.Defaults.Endpoint || cfg.Contract != turingconfig.Defaults.Contract {
		t.Fatalf("defaults changed without flags: %+v", cfg)
	}
}

func TestSetTuringConfigFlags(t *testing.T) {
	cfg := turingconfig.Defaults
	ctx := newContext(t,
		"--network=dev",
		"--endpoint=ws://127.0.0.1:8546",
		"--contract=0x00000000000000000000000000000000000000aa",
		"--from=0x0000000000000000000000000000000000001001",
		"--read.concurrency=2",
		"--read.rate=10",
		"--confirm.timeout=30s",
		"--metrics",
		"--metrics.influxdb.database=votes",
	)
	if err := SetTuringConfig(ctx, &cfg); err != nil {
		t.Fatalf("SetTuringConfig error: %v", err)
	}
	if cfg.Endpoint != "ws://127.0.0.1:8546" {
		t.Errorf("endpoint = %q", cfg.Endpoint)
	}
	if cfg.ChainID.Int64() != 1337 {
		t.Errorf("chain id = %v, want the dev chain", cfg.ChainID)
	}
	if cfg.Contract != common.HexToAddress("0xaa") {
		t.Errorf("contract = %s, flag should override the network", cfg.Contract.Hex())
	}
	if cfg.From != common.HexToAddress("0x1001") {
		t.Errorf("from = %s", cfg.From.Hex())
	}
	if cfg.ReadConcurrency != 2 || cfg.ReadRate != 10 {
		t.Errorf("read settings = %d, %v", cfg.ReadConcurrency, cfg.ReadRate)
	}
	if cfg.ConfirmTimeout != 30*time.Second {
		t.Errorf("confirm timeout = %v", cfg.ConfirmTimeout)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.InfluxDBDatabase != "votes" {
		t.Errorf("metrics = %+v", cfg.Metrics)
	}
}

func TestSetTuringConfigAnyChain(t *testing.T) {
	cfg := turingconfig.Defaults
	if err := SetTuringConfig(newContext(t, "--chainid=0"), &cfg); err != nil {
		t.Fatalf("SetTuringConfig error: %v", err)
	}
	if cfg.ChainID != nil {
		t.Fatalf("chain id = %v, want nil", cfg.ChainID)
	}
}

func TestSetTuringConfigInvalid(t *testing.T) {
	tests := [][]string{
		{"--contract=0x1234"},
		{"--from=bob"},
		{"--network=mainnet"},
		{"--endpoint="},
		{"--read.rate=-1"},
	}
	for _, args := range tests {
		cfg := turingconfig.Defaults
		if err := SetTuringConfig(newContext(t, args...), &cfg); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestSetupLoggingJSON(t *testing.T) {
	defer log.SetDefault(log.Root())
	var buf bytes.Buffer
	SetupLogging(newContext(t, "--log.json", "--verbosity=3"), &buf)
	log.Info("Ranking computed", "participants", 3)
	log.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, `"msg":"Ranking computed"`) || !strings.Contains(out, `"participants":3`) {
		t.Fatalf("unexpected json log output: %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record logged at verbosity 3: %q", out)
	}
}

func TestMetricsHTTPAddress(t *testing.T) {
	tests := []struct {
		args []string
		http string // value loaded from the config file
		want string
	}{
		{nil, "", ""},
		{nil, "0.0.0.0", "0.0.0.0:6060"},
		{[]string{"--metrics.port=7070"}, "", "127.0.0.1:7070"},
		{[]string{"--metrics.addr=10.0.0.1"}, "", "10.0.0.1:6060"},
		{[]string{"--metrics.addr=10.0.0.1", "--metrics.port=7070"}, "0.0.0.0", "10.0.0.1:7070"},
	}
	for _, tt := range tests {
		ctx := newContext(t, tt.args...)
		cfg := turingconfig.Defaults
		cfg.Metrics.HTTP = tt.http
		if err := SetTuringConfig(ctx, &cfg); err != nil {
			t.Fatalf("%v: SetTuringConfig error: %v", tt.args, err)
		}
		if got := metricsHTTPAddress(ctx, &cfg.Metrics); got != tt.want {
			t.Errorf("%v with http %q: address = %q, want %q", tt.args, tt.http, got, tt.want)
		}
	}
}
