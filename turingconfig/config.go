// Package turingconfig contains the configuration of the Turing client.
package turingconfig

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/tos-network/turing/contract"
	"github.com/tos-network/turing/dapp"
	"github.com/tos-network/turing/orchestrator"
	"github.com/tos-network/turing/params"
	"github.com/tos-network/turing/ranking"
	"github.com/tos-network/turing/session"
)

// DefaultMetrics is the metrics configuration used by the client. Exporters
// are off unless enabled explicitly. An empty HTTP keeps the stand-alone
// endpoint off.
var DefaultMetrics = metrics.Config{
	Enabled:          false,
	EnabledExpensive: false,
	HTTP:             "",
	Port:             6060,
	EnableInfluxDB:   false,
	InfluxDBEndpoint: "http://localhost:8086",
	InfluxDBDatabase: "turing",
	InfluxDBUsername: "test",
	InfluxDBPassword: "test",
	InfluxDBTags:     "host=localhost",

	// influxdbv2-specific settings
	EnableInfluxDBV2:     false,
	InfluxDBToken:        "test",
	InfluxDBBucket:       "turing",
	InfluxDBOrganization: "turing",
}

// Defaults contains default settings for a local Hardhat node.
var Defaults = Config{
	Endpoint:        "http://127.0.0.1:8545",
	Network:         params.LocalDeployment.Name,
	ChainID:         new(big.Int).Set(params.LocalDeployment.ChainID),
	Contract:        params.LocalDeployment.Contract,
	ReadConcurrency: ranking.DefaultConcurrency,
	ReadRate:        0,
	ConfirmPoll:     orchestrator.DefaultConfig.PollInterval,
	ConfirmTimeout:  orchestrator.DefaultConfig.ConfirmTimeout,
	Metrics:         DefaultMetrics,
}

// Config contains configuration options for the Turing client.
type Config struct {
	// Wallet JSON-RPC endpoint (http, ws or ipc).
	Endpoint string

	// Named deployment the chain id and contract default to.
	Network string `toml:",omitempty"`

	// Chain the wallet must be on. Nil disables the check.
	ChainID *big.Int `toml:",omitempty"`

	// Deployed Turing contract.
	Contract common.Address

	// Account to sign with. Zero selects the first authorized account.
	From common.Address `toml:",omitempty"`

	// Hardhat artifact to take the contract ABI from instead of the
	// embedded one.
	ArtifactPath string `toml:",omitempty"`

	// Ranking reads
	ReadConcurrency int
	ReadRate        float64 // contract reads per second, 0 is unlimited

	// Confirmation wait
	ConfirmPoll    time.Duration
	ConfirmTimeout time.Duration

	// Metrics collection and export
	Metrics metrics.Config
}

// SetNetwork selects a named deployment and takes its chain id and contract.
func (c *Config) SetNetwork(name string) error {
	d, err := params.DeploymentByName(name)
	if err != nil {
		return err
	}
	c.Network = d.Name
	c.ChainID = new(big.Int).Set(d.ChainID)
	c.Contract = d.Contract
	return nil
}

// Validate checks the settings that would otherwise only fail at runtime.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("no wallet endpoint configured")
	}
	if c.Contract == (common.Address{}) {
		return fmt.Errorf("no contract address configured")
	}
	if c.ChainID != nil && c.ChainID.Sign() <= 0 {
		return fmt.Errorf("invalid chain id %v", c.ChainID)
	}
	if c.ReadConcurrency < 0 {
		return fmt.Errorf("invalid read concurrency %d", c.ReadConcurrency)
	}
	if c.ReadRate < 0 {
		return fmt.Errorf("invalid read rate %v", c.ReadRate)
	}
	if c.ConfirmPoll < 0 || c.ConfirmTimeout < 0 {
		return fmt.Errorf("invalid confirmation timing (poll %v, timeout %v)", c.ConfirmPoll, c.ConfirmTimeout)
	}
	return nil
}

// ContractABI returns the ABI named by ArtifactPath, or nil for the embedded one.
func (c *Config) ContractABI() (*abi.ABI, error) {
	if c.ArtifactPath == "" {
		return nil, nil
	}
	return contract.LoadArtifact(c.ArtifactPath)
}

// SessionConfig derives the session settings.
func (c *Config) SessionConfig() (session.Config, error) {
	parsed, err := c.ContractABI()
	if err != nil {
		return session.Config{}, err
	}
	return session.Config{
		Endpoint: c.Endpoint,
		ChainID:  c.ChainID,
		Contract: c.Contract,
		From:     c.From,
		ABI:      parsed,
		ReadRate: c.ReadRate,
	}, nil
}

// AppConfig derives the session context settings.
func (c *Config) AppConfig() dapp.Config {
	return dapp.Config{
		Ranking: ranking.Options{Concurrency: c.ReadConcurrency},
		Tx: orchestrator.Config{
			PollInterval:   c.ConfirmPoll,
			ConfirmTimeout: c.ConfirmTimeout,
		},
	}
}
