// Package session discovers and authorizes the wallet and binds the Turing
// contract to the account it signs for.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	mapset "github.com/deckarep/golang-set"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/tos-network/turing"
	"github.com/tos-network/turing/contract"
	"github.com/tos-network/turing/walletclient"
)

// Config selects the wallet endpoint and the deployment to bind to.
type Config struct {
	Endpoint string         // wallet JSON-RPC endpoint (http, ws or ipc)
	ChainID  *big.Int       // expected chain, nil skips the check
	Contract common.Address // deployed Turing contract
	From     common.Address // account to sign with, zero selects the first authorized one
	ABI      *abi.ABI       // nil selects the embedded ABI
	ReadRate float64        // contract read calls per second, 0 is unlimited
}

// DialFunc opens the transport to the wallet.
type DialFunc func(ctx context.Context, rawurl string) (*walletclient.Client, error)

// Session is the signer-bound connection to the wallet and contract.
type Session struct {
	wallet   *walletclient.Client
	contract *contract.Client
	account  common.Address
	accounts []common.Address
	chainID  *big.Int
}

// Connect establishes a session. It fails with turing.ErrNoWalletFound when
// the wallet cannot be reached, turing.ErrUserRejected when authorization is
// declined and turing.ErrNetworkMismatch when the wallet is on the wrong
// chain or the contract is not deployed there. Calling Connect again is how
// a caller reconnects after an account switch.
func Connect(ctx context.Context, cfg Config, dial DialFunc) (*Session, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: no wallet endpoint configured", turing.ErrNoWalletFound)
	}
	if dial == nil {
		dial = walletclient.DialContext
	}
	wallet, err := dial(ctx, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", turing.ErrNoWalletFound, err)
	}
	s, err := bind(ctx, wallet, cfg)
	if err != nil {
		wallet.Close()
		return nil, err
	}
	log.Info("Wallet session established", "account", s.account, "chain", s.chainID, "contract", cfg.Contract)
	return s, nil
}

func bind(ctx context.Context, wallet *walletclient.Client, cfg Config) (*Session, error) {
	accounts, err := wallet.RequestAccounts(ctx)
	if err != nil {
		return nil, classifyConnect(err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: wallet authorized no accounts", turing.ErrUserRejected)
	}
	account := accounts[0]
	if cfg.From != (common.Address{}) {
		authorized := mapset.NewSet()
		for _, a := range accounts {
			authorized.Add(a)
		}
		if !authorized.Contains(cfg.From) {
			return nil, fmt.Errorf("%w: account %s is not authorized", turing.ErrUserRejected, cfg.From.Hex())
		}
		account = cfg.From
	}

	chainID, err := wallet.ChainID(ctx)
	if err != nil {
		return nil, classifyConnect(err)
	}
	if cfg.ChainID == nil {
		log.Warn("No chain id configured, trusting the wallet", "chain", chainID)
	} else if chainID.Cmp(cfg.ChainID) != 0 {
		return nil, fmt.Errorf("%w: wallet is on chain %v, deployment is on chain %v", turing.ErrNetworkMismatch, chainID, cfg.ChainID)
	}

	code, err := wallet.CodeAt(ctx, cfg.Contract, nil)
	if err != nil {
		return nil, classifyConnect(err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%w: no contract code at %s on chain %v", turing.ErrNetworkMismatch, cfg.Contract.Hex(), chainID)
	}

	client := contract.New(wallet, contract.Config{
		Address:  cfg.Contract,
		From:     account,
		ABI:      cfg.ABI,
		ReadRate: cfg.ReadRate,
	})
	return &Session{
		wallet:   wallet,
		contract: client,
		account:  account,
		accounts: accounts,
		chainID:  chainID,
	}, nil
}

// classifyConnect maps errors seen while establishing a session. A transport
// failure at this stage means there is no reachable wallet.
func classifyConnect(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if !walletclient.IsRemote(err) {
		return fmt.Errorf("%w: %v", turing.ErrNoWalletFound, err)
	}
	switch walletclient.ErrorCode(err) {
	case walletclient.CodeUserRejected, walletclient.CodeUnauthorized:
		return fmt.Errorf("%w: %v", turing.ErrUserRejected, err)
	}
	return fmt.Errorf("wallet: %w", err)
}

// Contract returns the contract client bound to the session account.
func (s *Session) Contract() *contract.Client { return s.contract }

// Account returns the account transactions are signed for.
func (s *Session) Account() common.Address { return s.account }

// Accounts returns every account the wallet authorized.
func (s *Session) Accounts() []common.Address {
	return append([]common.Address(nil), s.accounts...)
}

// ChainID returns the chain the session is bound to.
func (s *Session) ChainID() *big.Int { return new(big.Int).Set(s.chainID) }

// Close releases the wallet transport.
func (s *Session) Close() {
	s.wallet.Close()
}
