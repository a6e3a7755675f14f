package contract_test

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/tos-network/turing"
	"github.com/tos-network/turing/contract"
	"github.com/tos-network/turing/internal/turingtest"
	"github.com/tos-network/turing/params"
)

func newTestClient(t *testing.T, from common.Address) (*contract.Client, *turingtest.Chain, []turingtest.Participant) {
	t.Helper()
	ps := turingtest.Participants(3)
	chain := turingtest.New(ps)
	client := contract.New(chain.Dial(t), contract.Config{
		Address: turingtest.ContractAddress,
		From:    from,
	})
	return client, chain, ps
}

func tur(n int64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(uint64(n)), uint256.NewInt(params.TUR))
}

func TestReads(t *testing.T) {
	client, chain, ps := newTestClient(t, turingtest.Owner)
	chain.SetBalance(ps[2].Label, big.NewInt(1234))
	ctx := context.Background()

	names, err := client.Participants(ctx)
	if err != nil {
		t.Fatalf("Participants error: %v", err)
	}
	if len(names) != 3 || names[0] != "nome1" || names[2] != "nome3" {
		t.Fatalf("unexpected participants: %v", names)
	}
	addr, err := client.AddressOf(ctx, "nome3")
	if err != nil {
		t.Fatalf("AddressOf error: %v", err)
	}
	if addr != ps[2].Address {
		t.Fatalf("AddressOf = %s, want %s", addr.Hex(), ps[2].Address.Hex())
	}
	balance, err := client.BalanceOf(ctx, addr)
	if err != nil {
		t.Fatalf("BalanceOf error: %v", err)
	}
	if !balance.Eq(uint256.NewInt(1234)) {
		t.Fatalf("BalanceOf = %v, want 1234", balance)
	}
	active, err := client.VotingActive(ctx)
	if err != nil || !active {
		t.Fatalf("VotingActive = %v, %v", active, err)
	}
}

func TestWrites(t *testing.T) {
	client, chain, ps := newTestClient(t, turingtest.Owner)
	ctx := context.Background()

	sub, err := client.IssueToken(ctx, ps[0].Label, tur(3))
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}
	if sub.Method != contract.MethodIssueToken || sub.From != turingtest.Owner || len(sub.Data) < 4 {
		t.Fatalf("unexpected submission: %+v", sub)
	}
	receipt, err := client.Receipt(ctx, sub.Hash)
	if err != nil {
		t.Fatalf("Receipt error: %v", err)
	}
	if receipt == nil || receipt.Status != turing.ReceiptStatusSuccessful {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	if chain.Balance(ps[0].Label).Cmp(tur(3).ToBig()) != 0 {
		t.Fatalf("balance not credited: %v", chain.Balance(ps[0].Label))
	}

	if _, err := client.SetVoting(ctx, false); err != nil {
		t.Fatalf("SetVoting error: %v", err)
	}
	if chain.VotingActive() {
		t.Fatalf("voting still active")
	}
	if _, err := client.SetVoting(ctx, true); err != nil {
		t.Fatalf("SetVoting error: %v", err)
	}
	if !chain.VotingActive() {
		t.Fatalf("voting still inactive")
	}

	if _, err := client.Vote(ctx, ps[1].Label, tur(1)); err != nil {
		t.Fatalf("Vote error: %v", err)
	}
	if chain.Balance(ps[1].Label).Cmp(tur(1).ToBig()) != 0 {
		t.Fatalf("vote not credited: %v", chain.Balance(ps[1].Label))
	}
}

func TestPendingReceipt(t *testing.T) {
	client, chain, ps := newTestClient(t, turingtest.Owner)
	chain.HoldReceipts(true)
	ctx := context.Background()

	sub, err := client.IssueToken(ctx, ps[0].Label, tur(1))
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}
	receipt, err := client.Receipt(ctx, sub.Hash)
	if err != nil || receipt != nil {
		t.Fatalf("expected pending receipt, got %+v, %v", receipt, err)
	}
	chain.Mine()
	receipt, err = client.Receipt(ctx, sub.Hash)
	if err != nil || receipt == nil {
		t.Fatalf("expected receipt after mining, got %+v, %v", receipt, err)
	}
}

func TestSignerRejection(t *testing.T) {
	client, chain, ps := newTestClient(t, turingtest.Owner)
	chain.RejectSigning(true)

	_, err := client.IssueToken(context.Background(), ps[0].Label, tur(1))
	if !errors.Is(err, turing.ErrRejectedBySigner) {
		t.Fatalf("IssueToken error = %v, want ErrRejectedBySigner", err)
	}
	if errors.Is(err, turing.ErrReverted) || errors.Is(err, turing.ErrConnectionLost) {
		t.Fatalf("signer rejection must not look like another failure: %v", err)
	}
}

func TestPreflightRevert(t *testing.T) {
	client, chain, ps := newTestClient(t, ps0Address())
	chain.PreflightReverts(true)

	_, err := client.IssueToken(context.Background(), ps[0].Label, tur(1))
	var rev *turing.RevertError
	if !errors.As(err, &rev) {
		t.Fatalf("IssueToken error = %v, want RevertError", err)
	}
	if rev.Reason != "Only the owner can issue tokens" {
		t.Fatalf("unexpected revert reason: %q", rev.Reason)
	}
	if turing.KindOf(err) != turing.KindChainRejection {
		t.Fatalf("unexpected kind: %v", turing.KindOf(err))
	}
}

func TestRevertReasonReplay(t *testing.T) {
	client, chain, ps := newTestClient(t, turingtest.Owner)
	chain.SetVotingActive(false)
	ctx := context.Background()

	sub, err := client.Vote(ctx, ps[0].Label, tur(1))
	if err != nil {
		t.Fatalf("Vote error: %v", err)
	}
	receipt, err := client.Receipt(ctx, sub.Hash)
	if err != nil || receipt == nil {
		t.Fatalf("Receipt = %+v, %v", receipt, err)
	}
	if receipt.Status != turing.ReceiptStatusFailed {
		t.Fatalf("expected failed receipt, got status %d", receipt.Status)
	}
	rev := client.RevertReason(ctx, sub, receipt.BlockNumber)
	if rev.Reason != "Voting is not active" {
		t.Fatalf("unexpected revert reason: %q", rev.Reason)
	}
}

func TestMissingContract(t *testing.T) {
	client, chain, _ := newTestClient(t, turingtest.Owner)
	chain.RemoveCode(true)

	_, err := client.Participants(context.Background())
	if !errors.Is(err, turing.ErrNetworkMismatch) {
		t.Fatalf("Participants error = %v, want ErrNetworkMismatch", err)
	}
}

func TestConnectionLost(t *testing.T) {
	ps := turingtest.Participants(1)
	chain := turingtest.New(ps)
	wallet := chain.Dial(t)
	client := contract.New(wallet, contract.Config{Address: turingtest.ContractAddress, From: turingtest.Owner})
	wallet.Close()

	_, err := client.Participants(context.Background())
	if !errors.Is(err, turing.ErrConnectionLost) {
		t.Fatalf("Participants error = %v, want ErrConnectionLost", err)
	}
}

func TestReadRateLimitHonoursContext(t *testing.T) {
	ps := turingtest.Participants(1)
	chain := turingtest.New(ps)
	client := contract.New(chain.Dial(t), contract.Config{
		Address:  turingtest.ContractAddress,
		From:     turingtest.Owner,
		ReadRate: 0.001,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := client.Participants(ctx); err != nil {
		t.Fatalf("first read should use the burst: %v", err)
	}
	cancel()
	if _, err := client.Participants(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("throttled read error = %v, want context.Canceled", err)
	}
	if n := chain.Calls("eth_call"); n != 1 {
		t.Fatalf("eth_call count = %d, want 1", n)
	}
}

func TestLoadArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Turing.json")
	abiJSON, err := os.ReadFile("turing.abi.json")
	if err != nil {
		t.Fatal(err)
	}
	artifact := `{"contractName":"Turing","abi":` + string(abiJSON) + `,"bytecode":"0x"}`
	if err := os.WriteFile(path, []byte(artifact), 0600); err != nil {
		t.Fatal(err)
	}
	parsed, err := contract.LoadArtifact(path)
	if err != nil {
		t.Fatalf("LoadArtifact error: %v", err)
	}
	if _, ok := parsed.Methods[contract.MethodVote]; !ok {
		t.Fatalf("vote method missing from parsed abi")
	}

	broken := filepath.Join(dir, "Broken.json")
	if err := os.WriteFile(broken, []byte(`{"abi":[{"type":"function","name":"vote","inputs":[],"outputs":[]}]}`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := contract.LoadArtifact(broken); err == nil {
		t.Fatalf("expected error for incomplete abi")
	}
}

const coreABI = `[
  {"type":"function","name":"getCodinomes","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string[]"}]},
  {"type":"function","name":"codinomes","stateMutability":"view","inputs":[{"name":"","type":"string"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"issueToken","stateMutability":"nonpayable","inputs":[{"name":"codinome","type":"string"},{"name":"amount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"vote","stateMutability":"nonpayable","inputs":[{"name":"codinome","type":"string"},{"name":"amount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"votingOn","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"votingOff","stateMutability":"nonpayable","inputs":[],"outputs":[]}%s
]`

func TestParseABIWithoutVotingGetter(t *testing.T) {
	parsed, err := contract.ParseABI(strings.NewReader(fmt.Sprintf(coreABI, "")))
	if err != nil {
		t.Fatalf("ParseABI error: %v", err)
	}
	chain := turingtest.New(turingtest.Participants(2))
	client := contract.New(chain.Dial(t), contract.Config{Address: turingtest.ContractAddress, From: turingtest.Owner, ABI: parsed})
	if client.CanReadVoting() {
		t.Fatalf("client claims to read voting without a getter")
	}
	if _, err := client.VotingActive(context.Background()); !errors.Is(err, contract.ErrNoVotingGetter) {
		t.Fatalf("VotingActive error = %v, want ErrNoVotingGetter", err)
	}
	if n := chain.Calls("eth_call"); n != 0 {
		t.Fatalf("eth_call count = %d, want 0", n)
	}
	if _, err := client.SetVoting(context.Background(), false); err != nil {
		t.Fatalf("SetVoting error: %v", err)
	}
}

func TestVotingGetterNames(t *testing.T) {
	tests := []struct {
		extra string
		ok    bool
	}{
		{`,{"type":"function","name":"votingActive","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]}`, true},
		{`,{"type":"function","name":"votingEnabled","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]}`, true},
		{`,{"type":"function","name":"votingActive","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}`, false},
		{`,{"type":"function","name":"isVotingActive","stateMutability":"view","inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"bool"}]}`, false},
	}
	for i, tt := range tests {
		parsed, err := contract.ParseABI(strings.NewReader(fmt.Sprintf(coreABI, tt.extra)))
		if err != nil {
			t.Fatalf("test %d: ParseABI error: %v", i, err)
		}
		client := contract.New(nil, contract.Config{ABI: parsed})
		if client.CanReadVoting() != tt.ok {
			t.Fatalf("test %d: CanReadVoting = %v, want %v", i, client.CanReadVoting(), tt.ok)
		}
	}
}

func ps0Address() common.Address {
	return turingtest.Participants(1)[0].Address
}
