package contract

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Contract method names.
const (
	MethodGetCodinomes   = "getCodinomes"
	MethodCodinomes      = "codinomes"
	MethodBalanceOf      = "balanceOf"
	MethodIssueToken     = "issueToken"
	MethodVote           = "vote"
	MethodVotingOn       = "votingOn"
	MethodVotingOff      = "votingOff"
	MethodIsVotingActive = "isVotingActive"
)

var requiredMethods = []string{
	MethodGetCodinomes,
	MethodCodinomes,
	MethodBalanceOf,
	MethodIssueToken,
	MethodVote,
	MethodVotingOn,
	MethodVotingOff,
}

// votingGetters are the names a contract may expose its voting flag under,
// either as a function or as a public bool variable.
var votingGetters = []string{
	MethodIsVotingActive,
	"votingActive",
	"isVotingOpen",
	"votingOpen",
	"votingEnabled",
}

// ErrNoVotingGetter is returned by VotingActive when the contract does not
// expose its voting flag.
var ErrNoVotingGetter = errors.New("contract does not expose the voting flag")

//go:embed turing.abi.json
var turingABIJSON []byte

// DefaultABI returns the embedded Turing contract interface.
func DefaultABI() *abi.ABI {
	parsed, err := ParseABI(bytes.NewReader(turingABIJSON))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded abi: %v", err))
	}
	return parsed
}

// ParseABI reads a JSON ABI and checks that it exposes every method the
// client relies on. A voting flag getter is optional.
func ParseABI(r io.Reader) (*abi.ABI, error) {
	parsed, err := abi.JSON(r)
	if err != nil {
		return nil, err
	}
	for _, name := range requiredMethods {
		if _, ok := parsed.Methods[name]; !ok {
			return nil, fmt.Errorf("abi is missing method %q", name)
		}
	}
	return &parsed, nil
}

// LoadArtifact reads the ABI out of a Hardhat/Truffle build artifact.
func LoadArtifact(path string) (*abi.ABI, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var artifact struct {
		ContractName string          `json:"contractName"`
		ABI          json.RawMessage `json:"abi"`
	}
	if err := json.Unmarshal(blob, &artifact); err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	if len(artifact.ABI) == 0 {
		return nil, fmt.Errorf("%s: artifact has no abi", path)
	}
	parsed, err := ParseABI(bytes.NewReader(artifact.ABI))
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return parsed, nil
}

// votingGetter returns the name of the no-argument bool view exposing the
// voting flag, or "" if the ABI has none.
func votingGetter(parsed *abi.ABI) string {
	for _, name := range votingGetters {
		m, ok := parsed.Methods[name]
		if !ok || len(m.Inputs) != 0 || len(m.Outputs) != 1 {
			continue
		}
		if m.Outputs[0].Type.T == abi.BoolTy {
			return name
		}
	}
	return ""
}
