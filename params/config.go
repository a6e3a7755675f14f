package params

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Deployment identifies one deployed instance of the Turing contract.
type Deployment struct {
	Name     string
	ChainID  *big.Int
	Contract common.Address
}

func (d *Deployment) String() string {
	return fmt.Sprintf("%s (chain %v, contract %s)", d.Name, d.ChainID, d.Contract.Hex())
}

var (
	// LocalDeployment is the first contract deployed by the default Hardhat
	// account on a fresh local node.
	LocalDeployment = &Deployment{
		Name:     "localhost",
		ChainID:  big.NewInt(31337),
		Contract: common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
	}

	// DevDeployment is the same deployment on a geth --dev chain.
	DevDeployment = &Deployment{
		Name:     "dev",
		ChainID:  big.NewInt(1337),
		Contract: common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
	}
)

var deployments = map[string]*Deployment{
	LocalDeployment.Name: LocalDeployment,
	DevDeployment.Name:   DevDeployment,
}

// DeploymentByName looks up a known deployment, case-insensitively.
func DeploymentByName(name string) (*Deployment, error) {
	if d, ok := deployments[strings.ToLower(name)]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("unknown network %q (known: %s)", name, strings.Join(DeploymentNames(), ", "))
}

// DeploymentNames returns the sorted names of the known deployments.
func DeploymentNames() []string {
	names := make([]string, 0, len(deployments))
	for name := range deployments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
