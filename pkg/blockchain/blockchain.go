// Copyright (C) 2023, E36 Knots. All rights reserved.
// See the file LICENSE for licensing terms.

// Package blockchain models an Avalanche blockchain as seen from a
// client: identity from the platform chain, plus operator-supplied
// connection details.
package blockchain

import (
	"github.com/AshAvalanche/ash-go/pkg/vm"

	"github.com/ava-labs/avalanchego/ids"
)

// Blockchain belongs to exactly one Subnet. SubnetID is a weak back
// reference used for lookups, not an ownership relation.
//
// VMType and RPCURL are not discoverable from the platform API: they are
// supplied by configuration and preserved across refreshes. RPCURL may be
// empty when the chain's endpoint is not known locally.
type Blockchain struct {
	ID       ids.ID  `json:"id"`
	Name     string  `json:"name"`
	SubnetID ids.ID  `json:"subnetID"`
	VMID     ids.ID  `json:"vmID"`
	VMType   vm.Type `json:"vmType"`
	RPCURL   string  `json:"rpcUrl"`
}
