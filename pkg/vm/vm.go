// Copyright (C) 2023, E36 Knots. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vm models the virtual machines Avalanche blockchains run on.
package vm

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
)

// Type tags the VM running a blockchain. It is operator-supplied
// configuration: the platform API does not expose it, so reconciliation
// must preserve it (see pkg/network).
type Type string

const (
	Undefined   Type = ""
	Coreth      Type = "Coreth"      // Avalanche C-Chain
	PlatformVM  Type = "PlatformVM"  // Avalanche P-Chain
	AvalancheVM Type = "AvalancheVM" // Avalanche X-Chain
	SubnetEVM   Type = "SubnetEVM"
)

// ID derives the VM ID from the VM name: the name's bytes zero-padded to
// 32 bytes. Names longer than 32 bytes have no valid ID.
func ID(vmName string) (ids.ID, error) {
	if len(vmName) > ids.IDLen {
		return ids.Empty, fmt.Errorf("VM name must be <= %d bytes, found %d", ids.IDLen, len(vmName))
	}
	b := make([]byte, ids.IDLen)
	copy(b, []byte(vmName))
	return ids.ToID(b)
}
