// Copyright (C) 2023, E36 Knots. All rights reserved.
// See the file LICENSE for licensing terms.

// Package subnet models Avalanche Subnets and their validators.
package subnet

import (
	"github.com/AshAvalanche/ash-go/pkg/asherrors"
	"github.com/AshAvalanche/ash-go/pkg/blockchain"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/constants"
)

// Type classifies a Subnet from its remote threshold/ID data.
type Type string

const (
	// PrimaryNetwork is the designated Subnet every validator belongs to.
	PrimaryNetwork Type = "PrimaryNetwork"
	// Permissioned Subnets gate validator membership behind control keys.
	Permissioned Type = "Permissioned"
	// Elastic Subnets have open, stake-based membership (threshold 0).
	Elastic Type = "Elastic"
)

// Classify derives the Subnet type from its signing threshold and ID.
// The Primary Network ID is a well-known constant compared by value.
func Classify(threshold uint32, id ids.ID) Type {
	switch {
	case threshold == 0 && id == constants.PrimaryNetworkID:
		return PrimaryNetwork
	case threshold == 0:
		return Elastic
	default:
		return Permissioned
	}
}

// Subnet is a set of validators validating one or more blockchains.
//
// Blockchains and Validators must not contain duplicate IDs. The two
// collections have different refresh semantics (see pkg/network):
// blockchains are merged incrementally, validators are an authoritative
// snapshot replaced wholesale.
type Subnet struct {
	ID          ids.ID   `json:"id"`
	ControlKeys []string `json:"controlKeys"`
	Threshold   uint32   `json:"threshold"`
	Type        Type     `json:"subnetType"`

	Blockchains []blockchain.Blockchain `json:"blockchains"`

	// Validators is a cache of the current validator set, in the order
	// the registry returned it.
	Validators []Validator `json:"validators,omitempty"`
	// PendingValidators holds validators whose validity window has not
	// started yet.
	PendingValidators []Validator `json:"pendingValidators,omitempty"`
}

// GetBlockchain returns the Subnet's blockchain with the given ID.
func (s *Subnet) GetBlockchain(id ids.ID) (*blockchain.Blockchain, error) {
	for i := range s.Blockchains {
		if s.Blockchains[i].ID == id {
			return &s.Blockchains[i], nil
		}
	}
	return nil, &asherrors.NotFoundError{
		Scope:       "Subnet '" + s.ID.String() + "'",
		TargetType:  "blockchain",
		TargetValue: id.String(),
	}
}

// GetBlockchainByName returns the Subnet's blockchain with the given name.
func (s *Subnet) GetBlockchainByName(name string) (*blockchain.Blockchain, error) {
	for i := range s.Blockchains {
		if s.Blockchains[i].Name == name {
			return &s.Blockchains[i], nil
		}
	}
	return nil, &asherrors.NotFoundError{
		Scope:       "Subnet '" + s.ID.String() + "'",
		TargetType:  "blockchain",
		TargetValue: name,
	}
}

// GetValidator returns the Subnet's current validator with the given node ID.
func (s *Subnet) GetValidator(nodeID ids.NodeID) (*Validator, error) {
	for i := range s.Validators {
		if s.Validators[i].NodeID == nodeID {
			return &s.Validators[i], nil
		}
	}
	return nil, &asherrors.NotFoundError{
		Scope:       "Subnet '" + s.ID.String() + "'",
		TargetType:  "validator",
		TargetValue: nodeID.String(),
	}
}

// ValidatorIDs returns the node IDs of the current validator set, in
// stored order.
func (s *Subnet) ValidatorIDs() []ids.NodeID {
	nodeIDs := make([]ids.NodeID, len(s.Validators))
	for i := range s.Validators {
		nodeIDs[i] = s.Validators[i].NodeID
	}
	return nodeIDs
}

// CheckPermissionedOperation errors unless the Subnet is Permissioned.
// Operations gated by control keys (adding a permissioned validator,
// creating a chain) make no sense on the Primary Network or on Elastic
// Subnets.
func (s *Subnet) CheckPermissionedOperation(operation string) error {
	if s.Type != Permissioned {
		return &asherrors.OperationNotAllowedError{
			Operation: operation,
			Scope:     string(s.Type) + " Subnet '" + s.ID.String() + "'",
		}
	}
	return nil
}
