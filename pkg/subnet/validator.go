// Copyright (C) 2023, E36 Knots. All rights reserved.
// See the file LICENSE for licensing terms.
package subnet

import (
	"time"

	"github.com/ava-labs/avalanchego/ids"
)

// Validator is a node validating a Subnet. Connected reports current
// reachability from the queried node's point of view, as opposed to mere
// registration on the platform chain.
type Validator struct {
	TxID     ids.ID     `json:"txID"`
	NodeID   ids.NodeID `json:"nodeID"`
	SubnetID ids.ID     `json:"subnetID"`

	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`

	StakeAmount     uint64  `json:"stakeAmount,omitempty"`
	Weight          uint64  `json:"weight,omitempty"`
	PotentialReward uint64  `json:"potentialReward,omitempty"`
	DelegationFee   float32 `json:"delegationFee,omitempty"`

	Connected bool    `json:"connected"`
	Uptime    float32 `json:"uptime"`

	// Signer is the validator's BLS public key and proof of possession,
	// when registered. The SDK carries the raw values and does not verify
	// them.
	Signer *Signer `json:"signer,omitempty"`

	ValidationRewardOwner *OutputOwners `json:"validationRewardOwner,omitempty"`
	DelegationRewardOwner *OutputOwners `json:"delegationRewardOwner,omitempty"`

	DelegatorCount  uint64      `json:"delegatorCount,omitempty"`
	DelegatorWeight uint64      `json:"delegatorWeight,omitempty"`
	Delegators      []Delegator `json:"delegators,omitempty"`
}

// Delegator delegates stake to a validator.
type Delegator struct {
	TxID   ids.ID     `json:"txID"`
	NodeID ids.NodeID `json:"nodeID"`

	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`

	StakeAmount     uint64        `json:"stakeAmount"`
	PotentialReward uint64        `json:"potentialReward,omitempty"`
	RewardOwner     *OutputOwners `json:"rewardOwner,omitempty"`
}

// Signer is a BLS public key with its proof of possession, hex encoded as
// returned by the platform and info APIs.
type Signer struct {
	PublicKey         string `json:"publicKey"`
	ProofOfPossession string `json:"proofOfPossession"`
}

// OutputOwners is a secp256k1 output owners record.
// See https://docs.avax.network/specs/platform-transaction-serialization#secp256k1-output-owners-output
type OutputOwners struct {
	Locktime  uint64   `json:"locktime"`
	Threshold uint32   `json:"threshold"`
	Addresses []string `json:"addresses"`
}
