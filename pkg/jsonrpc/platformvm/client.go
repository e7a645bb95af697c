// Copyright (C) 2023, E36 Knots. All rights reserved.
// See the file LICENSE for licensing terms.

// Package platformvm is a client for the subset of the P-Chain API the
// SDK needs: listing Subnets, blockchains and validators. Replies are
// mapped onto the core entities; numeric fields arrive as strings and use
// avalanchego's json types.
package platformvm

import (
	"context"
	"time"

	"github.com/AshAvalanche/ash-go/pkg/blockchain"
	"github.com/AshAvalanche/ash-go/pkg/jsonrpc"
	"github.com/AshAvalanche/ash-go/pkg/subnet"

	"github.com/ava-labs/avalanchego/ids"
	avajson "github.com/ava-labs/avalanchego/utils/json"
)

var _ Client = (*client)(nil)

// Client issues P-Chain API calls against a single RPC endpoint.
type Client interface {
	// GetSubnets lists every Subnet known to the endpoint. Blockchain and
	// validator collections of the returned Subnets are empty: they are
	// fetched by separate calls.
	GetSubnets(ctx context.Context) ([]subnet.Subnet, error)
	// GetBlockchains lists every blockchain known to the endpoint.
	GetBlockchains(ctx context.Context) ([]blockchain.Blockchain, error)
	// GetCurrentValidators lists the current validators of a Subnet.
	GetCurrentValidators(ctx context.Context, subnetID ids.ID) ([]subnet.Validator, error)
	// GetPendingValidators lists validators whose validity window has not
	// started yet, along with their pending delegators.
	GetPendingValidators(ctx context.Context, subnetID ids.ID) ([]subnet.Validator, []subnet.Delegator, error)
}

type client struct {
	requester jsonrpc.EndpointRequester
}

// NewClient returns a P-Chain API client posting to rpcURL (a full
// endpoint URL, e.g. https://api.avax.network/ext/bc/P).
func NewClient(rpcURL string) Client {
	return &client{requester: jsonrpc.NewEndpointRequester(rpcURL)}
}

type apiSubnet struct {
	ID          ids.ID         `json:"id"`
	ControlKeys []string       `json:"controlKeys"`
	Threshold   avajson.Uint32 `json:"threshold"`
}

type getSubnetsReply struct {
	Subnets []apiSubnet `json:"subnets"`
}

func (c *client) GetSubnets(ctx context.Context) ([]subnet.Subnet, error) {
	reply := getSubnetsReply{}
	if err := c.requester.SendRequest(ctx, "platform.getSubnets", struct{}{}, &reply); err != nil {
		return nil, err
	}

	subnets := make([]subnet.Subnet, len(reply.Subnets))
	for i, s := range reply.Subnets {
		subnets[i] = subnet.Subnet{
			ID:          s.ID,
			ControlKeys: s.ControlKeys,
			Threshold:   uint32(s.Threshold),
			Type:        subnet.Classify(uint32(s.Threshold), s.ID),
		}
	}
	return subnets, nil
}

type apiBlockchain struct {
	ID       ids.ID `json:"id"`
	Name     string `json:"name"`
	SubnetID ids.ID `json:"subnetID"`
	VMID     ids.ID `json:"vmID"`
}

type getBlockchainsReply struct {
	Blockchains []apiBlockchain `json:"blockchains"`
}

func (c *client) GetBlockchains(ctx context.Context) ([]blockchain.Blockchain, error) {
	reply := getBlockchainsReply{}
	if err := c.requester.SendRequest(ctx, "platform.getBlockchains", struct{}{}, &reply); err != nil {
		return nil, err
	}

	blockchains := make([]blockchain.Blockchain, len(reply.Blockchains))
	for i, b := range reply.Blockchains {
		blockchains[i] = blockchain.Blockchain{
			ID:       b.ID,
			Name:     b.Name,
			SubnetID: b.SubnetID,
			VMID:     b.VMID,
		}
	}
	return blockchains, nil
}

type apiOwner struct {
	Locktime  avajson.Uint64 `json:"locktime"`
	Threshold avajson.Uint32 `json:"threshold"`
	Addresses []string       `json:"addresses"`
}

func (o *apiOwner) toOutputOwners() *subnet.OutputOwners {
	if o == nil {
		return nil
	}
	return &subnet.OutputOwners{
		Locktime:  uint64(o.Locktime),
		Threshold: uint32(o.Threshold),
		Addresses: o.Addresses,
	}
}

type apiDelegator struct {
	TxID            ids.ID         `json:"txID"`
	NodeID          ids.NodeID     `json:"nodeID"`
	StartTime       avajson.Uint64 `json:"startTime"`
	EndTime         avajson.Uint64 `json:"endTime"`
	StakeAmount     avajson.Uint64 `json:"stakeAmount"`
	PotentialReward avajson.Uint64 `json:"potentialReward"`
	RewardOwner     *apiOwner      `json:"rewardOwner"`
}

func (d *apiDelegator) toDelegator() subnet.Delegator {
	return subnet.Delegator{
		TxID:            d.TxID,
		NodeID:          d.NodeID,
		StartTime:       time.Unix(int64(d.StartTime), 0).UTC(),
		EndTime:         time.Unix(int64(d.EndTime), 0).UTC(),
		StakeAmount:     uint64(d.StakeAmount),
		PotentialReward: uint64(d.PotentialReward),
		RewardOwner:     d.RewardOwner.toOutputOwners(),
	}
}

type apiValidator struct {
	TxID                  ids.ID          `json:"txID"`
	NodeID                ids.NodeID      `json:"nodeID"`
	StartTime             avajson.Uint64  `json:"startTime"`
	EndTime               avajson.Uint64  `json:"endTime"`
	StakeAmount           avajson.Uint64  `json:"stakeAmount"`
	Weight                avajson.Uint64  `json:"weight"`
	PotentialReward       avajson.Uint64  `json:"potentialReward"`
	DelegationFee         avajson.Float32 `json:"delegationFee"`
	Connected             bool            `json:"connected"`
	Uptime                avajson.Float32 `json:"uptime"`
	Signer                *subnet.Signer  `json:"signer"`
	ValidationRewardOwner *apiOwner       `json:"validationRewardOwner"`
	DelegationRewardOwner *apiOwner       `json:"delegationRewardOwner"`
	DelegatorCount        avajson.Uint64  `json:"delegatorCount"`
	DelegatorWeight       avajson.Uint64  `json:"delegatorWeight"`
	Delegators            []apiDelegator  `json:"delegators"`
}

func (v *apiValidator) toValidator(subnetID ids.ID) subnet.Validator {
	var delegators []subnet.Delegator
	if len(v.Delegators) > 0 {
		delegators = make([]subnet.Delegator, len(v.Delegators))
		for i := range v.Delegators {
			delegators[i] = v.Delegators[i].toDelegator()
		}
	}
	return subnet.Validator{
		TxID:                  v.TxID,
		NodeID:                v.NodeID,
		SubnetID:              subnetID,
		StartTime:             time.Unix(int64(v.StartTime), 0).UTC(),
		EndTime:               time.Unix(int64(v.EndTime), 0).UTC(),
		StakeAmount:           uint64(v.StakeAmount),
		Weight:                uint64(v.Weight),
		PotentialReward:       uint64(v.PotentialReward),
		DelegationFee:         float32(v.DelegationFee),
		Connected:             v.Connected,
		Uptime:                float32(v.Uptime),
		Signer:                v.Signer,
		ValidationRewardOwner: v.ValidationRewardOwner.toOutputOwners(),
		DelegationRewardOwner: v.DelegationRewardOwner.toOutputOwners(),
		DelegatorCount:        uint64(v.DelegatorCount),
		DelegatorWeight:       uint64(v.DelegatorWeight),
		Delegators:            delegators,
	}
}

type getValidatorsArgs struct {
	SubnetID ids.ID `json:"subnetID"`
}

type getCurrentValidatorsReply struct {
	Validators []apiValidator `json:"validators"`
}

func (c *client) GetCurrentValidators(ctx context.Context, subnetID ids.ID) ([]subnet.Validator, error) {
	reply := getCurrentValidatorsReply{}
	err := c.requester.SendRequest(
		ctx,
		"platform.getCurrentValidators",
		&getValidatorsArgs{SubnetID: subnetID},
		&reply,
	)
	if err != nil {
		return nil, err
	}

	validators := make([]subnet.Validator, len(reply.Validators))
	for i := range reply.Validators {
		validators[i] = reply.Validators[i].toValidator(subnetID)
	}
	return validators, nil
}

type getPendingValidatorsReply struct {
	Validators []apiValidator `json:"validators"`
	Delegators []apiDelegator `json:"delegators"`
}

func (c *client) GetPendingValidators(ctx context.Context, subnetID ids.ID) ([]subnet.Validator, []subnet.Delegator, error) {
	reply := getPendingValidatorsReply{}
	err := c.requester.SendRequest(
		ctx,
		"platform.getPendingValidators",
		&getValidatorsArgs{SubnetID: subnetID},
		&reply,
	)
	if err != nil {
		return nil, nil, err
	}

	validators := make([]subnet.Validator, len(reply.Validators))
	for i := range reply.Validators {
		validators[i] = reply.Validators[i].toValidator(subnetID)
	}
	delegators := make([]subnet.Delegator, len(reply.Delegators))
	for i := range reply.Delegators {
		delegators[i] = reply.Delegators[i].toDelegator()
	}
	return validators, delegators, nil
}
