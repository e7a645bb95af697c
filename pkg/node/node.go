// Copyright (C) 2023, E36 Knots. All rights reserved.
// See the file LICENSE for licensing terms.

// Package node interacts with a single Avalanche node through its Info
// API.
package node

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/AshAvalanche/ash-go/pkg/asherrors"
	"github.com/AshAvalanche/ash-go/pkg/constants"
	"github.com/AshAvalanche/ash-go/pkg/jsonrpc/info"
	"github.com/AshAvalanche/ash-go/pkg/subnet"

	"github.com/ava-labs/avalanchego/ids"
)

// Node is an Avalanche node reachable over HTTP. The zero value is not
// usable: construct with New.
type Node struct {
	ID     ids.NodeID     `json:"id"`
	Signer *subnet.Signer `json:"signer,omitempty"`

	// Network is the name of the network the node participates in.
	Network string `json:"network"`

	HTTPHost     string `json:"httpHost"`
	HTTPPort     uint16 `json:"httpPort"`
	HTTPSEnabled bool   `json:"httpsEnabled"`

	// PublicIP and StakingPort are the address the node advertises for
	// staking, as reported by info.getNodeIP.
	PublicIP    netip.Addr `json:"publicIP"`
	StakingPort uint16     `json:"stakingPort"`

	Versions info.NodeVersion `json:"versions"`
	Uptime   info.Uptime      `json:"uptime"`

	// newInfoClient is swapped by tests.
	newInfoClient func(rpcURL string) info.Client
}

// New returns a node with the default local ports. Call FetchInfo to
// populate it from the running node.
func New(httpHost string) *Node {
	return &Node{
		Network:       "local",
		HTTPHost:      httpHost,
		HTTPPort:      constants.DefaultNodeHTTPPort,
		StakingPort:   constants.DefaultNodeStakingPort,
		newInfoClient: info.NewClient,
	}
}

// Endpoint returns the base URL of the node's JSON-RPC APIs.
func (n *Node) Endpoint() string {
	scheme := "http"
	if n.HTTPSEnabled {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, n.HTTPHost, n.HTTPPort)
}

func (n *Node) infoClient() info.Client {
	newClient := n.newInfoClient
	if newClient == nil {
		newClient = info.NewClient
	}
	return newClient(n.Endpoint() + constants.InfoAPIEndpoint)
}

// FetchInfo populates the node from its Info API: ID and BLS proof of
// possession, staking address, versions, network name and uptime.
func (n *Node) FetchInfo(ctx context.Context) error {
	client := n.infoClient()

	nodeID, signer, err := client.GetNodeID(ctx)
	if err != nil {
		return fmt.Errorf("getting ID of node '%s': %w", n.Endpoint(), err)
	}
	n.ID = nodeID
	n.Signer = signer

	stakingAddr, err := client.GetNodeIP(ctx)
	if err != nil {
		return fmt.Errorf("getting IP of node '%s': %w", n.Endpoint(), err)
	}
	n.PublicIP = stakingAddr.Addr()
	n.StakingPort = stakingAddr.Port()

	versions, err := client.GetNodeVersion(ctx)
	if err != nil {
		return fmt.Errorf("getting version of node '%s': %w", n.Endpoint(), err)
	}
	n.Versions = versions

	network, err := client.GetNetworkName(ctx)
	if err != nil {
		return fmt.Errorf("getting network of node '%s': %w", n.Endpoint(), err)
	}
	n.Network = network

	// info.uptime fails on non validator nodes. That must not get in the
	// way of the update.
	uptime, err := client.Uptime(ctx)
	switch {
	case err == nil:
		n.Uptime = uptime
	case isNotValidatorError(err):
		n.Uptime = info.Uptime{}
	default:
		return fmt.Errorf("getting uptime of node '%s': %w", n.Endpoint(), err)
	}

	return nil
}

// IsBootstrapped reports whether the named chain is done bootstrapping on
// this node.
func (n *Node) IsBootstrapped(ctx context.Context, chain string) (bool, error) {
	bootstrapped, err := n.infoClient().IsBootstrapped(ctx, chain)
	if err != nil {
		return false, fmt.Errorf(
			"checking %s chain bootstrapping on node '%s': %w", chain, n.Endpoint(), err,
		)
	}
	return bootstrapped, nil
}

func isNotValidatorError(err error) bool {
	rpcErr := &asherrors.RPCError{}
	return errors.As(err, &rpcErr) &&
		rpcErr.Code == -32000 &&
		strings.Contains(rpcErr.Message, "node is not a validator")
}
