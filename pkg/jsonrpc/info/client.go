// Copyright (C) 2023, E36 Knots. All rights reserved.
// See the file LICENSE for licensing terms.

// Package info is a client for the Avalanche node Info API.
package info

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/AshAvalanche/ash-go/pkg/jsonrpc"
	"github.com/AshAvalanche/ash-go/pkg/subnet"

	"github.com/ava-labs/avalanchego/ids"
	avajson "github.com/ava-labs/avalanchego/utils/json"
)

var _ Client = (*client)(nil)

// Client issues Info API calls against a single node endpoint.
type Client interface {
	// GetNodeID returns the node's ID and, when the node runs with a BLS
	// key, its proof of possession.
	GetNodeID(ctx context.Context) (ids.NodeID, *subnet.Signer, error)
	// GetNodeIP returns the node's primary staking address.
	GetNodeIP(ctx context.Context) (netip.AddrPort, error)
	// GetNodeVersion returns the node's version information.
	GetNodeVersion(ctx context.Context) (NodeVersion, error)
	// GetNetworkName returns the name of the network the node is
	// participating in ("mainnet", "fuji", a network ID string, ...).
	GetNetworkName(ctx context.Context) (string, error)
	// Uptime returns the network's observed uptime of this node. The node
	// fails the call when it is not a validator.
	Uptime(ctx context.Context) (Uptime, error)
	// IsBootstrapped reports whether the named chain is done bootstrapping
	// on this node.
	IsBootstrapped(ctx context.Context, chain string) (bool, error)
	// Peers returns the peers this node is connected to, filtered to
	// nodeIDs when non-empty.
	Peers(ctx context.Context, nodeIDs []ids.NodeID) ([]Peer, error)
}

// NodeVersion is the version information of a node.
type NodeVersion struct {
	Version            string            `json:"version"`
	DatabaseVersion    string            `json:"databaseVersion"`
	RPCProtocolVersion uint32            `json:"rpcProtocolVersion"`
	GitCommit          string            `json:"gitCommit"`
	VMVersions         map[string]string `json:"vmVersions"`
}

// Uptime is the network's point of view on a validator's liveness.
type Uptime struct {
	RewardingStakePercentage  float64 `json:"rewardingStakePercentage"`
	WeightedAveragePercentage float64 `json:"weightedAveragePercentage"`
}

// Peer is a node connected to the queried node. PublicIP is the address
// the peer advertises to the network and may be unset for private nodes.
type Peer struct {
	NodeID         ids.NodeID     `json:"nodeID"`
	IP             netip.AddrPort `json:"ip"`
	PublicIP       netip.AddrPort `json:"publicIP"`
	Version        string         `json:"version"`
	ObservedUptime float32        `json:"observedUptime"`
	Benched        []string       `json:"benched"`
}

type client struct {
	requester jsonrpc.EndpointRequester
}

// NewClient returns an Info API client posting to rpcURL (a full endpoint
// URL, e.g. http://127.0.0.1:9650/ext/info).
func NewClient(rpcURL string) Client {
	return &client{requester: jsonrpc.NewEndpointRequester(rpcURL)}
}

type getNodeIDReply struct {
	NodeID  ids.NodeID     `json:"nodeID"`
	NodePOP *subnet.Signer `json:"nodePOP"`
}

func (c *client) GetNodeID(ctx context.Context) (ids.NodeID, *subnet.Signer, error) {
	reply := getNodeIDReply{}
	if err := c.requester.SendRequest(ctx, "info.getNodeID", struct{}{}, &reply); err != nil {
		return ids.EmptyNodeID, nil, err
	}
	return reply.NodeID, reply.NodePOP, nil
}

type getNodeIPReply struct {
	IP string `json:"ip"`
}

func (c *client) GetNodeIP(ctx context.Context) (netip.AddrPort, error) {
	reply := getNodeIPReply{}
	if err := c.requester.SendRequest(ctx, "info.getNodeIP", struct{}{}, &reply); err != nil {
		return netip.AddrPort{}, err
	}
	addrPort, err := netip.ParseAddrPort(reply.IP)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("parsing node IP %q: %w", reply.IP, err)
	}
	return addrPort, nil
}

type getNodeVersionReply struct {
	Version            string            `json:"version"`
	DatabaseVersion    string            `json:"databaseVersion"`
	RPCProtocolVersion avajson.Uint32    `json:"rpcProtocolVersion"`
	GitCommit          string            `json:"gitCommit"`
	VMVersions         map[string]string `json:"vmVersions"`
}

func (c *client) GetNodeVersion(ctx context.Context) (NodeVersion, error) {
	reply := getNodeVersionReply{}
	if err := c.requester.SendRequest(ctx, "info.getNodeVersion", struct{}{}, &reply); err != nil {
		return NodeVersion{}, err
	}
	return NodeVersion{
		Version:            reply.Version,
		DatabaseVersion:    reply.DatabaseVersion,
		RPCProtocolVersion: uint32(reply.RPCProtocolVersion),
		GitCommit:          reply.GitCommit,
		VMVersions:         reply.VMVersions,
	}, nil
}

type getNetworkNameReply struct {
	NetworkName string `json:"networkName"`
}

func (c *client) GetNetworkName(ctx context.Context) (string, error) {
	reply := getNetworkNameReply{}
	if err := c.requester.SendRequest(ctx, "info.getNetworkName", struct{}{}, &reply); err != nil {
		return "", err
	}
	return reply.NetworkName, nil
}

type uptimeReply struct {
	RewardingStakePercentage  avajson.Float64 `json:"rewardingStakePercentage"`
	WeightedAveragePercentage avajson.Float64 `json:"weightedAveragePercentage"`
}

func (c *client) Uptime(ctx context.Context) (Uptime, error) {
	reply := uptimeReply{}
	if err := c.requester.SendRequest(ctx, "info.uptime", struct{}{}, &reply); err != nil {
		return Uptime{}, err
	}
	return Uptime{
		RewardingStakePercentage:  float64(reply.RewardingStakePercentage),
		WeightedAveragePercentage: float64(reply.WeightedAveragePercentage),
	}, nil
}

type isBootstrappedArgs struct {
	Chain string `json:"chain"`
}

type isBootstrappedReply struct {
	IsBootstrapped bool `json:"isBootstrapped"`
}

func (c *client) IsBootstrapped(ctx context.Context, chain string) (bool, error) {
	reply := isBootstrappedReply{}
	err := c.requester.SendRequest(ctx, "info.isBootstrapped", &isBootstrappedArgs{Chain: chain}, &reply)
	if err != nil {
		return false, err
	}
	return reply.IsBootstrapped, nil
}

type peersArgs struct {
	NodeIDs []ids.NodeID `json:"nodeIDs"`
}

type apiPeer struct {
	NodeID         ids.NodeID      `json:"nodeID"`
	IP             string          `json:"ip"`
	PublicIP       string          `json:"publicIP"`
	Version        string          `json:"version"`
	ObservedUptime avajson.Float32 `json:"observedUptime"`
	Benched        []string        `json:"benched"`
}

func (c *client) Peers(ctx context.Context, nodeIDs []ids.NodeID) ([]Peer, error) {
	if nodeIDs == nil {
		nodeIDs = []ids.NodeID{}
	}
	reply := struct {
		Peers []apiPeer `json:"peers"`
	}{}
	if err := c.requester.SendRequest(ctx, "info.peers", &peersArgs{NodeIDs: nodeIDs}, &reply); err != nil {
		return nil, err
	}

	peers := make([]Peer, len(reply.Peers))
	for i, p := range reply.Peers {
		peer := Peer{
			NodeID:         p.NodeID,
			Version:        p.Version,
			ObservedUptime: float32(p.ObservedUptime),
			Benched:        p.Benched,
		}
		// Peer addresses are best effort: some fields are empty for
		// private or partially connected peers.
		if addrPort, err := netip.ParseAddrPort(p.IP); err == nil {
			peer.IP = addrPort
		}
		if addrPort, err := netip.ParseAddrPort(p.PublicIP); err == nil {
			peer.PublicIP = addrPort
		}
		peers[i] = peer
	}
	return peers, nil
}
