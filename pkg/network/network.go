// Copyright (C) 2023, E36 Knots. All rights reserved.
// See the file LICENSE for licensing terms.

// Package network models an Avalanche network as a tree of Subnets,
// blockchains and validators, seeded from the configuration and refreshed
// from the network's P-Chain API.
//
// A Network is not safe for concurrent use: callers interleaving
// refreshes and reads synchronize externally.
package network

import (
	"context"
	"fmt"
	"net/url"

	"github.com/AshAvalanche/ash-go/pkg/asherrors"
	"github.com/AshAvalanche/ash-go/pkg/blockchain"
	"github.com/AshAvalanche/ash-go/pkg/config"
	"github.com/AshAvalanche/ash-go/pkg/constants"
	"github.com/AshAvalanche/ash-go/pkg/jsonrpc/platformvm"
	"github.com/AshAvalanche/ash-go/pkg/subnet"
	"github.com/AshAvalanche/ash-go/pkg/vm"

	"github.com/ava-labs/avalanchego/ids"
	avaconstants "github.com/ava-labs/avalanchego/utils/constants"
	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Network is an Avalanche network: the Primary Network plus any number of
// Subnets.
type Network struct {
	Name string `json:"name"`

	// PrimaryNetworkID is the ID of the Primary Network Subnet. The
	// P-Chain shares this ID.
	PrimaryNetworkID ids.ID `json:"primaryNetworkID"`

	Subnets []subnet.Subnet `json:"subnets"`

	log logging.Logger

	// newPChainClient is swapped by tests.
	newPChainClient func(rpcURL string) platformvm.Client
}

// Load builds a Network from the named configuration entry. configFile
// overrides the embedded default configuration when non-empty. The seed
// must describe the Primary Network Subnet and its P-Chain: every refresh
// goes through the P-Chain RPC endpoint.
func Load(networkName string, configFile string) (*Network, error) {
	conf, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	networkConfig, err := conf.GetNetwork(networkName)
	if err != nil {
		return nil, err
	}

	network := &Network{
		Name:             networkName,
		PrimaryNetworkID: avaconstants.PrimaryNetworkID,
		log:              logging.NoLog{},
		newPChainClient:  platformvm.NewClient,
	}
	if network.Subnets, err = subnetsFromConfig(networkConfig); err != nil {
		return nil, fmt.Errorf("loading network '%s': %w", networkName, err)
	}

	if _, err := network.GetPChain(); err != nil {
		return nil, fmt.Errorf("loading network '%s': %w", networkName, err)
	}
	return network, nil
}

func subnetsFromConfig(networkConfig *config.NetworkConfig) ([]subnet.Subnet, error) {
	subnets := make([]subnet.Subnet, len(networkConfig.Subnets))
	for i, subnetConfig := range networkConfig.Subnets {
		subnetID, err := ids.FromString(subnetConfig.ID)
		if err != nil {
			return nil, fmt.Errorf("parsing Subnet ID '%s': %w", subnetConfig.ID, err)
		}
		s := subnet.Subnet{
			ID:          subnetID,
			ControlKeys: subnetConfig.ControlKeys,
			Threshold:   subnetConfig.Threshold,
			Type:        subnet.Classify(subnetConfig.Threshold, subnetID),
			Blockchains: make([]blockchain.Blockchain, len(subnetConfig.Blockchains)),
		}
		for j, chainConfig := range subnetConfig.Blockchains {
			chainID, err := ids.FromString(chainConfig.ID)
			if err != nil {
				return nil, fmt.Errorf("parsing blockchain ID '%s': %w", chainConfig.ID, err)
			}
			vmID := ids.Empty
			if chainConfig.VMID != "" {
				if vmID, err = ids.FromString(chainConfig.VMID); err != nil {
					return nil, fmt.Errorf("parsing VM ID '%s': %w", chainConfig.VMID, err)
				}
			}
			s.Blockchains[j] = blockchain.Blockchain{
				ID:       chainID,
				Name:     chainConfig.Name,
				SubnetID: subnetID,
				VMID:     vmID,
				VMType:   vm.Type(chainConfig.VMType),
				RPCURL:   chainConfig.RPCURL,
			}
		}
		subnets[i] = s
	}
	return subnets, nil
}

// SetLogger replaces the network's logger, logging.NoLog{} by default.
func (n *Network) SetLogger(log logging.Logger) {
	n.log = log
}

// GetSubnet returns the network's Subnet with the given ID.
func (n *Network) GetSubnet(id ids.ID) (*subnet.Subnet, error) {
	for i := range n.Subnets {
		if n.Subnets[i].ID == id {
			return &n.Subnets[i], nil
		}
	}
	return nil, &asherrors.NotFoundError{
		Scope:       fmt.Sprintf("network '%s'", n.Name),
		TargetType:  "Subnet",
		TargetValue: id.String(),
	}
}

// GetBlockchain returns the network's blockchain with the given ID,
// searching every Subnet.
func (n *Network) GetBlockchain(id ids.ID) (*blockchain.Blockchain, error) {
	for i := range n.Subnets {
		if chain, err := n.Subnets[i].GetBlockchain(id); err == nil {
			return chain, nil
		}
	}
	return nil, &asherrors.NotFoundError{
		Scope:       fmt.Sprintf("network '%s'", n.Name),
		TargetType:  "blockchain",
		TargetValue: id.String(),
	}
}

// GetBlockchainByName returns the network's blockchain with the given
// name, searching every Subnet.
func (n *Network) GetBlockchainByName(name string) (*blockchain.Blockchain, error) {
	for i := range n.Subnets {
		if chain, err := n.Subnets[i].GetBlockchainByName(name); err == nil {
			return chain, nil
		}
	}
	return nil, &asherrors.NotFoundError{
		Scope:       fmt.Sprintf("network '%s'", n.Name),
		TargetType:  "blockchain",
		TargetValue: name,
	}
}

// GetPChain returns the network's P-Chain.
func (n *Network) GetPChain() (*blockchain.Blockchain, error) {
	primary, err := n.GetSubnet(n.PrimaryNetworkID)
	if err != nil {
		return nil, err
	}
	return primary.GetBlockchain(n.PrimaryNetworkID)
}

// GetCChain returns the network's C-Chain.
func (n *Network) GetCChain() (*blockchain.Blockchain, error) {
	primary, err := n.GetSubnet(n.PrimaryNetworkID)
	if err != nil {
		return nil, err
	}
	return primary.GetBlockchainByName("C-Chain")
}

// GetXChain returns the network's X-Chain.
func (n *Network) GetXChain() (*blockchain.Blockchain, error) {
	primary, err := n.GetSubnet(n.PrimaryNetworkID)
	if err != nil {
		return nil, err
	}
	return primary.GetBlockchainByName("X-Chain")
}

// CheckOperationAllowed fails with an OperationNotAllowedError when the
// network's name is in the blacklist. Destructive operations blacklist
// "mainnet".
func (n *Network) CheckOperationAllowed(operation string, networkBlacklist ...string) error {
	for _, name := range networkBlacklist {
		if n.Name == name {
			return &asherrors.OperationNotAllowedError{
				Operation: operation,
				Scope:     fmt.Sprintf("network '%s'", n.Name),
			}
		}
	}
	return nil
}

func (n *Network) pChainClient() (platformvm.Client, error) {
	pChain, err := n.GetPChain()
	if err != nil {
		return nil, err
	}
	rpcURL, err := url.Parse(pChain.RPCURL)
	if err != nil || rpcURL.Scheme == "" || rpcURL.Host == "" {
		return nil, fmt.Errorf("invalid P-Chain RPC URL '%s'", pChain.RPCURL)
	}
	return n.newPChainClient(pChain.RPCURL), nil
}

// RefreshSubnets fetches the network's Subnets from the P-Chain and
// merges them into the local state. A Subnet already known locally keeps
// its blockchains and validators: only control keys, threshold and type
// are taken from the remote record. Unknown remote Subnets are appended.
// Local Subnets absent from the response are kept: the remote listing may
// be partial and absence is not deletion.
func (n *Network) RefreshSubnets(ctx context.Context) error {
	client, err := n.pChainClient()
	if err != nil {
		return err
	}
	remoteSubnets, err := client.GetSubnets(ctx)
	if err != nil {
		return fmt.Errorf("getting Subnets of network '%s': %w", n.Name, err)
	}

	remoteByID := make(map[ids.ID]*subnet.Subnet, len(remoteSubnets))
	for i := range remoteSubnets {
		remoteByID[remoteSubnets[i].ID] = &remoteSubnets[i]
	}

	refreshed := make([]subnet.Subnet, 0, len(n.Subnets)+len(remoteSubnets))
	seen := make(map[ids.ID]struct{}, len(n.Subnets))
	for _, local := range n.Subnets {
		if remote, ok := remoteByID[local.ID]; ok {
			local.ControlKeys = remote.ControlKeys
			local.Threshold = remote.Threshold
			local.Type = remote.Type
		}
		seen[local.ID] = struct{}{}
		refreshed = append(refreshed, local)
	}
	for _, remote := range remoteSubnets {
		if _, ok := seen[remote.ID]; !ok {
			refreshed = append(refreshed, remote)
		}
	}

	n.Subnets = refreshed
	n.log.Debug("refreshed Subnets",
		zap.String("network", n.Name),
		zap.Int("remoteSubnets", len(remoteSubnets)),
		zap.Int("subnets", len(n.Subnets)),
	)
	return nil
}

// RefreshBlockchains fetches the network's blockchains from the P-Chain
// and merges them into each Subnet, matching by blockchain name. A
// locally known blockchain takes the remote ID, VM ID and Subnet ID but
// keeps its RPC URL and VM type: those are operator supplied and not
// discoverable from the P-Chain. Unmatched remote blockchains are
// appended; local blockchains are never removed.
func (n *Network) RefreshBlockchains(ctx context.Context) error {
	client, err := n.pChainClient()
	if err != nil {
		return err
	}
	remoteChains, err := client.GetBlockchains(ctx)
	if err != nil {
		return fmt.Errorf("getting blockchains of network '%s': %w", n.Name, err)
	}

	for i := range n.Subnets {
		s := &n.Subnets[i]

		remoteByName := make(map[string]*blockchain.Blockchain)
		for j := range remoteChains {
			if remoteChains[j].SubnetID == s.ID {
				remoteByName[remoteChains[j].Name] = &remoteChains[j]
			}
		}

		seen := make(map[string]struct{}, len(s.Blockchains))
		for j := range s.Blockchains {
			local := &s.Blockchains[j]
			seen[local.Name] = struct{}{}
			if remote, ok := remoteByName[local.Name]; ok {
				local.ID = remote.ID
				local.VMID = remote.VMID
				local.SubnetID = remote.SubnetID
			}
		}
		for _, remote := range remoteChains {
			if remote.SubnetID != s.ID {
				continue
			}
			if _, ok := seen[remote.Name]; !ok {
				s.Blockchains = append(s.Blockchains, remote)
			}
		}
	}

	n.log.Debug("refreshed blockchains",
		zap.String("network", n.Name),
		zap.Int("remoteBlockchains", len(remoteChains)),
	)
	return nil
}

// RefreshValidators fetches the current validators of a Subnet and
// replaces the Subnet's validator collection wholesale: unlike Subnets
// and blockchains, the remote validator list is authoritative.
func (n *Network) RefreshValidators(ctx context.Context, subnetID ids.ID) error {
	s, err := n.GetSubnet(subnetID)
	if err != nil {
		return err
	}
	client, err := n.pChainClient()
	if err != nil {
		return err
	}
	validators, err := client.GetCurrentValidators(ctx, subnetID)
	if err != nil {
		return fmt.Errorf("getting validators of Subnet '%s': %w", subnetID, err)
	}

	s.Validators = validators
	n.log.Debug("refreshed validators",
		zap.String("network", n.Name),
		zap.Stringer("subnetID", subnetID),
		zap.Int("validators", len(validators)),
	)
	return nil
}

// RefreshPendingValidators fetches the pending validators of a Subnet and
// replaces the Subnet's pending validator collection wholesale.
func (n *Network) RefreshPendingValidators(ctx context.Context, subnetID ids.ID) error {
	s, err := n.GetSubnet(subnetID)
	if err != nil {
		return err
	}
	client, err := n.pChainClient()
	if err != nil {
		return err
	}
	validators, _, err := client.GetPendingValidators(ctx, subnetID)
	if err != nil {
		return fmt.Errorf("getting pending validators of Subnet '%s': %w", subnetID, err)
	}

	s.PendingValidators = validators
	return nil
}

// RefreshAllValidators refreshes the current validators of every Subnet,
// querying the P-Chain with a bounded number of concurrent requests.
func (n *Network) RefreshAllValidators(ctx context.Context) error {
	client, err := n.pChainClient()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(constants.ValidatorsRefreshFanOut)
	for i := range n.Subnets {
		s := &n.Subnets[i]
		g.Go(func() error {
			validators, err := client.GetCurrentValidators(ctx, s.ID)
			if err != nil {
				return fmt.Errorf("getting validators of Subnet '%s': %w", s.ID, err)
			}
			s.Validators = validators
			return nil
		})
	}
	return g.Wait()
}
