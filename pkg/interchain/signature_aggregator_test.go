// Copyright (C) 2023, E36 Knots. All rights reserved.
// See the file LICENSE for licensing terms.
package interchain

import (
	"context"
	"fmt"
	"net/netip"
	"sync"
	"testing"

	"github.com/AshAvalanche/ash-go/pkg/asherrors"
	"github.com/AshAvalanche/ash-go/pkg/blockchain"
	"github.com/AshAvalanche/ash-go/pkg/jsonrpc/info"
	"github.com/AshAvalanche/ash-go/pkg/jsonrpc/subnetevm"
	"github.com/AshAvalanche/ash-go/pkg/subnet"
	"github.com/AshAvalanche/ash-go/pkg/warp"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type fakeInfoClient struct {
	nodeID ids.NodeID
	peers  []info.Peer
}

func (c *fakeInfoClient) GetNodeID(context.Context) (ids.NodeID, *subnet.Signer, error) {
	return c.nodeID, nil, nil
}

func (c *fakeInfoClient) GetNodeIP(context.Context) (netip.AddrPort, error) {
	return netip.AddrPort{}, nil
}

func (c *fakeInfoClient) GetNodeVersion(context.Context) (info.NodeVersion, error) {
	return info.NodeVersion{}, nil
}

func (c *fakeInfoClient) GetNetworkName(context.Context) (string, error) {
	return "local", nil
}

func (c *fakeInfoClient) Uptime(context.Context) (info.Uptime, error) {
	return info.Uptime{}, nil
}

func (c *fakeInfoClient) IsBootstrapped(context.Context, string) (bool, error) {
	return true, nil
}

func (c *fakeInfoClient) Peers(context.Context, []ids.NodeID) ([]info.Peer, error) {
	return c.peers, nil
}

// fakeSignatureBackend hands out signatures keyed by the RPC URL the
// aggregator built, recording every URL queried.
type fakeSignatureBackend struct {
	mu         sync.Mutex
	signatures map[string][warp.SignatureLen]byte
	failures   map[string]error
	queried    []string
}

type fakeSubnetEVMClient struct {
	backend *fakeSignatureBackend
	rpcURL  string
}

func (c *fakeSubnetEVMClient) WarpGetSignature(context.Context, ids.ID) ([warp.SignatureLen]byte, error) {
	b := c.backend
	b.mu.Lock()
	b.queried = append(b.queried, c.rpcURL)
	b.mu.Unlock()
	if err, ok := b.failures[c.rpcURL]; ok {
		return [warp.SignatureLen]byte{}, err
	}
	signature, ok := b.signatures[c.rpcURL]
	if !ok {
		return [warp.SignatureLen]byte{}, fmt.Errorf("no signature registered for '%s'", c.rpcURL)
	}
	return signature, nil
}

// testFixture wires a Subnet of remote validators behind one endpoint
// node: validator i is reachable at 10.0.0.i+1 with the usual port
// layout.
type testFixture struct {
	subnet  *subnet.Subnet
	message *warp.Message
	backend *fakeSignatureBackend

	endpointRPCURL string
	peerRPCURLs    []string
}

func newTestFixture(t *testing.T, validators int) *testFixture {
	t.Helper()

	chainID := ids.GenerateTestID()
	s := &subnet.Subnet{
		ID:        ids.GenerateTestID(),
		Threshold: 1,
		Type:      subnet.Permissioned,
		Blockchains: []blockchain.Blockchain{{
			ID:     chainID,
			Name:   "test-chain",
			RPCURL: fmt.Sprintf("http://127.0.0.1:9650/ext/bc/%s/rpc", chainID),
		}},
	}

	fixture := &testFixture{
		subnet: s,
		backend: &fakeSignatureBackend{
			signatures: map[string][warp.SignatureLen]byte{},
			failures:   map[string]error{},
		},
		endpointRPCURL: s.Blockchains[0].RPCURL,
	}

	for i := 0; i < validators; i++ {
		nodeID := ids.GenerateTestNodeID()
		s.Validators = append(s.Validators, subnet.Validator{NodeID: nodeID, SubnetID: s.ID})
		fixture.peerRPCURLs = append(fixture.peerRPCURLs,
			fmt.Sprintf("http://10.0.0.%d:9650/ext/bc/%s/rpc", i+1, chainID))
		fixture.backend.signatures[fixture.peerRPCURLs[i]] = [warp.SignatureLen]byte{byte(i + 1)}
	}

	messageBytes := make([]byte, 38+16)
	copy(messageBytes[6:38], chainID[:])
	unsignedMessage, err := warp.ParseUnsignedMessage(messageBytes)
	require.NoError(t, err)
	fixture.message = warp.NewMessage(unsignedMessage)

	return fixture
}

// peers returns the discoverable peer records for the given validator
// indexes.
func (f *testFixture) peers(indexes ...int) []info.Peer {
	peers := make([]info.Peer, 0, len(indexes))
	for _, i := range indexes {
		peers = append(peers, info.Peer{
			NodeID:   f.subnet.Validators[i].NodeID,
			PublicIP: netip.MustParseAddrPort(fmt.Sprintf("10.0.0.%d:9651", i+1)),
		})
	}
	return peers
}

func (f *testFixture) newAggregator(t *testing.T, endpointNodeID ids.NodeID, peers []info.Peer) *SignatureAggregator {
	t.Helper()
	aggregator, err := NewSignatureAggregator(logging.NoLog{}, prometheus.NewRegistry(), 0)
	require.NoError(t, err)
	aggregator.newInfoClient = func(string) info.Client {
		return &fakeInfoClient{nodeID: endpointNodeID, peers: peers}
	}
	aggregator.newSubnetEVMClient = func(rpcURL string) subnetevm.Client {
		return &fakeSubnetEVMClient{backend: f.backend, rpcURL: rpcURL}
	}
	return aggregator
}

func TestCollectSignaturesQuorumEarlyStop(t *testing.T) {
	require := require.New(t)

	f := newTestFixture(t, 5)
	aggregator := f.newAggregator(t, ids.GenerateTestNodeID(), f.peers(0, 1, 2, 3, 4))

	signatures, err := aggregator.CollectSignatures(context.Background(), f.subnet, f.message, 2)
	require.NoError(err)
	require.Len(signatures, 2)

	// Exactly the first two validators were contacted: with every request
	// succeeding, quorum bounds the fan out.
	require.ElementsMatch(f.peerRPCURLs[:2], f.backend.queried)

	// Validator set order.
	require.Equal(f.subnet.Validators[0].NodeID, signatures[0].NodeID)
	require.Equal(f.subnet.Validators[1].NodeID, signatures[1].NodeID)
	require.Equal("Signed(2)", f.message.Status().String())
}

func TestCollectSignaturesPartialTolerance(t *testing.T) {
	require := require.New(t)

	// Peer discovery fails for the middle validator: the other two still
	// sign and the call succeeds below quorum.
	f := newTestFixture(t, 3)
	aggregator := f.newAggregator(t, ids.GenerateTestNodeID(), f.peers(0, 2))

	signatures, err := aggregator.CollectSignatures(context.Background(), f.subnet, f.message, 0)
	require.NoError(err)
	require.Len(signatures, 2)
	require.Equal(f.subnet.Validators[0].NodeID, signatures[0].NodeID)
	require.Equal(f.subnet.Validators[2].NodeID, signatures[1].NodeID)
	require.Equal("Signed(2)", f.message.Status().String())
}

func TestCollectSignaturesTransportFailuresSwallowed(t *testing.T) {
	require := require.New(t)

	f := newTestFixture(t, 3)
	f.backend.failures[f.peerRPCURLs[1]] = asherrors.ErrRemoteUnavailable

	aggregator := f.newAggregator(t, ids.GenerateTestNodeID(), f.peers(0, 1, 2))

	signatures, err := aggregator.CollectSignatures(context.Background(), f.subnet, f.message, 0)
	require.NoError(err)
	require.Len(signatures, 2)
}

func TestCollectSignaturesLocalPath(t *testing.T) {
	require := require.New(t)

	// The first validator hosts the endpoint: its signature is requested
	// over the source chain URL, not a peer address.
	f := newTestFixture(t, 2)
	f.backend.signatures[f.endpointRPCURL] = [warp.SignatureLen]byte{42}

	aggregator := f.newAggregator(t, f.subnet.Validators[0].NodeID, f.peers(1))

	signatures, err := aggregator.CollectSignatures(context.Background(), f.subnet, f.message, 0)
	require.NoError(err)
	require.Len(signatures, 2)
	require.Contains(f.backend.queried, f.endpointRPCURL)
	require.Equal([warp.SignatureLen]byte{42}, signatures[0].Signature)
}

func TestCollectSignaturesUnknownSourceChain(t *testing.T) {
	require := require.New(t)

	f := newTestFixture(t, 1)
	f.subnet.Blockchains = nil
	aggregator := f.newAggregator(t, ids.GenerateTestNodeID(), nil)

	_, err := aggregator.CollectSignatures(context.Background(), f.subnet, f.message, 0)
	require.ErrorIs(err, &asherrors.NotFoundError{})
}

func TestCollectSignaturesDedup(t *testing.T) {
	require := require.New(t)

	f := newTestFixture(t, 2)
	aggregator := f.newAggregator(t, ids.GenerateTestNodeID(), f.peers(0, 1))

	// A signature already collected for a validator is not re-added.
	require.True(f.message.AddSignature(warp.NodeSignature{
		NodeID:    f.subnet.Validators[0].NodeID,
		Signature: [warp.SignatureLen]byte{9},
	}))

	signatures, err := aggregator.CollectSignatures(context.Background(), f.subnet, f.message, 0)
	require.NoError(err)
	require.Len(signatures, 1)
	require.Equal(f.subnet.Validators[1].NodeID, signatures[0].NodeID)
	require.Equal("Signed(2)", f.message.Status().String())
}

func TestParseSourceEndpoint(t *testing.T) {
	require := require.New(t)

	endpoint, err := parseSourceEndpoint("https://api.avax.network/ext/bc/C/rpc")
	require.NoError(err)
	require.Equal("https", endpoint.scheme)
	require.Equal(uint16(443), endpoint.port)
	require.Equal("https://api.avax.network:443", endpoint.baseURL)

	endpoint, err = parseSourceEndpoint("http://127.0.0.1:9650/ext/bc/C/rpc")
	require.NoError(err)
	require.Equal(uint16(9650), endpoint.port)
	require.Equal("/ext/bc/C/rpc", endpoint.path)

	peer := info.Peer{PublicIP: netip.MustParseAddrPort("198.51.100.7:9651")}
	require.Equal("http://198.51.100.7:9650/ext/bc/C/rpc", endpoint.peerURL(peer))

	_, err = parseSourceEndpoint("not a url")
	require.ErrorContains(err, "invalid source blockchain RPC URL")
}
