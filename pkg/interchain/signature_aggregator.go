// Copyright (C) 2023, E36 Knots. All rights reserved.
// See the file LICENSE for licensing terms.

// Package interchain collects Warp message signatures from the validators
// of a Subnet.
package interchain

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/AshAvalanche/ash-go/pkg/asherrors"
	"github.com/AshAvalanche/ash-go/pkg/constants"
	"github.com/AshAvalanche/ash-go/pkg/jsonrpc/info"
	"github.com/AshAvalanche/ash-go/pkg/jsonrpc/subnetevm"
	"github.com/AshAvalanche/ash-go/pkg/subnet"
	"github.com/AshAvalanche/ash-go/pkg/warp"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// SignatureAggregator collects validator signatures over Warp messages.
// A single aggregator can serve any number of CollectSignatures calls,
// but a given message must not be shared between concurrent calls.
type SignatureAggregator struct {
	log       logging.Logger
	metrics   *metrics
	maxFanOut int

	// swapped by tests
	newInfoClient      func(rpcURL string) info.Client
	newSubnetEVMClient func(rpcURL string) subnetevm.Client
}

// NewSignatureAggregator returns an aggregator registering its metrics on
// registerer and querying at most maxFanOut validators concurrently
// (constants.DefaultSignatureFanOut when zero).
func NewSignatureAggregator(
	log logging.Logger,
	registerer prometheus.Registerer,
	maxFanOut int,
) (*SignatureAggregator, error) {
	m, err := newMetrics(registerer)
	if err != nil {
		return nil, fmt.Errorf("registering aggregator metrics: %w", err)
	}
	if maxFanOut <= 0 {
		maxFanOut = constants.DefaultSignatureFanOut
	}
	return &SignatureAggregator{
		log:                log,
		metrics:            m,
		maxFanOut:          maxFanOut,
		newInfoClient:      info.NewClient,
		newSubnetEVMClient: subnetevm.NewClient,
	}, nil
}

// sourceEndpoint is the decomposed RPC endpoint of the message's source
// blockchain. Signatures from remote validators are requested at the same
// scheme and path, substituting the peer's advertised address.
type sourceEndpoint struct {
	scheme  string
	host    string
	port    uint16
	path    string
	baseURL string
}

func parseSourceEndpoint(rpcURL string) (*sourceEndpoint, error) {
	parsed, err := url.Parse(rpcURL)
	if err != nil || parsed.Hostname() == "" {
		return nil, fmt.Errorf("invalid source blockchain RPC URL '%s'", rpcURL)
	}

	endpoint := &sourceEndpoint{
		scheme: parsed.Scheme,
		host:   parsed.Hostname(),
		port:   constants.DefaultNodeHTTPPort,
		path:   parsed.Path,
	}
	if endpoint.scheme == "" {
		endpoint.scheme = "http"
	}
	if portStr := parsed.Port(); portStr != "" {
		port, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid port in source blockchain RPC URL '%s'", rpcURL)
		}
		endpoint.port = uint16(port)
	} else if endpoint.scheme == "https" {
		endpoint.port = 443
	}
	if endpoint.path == "" {
		endpoint.path = "/"
	}
	endpoint.baseURL = fmt.Sprintf("%s://%s:%d", endpoint.scheme, endpoint.host, endpoint.port)
	return endpoint, nil
}

// peerURL builds the RPC URL of a remote validator from its advertised
// staking address. Nodes serve HTTP on the port below their staking port.
func (e *sourceEndpoint) peerURL(peer info.Peer) string {
	return fmt.Sprintf(
		"%s://%s:%d%s",
		e.scheme,
		peer.PublicIP.Addr(),
		peer.PublicIP.Port()-1,
		e.path,
	)
}

// CollectSignatures asks the Subnet's validators for their signature over
// message until quorum signatures are collected, querying at most
// maxFanOut validators at a time and never more than still needed, so
// exactly quorum validators are visited when every request succeeds.
// quorum defaults to the full validator set when zero or out of range.
//
// Per validator failures (undiscoverable peer, transport or decode
// errors, short signatures) are logged and skipped: ending below quorum
// is a normal partial result, not an error. Only structural failures
// (unknown source chain, unparsable RPC URL, failure to identify the
// endpoint node) fail the call.
//
// Collected signatures are appended to message, deduplicated by node ID,
// and returned in validator set order.
func (a *SignatureAggregator) CollectSignatures(
	ctx context.Context,
	s *subnet.Subnet,
	message *warp.Message,
	quorum int,
) ([]warp.NodeSignature, error) {
	a.metrics.aggregations.Inc()

	messageID := message.UnsignedMessage.ID
	sourceChain, err := s.GetBlockchain(message.UnsignedMessage.SourceChainID)
	if err != nil {
		return nil, fmt.Errorf("resolving source chain of message '%s': %w", messageID, err)
	}
	endpoint, err := parseSourceEndpoint(sourceChain.RPCURL)
	if err != nil {
		return nil, err
	}

	validators := s.Validators
	if quorum <= 0 || quorum > len(validators) {
		quorum = len(validators)
	}
	if quorum == 0 {
		return nil, nil
	}

	// Identify the endpoint node and discover how to reach the other
	// validators. A validator hosting the endpoint signs over the source
	// chain URL directly, without a peer address.
	infoClient := a.newInfoClient(endpoint.baseURL + constants.InfoAPIEndpoint)
	endpointNodeID, _, err := infoClient.GetNodeID(ctx)
	if err != nil {
		return nil, fmt.Errorf("identifying endpoint node '%s': %w", endpoint.baseURL, err)
	}
	peers, err := infoClient.Peers(ctx, s.ValidatorIDs())
	if err != nil {
		return nil, fmt.Errorf("discovering peers of endpoint node '%s': %w", endpoint.baseURL, err)
	}
	peersByID := make(map[ids.NodeID]info.Peer, len(peers))
	for _, peer := range peers {
		peersByID[peer.NodeID] = peer
	}

	a.log.Debug("collecting signatures",
		zap.Stringer("messageID", messageID),
		zap.Stringer("subnetID", s.ID),
		zap.Int("validators", len(validators)),
		zap.Int("quorum", quorum),
	)

	collected := a.dispatch(ctx, validators, quorum, func(ctx context.Context, v *subnet.Validator) (warp.NodeSignature, error) {
		return a.requestSignature(ctx, endpoint, endpointNodeID, peersByID, v, messageID)
	})

	signatures := make([]warp.NodeSignature, 0, len(collected))
	for _, signature := range collected {
		if message.AddSignature(signature) {
			signatures = append(signatures, signature)
		}
	}
	if len(signatures) < quorum {
		a.metrics.quorumNotReached.Inc()
	}

	a.log.Info("signature collection done",
		zap.Stringer("messageID", messageID),
		zap.Int("signatures", len(signatures)),
		zap.Int("quorum", quorum),
		zap.String("status", message.Status().String()),
	)
	return signatures, nil
}

type signatureResult struct {
	index     int
	signature warp.NodeSignature
	err       error
}

// dispatch walks validators in stored order, keeping the number of
// in-flight requests at or below both maxFanOut and the number of
// signatures still needed. The second bound is what makes early stop
// exact: once quorum successes are in, no extra validator was contacted.
func (a *SignatureAggregator) dispatch(
	ctx context.Context,
	validators []subnet.Validator,
	quorum int,
	request func(ctx context.Context, v *subnet.Validator) (warp.NodeSignature, error),
) []warp.NodeSignature {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so abandoned requests never block on send after an early
	// stop.
	results := make(chan signatureResult, len(validators))
	collected := make(map[int]warp.NodeSignature, quorum)

	next := 0
	inFlight := 0
loop:
	for len(collected) < quorum {
		needed := quorum - len(collected)
		if needed > a.maxFanOut {
			needed = a.maxFanOut
		}
		for inFlight < needed && next < len(validators) {
			v := &validators[next]
			index := next
			next++
			inFlight++
			go func() {
				signature, err := request(ctx, v)
				results <- signatureResult{index: index, signature: signature, err: err}
			}()
		}
		if inFlight == 0 {
			break
		}

		select {
		case <-ctx.Done():
			break loop
		case result := <-results:
			inFlight--
			if result.err != nil {
				a.metrics.signatureRequests.WithLabelValues("failure").Inc()
				a.log.Debug("signature request failed",
					zap.Stringer("nodeID", validators[result.index].NodeID),
					zap.Error(result.err),
				)
				continue
			}
			a.metrics.signatureRequests.WithLabelValues("success").Inc()
			collected[result.index] = result.signature
		}
	}

	signatures := make([]warp.NodeSignature, 0, len(collected))
	for index := range validators {
		if signature, ok := collected[index]; ok {
			signatures = append(signatures, signature)
		}
	}
	return signatures
}

func (a *SignatureAggregator) requestSignature(
	ctx context.Context,
	endpoint *sourceEndpoint,
	endpointNodeID ids.NodeID,
	peersByID map[ids.NodeID]info.Peer,
	v *subnet.Validator,
	messageID ids.ID,
) (warp.NodeSignature, error) {
	var rpcURL string
	switch {
	case v.NodeID == endpointNodeID:
		// The endpoint node attests to its own chain.
		rpcURL = endpoint.baseURL + endpoint.path
	default:
		peer, ok := peersByID[v.NodeID]
		if !ok || !peer.PublicIP.IsValid() {
			a.metrics.validatorsNoPeer.Inc()
			return warp.NodeSignature{}, fmt.Errorf(
				"%w: validator '%s' not in endpoint node's peer list", asherrors.ErrPeerNotFound, v.NodeID,
			)
		}
		rpcURL = endpoint.peerURL(peer)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.SignatureRequestTimeout)
	defer cancel()

	signature, err := a.newSubnetEVMClient(rpcURL).WarpGetSignature(ctx, messageID)
	if err != nil {
		return warp.NodeSignature{}, err
	}
	return warp.NodeSignature{NodeID: v.NodeID, Signature: signature}, nil
}
