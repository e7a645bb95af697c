// Copyright (C) 2023, E36 Knots. All rights reserved.
// See the file LICENSE for licensing terms.

// Package subnetevm is a client for the Subnet-EVM APIs of a blockchain,
// currently limited to the warp signature endpoint.
package subnetevm

import (
	"context"
	"fmt"

	"github.com/AshAvalanche/ash-go/pkg/asherrors"
	"github.com/AshAvalanche/ash-go/pkg/jsonrpc"
	"github.com/AshAvalanche/ash-go/pkg/warp"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var _ Client = (*client)(nil)

// Client issues Subnet-EVM API calls against a single blockchain RPC
// endpoint.
type Client interface {
	// WarpGetSignature returns the endpoint node's BLS signature over the
	// warp message with the given ID. The node fails the call when it has
	// not seen the message.
	WarpGetSignature(ctx context.Context, messageID ids.ID) ([warp.SignatureLen]byte, error)
}

type client struct {
	requester jsonrpc.EndpointRequester
}

// NewClient returns a Subnet-EVM API client posting to rpcURL (a full
// blockchain RPC URL, e.g. http://127.0.0.1:9650/ext/bc/<chainID>/rpc).
func NewClient(rpcURL string) Client {
	return &client{requester: jsonrpc.NewEndpointRequester(rpcURL)}
}

func (c *client) WarpGetSignature(ctx context.Context, messageID ids.ID) ([warp.SignatureLen]byte, error) {
	var signature [warp.SignatureLen]byte

	// Ethereum style API: positional params, hex encoded result.
	reply := hexutil.Bytes{}
	if err := c.requester.SendRequest(ctx, "warp_getSignature", []ids.ID{messageID}, &reply); err != nil {
		return signature, err
	}

	if len(reply) != warp.SignatureLen {
		return signature, fmt.Errorf(
			"%w: expected %d bytes, got %d",
			asherrors.ErrInvalidSignatureLength,
			warp.SignatureLen,
			len(reply),
		)
	}
	copy(signature[:], reply)
	return signature, nil
}
