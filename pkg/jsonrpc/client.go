// Copyright (C) 2023, E36 Knots. All rights reserved.
// See the file LICENSE for licensing terms.

// Package jsonrpc implements the JSON-RPC 2.0 request plumbing shared by
// the API clients. It mirrors avalanchego's utils/rpc requester and uses
// the same wire codec (gorilla json2). Fully-qualified method names
// ("platform.getSubnets", "warp_getSignature") are passed by the caller.
package jsonrpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/AshAvalanche/ash-go/pkg/asherrors"

	rpc "github.com/gorilla/rpc/v2/json2"
)

var _ EndpointRequester = (*endpointRequester)(nil)

// EndpointRequester issues JSON-RPC requests against a single URL.
// There is no retry policy at this layer: a transport failure is an
// immediate per-call failure, and bounding the total latency is the
// caller's job via ctx.
type EndpointRequester interface {
	SendRequest(ctx context.Context, method string, params any, reply any) error
}

type endpointRequester struct {
	uri    string
	client *http.Client
}

func NewEndpointRequester(uri string) EndpointRequester {
	return &endpointRequester{
		uri:    uri,
		client: http.DefaultClient,
	}
}

func (r *endpointRequester) SendRequest(ctx context.Context, method string, params any, reply any) error {
	requestBody, err := rpc.EncodeClientRequest(method, params)
	if err != nil {
		return fmt.Errorf("failed to encode request for method %s: %w", method, err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, r.uri, bytes.NewBuffer(requestBody))
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", r.uri, err)
	}
	request.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(request)
	if err != nil {
		return fmt.Errorf("%w: issuing %s to %s: %s", asherrors.ErrRemoteUnavailable, method, r.uri, err)
	}
	defer cleanlyCloseBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s returned status code %d", asherrors.ErrRemoteUnavailable, r.uri, resp.StatusCode)
	}

	if err := rpc.DecodeClientResponse(resp.Body, reply); err != nil {
		// An error envelope in the response is an application error and
		// must be surfaced as such, not treated as a decode failure.
		var rpcErr *rpc.Error
		if errors.As(err, &rpcErr) {
			return &asherrors.RPCError{
				Code:    int(rpcErr.Code),
				Message: rpcErr.Message,
				Data:    rpcErr.Data,
			}
		}
		return fmt.Errorf("%w: decoding %s reply from %s: %s", asherrors.ErrMalformedResponse, method, r.uri, err)
	}
	return nil
}

// cleanlyCloseBody drains the body before closing it to avoid sending
// RST_STREAM frames on reused connections.
func cleanlyCloseBody(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
