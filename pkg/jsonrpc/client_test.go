// Copyright (C) 2023, E36 Knots. All rights reserved.
// See the file LICENSE for licensing terms.
package jsonrpc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AshAvalanche/ash-go/pkg/asherrors"

	"github.com/stretchr/testify/require"
)

func TestSendRequestResult(t *testing.T) {
	require := require.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"networkName":"fuji"}}`))
	}))
	defer server.Close()

	reply := struct {
		NetworkName string `json:"networkName"`
	}{}
	requester := NewEndpointRequester(server.URL)
	require.NoError(requester.SendRequest(context.Background(), "info.getNetworkName", struct{}{}, &reply))
	require.Equal("fuji", reply.NetworkName)
}

func TestSendRequestErrorEnvelope(t *testing.T) {
	require := require.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"node is not a validator"}}`))
	}))
	defer server.Close()

	reply := struct{}{}
	requester := NewEndpointRequester(server.URL)
	err := requester.SendRequest(context.Background(), "info.uptime", struct{}{}, &reply)

	rpcErr := &asherrors.RPCError{}
	require.ErrorAs(err, &rpcErr)
	require.Equal(-32000, rpcErr.Code)
	require.Equal("node is not a validator", rpcErr.Message)
}

func TestSendRequestStatusCode(t *testing.T) {
	require := require.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	reply := struct{}{}
	requester := NewEndpointRequester(server.URL)
	err := requester.SendRequest(context.Background(), "platform.getSubnets", struct{}{}, &reply)
	require.ErrorIs(err, asherrors.ErrRemoteUnavailable)
}

func TestSendRequestUnreachable(t *testing.T) {
	require := require.New(t)

	requester := NewEndpointRequester("http://127.0.0.1:1/ext/info")
	err := requester.SendRequest(context.Background(), "info.peers", struct{}{}, &struct{}{})
	require.ErrorIs(err, asherrors.ErrRemoteUnavailable)
}

func TestSendRequestMalformedBody(t *testing.T) {
	require := require.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`]not json[`))
	}))
	defer server.Close()

	reply := struct{}{}
	requester := NewEndpointRequester(server.URL)
	err := requester.SendRequest(context.Background(), "platform.getBlockchains", struct{}{}, &reply)
	require.ErrorIs(err, asherrors.ErrMalformedResponse)
	require.False(errors.Is(err, asherrors.ErrRemoteUnavailable))
}
