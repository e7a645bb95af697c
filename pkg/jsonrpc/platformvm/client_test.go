// Copyright (C) 2023, E36 Knots. All rights reserved.
// See the file LICENSE for licensing terms.
package platformvm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AshAvalanche/ash-go/pkg/subnet"

	"github.com/ava-labs/avalanchego/utils/constants"
	"github.com/stretchr/testify/require"
)

// newTestServer serves canned JSON-RPC results keyed by method name.
func newTestServer(t *testing.T, results map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		req := struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}{}
		require.NoError(t, json.Unmarshal(body, &req))
		result, ok := results[req.Method]
		require.True(t, ok, "unexpected method %s", req.Method)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":%s}`, req.ID, result)
	}))
}

func TestGetSubnets(t *testing.T) {
	require := require.New(t)

	server := newTestServer(t, map[string]string{
		"platform.getSubnets": `{"subnets":[
			{"id":"11111111111111111111111111111111LpoYY","controlKeys":[],"threshold":"0"},
			{"id":"Vn3aX6hNRstj5VHHm63TCgPNaeGnRSqCYXQqemSqDd2TQH4qJ","controlKeys":["P-avax1k3j"],"threshold":"1"}
		]}`,
	})
	defer server.Close()

	subnets, err := NewClient(server.URL).GetSubnets(context.Background())
	require.NoError(err)
	require.Len(subnets, 2)

	require.Equal(constants.PrimaryNetworkID, subnets[0].ID)
	require.Equal(subnet.PrimaryNetwork, subnets[0].Type)
	require.Equal(subnet.Permissioned, subnets[1].Type)
	require.Equal(uint32(1), subnets[1].Threshold)
	require.Equal([]string{"P-avax1k3j"}, subnets[1].ControlKeys)
	require.Empty(subnets[1].Blockchains)
	require.Empty(subnets[1].Validators)
}

func TestGetBlockchains(t *testing.T) {
	require := require.New(t)

	server := newTestServer(t, map[string]string{
		"platform.getBlockchains": `{"blockchains":[{
			"id":"2q9e4r6Mu3U68nU1fYjgbR6JvwrRx36CohpAX5UQxse55x1Q5",
			"name":"C-Chain",
			"subnetID":"11111111111111111111111111111111LpoYY",
			"vmID":"mgj786NP7uDwBCcq6YwThhaN8FLyybkCa4zBWTQbNgmK6k9A6"
		}]}`,
	})
	defer server.Close()

	blockchains, err := NewClient(server.URL).GetBlockchains(context.Background())
	require.NoError(err)
	require.Len(blockchains, 1)
	require.Equal("C-Chain", blockchains[0].Name)
	require.Equal(constants.PrimaryNetworkID, blockchains[0].SubnetID)
	require.Equal("2q9e4r6Mu3U68nU1fYjgbR6JvwrRx36CohpAX5UQxse55x1Q5", blockchains[0].ID.String())
	require.Equal("mgj786NP7uDwBCcq6YwThhaN8FLyybkCa4zBWTQbNgmK6k9A6", blockchains[0].VMID.String())
}

func TestGetCurrentValidators(t *testing.T) {
	require := require.New(t)

	server := newTestServer(t, map[string]string{
		"platform.getCurrentValidators": `{"validators":[{
			"txID":"2NNkpYTGfTFLSGXJcHtVv6drwVU2cczhmjK2uhvwDyxwsjzZMm",
			"nodeID":"NodeID-7Xhw2mDxuDS44j42TCB6U5579esbSt3Lg",
			"startTime":"1600000000",
			"endTime":"1630000000",
			"stakeAmount":"2000000000000",
			"potentialReward":"117431493426",
			"delegationFee":"10.0000",
			"connected":true,
			"uptime":"99.1234",
			"signer":{"publicKey":"0x8f95","proofOfPossession":"0x86a3"},
			"validationRewardOwner":{"locktime":"0","threshold":"1","addresses":["P-avax1k3j"]},
			"delegatorCount":"1",
			"delegatorWeight":"25000000000",
			"delegators":[{
				"txID":"Bbai8nzGVcyn2VmeYcbS74zfjJLjDacGNVuzuvAQkHn1uWfoV",
				"nodeID":"NodeID-7Xhw2mDxuDS44j42TCB6U5579esbSt3Lg",
				"startTime":"1600000001",
				"endTime":"1629999999",
				"stakeAmount":"25000000000",
				"potentialReward":"11743"
			}]
		}]}`,
	})
	defer server.Close()

	validators, err := NewClient(server.URL).GetCurrentValidators(
		context.Background(),
		constants.PrimaryNetworkID,
	)
	require.NoError(err)
	require.Len(validators, 1)

	v := validators[0]
	require.Equal("NodeID-7Xhw2mDxuDS44j42TCB6U5579esbSt3Lg", v.NodeID.String())
	require.Equal(constants.PrimaryNetworkID, v.SubnetID)
	require.Equal(int64(1600000000), v.StartTime.Unix())
	require.Equal(int64(1630000000), v.EndTime.Unix())
	require.Equal(uint64(2000000000000), v.StakeAmount)
	require.Equal(uint64(117431493426), v.PotentialReward)
	require.InDelta(float32(10.0), v.DelegationFee, 0.0001)
	require.True(v.Connected)
	require.InDelta(float32(99.1234), v.Uptime, 0.0001)
	require.NotNil(v.Signer)
	require.Equal("0x8f95", v.Signer.PublicKey)
	require.NotNil(v.ValidationRewardOwner)
	require.Equal(uint32(1), v.ValidationRewardOwner.Threshold)
	require.Nil(v.DelegationRewardOwner)
	require.Equal(uint64(1), v.DelegatorCount)
	require.Len(v.Delegators, 1)
	require.Equal(uint64(25000000000), v.Delegators[0].StakeAmount)
	require.Nil(v.Delegators[0].RewardOwner)
}

func TestGetPendingValidators(t *testing.T) {
	require := require.New(t)

	server := newTestServer(t, map[string]string{
		"platform.getPendingValidators": `{
			"validators":[{
				"txID":"2NNkpYTGfTFLSGXJcHtVv6drwVU2cczhmjK2uhvwDyxwsjzZMm",
				"nodeID":"NodeID-7Xhw2mDxuDS44j42TCB6U5579esbSt3Lg",
				"startTime":"1700000000",
				"endTime":"1730000000",
				"stakeAmount":"2000000000000"
			}],
			"delegators":[{
				"txID":"Bbai8nzGVcyn2VmeYcbS74zfjJLjDacGNVuzuvAQkHn1uWfoV",
				"nodeID":"NodeID-7Xhw2mDxuDS44j42TCB6U5579esbSt3Lg",
				"startTime":"1700000001",
				"endTime":"1729999999",
				"stakeAmount":"25000000000"
			}]
		}`,
	})
	defer server.Close()

	validators, delegators, err := NewClient(server.URL).GetPendingValidators(
		context.Background(),
		constants.PrimaryNetworkID,
	)
	require.NoError(err)
	require.Len(validators, 1)
	require.Len(delegators, 1)
	require.False(validators[0].Connected)
	require.Equal(int64(1700000000), validators[0].StartTime.Unix())
	require.Equal(uint64(25000000000), delegators[0].StakeAmount)
}
