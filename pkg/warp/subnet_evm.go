// Copyright (C) 2023, E36 Knots. All rights reserved.
// See the file LICENSE for licensing terms.
package warp

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// VerifiedMessage is a Warp message as it will be parsed on the
// destination chain. Formats are VM specific.
type VerifiedMessage interface {
	verifiedMessage()
}

var _ VerifiedMessage = (*SubnetEVMMessage)(nil)

// SubnetEVMMessage is a Warp message as exposed by the Subnet-EVM warp
// precompile on the destination chain.
// See https://github.com/ava-labs/subnet-evm/blob/master/x/warp/contract.go
type SubnetEVMMessage struct {
	OriginChainID       ids.ID         `json:"originChainID"`
	OriginSenderAddress common.Address `json:"originSenderAddress"`
	DestinationChainID  common.Hash    `json:"destinationChainID"`
	DestinationAddress  common.Address `json:"destinationAddress"`
	Payload             []byte         `json:"payload,omitempty"`
}

func (*SubnetEVMMessage) verifiedMessage() {}

// ParseSubnetEVMLog decodes a SendWarpMessage event log emitted by the
// Subnet-EVM warp precompile. The log data carries the serialized unsigned
// message; the indexed topics carry destination chain, destination address
// and sender.
func ParseSubnetEVMLog(log types.Log) (*UnsignedMessage, *SubnetEVMMessage, error) {
	if len(log.Topics) < 4 {
		return nil, nil, fmt.Errorf("warp log has %d topics, expected 4", len(log.Topics))
	}

	unsignedMessage, err := ParseSubnetEVMMessage(log.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing warp log data: %w", err)
	}

	verifiedMessage := &SubnetEVMMessage{
		OriginChainID:       unsignedMessage.SourceChainID,
		OriginSenderAddress: common.BytesToAddress(log.Topics[3].Bytes()[12:]),
		DestinationChainID:  log.Topics[1],
		DestinationAddress:  common.BytesToAddress(log.Topics[2].Bytes()[12:]),
	}
	if addressed, ok := unsignedMessage.Payload.(*AddressedPayload); ok {
		verifiedMessage.Payload = addressed.Payload
	}
	return unsignedMessage, verifiedMessage, nil
}
