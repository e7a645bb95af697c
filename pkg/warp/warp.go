// Copyright (C) 2023, E36 Knots. All rights reserved.
// See the file LICENSE for licensing terms.

// Package warp decodes Avalanche Warp messages from their binary
// representation and tracks the signatures collected over them.
//
// Layouts follow the canonical message serialization:
// https://github.com/ava-labs/avalanchego/blob/master/vms/platformvm/warp/unsigned_message.go
package warp

import (
	"encoding/binary"
	"fmt"

	"github.com/AshAvalanche/ash-go/pkg/asherrors"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
)

// SignatureLen is the length in bytes of a node's BLS signature over a
// message.
const SignatureLen = 96

// Unsigned message layout:
//
//	[0..2]  codec version
//	[2..6]  networkID (big endian)
//	[6..38] sourceChainID
//	[38..]  payload
const (
	networkIDOffset     = 2
	sourceChainIDOffset = 6
	payloadOffset       = 38
)

// UnsignedMessage is a Warp message before any signature is attached. Its
// ID is the SHA-256 of the full serialized message.
type UnsignedMessage struct {
	ID            ids.ID  `json:"id"`
	NetworkID     uint32  `json:"networkID"`
	SourceChainID ids.ID  `json:"sourceChainID"`
	Payload       Payload `json:"payload"`

	bytes []byte
}

// Bytes returns the serialized message the message was parsed from.
func (m *UnsignedMessage) Bytes() []byte {
	return m.bytes
}

// ParseUnsignedMessage decodes an unsigned Warp message. The payload is
// left opaque as an UnknownPayload: callers that know the source VM can
// refine it further (see ParseSubnetEVMMessage).
func ParseUnsignedMessage(b []byte) (*UnsignedMessage, error) {
	if len(b) < payloadOffset {
		return nil, fmt.Errorf(
			"%w: unsigned message is %d bytes, expected at least %d",
			asherrors.ErrPayloadTooShort,
			len(b),
			payloadOffset,
		)
	}

	bytes := make([]byte, len(b))
	copy(bytes, b)

	sourceChainID, err := ids.ToID(bytes[sourceChainIDOffset:payloadOffset])
	if err != nil {
		return nil, fmt.Errorf("parsing source chain ID: %w", err)
	}

	return &UnsignedMessage{
		ID:            hashing.ComputeHash256Array(bytes),
		NetworkID:     binary.BigEndian.Uint32(bytes[networkIDOffset:sourceChainIDOffset]),
		SourceChainID: sourceChainID,
		Payload:       &UnknownPayload{Bytes: bytes[payloadOffset:]},
		bytes:         bytes,
	}, nil
}

// ParseSubnetEVMMessage decodes an unsigned Warp message emitted by a
// Subnet-EVM blockchain, refining the payload into an AddressedPayload.
// Payload decoding is best effort: a payload that does not fit the
// addressed layout stays Unknown rather than failing the message.
func ParseSubnetEVMMessage(b []byte) (*UnsignedMessage, error) {
	message, err := ParseUnsignedMessage(b)
	if err != nil {
		return nil, err
	}

	unknown := message.Payload.(*UnknownPayload)
	if addressed, err := ParseAddressedPayload(unknown.Bytes); err == nil {
		message.Payload = addressed
	}
	return message, nil
}
