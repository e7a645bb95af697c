// Copyright (C) 2023, E36 Knots. All rights reserved.
// See the file LICENSE for licensing terms.
package warp

import (
	"encoding/binary"
	"fmt"

	"github.com/AshAvalanche/ash-go/pkg/asherrors"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ethereum/go-ethereum/common"
)

// Payload is the content of an unsigned Warp message. Payload formats are
// VM specific and messages from unsupported VMs stay UnknownPayload.
type Payload interface {
	payload()
}

var (
	_ Payload = (*UnknownPayload)(nil)
	_ Payload = (*AddressedPayload)(nil)
)

// UnknownPayload is a payload the library could not decode further.
type UnknownPayload struct {
	Bytes []byte `json:"bytes"`
}

func (*UnknownPayload) payload() {}

// Addressed payload layout:
//
//	[0..4]   payload length, from offset 4 (big endian)
//	[4..10]  codec version and type ID
//	[10..30] sourceAddress
//	[30..62] destinationChainID
//	[62..82] destinationAddress
//	[82..]   payload (ABI encoded)
const (
	addressedSourceOffset      = 10
	addressedDestChainOffset   = 30
	addressedDestAddrOffset    = 62
	addressedPayloadOffset     = 82
	addressedPayloadMinLen     = 88
	addressedPayloadLenPadding = 4
)

// AddressedPayload is the Subnet-EVM point to point message format.
// See https://github.com/ava-labs/subnet-evm/blob/master/warp/payload/payload.go
type AddressedPayload struct {
	SourceAddress      common.Address `json:"sourceAddress"`
	DestinationChainID ids.ID         `json:"destinationChainID"`
	DestinationAddress common.Address `json:"destinationAddress"`
	Payload            []byte         `json:"payload"`

	header [addressedPayloadOffset]byte
}

func (*AddressedPayload) payload() {}

// ParseAddressedPayload decodes an AddressedPayload from its binary
// representation. The leading length field must account for every byte
// after it.
func ParseAddressedPayload(b []byte) (*AddressedPayload, error) {
	if len(b) < addressedPayloadMinLen {
		return nil, fmt.Errorf(
			"%w: addressed payload is %d bytes, expected at least %d",
			asherrors.ErrPayloadTooShort,
			len(b),
			addressedPayloadMinLen,
		)
	}

	length := binary.BigEndian.Uint32(b[0:4])
	if length+addressedPayloadLenPadding != uint32(len(b)) {
		return nil, fmt.Errorf(
			"%w: addressed payload declares %d bytes, got %d",
			asherrors.ErrPayloadIntegrity,
			length+addressedPayloadLenPadding,
			len(b),
		)
	}

	destinationChainID, err := ids.ToID(b[addressedDestChainOffset:addressedDestAddrOffset])
	if err != nil {
		return nil, fmt.Errorf("parsing destination chain ID: %w", err)
	}

	payload := &AddressedPayload{
		SourceAddress:      common.BytesToAddress(b[addressedSourceOffset:addressedDestChainOffset]),
		DestinationChainID: destinationChainID,
		DestinationAddress: common.BytesToAddress(b[addressedDestAddrOffset:addressedPayloadOffset]),
		Payload:            append([]byte(nil), b[addressedPayloadOffset:]...),
	}
	copy(payload.header[:], b[:addressedPayloadOffset])
	return payload, nil
}

// Bytes re-encodes the payload to the exact binary representation it was
// parsed from.
func (p *AddressedPayload) Bytes() []byte {
	b := make([]byte, addressedPayloadOffset+len(p.Payload))
	copy(b, p.header[:])
	binary.BigEndian.PutUint32(b[0:4], uint32(len(b)-addressedPayloadLenPadding))
	copy(b[addressedSourceOffset:], p.SourceAddress.Bytes())
	copy(b[addressedDestChainOffset:], p.DestinationChainID[:])
	copy(b[addressedDestAddrOffset:], p.DestinationAddress.Bytes())
	copy(b[addressedPayloadOffset:], p.Payload)
	return b
}
