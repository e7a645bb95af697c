// Copyright (C) 2023, E36 Knots. All rights reserved.
// See the file LICENSE for licensing terms.
package warp

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/set"
)

// NodeSignature is a single validator's BLS signature over a message.
type NodeSignature struct {
	NodeID    ids.NodeID         `json:"nodeID"`
	Signature [SignatureLen]byte `json:"signature"`
}

// Status is the lifecycle state of a tracked Warp message.
type Status struct {
	// Signatures is the number of distinct node signatures collected so
	// far. Zero means the message was only seen on its source chain.
	Signatures int `json:"signatures"`
}

func (s Status) String() string {
	if s.Signatures == 0 {
		return "Sent"
	}
	return fmt.Sprintf("Signed(%d)", s.Signatures)
}

// Message is a Warp message tracked across chains, along with the
// signatures collected from the source Subnet's validators.
type Message struct {
	UnsignedMessage *UnsignedMessage `json:"unsignedMessage"`

	// VerifiedMessage is the message as it will be parsed on the
	// destination chain, when the destination VM is supported.
	VerifiedMessage VerifiedMessage `json:"verifiedMessage,omitempty"`

	signatures []NodeSignature
	signers    set.Set[ids.NodeID]
}

// NewMessage returns a Message tracking the given unsigned message with no
// signatures.
func NewMessage(unsignedMessage *UnsignedMessage) *Message {
	return &Message{UnsignedMessage: unsignedMessage}
}

// AddSignature records a node's signature. Repeat signatures from the same
// node are ignored; AddSignature reports whether the signature was kept.
func (m *Message) AddSignature(signature NodeSignature) bool {
	if m.signers.Contains(signature.NodeID) {
		return false
	}
	m.signers.Add(signature.NodeID)
	m.signatures = append(m.signatures, signature)
	return true
}

// Signatures returns the collected signatures in insertion order.
func (m *Message) Signatures() []NodeSignature {
	return m.signatures
}

// Status derives the message status from the collected signatures.
func (m *Message) Status() Status {
	return Status{Signatures: len(m.signatures)}
}
