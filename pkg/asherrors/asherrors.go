// Copyright (C) 2023, E36 Knots. All rights reserved.
// See the file LICENSE for licensing terms.

// Package asherrors defines the typed errors shared by the Ash SDK
// packages. Callers are expected to match them with errors.Is/errors.As
// rather than parsing messages.
package asherrors

import (
	"errors"
	"fmt"
)

var (
	// ErrRemoteUnavailable wraps transport failures talking to a node:
	// connection refused, timeouts, non-2xx HTTP statuses.
	ErrRemoteUnavailable = errors.New("remote endpoint unavailable")

	// ErrMalformedResponse wraps responses that could not be decoded as
	// the declared JSON-RPC reply shape.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrPayloadTooShort is returned when a binary payload is shorter
	// than its fixed-layout minimum.
	ErrPayloadTooShort = errors.New("payload too short")

	// ErrPayloadIntegrity is returned when a payload length prefix does
	// not match the actual byte length (truncated or padded input).
	ErrPayloadIntegrity = errors.New("payload length prefix mismatch")

	// ErrPeerNotFound is returned when a validator has no discoverable
	// network address in the queried node's peer list.
	ErrPeerNotFound = errors.New("peer not found")

	// ErrInvalidSignatureLength is returned when a node returns a Warp
	// signature that is not exactly 96 bytes.
	ErrInvalidSignatureLength = errors.New("invalid signature length")
)

// NotFoundError reports a lookup of an entity that does not exist locally.
// Scope names the container searched (a network, a Subnet, the
// configuration), TargetType and TargetValue name what was looked up.
type NotFoundError struct {
	Scope       string
	TargetType  string
	TargetValue string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found in %s", e.TargetType, e.TargetValue, e.Scope)
}

// Is makes every NotFoundError match the zero NotFoundError, so callers
// can test errors.Is(err, &NotFoundError{}) without knowing the fields.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// RPCError is a structured JSON-RPC application error: the remote
// answered, but with an error envelope instead of a result.
type RPCError struct {
	Code    int
	Message string
	Data    any
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC response contains an error: code %d, message: %s", e.Code, e.Message)
}

func (e *RPCError) Is(target error) bool {
	_, ok := target.(*RPCError)
	return ok
}

// OperationNotAllowedError reports an action attempted on a network or a
// Subnet whose classification does not support it.
type OperationNotAllowedError struct {
	Operation string
	Scope     string
}

func (e *OperationNotAllowedError) Error() string {
	return fmt.Sprintf("operation '%s' is not allowed on %s", e.Operation, e.Scope)
}

func (e *OperationNotAllowedError) Is(target error) bool {
	_, ok := target.(*OperationNotAllowedError)
	return ok
}
