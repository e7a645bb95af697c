// Copyright (C) 2023, E36 Knots. All rights reserved.
// See the file LICENSE for licensing terms.
package constants

import "time"

const (
	// Default ports of an avalanchego node
	DefaultNodeHTTPPort    = 9650
	DefaultNodeStakingPort = 9651

	// Well-known API paths
	InfoAPIEndpoint   = "/ext/info"
	PChainAPIEndpoint = "/ext/bc/P"

	// Timeouts for JSON-RPC calls. The underlying HTTP client has no
	// timeout of its own, so every request context must be bounded.
	APIRequestTimeout       = 10 * time.Second
	SignatureRequestTimeout = 5 * time.Second

	// Maximum number of in-flight signature requests during aggregation
	DefaultSignatureFanOut = 4

	// Maximum number of Subnets refreshed in parallel
	ValidatorsRefreshFanOut = 4

	// ID denoting a Warp message addressed to every chain of a Subnet
	WarpAnycastID = "2wkBET2rRgE8pahuaczxKbmv7ciehqsne57F9gtzf1PVcUJEQG"

	ConfigEnvPrefix = "ASH"
)
