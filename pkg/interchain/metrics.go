// Copyright (C) 2023, E36 Knots. All rights reserved.
// See the file LICENSE for licensing terms.
package interchain

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	aggregations      prometheus.Counter
	signatureRequests *prometheus.CounterVec
	quorumNotReached  prometheus.Counter
	validatorsNoPeer  prometheus.Counter
}

func newMetrics(registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		aggregations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signature_aggregations_total",
			Help: "Number of signature aggregation rounds started",
		}),
		signatureRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signature_requests_total",
			Help: "Number of per validator signature requests, by outcome",
		}, []string{"outcome"}),
		quorumNotReached: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signature_quorum_not_reached_total",
			Help: "Number of aggregation rounds that ended below quorum",
		}),
		validatorsNoPeer: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signature_validators_without_peer_total",
			Help: "Number of validators skipped because no peer address was discovered",
		}),
	}

	for _, collector := range []prometheus.Collector{
		m.aggregations,
		m.signatureRequests,
		m.quorumNotReached,
		m.validatorsNoPeer,
	} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}
