package chain

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.dedis.ch/piggybank"
)

// defines prometheus metrics
var (
	promTxs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "piggybank_chain_transactions_total",
		Help: "total number of executed transactions",
	}, []string{"kind", "outcome"})

	promEnergy = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "piggybank_chain_energy_total",
		Help: "total energy used by the executed transactions",
	})

	promInstances = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "piggybank_chain_instances",
		Help: "number of contract instances",
	})
)

func init() {
	piggybank.PromCollectors = append(piggybank.PromCollectors, promTxs,
		promEnergy, promInstances)
}
