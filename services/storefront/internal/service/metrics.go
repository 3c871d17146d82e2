package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	collectionMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_collection_mutations_total",
			Help: "Cart and wishlist operations by outcome",
		},
		[]string{"collection", "op", "outcome"},
	)

	checkoutTotal = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storefront_checkout_total_rupees",
			Help:    "Order totals at checkout in whole rupees",
			Buckets: prometheus.ExponentialBuckets(1000, 2, 10),
		},
	)
)

func recordMutation(collection, op, outcome string) {
	collectionMutations.WithLabelValues(collection, op, outcome).Inc()
}
