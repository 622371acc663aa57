// ABOUTME: Prometheus metrics for the HTTP API
// ABOUTME: Counts diagnose requests by outcome and ingested rows by result
package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	diagnoseRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "faultfinder_diagnose_requests_total",
		Help: "Diagnose requests by outcome.",
	}, []string{"status"})

	ingestRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "faultfinder_ingest_rows_total",
		Help: "Ingested rows by result.",
	}, []string{"result"})
)
