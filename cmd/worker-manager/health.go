// cmd/worker-manager/health.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"seatsathi-workers/internal/models"
)

type indexStatus interface {
	IsReady() bool
	Stats(ctx context.Context) models.IndexStats
}

type brokerStatus interface {
	HealthCheck(ctx context.Context) error
}

// newHealthMux serves liveness, readiness and Prometheus metrics. Readiness
// requires a built index; the broker check is reported but does not fail it.
func newHealthMux(index indexStatus, broker brokerStatus) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"time": time.Now().Format(time.RFC3339),
		}

		if broker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := broker.HealthCheck(ctx); err != nil {
				body["broker"] = err.Error()
			} else {
				body["broker"] = "ok"
			}
		}

		if !index.IsReady() {
			body["status"] = "warming"
			writeJSON(w, http.StatusServiceUnavailable, body)
			return
		}

		body["status"] = "ready"
		body["index"] = index.Stats(r.Context())
		writeJSON(w, http.StatusOK, body)
	})

	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
