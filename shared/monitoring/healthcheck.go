package monitoring

import (
	"fmt"
	"log"
	"net/http"
)

// HealthServer exposes the monitor over HTTP. /health answers liveness
// probes with a status code, /status returns the last run summary as plain
// text.
type HealthServer struct {
	monitor *Monitor
	port    string
}

func NewHealthServer(monitor *Monitor, port string) *HealthServer {
	if port == "" {
		port = "8080"
	}
	return &HealthServer{
		monitor: monitor,
		port:    port,
	}
}

// Start serves in the background. Listen failures are logged rather than
// fatal so an occupied port never blocks collection.
func (h *HealthServer) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/status", h.handleStatus)

	log.Printf("Health endpoint listening on port %s", h.port)
	go func() {
		if err := http.ListenAndServe(":"+h.port, mux); err != nil {
			log.Printf("Health endpoint error: %v", err)
		}
	}()
}

func (h *HealthServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !h.monitor.IsHealthy() {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, "unhealthy: %s", h.monitor.GetStatusSummary())
		return
	}
	fmt.Fprintf(w, "ok: %s", h.monitor.GetStatusSummary())
}

func (h *HealthServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, h.monitor.GetStatusSummary())
}
