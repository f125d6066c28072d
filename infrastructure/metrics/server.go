package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/netopsctl/nbsync/domain/entities"
	"github.com/netopsctl/nbsync/logger"
)

var log = logger.GetLogger("metrics")

// StatusServer serves /metrics, /healthz and a JSON /status summary of
// the last sync run per device.
type StatusServer struct {
	collector *Collector
	srv       *http.Server

	mu      sync.RWMutex
	reports map[string]entities.SyncReport
}

// NewStatusServer creates the HTTP status surface on the given address.
func NewStatusServer(listen string, collector *Collector) *StatusServer {
	server := &StatusServer{
		collector: collector,
		reports:   make(map[string]entities.SyncReport),
	}
	router := mux.NewRouter()
	router.Handle("/metrics", collector.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", server.handleHealthz).Methods(http.MethodGet)
	router.HandleFunc("/status", server.handleStatus).Methods(http.MethodGet)
	server.srv = &http.Server{
		Addr:         listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return server
}

// Record stores the latest report for a device and updates the metrics.
func (s *StatusServer) Record(report entities.SyncReport) {
	s.collector.ObserveReport(report)
	s.mu.Lock()
	s.reports[report.Device] = report
	s.mu.Unlock()
}

// Run serves until Shutdown is called.
func (s *StatusServer) Run() error {
	log.Infof("Status server listening on %s", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the HTTP server.
func (s *StatusServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *StatusServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

func (s *StatusServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	reports := make([]entities.SyncReport, 0, len(s.reports))
	for _, report := range s.reports {
		reports = append(reports, report)
	}
	s.mu.RUnlock()
	sort.Slice(reports, func(i, j int) bool { return reports[i].Device < reports[j].Device })

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(reports); err != nil {
		log.Warnf("Failed to encode status response: %v", err)
	}
}
