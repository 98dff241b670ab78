// Package web provides the HTTP dashboard for the tank-controller daemon.
package web

import (
	"context"
	"io"
	"log"
	"net"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sadeepas/Smart-Water-Monitor-AND-Automatic-Pump-Controller/internal/config"
	"github.com/sadeepas/Smart-Water-Monitor-AND-Automatic-Pump-Controller/internal/metrics"
	"github.com/sadeepas/Smart-Water-Monitor-AND-Automatic-Pump-Controller/internal/status"
)

// maxPatchBytes bounds the /config request body. Patches are tiny.
const maxPatchBytes = 1024

// Server serves the dashboard, the JSON endpoints, and the WebSocket feed.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	hub        *Hub
	patches    chan<- config.Patch

	hubOnce sync.Once
}

// New creates a Server that reads state from the given tracker and
// forwards configuration patches to the patches channel.
func New(addr string, tracker *status.Tracker, patches chan<- config.Patch) *Server {
	s := &Server{tracker: tracker, patches: patches}
	s.hub = newHub(s.enqueueRaw)

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/report.json", s.handleReport)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/config", s.handleConfig)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// Broadcast pushes a report to every connected WebSocket client.
func (s *Server) Broadcast(report []byte) {
	s.startHub()
	s.hub.Broadcast(report)
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.startHub()
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	s.startHub()
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) startHub() {
	s.hubOnce.Do(func() { go s.hub.Run() })
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatReport(snap))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.startHub()
	snap := s.tracker.Snapshot()
	s.hub.serveWS(w, r, status.FormatReport(snap))
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPatchBytes))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	patch, err := config.ParsePatch(body)
	if err != nil {
		s.dropped()
		http.Error(w, "malformed patch", http.StatusBadRequest)
		return
	}

	if !s.enqueue(patch) {
		http.Error(w, "patch queue full", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// enqueueRaw handles inbound WebSocket messages. Malformed payloads are
// discarded; the socket stays open.
func (s *Server) enqueueRaw(message []byte) {
	patch, err := config.ParsePatch(message)
	if err != nil {
		s.dropped()
		log.Printf("web: discarding malformed patch: %v", err)
		return
	}
	s.enqueue(patch)
}

func (s *Server) enqueue(patch config.Patch) bool {
	select {
	case s.patches <- patch:
		return true
	default:
		s.dropped()
		log.Printf("web: patch queue full, dropping %s", patch)
		return false
	}
}

// dropped records a patch discarded before it reached the control loop.
func (s *Server) dropped() {
	s.tracker.RecordPatchDropped()
	metrics.ConfigPatchesTotal.WithLabelValues("dropped").Inc()
}
