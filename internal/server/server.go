// Package server exposes the layout engine over HTTP: frame snapshots,
// the control surface, and a websocket feed that pushes frames on the
// refresh cadence.
package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/your-org/agent-timeline/internal/engine"
	"github.com/your-org/agent-timeline/internal/feed"
	"github.com/your-org/agent-timeline/internal/view"
	"github.com/your-org/agent-timeline/pkg/timeline"
)

// Server wires one engine and one feed source to HTTP handlers.
type Server struct {
	engine       *engine.Engine
	source       feed.Source
	poller       *feed.Poller
	pushInterval time.Duration
	upgrader     websocket.Upgrader
}

// Options configure the HTTP surface.
type Options struct {
	// PushInterval paces websocket frame pushes. Defaults to 250ms.
	PushInterval time.Duration
}

func New(eng *engine.Engine, source feed.Source, poller *feed.Poller, opts Options) *Server {
	if opts.PushInterval <= 0 {
		opts.PushInterval = 250 * time.Millisecond
	}
	return &Server{
		engine:       eng,
		source:       source,
		poller:       poller,
		pushInterval: opts.PushInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 32 * 1024,
		},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.HandleFunc("/frame", s.handleFrame)
	mux.HandleFunc("/sessions", s.handleSessions)
	mux.HandleFunc("/control", s.handleControl)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.engine.SessionID() == "" {
		http.Error(w, feed.ErrUnknownSession.Error(), http.StatusNotFound)
		return
	}
	frame := s.engine.Layout(time.Now().UnixMilli())
	writeJSON(w, http.StatusOK, frame)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	window := timeline.Window24h
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := timeline.ParseWindow(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		window = parsed
	}
	tr := window.Range(time.Now().UnixMilli())
	sessions, err := s.source.Sessions(r.Context(), tr.Start, tr.End)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Sessions []string `json:"sessions"`
	}{Sessions: sessions})
}

// ControlRequest is one action against the view state. Unused fields are
// ignored for actions that do not need them.
type ControlRequest struct {
	Action    string  `json:"action"`
	DX        float64 `json:"dx,omitempty"`
	DY        float64 `json:"dy,omitempty"`
	Window    string  `json:"window,omitempty"`
	Enabled   bool    `json:"enabled,omitempty"`
	AgentID   string  `json:"agent_id,omitempty"`
	MessageID string  `json:"message_id,omitempty"`
	Mode      string  `json:"mode,omitempty"`
	SessionID string  `json:"session_id,omitempty"`
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req ControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.apply(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) apply(req ControlRequest) error {
	switch req.Action {
	case "zoom_in":
		s.engine.ZoomIn()
	case "zoom_out":
		s.engine.ZoomOut()
	case "pan":
		s.engine.Pan(req.DX, req.DY)
	case "reset_view":
		s.engine.ResetView()
	case "set_window":
		window, err := timeline.ParseWindow(req.Window)
		if err != nil {
			return err
		}
		s.engine.SetWindow(window, time.Now().UnixMilli())
	case "set_follow":
		s.engine.SetFollowMode(req.Enabled)
	case "select_agent":
		s.engine.SelectAgent(req.AgentID)
	case "select_message":
		s.engine.SelectMessage(req.MessageID)
	case "clear_selection":
		s.engine.ClearSelection()
	case "set_lod":
		mode, err := view.ParseMode(req.Mode)
		if err != nil {
			return err
		}
		s.engine.ForceLODMode(mode)
	case "reset_lod":
		s.engine.ResetLOD()
	case "set_session":
		if req.SessionID == "" {
			return fmt.Errorf("session_id is required")
		}
		s.engine.SetSession(req.SessionID)
		if s.poller != nil {
			s.poller.SetSession(req.SessionID)
		}
	default:
		return fmt.Errorf("unknown control action: %q", req.Action)
	}
	return nil
}

// handleWS upgrades the connection and pushes a frame on every tick.
// Inbound messages are treated as control requests.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	go func() {
		for {
			var req ControlRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			_ = s.apply(req)
		}
	}()

	ticker := time.NewTicker(s.pushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			frame := s.engine.Layout(time.Now().UnixMilli())
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		}
	}
}

// Start serves until ctx is done.
func (s *Server) Start(ctx context.Context, addr string) error {
	if addr == "" {
		addr = ":8090"
	}
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	return srv.ListenAndServe()
}

// StartTLS serves with TLS, optionally enforcing client certificates.
func (s *Server) StartTLS(ctx context.Context, addr, certFile, keyFile, caFile string, requireClientCert bool) error {
	if addr == "" {
		addr = ":8090"
	}
	cfg, err := buildTLSConfig(certFile, keyFile, caFile, requireClientCert)
	if err != nil {
		return err
	}
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second, TLSConfig: cfg}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	ln, err := tls.Listen("tcp", addr, cfg)
	if err != nil {
		return fmt.Errorf("timeline tls listen: %w", err)
	}
	return srv.Serve(ln)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
