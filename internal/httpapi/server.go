package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/leadline-ai/callbridge/internal/observability"
	"github.com/leadline-ai/callbridge/internal/protocol"
	"github.com/leadline-ai/callbridge/internal/session"
)

const (
	readIdleTimeout = 120 * time.Second
	writeTimeout    = 10 * time.Second
)

// SessionBuilder constructs a Session for an admitted connection. The
// outbound channel carries frames to the connection's writer.
type SessionBuilder func(leadID, inquiryCategory string, outbound chan<- protocol.Frame) *session.Session

type Server struct {
	registry *session.Registry
	build    SessionBuilder
	metrics  *observability.Metrics
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func New(registry *session.Registry, build SessionBuilder, metrics *observability.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		registry: registry,
		build:    build,
		metrics:  metrics,
		log:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Telephony media-stream clients are not browsers and
				// omit Origin. Browser connections must be same-origin.
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	r.Get("/twilio", s.handleMediaStream)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":         "ok",
		"activeSessions": s.registry.Count(),
	})
}

func (s *Server) handleMediaStream(w http.ResponseWriter, r *http.Request) {
	leadID := strings.TrimSpace(r.URL.Query().Get("leadId"))
	inquiryCategory := strings.TrimSpace(r.URL.Query().Get("inquiryType"))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if leadID == "" {
		s.metrics.SessionEvents.WithLabelValues("rejected_missing_lead").Inc()
		s.closeWith(conn, websocket.CloseInternalServerErr, "leadId required")
		return
	}

	outbound := make(chan protocol.Frame, 64)
	sess := s.build(leadID, inquiryCategory, outbound)
	if err := s.registry.Admit(sess); err != nil {
		switch {
		case errors.Is(err, session.ErrCapacity):
			s.metrics.SessionEvents.WithLabelValues("rejected_capacity").Inc()
			s.closeWith(conn, websocket.CloseTryAgainLater, "server busy")
		case errors.Is(err, session.ErrDuplicateLead):
			s.metrics.SessionEvents.WithLabelValues("rejected_duplicate").Inc()
			s.closeWith(conn, websocket.ClosePolicyViolation, "session already active for lead")
		default:
			s.closeWith(conn, websocket.CloseInternalServerErr, "admission failed")
		}
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	sess.Start(ctx)

	s.metrics.ActiveSessions.Set(float64(s.registry.Count()))
	s.metrics.SessionEvents.WithLabelValues("started").Inc()
	s.log.Info("session started", "lead_id", leadID, "inquiry", inquiryCategory)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case frame := <-outbound:
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteJSON(frame); err != nil {
					s.log.Warn("socket write failed", "lead_id", leadID, "err", err)
					cancel()
					return
				}
			}
		}
	}()

	conn.SetReadLimit(2 << 20)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		frame, err := protocol.ParseFrame(data)
		if err != nil {
			s.log.Warn("dropping invalid frame", "lead_id", leadID, "err", err)
			continue
		}
		sess.HandleFrame(frame)
	}

	cancel()
	<-writerDone
	if removed := s.registry.Remove(leadID); removed != nil {
		removed.Terminate()
	}
	s.metrics.ActiveSessions.Set(float64(s.registry.Count()))
	s.metrics.SessionEvents.WithLabelValues("closed").Inc()
	s.log.Info("session closed", "lead_id", leadID)
}

func (s *Server) closeWith(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
}
