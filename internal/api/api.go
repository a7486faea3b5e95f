// Package api provides the HTTP surface of Luka.
//
// It exposes the JSON chat endpoint used by web clients, the per-session
// transcript, the Twilio WhatsApp webhook, and a health probe. Every turn is
// funneled through the same flow engine regardless of channel.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/treinafit/luka/internal/flow"
	"github.com/treinafit/luka/internal/session"
	"github.com/treinafit/luka/internal/twiliowhatsapp"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// DefaultShutdownTimeout bounds the graceful shutdown of in-flight requests.
const DefaultShutdownTimeout = 10 * time.Second

// Opts holds configuration options for the API server.
type Opts struct {
	Addr   string
	Sender twiliowhatsapp.Sender
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithSender sets the outbound WhatsApp sender used to answer webhook turns.
// Without one the webhook replies inline in the HTTP response instead.
func WithSender(sender twiliowhatsapp.Sender) Option {
	return func(o *Opts) { o.Sender = sender }
}

// Server wires the flow engine and session manager to the HTTP endpoints.
type Server struct {
	addr     string
	engine   *flow.Engine
	sessions *session.Manager
	sender   twiliowhatsapp.Sender
}

// NewServer creates an API server over the given engine and session manager.
func NewServer(engine *flow.Engine, sessions *session.Manager, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultAddr}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		addr:     cfg.Addr,
		engine:   engine,
		sessions: sessions,
		sender:   cfg.Sender,
	}
}

// Handler returns the route table as an http.Handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.chatHandler)
	mux.HandleFunc("/history", s.historyHandler)
	mux.HandleFunc("/webhook/twilio", s.twilioWebhookHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: API listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server.Run: shutdown failed", "error", err)
			return err
		}
		slog.Info("Server.Run: shut down cleanly")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
