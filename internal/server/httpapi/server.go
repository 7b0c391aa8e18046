// Package httpapi exposes the pairing endpoint, the enveloped operation
// endpoint and a status probe over HTTP. The listener is expected to sit
// behind the Tor hidden service, which terminates onion traffic to
// loopback; binding anything else is refused unless explicitly allowed.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/onionkeep/onionkeep/internal/logging"
	"github.com/onionkeep/onionkeep/internal/server/devices"
	"github.com/onionkeep/onionkeep/internal/server/envelope"
	"github.com/onionkeep/onionkeep/internal/server/vault"
)

type Server struct {
	address          string
	allowNonLoopback bool
	devices          *devices.Service
	vault            *vault.Service
	codec            *envelope.Codec
	log              logging.Logger
}

func NewServer(address string, allowNonLoopback bool, ds *devices.Service, vs *vault.Service, codec *envelope.Codec, log logging.Logger) *Server {
	return &Server{
		address:          address,
		allowNonLoopback: allowNonLoopback,
		devices:          ds,
		vault:            vs,
		codec:            codec,
		log:              log.With("module", "httpapi"),
	}
}

// Handler returns the route table. Split out from Run for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/register", s.handleRegister)
	mux.HandleFunc("POST /v1/envelope", s.handleEnvelope)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := s.checkLoopback(); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.log.Info(ctx, "stopping http server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info(ctx, "starting http server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// checkLoopback refuses to announce a routable address. The hidden service
// is the only intended way in; exposing the clearnet port would bypass the
// anonymizing transport the pairing trust model depends on.
func (s *Server) checkLoopback() error {
	if s.allowNonLoopback {
		return nil
	}

	host, _, err := net.SplitHostPort(s.address)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", s.address, err)
	}
	if host == "localhost" {
		return nil
	}
	ip := net.ParseIP(host)
	if ip == nil || !ip.IsLoopback() {
		return fmt.Errorf("refusing to bind non-loopback address %q; the server must only be reachable through the hidden service", s.address)
	}
	return nil
}
