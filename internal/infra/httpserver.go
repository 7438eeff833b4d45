package infra

import (
	"context"
	"net/http"
	"time"
)

// HTTPServer wraps http.Server with the pipeline's shutdown order: stop
// accepting requests first, then run the registered drain hooks so
// background work kicked off by accepted requests can finalize.
type HTTPServer struct {
	server *http.Server
	drains []func()
}

// NewHTTPServer builds the listener from config. Drain hooks run during
// Shutdown after the listener has stopped, in the order given; a hook
// typically blocks until a service's in-flight work has settled.
func NewHTTPServer(cfg *Config, handler http.Handler, drains ...func()) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           handler,
			ReadTimeout:       cfg.HTTPReadTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      cfg.HTTPWriteTimeout,
			IdleTimeout:       cfg.HTTPIdleTimeout,
		},
		drains: drains,
	}
}

// Start blocks serving requests until Shutdown or a listener error.
func (s *HTTPServer) Start() error {
	if s.server == nil {
		return nil
	}
	return s.server.ListenAndServe()
}

// Shutdown stops the listener gracefully, then runs the drain hooks. The
// hooks run even when the listener shutdown errors; callers bound the
// listener wait via ctx, each hook owns its internal timeouts.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	for _, drain := range s.drains {
		drain()
	}
	return err
}
