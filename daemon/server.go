// `jobclean daemon` - HTTP service that normalizes uploaded accounting dumps.
//
// Endpoints:
//
//	POST /normalize/{kind}  body is the raw file; the response is the canonical records
//	GET  /health            liveness
//	GET  /metrics           Prometheus counters
//	GET  /docs, /openapi.json
//
// Nothing is written to the database or the message bus; the service is a stateless conversion.
//
// If a password file is configured then every request except /health must carry an HTTP basic
// authentication header matching a user:password line in the file.  SIGHUP rereads the password
// file, SIGTERM shuts the server down.

package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"jobclean/auth"
	"jobclean/common"
	"jobclean/schema"
	"jobclean/status"
)

const (
	DefaultPort     = 8087
	LogTag          = "jobclean"
	authRealm       = "jobclean"
	shutdownTimeout = 10 * time.Second
)

type Options struct {
	Port     uint
	AuthFile string
	Version  string

	// Defaults for every request; a request can only turn DropSteps on.
	Normalize schema.Options

	// common.Log if nil
	Log status.Logger
}

type Server struct {
	port          uint
	version       string
	options       schema.Options
	authenticator *auth.Authenticator
	metrics       *Metrics
	log           status.Logger
}

func New(opts Options) (*Server, error) {
	s := &Server{
		port:    opts.Port,
		version: opts.Version,
		options: opts.Normalize,
		metrics: NewMetrics(),
		log:     opts.Log,
	}
	if s.port == 0 {
		s.port = DefaultPort
	}
	if s.log == nil {
		s.log = common.Log
	}
	if opts.AuthFile != "" {
		a, err := auth.ReadPasswords(opts.AuthFile)
		if err != nil {
			return nil, fmt.Errorf("Failed to read authentication file\n%w", err)
		}
		s.authenticator = a
	}
	return s, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	config := huma.DefaultConfig("jobclean", s.version)
	api := humago.New(mux, config)
	s.Register(api)
	mux.Handle("/metrics", s.metrics.Handler())
	return s.authenticate(mux)
}

// Basic authentication in front of everything but /health.  Without an authenticator a request
// must not carry credentials at all, so that a misconfigured client is noticed.

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		passed := !ok && s.authenticator == nil ||
			ok && s.authenticator != nil && s.authenticator.Authenticate(user, pass)
		if !passed {
			if s.authenticator != nil {
				w.Header().Add("WWW-Authenticate", "Basic realm=\""+authRealm+"\", charset=\"utf-8\"")
			}
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprintf(w, "Unauthorized")
			s.log.Warningf("Authorization failed for %s", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Reread the password file, if there is one.  The old identities stay in force on error.

func (s *Server) Reload() error {
	if s.authenticator == nil {
		return nil
	}
	if err := s.authenticator.Reread(); err != nil {
		return err
	}
	s.log.Infof("Reread password file")
	return nil
}

// Serve until ctx is done, then shut down gracefully.  reload receives a value for every SIGHUP.

func (s *Server) Run(ctx context.Context, reload <-chan struct{}) error {
	srv := &http.Server{
		Addr:              portAddr(s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 30 * time.Second,
	}
	failed := make(chan error, 1)
	go func() {
		s.log.Infof("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
		close(failed)
	}()

	for {
		select {
		case err, ok := <-failed:
			if ok {
				return fmt.Errorf("HTTP server failed\n%w", err)
			}
			return nil
		case <-reload:
			if err := s.Reload(); err != nil {
				s.log.Errorf("Password file reread failed: %v", err)
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("HTTP server shutdown failed\n%w", err)
			}
			s.log.Infof("Server stopped")
			return nil
		}
	}
}
