// Package server implements the HTTP transport the core interpreter is
// oblivious to (spec.md §1 "Out of scope", §6.4): listening, TLS/ACME,
// HTTP/2 and h2c, body collection, header decoding, graceful shutdown, and
// dispatching each request into Interpreter.Handle. It is adapted from the
// teacher's newer net/http-based Air.Serve (air.go), generalized from a
// single global *Air value into an explicit *Server holding a reference to
// the interpreter and its own RuntimeConfig.
package server

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"strings"

	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/netterhq/netter/config"
	"github.com/netterhq/netter/lang"
	"github.com/netterhq/netter/lang/interpreter"
	"github.com/netterhq/netter/logger"
)

// Server is the HTTP transport wrapping one Interpreter.
type Server struct {
	cfg    *config.RuntimeConfig
	tls    *lang.TlsConfig
	interp *interpreter.Interpreter
	log    *logger.Logger

	httpServer *http.Server
}

// New builds a Server for interp, serving per cfg, with tlsCfg (from the
// DSL's tls{} block, if any) layered on top of cfg's ACME settings.
func New(cfg *config.RuntimeConfig, tlsCfg *lang.TlsConfig, interp *interpreter.Interpreter, log *logger.Logger) *Server {
	return &Server{
		cfg:    cfg,
		tls:    tlsCfg,
		interp: interp,
		log:    log,
	}
}

// ServeHTTP adapts net/http into the interpreter's transport contract
// (spec.md §6.4): decode params/headers/body, call Handle, write the
// Response back out. Per-request panic recovery (recoverMiddleware) wraps
// this so a programmer error anywhere in this adaptation layer still only
// fails the one request.
func (s *Server) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	recoverMiddleware(s.log, func(rw http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && websocketUpgradeRequested(r) && s.serveWebSocket(rw, r) {
			return
		}

		params := map[string]string{}
		for k, vs := range r.URL.Query() {
			if len(vs) > 0 {
				params[k] = vs[0]
			}
		}

		headers := map[string]string{}
		for k, vs := range r.Header {
			if len(vs) > 0 && isValidUTF8Header(vs[0]) {
				headers[k] = vs[0]
			}
		}

		body := readBody(r)

		resp := s.interp.Handle(r.Method, r.URL.Path, params, headers, body)

		for k, v := range resp.Headers {
			rw.Header().Set(k, v)
		}
		rw.WriteHeader(resp.Status)
		if resp.Body != nil {
			io.WriteString(rw, *resp.Body)
		}
	})(rw, r)
}

func readBody(r *http.Request) interpreter.Body {
	if r.Body == nil || r.ContentLength == 0 {
		return interpreter.Body{Kind: interpreter.BodyEmpty}
	}
	b, err := io.ReadAll(r.Body)
	if err != nil || len(b) == 0 {
		return interpreter.Body{Kind: interpreter.BodyEmpty}
	}
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "text/") || strings.Contains(ct, "json") || strings.Contains(ct, "form-urlencoded") {
		return interpreter.Body{Kind: interpreter.BodyText, Text: string(b)}
	}
	return interpreter.Body{Kind: interpreter.BodyBytes, Raw: b}
}

func websocketUpgradeRequested(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket") &&
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade")
}

func isValidUTF8Header(s string) bool {
	for _, r := range s {
		if r == '�' {
			return false
		}
	}
	return true
}

// Serve builds the net/http.Server from cfg/tls and blocks serving until
// Shutdown is called, mirroring the teacher's Air.Serve TLS/ACME/h2c
// wiring (air.go).
func (s *Server) Serve() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
		MaxHeaderBytes:    s.cfg.MaxHeaderBytes,
	}

	var tlsConfig *tls.Config
	if s.tls != nil && s.tls.Enabled {
		cert, err := tls.LoadX509KeyPair(s.tls.CertPath, s.tls.KeyPath)
		if err != nil {
			return err
		}
		tlsConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	} else if s.cfg.ACMEEnabled {
		mgr := &autocert.Manager{
			Prompt: autocert.AcceptTOS,
			Cache:  autocert.DirCache(s.cfg.ACMECertRoot),
		}
		tlsConfig = mgr.TLSConfig()
	}

	ln, err := newListener(s.cfg, s.log)
	if err != nil {
		return err
	}
	defer ln.Close()

	var netLn net.Listener = ln
	if tlsConfig != nil {
		netLn = tls.NewListener(netLn, tlsConfig)
	} else if s.cfg.HTTP2Enabled {
		s.httpServer.Handler = h2c.NewHandler(s, &http2.Server{IdleTimeout: s.cfg.IdleTimeout})
	}

	s.log.Info("server listening", map[string]interface{}{"address": s.cfg.Address})
	err = s.httpServer.Serve(netLn)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully drains in-flight requests, mirroring the teacher's
// Air.Shutdown (air.go): closing listeners first, then waiting for active
// connections to go idle, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
