// Package web serves the game to browsers. The browser runs the pose model
// and streams keypoints over a WebSocket; the server runs one controller
// and runner per connection and streams state back.
package web

import (
	"context"
	_ "embed"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/vovakirdan/pose-match/internal/game"
	"github.com/vovakirdan/pose-match/internal/storage"
)

const timeout = 10 * time.Second

//go:embed static/index.html
var indexHTML []byte

// Config holds the web server settings.
type Config struct {
	Bind      string
	Port      int
	Prefix    string // Path prefix, e.g. "/posematch"
	PublicURL string // URL encoded in the QR code; derived from the request when empty
	TLSCert   string
	TLSKey    string
	Version   string

	Game       game.Config
	Timing     game.Timing
	Difficulty string
}

// DefaultConfig returns a config listening on 0.0.0.0:8080.
func DefaultConfig() Config {
	return Config{
		Bind:       "0.0.0.0",
		Port:       8080,
		Version:    "dev",
		Game:       game.DefaultConfig(),
		Timing:     game.DefaultTiming(),
		Difficulty: "normal",
	}
}

func (c Config) scheme() string {
	if c.TLSCert != "" && c.TLSKey != "" {
		return "https"
	}
	return "http"
}

// Server is the HTTP and WebSocket front-end.
type Server struct {
	cfg      Config
	store    *storage.Store
	logger   *log.Logger
	router   *httprouter.Router
	upgrader websocket.Upgrader
}

// NewServer creates a server. store may be nil, in which case runs are
// not saved.
func NewServer(cfg Config, store *storage.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	cfg.Prefix = strings.TrimSuffix(cfg.Prefix, "/")

	s := &Server{
		cfg:    cfg,
		store:  store,
		logger: logger,
		router: httprouter.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	s.router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		s.logger.Error("panic serving request", "path", r.URL.Path, "remote", realIP(r), "panic", v)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}

	p := cfg.Prefix
	s.router.GET(p+"/", s.serveIndex)
	s.router.GET(p+"/healthz", s.serveHealthCheck)
	s.router.GET(p+"/version", s.serveVersion)
	s.router.GET(p+"/qr", s.serveQR)
	s.router.GET(p+"/ws", s.serveWS)

	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort(s.cfg.Bind, strconv.Itoa(s.cfg.Port)),
		Handler:           s.router,
		IdleTimeout:       10 * time.Minute,
		ReadHeaderTimeout: timeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "url", s.cfg.scheme()+"://"+srv.Addr+s.cfg.Prefix+"/")
		var err error
		if s.cfg.scheme() == "https" {
			err = srv.ListenAndServeTLS(s.cfg.TLSCert, s.cfg.TLSKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err, ok := <-errc:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) securityHeaders(w http.ResponseWriter) {
	w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
	w.Header().Set("Cross-Origin-Resource-Policy", "same-site")
	w.Header().Set("Permissions-Policy", "geolocation=(), midi=(), microphone=(), payment=(), camera=(self)")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'self'")

	if s.cfg.scheme() == "https" {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}
}

func realIP(r *http.Request) string {
	host, port, _ := net.SplitHostPort(r.RemoteAddr)
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	} else if ip := r.Header.Get("X-Real-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	}
	if net.ParseIP(host) != nil && strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		return host + ":" + port
	}
	return host
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	s.securityHeaders(w)
	_, _ = w.Write(indexHTML)
}

func (s *Server) serveHealthCheck(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	s.securityHeaders(w)
	_, _ = w.Write([]byte("Ok\n"))
}

func (s *Server) serveVersion(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	s.securityHeaders(w)
	_, _ = w.Write([]byte("posematch v" + s.cfg.Version + "\n"))
}

// playURL is the address players should open, as seen by this request.
func (s *Server) playURL(r *http.Request) string {
	if s.cfg.PublicURL != "" {
		return s.cfg.PublicURL
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + s.cfg.Prefix + "/"
}

// serveQR renders a PNG QR code of the play URL for phones.
func (s *Server) serveQR(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	const qrSize = 320

	png, err := qrcode.Encode(s.playURL(r), qrcode.Medium, qrSize)
	if err != nil {
		s.logger.Error("qr generation failed", "error", err)
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	s.securityHeaders(w)
	_, _ = w.Write(png)
}
