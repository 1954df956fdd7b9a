package server

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"

	"github.com/gorilla/mux"

	"github.com/kvrepo/notifycore/internal/config"
	"github.com/kvrepo/notifycore/internal/store"
)

// Server exposes a CommitStore over HTTP: GET to read (optionally
// subscribing to further changes under a path pattern) and PATCH to
// commit. It carries over the teacher's CORS and reverse-proxy
// mechanics essentially unchanged — those concerns don't depend on what
// the server is proxying.
type Server struct {
	config       *config.Config
	store        *store.CommitStore
	reverseProxy *httputil.ReverseProxy
}

// New creates a Server backed by store. If config.ProxyURL is set, GET
// requests for paths absent from the document are forwarded there
// instead of returning 404 — the same fallback the teacher used for
// mock files it didn't have locally.
func New(cfg *config.Config, cs *store.CommitStore) *Server {
	s := &Server{config: cfg, store: cs}
	if cfg.ProxyURL != nil {
		s.setupProxy()
	}
	return s
}

func (s *Server) setupProxy() {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if s.config.InsecureProxy {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	s.reverseProxy = &httputil.ReverseProxy{
		Director: func(req *http.Request) {
			req.URL.Scheme = s.config.ProxyURL.Scheme
			req.URL.Host = s.config.ProxyURL.Host
			req.Host = s.config.ProxyURL.Host

			if s.config.ProxyURL.RawQuery != "" {
				if req.URL.RawQuery == "" {
					req.URL.RawQuery = s.config.ProxyURL.RawQuery
				} else {
					req.URL.RawQuery = s.config.ProxyURL.RawQuery + "&" + req.URL.RawQuery
				}
			}
		},
		Transport: transport,
	}

	log.Printf("Proxy mode enabled: requests for paths absent from the document will be forwarded to %s", s.config.ProxyURL.String())
	if s.config.InsecureProxy {
		log.Printf("Warning: TLS certificate verification disabled for proxy requests")
	}
}

// Routes builds the HTTP handler: every request under /repo is routed
// to the repository handler; anything else falls through to the proxy
// (if configured) or a 404.
func (s *Server) Routes() http.Handler {
	router := mux.NewRouter()
	router.PathPrefix("/repo").HandlerFunc(s.handleRepo).Methods(http.MethodGet, http.MethodPatch, http.MethodOptions)
	router.PathPrefix("/").HandlerFunc(s.handleFallback)
	return router
}

func (s *Server) handleFallback(w http.ResponseWriter, r *http.Request) {
	if s.reverseProxy != nil {
		s.reverseProxy.ServeHTTP(w, r)
		return
	}
	http.Error(w, "not found", http.StatusNotFound)
}

func (s *Server) addCORSHeaders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", s.config.CORS.AllowOrigins)
	w.Header().Set("Access-Control-Allow-Methods", s.config.CORS.AllowMethods)
	w.Header().Set("Access-Control-Allow-Headers", s.config.CORS.AllowHeaders)

	if s.config.CORS.AllowCredentials {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}

	w.Header().Set("Access-Control-Max-Age", fmt.Sprintf("%d", s.config.CORS.MaxAge))
}
