package server

import (
	"log"
	"net/http"

	"github.com/kojohq/topicscope/pkg/store"
)

// Server exposes a read-only JSON API over the topic store so other
// tools can consume candidates, scores, and the audit trail without
// going through the CLI.
type Server struct {
	DB       *store.DB
	Username string
	Password string
}

func New(db *store.DB, user, pass string) *Server {
	return &Server{
		DB:       db,
		Username: user,
		Password: pass,
	}
}

func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()

	// API Group
	mux.HandleFunc("GET /api/stats", s.basicAuth(s.handleStats))
	mux.HandleFunc("GET /api/topics", s.basicAuth(s.handleTopics))
	mux.HandleFunc("GET /api/audit", s.basicAuth(s.handleAudit))
	mux.HandleFunc("GET /api/jobs", s.basicAuth(s.handleJobs))

	log.Printf("Starting server on %s", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
