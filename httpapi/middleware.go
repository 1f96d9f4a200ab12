package httpapi

import (
	"log"
	"net/http"
	"time"
)

func (s *Server) withCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

func withRequestLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next(w, r)
		log.Printf("httpapi: %s %s %s", r.Method, r.URL.Path, time.Since(start))
	}
}

func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return s.withCORS(withRequestLog(s.withRateLimit(next)))
}
