package api

import (
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// loopbackOrigin reports whether a browser Origin header names this machine.
// Requests without an Origin come from non-browser clients and pass.
func loopbackOrigin(origin string) bool {
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	host := u.Hostname()
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// guard rejects cross-site requests. A page on another origin can send a
// form-encoded or text/plain POST without a preflight, so control requests
// must declare JSON and come from a loopback origin.
func (s *Server) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !loopbackOrigin(r.Header.Get("Origin")) {
			if s.logger != nil {
				s.logger.Warn("api origin rejected", "origin", r.Header.Get("Origin"), "path", r.URL.Path)
			}
			writeError(w, http.StatusForbidden, "origin not allowed")
			return
		}
		if r.Method == http.MethodPost {
			mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mt != "application/json" {
				writeError(w, http.StatusUnsupportedMediaType, "content type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
