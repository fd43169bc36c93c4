// Package httputil holds request and response helpers shared by the API
// handlers and middleware.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the address of the caller. With trustProxy the leftmost
// parseable X-Forwarded-For entry wins, then X-Real-IP; otherwise only
// RemoteAddr is used. Enable trustProxy behind a trusted reverse proxy only.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := firstForwarded(r.Header.Get("X-Forwarded-For")); ip != "" {
			return ip
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(ip) != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func firstForwarded(xff string) string {
	for _, part := range strings.Split(xff, ",") {
		ip := strings.TrimSpace(part)
		if ip == "" {
			continue
		}
		if net.ParseIP(ip) == nil {
			return ""
		}
		return ip
	}
	return ""
}
