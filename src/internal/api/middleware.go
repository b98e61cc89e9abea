package api

import (
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/maksimkurb/keen-route/src/internal/log"
)

// JSONContentType rejects request bodies that are not JSON.
func JSONContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only requests that carry a body are checked
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			if r.ContentLength > 0 {
				ct := r.Header.Get("Content-Type")
				if ct != "" && !strings.HasPrefix(ct, "application/json") {
					WriteInvalidRequest(w, "Content-Type must be application/json")
					return
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Logger middleware logs all HTTP requests.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		// Capture the status code written by the handler
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		log.Debugf("[API] %s %s - %d (%v)", r.Method, r.URL.Path, wrapped.statusCode, time.Since(start))
	})
}

// Recovery middleware recovers from panics and returns a 500 error.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Errorf("Panic recovered: %v", err)
				WriteInternalError(w, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// CORS middleware allows cross-origin calls only from pages served by
// loopback or private hosts. Other origins get no CORS headers, and their
// preflight requests are refused.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowed := origin != "" && isPrivateOrigin(origin)
		if allowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Add("Vary", "Origin")
		}

		// Handle preflight requests
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			if !allowed {
				WriteForbidden(w, "Origin not allowed")
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// isPrivateOrigin reports whether the Origin header names localhost or a
// private address.
func isPrivateOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	addr, err := netip.ParseAddr(host)
	return err == nil && isPrivateAddr(addr)
}

var privatePrefixes = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("127.0.0.0/8"), // localhost
	netip.MustParsePrefix("fc00::/7"),    // unique local
	netip.MustParsePrefix("fe80::/10"),   // link-local
	netip.MustParsePrefix("::1/128"),
}

// isPrivateAddr reports whether addr belongs to a loopback or private network.
func isPrivateAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, prefix := range privatePrefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// PrivateSubnetOnly restricts access to requests from private subnets.
// The server may then bind to 0.0.0.0 without exposing the API.
//
// Admission is decided by the TCP peer. Forwarding headers are consulted only
// when the peer itself is private (a reverse proxy on the LAN), and then the
// forwarded client must be private too.
func PrivateSubnetOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		peer, ok := remoteAddr(r)
		if !ok {
			log.Warnf("Invalid remote address: %s", r.RemoteAddr)
			WriteForbidden(w, "Access denied")
			return
		}
		if !isPrivateAddr(peer) {
			log.Warnf("Access denied from non-private IP: %s", peer)
			WriteForbidden(w, "Access denied: only private networks are allowed")
			return
		}

		// Behind a proxy the forwarded client decides
		if forwarded := forwardedClientIP(r); forwarded != "" {
			addr, err := netip.ParseAddr(forwarded)
			if err != nil || !isPrivateAddr(addr) {
				log.Warnf("Access denied for forwarded client %q via %s", forwarded, peer)
				WriteForbidden(w, "Access denied: only private networks are allowed")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// remoteAddr parses the IP part of the request's RemoteAddr.
func remoteAddr(r *http.Request) (netip.Addr, bool) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr, true
}

// forwardedClientIP returns the first X-Forwarded-For hop or X-Real-IP, or
// an empty string when neither header is set.
func forwardedClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// X-Forwarded-For can list several hops, the client comes first
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	return strings.TrimSpace(r.Header.Get("X-Real-IP"))
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
