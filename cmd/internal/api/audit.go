package api

import (
	"net"
	"net/http"
	"strings"
)

// audit records a security-relevant event. Passwords and tokens never reach here.
func (h *Handler) audit(r *http.Request, event, username string, attrs ...any) {
	h.metrics.authEvent(event)

	ip := ""
	if v := clientIP(r, h.cfg.TrustProxy); v != nil {
		ip = v.String()
	}
	base := []any{
		"username", username,
		"ip", ip,
		"ua", strings.TrimSpace(r.UserAgent()),
	}
	h.log.Info(event, append(base, attrs...)...)
}

func clientIP(r *http.Request, trustProxy bool) net.IP {
	if trustProxy {
		if ip := parseForwardedIP(r.Header.Get("X-Forwarded-For")); ip != nil {
			return ip
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip
		}
	}
	return nil
}

// parseForwardedIP returns the left-most valid address of an X-Forwarded-For list.
func parseForwardedIP(raw string) net.IP {
	for _, p := range strings.Split(raw, ",") {
		if ip := net.ParseIP(strings.TrimSpace(p)); ip != nil {
			return ip
		}
	}
	return nil
}
