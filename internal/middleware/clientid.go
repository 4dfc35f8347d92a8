package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/zhouzirui/memorable/backend/pkg/utils"
)

// ErrOriginUnavailable is returned when a request carries no usable peer address.
var ErrOriginUnavailable = errors.New("missing request socket IP address")

type clientIDKey struct{}

// DeriveClientID extracts the caller's IP address from the request. When
// RealIP has run, RemoteAddr holds a bare IP without a port.
func DeriveClientID(r *http.Request) (string, error) {
	remote := strings.TrimSpace(r.RemoteAddr)
	if remote == "" {
		return "", ErrOriginUnavailable
	}

	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		host = strings.Trim(remote, "[]")
	}

	// netip keeps IPv6 zones ("fe80::1%eth0"); the zone is link-local
	// routing detail, not part of the caller's identity.
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return "", ErrOriginUnavailable
	}
	return addr.WithZone("").Unmap().String(), nil
}

// ClientID resolves the caller identity once per request and stores it on
// the context. Requests without one are rejected with 400.
func ClientID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID, err := DeriveClientID(r)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClientID(r.Context(), clientID)))
	})
}

// WithClientID returns a copy of ctx carrying clientID.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey{}, clientID)
}

// ClientIDFromContext returns the identity stored by ClientID.
func ClientIDFromContext(ctx context.Context) (string, bool) {
	clientID, ok := ctx.Value(clientIDKey{}).(string)
	return clientID, ok && clientID != ""
}
