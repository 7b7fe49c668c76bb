package rpcutil

import (
	"context"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/rs/zerolog/log"
)

// HandlerOptions returns the options every unary handler is built with.
func HandlerOptions(extra ...connect.HandlerOption) []connect.HandlerOption {
	opts := []connect.HandlerOption{
		connect.WithCodec(JSONCodec{}),
		connect.WithInterceptors(NewLoggingInterceptor()),
	}
	return append(opts, extra...)
}

// ClientOptions returns the options matching HandlerOptions for clients.
func ClientOptions(extra ...connect.ClientOption) []connect.ClientOption {
	opts := []connect.ClientOption{
		connect.WithCodec(JSONCodec{}),
	}
	return append(opts, extra...)
}

// NewLoggingInterceptor logs every unary call with its outcome.
func NewLoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			res, err := next(ctx, req)

			event := log.Debug()
			code := "ok"
			if err != nil {
				code = connect.CodeOf(err).String()
				event = log.Warn().Err(err)
				if connect.CodeOf(err) == connect.CodeInternal {
					event = log.Error().Err(err)
				}
			}
			event.
				Str("procedure", req.Spec().Procedure).
				Str("code", code).
				Dur("duration", time.Since(start)).
				Msg("RPC handled")
			return res, err
		}
	}
}

// ServiceMux collects the procedures of one service under its path prefix,
// the way generated Connect handlers do.
type ServiceMux struct {
	name string
	mux  *http.ServeMux
}

// NewServiceMux creates a mux for service name, e.g. "proctor.v1.StudentService".
func NewServiceMux(name string) *ServiceMux {
	return &ServiceMux{name: name, mux: http.NewServeMux()}
}

// Procedure returns the full procedure path for method.
func (m *ServiceMux) Procedure(method string) string {
	return "/" + m.name + "/" + method
}

// Handle registers a unary handler for method.
func (m *ServiceMux) Handle(method string, h http.Handler) {
	m.mux.Handle(m.Procedure(method), h)
}

// Path returns the prefix and handler to mount on the server mux.
func (m *ServiceMux) Path() (string, http.Handler) {
	return "/" + m.name + "/", m.mux
}

// ClientIP picks the caller's address from forwarding headers or the peer.
func ClientIP(header http.Header, peerAddr string) string {
	if fwd := header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if real := header.Get("X-Real-Ip"); real != "" {
		return real
	}
	if i := strings.LastIndex(peerAddr, ":"); i > 0 {
		return strings.Trim(peerAddr[:i], "[]")
	}
	return peerAddr
}

// DeviceFromUserAgent reduces a User-Agent to a browser/platform label.
func DeviceFromUserAgent(ua string) string {
	browser := "Browser"
	switch {
	case strings.Contains(ua, "Edg/"):
		browser = "Edge"
	case strings.Contains(ua, "Firefox/"):
		browser = "Firefox"
	case strings.Contains(ua, "Chrome/"):
		browser = "Chrome"
	case strings.Contains(ua, "Safari/"):
		browser = "Safari"
	}

	platform := "Unknown"
	switch {
	case strings.Contains(ua, "iPhone"):
		platform = "iPhone"
	case strings.Contains(ua, "Android"):
		platform = "Android"
	case strings.Contains(ua, "Windows"):
		platform = "Windows"
	case strings.Contains(ua, "Mac OS X"), strings.Contains(ua, "Macintosh"):
		platform = "Mac"
	case strings.Contains(ua, "Linux"):
		platform = "Linux"
	}
	return browser + "/" + platform
}
