package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/PritStyling132/Rentpal-sub001/internal/security"
)

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if len(allowed) == 0 {
		return func(r *http.Request) bool {
			return false
		}
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			// Non-browser clients (the mobile app, curl) send no Origin.
			return true
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

// extractToken pulls the bearer credential from the query string or the
// Authorization header. Empty result means no credential was supplied.
func extractToken(r *http.Request) string {
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		return token
	}
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[len("Bearer "):])
	}
	return ""
}

func closeSocket(sock *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = sock.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
	_ = sock.Close()
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

// MakeHandler returns the HTTP handler for the /ws endpoint. The credential
// is checked after the upgrade so the client receives a distinct close code:
// 1008 "Authentication required" when no token was supplied, 1008 "Invalid
// token" when it fails verification. Admitted connections then run the frame
// loop until the peer goes away.
func MakeHandler(relay *Relay, tokens *security.TokenService, allowedOrigins []string) http.HandlerFunc {
	checkOrigin := makeCheckOrigin(allowedOrigins)
	upgrader := websocket.Upgrader{
		CheckOrigin: checkOrigin,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		sock, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		tokenStr := extractToken(r)
		if tokenStr == "" {
			closeSocket(sock, websocket.ClosePolicyViolation, "Authentication required")
			return
		}
		identity, err := tokens.Parse(tokenStr)
		if err != nil {
			closeSocket(sock, websocket.ClosePolicyViolation, "Invalid token")
			return
		}

		// The connection outlives the request deadline set by the router's
		// timeout middleware, so frame handling runs on a detached context.
		ctx := context.Background()
		conn := NewConn(identity.UserID, sock)
		relay.HandleConnect(ctx, conn)
		defer func() {
			conn.MarkClosed()
			_ = sock.Close()
			relay.HandleDisconnect(ctx, conn)
		}()

		for {
			var f Frame
			if err := sock.ReadJSON(&f); err != nil {
				if isDecodeError(err) {
					sendError(conn, "malformed frame")
					continue
				}
				return
			}
			relay.HandleFrame(ctx, conn, f)
		}
	}
}
