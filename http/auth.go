package http

import (
	"net/http"
	"slices"

	"github.com/aukilabs/entitygrid/websocket"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	xwebsocket "golang.org/x/net/websocket"
)

const (
	sessionIDTag = "session_id"

	// The error type returned when a client uses an app key that is not
	// allowed.
	ErrTypeAppKeyNotAllowed = "app_key_not_allowed"
)

// VerifyAppKey returns a websocket handshake that rejects the clients whose
// app key is not in appKeys. Every client is accepted when appKeys is empty.
func VerifyAppKey(appKeys []string) func(*xwebsocket.Config, *http.Request) error {
	return func(c *xwebsocket.Config, r *http.Request) error {
		if err := checkAppKey(appKeys, r); err != nil {
			logs.WithTag(logs.ClientIDTag, r.Header.Get(websocket.HeaderClientID)).Warn(err)
			return err
		}
		return nil
	}
}

// VerifyAppKeyHandler wraps next with the same check as VerifyAppKey.
func VerifyAppKeyHandler(appKeys []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := checkAppKey(appKeys, r); err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func checkAppKey(appKeys []string, r *http.Request) error {
	if len(appKeys) == 0 {
		return nil
	}

	appKey := r.Header.Get(websocket.HeaderAppKey)
	if appKey == "" {
		appKey = r.URL.Query().Get(websocket.QueryAppKey)
	}

	if !slices.Contains(appKeys, appKey) {
		return errors.New("app key not allowed").
			WithType(ErrTypeAppKeyNotAllowed).
			WithTag("app_key", appKey)
	}
	return nil
}
