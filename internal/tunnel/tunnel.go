// Package tunnel exposes the local server on a public URL.
//
// A failing tunnel is never fatal: callers log the error and keep serving on
// the local listener.
package tunnel

import (
	"context"
	"errors"
	"fmt"
	"net"

	"golang.ngrok.com/ngrok"
	"golang.ngrok.com/ngrok/config"
)

// ErrMissingAuthtoken is returned when a tunnel is requested without a token.
var ErrMissingAuthtoken = errors.New("tunnel authtoken is empty")

// Opener establishes a public listener. The returned URL is where the
// listener is reachable from the internet.
type Opener interface {
	Open(ctx context.Context) (ln net.Listener, publicURL string, err error)
}

// Ngrok opens an HTTP endpoint through the ngrok agent SDK.
type Ngrok struct {
	authtoken string
}

// NewNgrok returns an [Opener] that authenticates with authtoken.
func NewNgrok(authtoken string) *Ngrok {
	return &Ngrok{authtoken: authtoken}
}

// Open connects to ngrok and returns the tunnel as a [net.Listener].
// The tunnel closes when the listener is closed.
func (n *Ngrok) Open(ctx context.Context) (net.Listener, string, error) {
	if n.authtoken == "" {
		return nil, "", ErrMissingAuthtoken
	}

	tun, err := ngrok.Listen(ctx, config.HTTPEndpoint(), ngrok.WithAuthtoken(n.authtoken))
	if err != nil {
		return nil, "", fmt.Errorf("failed to open ngrok tunnel: %w", err)
	}
	return tun, tun.URL(), nil
}
