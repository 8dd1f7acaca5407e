// Package oauth runs the loopback half of the browser-based login: a
// short-lived localhost listener that catches the provider's redirect,
// absorbs the token it carries, and tells the browser tab it can close.
//
// The token never appears in anything written back to the browser, and the
// listener shuts down after the first redirect it handles.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/luminary-app/luminary/internal/authflow"
	"github.com/luminary-app/luminary/internal/log"
)

// DefaultTimeout bounds how long the listener waits for the browser round
// trip before giving up.
const DefaultTimeout = 5 * time.Minute

const callbackPath = "/callback"

// successPage is what the browser tab shows after the redirect lands. It
// deliberately contains nothing from the request.
const successPage = `<!DOCTYPE html>
<html>
<head><title>Luminary</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 20vh;">
<h2>Signed in</h2>
<p>You can close this tab and return to the terminal.</p>
</body>
</html>
`

const failurePage = `<!DOCTYPE html>
<html>
<head><title>Luminary</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 20vh;">
<h2>Sign-in incomplete</h2>
<p>No session was established. Return to the terminal and try again.</p>
</body>
</html>
`

// Listener is a one-shot localhost callback receiver.
type Listener struct {
	flow     *authflow.Controller
	logger   *log.Logger
	timeout  time.Duration
	listener net.Listener
}

// Option configures a Listener.
type Option func(*Listener)

// WithTimeout overrides how long the listener waits for the redirect.
func WithTimeout(d time.Duration) Option {
	return func(l *Listener) {
		l.timeout = d
	}
}

// New creates a Listener bound to an ephemeral loopback port.
func New(flow *authflow.Controller, logger *log.Logger, opts ...Option) (*Listener, error) {
	nl, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("binding loopback listener: %w", err)
	}

	l := &Listener{
		flow:     flow,
		logger:   logger,
		timeout:  DefaultTimeout,
		listener: nl,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// RedirectURL is the address the provider must send the browser back to.
func (l *Listener) RedirectURL() string {
	return "http://" + l.listener.Addr().String() + callbackPath
}

// Wait serves until one redirect carrying a token arrives, absorbs it, and
// returns. It returns an error when the wait times out, the context is
// cancelled, or the redirect carried no token.
func (l *Listener) Wait(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	type outcome struct {
		absorbed bool
		err      error
	}
	done := make(chan outcome, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		_, absorbed, err := l.flow.AbsorbRedirectToken(r.Context(), r.URL.String())

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err != nil || !absorbed {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprint(w, failurePage)
		} else {
			_, _ = fmt.Fprint(w, successPage)
		}

		select {
		case done <- outcome{absorbed: absorbed, err: err}:
		default:
		}
	})

	server := &http.Server{Handler: mux}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(l.listener)
	}()

	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	select {
	case result := <-done:
		if result.err != nil {
			return result.err
		}
		if !result.absorbed {
			return errors.New("redirect arrived without a token")
		}
		l.logger.Debug("oauth redirect handled", "addr", l.listener.Addr().String())
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return errors.New("listener closed before a redirect arrived")
		}
		return err
	case <-ctx.Done():
		return fmt.Errorf("waiting for browser sign-in: %w", ctx.Err())
	}
}

// Close releases the port without waiting.
func (l *Listener) Close() error {
	return l.listener.Close()
}
