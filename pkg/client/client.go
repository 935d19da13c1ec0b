// Package client is a typed Go client for the app API served by the bridge.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/joeydtaylor/steeze-jrtc/pkg/app"
	"github.com/joeydtaylor/steeze-jrtc/pkg/codec"
	"go.uber.org/zap"
)

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// StatusError is a non-success reply; Details is the server's message.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Details string
}

func (e *StatusError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Details)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

type Client struct {
	base  string
	inner HTTPDoer
	log   *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(d HTTPDoer) Option { return func(c *Client) { c.inner = d } }
func WithLogger(l *zap.Logger) Option  { return func(c *Client) { c.log = l } }

// New returns a client for base, e.g. "http://localhost:3001".
func New(base string, opts ...Option) *Client {
	c := &Client{
		base:  strings.TrimRight(base, "/"),
		inner: &http.Client{Timeout: 30 * time.Second},
		log:   zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// List is GET /app.
func (c *Client) List(ctx context.Context) ([]app.State, error) {
	var out []app.State
	if err := c.do(ctx, http.MethodGet, "/app", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get is GET /app/{id}.
func (c *Client) Get(ctx context.Context, id int32) (app.State, error) {
	var out app.State
	err := c.do(ctx, http.MethodGet, appPath(id), nil, http.StatusOK, &out)
	return out, err
}

// Load is POST /app; it returns the registry record the server created.
func (c *Client) Load(ctx context.Context, req *app.LoadRequest) (app.State, error) {
	body, err := codec.JSON.Marshal(req)
	if err != nil {
		return app.State{}, err
	}
	var out app.State
	err = c.do(ctx, http.MethodPost, "/app", body, http.StatusOK, &out)
	return out, err
}

// Unload is DELETE /app/{id}.
func (c *Client) Unload(ctx context.Context, id int32) error {
	return c.do(ctx, http.MethodDelete, appPath(id), nil, http.StatusNoContent, nil)
}

// UnloadByName unloads the first app whose request carried name. found is
// false when no such app is registered.
func (c *Client) UnloadByName(ctx context.Context, name string) (st app.State, found bool, err error) {
	apps, err := c.List(ctx)
	if err != nil {
		return app.State{}, false, err
	}
	for _, a := range apps {
		if a.Request.AppName != name {
			continue
		}
		l := c.log.With(zap.Int32("id", a.ID), zap.String("app", name))
		if started, perr := time.Parse(time.RFC3339Nano, a.StartTime); perr == nil {
			l = l.With(zap.Time("start_time", started), zap.Duration("elapsed", time.Since(started)))
		}
		l.Info("unloading app")
		if err := c.Unload(ctx, a.ID); err != nil {
			return a, true, err
		}
		l.Info("unloaded app")
		return a, true, nil
	}
	c.log.Warn("app not found", zap.String("app", name))
	return app.State{}, false, nil
}

func appPath(id int32) string { return "/app/" + strconv.FormatInt(int64(id), 10) }

func (c *Client) do(ctx context.Context, method, path string, body []byte, want int, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", codec.JSON.ContentType())
	}

	l := c.log.With(zap.String("method", method), zap.String("url", req.URL.String()))
	l.Debug("sending http request")
	start := time.Now()
	res, err := c.inner.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	l.Debug("http request completed", zap.Int("status", res.StatusCode), zap.Duration("took", time.Since(start)))

	if res.StatusCode != want {
		se := &StatusError{Method: method, Path: path, Code: res.StatusCode}
		var eb app.ErrorBody
		if b, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10)); len(b) > 0 {
			if codec.JSON.Unmarshal(b, &eb) == nil {
				se.Details = eb.Details
			} else {
				se.Details = strings.TrimSpace(string(b))
			}
		}
		return se
	}
	if out == nil {
		return nil
	}
	if err := codec.JSONStrict.Decode(res.Body, out); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return nil
}
