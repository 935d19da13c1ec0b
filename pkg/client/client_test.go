package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joeydtaylor/steeze-jrtc/pkg/app"
	"github.com/joeydtaylor/steeze-jrtc/pkg/core"
	"github.com/joeydtaylor/steeze-jrtc/pkg/native"
	"github.com/joeydtaylor/steeze-jrtc/pkg/simrt"
	"github.com/joeydtaylor/steeze-jrtc/pkg/transport/httpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newServer(t *testing.T) (*Client, *simrt.Runtime) {
	t.Helper()
	log := zaptest.NewLogger(t)
	mem := native.NewHeapAllocator()
	rt := simrt.New(mem, 4, log)
	srv := httptest.NewServer(core.BuildRouter(core.BuildDeps{
		Router:    httpx.NewChi(),
		Callbacks: rt.Callbacks(),
		Mem:       mem,
		Log:       log,
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL, WithHTTPClient(srv.Client()), WithLogger(log)), rt
}

func TestLoadGetListUnload(t *testing.T) {
	c, rt := newServer(t)
	ctx := context.Background()

	apps, err := c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, apps)

	st, err := c.Load(ctx, &app.LoadRequest{
		App:       []byte("payload"),
		AppName:   "sensor",
		PeriodUs:  1000,
		AppParams: map[string]string{"k": "v"},
	})
	require.NoError(t, err)
	assert.Equal(t, "sensor", st.Request.AppName)
	assert.NotEmpty(t, st.StartTime)
	assert.Len(t, rt.Apps(), 1)

	got, err := c.Get(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, st, got)

	apps, err = c.List(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)

	require.NoError(t, c.Unload(ctx, st.ID))
	assert.Empty(t, rt.Apps())

	_, err = c.Get(ctx, st.ID)
	assert.True(t, IsNotFound(err))
}

func TestLoadRejectedCarriesDetails(t *testing.T) {
	c, _ := newServer(t)

	_, err := c.Load(context.Background(), &app.LoadRequest{AppName: "no-payload"})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, "Bad request", se.Details)
}

func TestUnloadByName(t *testing.T) {
	c, rt := newServer(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b"} {
		_, err := c.Load(ctx, &app.LoadRequest{App: []byte{1}, AppName: name})
		require.NoError(t, err)
	}

	st, found, err := c.UnloadByName(ctx, "b")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "b", st.Request.AppName)
	require.Len(t, rt.Apps(), 1)
	assert.Equal(t, "a", rt.Apps()[0].Name)

	_, found, err = c.UnloadByName(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestOptionsBaseURL(t *testing.T) {
	o := Options{Host: "127.0.0.1", Port: 3001}
	u, err := o.BaseURL()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:3001", u)

	_, err = (&Options{}).BaseURL()
	assert.Error(t, err)
}
