package middleware

import (
	"net"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	dbpkg "releasedash/internal/db"
	httpctx "releasedash/internal/http/ctx"
)

// serve runs h on an in-memory listener and returns a client dialing it.
func serve(t *testing.T, h fasthttp.RequestHandler) *fasthttp.Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = fasthttp.Serve(ln, h) }()
	t.Cleanup(func() { _ = ln.Close() })
	return &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}
}

func get(t *testing.T, c *fasthttp.Client, uri string, header map[string]string) (int, string) {
	t.Helper()
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://test" + uri)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	require.NoError(t, c.Do(req, resp))
	return resp.StatusCode(), string(resp.Body())
}

func ok(ctx *fasthttp.RequestCtx) { ctx.SetBodyString("ok") }

func withUser(u *dbpkg.User, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if u != nil {
			httpctx.SetUser(ctx, u)
		}
		next(ctx)
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name string
		user *dbpkg.User
		want int
	}{
		{"anonymous", nil, fasthttp.StatusForbidden},
		{"editor", &dbpkg.User{Username: "ed", CanEditAll: true}, fasthttp.StatusForbidden},
		{"admin", &dbpkg.User{Username: "root", IsAdmin: true}, fasthttp.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := serve(t, withUser(tt.user, RequireAdmin(ok)))
			status, _ := get(t, c, "/users", nil)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestBearerAuthRejectsMalformedHeaders(t *testing.T) {
	// The database is only consulted once a token has been extracted.
	c := serve(t, BearerAuth(nil)(ok))

	tests := []struct {
		header string
		want   string
	}{
		{"", "missing Authorization header"},
		{"Basic abc", "invalid Authorization header"},
		{"Bearerabc", "invalid Authorization header"},
		{"Bearer   ", "empty bearer token"},
		{"Bearer", "empty bearer token"},
	}
	for _, tt := range tests {
		h := map[string]string{}
		if tt.header != "" {
			h["Authorization"] = tt.header
		}
		status, body := get(t, c, "/v1/features", h)
		assert.Equal(t, fasthttp.StatusUnauthorized, status, tt.header)
		assert.Equal(t, tt.want, body)
	}
}

func TestInstrumentCountsAndLogsRequests(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	reg := prometheus.NewRegistry()

	h := Instrument(zap.New(core), reg)(func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) == "/boom" {
			ctx.SetStatusCode(fasthttp.StatusBadGateway)
			return
		}
		ctx.SetBodyString("ok")
	})
	c := serve(t, h)

	get(t, c, "/release-notes?milestone=120", nil)
	get(t, c, "/boom", nil)
	get(t, c, "/healthz", nil)

	// GET/200 and GET/502.
	n, err := testutil.GatherAndCount(reg, "releasedash_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "/release-notes", entries[0].ContextMap()["path"])
	assert.Equal(t, int64(200), entries[0].ContextMap()["status"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
}
