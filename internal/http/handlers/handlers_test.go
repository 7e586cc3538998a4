package handlers

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/fasthttp/router"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"releasedash/internal/channels"
	"releasedash/internal/config"
	dbpkg "releasedash/internal/db"
	httpctx "releasedash/internal/http/ctx"
	"releasedash/internal/releasenotes"
)

var testCfg = &config.Config{AdminUser: "admin"}

func ms(v int) *int { return &v }

// serve runs r on an in-memory listener and returns a client dialing it.
func serve(t *testing.T, r *router.Router) *fasthttp.Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = fasthttp.Serve(ln, r.Handler) }()
	t.Cleanup(func() { _ = ln.Close() })
	return &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}
}

type response struct {
	status   int
	body     string
	location string
	ctype    string
}

func do(t *testing.T, c *fasthttp.Client, method, uri, contentType, body string) response {
	t.Helper()
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI("http://test" + uri)
	if contentType != "" {
		req.Header.SetContentType(contentType)
	}
	req.SetBodyString(body)
	require.NoError(t, c.Do(req, resp))
	return response{
		status:   resp.StatusCode(),
		body:     string(resp.Body()),
		location: string(resp.Header.Peek("Location")),
		ctype:    string(resp.Header.ContentType()),
	}
}

func get(t *testing.T, c *fasthttp.Client, uri string) response {
	return do(t, c, fasthttp.MethodGet, uri, "", "")
}

func postForm(t *testing.T, c *fasthttp.Client, uri, form string) response {
	return do(t, c, fasthttp.MethodPost, uri, "application/x-www-form-urlencoded", form)
}

// as runs next with u as the signed-in user.
func as(u *dbpkg.User, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if u != nil {
			httpctx.SetUser(ctx, u)
		}
		next(ctx)
	}
}

type fakeNotes struct {
	features []releasenotes.Feature
	stable   int
	err      error

	mu        sync.Mutex
	requested []*int
}

func (f *fakeNotes) Resolve(_ context.Context, requested *int) (releasenotes.Notes, error) {
	f.mu.Lock()
	f.requested = append(f.requested, requested)
	f.mu.Unlock()
	if f.err != nil {
		return releasenotes.Notes{}, f.err
	}
	m, ok := releasenotes.Milestone(requested)
	if !ok {
		m = f.stable
	}
	return releasenotes.Build(f.features, m), nil
}

type fakeStore struct {
	mu       sync.Mutex
	features map[int64]*dbpkg.Feature
	nextID   int64
	err      error
}

func newFakeStore(features ...dbpkg.Feature) *fakeStore {
	s := &fakeStore{features: map[int64]*dbpkg.Feature{}, nextID: 1000}
	for i := range features {
		f := features[i]
		s.features[f.ID] = &f
	}
	return s
}

func (s *fakeStore) Get(_ context.Context, id int64) (*dbpkg.Feature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	f, ok := s.features[id]
	if !ok {
		return nil, dbpkg.ErrFeatureNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *fakeStore) Create(_ context.Context, f *dbpkg.Feature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.nextID++
	f.ID = s.nextID
	cp := *f
	s.features[f.ID] = &cp
	return nil
}

func (s *fakeStore) Upsert(_ context.Context, features []dbpkg.Feature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for i := range features {
		if features[i].ID == 0 {
			s.nextID++
			features[i].ID = s.nextID
		}
		cp := features[i]
		s.features[cp.ID] = &cp
	}
	return nil
}

func (s *fakeStore) UpdateSummary(_ context.Context, id int64, summary, by string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	f, ok := s.features[id]
	if !ok {
		return dbpkg.ErrFeatureNotFound
	}
	f.Summary = summary
	f.UpdatedBy = by
	f.UpdatedAt = time.Now()
	return nil
}

func (s *fakeStore) feature(id int64) dbpkg.Feature {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.features[id]
}

type fakeChannels struct {
	ch  channels.Channels
	err error
}

func (f fakeChannels) Channels(context.Context) (channels.Channels, error) { return f.ch, f.err }

var errUpstream = errors.New("upstream down")
