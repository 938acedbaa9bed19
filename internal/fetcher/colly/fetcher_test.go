package collyfetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/crawler-notifier/internal/crawler"
)

type memorySink struct {
	mu      sync.Mutex
	records []crawler.AttemptRecord
}

func (s *memorySink) Record(rec crawler.AttemptRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

func (s *memorySink) all() []crawler.AttemptRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]crawler.AttemptRecord(nil), s.records...)
}

func TestFetchSuccessSendsBrowserUserAgentAndLogs(t *testing.T) {
	t.Parallel()

	var gotUA, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"price":12.5}`))
	}))
	defer srv.Close()

	sink := &memorySink{}
	f := New(Config{}, sink)

	body, err := f.Fetch(context.Background(), srv.URL+"/mon/AAA")
	require.NoError(t, err)
	require.JSONEq(t, `{"price":12.5}`, string(body))
	require.Equal(t, DefaultUserAgent, gotUA)
	require.Equal(t, "/mon/AAA", gotPath)

	records := sink.all()
	require.Len(t, records, 1)
	rec := records[0]
	require.True(t, strings.HasPrefix(rec.ReqHeaders, "GET /mon/AAA HTTP/1.1\r\nHost: "))
	require.Contains(t, rec.ReqHeaders, "User-Agent: "+DefaultUserAgent)
	require.Empty(t, rec.ReqBody)
	require.True(t, strings.HasPrefix(rec.ResHeaders, "HTTP/1.1 200 OK"))
	require.Contains(t, rec.ResHeaders, "Content-Type: application/json")
	require.JSONEq(t, `{"price":12.5}`, rec.ResBody)
	require.Empty(t, rec.Error)
}

func TestFetchNonSuccessStatusIsTransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"maintenance"}`))
	}))
	defer srv.Close()

	sink := &memorySink{}
	f := New(Config{}, sink)

	body, err := f.Fetch(context.Background(), srv.URL)
	require.Nil(t, body)
	var transportErr *crawler.TransportError
	require.ErrorAs(t, err, &transportErr)
	require.Equal(t, http.StatusServiceUnavailable, transportErr.StatusCode)

	records := sink.all()
	require.Len(t, records, 1)
	require.Equal(t, err.Error(), records[0].Error)
	require.Contains(t, records[0].ResHeaders, "HTTP/1.1 503")
	require.Contains(t, records[0].ResBody, "maintenance")
}

func TestFetchEmptyBodyIsTransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := &memorySink{}
	_, err := New(Config{}, sink).Fetch(context.Background(), srv.URL)

	var transportErr *crawler.TransportError
	require.ErrorAs(t, err, &transportErr)
	require.ErrorIs(t, err, errEmptyBody)
	require.Len(t, sink.all(), 1)
}

func TestFetchTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	sink := &memorySink{}
	f := New(Config{Timeout: 50 * time.Millisecond}, sink)

	start := time.Now()
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	require.Less(t, time.Since(start), time.Second)

	var transportErr *crawler.TransportError
	require.ErrorAs(t, err, &transportErr)
	records := sink.all()
	require.Len(t, records, 1)
	require.NotEmpty(t, records[0].Error)
	require.NotEmpty(t, records[0].ReqHeaders)
}

func TestFetchCanceledContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &memorySink{}
	_, err := New(Config{}, sink).Fetch(ctx, srv.URL)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, sink.all(), 1)
}

func TestFetchInvalidURLStillLogsOnce(t *testing.T) {
	t.Parallel()

	sink := &memorySink{}
	_, err := New(Config{}, sink).Fetch(context.Background(), "://missing-scheme")
	require.Error(t, err)
	require.Len(t, sink.all(), 1)
	require.NotEmpty(t, sink.all()[0].Error)
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	f := New(Config{UserAgent: "coverage-agent"}, nil)
	var att attempt

	hooks := &stubHooks{}
	f.configureCollectorHooks(hooks, &att)
	require.NotNil(t, hooks.onRequest)
	require.NotNil(t, hooks.onResponse)
	require.NotNil(t, hooks.onError)

	collyReq := &colly.Request{
		Method:  http.MethodGet,
		URL:     mustParseURL(t, "https://example.com/mon/AAA?x=1"),
		Headers: &http.Header{"X-Trace": {"yes"}},
	}
	hooks.onRequest(collyReq)
	require.Equal(t, "coverage-agent", collyReq.Headers.Get("User-Agent"))
	require.Equal(t,
		"GET /mon/AAA?x=1 HTTP/1.1\r\nHost: example.com\r\nUser-Agent: coverage-agent\r\nX-Trace: yes",
		att.reqHeaders,
	)

	hooks.onResponse(&colly.Response{
		StatusCode: http.StatusCreated,
		Body:       []byte("body"),
		Headers:    &http.Header{"X-Resp": {"ok"}},
		Request:    collyReq,
	})
	require.Equal(t, http.StatusCreated, att.status)
	require.Equal(t, "HTTP/1.1 201 Created\r\nX-Resp: ok", att.resHeaders)
	require.Equal(t, "body", string(att.body))

	hooks.onError(&colly.Response{Request: collyReq}, errors.New("boom"))
	require.EqualError(t, att.hookErr, "boom")
	require.Equal(t, http.StatusCreated, att.status)
}

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()

	f := New(Config{}, nil)
	require.Equal(t, DefaultUserAgent, f.cfg.UserAgent)
	require.Equal(t, 10*time.Second, f.cfg.Timeout)
}

type stubHooks struct {
	onRequest  colly.RequestCallback
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnRequest(cb colly.RequestCallback) {
	s.onRequest = cb
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}
