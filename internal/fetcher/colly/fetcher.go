// Package collyfetcher implements crawler.Fetcher using gocolly.
package collyfetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/crawler-notifier/internal/crawler"
)

const (
	// DefaultUserAgent is the browser identity some monitored endpoints require.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/107.0.0.0 Safari/537.36"
	// DefaultTimeout bounds a whole attempt, connect through body read.
	DefaultTimeout = 10 * time.Second
)

var errEmptyBody = errors.New("empty response body")

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher implements crawler.Fetcher using the Colly collector. Every attempt
// is reported to the LogSink exactly once.
type Fetcher struct {
	cfg       Config
	sink      crawler.LogSink
	transport http.RoundTripper
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// attempt accumulates what the hooks observe during one Visit.
type attempt struct {
	reqHeaders string
	status     int
	resHeaders string
	body       []byte
	hookErr    error
}

// New builds a Fetcher reporting to sink.
func New(cfg Config, sink crawler.LogSink) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Fetcher{
		cfg:       cfg,
		sink:      sink,
		transport: newHTTPTransport(),
	}
}

// Fetch executes a single HTTP GET using Colly.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var att attempt
	collector := f.buildCollector(ctx)
	f.configureCollectorHooks(collector, &att)

	visitErr := collector.Visit(url)
	body, err := att.result(url, visitErr)
	if f.sink != nil {
		f.sink.Record(att.record(err))
	}
	return body, err
}

func (f *Fetcher) buildCollector(ctx context.Context) *colly.Collector {
	collector := colly.NewCollector(
		colly.Async(false),
		colly.UserAgent(f.cfg.UserAgent),
		colly.IgnoreRobotsTxt(),
		colly.ParseHTTPErrorResponse(),
	)
	collector.WithTransport(&contextTransport{base: f.transport, ctx: ctx})
	collector.SetRequestTimeout(f.cfg.Timeout)
	return collector
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, att *attempt) {
	hooks.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", f.cfg.UserAgent)
		att.reqHeaders = formatRequest(r)
	})

	hooks.OnResponse(func(r *colly.Response) {
		att.capture(r)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		att.hookErr = err
		if r != nil && r.StatusCode != 0 {
			att.capture(r)
		}
	})
}

func (a *attempt) capture(r *colly.Response) {
	a.status = r.StatusCode
	if r.Headers != nil {
		a.resHeaders = formatResponse(r.StatusCode, *r.Headers)
	}
	a.body = append([]byte(nil), r.Body...)
}

func (a *attempt) result(url string, visitErr error) ([]byte, error) {
	err := visitErr
	if err == nil {
		err = a.hookErr
	}
	switch {
	case err != nil:
		return nil, &crawler.TransportError{URL: url, StatusCode: a.status, Err: err}
	case a.status < http.StatusOK || a.status >= http.StatusMultipleChoices:
		return nil, &crawler.TransportError{
			URL:        url,
			StatusCode: a.status,
			Err:        fmt.Errorf("unexpected status %q", http.StatusText(a.status)),
		}
	case len(bytes.TrimSpace(a.body)) == 0:
		return nil, &crawler.TransportError{URL: url, StatusCode: a.status, Err: errEmptyBody}
	}
	return a.body, nil
}

func (a *attempt) record(err error) crawler.AttemptRecord {
	rec := crawler.AttemptRecord{
		ReqHeaders: a.reqHeaders,
		ResHeaders: a.resHeaders,
		ResBody:    string(a.body),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}

func formatRequest(r *colly.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s HTTP/1.1\r\nHost: %s", r.Method, r.URL.RequestURI(), r.URL.Host)
	if r.Headers != nil {
		writeHeaders(&b, *r.Headers)
	}
	return b.String()
}

func formatResponse(status int, headers http.Header) string {
	var b strings.Builder
	fmt.Fprintf(&b, "HTTP/1.1 %d %s", status, http.StatusText(status))
	writeHeaders(&b, headers)
	return b.String()
}

func writeHeaders(b *strings.Builder, headers http.Header) {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range headers[k] {
			fmt.Fprintf(b, "\r\n%s: %s", k, v)
		}
	}
}

// contextTransport binds every request of one fetch to the caller's context.
type contextTransport struct {
	base http.RoundTripper
	ctx  context.Context
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   DefaultTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   DefaultTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
