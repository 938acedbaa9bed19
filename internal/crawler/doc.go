// Package crawler implements the job sweep: fetch each target, evaluate the
// JSON response, and notify through the guarded path that honours the shared
// quiet-hours suppression window. Backends (clock, store, fetcher, notifier,
// attempt log) are injected through the interfaces in this package.
package crawler
