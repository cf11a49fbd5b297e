package httpapi

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/mux"
)

// StatusDrop makes a failing route close the connection without answering.
const StatusDrop = -1

// Request is one request observed by the reference API.
type Request struct {
	Route  string
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// RawQuery returns the encoded query string.
func (r Request) RawQuery() string {
	return r.Query.Encode()
}

// recorder logs requests and applies injected faults before dispatch.
type recorder struct {
	mu       sync.Mutex
	requests []Request
	failures map[string]int
	holds    map[string]chan struct{}
	// keep bounds the request log; zero keeps everything.
	keep int
}

func newRecorder() *recorder {
	return &recorder{
		failures: make(map[string]int),
		holds:    make(map[string]chan struct{}),
	}
}

func (rec *recorder) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}

		body, _ := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		r.Body = io.NopCloser(bytes.NewReader(body))

		rec.mu.Lock()
		if rec.keep > 0 && len(rec.requests) >= rec.keep {
			rec.requests = append(rec.requests[:0], rec.requests[1:]...)
		}
		rec.requests = append(rec.requests, Request{
			Route:  name,
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		status, failing := rec.failures[name]
		hold := rec.holds[name]
		rec.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}

		if failing {
			if status == StatusDrop {
				dropConnection(w)
				return
			}
			writeDetail(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func dropConnection(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		panic(http.ErrAbortHandler)
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		panic(http.ErrAbortHandler)
	}
	conn.Close()
}

func (rec *recorder) fail(route string, status int) {
	rec.mu.Lock()
	rec.failures[route] = status
	rec.mu.Unlock()
}

func (rec *recorder) heal(route string) {
	rec.mu.Lock()
	delete(rec.failures, route)
	rec.mu.Unlock()
}

func (rec *recorder) hold(route string) func() {
	gate := make(chan struct{})
	rec.mu.Lock()
	rec.holds[route] = gate
	rec.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			rec.mu.Lock()
			if rec.holds[route] == gate {
				delete(rec.holds, route)
			}
			rec.mu.Unlock()
			close(gate)
		})
	}
}

func (rec *recorder) snapshot() []Request {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]Request(nil), rec.requests...)
}

func (rec *recorder) reset() {
	rec.mu.Lock()
	rec.requests = nil
	rec.mu.Unlock()
}
