package page

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chuxorg/chux-travel/internal/client"
	"github.com/chuxorg/chux-travel/internal/dom"
)

type call struct {
	Method string
	Path   string
	Body   string
}

type reply struct {
	status int
	body   string
}

// backend is a scripted projects API. Unscripted routes answer 404 with a
// detail payload.
type backend struct {
	t      *testing.T
	mu     sync.Mutex
	routes map[string]reply
	calls  []call
}

func newBackend(t *testing.T) (*backend, *client.Client) {
	t.Helper()
	b := &backend{t: t, routes: map[string]reply{}}
	srv := httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(srv.Close)
	return b, client.New(srv.URL)
}

func (b *backend) on(method, path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[method+" "+path] = reply{status: status, body: body}
}

func (b *backend) serve(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.calls = append(b.calls, call{Method: r.Method, Path: r.URL.Path, Body: string(raw)})
	rep, ok := b.routes[r.Method+" "+r.URL.Path]
	b.mu.Unlock()

	if !ok {
		rep = reply{status: http.StatusNotFound, body: `{"detail":"Not Found"}`}
	}
	if rep.status == http.StatusNoContent {
		w.WriteHeader(rep.status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rep.status)
	_, _ = w.Write([]byte(rep.body))
}

func (b *backend) recorded() []call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]call(nil), b.calls...)
}

func (b *backend) reset() {
	b.mu.Lock()
	b.calls = nil
	b.mu.Unlock()
}

func (b *backend) count(method, path string) int {
	n := 0
	for _, c := range b.recorded() {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

func routes(calls []call) []string {
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.Method+" "+c.Path)
	}
	return out
}

func textOf(t *testing.T, doc *dom.Document, id string) string {
	t.Helper()
	n := doc.ByID(id)
	require.NotNil(t, n, "missing #%s", id)
	return doc.Text(n)
}

func classOf(t *testing.T, doc *dom.Document, id string) string {
	t.Helper()
	n := doc.ByID(id)
	require.NotNil(t, n, "missing #%s", id)
	return doc.Attr(n, "class")
}

func renderDoc(t *testing.T, doc *dom.Document) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, doc.Render(&buf))
	return buf.String()
}

var bg = context.Background()
