package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/chuxorg/chux-travel/internal/requestid"
)

func TestBuildURLKeepsBasePath(t *testing.T) {
	cases := []struct {
		base string
		path string
		want string
	}{
		{"https://example.com", "/projects", "https://example.com/projects"},
		{"https://example.com/", "/projects/3", "https://example.com/projects/3"},
		{"https://example.com/api", "/projects", "https://example.com/api/projects"},
		{"https://example.com/api/", "/projects/3/places", "https://example.com/api/projects/3/places"},
		{"https://example.com/api", "/projects?limit=5", "https://example.com/api/projects?limit=5"},
	}
	for _, tc := range cases {
		got, err := New(tc.base).buildURL(tc.path)
		if err != nil {
			t.Fatalf("buildURL(%q, %q) error: %v", tc.base, tc.path, err)
		}
		if got != tc.want {
			t.Fatalf("buildURL(%q, %q) = %q, want %q", tc.base, tc.path, got, tc.want)
		}
	}
}

func TestDoUsesBasePathPrefix(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	if _, err := New(srv.URL+"/api/").Do(context.Background(), "/projects", nil); err != nil {
		t.Fatalf("Do error: %v", err)
	}
	if gotPath != "/api/projects" {
		t.Fatalf("expected /api/projects, got %q", gotPath)
	}
}

func TestWithTimeoutLeavesSharedClientAlone(t *testing.T) {
	shared := &http.Client{}
	cli := New("https://example.com", WithHTTPClient(shared), WithTimeout(5*time.Second))
	if shared.Timeout != 0 {
		t.Fatalf("shared client timeout changed to %v", shared.Timeout)
	}
	if cli.HTTPClient.Timeout != 5*time.Second {
		t.Fatalf("expected client timeout 5s, got %v", cli.HTTPClient.Timeout)
	}
	if cli.HTTPClient == shared {
		t.Fatal("expected a copy of the shared client")
	}
}

func TestDoInjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	var traceparent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("traceparent")
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	provider := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	cli := New(srv.URL)
	cli.tracer = provider.Tracer("test")

	if _, err := cli.Do(context.Background(), "/projects", nil); err != nil {
		t.Fatalf("Do error: %v", err)
	}
	if !regexp.MustCompile(`^00-[0-9a-f]{32}-[0-9a-f]{16}-01$`).MatchString(traceparent) {
		t.Fatalf("expected a sampled traceparent header, got %q", traceparent)
	}
}

func TestBuildURLInvalidBase(t *testing.T) {
	cli := New("http://[::1")
	_, err := cli.buildURL("/projects")
	if err == nil {
		t.Fatal("expected error for invalid base url")
	}
	if !strings.Contains(err.Error(), "invalid base_url") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDoReturnsParsedJSONUnchanged(t *testing.T) {
	body := `{"id":3,"name":"Chicago","ratio":0.25,"places":[{"external_id":27992}],"start_date":null}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	data, err := New(srv.URL).Do(context.Background(), "/projects/3", nil)
	if err != nil {
		t.Fatalf("Do error: %v", err)
	}
	got, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !jsonEqual(t, got, []byte(body)) {
		t.Fatalf("expected %s, got %s", body, got)
	}
}

func TestDoReturnsTextForNonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("pong"))
	}))
	t.Cleanup(srv.Close)

	data, err := New(srv.URL).Do(context.Background(), "/ping", nil)
	if err != nil {
		t.Fatalf("Do error: %v", err)
	}
	if data != "pong" {
		t.Fatalf("expected text payload, got %#v", data)
	}
}

func TestDoMalformedJSONYieldsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":`))
	}))
	t.Cleanup(srv.Close)

	data, err := New(srv.URL).Do(context.Background(), "/projects", nil)
	if err != nil {
		t.Fatalf("expected no error for malformed success body, got %v", err)
	}
	if data != nil {
		t.Fatalf("expected nil payload, got %#v", data)
	}
}

func TestDoErrorUsesDetailField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Project not found"}`))
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL).Do(context.Background(), "/projects/99", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "404 Not Found\nProject not found" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Detail != "Project not found" {
		t.Fatalf("unexpected error fields: %+v", apiErr)
	}
	if !IsNotFound(err) {
		t.Fatal("expected IsNotFound")
	}
}

func TestDoErrorWithoutDetailSerializesPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"dup","count":2}`))
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL).Do(context.Background(), "/projects", &RequestOptions{Method: http.MethodPost})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(err.Error(), "409 Conflict\n") {
		t.Fatalf("unexpected prefix: %q", err.Error())
	}
	if !strings.HasSuffix(err.Error(), `{"count":2,"error":"dup"}`) {
		t.Fatalf("expected serialized payload suffix, got %q", err.Error())
	}
	if !IsConflict(err) {
		t.Fatal("expected IsConflict")
	}
}

func TestDoErrorWithStructuredDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"loc":["body","name"],"msg":"field required"}]}`))
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL).Do(context.Background(), "/projects", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasSuffix(err.Error(), `[{"loc":["body","name"],"msg":"field required"}]`) {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestDoErrorWithEmptyDetailFallsBackToPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":""}`))
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL).Do(context.Background(), "/projects", nil)
	if err == nil || !strings.HasSuffix(err.Error(), `{"detail":""}`) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDoErrorTextBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal Server Error"))
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL).Do(context.Background(), "/projects", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "500 Internal Server Error\nInternal Server Error" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestDoErrorUnparseableJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL).Do(context.Background(), "/projects", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasSuffix(err.Error(), "\nnull") {
		t.Fatalf("expected null detail, got %q", err.Error())
	}
}

func TestDoTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url).Do(context.Background(), "/projects", nil)
	if err == nil {
		t.Fatal("expected transport error")
	}
	if !strings.Contains(err.Error(), "request failed") {
		t.Fatalf("unexpected error: %v", err)
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		t.Fatal("transport failure must not be an *Error")
	}
}

func TestDoSetsHeaders(t *testing.T) {
	var contentType, reqID, custom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		reqID = r.Header.Get(requestid.Header)
		custom = r.Header.Get("X-Custom")
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	ctx := requestid.WithContext(context.Background(), "req-42")
	_, err := New(srv.URL).Do(ctx, "/projects/1", &RequestOptions{
		Method: http.MethodDelete,
		Header: http.Header{"X-Custom": []string{"yes"}},
	})
	if err != nil {
		t.Fatalf("Do error: %v", err)
	}
	if contentType != "application/json" {
		t.Fatalf("expected content-type application/json, got %q", contentType)
	}
	if reqID != "req-42" {
		t.Fatalf("expected request id propagation, got %q", reqID)
	}
	if custom != "yes" {
		t.Fatalf("expected custom header, got %q", custom)
	}
}

func TestDoSendsRawAndEncodedBodies(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(raw))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	cli := New(srv.URL)
	ctx := context.Background()
	if _, err := cli.Do(ctx, "/a", &RequestOptions{Method: "post", Body: `{"raw":true}`}); err != nil {
		t.Fatalf("raw body: %v", err)
	}
	if _, err := cli.Do(ctx, "/b", &RequestOptions{Method: "POST", Body: map[string]int{"n": 1}}); err != nil {
		t.Fatalf("encoded body: %v", err)
	}
	if len(bodies) != 2 || bodies[0] != `{"raw":true}` || bodies[1] != `{"n":1}` {
		t.Fatalf("unexpected bodies: %q", bodies)
	}
}

func TestDoEncodeFailure(t *testing.T) {
	_, err := New("http://example.invalid").Do(context.Background(), "/x", &RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]any{"bad": make(chan int)},
	})
	if err == nil || !strings.Contains(err.Error(), "encode request") {
		t.Fatalf("expected encode error, got %v", err)
	}
}

func jsonEqual(t *testing.T, a, b []byte) bool {
	t.Helper()
	var va, vb any
	if err := json.Unmarshal(a, &va); err != nil {
		t.Fatalf("decode a: %v", err)
	}
	if err := json.Unmarshal(b, &vb); err != nil {
		t.Fatalf("decode b: %v", err)
	}
	ca, _ := json.Marshal(va)
	cb, _ := json.Marshal(vb)
	return string(ca) == string(cb)
}
