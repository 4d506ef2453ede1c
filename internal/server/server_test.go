package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	handler "github.com/hanpama/graphmock/internal/handler"
	pack "github.com/hanpama/graphmock/internal/pack"
	reqid "github.com/hanpama/graphmock/internal/reqid"
	resolver "github.com/hanpama/graphmock/internal/resolver"
	schema "github.com/hanpama/graphmock/internal/schema"
)

func newTestHandler(t *testing.T, hello resolver.Resolver, opts ...Option) *Handler {
	t.Helper()
	sch, err := schema.BuildFromSDL(`type Query { hello: String! }`)
	require.NoError(t, err)
	if hello == nil {
		hello = resolver.Value("Hello World!")
	}
	gql, err := handler.New(handler.Config{
		Schema:      sch,
		ResolverMap: resolver.Map{"Query": {"hello": hello}},
	})
	require.NoError(t, err)
	return New(gql, opts...)
}

func post(body string) *http.Request {
	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestPostHello(t *testing.T) {
	h := newTestHandler(t, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, post(`{"query":"{ hello }"}`))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	require.JSONEq(t, `{"data":{"hello":"Hello World!"}}`, w.Body.String())
	require.Equal(t, `{"data":{"hello":"Hello World!"}}`, strings.TrimSpace(w.Body.String()))
}

func TestGetWithVariables(t *testing.T) {
	h := newTestHandler(t, nil)
	q := url.Values{"query": {"query Q { hello }"}, "operationName": {"Q"}, "variables": {"{}"}}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/?"+q.Encode(), nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"data":{"hello":"Hello World!"}}`, w.Body.String())
}

func TestBatch(t *testing.T) {
	h := newTestHandler(t, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, post(`[{"query":"{ hello }"},{"query":"{ nope }"}]`))

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `[
		{"data":{"hello":"Hello World!"}},
		{"data":null,"errors":[{"message":"Cannot query field \"nope\" on type \"Query\".","locations":[{"line":1,"column":3}]}]}
	]`, w.Body.String())
}

func TestBadRequests(t *testing.T) {
	h := newTestHandler(t, nil)
	for _, tc := range []struct {
		name   string
		req    *http.Request
		status int
		msg    string
	}{
		{"invalid json", post(`{`), http.StatusBadRequest, "invalid JSON"},
		{"missing query", post(`{}`), http.StatusBadRequest, "missing 'query'"},
		{"empty batch", post(`[]`), http.StatusBadRequest, "empty batch"},
		{"method", httptest.NewRequest("PUT", "/", nil), http.StatusMethodNotAllowed, "method not allowed"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, tc.req)
			require.Equal(t, tc.status, w.Code)
			require.JSONEq(t, `{"data":null,"errors":[{"message":"`+tc.msg+`"}]}`, w.Body.String())
		})
	}
}

func TestContextHeaders(t *testing.T) {
	var captured any
	hello := func(ctx context.Context, _ any, _ map[string]any, _ resolver.Info) (any, error) {
		captured, _ = pack.Value(ctx, HeadersKey)
		return "world", nil
	}
	h := newTestHandler(t, hello, WithContextHeaders("X-Test"))

	req := post(`{"query":"{ hello }"}`)
	req.Header.Set("X-Test", "abc")
	req.Header.Set("X-Other", "nope")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, map[string]string{"x-test": "abc"}, captured)
}

func TestContextHeadersDefaultEmpty(t *testing.T) {
	var found bool
	hello := func(ctx context.Context, _ any, _ map[string]any, _ resolver.Info) (any, error) {
		_, found = pack.Value(ctx, HeadersKey)
		return "world", nil
	}
	h := newTestHandler(t, hello)

	req := post(`{"query":"{ hello }"}`)
	req.Header.Set("X-Test", "abc")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.False(t, found, "headers should not be forwarded by default")
}

func TestCORSAndPreflight(t *testing.T) {
	h := newTestHandler(t, nil, WithCORS("*"))

	// simple request
	req := post(`{"query":"{ hello }"}`)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	// preflight
	pre := httptest.NewRequest("OPTIONS", "/", nil)
	pre.Header.Set("Origin", "http://example.com")
	pre.Header.Set("Access-Control-Request-Headers", "X-Test")
	pw := httptest.NewRecorder()
	h.ServeHTTP(pw, pre)
	require.Equal(t, http.StatusNoContent, pw.Code)
	require.Equal(t, "*", pw.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "X-Test", pw.Header().Get("Access-Control-Allow-Headers"))
}

func TestMaxBodyBytes(t *testing.T) {
	h := newTestHandler(t, nil, WithMaxBodyBytes(10))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, post(`{"query":"1234567890"}`))
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRequestID(t *testing.T) {
	var fromCtx, fromQuery string
	hello := func(ctx context.Context, _ any, _ map[string]any, _ resolver.Info) (any, error) {
		fromCtx, _ = reqid.FromContext(ctx)
		v, _ := pack.Value(ctx, RequestIDKey)
		fromQuery, _ = v.(string)
		return "world", nil
	}
	h := newTestHandler(t, hello)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, post(`{"query":"{ hello }"}`))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, fromCtx)
	require.Equal(t, fromCtx, fromQuery)
	require.Equal(t, fromCtx, w.Header().Get(reqid.Header))

	req := post(`{"query":"{ hello }"}`)
	req.Header.Set(reqid.Header, "caller-id")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, "caller-id", fromCtx)
	require.Equal(t, "caller-id", w.Header().Get(reqid.Header))
}

func TestGraphiQL(t *testing.T) {
	h := newTestHandler(t, nil)
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept", "text/html")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "graphiql")

	h = newTestHandler(t, nil, WithGraphiQL(false))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
