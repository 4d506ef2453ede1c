package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	eventbus "github.com/hanpama/graphmock/internal/eventbus"
	events "github.com/hanpama/graphmock/internal/events"
	executor "github.com/hanpama/graphmock/internal/executor"
	handler "github.com/hanpama/graphmock/internal/handler"
	reqid "github.com/hanpama/graphmock/internal/reqid"
)

// Query context keys set by the server.
const (
	HeadersKey   = "headers"
	RequestIDKey = "requestId"
)

// Handler is an http.Handler that serves a GraphQL endpoint.
// It parses requests, runs the query handler, and formats GraphQL responses.
type Handler struct {
	gql *handler.Handler
	opt Options
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// ContextHeaders lists HTTP headers copied into the query context under
	// HeadersKey, keyed by lower-case name. Default is none.
	ContextHeaders []string

	// GraphiQL enables the in-browser IDE when true.
	GraphiQL bool
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithContextHeaders(headers ...string) Option {
	return func(o *Options) { o.ContextHeaders = headers }
}

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

func WithGraphiQL(enable bool) Option { return func(o *Options) { o.GraphiQL = enable } }

// New creates a GraphQL HTTP handler answering through gql.
func New(gql *handler.Handler, opts ...Option) *Handler {
	op := Options{Timeout: 10 * time.Second, GraphiQL: true}
	for _, f := range opts {
		f(&op)
	}
	return &Handler{gql: gql, opt: op}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx = reqid.WithID(ctx, r.Header.Get(reqid.Header))
	rid, _ := reqid.FromContext(ctx)
	w.Header().Set(reqid.Header, rid)

	status := http.StatusOK
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: status, Duration: time.Since(start)})
	}()

	if r.Method == http.MethodOptions {
		if len(h.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(w, r, h.opt.CORS)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		writeJSON(w, status, executor.ErrorResult("method not allowed"), h.opt.Pretty)
		return
	}

	// Serve GraphiQL IDE when enabled and the client expects HTML.
	if r.Method == http.MethodGet && h.opt.GraphiQL && acceptsHTML(r.Header.Get("Accept")) && r.URL.Query().Get("query") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(graphiqlPage)
		return
	}

	req, batch, berr := parseRequest(r, h.opt.MaxBodyBytes)
	if berr != "" {
		status = http.StatusBadRequest
		if berr == errBodyTooLargeMessage {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, executor.ErrorResult(berr), h.opt.Pretty)
		return
	}

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	queryContext := h.queryContext(r, rid)
	if batch != nil {
		out := make([]*executor.ExecutionResult, len(batch))
		for i := range batch {
			out[i] = h.gql.Execute(ctx, batch[i], queryContext)
		}
		writeJSON(w, status, out, h.opt.Pretty)
		return
	}

	writeJSON(w, status, h.gql.Execute(ctx, req, queryContext), h.opt.Pretty)
}

// queryContext exposes the request ID and the configured headers to
// resolvers.
func (h *Handler) queryContext(r *http.Request, rid string) map[string]any {
	qc := map[string]any{RequestIDKey: rid}
	if len(h.opt.ContextHeaders) == 0 {
		return qc
	}
	headers := make(map[string]string, len(h.opt.ContextHeaders))
	for _, hdr := range h.opt.ContextHeaders {
		if v := r.Header.Get(hdr); v != "" {
			headers[strings.ToLower(hdr)] = v
		}
	}
	qc[HeadersKey] = headers
	return qc
}

// ------------------ Request parsing ------------------

func parseRequest(r *http.Request, maxBody int64) (handler.Request, []handler.Request, string) {
	if r.Method == http.MethodGet {
		q := r.URL.Query().Get("query")
		if q == "" {
			return handler.Request{}, nil, "missing 'query'"
		}
		vars := map[string]any{}
		if v := r.URL.Query().Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &vars); err != nil {
				return handler.Request{}, nil, "invalid 'variables' JSON"
			}
		}
		op := r.URL.Query().Get("operationName")
		return handler.Request{Query: q, Variables: vars, OperationName: op}, nil, ""
	}

	// POST
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" && !strings.HasPrefix(ct, "application/json;") {
		return handler.Request{}, nil, "unsupported Content-Type"
	}
	defer r.Body.Close()
	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return handler.Request{}, nil, "failed to read body"
	}
	if maxBody > 0 && int64(len(body)) > maxBody {
		return handler.Request{}, nil, errBodyTooLargeMessage
	}

	// Try array (batch)
	if len(body) > 0 && body[0] == '[' {
		var arr []handler.Request
		if err := json.Unmarshal(body, &arr); err != nil {
			return handler.Request{}, nil, "invalid JSON"
		}
		if len(arr) == 0 {
			return handler.Request{}, nil, "empty batch"
		}
		return handler.Request{}, arr, ""
	}
	// Single
	var req handler.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return handler.Request{}, nil, "invalid JSON"
	}
	if req.Query == "" {
		return handler.Request{}, nil, "missing 'query'"
	}
	if req.Variables == nil {
		req.Variables = map[string]any{}
	}
	return req, nil, ""
}

// ------------------ Response formatting ------------------

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

const errBodyTooLargeMessage = "body too large"

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	if contains(opts.AllowedOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func acceptsHTML(accept string) bool {
	for _, p := range strings.Split(accept, ",") {
		p = strings.TrimSpace(p)
		if strings.HasPrefix(p, "text/html") || p == "*/*" {
			return true
		}
	}
	return false
}
