package interpreter

import (
	"os"
	"strings"

	"github.com/netterhq/netter/lang"
	"github.com/netterhq/netter/plugin"
)

// routeEntry is one registered (method, template) → route binding. Routes
// are kept in a slice rather than a bare map so that match scanning is
// deterministic insertion order (SPEC_FULL.md §4.8, §9) rather than Go's
// randomized map iteration, which is the reimplementation's documented
// departure from the source's hash-map ordering.
type routeEntry struct {
	method   string
	template string
	segments []string // template split on '/', empty segments dropped
	route    *lang.Route
}

// Interpreter is the facade of spec.md §3/§4.8: it owns the route table,
// the loaded plugins, and the captured TLS/config/global-handler, and is
// shared read-only across concurrent request handling once Load returns.
type Interpreter struct {
	routes   []*routeEntry
	routeIdx map[string]int // "METHOD:template" -> index into routes, for last-wins overwrite

	plugins map[string]*plugin.Plugin

	tls                *lang.TlsConfig
	config             *lang.ConfigBlock
	globalErrorHandler *lang.GlobalErrorHandler

	database   *Database
	filesystem *FileSystem
	logger     Logger
}

// New returns an empty Interpreter. Call Load before Handle.
func New(logger Logger) *Interpreter {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Interpreter{
		routeIdx:   make(map[string]int),
		plugins:    make(map[string]*plugin.Plugin),
		database:   NewDatabase(),
		filesystem: NewFileSystem(),
		logger:     logger,
	}
}

// TLS returns the captured tls{} block, or nil if the source had none.
func (in *Interpreter) TLS() *lang.TlsConfig { return in.tls }

// Config returns the captured config{} block, or nil if the source had none.
func (in *Interpreter) Config() *lang.ConfigBlock { return in.config }

// Load binds a parsed file into the interpreter (spec.md §4.3): it rejects
// anything other than a Program or ServerConfig, captures the server-level
// blocks, loads plugins strictly before any route is registered, then
// registers every route.
func (in *Interpreter) Load(file lang.File) error {
	switch f := file.(type) {
	case *lang.Program:
		return in.loadRoutes(f.Routes)
	case *lang.ServerConfig:
		in.tls = f.TLS
		in.config = f.Config
		in.globalErrorHandler = f.GlobalErrorHandler
		if err := in.loadPlugins(f.Imports); err != nil {
			return err
		}
		return in.loadRoutes(f.Routes)
	default:
		return &BinderError{Message: "top-level file must be a Program or ServerConfig"}
	}
}

// loadPlugins implements spec.md §4.3 step 3: imports are processed in
// order; a missing plugin file is a binding error; a duplicate alias
// overwrites and warns.
func (in *Interpreter) loadPlugins(imports []*lang.Import) error {
	for _, im := range imports {
		if _, err := os.Stat(im.Path); err != nil {
			return &BinderError{Message: "plugin file does not exist: " + im.Path}
		}
		p, err := plugin.Load(im.Alias, im.Path)
		if err != nil {
			return &BinderError{Message: err.Error()}
		}
		if _, exists := in.plugins[im.Alias]; exists {
			in.logger.Error("duplicate plugin alias, overwriting", map[string]interface{}{"alias": im.Alias})
		}
		in.plugins[im.Alias] = p
	}
	return nil
}

// loadRoutes implements spec.md §4.3 step 4: duplicate (method, template)
// keys warn and overwrite, keeping the original scan position.
func (in *Interpreter) loadRoutes(routes []*lang.Route) error {
	for _, r := range routes {
		key := r.Method + ":" + r.Path
		entry := &routeEntry{
			method:   r.Method,
			template: r.Path,
			segments: splitPath(r.Path),
			route:    r,
		}
		if idx, exists := in.routeIdx[key]; exists {
			in.logger.Error("duplicate route, overwriting", map[string]interface{}{"method": r.Method, "path": r.Path})
			in.routes[idx] = entry
			continue
		}
		in.routeIdx[key] = len(in.routes)
		in.routes = append(in.routes, entry)
	}
	return nil
}

func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Handle implements spec.md §4.8: match method+path against the route
// table in insertion order, run the matched handler, and apply the
// default content-type/404 fallbacks.
func (in *Interpreter) Handle(method, path string, params, headers map[string]string, body Body) *Response {
	req := NewRequest(params, headers, body)
	pathSegs := splitPath(path)

	for _, entry := range in.routes {
		if entry.method != method {
			continue
		}
		matched, captured := matchPath(entry.segments, pathSegs)
		if !matched {
			continue
		}
		for k, v := range captured {
			req.Params[k] = v
		}

		resp := NewResponse()
		resp = executeRoute(in, entry.route, req, resp, nil)
		if resp.Body != nil && resp.Headers["Content-Type"] == "" {
			resp.Headers["Content-Type"] = DefaultContentType
		}
		return resp
	}

	resp := NewResponse()
	resp.Status = 404
	body404 := "Not Found"
	resp.Body = &body404
	resp.Headers["Content-Type"] = DefaultContentType
	return resp
}

// MatchWebSocketRoute implements spec.md §4.9: find the WS route whose
// template matches path, scanned in the same insertion-order table as HTTP
// routes but restricted to the "WS" pseudo-method. Returns nil if no WS
// route matches, so the caller (server package) can fall back to a normal
// 404 instead of upgrading the connection.
func (in *Interpreter) MatchWebSocketRoute(path string) (*lang.Route, map[string]string) {
	pathSegs := splitPath(path)
	for _, entry := range in.routes {
		if entry.method != "WS" {
			continue
		}
		if matched, captured := matchPath(entry.segments, pathSegs); matched {
			return entry.route, captured
		}
	}
	return nil, nil
}

// HandleWebSocket runs a matched WS route body once for an upgraded
// connection, wiring ws into the evaluator so WebSocket.recv/send/close are
// reachable from the handler (spec.md §4.9).
func (in *Interpreter) HandleWebSocket(route *lang.Route, params map[string]string, ws *WebSocket) {
	req := NewRequest(params, map[string]string{}, Body{Kind: BodyEmpty})
	resp := NewResponse()
	executeRoute(in, route, req, resp, ws)
}

// matchPath implements spec.md §4.8 steps 3-4: equal segment counts
// required; a `{name}` template segment captures the corresponding path
// segment, any other template segment must match byte-for-byte.
func matchPath(templateSegs, pathSegs []string) (bool, map[string]string) {
	if len(templateSegs) != len(pathSegs) {
		return false, nil
	}
	captured := map[string]string{}
	for i, t := range templateSegs {
		if strings.HasPrefix(t, "{") && strings.HasSuffix(t, "}") {
			captured[t[1:len(t)-1]] = pathSegs[i]
			continue
		}
		if t != pathSegs[i] {
			return false, nil
		}
	}
	return true, captured
}
