package interpreter

// DefaultContentType is emitted when a handler sends a body without ever
// setting Content-Type itself (spec.md §4.8, §6.4).
const DefaultContentType = "text/plain; charset=utf-8"

// Response is the DSL's mutable view of the outbound HTTP response
// (spec.md §3). IsSent is a monotonic latch: once true, the route-handler
// loop and any further statement execution must stop mutating it
// (spec.md §4.7 step 2).
type Response struct {
	Status  int
	Headers map[string]string
	Body    *string
	IsSent  bool
}

// NewResponse returns a fresh per-request Response with the default status.
func NewResponse() *Response {
	return &Response{Status: 200, Headers: map[string]string{}}
}

// CallMethod dispatches a Response.<name>(args) invocation (spec.md §6.2).
func (r *Response) CallMethod(name string, args []string) (string, error) {
	switch name {
	case "body":
		if len(args) != 1 {
			return "", runtimeErrorf("Response.body expects 1 argument, got %d", len(args))
		}
		b := args[0]
		r.Body = &b
		return "", nil
	case "status":
		if len(args) != 1 {
			return "", runtimeErrorf("Response.status expects 1 argument, got %d", len(args))
		}
		code, ok := asFiniteFloat(args[0])
		if !ok {
			return "", runtimeErrorf("Response.status expects a numeric code, got %q", args[0])
		}
		r.Status = int(code)
		return "", nil
	case "headers", "set_header":
		if len(args) != 2 {
			return "", runtimeErrorf("Response.%s expects 2 arguments, got %d", name, len(args))
		}
		r.Headers[args[0]] = args[1]
		return "", nil
	case "send":
		r.IsSent = true
		return "", nil
	default:
		return "", runtimeErrorf("Response has no method %q", name)
	}
}
