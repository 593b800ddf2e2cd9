package interpreter

import "encoding/base64"

// BodyKind classifies how a Request's body arrived, mirroring the
// transport's Body = Empty | Text | Bytes union (spec.md §3).
type BodyKind uint8

const (
	BodyEmpty BodyKind = iota
	BodyText
	BodyBytes
)

// Body is the request payload as handed over by the transport.
type Body struct {
	Kind BodyKind
	Text string
	Raw  []byte
}

// Request is the DSL's read-only view of the inbound HTTP request
// (spec.md §3, §6.2). Path-template parameter extraction is the only
// mutation the interpreter facade performs on it, before the handler runs.
type Request struct {
	Params  map[string]string
	Headers map[string]string
	body    Body
}

// NewRequest builds a Request from the transport contract inputs
// (spec.md §6.4): params is the decoded query/path-parameter map, headers
// is the inbound header map with non-UTF-8 entries already dropped by the
// caller.
func NewRequest(params, headers map[string]string, body Body) *Request {
	if params == nil {
		params = map[string]string{}
	}
	if headers == nil {
		headers = map[string]string{}
	}
	return &Request{Params: params, Headers: headers, body: body}
}

// CallMethod dispatches a Request.<name>(args) invocation (spec.md §6.2).
func (r *Request) CallMethod(name string, args []string) (string, error) {
	switch name {
	case "get_param", "get_params":
		if len(args) != 1 {
			return "", runtimeErrorf("Request.%s expects 1 argument, got %d", name, len(args))
		}
		v, ok := r.Params[args[0]]
		if !ok {
			return "", runtimeErrorf("no such request parameter %q", args[0])
		}
		return v, nil
	case "get_header":
		if len(args) != 1 {
			return "", runtimeErrorf("Request.get_header expects 1 argument, got %d", len(args))
		}
		v, ok := r.Headers[args[0]]
		if !ok {
			return "", runtimeErrorf("no such request header %q", args[0])
		}
		return v, nil
	case "body", "text_body":
		return r.bodyText(), nil
	case "body_base64":
		return base64.StdEncoding.EncodeToString(r.bodyBytes()), nil
	case "is_binary":
		return boolString(r.body.Kind == BodyBytes), nil
	default:
		return "", runtimeErrorf("Request has no method %q", name)
	}
}

func (r *Request) bodyText() string {
	switch r.body.Kind {
	case BodyText:
		return r.body.Text
	case BodyBytes:
		return string(r.body.Raw)
	default:
		return ""
	}
}

func (r *Request) bodyBytes() []byte {
	switch r.body.Kind {
	case BodyText:
		return []byte(r.body.Text)
	case BodyBytes:
		return r.body.Raw
	default:
		return nil
	}
}
