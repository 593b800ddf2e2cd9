// Package interpreter implements the tree-walking evaluator that turns a
// parsed netter route into a request handler: the execution context, the
// expression evaluator, statement execution, the built-in object surface,
// and the interpreter facade (route registry, path matching, plugin
// loading).
package interpreter

import "fmt"

// BinderError is raised while binding a parsed lang.File into an
// Interpreter: a missing plugin file, or a malformed config/tls/handler
// node.
type BinderError struct {
	Message string
}

func (e *BinderError) Error() string {
	return fmt.Sprintf("bind error: %s", e.Message)
}

// RuntimeError is raised during expression evaluation or statement
// execution. It carries only a message: runtime errors are not positioned,
// since they occur against live request data rather than source text
// (SPEC_FULL.md §7).
type RuntimeError struct {
	Message string
}

func (e *RuntimeError) Error() string {
	return e.Message
}

func runtimeErrorf(format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...)}
}

// fatalAbort is the panic payload used to realize the `!!` unwrap operator
// (SPEC_FULL.md §4.5): a FunctionCall suffixed with `!!` that errors panics
// with this type, which executeRoute (route_handler.go) recovers and turns
// into a 500 for that request only, without taking down
// the process or any other in-flight request.
type fatalAbort struct {
	err error
}
