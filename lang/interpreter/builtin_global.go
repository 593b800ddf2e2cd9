package interpreter

import "strings"

// Logger is the minimal logging surface the evaluator's global log_* calls
// need. It is satisfied by *logger.Logger without this package importing
// logger directly, avoiding a cycle (logger has no reason to know about the
// interpreter).
type Logger interface {
	Error(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Trace(msg string, fields map[string]interface{})
}

// noopLogger discards everything; used when an Interpreter is built without
// an explicit logger (unit tests, mainly).
type noopLogger struct{}

func (noopLogger) Error(string, map[string]interface{}) {}
func (noopLogger) Info(string, map[string]interface{})  {}
func (noopLogger) Trace(string, map[string]interface{}) {}

// callGlobal dispatches an object-less FunctionCall (spec.md §6.2).
func callGlobal(log Logger, name string, args []string) (string, error) {
	switch name {
	case "log_error":
		return callLog(log.Error, "log_error", args)
	case "log_info":
		return callLog(log.Info, "log_info", args)
	case "log_trace":
		return callLog(log.Trace, "log_trace", args)
	case "array_length":
		return arrayLength(args)
	case "array_push":
		return arrayPush(args)
	case "array_pop":
		return arrayPop(args)
	case "array_contains":
		return arrayContains(args)
	case "array_join":
		return arrayJoin(args)
	default:
		return "", runtimeErrorf("unknown function %q", name)
	}
}

func callLog(fn func(string, map[string]interface{}), name string, args []string) (string, error) {
	if len(args) != 1 {
		return "", runtimeErrorf("%s expects 1 argument, got %d", name, len(args))
	}
	fn(args[0], nil)
	return "", nil
}

func arrayLength(args []string) (string, error) {
	if len(args) != 1 {
		return "", runtimeErrorf("array_length expects 1 argument, got %d", len(args))
	}
	elems, err := decodeJSONArray(args[0])
	if err != nil {
		return "", err
	}
	return formatFloat(float64(len(elems))), nil
}

func arrayPush(args []string) (string, error) {
	if len(args) != 2 {
		return "", runtimeErrorf("array_push expects 2 arguments, got %d", len(args))
	}
	elems, err := decodeJSONArray(args[0])
	if err != nil {
		return "", err
	}
	elems = append(elems, args[1])
	return encodeJSONArray(elems)
}

func arrayPop(args []string) (string, error) {
	if len(args) != 1 {
		return "", runtimeErrorf("array_pop expects 1 argument, got %d", len(args))
	}
	elems, err := decodeJSONArray(args[0])
	if err != nil {
		return "", err
	}
	if len(elems) == 0 {
		return "", runtimeErrorf("array_pop: array is empty")
	}
	elems = elems[:len(elems)-1]
	return encodeJSONArray(elems)
}

func arrayContains(args []string) (string, error) {
	if len(args) != 2 {
		return "", runtimeErrorf("array_contains expects 2 arguments, got %d", len(args))
	}
	elems, err := decodeJSONArray(args[0])
	if err != nil {
		return "", err
	}
	for _, e := range elems {
		if e == args[1] {
			return "true", nil
		}
	}
	return "false", nil
}

func arrayJoin(args []string) (string, error) {
	if len(args) != 2 {
		return "", runtimeErrorf("array_join expects 2 arguments, got %d", len(args))
	}
	elems, err := decodeJSONArray(args[0])
	if err != nil {
		return "", err
	}
	return strings.Join(elems, args[1]), nil
}
