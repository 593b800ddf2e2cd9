package interpreter

import "github.com/netterhq/netter/lang"

// evalFunctionCall implements spec.md §4.5: argument evaluation is always
// left-to-right before dispatch, dispatch is routed by the call's shape,
// and the try/unwrap operator suffixes apply to whatever the dispatch
// returns.
func evalFunctionCall(st *evalState, e *lang.FunctionCall) (string, error) {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		v, err := eval(st, a)
		if err != nil {
			return "", err
		}
		args[i] = v
	}

	result, err := dispatchCall(st, e, args)
	return applyErrorOperators(e, result, err)
}

func dispatchCall(st *evalState, e *lang.FunctionCall, args []string) (string, error) {
	if e.Object == nil {
		return callGlobal(st.interp.logger, e.Name, args)
	}

	objIdent, ok := e.Object.(*lang.Identifier)
	if !ok {
		return "", runtimeErrorf("call target must be an identifier, got %T", e.Object)
	}

	if e.Namespaced {
		p, ok := st.interp.plugins[objIdent.Name]
		if !ok {
			return "", runtimeErrorf("no such plugin alias %q", objIdent.Name)
		}
		return p.Dispatch(e.Name, args)
	}

	switch objIdent.Name {
	case "Request":
		return st.req.CallMethod(e.Name, args)
	case "Response":
		return st.resp.CallMethod(e.Name, args)
	case "Database":
		return st.interp.database.CallMethod(e.Name, args)
	case "FileSystem":
		return st.interp.filesystem.CallMethod(e.Name, args)
	case "WebSocket":
		if st.ws == nil {
			return "", runtimeErrorf("WebSocket is not available outside a WS route")
		}
		return st.ws.CallMethod(e.Name, args)
	default:
		return "", runtimeErrorf("unknown call target %q", objIdent.Name)
	}
}

// applyErrorOperators realizes the `?`/`!!` suffixes (spec.md §4.5, §4.7,
// §7): neither propagates the result as-is; `?` re-raises the error
// unchanged up the call stack (still subject to normal error-handler
// dispatch); `!!` converts a failure into a fatalAbort panic, recovered by
// executeRoute (route_handler.go) so only this request's response becomes
// a 500.
func applyErrorOperators(e *lang.FunctionCall, result string, err error) (string, error) {
	if err == nil {
		return result, nil
	}
	if e.UnwrapOperator {
		panic(fatalAbort{err: err})
	}
	return result, err
}
