package interpreter

import (
	"strings"

	"github.com/netterhq/netter/lang"
)

// executeRoute implements spec.md §4.7: run the route body to completion
// or to the first error/send, then dispatch local/global error handling.
// A `!!` unwrap operator inside the body panics with fatalAbort; that
// panic is caught here so only this request's response becomes a 500,
// never taking the process or any other in-flight request down with it
// (spec.md §7, §9 "Error-operator mapping").
func executeRoute(interp *Interpreter, route *lang.Route, req *Request, resp *Response, ws *WebSocket) (response *Response) {
	defer func() {
		if r := recover(); r != nil {
			abort, ok := r.(fatalAbort)
			if !ok {
				panic(r)
			}
			resp.Status = 500
			body := "Internal Server Error: " + abort.err.Error()
			resp.Body = &body
			resp.IsSent = true
			response = resp
		}
	}()

	st := &evalState{interp: interp, ctx: NewContext(), req: req, resp: resp, ws: ws}

	runErr := execBlock(st, route.Body)
	if runErr == nil {
		return resp
	}

	dispatchError(interp, route, st, runErr)
	return resp
}

// dispatchError implements the onError → global_error_handler → default
// 500 fallback chain (spec.md §4.7 step 3, §7).
func dispatchError(interp *Interpreter, route *lang.Route, st *evalState, runErr error) {
	var handlerVar string
	var handlerBody *lang.Block

	switch {
	case route.OnError != nil:
		handlerVar, handlerBody = route.OnError.ErrorVar, route.OnError.Body
	case interp.globalErrorHandler != nil:
		handlerVar, handlerBody = interp.globalErrorHandler.ErrorVar, interp.globalErrorHandler.Body
	default:
		defaultErrorResponse(st.resp, runErr)
		return
	}

	handlerSt := &evalState{
		interp: st.interp,
		ctx:    st.ctx.withErrorVar(handlerVar, runErr.Error()),
		req:    st.req,
		resp:   st.resp,
		ws:     st.ws,
	}

	// Errors raised inside an error handler are logged but do not cascade
	// (spec.md §7): if the handler itself fails or never sends, fall back
	// to the default 500.
	if hErr := execBlock(handlerSt, handlerBody); hErr != nil {
		interp.logger.Error("error handler failed", map[string]interface{}{
			"original_error": runErr.Error(),
			"handler_error":  hErr.Error(),
		})
	}
	if !st.resp.IsSent {
		defaultErrorResponse(st.resp, runErr)
	}
}

func defaultErrorResponse(resp *Response, err error) {
	resp.Status = 500
	body := "Internal Server Error: " + err.Error()
	resp.Body = &body
	resp.IsSent = true
}

// execBlock runs statements in order, stopping at the first error or once
// the response has been sent (spec.md §4.7 step 2).
func execBlock(st *evalState, block *lang.Block) error {
	for _, stmt := range block.Statements {
		if st.resp.IsSent {
			return nil
		}
		if err := execStmt(st, stmt); err != nil {
			return err
		}
	}
	return nil
}

func execStmt(st *evalState, stmt lang.Stmt) error {
	switch s := stmt.(type) {
	case *lang.VarDeclaration:
		v, err := eval(st, s.Value)
		if err != nil {
			return err
		}
		st.ctx.Set(s.Name, v)
		return nil

	case *lang.ExprStatement:
		_, err := eval(st, s.X)
		return err

	case *lang.IfStatement:
		return execIf(st, s)

	case *lang.WhileLoop:
		return execWhile(st, s)

	case *lang.ForLoop:
		return execFor(st, s)

	case *lang.CompoundAssign:
		return execCompoundAssign(st, s)

	case *lang.BlockStmt:
		return execBlock(st, s.Body)

	default:
		return runtimeErrorf("unsupported statement node %T", stmt)
	}
}

func execIf(st *evalState, s *lang.IfStatement) error {
	cond, err := eval(st, s.Cond)
	if err != nil {
		return err
	}
	if isConditionTrue(cond) {
		return execBlock(st, s.Then)
	}
	if s.Else != nil {
		return execStmt(st, s.Else)
	}
	return nil
}

func execWhile(st *evalState, s *lang.WhileLoop) error {
	for {
		if st.resp.IsSent {
			return nil
		}
		cond, err := eval(st, s.Cond)
		if err != nil {
			return err
		}
		if !isConditionTrue(cond) {
			return nil
		}
		if err := execBlock(st, s.Body); err != nil {
			return err
		}
	}
}

// execFor implements the three iterable shapes of spec.md §4.7: a JSON
// array, a comma-separated scalar list, or a single bare value.
func execFor(st *evalState, s *lang.ForLoop) error {
	iterVal, err := eval(st, s.Iterable)
	if err != nil {
		return err
	}

	var elems []string
	if decoded, derr := decodeJSONArray(iterVal); derr == nil {
		elems = decoded
	} else if strings.Contains(iterVal, ",") {
		parts := strings.Split(iterVal, ",")
		elems = make([]string, len(parts))
		for i, p := range parts {
			elems[i] = strings.TrimSpace(p)
		}
	} else {
		elems = []string{iterVal}
	}

	for _, el := range elems {
		if st.resp.IsSent {
			return nil
		}
		st.ctx.Set(s.VarName, el)
		if err := execBlock(st, s.Body); err != nil {
			return err
		}
	}
	return nil
}

func execCompoundAssign(st *evalState, s *lang.CompoundAssign) error {
	cur, ok := st.ctx.Lookup(s.Name)
	if !ok {
		return runtimeErrorf("compound assignment to undeclared variable %q", s.Name)
	}
	rhs, err := eval(st, s.Value)
	if err != nil {
		return err
	}

	var result string
	switch s.Operator {
	case lang.KindPlusAssign:
		result, err = evalAdd(cur, rhs)
	case lang.KindMinusAssign:
		result, err = evalArith("-", cur, rhs)
	case lang.KindStarAssign:
		result, err = evalArith("*", cur, rhs)
	case lang.KindSlashAssign:
		result, err = evalArith("/", cur, rhs)
	case lang.KindCaretAssign:
		result, err = evalArith("^", cur, rhs)
	default:
		return runtimeErrorf("unsupported compound-assignment operator %s", s.Operator)
	}
	if err != nil {
		return err
	}

	if !st.ctx.setInOwningContext(s.Name, result) {
		st.ctx.Set(s.Name, result)
	}
	return nil
}
