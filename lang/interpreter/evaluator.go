package interpreter

import (
	"strconv"

	"golang.org/x/text/unicode/norm"

	"github.com/netterhq/netter/lang"
)

// evalState bundles the four pieces of per-request state an expression
// evaluation needs: the interpreter (for built-in objects and plugins),
// the current lexical context, and the live request/response pair.
type evalState struct {
	interp *Interpreter
	ctx    *Context
	req    *Request
	resp   *Response
	ws     *WebSocket // non-nil only while executing a WS route
}

// eval implements the single recursive evaluation procedure of
// spec.md §4.4.
func eval(st *evalState, expr lang.Expr) (string, error) {
	switch e := expr.(type) {
	case *lang.StringLiteral:
		return e.Value, nil

	case *lang.NumberLiteral:
		return strconv.FormatInt(e.Value, 10), nil

	case *lang.Identifier:
		return evalIdentifier(st, e.Name)

	case *lang.BinaryOp:
		return evalBinaryOp(st, e)

	case *lang.PropertyAccess:
		return "", runtimeErrorf("property access not implemented")

	case *lang.ArrayLiteral:
		elems := make([]string, len(e.Elements))
		for i, el := range e.Elements {
			v, err := eval(st, el)
			if err != nil {
				return "", err
			}
			elems[i] = v
		}
		return encodeJSONArray(elems)

	case *lang.ArrayAccess:
		return evalArrayAccess(st, e)

	case *lang.FunctionCall:
		return evalFunctionCall(st, e)

	default:
		return "", runtimeErrorf("unsupported expression node %T", expr)
	}
}

// evalIdentifier implements spec.md §4.4's resolution order: context
// (with parent chain), then the bare names true/false and the fixed
// built-in object names (each evaluates to its own name), then plugin
// alias names, then failure.
func evalIdentifier(st *evalState, name string) (string, error) {
	if v, ok := st.ctx.Lookup(name); ok {
		return v, nil
	}
	switch name {
	case "true", "false":
		return name, nil
	case "Request", "Response", "Database", "FileSystem", "WebSocket":
		return name, nil
	}
	if _, ok := st.interp.plugins[name]; ok {
		return name, nil
	}
	return "", runtimeErrorf("variable or object not found: %q", name)
}

// normalizeNFC applies Unicode NFC normalization before string equality
// comparisons, so that visually identical strings built from different
// combining-character sequences compare equal (an ambient enrichment over
// the source's byte-for-byte comparison; SPEC_FULL.md §4.4).
func normalizeNFC(s string) string {
	return norm.NFC.String(s)
}

func evalBinaryOp(st *evalState, e *lang.BinaryOp) (string, error) {
	left, err := eval(st, e.Left)
	if err != nil {
		return "", err
	}
	// && and || short-circuit: when the left operand already decides the
	// result, the right operand is never evaluated.
	if (e.Operator == lang.KindAmpAmp && !isTruthy(left)) || (e.Operator == lang.KindPipePipe && isTruthy(left)) {
		return boolString(isTruthy(left)), nil
	}
	right, err := eval(st, e.Right)
	if err != nil {
		return "", err
	}

	switch e.Operator {
	case lang.KindEq:
		return boolString(normalizeNFC(left) == normalizeNFC(right)), nil
	case lang.KindNotEq:
		return boolString(normalizeNFC(left) != normalizeNFC(right)), nil
	case lang.KindPlus:
		return evalAdd(left, right)
	case lang.KindMinus:
		return evalArith("-", left, right)
	case lang.KindStar:
		return evalArith("*", left, right)
	case lang.KindSlash:
		return evalArith("/", left, right)
	case lang.KindCaret:
		return evalArith("^", left, right)
	case lang.KindAmpAmp:
		if !isTruthy(left) {
			return "false", nil
		}
		return boolString(isTruthy(right)), nil
	case lang.KindPipePipe:
		if isTruthy(left) {
			return "true", nil
		}
		return boolString(isTruthy(right)), nil
	default:
		return "", runtimeErrorf("unsupported binary operator %s", e.Operator)
	}
}

func evalArrayAccess(st *evalState, e *lang.ArrayAccess) (string, error) {
	arrVal, err := eval(st, e.Array)
	if err != nil {
		return "", err
	}
	idxVal, err := eval(st, e.Index)
	if err != nil {
		return "", err
	}

	elems, err := decodeJSONArray(arrVal)
	if err != nil {
		return "", err
	}

	idx, ok := asFiniteFloat(idxVal)
	if !ok || idx < 0 || idx != float64(int(idx)) {
		return "", runtimeErrorf("array index %q is not a non-negative integer", idxVal)
	}
	i := int(idx)
	if i >= len(elems) {
		return "", runtimeErrorf("array index %d out of range (length %d)", i, len(elems))
	}
	return elems[i], nil
}
