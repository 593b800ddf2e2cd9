package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netterhq/netter/lang"
)

func evalExprSrc(t *testing.T, src string) (string, error) {
	t.Helper()
	f, err := lang.Parse(`route "/" GET { val result = ` + src + `; Response.body(result); Response.send(); };`)
	require.NoError(t, err)
	prog := f.(*lang.Program)

	in := New(nil)
	require.NoError(t, in.Load(prog))
	resp := in.Handle("GET", "/", nil, nil, Body{})
	if resp.Body == nil {
		return "", assertErrBody(resp)
	}
	return *resp.Body, nil
}

func assertErrBody(resp *Response) error {
	if resp.Status >= 400 {
		return &RuntimeError{Message: "handler errored"}
	}
	return nil
}

func TestEvaluatorStringEquality(t *testing.T) {
	v, err := evalExprSrc(t, `"a" == "a"`)
	require.NoError(t, err)
	assert.Equal(t, "true", v)
}

func TestEvaluatorShortCircuitAnd(t *testing.T) {
	// the right side calls a global function with the wrong arity, which
	// would error if evaluated; short-circuit must prevent that.
	v, err := evalExprSrc(t, `"false" && array_length()`)
	require.NoError(t, err)
	assert.Equal(t, "false", v)
}

func TestEvaluatorShortCircuitOr(t *testing.T) {
	v, err := evalExprSrc(t, `"true" || array_length()`)
	require.NoError(t, err)
	assert.Equal(t, "true", v)
}

func TestEvaluatorArrayLength(t *testing.T) {
	v, err := evalExprSrc(t, `array_length([1, "x", true])`)
	require.NoError(t, err)
	assert.Equal(t, "3", v)
}

func TestEvaluatorDeterminism(t *testing.T) {
	v1, err1 := evalExprSrc(t, `"2" + "3"`)
	v2, err2 := evalExprSrc(t, `"2" + "3"`)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, v1, v2)
}
