package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleRouteProgram(t *testing.T) {
	src := `route "/" GET { Response.body("hi"); Response.send(); };`
	f, err := Parse(src)
	require.NoError(t, err)

	prog, ok := f.(*Program)
	require.True(t, ok, "expected *Program, got %T", f)
	require.Len(t, prog.Routes, 1)
	assert.Equal(t, "/", prog.Routes[0].Path)
	assert.Equal(t, "GET", prog.Routes[0].Method)
	require.Len(t, prog.Routes[0].Body.Statements, 2)
}

func TestParseServerConfigWithTLSConfigAndGlobalHandler(t *testing.T) {
	src := `
tls {
	enabled = true;
	cert_path = "cert.pem";
	key_path = "key.pem";
};
config {
	type = "http";
	host = "0.0.0.0";
	port = "8080";
};
global_error_handler(e) {
	Response.status(500);
	Response.body(e);
	Response.send();
};
import "./plugins/math.so" as math;
route "/" GET { Response.send(); };
`
	f, err := Parse(src)
	require.NoError(t, err)

	sc, ok := f.(*ServerConfig)
	require.True(t, ok, "expected *ServerConfig, got %T", f)
	require.NotNil(t, sc.TLS)
	assert.True(t, sc.TLS.Enabled)
	assert.Equal(t, "cert.pem", sc.TLS.CertPath)
	require.NotNil(t, sc.Config)
	assert.Equal(t, "http", sc.Config.ConfigType)
	assert.Equal(t, "8080", sc.Config.Port)
	require.NotNil(t, sc.GlobalErrorHandler)
	assert.Equal(t, "e", sc.GlobalErrorHandler.ErrorVar)
	require.Len(t, sc.Imports, 1)
	assert.Equal(t, "math", sc.Imports[0].Alias)
	require.Len(t, sc.Routes, 1)
}

func TestParseDuplicateTopLevelBlocksError(t *testing.T) {
	cases := []string{
		`tls { enabled = true; }; tls { enabled = false; };`,
		`config { type = "http"; host = "a"; port = "1"; }; config { type = "http"; host = "b"; port = "2"; };`,
		`global_error_handler(e) { Response.send(); }; global_error_handler(e2) { Response.send(); };`,
	}
	for _, src := range cases {
		_, err := Parse(src)
		require.Error(t, err)
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
	}
}

func TestParseConfigHTTPRequiresHostAndPort(t *testing.T) {
	_, err := Parse(`config { type = "http"; };`)
	require.Error(t, err)
}

func TestParseConfigPortMustBeUint16(t *testing.T) {
	_, err := Parse(`config { type = "http"; host = "h"; port = "999999"; };`)
	require.Error(t, err)
}

func TestParseRouteWithOnError(t *testing.T) {
	src := `route "/e" GET { Database.get("0"); } onError(err) { Response.status(404); Response.body(err); Response.send(); };`
	f, err := Parse(src)
	require.NoError(t, err)
	prog := f.(*Program)
	require.NotNil(t, prog.Routes[0].OnError)
	assert.Equal(t, "err", prog.Routes[0].OnError.ErrorVar)
}

func TestParsePathTemplateParam(t *testing.T) {
	src := `route "/u/{id}" GET { val x = Request.get_param("id"); Response.body(x); Response.send(); };`
	f, err := Parse(src)
	require.NoError(t, err)
	prog := f.(*Program)
	assert.Equal(t, "/u/{id}", prog.Routes[0].Path)
}

func TestParseIfElseIfElse(t *testing.T) {
	src := `route "/" GET {
	if (Request.get_param("a") == "1") {
		Response.body("one");
	} else if (Request.get_param("a") == "2") {
		Response.body("two");
	} else {
		Response.body("other");
	}
	Response.send();
};`
	f, err := Parse(src)
	require.NoError(t, err)
	prog := f.(*Program)
	ifStmt, ok := prog.Routes[0].Body.Statements[0].(*IfStatement)
	require.True(t, ok)
	require.NotNil(t, ifStmt.Else)
	elseIf, ok := ifStmt.Else.(*IfStatement)
	require.True(t, ok)
	require.NotNil(t, elseIf.Else)
	_, ok = elseIf.Else.(*BlockStmt)
	require.True(t, ok)
}

func TestParseWhileAndForLoops(t *testing.T) {
	src := `route "/sum" GET {
	val a = [1, 2, 3];
	val s = "0";
	for (x in a) {
		s += x;
	}
	while (s == "0") {
		s += 1;
	}
	Response.body(s);
	Response.send();
};`
	f, err := Parse(src)
	require.NoError(t, err)
	prog := f.(*Program)
	stmts := prog.Routes[0].Body.Statements
	_, ok := stmts[2].(*ForLoop)
	require.True(t, ok)
	_, ok = stmts[3].(*WhileLoop)
	require.True(t, ok)
}

func TestParseCompoundAssignment(t *testing.T) {
	src := `route "/" GET { val x = "1"; x += 2; Response.send(); };`
	f, err := Parse(src)
	require.NoError(t, err)
	prog := f.(*Program)
	ca, ok := prog.Routes[0].Body.Statements[1].(*CompoundAssign)
	require.True(t, ok)
	assert.Equal(t, "x", ca.Name)
	assert.Equal(t, KindPlusAssign, ca.Operator)
}

func TestParseTryAndUnwrapOperators(t *testing.T) {
	src := `route "/" GET { Database.get("0")?; Database.get("1")!!; Response.send(); };`
	f, err := Parse(src)
	require.NoError(t, err)
	prog := f.(*Program)

	call1 := prog.Routes[0].Body.Statements[0].(*ExprStatement).X.(*FunctionCall)
	assert.True(t, call1.TryOperator)
	assert.False(t, call1.UnwrapOperator)

	call2 := prog.Routes[0].Body.Statements[1].(*ExprStatement).X.(*FunctionCall)
	assert.False(t, call2.TryOperator)
	assert.True(t, call2.UnwrapOperator)
}

func TestParsePluginNamespacedCall(t *testing.T) {
	src := `import "./math.so" as math; route "/r" GET { Response.body(math::random(1, 1)); Response.send(); };`
	f, err := Parse(src)
	require.NoError(t, err)
	sc := f.(*ServerConfig)
	call := sc.Routes[0].Body.Statements[0].(*ExprStatement).X.(*FunctionCall).Args[0].(*FunctionCall)
	assert.True(t, call.Namespaced)
	assert.Equal(t, "random", call.Name)
	require.Len(t, call.Args, 2)
}

func TestParseArrayLiteralAndAccess(t *testing.T) {
	src := `route "/" GET { val a = [1, "x", true]; val f = a[0]; Response.send(); };`
	f, err := Parse(src)
	require.NoError(t, err)
	prog := f.(*Program)
	decl := prog.Routes[0].Body.Statements[0].(*VarDeclaration)
	arr, ok := decl.Value.(*ArrayLiteral)
	require.True(t, ok)
	require.Len(t, arr.Elements, 3)

	access := prog.Routes[0].Body.Statements[1].(*VarDeclaration).Value.(*ArrayAccess)
	_, ok = access.Array.(*Identifier)
	require.True(t, ok)
}

func TestParseRoundTripThroughFormat(t *testing.T) {
	src := `route "/u/{id}" GET { val x = Request.get_param("id"); Response.body(x); Response.send(); };`
	f1, err := Parse(src)
	require.NoError(t, err)

	formatted := f1.Format()

	f2, err := Parse(formatted)
	require.NoError(t, err)

	assert.Equal(t, f1.Format(), f2.Format(), "re-parsing the formatted source must be structurally stable")
}

func TestParseUnexpectedTopLevelTokenIsParseError(t *testing.T) {
	_, err := Parse(`bogus "/" GET {};`)
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestParseMissingSemicolonIsParseError(t *testing.T) {
	_, err := Parse(`route "/" GET { Response.send() }`)
	require.Error(t, err)
}
