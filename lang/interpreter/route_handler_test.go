package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netterhq/netter/lang"
)

func TestCompoundAssignmentNumericAddition(t *testing.T) {
	in := loadSource(t, `route "/" GET {
	val x = "1";
	x += 2;
	Response.body(x);
	Response.send();
};`)
	resp := in.Handle("GET", "/", nil, nil, Body{})
	require.NotNil(t, resp.Body)
	assert.Equal(t, "3", *resp.Body)
}

func TestCompoundAssignmentStringConcatenation(t *testing.T) {
	in := loadSource(t, `route "/" GET {
	val x = "a";
	x += "b";
	Response.body(x);
	Response.send();
};`)
	resp := in.Handle("GET", "/", nil, nil, Body{})
	require.NotNil(t, resp.Body)
	assert.Equal(t, "ab", *resp.Body)
}

func TestCompoundAssignmentDivisionByZeroIsRuntimeError(t *testing.T) {
	in := loadSource(t, `route "/" GET {
	val x = "10";
	x /= 0;
	Response.body(x);
	Response.send();
};`)
	resp := in.Handle("GET", "/", nil, nil, Body{})
	assert.Equal(t, 500, resp.Status)
}

func TestIfElseIfElseChain(t *testing.T) {
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
	in := loadSource(t, src)

	resp := in.Handle("GET", "/", map[string]string{"a": "1"}, nil, Body{})
	assert.Equal(t, "one", *resp.Body)

	resp = in.Handle("GET", "/", map[string]string{"a": "2"}, nil, Body{})
	assert.Equal(t, "two", *resp.Body)

	resp = in.Handle("GET", "/", map[string]string{"a": "9"}, nil, Body{})
	assert.Equal(t, "other", *resp.Body)
}

func TestWhileLoopHonorsSend(t *testing.T) {
	src := `route "/" GET {
	val n = "0";
	while (n != "3") {
		n += 1;
		if (n == "2") {
			Response.body(n);
			Response.send();
		};
	}
	Response.body("fell-through");
	Response.send();
};`
	in := loadSource(t, src)
	resp := in.Handle("GET", "/", nil, nil, Body{})
	require.NotNil(t, resp.Body)
	assert.Equal(t, "2", *resp.Body)
}

func TestForLoopOverCommaSeparatedValue(t *testing.T) {
	src := `route "/" GET {
	val acc = "";
	for (x in "a, b, c") {
		acc += x;
	}
	Response.body(acc);
	Response.send();
};`
	in := loadSource(t, src)
	resp := in.Handle("GET", "/", nil, nil, Body{})
	require.NotNil(t, resp.Body)
	assert.Equal(t, "abc", *resp.Body)
}

func TestForLoopOverSingleScalarValue(t *testing.T) {
	src := `route "/" GET {
	val acc = "";
	for (x in "solo") {
		acc += x;
	}
	Response.body(acc);
	Response.send();
};`
	in := loadSource(t, src)
	resp := in.Handle("GET", "/", nil, nil, Body{})
	require.NotNil(t, resp.Body)
	assert.Equal(t, "solo", *resp.Body)
}

func TestErrorHandlerThatFailsFallsBackToDefault500(t *testing.T) {
	src := `route "/e" GET {
	Database.get("0");
	Response.send();
} onError(err) {
	Database.get("0");
};`
	in := loadSource(t, src)
	resp := in.Handle("GET", "/e", nil, nil, Body{})
	assert.Equal(t, 500, resp.Status)
	require.NotNil(t, resp.Body)
	assert.Contains(t, *resp.Body, "Internal Server Error:")
}

func TestArrayAccessOutOfRangeIsRuntimeError(t *testing.T) {
	f, err := lang.Parse(`route "/" GET {
	val a = [1, 2];
	val x = a[5];
	Response.body(x);
	Response.send();
};`)
	require.NoError(t, err)
	in := New(nil)
	require.NoError(t, in.Load(f))
	resp := in.Handle("GET", "/", nil, nil, Body{})
	assert.Equal(t, 500, resp.Status)
}
