package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalAddStringConcatenation(t *testing.T) {
	v, err := evalAdd("a", "b")
	require.NoError(t, err)
	assert.Equal(t, "ab", v)
}

func TestEvalAddNumericPromotion(t *testing.T) {
	v, err := evalAdd("2", "3")
	require.NoError(t, err)
	assert.Equal(t, "5", v)
}

func TestEvalAddMixedFallsBackToConcatenation(t *testing.T) {
	v, err := evalAdd("2", "x")
	require.NoError(t, err)
	assert.Equal(t, "2x", v)
}

func TestEvalArithDivisionByZeroIsError(t *testing.T) {
	_, err := evalArith("/", "3", "0")
	assert.Error(t, err)
}

func TestEvalArithNonNumericIsError(t *testing.T) {
	_, err := evalArith("-", "x", "1")
	assert.Error(t, err)
}

func TestEvalArithPow(t *testing.T) {
	v, err := evalArith("^", "2", "3")
	require.NoError(t, err)
	assert.Equal(t, "8", v)
}

func TestArrayRoundTripEncodeDecode(t *testing.T) {
	encoded, err := encodeJSONArray([]string{"1", "x", "true"})
	require.NoError(t, err)

	decoded, err := decodeJSONArray(encoded)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "x", "true"}, decoded)
}

func TestIsTruthyFalseySet(t *testing.T) {
	assert.False(t, isTruthy("false"))
	assert.False(t, isTruthy("0"))
	assert.False(t, isTruthy(""))
	assert.True(t, isTruthy("1"))
	assert.True(t, isTruthy("anything"))
}

func TestIsConditionTrueStrictSet(t *testing.T) {
	assert.True(t, isConditionTrue("true"))
	assert.True(t, isConditionTrue("1"))
	assert.False(t, isConditionTrue("yes"))
	assert.False(t, isConditionTrue("false"))
}
