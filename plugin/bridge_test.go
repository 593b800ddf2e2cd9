package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDispatchResultOK(t *testing.T) {
	v, err := parseDispatchResult("math", "random", "OK:1")
	assert.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestParseDispatchResultErr(t *testing.T) {
	_, err := parseDispatchResult("math", "random", "ERR:boom")
	assert.EqualError(t, err, "boom")
}

func TestParseDispatchResultEmptyIsMalformed(t *testing.T) {
	_, err := parseDispatchResult("math", "random", "")
	assert.Error(t, err)
}

func TestParseDispatchResultMissingPrefixIsMalformed(t *testing.T) {
	_, err := parseDispatchResult("math", "random", "1")
	assert.Error(t, err)
}

func TestParseDispatchResultNonUTF8IsMalformed(t *testing.T) {
	_, err := parseDispatchResult("math", "random", "OK:\xff\xfe")
	assert.Error(t, err)
}
