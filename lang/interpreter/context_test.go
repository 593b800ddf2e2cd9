package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextLookupParentChain(t *testing.T) {
	root := NewContext()
	root.Set("a", "1")
	child := root.withErrorVar("e", "boom")

	v, ok := child.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	v, ok = child.Lookup("e")
	assert.True(t, ok)
	assert.Equal(t, "boom", v)

	_, ok = root.Lookup("e")
	assert.False(t, ok, "parent must not see child bindings")
}

func TestContextSetInOwningContextWalksParentChain(t *testing.T) {
	root := NewContext()
	root.Set("x", "1")
	child := root.child()

	ok := child.setInOwningContext("x", "2")
	assert.True(t, ok)

	v, _ := root.Lookup("x")
	assert.Equal(t, "2", v, "compound assignment must mutate the owning context, not shadow it")
}

func TestContextSetInOwningContextUnboundReturnsFalse(t *testing.T) {
	root := NewContext()
	ok := root.setInOwningContext("missing", "1")
	assert.False(t, ok)
}

func TestContextFreshPerRequestNoLeakage(t *testing.T) {
	c1 := NewContext()
	c1.Set("leftover", "1")

	c2 := NewContext()
	_, ok := c2.Lookup("leftover")
	assert.False(t, ok, "a fresh root context must not see another request's bindings")
}
