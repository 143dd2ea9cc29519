package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAliaser_FirstSeenOrder(t *testing.T) {
	a := NewAliaser("tok")

	assert.Equal(t, "tok-1", a.Alias("018f-aaaa"))
	assert.Equal(t, "tok-2", a.Alias("018f-bbbb"))

	// Repeats resolve to the same alias.
	assert.Equal(t, "tok-1", a.Alias("018f-aaaa"))
	assert.Equal(t, "tok-3", a.Alias("018f-cccc"))
}

func TestAliaser_EmptyID(t *testing.T) {
	a := NewAliaser("tok")
	assert.Equal(t, "", a.Alias(""))
	// The empty id does not consume an ordinal.
	assert.Equal(t, "tok-1", a.Alias("x"))
}
