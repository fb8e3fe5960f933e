package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidSerial(t *testing.T) {
	assert.True(t, ValidSerial("ABCD1234"))
	assert.True(t, ValidSerial("SN-0001-XY"))
	assert.False(t, ValidSerial("ABC123"), "too short")
	assert.False(t, ValidSerial("ABCD 1234"), "space")
	assert.False(t, ValidSerial("ABCD_1234"), "underscore")
	assert.False(t, ValidSerial(""))
}

func TestNormalizeSerial(t *testing.T) {
	assert.Equal(t, "ABC12345", NormalizeSerial("  abc12345 \n"))
}

func TestPolicyTransitions(t *testing.T) {
	assert.True(t, PolicyPending.CanTransition(PolicyActive))
	assert.True(t, PolicyPending.CanTransition(PolicyCancelled))
	assert.True(t, PolicyActive.CanTransition(PolicyExpired))
	assert.False(t, PolicyPending.CanTransition(PolicyExpired))
	assert.False(t, PolicyCancelled.CanTransition(PolicyActive))
	assert.False(t, PolicyExpired.CanTransition(PolicyActive))
}
