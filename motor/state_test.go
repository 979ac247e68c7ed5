package motor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAxisState_String(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "homing", StateHoming.String())
	assert.Equal(t, "moving", StateMoving.String())
	assert.Equal(t, "unknown", AxisState(99).String())
}

func TestAxisState_Predicates(t *testing.T) {
	assert.True(t, StateDisconnected.IsDisconnected())
	assert.True(t, StateIdle.IsIdle())
	assert.True(t, StateHoming.IsHoming())
	assert.True(t, StateMoving.IsMoving())

	assert.False(t, StateIdle.IsMoving())
	assert.False(t, StateMoving.IsIdle())
	assert.False(t, StateIdle.IsDisconnected())
}
