package apt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupCommand(t *testing.T) {
	tests := []struct {
		name string
		want Opcode
	}{
		{"MOVE_ABSOLUTE", MoveAbsolute},
		{"MOVE_HOME", MoveHome},
		{"MOVE_COMPLETED", MoveCompleted},
		{"SET_VEL_PARAMS", SetVelParams},
		{"ACK_USTATUSUPDATE", AckUStatusUpdate},
		{"MOD_IDENTIFY", ModIdentify},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := LookupCommand(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, op)
		})
	}
}

func TestLookupCommand_Unknown(t *testing.T) {
	// Lookup fails closed: unknown names are contract violations.
	for _, name := range []string{"", "MOVE_SIDEWAYS", "move_absolute", "MOVE_ABSOLUTE "} {
		_, err := LookupCommand(name)
		require.Error(t, err, "name %q must not resolve", name)
		assert.ErrorIs(t, err, ErrUnknownCommand)
	}
}

func TestOpcodeName(t *testing.T) {
	assert.Equal(t, "MOVE_ABSOLUTE", OpcodeName(MoveAbsolute))
	assert.Equal(t, "GET_USTATUSUPDATE", OpcodeName(GetUStatusUpdate))
	// Unknown opcodes render as hex for diagnostics.
	assert.Equal(t, "0xBEEF", OpcodeName(Opcode(0xBEEF)))
}

func TestCommandTable_NameRoundTrip(t *testing.T) {
	// Every symbolic name resolves to an opcode whose name is itself.
	for name := range commandTable {
		op, err := LookupCommand(name)
		require.NoError(t, err)
		assert.Equal(t, name, OpcodeName(op))
	}
}
