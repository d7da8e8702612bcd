package station

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	for _, name := range []string{"initiate_swap", "Initiate-Swap", " initiate_swap "} {
		a, err := ParseAction(name)
		require.NoError(t, err, name)
		assert.Equal(t, ActionInitiateSwap, a)
	}
	_, err := ParseAction("self_destruct")
	require.ErrorIs(t, err, ErrUnknownAction)
}

func TestApplyDispatches(t *testing.T) {
	h := newHarness(t, Config{}, 0.2)
	require.ErrorIs(t, h.c.Apply(ActionEmergencyStop), ErrNothingToStop)
	require.NoError(t, h.c.Apply(ActionActivateManualMode))
	assert.Equal(t, ModeManual, h.c.Snapshot().Mode)
	require.NoError(t, h.c.Apply(ActionActivateAlignmentMode))
	assert.Equal(t, ModeAlignment, h.c.Snapshot().Mode)
	require.NoError(t, h.c.Apply(ActionStartHoming))
	assert.True(t, h.c.Snapshot().Homing)
	require.NoError(t, h.c.Apply(ActionInitiateSwap))
	assert.True(t, h.c.Snapshot().SwapInProgress)
	require.NoError(t, h.c.Apply(ActionReset))
	assert.False(t, h.c.Snapshot().SwapInProgress)
	require.ErrorIs(t, h.c.Apply(Action("warp")), ErrUnknownAction)
}
