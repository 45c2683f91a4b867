package sc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckChoice(t *testing.T) {
	v, err := checkChoice("schedule.type", "never", scheduleTypes...)
	require.NoError(t, err)
	assert.Equal(t, "never", v)

	_, err = checkChoice("schedule.type", "weekly", scheduleTypes...)
	require.Error(t, err)
	// The message names the field, the offending value and the allowed set.
	assert.Contains(t, err.Error(), "schedule.type")
	assert.Contains(t, err.Error(), "weekly")
	assert.Contains(t, err.Error(), "dependent, never, rollover, template")
}

func TestCheckID(t *testing.T) {
	id, err := checkID("id", 42)
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	for _, bad := range []int{0, -1} {
		_, err := checkID("id", bad)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "id", vErr.Field)
	}
}

func TestCheckNotEmpty(t *testing.T) {
	_, err := checkNotEmpty("trigger.name", "")
	require.Error(t, err)

	v, err := checkNotEmpty("trigger.name", "sumip")
	require.NoError(t, err)
	assert.Equal(t, "sumip", v)
}

func TestCheckActions(t *testing.T) {
	actions := []Action{{"type": "email", "subject": "hi"}}
	out, err := checkActions("action", actions)
	require.NoError(t, err)
	assert.Equal(t, actions, out)

	_, err = checkActions("action", []Action{{"type": "email"}, nil})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "action", vErr.Field)
}
