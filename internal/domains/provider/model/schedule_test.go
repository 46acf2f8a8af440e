package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeeklySchedule_Validate(t *testing.T) {
	valid := WeeklySchedule{
		"monday":   {Open: "09:00", Close: "18:00"},
		"saturday": {Open: "10:00", Close: "14:30"},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name     string
		schedule WeeklySchedule
	}{
		{"unknown day", WeeklySchedule{"funday": {Open: "09:00", Close: "18:00"}}},
		{"bad open format", WeeklySchedule{"monday": {Open: "9am", Close: "18:00"}}},
		{"bad close format", WeeklySchedule{"monday": {Open: "09:00", Close: "25:00"}}},
		{"open after close", WeeklySchedule{"monday": {Open: "18:00", Close: "09:00"}}},
		{"open equals close", WeeklySchedule{"monday": {Open: "09:00", Close: "09:00"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schedule.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSchedule)
		})
	}
}

func TestWeeklySchedule_ValueScanRoundTrip(t *testing.T) {
	ws := WeeklySchedule{"tuesday": {Open: "08:30", Close: "17:00"}}

	v, err := ws.Value()
	require.NoError(t, err)

	var decoded WeeklySchedule
	require.NoError(t, decoded.Scan(v))
	assert.Equal(t, ws, decoded)

	var empty WeeklySchedule
	require.NoError(t, empty.Scan(nil))
	assert.Nil(t, empty)
}
