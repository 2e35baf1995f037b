package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{input: "30", want: 30 * time.Minute},
		{input: "0", want: 0},
		{input: " 120 ", want: 2 * time.Hour},
		{input: "2h", want: 2 * time.Hour},
		{input: "45m", want: 45 * time.Minute},
		{input: "2h30m", want: 150 * time.Minute},
		{input: "1H30", want: 90 * time.Minute},
		{input: "90s", want: 90 * time.Second},
		{input: "-5", wantErr: true},
		{input: "-1h", wantErr: true},
		{input: "", wantErr: true},
		{input: "soon", wantErr: true},
		{input: "1h30x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDurationNegativeIsTyped(t *testing.T) {
	_, err := ParseDuration("-10m")
	assert.ErrorIs(t, err, ErrNegativeDuration)
}

func TestCeilMinutes(t *testing.T) {
	assert.Equal(t, 0, CeilMinutes(0))
	assert.Equal(t, 1, CeilMinutes(time.Second))
	assert.Equal(t, 2, CeilMinutes(61*time.Second))
	assert.Equal(t, 60, CeilMinutes(time.Hour))
}

func TestNextClock(t *testing.T) {
	now := time.Date(2024, 3, 10, 14, 30, 0, 0, time.Local)
	today := func(h, m int) time.Time { return time.Date(2024, 3, 10, h, m, 0, 0, time.Local) }
	tomorrow := func(h, m int) time.Time { return time.Date(2024, 3, 11, h, m, 0, 0, time.Local) }

	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{input: "23:30", want: today(23, 30)},
		{input: "11:30PM", want: today(23, 30)},
		{input: "11:30 pm", want: today(23, 30)},
		{input: "5PM", want: today(17, 0)},
		{input: "09:45", want: tomorrow(9, 45)},
		{input: "9:45 AM", want: tomorrow(9, 45)},
		{input: "14:30", want: tomorrow(14, 30)},
		{input: "12:00AM", want: tomorrow(0, 0)},
		{input: "25:00", wantErr: true},
		{input: "13:00PM", wantErr: true},
		{input: "noon", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NextClock(tt.input, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}
