package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestTimerFlagsMinutes(t *testing.T) {
	// Use a fixed time for consistent testing
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local) // 10:00 AM

	tests := []struct {
		name        string
		args        []string
		wantMinutes int
		wantErr     bool
	}{
		{
			name:        "valid duration flag",
			args:        []string{"-d", "2h30m"},
			wantMinutes: 150,
		},
		{
			name:        "plain minutes",
			args:        []string{"--duration", "150"},
			wantMinutes: 150,
		},
		{
			name:        "seconds round up",
			args:        []string{"-d", "90s"},
			wantMinutes: 2,
		},
		{
			name:        "valid clock 24h format",
			args:        []string{"-u", "22:30"},
			wantMinutes: 750,
		},
		{
			name:        "valid clock 12h format PM",
			args:        []string{"--until", "10:30PM"},
			wantMinutes: 750,
		},
		{
			name:        "clock earlier than now wraps to tomorrow",
			args:        []string{"-u", "09:45AM"},
			wantMinutes: 1425,
		},
		{
			name:    "invalid clock format",
			args:    []string{"-u", "25:00"},
			wantErr: true,
		},
		{
			name:    "both duration and clock flags",
			args:    []string{"-d", "2h30m", "-u", "22:30"},
			wantErr: true,
		},
		{
			name:    "more than a day",
			args:    []string{"-d", "25h"},
			wantErr: true,
		},
		{
			name:        "no flags",
			args:        nil,
			wantMinutes: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tf TimerFlags
			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			tf.Bind(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("Parse() unexpected error: %v", err)
			}

			got, err := tf.Minutes(now)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Minutes() = %d, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Minutes() unexpected error: %v", err)
			}
			if got != tt.wantMinutes {
				t.Errorf("Minutes() = %d, want %d", got, tt.wantMinutes)
			}
		})
	}
}
