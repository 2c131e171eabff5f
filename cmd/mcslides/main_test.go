package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		arg    string
		event  string
		kwargs map[string]any
	}{
		{"ball_started", "ball_started", nil},
		{"ball_started:", "ball_started", nil},
		{"player_score:player=1,score=1500", "player_score", map[string]any{"player": 1, "score": 1500}},
		{"shot:name=left ramp,hit=true,ratio=0.5", "shot", map[string]any{"name": "left ramp", "hit": true, "ratio": 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			event, kwargs := parseEvent(tt.arg)
			assert.Equal(t, tt.event, event)
			assert.Equal(t, tt.kwargs, kwargs)
		})
	}
}
