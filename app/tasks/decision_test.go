package tasks

import (
	"testing"

	"github.com/lysyi3m/tg-sentinel/app/message"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		status   message.Status
		linked   bool
		allowed  bool
		expected Action
	}{
		{"new clean unit is published", message.StatusNew, false, true, ActionPublish},
		{"new ad is suppressed", message.StatusNew, false, false, ActionSuppress},
		{"edited published unit is rewritten", message.StatusEdited, true, true, ActionPropagate},
		{"edit that turned into an ad is retracted", message.StatusEdited, true, false, ActionRetract},
		{"edited never-published unit is published", message.StatusEdited, false, true, ActionPublish},
		{"edited never-published ad stays suppressed", message.StatusEdited, false, false, ActionSuppress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.status, tt.linked, tt.allowed); got != tt.expected {
				t.Errorf("Decide(%s, linked=%v, allowed=%v) = %s, expected %s",
					tt.status, tt.linked, tt.allowed, got, tt.expected)
			}
		})
	}
}
