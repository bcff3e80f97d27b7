package tasks

import (
	"github.com/lysyi3m/tg-sentinel/app/message"
)

// Action is the outcome of scoring a pending unit against its channel's
// threshold and publication history.
type Action string

const (
	// ActionPublish delivers the unit to the target channel
	ActionPublish Action = "publish"
	// ActionSuppress finalizes the unit without delivering it
	ActionSuppress Action = "suppress"
	// ActionPropagate rewrites the already published copy with edited content
	ActionPropagate Action = "propagate"
	// ActionRetract deletes the published copy of a unit whose edit turned it
	// into an ad
	ActionRetract Action = "retract"
)

// Decide resolves what to do with a scored unit. linked reports whether a
// published copy exists, allowed whether the score stayed under the channel's
// gap. An edited unit that was never published (it scored too high the first
// time, or arrived already edited) is treated like a new one.
func Decide(status message.Status, linked, allowed bool) Action {
	if status == message.StatusEdited && linked {
		if allowed {
			return ActionPropagate
		}
		return ActionRetract
	}

	if allowed {
		return ActionPublish
	}
	return ActionSuppress
}
