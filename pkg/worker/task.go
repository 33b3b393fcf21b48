package worker

import (
	"github.com/jzx17/taskpool/pkg/types"
)

// ArgTask binds an action to a single argument. The argument is passed
// through unchanged; its lifetime belongs to the caller or the action.
func ArgTask(action func(arg any), arg any) types.Task {
	if action == nil {
		return nil
	}
	return func() {
		action(arg)
	}
}
