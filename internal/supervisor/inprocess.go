package supervisor

import (
	"context"
	"fmt"
	"runtime/debug"
)

// InProcess runs each worker as a goroutine. A panic ends only that worker
// and is reported as its exit error.
func InProcess(run func(ctx context.Context, id int) error) Launcher {
	return func(ctx context.Context, id int) (err error) {
		defer func() {
			if v := recover(); v != nil {
				err = fmt.Errorf("worker %d panicked: %v\n%s", id, v, debug.Stack())
			}
		}()
		return run(ctx, id)
	}
}
