package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"github.com/dmitrijs2005/swengineer/internal/logging"
)

// WorkerEnv marks a process started by Process as worker number N.
const WorkerEnv = "SWENGINEER_WORKER"

// executable is a seam for tests.
var executable = os.Executable

// WorkerID reports whether this process is a worker and which one.
func WorkerID() (int, bool) {
	v, ok := os.LookupEnv(WorkerEnv)
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(v)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// Process re-executes the running binary with args for every worker.
// Cancelling ctx sends SIGTERM; a worker still running after grace is
// killed.
func Process(args []string, grace time.Duration, log logging.Logger) Launcher {
	return func(ctx context.Context, id int) error {
		exe, err := executable()
		if err != nil {
			return fmt.Errorf("resolve executable: %w", err)
		}

		cmd := exec.CommandContext(ctx, exe, args...)
		cmd.Env = append(os.Environ(), WorkerEnv+"="+strconv.Itoa(id))
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
		cmd.WaitDelay = grace

		if err := cmd.Start(); err != nil {
			return fmt.Errorf("start worker %d: %w", id, err)
		}
		log.Info(ctx, "worker started", "worker", id, "pid", cmd.Process.Pid)

		if err := cmd.Wait(); err != nil {
			return fmt.Errorf("worker %d (pid %d): %w", id, cmd.Process.Pid, err)
		}
		return nil
	}
}
