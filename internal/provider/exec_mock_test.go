// SPDX-License-Identifier: MPL-2.0

package provider

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"

	"bundlectl/internal/container"
)

// execRecorder captures engine CLI invocations via the TestHelperProcess
// pattern, mirroring the container package's test mock.
type execRecorder struct {
	Invocations [][]string
	ExitCode    int
	Stdout      string
	Stderr      string
}

func (r *execRecorder) commandFunc(t *testing.T) container.ExecCommandFunc {
	t.Helper()
	return func(_ context.Context, name string, args ...string) *exec.Cmd {
		r.Invocations = append(r.Invocations, args)

		cs := []string{"-test.run=TestHelperProcess", "--", name}
		cs = append(cs, args...)
		//nolint:gosec // TestHelperProcess is a test-only pattern
		cmd := exec.Command(os.Args[0], cs...) //nolint:noctx // exec.Command used intentionally for test helper
		cmd.Env = []string{
			"GO_WANT_HELPER_PROCESS=1",
			fmt.Sprintf("GO_HELPER_EXIT_CODE=%d", r.ExitCode),
			fmt.Sprintf("GO_HELPER_STDOUT=%s", r.Stdout),
			fmt.Sprintf("GO_HELPER_STDERR=%s", r.Stderr),
		}
		return cmd
	}
}

func (r *execRecorder) lastArgs() []string {
	if len(r.Invocations) == 0 {
		return nil
	}
	return r.Invocations[len(r.Invocations)-1]
}

// TestHelperProcess simulates CLI execution for the mock recorder.
// Not a real test; only runs when re-invoked by commandFunc.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	if stdout := os.Getenv("GO_HELPER_STDOUT"); stdout != "" {
		fmt.Fprint(os.Stdout, stdout)
	}
	if stderr := os.Getenv("GO_HELPER_STDERR"); stderr != "" {
		fmt.Fprint(os.Stderr, stderr)
	}
	exitCode := 0
	if os.Getenv("GO_HELPER_EXIT_CODE") == "1" {
		exitCode = 1
	}
	os.Exit(exitCode)
}
