package executil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
)

// BuildCommand builds an exec.Cmd with the given command, args and
// extra env. A bare command with no args runs through the shell.
func BuildCommand(ctx context.Context, command string, args []string, env map[string]string) *exec.Cmd {
	var cmd *exec.Cmd
	if len(args) == 0 {
		cmd = exec.CommandContext(ctx, "bash", "-c", command)
	} else {
		cmd = exec.CommandContext(ctx, command, args...)
	}

	cmd.Env = os.Environ()
	for key, value := range env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, os.ExpandEnv(value)))
	}

	return cmd
}

// RunCommand executes a command and returns combined output, exit code,
// and error.
func RunCommand(ctx context.Context, command string, args []string, env map[string]string) (string, int, error) {
	cmd := BuildCommand(ctx, command, args, env)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	err := cmd.Run()
	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	return output.String(), exitCode, err
}
