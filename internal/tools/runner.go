package tools

import (
	"bytes"
	"errors"
	"io"
	"os/exec"
)

// ExitNotFound is reported when the command itself could not be started.
const ExitNotFound int32 = 127

// CommandRunner abstracts external command execution. Implementations block
// until the child exits.
type CommandRunner interface {
	Run(name string, args ...string) ([]byte, []byte, int32, error)
}

// ExecRunner executes commands on the local host.
//
// Dir and Env default to the parent process when empty. When Stdout or Stderr
// are set the child's output is streamed there as well as captured.
type ExecRunner struct {
	Dir    string
	Env    []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (r ExecRunner) Run(name string, args ...string) ([]byte, []byte, int32, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = r.Env
	}
	cmd.Stdin = r.Stdin

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = tee(&stdout, r.Stdout)
	cmd.Stderr = tee(&stderr, r.Stderr)

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), stderr.Bytes(), 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), stderr.Bytes(), int32(exitErr.ExitCode()), err
	}

	exitCode := int32(1)
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		exitCode = ExitNotFound
	}
	return stdout.Bytes(), stderr.Bytes(), exitCode, err
}

func tee(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}
