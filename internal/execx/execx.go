// Package execx wraps external tool invocation with context-driven
// cancellation. Every long-running binary the pipeline shells out to
// (yt-dlp, ffmpeg, ffprobe) goes through here so that a cancel or a
// timeout reliably kills the child process.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Run executes name with args, killing the process when ctx is done.
// Output is captured and returned; a non-zero exit is an error carrying
// the trailing stderr for diagnosis.
func Run(ctx context.Context, name string, args ...string) (*Result, error) {
	cmd := exec.Command(name, args...)
	return RunCmd(ctx, cmd)
}

// RunCmd executes a prepared command under ctx. Used for commands built
// by ffmpeg-go's Compile, which returns *exec.Cmd without a context.
func RunCmd(ctx context.Context, cmd *exec.Cmd) (*Result, error) {
	var stdout, stderr bytes.Buffer
	if cmd.Stdout == nil {
		cmd.Stdout = &stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = &stderr
	}
	// Own process group so a kill reaches ffmpeg's children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", cmd.Path, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		<-done
		return nil, ctx.Err()
	case err := <-done:
		res := &Result{
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Duration: time.Since(start),
		}
		if err != nil {
			return res, fmt.Errorf("%s: %w: %s", cmd.Path, err, tail(res.Stderr, 512))
		}
		return res, nil
	}
}

// Requirement names an external binary the application depends on.
type Requirement struct {
	Name     string
	Command  string
	Optional bool
}

// CheckBinaries verifies the listed binaries resolve on PATH. The
// returned error names every missing required binary.
func CheckBinaries(requirements []Requirement) error {
	var missing []string
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		if cmd == "" {
			cmd = req.Name
		}
		if _, err := exec.LookPath(cmd); err != nil {
			if req.Optional {
				continue
			}
			missing = append(missing, fmt.Sprintf("%s (%s)", req.Name, cmd))
		}
	}
	if len(missing) > 0 {
		return errors.New("missing required binaries: " + strings.Join(missing, ", "))
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
