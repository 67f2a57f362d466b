package ffmpeg

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// stderrTail bounds how much encoder/decoder chatter is kept for errors.
const stderrTail = 4 << 10

// Process is a running ffmpeg invocation with optional stdin/stdout pipes.
// Wait is performed exactly once, by Close or Kill.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr *tailBuffer

	once    sync.Once
	waitErr error
}

// Start launches bin with args. withStdin/withStdout select which pipes are
// attached; stderr is always captured (tail only) for diagnostics.
func Start(bin string, args []string, withStdin, withStdout bool) (*Process, error) {
	cmd := exec.Command(bin, args...)
	p := &Process{cmd: cmd, stderr: &tailBuffer{max: stderrTail}}
	cmd.Stderr = p.stderr
	var err error
	if withStdin {
		if p.stdin, err = cmd.StdinPipe(); err != nil {
			return nil, fmt.Errorf("ffmpeg stdin: %w", err)
		}
	}
	if withStdout {
		if p.stdout, err = cmd.StdoutPipe(); err != nil {
			return nil, fmt.Errorf("ffmpeg stdout: %w", err)
		}
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", bin, err)
	}
	return p, nil
}

// Stdin returns the process input pipe, or nil.
func (p *Process) Stdin() io.Writer { return p.stdin }

// Stdout returns the process output pipe, or nil.
func (p *Process) Stdout() io.Reader { return p.stdout }

// Stderr returns the captured tail of the process error output.
func (p *Process) Stderr() string { return p.stderr.String() }

// Close closes stdin (signalling end of input) and waits for the process to
// exit, letting an encoder finalize its container.
func (p *Process) Close() error {
	if p.stdin != nil {
		_ = p.stdin.Close()
	}
	return p.wait()
}

// Kill terminates the process and reaps it. A kill-induced exit status is
// not reported as an error.
func (p *Process) Kill() error {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	if p.stdin != nil {
		_ = p.stdin.Close()
	}
	err := p.wait()
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return nil
	}
	return err
}

// Abort signals the process to terminate without reaping it; a later Close
// or Kill collects the exit status. Safe to call from another goroutine.
func (p *Process) Abort() {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
}

func (p *Process) wait() error {
	p.once.Do(func() {
		if err := p.cmd.Wait(); err != nil {
			if tail := strings.TrimSpace(p.stderr.String()); tail != "" {
				err = fmt.Errorf("%w: %s", err, tail)
			}
			p.waitErr = err
		}
	})
	return p.waitErr
}

// tailBuffer is an io.Writer keeping only the last max bytes written.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.max; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
