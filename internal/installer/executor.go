package installer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/quantmind-br/debinstall/internal/core"
	"github.com/quantmind-br/debinstall/internal/helpers"
	"github.com/rs/zerolog"
)

const readChunkSize = 4096

// DpkgExecutor runs "dpkg -i" and relays its output as it arrives
type DpkgExecutor struct {
	runner     helpers.CommandRunner
	binary     string
	useSudo    bool
	sudoBinary string
	logger     *zerolog.Logger
}

// Options configures a DpkgExecutor
type Options struct {
	Binary     string
	UseSudo    bool
	SudoBinary string
}

// NewDpkgExecutor creates an executor with the default command runner
func NewDpkgExecutor(opts Options, log *zerolog.Logger) *DpkgExecutor {
	return NewDpkgExecutorWithRunner(helpers.NewOSCommandRunner(), opts, log)
}

// NewDpkgExecutorWithRunner creates an executor with a custom command runner
func NewDpkgExecutorWithRunner(runner helpers.CommandRunner, opts Options, log *zerolog.Logger) *DpkgExecutor {
	if opts.Binary == "" {
		opts.Binary = "dpkg"
	}
	l := log.With().Str("component", "installer").Logger()
	return &DpkgExecutor{
		runner:     runner,
		binary:     opts.Binary,
		useSudo:    opts.UseSudo,
		sudoBinary: opts.SudoBinary,
		logger:     &l,
	}
}

// Start spawns the installer. The returned channel yields output chunks from
// stdout and stderr in arrival order, then a single result, then closes.
// There is no timeout; the process runs until it exits. Once ctx is done
// output is no longer relayed; it is kept and reported in the result's
// ErrorOutput instead.
func (e *DpkgExecutor) Start(ctx context.Context, path string) (<-chan core.InstallEvent, error) {
	name, args := helpers.Privileged(e.useSudo, e.sudoBinary, e.binary, "-i", path)

	cmd := e.runner.PrepareCommand(ctx, name, args...)
	if cmd == nil {
		return nil, fmt.Errorf("failed to prepare %s", name)
	}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to capture installer stdout: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to capture installer stderr: %w", err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	e.logger.Info().
		Str("command", name).
		Strs("args", args).
		Int("pid", cmd.Process.Pid).
		Msg("installer started")

	events := make(chan core.InstallEvent, 16)
	var stdoutRest, stderrRest bytes.Buffer

	var wg sync.WaitGroup
	wg.Add(2)
	go e.relay(ctx, &wg, stdoutPipe, &stdoutRest, events, "stdout")
	go e.relay(ctx, &wg, stderrPipe, &stderrRest, events, "stderr")

	go func() {
		defer close(events)

		// Pipes must be drained before Wait closes them
		wg.Wait()
		waitErr := cmd.Wait()

		result := buildResult(cmd, waitErr, stdoutRest.String(), stderrRest.String())
		result.Duration = time.Since(start)

		e.logger.Info().
			Int("exit_code", result.ExitCode).
			Bool("normal_exit", result.NormalExit).
			Dur("duration", result.Duration).
			Msg("installer finished")

		events <- core.InstallEvent{Result: &result}
	}()

	return events, nil
}

// relay forwards every chunk read from r. Chunks that could not be delivered
// because ctx is done go to rest; the pipe is drained either way.
func (e *DpkgExecutor) relay(ctx context.Context, wg *sync.WaitGroup, r io.Reader, rest *bytes.Buffer, events chan<- core.InstallEvent, stream string) {
	defer wg.Done()

	chunk := make([]byte, readChunkSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			text := string(chunk[:n])
			if ctx.Err() != nil {
				rest.WriteString(text)
			} else {
				select {
				case events <- core.InstallEvent{Output: text}:
				case <-ctx.Done():
					rest.WriteString(text)
				}
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				e.logger.Warn().Err(err).Str("stream", stream).Msg("failed to read installer output")
			}
			return
		}
	}
}

// buildResult fills ErrorOutput from output that was never relayed, stderr first
func buildResult(cmd *exec.Cmd, waitErr error, stdout, stderr string) core.InstallResult {
	result := core.InstallResult{ExitCode: -1}

	if cmd.ProcessState != nil {
		result.NormalExit = cmd.ProcessState.Exited()
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	// Wait can fail on I/O even when the process exited 0
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		result.NormalExit = false
	}

	if !result.Succeeded() {
		result.ErrorOutput = stderr
		if result.ErrorOutput == "" {
			result.ErrorOutput = stdout
		}
	}
	return result
}
