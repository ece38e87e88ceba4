// pkg/backend/command.go
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/arc-language/reponere/pkg/version"
)

// result is the outcome of a subprocess that ran to completion.
type result struct {
	stdout   []byte
	stderr   []byte
	exitCode int
}

// runFunc runs argv and returns its result. The error is reserved for
// processes that could not be run at all; a non-zero exit is a result.
type runFunc func(ctx context.Context, argv []string) (*result, error)

// commandBackend drives a package manager binary. It is embedded by the
// per-kind backends.
type commandBackend struct {
	name     string
	commands Commands
	config   *Config
	logger   *log.Logger
	run      runFunc

	// most package databases cannot be modified concurrently
	mu sync.Mutex
}

func newCommandBackend(name string, commands Commands, config *Config) *commandBackend {
	if config == nil {
		config = DefaultConfig()
	}
	if config.ElevateCommand == "" {
		config.ElevateCommand = "sudo"
	}

	return &commandBackend{
		name:     name,
		commands: commands,
		config:   config,
		logger:   newLogger(config, name),
		run:      execRun,
	}
}

// Name returns the backend name
func (b *commandBackend) Name() string {
	return b.name
}

// Commands returns the command template of the backend
func (b *commandBackend) Commands() Commands {
	return b.commands
}

// Install installs a package
func (b *commandBackend) Install(ctx context.Context, name string) error {
	res, err := b.invoke(ctx, b.commands.InstallFlags, name)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrFailedInstall, name, err)
	}
	if res.exitCode != 0 {
		return fmt.Errorf("%w %s: %s", ErrFailedInstall, name, exitMessage(res))
	}
	return nil
}

// Uninstall removes a package
func (b *commandBackend) Uninstall(ctx context.Context, name string) error {
	res, err := b.invoke(ctx, b.commands.UninstallFlags, name)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrFailedUninstall, name, err)
	}
	if res.exitCode != 0 {
		return fmt.Errorf("%w %s: %s", ErrFailedUninstall, name, exitMessage(res))
	}
	return nil
}

// InstalledVersion queries the installed version of a package
func (b *commandBackend) InstalledVersion(ctx context.Context, name string) (string, bool, error) {
	return b.queryVersion(ctx, b.commands.InstalledFlags, name)
}

// AvailableVersion queries the version offered by the repositories
func (b *commandBackend) AvailableVersion(ctx context.Context, name string) (string, bool, error) {
	return b.queryVersion(ctx, b.commands.AvailableFlags, name)
}

// queryVersion runs a listing command and scans its output. Package managers
// exit non-zero for unknown packages, so the exit code is not an error here.
func (b *commandBackend) queryVersion(ctx context.Context, flags []string, name string) (string, bool, error) {
	res, err := b.invoke(ctx, flags, name)
	if err != nil {
		return "", false, fmt.Errorf("%w %s: %w", ErrFailedGetVersion, name, err)
	}

	v, ok := scanVersion(string(res.stdout))
	if !ok {
		b.logger.Debug("no version found", "package", name, "exit", res.exitCode)
	}
	return v, ok, nil
}

// argv builds the full command line for flags and a package name.
func (b *commandBackend) argv(flags []string, name string) []string {
	var argv []string
	if b.config.Sudo {
		argv = append(argv, strings.Fields(b.config.ElevateCommand)...)
	}
	argv = append(argv, b.commands.Binary)
	argv = append(argv, flags...)
	return append(argv, name)
}

func (b *commandBackend) invoke(ctx context.Context, flags []string, name string) (*result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.config.Timeout)
		defer cancel()
	}

	argv := b.argv(flags, name)
	b.logger.Debug("running", "cmd", strings.Join(argv, " "))

	res, err := b.run(ctx, argv)
	if err != nil {
		return nil, err
	}

	if len(res.stdout) > 0 {
		b.logger.Debug(strings.TrimSpace(string(res.stdout)))
	}
	if len(res.stderr) > 0 {
		b.logger.Debug(strings.TrimSpace(string(res.stderr)))
	}
	return res, nil
}

// scanVersion returns the first whitespace-delimited token of output that
// parses as a version.
func scanVersion(output string) (string, bool) {
	for _, field := range strings.Fields(output) {
		if version.Valid(field) {
			return field, true
		}
	}
	return "", false
}

func exitMessage(res *result) string {
	msg := fmt.Sprintf("exit status %d", res.exitCode)
	if stderr := strings.TrimSpace(string(res.stderr)); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func execRun(ctx context.Context, argv []string) (*result, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &result{stdout: stdout.Bytes(), stderr: stderr.Bytes(), exitCode: exitErr.ExitCode()}, nil
	}
	if err != nil {
		return nil, err
	}
	return &result{stdout: stdout.Bytes(), stderr: stderr.Bytes()}, nil
}
