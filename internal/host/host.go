// Package host stops and restarts the host application around plugin
// mutations, so its file locks on the plugin directory are released.
package host

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/zjrosen/plugman/internal/log"
)

// ErrProcess indicates the host process could not be stopped or started.
var ErrProcess = errors.New("host process control failed")

// Controller defines host process operations.
// This abstraction allows for easy testing with mock implementations.
type Controller interface {
	// Stop forcefully terminates the host by image name. Failure is fatal
	// for the calling command: nothing is safe to mutate while the host
	// may hold plugin files open.
	Stop() error
	// Start relaunches the host executable, detached from this process.
	// Failure is reported by callers but is non-fatal.
	Start() error
}

// Prompter asks the user for a line of input. Injected so tests never
// block on stdin.
type Prompter func(msg string) (string, error)

// Compile-time check that ExecController implements Controller.
var _ Controller = (*ExecController)(nil)

// ExecController implements Controller by executing real process commands.
type ExecController struct {
	imageFilter string
	executable  string
	probePaths  []string
	elevate     bool
	prompt      Prompter
}

// NewExecController creates an ExecController.
// executable may be empty; probePaths are consulted in order and the
// prompter is the last resort.
func NewExecController(imageFilter, executable string, probePaths []string, elevate bool, prompt Prompter) *ExecController {
	return &ExecController{
		imageFilter: imageFilter,
		executable:  executable,
		probePaths:  probePaths,
		elevate:     elevate,
		prompt:      prompt,
	}
}

// Stop terminates every process whose image name matches the filter.
// A filter that matches no running process is a success.
func (c *ExecController) Stop() error {
	cmd := killCommand(c.imageFilter, c.elevate)
	out, err := cmd.CombinedOutput()
	if err != nil && !noProcessMatched(err, out) {
		log.ErrorErr(log.CatHost, "failed to stop host", err, "filter", c.imageFilter)
		return fmt.Errorf("%w: stopping %s: %v", ErrProcess, c.imageFilter, err)
	}
	log.Info(log.CatHost, "host stopped", "filter", c.imageFilter)
	return nil
}

// Start spawns the host executable and releases it; the manager does not
// wait for or own the host's exit.
func (c *ExecController) Start() error {
	path, err := c.ExecutablePath()
	if err != nil {
		return err
	}

	cmd := exec.Command(path) //nolint:gosec // G204: path is the configured or probed host executable
	if err := cmd.Start(); err != nil {
		log.ErrorErr(log.CatHost, "failed to start host", err, "path", path)
		return fmt.Errorf("%w: starting %s: %v", ErrProcess, path, err)
	}
	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("%w: releasing host process: %v", ErrProcess, err)
	}
	log.Info(log.CatHost, "host started", "path", path)
	return nil
}

// ExecutablePath resolves the host executable: the configured path first,
// then the well-known probe locations, then an interactive prompt.
func (c *ExecController) ExecutablePath() (string, error) {
	if c.executable != "" {
		return c.executable, nil
	}
	for _, path := range c.probePaths {
		if _, err := os.Stat(path); err == nil {
			log.Debug(log.CatHost, "host executable found", "path", path)
			return path, nil
		}
	}
	if c.prompt == nil {
		return "", fmt.Errorf("%w: host executable not found in any of the expected locations", ErrProcess)
	}
	path, err := c.prompt("Host executable not found in any of the expected locations\nEnter path: ")
	if err != nil {
		return "", fmt.Errorf("%w: reading executable path: %v", ErrProcess, err)
	}
	return path, nil
}

// killCommand builds the platform's name-filtered forceful kill.
func killCommand(imageFilter string, elevate bool) *exec.Cmd {
	if runtime.GOOS == "windows" {
		filter := fmt.Sprintf("IMAGENAME eq %s*", imageFilter)
		if elevate {
			// runas via PowerShell keeps taskkill's filter semantics.
			arg := fmt.Sprintf("Start-Process taskkill -Verb RunAs -Wait -ArgumentList '/F','/FI','%s'", filter)
			return exec.Command("powershell", "-NoProfile", "-Command", arg)
		}
		return exec.Command("taskkill", "/F", "/FI", filter)
	}
	return exec.Command("pkill", "-f", imageFilter)
}

// noProcessMatched recognizes the "nothing to kill" outcomes.
// pkill exits 1 when no process matched; taskkill reports it on stdout.
func noProcessMatched(err error, out []byte) bool {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return runtime.GOOS != "windows" ||
			strings.Contains(string(out), "No tasks are running")
	}
	return false
}
