package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/ayusman/scoreturner/internal/log"
)

// ErrTimeout is returned when a plugin runs past the executor's timeout.
var ErrTimeout = errors.New("plugin execution timeout")

// maxOutput bounds how much plugin output ends up in an error message.
const maxOutput = 512

// Executor runs plugin processes, one request per process.
type Executor struct {
	timeout time.Duration
}

// NewExecutor creates an Executor that kills plugins after timeoutMs.
func NewExecutor(timeoutMs int) *Executor {
	return &Executor{timeout: time.Duration(timeoutMs) * time.Millisecond}
}

// Execute writes req to the plugin's stdin as JSON and parses its stdout as
// a Response. The plugin is killed when ctx is cancelled or the timeout
// elapses, whichever comes first. A Response with Success false is not an
// error here; callers decide what a refused action means.
func (e *Executor) Execute(ctx context.Context, plugin *Plugin, req *Request) (*Response, error) {
	input, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, plugin.Executable)
	cmd.Dir = plugin.Path
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Children of a killed plugin may still hold stdout open.
	cmd.WaitDelay = 500 * time.Millisecond

	start := time.Now()
	runErr := cmd.Run()
	log.Debug("plugin finished", "plugin", plugin.Manifest.Name, "action", req.Action, "took", time.Since(start))

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	case errors.Is(ctx.Err(), context.Canceled):
		return nil, ctx.Err()
	case runErr != nil:
		if msg := clip(stderr.String()); msg != "" {
			return nil, fmt.Errorf("plugin execution failed: %w, stderr: %s", runErr, msg)
		}
		return nil, fmt.Errorf("plugin execution failed: %w", runErr)
	}

	var resp Response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse plugin response: %w, stdout: %s", err, clip(stdout.String()))
	}
	return &resp, nil
}

func clip(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxOutput {
		return s[:maxOutput] + "..."
	}
	return s
}
