package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/scoreturner/internal/gesture"
	"github.com/ayusman/scoreturner/internal/log"
)

const serviceScript = "face_service.py"

// ErrServiceNotFound is returned when no face service script can be located.
var ErrServiceNotFound = errors.New(serviceScript + " not found")

// ServiceDetector implements Detector using an external face attribute
// process. Each frame is written to its stdin as a 4-byte big-endian length
// followed by JPEG bytes; the process answers with one JSON line.
type ServiceDetector struct {
	config    Config
	argv      []string
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	lastUsed  time.Time
	idleTimer *time.Timer
}

// NewServiceDetector creates a new face service detector.
// The process is started lazily on first detection.
func NewServiceDetector(config Config) (*ServiceDetector, error) {
	argv, err := serviceCommand(config)
	if err != nil {
		return nil, err
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = DefaultConfig().IdleTimeout
	}

	return &ServiceDetector{
		config: config,
		argv:   argv,
	}, nil
}

// Detect encodes the frame as JPEG and returns the faces the service found.
func (d *ServiceDetector) Detect(frame *gocv.Mat) ([]gesture.FaceObservation, error) {
	if frame == nil || frame.Empty() {
		return nil, nil
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	return d.detectEncoded(buf.GetBytes())
}

func (d *ServiceDetector) detectEncoded(data []byte) ([]gesture.FaceObservation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	faces, err := d.roundTrip(data)
	if err != nil {
		// A broken pipe leaves the process unusable; restart on the next frame.
		var svcErr *serviceError
		if !errors.As(err, &svcErr) {
			log.Warn("face service failed, restarting", "error", err)
			d.shutdown()
		}
		return nil, err
	}

	d.lastUsed = time.Now()
	d.resetIdleTimer()

	return faces, nil
}

func (d *ServiceDetector) roundTrip(data []byte) ([]gesture.FaceObservation, error) {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return parseResponse([]byte(line))
}

// Running reports whether the service process is currently up.
func (d *ServiceDetector) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

// Close shuts down the service process.
func (d *ServiceDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *ServiceDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	d.cmd = exec.Command(d.argv[0], d.argv[1:]...)
	if len(d.config.Env) > 0 {
		d.cmd.Env = append(os.Environ(), d.config.Env...)
	}

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start face service: %w", err)
	}

	log.Debug("face service started", "pid", d.cmd.Process.Pid)

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.lastUsed = time.Now()

	return nil
}

func (d *ServiceDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *ServiceDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(d.config.IdleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if time.Since(d.lastUsed) < d.config.IdleTimeout {
			return
		}
		log.Debug("face service idle, stopping")
		d.shutdown()
	})
}

// serviceError is an error reported by the service itself. The process is
// still healthy after one.
type serviceError struct {
	msg string
}

func (e *serviceError) Error() string {
	return "face service: " + e.msg
}

type response struct {
	Faces []gesture.FaceObservation `json:"faces"`
	Error string                    `json:"error,omitempty"`
}

func parseResponse(line []byte) ([]gesture.FaceObservation, error) {
	var resp response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, &serviceError{msg: resp.Error}
	}
	return resp.Faces, nil
}

func serviceCommand(config Config) ([]string, error) {
	if len(config.Command) > 0 {
		return config.Command, nil
	}

	script := config.Script
	if script == "" {
		script = findServiceScript()
	} else if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("face service script: %w", err)
	}
	if script == "" {
		return nil, ErrServiceNotFound
	}

	python := config.Python
	if python == "" {
		python = findVenvPython()
	}
	if python == "" {
		python = "python3"
	}

	argv := []string{python, script}
	if config.MaxFaces > 0 {
		argv = append(argv, "--max-faces", strconv.Itoa(config.MaxFaces))
	}
	return argv, nil
}

func findServiceScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", serviceScript),
		filepath.Join("..", "scripts", serviceScript),
		filepath.Join(execDir, "scripts", serviceScript),
		filepath.Join(os.Getenv("HOME"), ".scoreturner", "scripts", serviceScript),
	}

	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".scoreturner/venv/bin/python"),
	}

	return firstExisting(candidates)
}

func firstExisting(candidates []string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}
