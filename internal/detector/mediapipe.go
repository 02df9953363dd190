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
	"strings"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const serviceScript = "landmark_service.py"

// idleShutdown stops the Python process after this long without a frame.
const idleShutdown = 30 * time.Second

// MediaPipe implements Detector using a Python MediaPipe subprocess.
// Once its models are loaded the service writes {"ready":true}, or
// {"error":"..."} if they could not be. After that, frames go out on stdin
// as a 4-byte big-endian length plus JPEG bytes and one JSON line per frame
// comes back on stdout.
type MediaPipe struct {
	config    Config
	script    string
	python    string
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
}

// NewMediaPipe creates a MediaPipe detector. The Python process is started
// lazily on the first frame; a missing service script is reported now.
func NewMediaPipe(config Config) (*MediaPipe, error) {
	script := findServiceScript()
	if script == "" {
		return nil, fmt.Errorf("%w: %s not found", ErrModelLoad, serviceScript)
	}
	return &MediaPipe{config: config, script: script}, nil
}

// Start launches the Python process ahead of the first frame and waits for
// its models to load, so a broken install is reported during setup.
func (d *MediaPipe) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureStarted(); err != nil {
		return err
	}
	d.resetIdleTimer()
	return nil
}

// Detect encodes the frame, hands it to the service and decodes the landmarks.
func (d *MediaPipe) Detect(frame *gocv.Mat) (Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame == nil || frame.Empty() {
		return Frame{}, fmt.Errorf("empty frame")
	}

	if err := d.ensureStarted(); err != nil {
		return Frame{}, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return Frame{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(data)))

	if _, err := d.stdin.Write(header); err != nil {
		d.kill()
		return Frame{}, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		d.kill()
		return Frame{}, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadString('\n')
	if err != nil {
		d.kill()
		return Frame{}, fmt.Errorf("read response: %w", err)
	}

	result, err := decodeResponse([]byte(line))
	if err != nil {
		return Frame{}, err
	}
	result.Width = frame.Cols()
	result.Height = frame.Rows()
	result.At = time.Now()

	d.resetIdleTimer()
	return result, nil
}

// Close shuts down the Python process.
func (d *MediaPipe) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipe) args() []string {
	kinds := make([]string, 0, len(d.config.Kinds))
	for _, k := range d.config.Kinds {
		kinds = append(kinds, string(k))
	}
	return []string{
		d.script,
		"--models", strings.Join(kinds, ","),
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--max-faces", strconv.Itoa(d.config.MaxFaces),
		"--min-detection", strconv.FormatFloat(d.config.MinConfidence, 'f', 2, 64),
		"--min-tracking", strconv.FormatFloat(d.config.MinTrackingConf, 'f', 2, 64),
	}
}

func (d *MediaPipe) ensureStarted() error {
	if d.started {
		return nil
	}

	python := d.python
	if python == "" {
		python = findVenvPython()
	}
	if python == "" {
		python = "python3"
	}

	d.cmd = exec.Command(python, d.args()...)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: stdin pipe: %v", ErrModelLoad, err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: stdout pipe: %v", ErrModelLoad, err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("%w: start landmark service: %v", ErrModelLoad, err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	if err := d.awaitReady(); err != nil {
		d.kill()
		return fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	return nil
}

type readyLine struct {
	Ready bool   `json:"ready"`
	Error string `json:"error"`
}

// awaitReady reads the service's first line.
func (d *MediaPipe) awaitReady() error {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	r := d.stdout
	go func() {
		line, err := r.ReadString('\n')
		ch <- result{line, err}
	}()

	timeout := d.config.ReadyTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().ReadyTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		return fmt.Errorf("landmark service not ready after %s", timeout)
	case res := <-ch:
		if res.err != nil {
			return fmt.Errorf("landmark service exited: %w", res.err)
		}
		var ready readyLine
		if err := json.Unmarshal([]byte(res.line), &ready); err != nil {
			return fmt.Errorf("parse ready line: %w", err)
		}
		if ready.Error != "" {
			return errors.New(ready.Error)
		}
		if !ready.Ready {
			return fmt.Errorf("unexpected ready line %q", strings.TrimSpace(res.line))
		}
		return nil
	}
}

// kill stops a service that failed or stopped answering so the next
// frame starts a fresh one.
func (d *MediaPipe) kill() {
	if !d.started {
		return
	}
	if d.cmd.Process != nil {
		d.cmd.Process.Kill()
	}
	d.shutdown()
}

func (d *MediaPipe) shutdown() error {
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

func (d *MediaPipe) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

func findServiceScript() string {
	var execDir string
	if execPath, err := os.Executable(); err == nil {
		execDir = filepath.Dir(execPath)
	}

	return firstExisting(
		filepath.Join("scripts", serviceScript),
		filepath.Join("..", "scripts", serviceScript),
		filepath.Join(execDir, "scripts", serviceScript),
		filepath.Join(os.Getenv("HOME"), ".carnival", "scripts", serviceScript),
	)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	return firstExisting(
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".carnival/venv/bin/python"),
	)
}

func firstExisting(candidates ...string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}

// wireResponse is the JSON line written by the Python service.
type wireResponse struct {
	Hands []wireHand `json:"hands"`
	Faces []wireFace `json:"faces"`
}

type wireHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

type wireFace struct {
	Points []Point3D `json:"points"`
}

func decodeResponse(line []byte) (Frame, error) {
	var resp wireResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return Frame{}, fmt.Errorf("parse response: %w", err)
	}

	frame := Frame{
		Hands: make([]HandLandmarks, 0, len(resp.Hands)),
		Faces: make([]FaceLandmarks, 0, len(resp.Faces)),
	}
	for _, h := range resp.Hands {
		if len(h.Points) < NumLandmarks {
			continue
		}
		lm := HandLandmarks{Handedness: h.Handedness, Score: h.Score}
		copy(lm.Points[:], h.Points)
		frame.Hands = append(frame.Hands, lm)
	}
	for _, f := range resp.Faces {
		frame.Faces = append(frame.Faces, FaceLandmarks{Points: f.Points})
	}
	return frame, nil
}
