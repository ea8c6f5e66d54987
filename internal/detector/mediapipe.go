package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/ayusman/cornerman/internal/pose"
	"gocv.io/x/gocv"
)

// idleShutdown is how long the pose service may sit unused before it is stopped.
const idleShutdown = 30 * time.Second

// MediaPipeEstimator implements PoseEstimator using a Python MediaPipe subprocess.
//
// Each request is an 8-byte header (rows, cols as big-endian uint32)
// followed by rows*cols*3 bytes of RGB pixels. Each reply is one JSON line.
type MediaPipeEstimator struct {
	config     Config
	scriptPath string
	pythonPath string
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     *bufio.Reader
	mu         sync.Mutex
	started    bool
	lastUsed   time.Time
	idleTimer  *time.Timer
}

// NewMediaPipeEstimator creates a new MediaPipe pose estimator.
// The Python process is started lazily on first estimation.
func NewMediaPipeEstimator(config Config) (*MediaPipeEstimator, error) {
	scriptPath := config.ScriptPath
	if scriptPath == "" {
		scriptPath = findPoseScript()
	}
	if scriptPath == "" {
		return nil, fmt.Errorf("%w: pose_service.py", ErrModelNotFound)
	}

	pythonPath := config.PythonPath
	if pythonPath == "" {
		pythonPath = findVenvPython()
	}
	if pythonPath == "" {
		pythonPath = "python3"
	}

	return &MediaPipeEstimator{
		config:     config,
		scriptPath: scriptPath,
		pythonPath: pythonPath,
	}, nil
}

// Estimate sends a crop to the pose service and returns its landmarks,
// or nil if no body was found.
func (e *MediaPipeEstimator) Estimate(crop *gocv.Mat) (*pose.LandmarkSet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if crop == nil || crop.Empty() {
		return nil, nil
	}

	if err := e.ensureStarted(); err != nil {
		return nil, err
	}

	// MediaPipe expects RGB
	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(*crop, &rgb, gocv.ColorBGRToRGB)

	header := make([]byte, 8)
	binary.BigEndian.PutUint32(header[0:4], uint32(rgb.Rows()))
	binary.BigEndian.PutUint32(header[4:8], uint32(rgb.Cols()))

	if _, err := e.stdin.Write(header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if _, err := e.stdin.Write(rgb.ToBytes()); err != nil {
		return nil, fmt.Errorf("write pixels: %w", err)
	}

	line, err := e.stdout.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	set, err := parsePoseResponse([]byte(line))
	if err != nil {
		return nil, err
	}

	e.lastUsed = time.Now()
	e.resetIdleTimer()

	return set, nil
}

// Close shuts down the Python process.
func (e *MediaPipeEstimator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shutdown()
}

func (e *MediaPipeEstimator) ensureStarted() error {
	if e.started {
		return nil
	}

	e.cmd = exec.Command(e.pythonPath, e.scriptPath,
		"--min-detection-confidence", strconv.FormatFloat(e.config.MinPoseConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(e.config.MinTrackingConf, 'f', -1, 64),
	)

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := e.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	e.cmd.Stderr = os.Stderr

	if err := e.cmd.Start(); err != nil {
		return fmt.Errorf("start pose service: %w", err)
	}

	e.stdin = stdin
	e.stdout = bufio.NewReader(stdout)
	e.started = true
	e.lastUsed = time.Now()

	return nil
}

func (e *MediaPipeEstimator) shutdown() error {
	if !e.started {
		return nil
	}

	if e.idleTimer != nil {
		e.idleTimer.Stop()
		e.idleTimer = nil
	}

	if e.stdin != nil {
		e.stdin.Close()
	}

	err := e.cmd.Wait()
	e.started = false
	e.cmd = nil
	e.stdin = nil
	e.stdout = nil

	return err
}

func (e *MediaPipeEstimator) resetIdleTimer() {
	if e.idleTimer != nil {
		e.idleTimer.Stop()
	}
	e.idleTimer = time.AfterFunc(idleShutdown, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.shutdown()
	})
}

func findPoseScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/pose_service.py",
		"../scripts/pose_service.py",
		filepath.Join(execDir, "scripts/pose_service.py"),
		filepath.Join(os.Getenv("HOME"), ".cornerman/scripts/pose_service.py"),
	}

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
		filepath.Join(os.Getenv("HOME"), ".cornerman/venv/bin/python"),
	}

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

// jsonLandmark is one point as emitted by the pose service.
type jsonLandmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// parsePoseResponse decodes one reply line. An empty or short landmark
// list means no body was found.
func parsePoseResponse(line []byte) (*pose.LandmarkSet, error) {
	var response struct {
		Landmarks []jsonLandmark `json:"landmarks"`
		Error     string         `json:"error"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if response.Error != "" {
		return nil, fmt.Errorf("pose service: %s", response.Error)
	}

	if len(response.Landmarks) < pose.NumLandmarks {
		return nil, nil
	}

	set := &pose.LandmarkSet{}
	for i := 0; i < pose.NumLandmarks; i++ {
		lm := response.Landmarks[i]
		set.Points[i] = pose.Point3D{X: lm.X, Y: lm.Y, Z: lm.Z}
	}
	return set, nil
}
