package classifier

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// DefaultIdleTimeout is how long an unused classifier process is kept alive.
const DefaultIdleTimeout = 30 * time.Second

// SubprocessClassifier delegates classification to an external model process.
//
// Each request is a 4-byte big-endian length followed by a JPEG image on the
// process's stdin. The process answers with one JSON line on stdout:
//
//	{"predictions":[{"label":"fist-hand","confidence":0.93}, ...]}
//
// The process is started lazily and stopped after IdleTimeout without requests.
type SubprocessClassifier struct {
	command     []string
	env         []string
	idleTimeout time.Duration

	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
	idleGen   uint64
}

// NewSubprocessClassifier creates a classifier that runs command on first use.
func NewSubprocessClassifier(command []string, idleTimeout time.Duration) (*SubprocessClassifier, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("classifier command is empty")
	}
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}

	return &SubprocessClassifier{
		command:     command,
		idleTimeout: idleTimeout,
	}, nil
}

// SetEnv adds environment variables to the model process.
// It only affects processes started after the call.
func (c *SubprocessClassifier) SetEnv(env ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.env = append(c.env, env...)
}

// Classify encodes frame as JPEG and sends it to the model process.
func (c *SubprocessClassifier) Classify(ctx context.Context, frame *gocv.Mat) (*Result, error) {
	if frame == nil || frame.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	return c.ClassifyJPEG(ctx, buf.GetBytes())
}

// ClassifyJPEG sends an already encoded image to the model process.
// Canceling ctx while waiting for the reply kills the process; the next
// request starts a new one.
func (c *SubprocessClassifier) ClassifyJPEG(ctx context.Context, data []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureStarted(); err != nil {
		return nil, err
	}

	proc := c.cmd.Process
	stop := context.AfterFunc(ctx, func() { proc.Kill() })

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := c.stdin.Write(length); err != nil {
		stop()
		c.shutdown()
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := c.stdin.Write(data); err != nil {
		stop()
		c.shutdown()
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := c.stdout.ReadBytes('\n')
	if !stop() {
		c.shutdown()
		return nil, ctx.Err()
	}
	if err != nil {
		c.shutdown()
		return nil, fmt.Errorf("read response: %w", err)
	}

	result, err := decodeResponse(line)
	if err != nil {
		return nil, err
	}

	c.resetIdleTimer()

	return result, nil
}

// Close shuts down the model process.
func (c *SubprocessClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shutdown()
}

func (c *SubprocessClassifier) ensureStarted() error {
	if c.started {
		return nil
	}

	c.cmd = exec.Command(c.command[0], c.command[1:]...)
	if len(c.env) > 0 {
		c.cmd.Env = append(os.Environ(), c.env...)
	}

	stdin, err := c.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := c.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	c.cmd.Stderr = os.Stderr

	if err := c.cmd.Start(); err != nil {
		return fmt.Errorf("start classifier process: %w", err)
	}

	c.stdin = stdin
	c.stdout = bufio.NewReader(stdout)
	c.started = true

	return nil
}

func (c *SubprocessClassifier) shutdown() error {
	if !c.started {
		return nil
	}

	if c.idleTimer != nil {
		c.idleTimer.Stop()
		c.idleTimer = nil
	}

	if c.stdin != nil {
		c.stdin.Close()
	}

	err := c.cmd.Wait()
	c.started = false
	c.cmd = nil
	c.stdin = nil
	c.stdout = nil

	return err
}

func (c *SubprocessClassifier) resetIdleTimer() {
	if c.idleTimer != nil {
		c.idleTimer.Stop()
	}
	c.idleGen++
	gen := c.idleGen
	c.idleTimer = time.AfterFunc(c.idleTimeout, func() { c.idleExpired(gen) })
}

// idleExpired stops the process unless a request has rearmed the timer
// since generation gen was scheduled.
func (c *SubprocessClassifier) idleExpired(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.idleGen {
		return
	}
	c.shutdown()
}

// running reports whether the model process is currently alive.
func (c *SubprocessClassifier) running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// jsonPrediction is one prediction as written by the model process.
// Confidence may be a JSON number or a numeric string.
type jsonPrediction struct {
	Label      string          `json:"label"`
	Confidence json.RawMessage `json:"confidence"`
}

func decodeResponse(line []byte) (*Result, error) {
	var response struct {
		Predictions []jsonPrediction `json:"predictions"`
		Error       string           `json:"error"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(line), &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("classifier process: %s", response.Error)
	}

	predictions := make([]Prediction, len(response.Predictions))
	for i, p := range response.Predictions {
		predictions[i] = Prediction{
			Label:      strings.TrimSpace(p.Label),
			Confidence: ParseConfidence(p.Confidence),
		}
	}

	return Ranked(predictions), nil
}

// ParseConfidence decodes a confidence given as a JSON number or string.
// Anything unparseable yields NaN.
func ParseConfidence(raw json.RawMessage) float64 {
	text := strings.TrimSpace(string(raw))
	if unquoted, err := strconv.Unquote(text); err == nil {
		text = strings.TrimSpace(unquoted)
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
