package classifier

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"os"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// ONNXConfig holds ONNX classifier configuration.
type ONNXConfig struct {
	ModelPath   string
	LabelsPath  string
	InputWidth  int
	InputHeight int
	// Scale is applied to pixel values before inference.
	Scale float64
	// SwapRB converts OpenCV's BGR frames to RGB.
	SwapRB bool
	// CenterCrop crops to the input aspect ratio instead of stretching.
	CenterCrop bool
}

// DefaultONNXConfig returns defaults for a 224x224 image classifier.
func DefaultONNXConfig() ONNXConfig {
	return ONNXConfig{
		ModelPath:   "models/gesture01.onnx",
		LabelsPath:  "models/gesture01.labels",
		InputWidth:  224,
		InputHeight: 224,
		Scale:       1.0 / 255.0,
		SwapRB:      true,
		CenterCrop:  true,
	}
}

// ONNXClassifier runs an ONNX image classification model through OpenCV DNN.
type ONNXClassifier struct {
	net       gocv.Net
	labels    []string
	config    ONNXConfig
	inputSize image.Point
	mu        sync.Mutex
}

// NewONNXClassifier loads the model and its labels.
func NewONNXClassifier(cfg ONNXConfig) (*ONNXClassifier, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	labels, err := LoadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, err
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load model from %s", cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &ONNXClassifier{
		net:       net,
		labels:    labels,
		config:    cfg,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
	}, nil
}

// Labels returns the class labels in model output order.
func (c *ONNXClassifier) Labels() []string {
	return c.labels
}

// Classify runs one forward pass over frame.
func (c *ONNXClassifier) Classify(ctx context.Context, frame *gocv.Mat) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if frame == nil || frame.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	blob := gocv.BlobFromImage(*frame, c.config.Scale, c.inputSize, gocv.NewScalar(0, 0, 0, 0), c.config.SwapRB, c.config.CenterCrop)
	defer blob.Close()

	c.net.SetInput(blob, "")

	output := c.net.Forward("")
	defer output.Close()

	// Output shape: [1, N] class scores
	scores, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	return Rank(Softmax(scores), c.labels), nil
}

// Close releases the network.
func (c *ONNXClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.net.Close()
}

// LoadLabels reads class labels from a file, one per line.
// Blank lines and lines starting with '#' are ignored.
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}

	if len(labels) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoLabels)
	}

	return labels, nil
}
