// Package classifier provides image classification backends for gesture recognition.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gocv.io/x/gocv"
)

// SummaryDepth is the number of ranked predictions shown to the user.
const SummaryDepth = 3

// ErrNoLabels is returned when a model is loaded without any class labels.
var ErrNoLabels = errors.New("no class labels")

// Classifier labels a single video frame.
// Implementations must be safe for concurrent use; they may serialize internally.
type Classifier interface {
	// Classify returns the ranked predictions for frame.
	// The frame is owned by the caller and must not be retained.
	Classify(ctx context.Context, frame *gocv.Mat) (*Result, error)

	// Close releases any resources held by the classifier.
	Close() error
}

// Prediction is one (label, confidence) pair.
// Confidence is NaN when the backend produced a value that could not be parsed.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Result is the ranked output of one classification request.
type Result struct {
	Predictions []Prediction `json:"predictions"`
}

// NewResult builds a Result from predictions, ranking them by descending confidence.
// Predictions with a non-finite confidence sort last.
func NewResult(predictions []Prediction) *Result {
	ranked := make([]Prediction, len(predictions))
	copy(ranked, predictions)
	sort.SliceStable(ranked, func(i, j int) bool {
		return rankValue(ranked[i].Confidence) > rankValue(ranked[j].Confidence)
	})
	return &Result{Predictions: ranked}
}

// Ranked builds a Result from predictions that are already in rank order,
// keeping the given order. An unparseable confidence keeps its rank.
func Ranked(predictions []Prediction) *Result {
	ranked := make([]Prediction, len(predictions))
	copy(ranked, predictions)
	return &Result{Predictions: ranked}
}

// Empty reports whether the result holds no predictions.
func (r *Result) Empty() bool {
	return r == nil || len(r.Predictions) == 0
}

// Top returns the highest ranked prediction.
func (r *Result) Top() (Prediction, bool) {
	if r.Empty() {
		return Prediction{}, false
	}
	return r.Predictions[0], true
}

// TopN returns at most n of the highest ranked predictions.
func (r *Result) TopN(n int) []Prediction {
	if r.Empty() || n <= 0 {
		return nil
	}
	if n > len(r.Predictions) {
		n = len(r.Predictions)
	}
	return r.Predictions[:n]
}

// Summary formats the top n predictions, one per line, as "label : 0.93".
func (r *Result) Summary(n int) string {
	top := r.TopN(n)
	lines := make([]string, len(top))
	for i, p := range top {
		lines[i] = p.String()
	}
	return fmt.Sprintf("TOP %d Predictions: \n", n) + strings.Join(lines, "\n")
}

// String formats the prediction as "label : 0.93".
func (p Prediction) String() string {
	if !IsFinite(p.Confidence) {
		return p.Label + " : ?"
	}
	return fmt.Sprintf("%s : %.2f", p.Label, p.Confidence)
}

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func rankValue(v float64) float64 {
	if !IsFinite(v) {
		return math.Inf(-1)
	}
	return v
}

// Softmax converts raw network scores into a probability distribution.
// Scores that already form a distribution are returned unchanged.
func Softmax(scores []float32) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}

	if isDistribution(scores) {
		for i, s := range scores {
			out[i] = float64(s)
		}
		return out
	}

	maxScore := float64(scores[0])
	for _, s := range scores[1:] {
		if float64(s) > maxScore {
			maxScore = float64(s)
		}
	}

	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(float64(s) - maxScore)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// isDistribution reports whether scores are non-negative and sum to ~1.
func isDistribution(scores []float32) bool {
	var sum float64
	for _, s := range scores {
		if s < 0 {
			return false
		}
		sum += float64(s)
	}
	return math.Abs(sum-1) < 1e-3
}

// Rank pairs scores with labels and returns a ranked Result.
// Extra scores without a label are named "class-N".
func Rank(scores []float64, labels []string) *Result {
	predictions := make([]Prediction, len(scores))
	for i, s := range scores {
		label := fmt.Sprintf("class-%d", i)
		if i < len(labels) {
			label = labels[i]
		}
		predictions[i] = Prediction{Label: label, Confidence: s}
	}
	return NewResult(predictions)
}
