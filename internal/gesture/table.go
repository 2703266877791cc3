package gesture

import (
	"sort"
	"sync"

	"github.com/ayusman/mudra/internal/classifier"
)

// DefaultThreshold is the confidence the top prediction must exceed.
const DefaultThreshold = 0.01

// DefaultLabels maps the bundled model's labels to symbols.
func DefaultLabels() map[string]Symbol {
	return map[string]Symbol{
		"fist-hand":      Fist,
		"five-hand":      OpenHand,
		"checkmark-hand": Checkmark,
	}
}

// Binding associates a classifier label with a symbol.
type Binding struct {
	Label  string `json:"label"`
	Symbol Symbol `json:"symbol"`
}

// Decision is the outcome of applying the table to one classification result.
type Decision struct {
	Symbol  Symbol
	Command Command
	Top     classifier.Prediction
	Summary string
	// Confident is false when the top confidence was at or below the
	// threshold or could not be parsed.
	Confident bool
}

// Table decides gesture symbols from classifier output.
// Labels match exactly; the table is safe for concurrent use.
type Table struct {
	mu        sync.RWMutex
	threshold float64
	labels    map[string]Symbol
}

// NewTable creates a table with the given threshold and label bindings.
func NewTable(threshold float64, labels map[string]Symbol) *Table {
	t := &Table{
		threshold: threshold,
		labels:    make(map[string]Symbol, len(labels)),
	}
	for label, s := range labels {
		t.labels[label] = s
	}
	return t
}

// DefaultTable returns a table with DefaultThreshold and DefaultLabels.
func DefaultTable() *Table {
	return NewTable(DefaultThreshold, DefaultLabels())
}

// Symbol maps a single (label, confidence) pair to a symbol.
// Confidences that are not finite or not above the threshold yield Unknown.
func (t *Table) Symbol(label string, confidence float64) Symbol {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, _ := t.lookup(label, confidence)
	return s
}

// lookup must be called with t.mu held.
func (t *Table) lookup(label string, confidence float64) (Symbol, bool) {
	if !classifier.IsFinite(confidence) || confidence <= t.threshold {
		return Unknown, false
	}
	if s, ok := t.labels[label]; ok {
		return s, true
	}
	return Unknown, true
}

// Decide applies the table to the top prediction of result.
// It returns false when the result has no predictions.
func (t *Table) Decide(result *classifier.Result) (Decision, bool) {
	top, ok := result.Top()
	if !ok {
		return Decision{}, false
	}

	t.mu.RLock()
	s, confident := t.lookup(top.Label, top.Confidence)
	t.mu.RUnlock()

	return Decision{
		Symbol:    s,
		Command:   s.Command(),
		Top:       top,
		Summary:   result.Summary(classifier.SummaryDepth),
		Confident: confident,
	}, true
}

// Threshold returns the confidence threshold.
func (t *Table) Threshold() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.threshold
}

// SetThreshold replaces the confidence threshold.
// Values outside [0, 1) are ignored.
func (t *Table) SetThreshold(threshold float64) {
	if threshold < 0 || threshold >= 1 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.threshold = threshold
}

// Bind maps label to s, replacing any existing binding.
func (t *Table) Bind(label string, s Symbol) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.labels[label] = s
}

// Unbind removes the binding for label. It reports whether one existed.
func (t *Table) Unbind(label string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.labels[label]; !ok {
		return false
	}
	delete(t.labels, label)
	return true
}

// Bindings returns the current bindings sorted by label.
func (t *Table) Bindings() []Binding {
	t.mu.RLock()
	defer t.mu.RUnlock()

	bindings := make([]Binding, 0, len(t.labels))
	for label, s := range t.labels {
		bindings = append(bindings, Binding{Label: label, Symbol: s})
	}
	sort.Slice(bindings, func(i, j int) bool {
		return bindings[i].Label < bindings[j].Label
	})
	return bindings
}
