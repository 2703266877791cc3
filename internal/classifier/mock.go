package classifier

import (
	"context"
	"sync"

	"gocv.io/x/gocv"
)

// MockClassifier is a test implementation of the Classifier interface.
// It allows tests to control the classification results.
type MockClassifier struct {
	mu     sync.Mutex
	result *Result
	err    error
	calls  int
	block  chan struct{}
}

// NewMockClassifier creates a new MockClassifier that returns an empty result.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{result: &Result{}}
}

// SetPredictions sets the predictions that will be returned by Classify.
func (m *MockClassifier) SetPredictions(predictions ...Prediction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = NewResult(predictions)
	m.err = nil
}

// SetError sets the error that will be returned by Classify.
func (m *MockClassifier) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Block makes Classify wait until Release is called or the context ends.
func (m *MockClassifier) Block() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.block == nil {
		m.block = make(chan struct{})
	}
}

// Release unblocks every pending and future Classify call.
func (m *MockClassifier) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.block != nil {
		close(m.block)
		m.block = nil
	}
}

// Calls returns how many times Classify has been invoked.
func (m *MockClassifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Classify returns the pre-configured result or error.
func (m *MockClassifier) Classify(ctx context.Context, frame *gocv.Mat) (*Result, error) {
	m.mu.Lock()
	m.calls++
	block := m.block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// Close is a no-op for the mock classifier.
func (m *MockClassifier) Close() error {
	return nil
}
