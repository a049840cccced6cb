package errors

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// StepFailure records a pipeline step that failed.
type StepFailure struct {
	Step      string
	Err       error
	Timestamp time.Time
}

// Error implements the error interface
func (sf *StepFailure) Error() string {
	return fmt.Sprintf("%s: %v", sf.Step, sf.Err)
}

// Unwrap returns the step error.
func (sf *StepFailure) Unwrap() error {
	return sf.Err
}

// ErrorCollector collects failures of independent pipeline steps
type ErrorCollector struct {
	failures []StepFailure
	mutex    sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		failures: make([]StepFailure, 0),
	}
}

// Add records the failure of a step. Nil errors are ignored.
func (ec *ErrorCollector) Add(step string, err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.failures = append(ec.failures, StepFailure{
		Step:      step,
		Err:       err,
		Timestamp: time.Now(),
	})
}

// Failures returns all recorded failures in the order they were added
func (ec *ErrorCollector) Failures() []StepFailure {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]StepFailure, len(ec.failures))
	copy(result, ec.failures)
	return result
}

// HasErrors returns true if any step failed
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.failures) > 0
}

// Err joins all failures into one error, or returns nil.
func (ec *ErrorCollector) Err() error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	if len(ec.failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(ec.failures))
	for i := range ec.failures {
		errs = append(errs, &ec.failures[i])
	}
	return errors.Join(errs...)
}
