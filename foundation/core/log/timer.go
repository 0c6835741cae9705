// File: timer.go
// Title: Performance Timer
// Description: Implements a lightweight timer for measuring and logging the
//              duration of operations such as tree executions and datasource
//              calls.
// Version: v0.1.0
// Created: 2025-07-12
// Modified: 2025-07-12
//
// Change History:
// - 2025-07-12 v0.1.0: Initial timer implementation

package log

import "time"

// Timer measures the duration of an operation and logs it on Stop
type Timer struct {
	logger    *Logger
	operation string
	start     time.Time
	level     Level
	fields    Fields
	running   bool
}

// NewTimer creates and starts a timer for the given operation
func NewTimer(logger *Logger, operation string) *Timer {
	return &Timer{
		logger:    logger,
		operation: operation,
		start:     time.Now(),
		level:     LevelDebug,
		fields:    make(Fields),
		running:   true,
	}
}

// WithLevel sets the level used when the timer logs
func (t *Timer) WithLevel(level Level) *Timer {
	t.level = level
	return t
}

// WithField adds a field to the timer's log entry
func (t *Timer) WithField(key string, value interface{}) *Timer {
	t.fields[key] = value
	return t
}

// Elapsed returns the time since the timer started
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Stop stops the timer and logs the elapsed duration
func (t *Timer) Stop() time.Duration {
	elapsed := t.Elapsed()
	if !t.running {
		return elapsed
	}
	t.running = false

	fields := t.fields.Clone()
	fields["operation"] = t.operation
	fields["duration_ms"] = elapsed.Milliseconds()

	t.logger.log(t.level, "operation completed", nil, fields)
	return elapsed
}

// StopWithError stops the timer and logs the elapsed duration together with
// the outcome of the operation
func (t *Timer) StopWithError(err error) time.Duration {
	elapsed := t.Elapsed()
	if !t.running {
		return elapsed
	}
	t.running = false

	fields := t.fields.Clone()
	fields["operation"] = t.operation
	fields["duration_ms"] = elapsed.Milliseconds()
	fields["success"] = err == nil

	if err != nil {
		t.logger.log(LevelWarn, "operation failed", err, fields)
	} else {
		t.logger.log(t.level, "operation completed", nil, fields)
	}
	return elapsed
}

// Cancel stops the timer without logging
func (t *Timer) Cancel() {
	t.running = false
}
