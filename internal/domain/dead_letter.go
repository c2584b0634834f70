package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound               = errors.New("entity not found")
	ErrInvalidDeadLetterEntry = errors.New("invalid dead letter entry")
)

// WriteTarget names the store a failed write was aimed at.
type WriteTarget string

const (
	TargetDecisionStore WriteTarget = "decision_store"
	TargetDecisionIndex WriteTarget = "decision_index"
	TargetFingerprint   WriteTarget = "fingerprint_store"
)

const (
	defaultDLQMaxRetries = 5
	baseRetryDelay       = 30 * time.Second
	maxRetryDelay        = 30 * time.Minute
)

// DeadLetterEntry is a persistence write that failed and waits for an out-of-band retry.
// Payload is the JSON document to write again.
type DeadLetterEntry struct {
	ID            string      `db:"id"`
	ContentID     string      `db:"content_id"`
	Target        WriteTarget `db:"target"`
	Payload       []byte      `db:"payload"`
	ErrorMessage  string      `db:"error_message"`
	RetryCount    int         `db:"retry_count"`
	MaxRetries    int         `db:"max_retries"`
	NextRetryAt   time.Time   `db:"next_retry_at"`
	CreatedAt     time.Time   `db:"created_at"`
	LastAttemptAt time.Time   `db:"last_attempt_at"`
}

// NewDeadLetterEntry builds an entry scheduled for its first retry.
func NewDeadLetterEntry(contentID string, target WriteTarget, payload []byte, cause error) (*DeadLetterEntry, error) {
	if contentID == "" {
		return nil, fmt.Errorf("%w: content_id is required", ErrInvalidDeadLetterEntry)
	}
	if target == "" {
		return nil, fmt.Errorf("%w: target is required", ErrInvalidDeadLetterEntry)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: payload is required", ErrInvalidDeadLetterEntry)
	}

	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	now := time.Now()
	return &DeadLetterEntry{
		ContentID:     contentID,
		Target:        target,
		Payload:       payload,
		ErrorMessage:  msg,
		MaxRetries:    defaultDLQMaxRetries,
		NextRetryAt:   now.Add(baseRetryDelay),
		CreatedAt:     now,
		LastAttemptAt: now,
	}, nil
}

// NextRetryDelay doubles from 30s per attempt, capped at 30m.
func (d *DeadLetterEntry) NextRetryDelay() time.Duration {
	const maxShift = 10
	if d.RetryCount >= maxShift {
		return maxRetryDelay
	}
	return min(baseRetryDelay<<d.RetryCount, maxRetryDelay)
}

// ShouldRetry reports whether attempts remain.
func (d *DeadLetterEntry) ShouldRetry() bool {
	return d.RetryCount < d.MaxRetries
}

// IncrementRetry records a failed retry and schedules the next one.
func (d *DeadLetterEntry) IncrementRetry(cause error) {
	d.RetryCount++
	d.LastAttemptAt = time.Now()
	if cause != nil {
		d.ErrorMessage = cause.Error()
	}
	d.NextRetryAt = d.LastAttemptAt.Add(d.NextRetryDelay())
}

func (d *DeadLetterEntry) String() string {
	return fmt.Sprintf("DLQ[%s] content=%s target=%s retries=%d/%d next=%s",
		d.ID, d.ContentID, d.Target, d.RetryCount, d.MaxRetries, d.NextRetryAt.Format(time.RFC3339))
}

// DLQStats summarizes the dead-letter queue.
type DLQStats struct {
	Pending   int64 `db:"pending"   json:"pending"`
	Exhausted int64 `db:"exhausted" json:"exhausted"`
	Ready     int64 `db:"ready"     json:"ready"`
}
