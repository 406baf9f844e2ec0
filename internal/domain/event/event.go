package event

import (
	"fmt"
	"strings"
	"time"
)

// Event is a webhook notification received from an external payment
// provider, persisted before processing so redeliveries stay idempotent.
type Event struct {
	ID               int64
	Provider         string
	EventType        string
	ResourceID       string // provider-side id of the affected resource
	RawJSON          []byte
	ReceivedAt       time.Time
	ProcessedAt      *time.Time
	ProcessingStatus ProcessingStatus
	LastError        string
}

// ProcessingStatus tracks the event through the background worker.
type ProcessingStatus string

const (
	ProcessingPending   ProcessingStatus = "pending"
	ProcessingQueued    ProcessingStatus = "queued"
	ProcessingCompleted ProcessingStatus = "completed"
	ProcessingFailed    ProcessingStatus = "failed"
)

// New creates a webhook event with validation.
func New(providerName, eventType, resourceID string, rawJSON []byte) (*Event, error) {
	if strings.TrimSpace(providerName) == "" {
		return nil, fmt.Errorf("provider is required")
	}
	if strings.TrimSpace(eventType) == "" {
		return nil, fmt.Errorf("event type is required")
	}

	return &Event{
		Provider:         providerName,
		EventType:        eventType,
		ResourceID:       resourceID,
		RawJSON:          rawJSON,
		ReceivedAt:       time.Now(),
		ProcessingStatus: ProcessingPending,
	}, nil
}

// UpdateProcessingStatus applies a status transition.
func (e *Event) UpdateProcessingStatus(status ProcessingStatus) error {
	if !e.canChangeStatus(status) {
		return fmt.Errorf("cannot change status from %s to %s", e.ProcessingStatus, status)
	}

	e.ProcessingStatus = status
	if status == ProcessingCompleted || status == ProcessingFailed {
		now := time.Now()
		e.ProcessedAt = &now
	}
	return nil
}

// MarkForReprocessing queues an already-processed event again.
func (e *Event) MarkForReprocessing() error {
	if e.ProcessingStatus == ProcessingPending {
		return fmt.Errorf("event is already pending processing")
	}

	e.ProcessingStatus = ProcessingQueued
	e.ProcessedAt = nil
	return nil
}

// IsProcessed reports whether the worker already handled the event.
func (e *Event) IsProcessed() bool {
	return e.ProcessingStatus == ProcessingCompleted || e.ProcessingStatus == ProcessingFailed
}

func (e *Event) canChangeStatus(newStatus ProcessingStatus) bool {
	switch e.ProcessingStatus {
	case ProcessingPending:
		return newStatus == ProcessingQueued || newStatus == ProcessingCompleted || newStatus == ProcessingFailed
	case ProcessingQueued:
		return newStatus == ProcessingCompleted || newStatus == ProcessingFailed
	case ProcessingCompleted, ProcessingFailed:
		// Allow manual reprocessing and retries.
		return newStatus == ProcessingQueued
	}
	return false
}
