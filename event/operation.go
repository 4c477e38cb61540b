package event

import (
	"strconv"
	"time"
)

const (
	OperationProgress  = "progress"
	OperationCompleted = "completed"
	OperationError     = "error"
)

// OperationEvent reports the progress or the end of an operation.
type OperationEvent struct {
	OperationID int64
	Type        string
	Total       int64
	Current     int64
	Message     string
	Timestamp   time.Time
}

func (e *OperationEvent) Clone() Event {
	evt := *e

	return &evt
}

func (e *OperationEvent) Topic() string {
	return OperationTopic(e.OperationID)
}

func (e *OperationEvent) Final() bool {
	return e.Type == OperationCompleted || e.Type == OperationError
}

// OperationTopic returns the topic for the events of an operation.
func OperationTopic(id int64) string {
	return "operation:" + strconv.FormatInt(id, 10)
}

func NewOperationProgressEvent(id, total, current int64) *OperationEvent {
	return &OperationEvent{
		OperationID: id,
		Type:        OperationProgress,
		Total:       total,
		Current:     current,
		Timestamp:   time.Now(),
	}
}

func NewOperationCompletedEvent(id int64) *OperationEvent {
	return &OperationEvent{
		OperationID: id,
		Type:        OperationCompleted,
		Timestamp:   time.Now(),
	}
}

func NewOperationErrorEvent(id int64, err error) *OperationEvent {
	e := &OperationEvent{
		OperationID: id,
		Type:        OperationError,
		Timestamp:   time.Now(),
	}

	if err != nil {
		e.Message = err.Error()
	}

	return e
}
