package api

import (
	"strconv"

	"github.com/slickfs/gateway/engine"
	"github.com/slickfs/gateway/event"
)

// Operation is the record of an asynchronous add
type Operation struct {
	ID          int64    `json:"id" jsonschema:"required" format:"int64"`
	State       string   `json:"state" jsonschema:"required" enums:"queued,running,completed,error"`
	Volume      string   `json:"volume" jsonschema:"required"`
	Destination string   `json:"destination" jsonschema:"required"`
	Sources     []string `json:"sources" jsonschema:"required"`
	Type        string   `json:"type" jsonschema:"required"`
	Mode        string   `json:"mode" jsonschema:"required" enums:"skip,replace,rename"`
}

func (o *Operation) Unmarshal(op engine.Operation) {
	o.ID = op.ID
	o.State = string(op.State)
	o.Volume = op.Volume
	o.Destination = op.Destination
	o.Sources = append([]string{}, op.Sources...)
	o.Type = "add"
	o.Mode = string(op.Mode)
}

type OperationList struct {
	Operations []Operation `json:"operations" jsonschema:"required"`
}

// OperationState is the current state of an operation with the URL of its
// event stream
type OperationState struct {
	State  string `json:"state" jsonschema:"required"`
	Events string `json:"events" jsonschema:"required"`
}

type OperationItem struct {
	Operation OperationState `json:"operation" jsonschema:"required"`
}

func OperationURL(id int64) string {
	return "/api/operations/" + strconv.FormatInt(id, 10)
}

func OperationEventsURL(id int64) string {
	return OperationURL(id) + "/events"
}

// OperationRequest is the part common to all operation requests
type OperationRequest struct {
	Type string `json:"type"`
}

// OperationTarget names a path in a volume
type OperationTarget struct {
	Name string `json:"name" validate:"required"`
	Path string `json:"path" validate:"required"`
}

type MkdirRequest struct {
	Target OperationTarget `json:"target"`
}

// CopyRequest is the request for a copy or a move
type CopyRequest struct {
	Source      OperationTarget `json:"source"`
	Destination OperationTarget `json:"destination"`
	Force       bool            `json:"force"`
}

type AddRequest struct {
	Destination OperationTarget `json:"destination"`
	Sources     []string        `json:"sources" validate:"required"`
	Conflict    string          `json:"conflict" validate:"omitempty,conflict"`
}

// OperationEvent is the payload of an event of an operation's event stream
type OperationEvent struct {
	OperationID int64  `json:"operationId" jsonschema:"required" format:"int64"`
	State       string `json:"state" jsonschema:"required" enums:"queued,running,progress,completed,error"`
	Total       *int64 `json:"total,omitempty" format:"int64"`
	Current     *int64 `json:"current,omitempty" format:"int64"`
	Message     string `json:"message,omitempty"`
}

// Unmarshal converts an event of the engine. It returns false if the event
// isn't an operation event.
func (e *OperationEvent) Unmarshal(evt event.Event) bool {
	oe, ok := evt.(*event.OperationEvent)
	if !ok {
		return false
	}

	e.OperationID = oe.OperationID
	e.State = oe.Type
	e.Total = nil
	e.Current = nil
	e.Message = oe.Message

	if oe.Type == event.OperationProgress {
		total, current := oe.Total, oe.Current
		e.Total = &total
		e.Current = &current
	}

	return true
}

// Final returns whether no more events will follow for the operation.
func (e *OperationEvent) Final() bool {
	return e.State == string(engine.StateCompleted) || e.State == string(engine.StateError)
}

// UnmarshalState converts the current state of an operation.
func (e *OperationEvent) UnmarshalState(op engine.Operation) {
	e.OperationID = op.ID
	e.State = string(op.State)
	e.Total = nil
	e.Current = nil
	e.Message = ""

	if op.State == engine.StateError {
		e.Message = op.Message
	}
}
