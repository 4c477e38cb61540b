package api

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/slickfs/gateway/encoding/json"
	"github.com/slickfs/gateway/engine"
	"github.com/slickfs/gateway/http/api"
	"github.com/slickfs/gateway/http/handler/util"
	"github.com/slickfs/gateway/log"

	"github.com/labstack/echo/v4"
)

type EventsConfig struct {
	Engine engine.Engine

	// Keepalive is the interval of the keepalive comments. 0 disables them.
	Keepalive time.Duration

	Logger log.Logger
}

// The EventsHandler type provides handler functions for the event streams of operations
type EventsHandler struct {
	engine    engine.Engine
	keepalive time.Duration
	logger    log.Logger

	streams atomic.Int64
}

// NewEvents returns a new EventsHandler type
func NewEvents(config EventsConfig) *EventsHandler {
	h := &EventsHandler{
		engine:    config.Engine,
		keepalive: config.Keepalive,
		logger:    config.Logger,
	}

	if h.logger == nil {
		h.logger = log.New("")
	}

	return h
}

// Streams returns the number of open event streams.
func (h *EventsHandler) Streams() int64 {
	return h.streams.Load()
}

// stream is the state of one event stream connection.
type stream struct {
	res *echo.Response
	seq uint64
}

func (s *stream) emit(e api.OperationEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.res, "id: %d\ndata: %s\n\n", s.seq, data); err != nil {
		return err
	}

	s.seq++
	s.res.Flush()

	return nil
}

func (s *stream) comment(text string) error {
	if _, err := fmt.Fprintf(s.res, ":%s\n\n", text); err != nil {
		return err
	}

	s.res.Flush()

	return nil
}

// open disables the deadlines of the connection and writes the headers.
func (h *EventsHandler) open(c echo.Context) *stream {
	res := c.Response()

	rc := http.NewResponseController(res)
	rc.SetReadDeadline(time.Time{})
	rc.SetWriteDeadline(time.Time{})

	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)

	res.Write([]byte("\n"))
	res.Flush()

	return &stream{res: res}
}

// follow forwards the events of the listener to the stream until the context
// is done or a final event has been written if untilFinal is set.
func (h *EventsHandler) follow(ctx context.Context, s *stream, listener engine.Listener, untilFinal bool) error {
	var keepalive <-chan time.Time

	if h.keepalive > 0 {
		ticker := time.NewTicker(h.keepalive)
		defer ticker.Stop()

		keepalive = ticker.C
	}

	evt := api.OperationEvent{}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-keepalive:
			if err := s.comment("keepalive"); err != nil {
				return err
			}
		case _, ok := <-listener.Notify():
			for _, e := range listener.Events() {
				if !evt.Unmarshal(e) {
					continue
				}

				if err := s.emit(evt); err != nil {
					return err
				}

				if untilFinal && evt.Final() {
					return nil
				}
			}

			if !ok {
				return nil
			}
		}
	}
}

// Operation streams the events of an operation
// @Summary Stream the events of an operation
// @Description The first event is the current state of the operation, followed by the progress events and exactly one completed or error event. The stream ends after that event.
// @ID operation-events
// @Produce text/event-stream
// @Param id path integer true "ID of the operation"
// @Success 200 {object} api.OperationEvent
// @Failure 400 {object} api.Error
// @Router /api/operations/{id}/events [get]
func (h *EventsHandler) Operation(c echo.Context) error {
	id, err := util.PathParamInt(c, "id")
	if err != nil {
		return api.Err(http.StatusBadRequest, "invalid operation id")
	}

	ctx := c.Request().Context()

	// Subscribe before reading the state such that no event after the state is missed
	listener := h.engine.Operations().Listen(id)
	defer listener.Close()

	h.streams.Add(1)
	defer h.streams.Add(-1)

	s := h.open(c)

	logger := h.logger.WithField("id", id)
	logger.Debug().Log("Event stream opened")
	defer logger.Debug().Log("Event stream closed")

	evt := api.OperationEvent{}

	op, err := h.engine.Operations().Get(ctx, id)
	if err != nil {
		evt.OperationID = id
		evt.State = string(engine.StateError)
		evt.Message = api.FatalMessage

		if engine.IsNotFound(err) {
			evt.Message = engine.Message(err)
		} else {
			logger.Error().WithError(err).Log("Reading the operation failed")
		}

		s.emit(evt)

		return nil
	}

	evt.UnmarshalState(op)

	if err := s.emit(evt); err != nil || evt.Final() {
		return nil
	}

	if err := h.follow(ctx, s, listener, true); err != nil {
		logger.Debug().WithError(err).Log("Writing the event stream failed")
	}

	return nil
}

// All streams the events of all operations
// @Summary Stream the events of all operations
// @Description The stream starts with the state of every unfinished operation and then follows the events of all operations.
// @ID operation-events-all
// @Produce text/event-stream
// @Success 200 {object} api.OperationEvent
// @Router /api/operations/events [get]
func (h *EventsHandler) All(c echo.Context) error {
	ctx := c.Request().Context()

	listener := h.engine.Operations().ListenAll()
	defer listener.Close()

	h.streams.Add(1)
	defer h.streams.Add(-1)

	s := h.open(c)

	err := h.engine.Operations().Each(ctx, func(op engine.Operation) error {
		if op.State.IsFinal() {
			return nil
		}

		evt := api.OperationEvent{}
		evt.UnmarshalState(op)

		return s.emit(evt)
	})
	if err != nil {
		h.logger.Debug().WithError(err).Log("Writing the event stream failed")
		return nil
	}

	if err := h.follow(ctx, s, listener, false); err != nil {
		h.logger.Debug().WithError(err).Log("Writing the event stream failed")
	}

	return nil
}
