// Package websocket carries the coaching conversation: one connection, one
// session, a JSON frame protocol in each direction. Frames from a single
// connection are handled sequentially; concurrency guards live in the
// session itself.
package websocket

import (
	"context"
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"radar-coach-be/internal/dto"
	"radar-coach-be/internal/pkg/logger"
	"radar-coach-be/internal/pkg/serverutils"
	"radar-coach-be/internal/service"
	"radar-coach-be/pkg/coach"
)

// ServeCoach owns one client connection for its whole life: greet, then
// read frames until the peer goes away.
func ServeCoach(conn *websocket.Conn, svc service.ICoachService, log logger.ILogger) {
	sessionID := conn.Params("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	defer svc.EndSession(sessionID)

	emit := &connEmitter{conn: conn, log: log, session: sessionID}
	svc.Welcome(sessionID, emit)

	for {
		var action dto.ClientAction
		if err := conn.ReadJSON(&action); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket", "connection dropped", map[string]interface{}{
					"session": sessionID,
					"error":   err.Error(),
				})
			}
			return
		}
		if err := serverutils.ValidateRequest(action); err != nil {
			emit.Error("Unrecognized action.")
			continue
		}

		svc.HandleAction(context.Background(), sessionID, &action, emit)
	}
}

// connEmitter adapts the service's event surface onto one live connection.
// Writes are serialized; fiber's websocket conn does not allow concurrent
// writers.
type connEmitter struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	log     logger.ILogger
	session string
}

func (e *connEmitter) send(payload interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.conn.WriteJSON(payload); err != nil {
		e.log.Warn("websocket", "write failed", map[string]interface{}{
			"session": e.session,
			"error":   err.Error(),
		})
	}
}

func (e *connEmitter) AssistantMessage(content string) {
	e.send(dto.AssistantMessageEvent{Type: dto.EventAssistantMessage, Content: content})
}

func (e *connEmitter) AssistantChunk(content string) {
	e.send(dto.AssistantChunkEvent{Type: dto.EventAssistantChunk, Content: content})
}

func (e *connEmitter) AssistantDone() {
	e.send(dto.AssistantDoneEvent{Type: dto.EventAssistantDone})
}

func (e *connEmitter) QualityUpdate(update coach.QualityUpdate) {
	e.send(dto.QualityUpdateEvent{
		Type:          dto.EventQualityUpdate,
		Completeness:  update.Completeness,
		Quality:       update.Quality,
		BlipState:     update.Draft,
		MissingFields: update.MissingFields,
		RingGaps:      update.RingGaps,
	})
}

func (e *connEmitter) SubmissionComplete(record *dto.SubmissionCompleteEvent) {
	record.Type = dto.EventSubmissionComplete
	e.send(record)
}

func (e *connEmitter) Error(message string) {
	e.send(dto.ErrorEvent{Type: dto.EventError, Message: message})
}
