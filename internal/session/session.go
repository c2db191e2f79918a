package session

import (
	"github.com/dkeye/Chat/internal/domain"
	"github.com/dkeye/Chat/internal/events"
	"github.com/dkeye/Chat/internal/rtc"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// Session is the top-level client object: it owns the event handler, the API
// boundary and the materialized Room/Call models, one per remote id.
type Session struct {
	api     API
	signal  rtc.SignalingPort
	handler *events.Handler

	webrtcConfig webrtc.Configuration
	connConfig   rtc.Config

	rooms map[domain.RoomID]*Room
	calls map[domain.CallID]*Call
}

func New(api API, signal rtc.SignalingPort, handler *events.Handler, webrtcConfig webrtc.Configuration, connConfig rtc.Config) *Session {
	s := &Session{
		api:          api,
		signal:       signal,
		handler:      handler,
		webrtcConfig: webrtcConfig,
		connConfig:   connConfig,
		rooms:        make(map[domain.RoomID]*Room),
		calls:        make(map[domain.CallID]*Call),
	}

	// Created events carry the whole record, so the model exists (and its
	// scoped subscriptions are live) before any follow-up event arrives.
	handler.OnEvent(events.TagRoomCreated, func(e events.Event) {
		s.Room(e.(events.RoomCreated).Room)
	})
	handler.OnEvent(events.TagCallCreated, func(e events.Event) {
		s.Call(e.(events.CallCreated).Call)
	})

	return s
}

func (s *Session) Handler() *events.Handler { return s.handler }

// OnError observes every error-tag event: unhandled events, invalid payloads
// and anything a model surfaced during dispatch.
func (s *Session) OnError(fn func(events.Error)) {
	s.handler.OnEvent(events.TagError, func(e events.Event) {
		fn(e.(events.Error))
	})
}

// Room materializes (or returns the existing) model for a wire record.
func (s *Session) Room(record domain.Room) *Room {
	if room, ok := s.rooms[record.ID]; ok {
		return room
	}
	room := NewRoom(record, s.api, s.handler)
	s.rooms[record.ID] = room
	return room
}

// Call materializes (or returns the existing) model for a wire record,
// wiring a fresh connection pool backed by the production peer connection.
func (s *Session) Call(record domain.Call) *Call {
	if call, ok := s.calls[record.ID]; ok {
		return call
	}

	pool := rtc.NewPool(record.ID, s.handler, func(peerID domain.UserID) (*rtc.Connection, error) {
		pc, err := rtc.NewPeerConnection(s.webrtcConfig)
		if err != nil {
			return nil, err
		}
		return rtc.NewConnection(record.ID, peerID, pc, s.signal, s.connConfig), nil
	})

	call := NewCall(record, s.api, s.handler, pool)
	s.calls[record.ID] = call
	return call
}

// DropRoom destroys a room model and forgets it.
func (s *Session) DropRoom(id domain.RoomID) {
	if room, ok := s.rooms[id]; ok {
		room.Destroy()
		delete(s.rooms, id)
	}
}

// DropCall destroys a call model, its subscriptions and connections.
func (s *Session) DropCall(id domain.CallID) {
	if call, ok := s.calls[id]; ok {
		call.Destroy()
		delete(s.calls, id)
	}
}

func (s *Session) RoomCount() int { return len(s.rooms) }
func (s *Session) CallCount() int { return len(s.calls) }

// Close tears down every model.
func (s *Session) Close() {
	for id := range s.calls {
		s.DropCall(id)
	}
	for id := range s.rooms {
		s.DropRoom(id)
	}
	log.Info().Str("module", "session").Msg("session closed")
}
