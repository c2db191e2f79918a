package session_test

import (
	"testing"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/dkeye/Chat/internal/events"
	"github.com/dkeye/Chat/internal/rtc"
	rtcmocks "github.com/dkeye/Chat/internal/rtc/mocks"
	"github.com/dkeye/Chat/internal/session"
	"github.com/dkeye/Chat/internal/session/mocks"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T) *session.Session {
	h := events.NewHandler(nil)
	return session.New(mocks.NewMockAPI(t), rtcmocks.NewMockSignalingPort(t), h, rtc.DefaultWebRTCConfig(), rtc.Config{})
}

func TestSession_Room(t *testing.T) {
	t.Parallel()

	t.Run("it should return the same model for the same id", func(t *testing.T) {
		s := newSession(t)

		first := s.Room(domain.Room{ID: "r-1", Name: "general"})
		second := s.Room(domain.Room{ID: "r-1", Name: "renamed"})

		require.Same(t, first, second)
		require.Equal(t, "general", second.Name(), "the cached model wins")
		require.Equal(t, 1, s.RoomCount())
	})

	t.Run("it should materialize from a created event", func(t *testing.T) {
		s := newSession(t)

		s.Handler().Notify(events.RoomCreated{Room: domain.Room{ID: "r-9", Users: []domain.UserID{"alice"}}}, nil)
		require.Equal(t, 1, s.RoomCount())

		room := s.Room(domain.Room{ID: "r-9"})
		require.Equal(t, []domain.UserID{"alice"}, room.Users(), "the event's record populated the model")
	})

	t.Run("it should stop delivery once dropped", func(t *testing.T) {
		s := newSession(t)

		var joins int
		room := s.Room(domain.Room{ID: "r-1", Users: []domain.UserID{"alice"}})
		room.OnJoined(func(events.RoomJoined) { joins++ })

		s.Handler().Notify(events.RoomJoined{RoomID: "r-1", AuthorID: "bob"}, nil)
		require.Equal(t, 1, joins)

		s.DropRoom("r-1")
		require.Zero(t, s.RoomCount())

		s.Handler().Notify(events.RoomJoined{RoomID: "r-1", AuthorID: "carol"}, func(events.Event) {})
		require.Equal(t, 1, joins)
	})
}

func TestSession_Call(t *testing.T) {
	t.Parallel()

	t.Run("it should return the same model for the same id", func(t *testing.T) {
		s := newSession(t)

		first := s.Call(domain.Call{ID: "c-1"})
		second := s.Call(domain.Call{ID: "c-1"})

		require.Same(t, first, second)
		require.Equal(t, 1, s.CallCount())
	})

	t.Run("it should materialize from a created event", func(t *testing.T) {
		s := newSession(t)

		s.Handler().Notify(events.CallCreated{Call: domain.Call{ID: "c-9"}}, nil)
		require.Equal(t, 1, s.CallCount())
	})

	t.Run("it should stop delivery once dropped", func(t *testing.T) {
		s := newSession(t)

		var lefts int
		call := s.Call(domain.Call{ID: "c-1", Users: []domain.UserID{"alice", "bob"}})
		call.OnLeft(func(events.CallAction) { lefts++ })

		s.Handler().Notify(events.CallAction{CallID: "c-1", Action: events.ActionLeft, UserID: "bob"}, nil)
		require.Equal(t, 1, lefts)

		s.DropCall("c-1")
		require.Zero(t, s.CallCount())

		s.Handler().Notify(events.CallAction{CallID: "c-1", Action: events.ActionLeft, UserID: "alice"}, func(events.Event) {})
		require.Equal(t, 1, lefts)
	})
}

func TestSession_OnError(t *testing.T) {
	t.Parallel()

	s := newSession(t)
	var got []events.Error
	s.OnError(func(e events.Error) { got = append(got, e) })

	s.Handler().Notify(events.RoomTyping{RoomID: "nowhere"}, nil)

	require.Len(t, got, 1)
	require.Equal(t, "unhandled event", got[0].Reason)
}

func TestSession_Close(t *testing.T) {
	t.Parallel()

	s := newSession(t)
	s.Room(domain.Room{ID: "r-1"})
	s.Call(domain.Call{ID: "c-1"})

	s.Close()

	require.Zero(t, s.RoomCount())
	require.Zero(t, s.CallCount())
}
