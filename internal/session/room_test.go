package session_test

import (
	"context"
	"testing"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/dkeye/Chat/internal/events"
	"github.com/dkeye/Chat/internal/session"
	"github.com/dkeye/Chat/internal/session/mocks"
	"github.com/stretchr/testify/require"
)

func groupRecord() domain.Room {
	return domain.Room{
		ID:    "r-1",
		Name:  "standup",
		Users: []domain.UserID{"alice"},
	}
}

func directRecord() domain.Room {
	return domain.Room{
		ID:     "r-2",
		Name:   "alice & bob",
		Users:  []domain.UserID{"alice", "bob"},
		Direct: true,
	}
}

func TestRoom_Membership(t *testing.T) {
	t.Parallel()

	t.Run("it should add a user on an inbound joined event", func(t *testing.T) {
		h := events.NewHandler(nil)
		api := mocks.NewMockAPI(t)
		room := session.NewRoom(groupRecord(), api, h)

		var got events.RoomJoined
		room.OnJoined(func(e events.RoomJoined) { got = e })

		h.Notify(events.RoomJoined{RoomID: "r-1", AuthorID: "bob"}, nil)
		require.Equal(t, []domain.UserID{"alice", "bob"}, room.Users())
		require.Equal(t, domain.UserID("bob"), got.AuthorID)
	})

	t.Run("it should tolerate a duplicate joined event", func(t *testing.T) {
		h := events.NewHandler(nil)
		api := mocks.NewMockAPI(t)
		room := session.NewRoom(groupRecord(), api, h)

		h.Notify(events.RoomJoined{RoomID: "r-1", AuthorID: "bob"}, nil)
		h.Notify(events.RoomJoined{RoomID: "r-1", AuthorID: "bob"}, nil)
		require.Equal(t, []domain.UserID{"alice", "bob"}, room.Users())
	})

	t.Run("it should remove a user on an inbound left event", func(t *testing.T) {
		h := events.NewHandler(nil)
		api := mocks.NewMockAPI(t)
		room := session.NewRoom(groupRecord(), api, h)

		h.Notify(events.RoomLeft{RoomID: "r-1", AuthorID: "alice"}, nil)
		require.Empty(t, room.Users())
	})

	t.Run("it should ignore events scoped to other rooms", func(t *testing.T) {
		h := events.NewHandler(nil)
		api := mocks.NewMockAPI(t)
		room := session.NewRoom(groupRecord(), api, h)

		h.Notify(events.RoomJoined{RoomID: "r-other", AuthorID: "bob"}, func(events.Event) {})
		require.Equal(t, []domain.UserID{"alice"}, room.Users())
	})

	t.Run("it should not mutate membership on remote operations", func(t *testing.T) {
		h := events.NewHandler(nil)
		api := mocks.NewMockAPI(t)
		room := session.NewRoom(groupRecord(), api, h)

		api.On("JoinRoom", context.Background(), domain.RoomID("r-1")).Return(nil).Once()
		require.NoError(t, room.Join(context.Background()))
		require.Equal(t, []domain.UserID{"alice"}, room.Users(), "membership changes only on the inbound echo")
	})
}

func TestRoom_DirectVariant(t *testing.T) {
	t.Parallel()

	h := events.NewHandler(nil)
	api := mocks.NewMockAPI(t)
	room := session.NewRoom(directRecord(), api, h)

	require.Equal(t, domain.KindDirect, room.Kind())
	require.ErrorIs(t, room.Join(context.Background()), session.ErrUnsupportedKind)
	require.ErrorIs(t, room.Leave(context.Background()), session.ErrUnsupportedKind)
	require.ErrorIs(t, room.Invite(context.Background(), "carol"), session.ErrUnsupportedKind)

	// Direct rooms do not track membership events at all.
	h.Notify(events.RoomJoined{RoomID: "r-2", AuthorID: "carol"}, func(events.Event) {})
	require.Equal(t, []domain.UserID{"alice", "bob"}, room.Users())

	// Direct membership is resolved remotely, not cached.
	api.On("RoomUsers", context.Background(), domain.RoomID("r-2")).Return([]domain.UserID{"alice", "bob"}, nil).Once()
	users, err := room.GetUsers(context.Background())
	require.NoError(t, err)
	require.Equal(t, []domain.UserID{"alice", "bob"}, users)
}

func TestRoom_Marks(t *testing.T) {
	t.Parallel()

	t.Run("it should cache marks from inbound mark events", func(t *testing.T) {
		h := events.NewHandler(nil)
		api := mocks.NewMockAPI(t)
		room := session.NewRoom(groupRecord(), api, h)

		marked := false
		room.OnMarked(func(events.RoomMark) { marked = true })

		h.Notify(events.RoomMark{RoomID: "r-1", AuthorID: "bob", Timestamp: 1234}, nil)
		require.Equal(t, domain.Timestamp(1234), room.Mark("bob"))
		require.True(t, marked)
		require.Zero(t, room.Mark("nobody"))
	})

	t.Run("it should record the local mark eagerly and report it upstream", func(t *testing.T) {
		h := events.NewHandler(nil)
		api := mocks.NewMockAPI(t)
		room := session.NewRoom(groupRecord(), api, h)

		api.On("SessionUser").Return(domain.UserID("me")).Once()
		api.On("SetMark", context.Background(), domain.RoomID("r-1"), domain.Timestamp(99)).Return(nil).Once()

		require.NoError(t, room.SetMark(context.Background(), 99))
		require.Equal(t, domain.Timestamp(99), room.Mark("me"))
	})
}

func TestRoom_Messaging(t *testing.T) {
	t.Parallel()

	t.Run("it should forward messages to the registered callback", func(t *testing.T) {
		h := events.NewHandler(nil)
		api := mocks.NewMockAPI(t)
		room := session.NewRoom(groupRecord(), api, h)

		var got events.RoomMessage
		room.OnMessage(func(e events.RoomMessage) { got = e })

		h.Notify(events.RoomMessage{RoomID: "r-1", AuthorID: "bob", Body: "hello"}, nil)
		require.Equal(t, "hello", got.Body)
	})

	t.Run("it should replace the callback slot on re-registration", func(t *testing.T) {
		h := events.NewHandler(nil)
		api := mocks.NewMockAPI(t)
		room := session.NewRoom(groupRecord(), api, h)

		first, second := 0, 0
		room.OnMessage(func(events.RoomMessage) { first++ })
		room.OnMessage(func(events.RoomMessage) { second++ })

		h.Notify(events.RoomMessage{RoomID: "r-1", Body: "hi"}, nil)
		require.Zero(t, first)
		require.Equal(t, 1, second)
	})

	t.Run("it should dispatch custom messages by subtag", func(t *testing.T) {
		h := events.NewHandler(nil)
		api := mocks.NewMockAPI(t)
		room := session.NewRoom(groupRecord(), api, h)

		var got events.RoomCustom
		room.OnCustom("poll", func(e events.RoomCustom) { got = e })

		h.Notify(events.RoomCustom{RoomID: "r-1", Subtag: "poll", Body: "1+1?"}, nil)
		require.Equal(t, "1+1?", got.Body)
	})

	t.Run("it should surface an unrecognized subtag as an error event", func(t *testing.T) {
		h := events.NewHandler(nil)
		api := mocks.NewMockAPI(t)
		session.NewRoom(groupRecord(), api, h)

		var errs []events.Error
		h.OnEvent(events.TagError, func(e events.Event) { errs = append(errs, e.(events.Error)) })

		h.Notify(events.RoomCustom{RoomID: "r-1", Subtag: "mystery"}, nil)
		require.Len(t, errs, 1)
	})

	t.Run("it should send through the api", func(t *testing.T) {
		h := events.NewHandler(nil)
		api := mocks.NewMockAPI(t)
		room := session.NewRoom(groupRecord(), api, h)

		want := domain.Message{ID: "m-1", Body: "hello"}
		api.On("SendMessage", context.Background(), domain.RoomID("r-1"), "hello").Return(want, nil).Once()

		msg, err := room.Send(context.Background(), "hello")
		require.NoError(t, err)
		require.Equal(t, want, msg)
	})

	t.Run("it should page history through the api", func(t *testing.T) {
		h := events.NewHandler(nil)
		api := mocks.NewMockAPI(t)
		room := session.NewRoom(groupRecord(), api, h)

		page := domain.Paginated{Items: []domain.Message{{ID: "m-1"}}, Offset: 10, Limit: 5}
		api.On("RoomHistory", context.Background(), domain.RoomID("r-1"), 10, 5).Return(page, nil).Once()
		api.On("RoomHistoryLast", context.Background(), domain.RoomID("r-1"), 100).Return(page, nil).Once()

		got, err := room.GetMessages(context.Background(), 10, 5)
		require.NoError(t, err)
		require.Equal(t, page, got)

		got, err = room.GetLatestMessages(context.Background(), 100)
		require.NoError(t, err)
		require.Equal(t, page, got)
	})
}

func TestRoom_Destroy(t *testing.T) {
	t.Parallel()

	h := events.NewHandler(nil)
	api := mocks.NewMockAPI(t)
	room := session.NewRoom(groupRecord(), api, h)

	room.Destroy()
	h.Notify(events.RoomJoined{RoomID: "r-1", AuthorID: "bob"}, func(events.Event) {})
	require.Equal(t, []domain.UserID{"alice"}, room.Users())
}
