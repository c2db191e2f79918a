package session

import (
	"context"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/dkeye/Chat/internal/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Room is the locally authoritative view of one conversation. Membership and
// marks mirror remote truth and change only on inbound scoped events; the
// mutating operations below go through the API and wait for their own echo.
//
// Every callback slot holds at most one callback; registering again replaces
// the previous one and a nil slot is simply skipped.
type Room struct {
	id      domain.RoomID
	name    string
	created domain.Timestamp
	kind    domain.Kind
	users   []domain.UserID
	marks   map[domain.UserID]domain.Timestamp

	api     API
	handler *events.Handler
	subID   string

	onJoined  func(events.RoomJoined)
	onLeft    func(events.RoomLeft)
	onInvited func(events.RoomInvited)
	onMessage func(events.RoomMessage)
	onCustom  map[string]func(events.RoomCustom)
	onMarked  func(events.RoomMark)
	onTyping  func(events.RoomTyping)
}

func NewRoom(record domain.Room, api API, handler *events.Handler) *Room {
	r := &Room{
		id:       record.ID,
		name:     record.Name,
		created:  record.Created,
		kind:     record.Kind(),
		users:    append([]domain.UserID(nil), record.Users...),
		marks:    make(map[domain.UserID]domain.Timestamp, len(record.Marks)),
		api:      api,
		handler:  handler,
		subID:    uuid.NewString(),
		onCustom: make(map[string]func(events.RoomCustom)),
	}
	for user, ts := range record.Marks {
		r.marks[user] = ts
	}
	r.defineCallbacks()

	log.Debug().Str("module", "session.room").Str("room", string(r.id)).Str("kind", r.kind.String()).Msg("room model created")
	return r
}

func (r *Room) defineCallbacks() {
	key := string(r.id)

	r.handler.OnConcreteEvent(events.TagRoomMessage, key, r.subID, func(e events.Event) {
		if r.onMessage != nil {
			r.onMessage(e.(events.RoomMessage))
		}
	})
	r.handler.OnConcreteEvent(events.TagRoomCustom, key, r.subID, func(e events.Event) {
		msg := e.(events.RoomCustom)
		if fn, ok := r.onCustom[msg.Subtag]; ok {
			fn(msg)
			return
		}
		r.handler.Notify(events.NewError("unrecognized custom message subtag", msg), nil)
	})
	r.handler.OnConcreteEvent(events.TagRoomMark, key, r.subID, func(e events.Event) {
		m := e.(events.RoomMark)
		r.marks[m.AuthorID] = m.Timestamp
		if r.onMarked != nil {
			r.onMarked(m)
		}
	})
	r.handler.OnConcreteEvent(events.TagRoomTyping, key, r.subID, func(e events.Event) {
		if r.onTyping != nil {
			r.onTyping(e.(events.RoomTyping))
		}
	})

	// Direct rooms have fixed membership; only groups track join/leave.
	if r.kind == domain.KindDirect {
		return
	}
	r.handler.OnConcreteEvent(events.TagRoomJoined, key, r.subID, func(e events.Event) {
		joined := e.(events.RoomJoined)
		r.users = addUser(r.users, joined.AuthorID)
		if r.onJoined != nil {
			r.onJoined(joined)
		}
	})
	r.handler.OnConcreteEvent(events.TagRoomLeft, key, r.subID, func(e events.Event) {
		left := e.(events.RoomLeft)
		r.users = removeUser(r.users, left.AuthorID)
		if r.onLeft != nil {
			r.onLeft(left)
		}
	})
	r.handler.OnConcreteEvent(events.TagRoomInvited, key, r.subID, func(e events.Event) {
		if r.onInvited != nil {
			r.onInvited(e.(events.RoomInvited))
		}
	})
}

func (r *Room) ID() domain.RoomID         { return r.id }
func (r *Room) Name() string              { return r.name }
func (r *Room) Kind() domain.Kind         { return r.kind }
func (r *Room) Created() domain.Timestamp { return r.created }

// Users is the cached membership; no remote round-trip.
func (r *Room) Users() []domain.UserID {
	return append([]domain.UserID(nil), r.users...)
}

// Mark is user's cached last-read timestamp, zero when never marked.
func (r *Room) Mark(user domain.UserID) domain.Timestamp {
	return r.marks[user]
}

// SetMark records the local user's read position and reports it upstream.
func (r *Room) SetMark(ctx context.Context, ts domain.Timestamp) error {
	r.marks[r.api.SessionUser()] = ts
	return r.api.SetMark(ctx, r.id, ts)
}

func (r *Room) Send(ctx context.Context, body string) (domain.Message, error) {
	return r.api.SendMessage(ctx, r.id, body)
}

func (r *Room) SendCustom(ctx context.Context, body, subtag string, msgCtx map[string]string) (domain.Message, error) {
	return r.api.SendCustom(ctx, r.id, body, subtag, msgCtx)
}

func (r *Room) IndicateTyping(ctx context.Context) error {
	return r.api.SendTyping(ctx, r.id)
}

func (r *Room) GetMessages(ctx context.Context, offset, limit int) (domain.Paginated, error) {
	return r.api.RoomHistory(ctx, r.id, offset, limit)
}

func (r *Room) GetLatestMessages(ctx context.Context, count int) (domain.Paginated, error) {
	return r.api.RoomHistoryLast(ctx, r.id, count)
}

func (r *Room) GetUsers(ctx context.Context) ([]domain.UserID, error) {
	if r.kind != domain.KindDirect {
		// Group membership is cached here; no need to fetch it.
		return r.Users(), nil
	}
	return r.api.RoomUsers(ctx, r.id)
}

// Join enters the room. Group and business rooms only.
func (r *Room) Join(ctx context.Context) error {
	if r.kind == domain.KindDirect {
		return ErrUnsupportedKind
	}
	return r.api.JoinRoom(ctx, r.id)
}

func (r *Room) Leave(ctx context.Context) error {
	if r.kind == domain.KindDirect {
		return ErrUnsupportedKind
	}
	return r.api.LeaveRoom(ctx, r.id)
}

func (r *Room) Invite(ctx context.Context, user domain.UserID) error {
	if r.kind == domain.KindDirect {
		return ErrUnsupportedKind
	}
	return r.api.InviteToRoom(ctx, r.id, user)
}

func (r *Room) OnJoined(fn func(events.RoomJoined))   { r.onJoined = fn }
func (r *Room) OnLeft(fn func(events.RoomLeft))       { r.onLeft = fn }
func (r *Room) OnInvited(fn func(events.RoomInvited)) { r.onInvited = fn }
func (r *Room) OnMessage(fn func(events.RoomMessage)) { r.onMessage = fn }
func (r *Room) OnMarked(fn func(events.RoomMark))     { r.onMarked = fn }
func (r *Room) OnTyping(fn func(events.RoomTyping))   { r.onTyping = fn }

// OnCustom registers the callback for one application subtag.
func (r *Room) OnCustom(subtag string, fn func(events.RoomCustom)) {
	r.onCustom[subtag] = fn
}

// Destroy drops the room's event subscriptions. The model is dead afterwards.
func (r *Room) Destroy() {
	r.handler.Unregister(r.subID)
}

// addUser keeps membership a set; duplicate join echoes are tolerated.
func addUser(users []domain.UserID, user domain.UserID) []domain.UserID {
	for _, u := range users {
		if u == user {
			return users
		}
	}
	return append(users, user)
}

func removeUser(users []domain.UserID, user domain.UserID) []domain.UserID {
	kept := users[:0]
	for _, u := range users {
		if u != user {
			kept = append(kept, u)
		}
	}
	return kept
}
