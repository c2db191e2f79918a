package session

import (
	"context"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/dkeye/Chat/internal/events"
	"github.com/dkeye/Chat/internal/rtc"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// Call mirrors one call's remote state and owns the pool of peer
// connections for its current participants. Membership mutations and their
// pool side effects happen only on inbound scoped events.
type Call struct {
	id      domain.CallID
	created domain.Timestamp
	ended   domain.Timestamp
	kind    domain.Kind
	users   []domain.UserID

	api     API
	handler *events.Handler
	subID   string
	pool    *rtc.Pool

	onJoined       func(events.CallAction)
	onLeft         func(events.CallAction)
	onTransferred  func(events.CallAction)
	onOffline      func(events.CallAction)
	onOnline       func(events.CallAction)
	onInvited      func(events.CallAction)
	onAnswered     func(events.CallAction)
	onRejected     func(events.CallAction)
	onActiveDevice func(events.CallActiveDevice)
	onEnd          func(events.CallEnd)
}

func NewCall(record domain.Call, api API, handler *events.Handler, pool *rtc.Pool) *Call {
	c := &Call{
		id:      record.ID,
		created: record.Created,
		ended:   record.Ended,
		kind:    record.Kind(),
		users:   append([]domain.UserID(nil), record.Users...),
		api:     api,
		handler: handler,
		subID:   uuid.NewString(),
		pool:    pool,
	}
	c.defineCallbacks()

	log.Debug().Str("module", "session.call").Str("call", string(c.id)).Str("kind", c.kind.String()).Msg("call model created")
	return c
}

func (c *Call) defineCallbacks() {
	key := string(c.id)

	c.handler.OnConcreteEvent(events.TagCallAction, key, c.subID, func(e events.Event) {
		c.handleAction(e.(events.CallAction))
	})
	c.handler.OnConcreteEvent(events.TagCallActiveDevice, key, c.subID, func(e events.Event) {
		// The call lives on at another device; this session's connections
		// are dead weight.
		c.pool.DestroyAll()
		if c.onActiveDevice != nil {
			c.onActiveDevice(e.(events.CallActiveDevice))
		}
	})
	c.handler.OnConcreteEvent(events.TagCallEnd, key, c.subID, func(e events.Event) {
		end := e.(events.CallEnd)
		c.ended = end.Timestamp
		c.pool.DestroyAll()
		if c.onEnd != nil {
			c.onEnd(end)
		}
	})
}

func (c *Call) handleAction(action events.CallAction) {
	switch action.Action {
	case events.ActionJoined:
		c.users = addUser(c.users, action.UserID)
		if _, err := c.pool.Create(action.UserID); err != nil {
			log.Error().Err(err).Str("module", "session.call").Str("peer", string(action.UserID)).Msg("could not create peer connection")
		}
		if c.onJoined != nil {
			c.onJoined(action)
		}
	case events.ActionLeft:
		c.users = removeUser(c.users, action.UserID)
		c.pool.Destroy(action.UserID)
		if c.onLeft != nil {
			c.onLeft(action)
		}
	case events.ActionTransferred:
		// Device hand-off: same participant, fresh connection.
		c.pool.Destroy(action.UserID)
		if _, err := c.pool.Create(action.UserID); err != nil {
			log.Error().Err(err).Str("module", "session.call").Str("peer", string(action.UserID)).Msg("could not recreate peer connection")
		}
		if c.onTransferred != nil {
			c.onTransferred(action)
		}
	case events.ActionOffline:
		if c.onOffline != nil {
			c.onOffline(action)
		}
	case events.ActionOnline:
		if c.onOnline != nil {
			c.onOnline(action)
		}
	case events.ActionInvited:
		if c.onInvited != nil {
			c.onInvited(action)
		}
	case events.ActionAnswered:
		if c.onAnswered != nil {
			c.onAnswered(action)
		}
	case events.ActionRejected:
		if c.onRejected != nil {
			c.onRejected(action)
		}
	default:
		c.handler.Notify(events.NewError("invalid call action", action), nil)
	}
}

func (c *Call) ID() domain.CallID         { return c.id }
func (c *Call) Kind() domain.Kind         { return c.kind }
func (c *Call) Created() domain.Timestamp { return c.created }

// Ended is zero while the call is live.
func (c *Call) Ended() domain.Timestamp { return c.ended }

func (c *Call) Users() []domain.UserID {
	return append([]domain.UserID(nil), c.users...)
}

func (c *Call) GetUsers(ctx context.Context) ([]domain.UserID, error) {
	return c.Users(), nil
}

func (c *Call) GetMessages(ctx context.Context, offset, limit int) (domain.Paginated, error) {
	return c.api.CallHistory(ctx, c.id, offset, limit)
}

// Answer accepts an incoming call, attaching the given local tracks first so
// the answer's exchange already carries the media.
func (c *Call) Answer(ctx context.Context, tracks ...webrtc.TrackLocal) error {
	c.addTracks(tracks)
	return c.api.AnswerCall(ctx, c.id)
}

func (c *Call) Reject(ctx context.Context, reason string) error {
	return c.api.RejectCall(ctx, c.id, reason)
}

// Pull moves an active call of the local user onto this device.
func (c *Call) Pull(ctx context.Context, tracks ...webrtc.TrackLocal) error {
	c.addTracks(tracks)
	return c.api.PullCall(ctx, c.id)
}

// Leave hangs up locally; connections are dropped immediately and the
// membership change arrives back as a left event.
func (c *Call) Leave(ctx context.Context, reason string) error {
	c.pool.DestroyAll()
	return c.api.LeaveCall(ctx, c.id, reason)
}

// Join enters a group or business call.
func (c *Call) Join(ctx context.Context, tracks ...webrtc.TrackLocal) error {
	if c.kind == domain.KindDirect {
		return ErrUnsupportedKind
	}
	c.addTracks(tracks)
	return c.api.JoinCall(ctx, c.id)
}

func (c *Call) Invite(ctx context.Context, user domain.UserID) error {
	if c.kind == domain.KindDirect {
		return ErrUnsupportedKind
	}
	return c.api.InviteToCall(ctx, c.id, user)
}

func (c *Call) AddTrack(track webrtc.TrackLocal)    { c.pool.AddTrack(track) }
func (c *Call) RemoveTrack(track webrtc.TrackLocal) { c.pool.RemoveTrack(track) }

// ReplaceTrackByKind swaps the outgoing track of the same kind on every peer
// connection, e.g. on camera change.
func (c *Call) ReplaceTrackByKind(track webrtc.TrackLocal) { c.pool.ReplaceTrackByKind(track) }

func (c *Call) OnRemoteTrack(fn func(domain.UserID, *webrtc.TrackRemote)) {
	c.pool.OnRemoteTrack(fn)
}

func (c *Call) OnJoined(fn func(events.CallAction))             { c.onJoined = fn }
func (c *Call) OnLeft(fn func(events.CallAction))               { c.onLeft = fn }
func (c *Call) OnTransferred(fn func(events.CallAction))        { c.onTransferred = fn }
func (c *Call) OnOffline(fn func(events.CallAction))            { c.onOffline = fn }
func (c *Call) OnOnline(fn func(events.CallAction))             { c.onOnline = fn }
func (c *Call) OnInvited(fn func(events.CallAction))            { c.onInvited = fn }
func (c *Call) OnAnswered(fn func(events.CallAction))           { c.onAnswered = fn }
func (c *Call) OnRejected(fn func(events.CallAction))           { c.onRejected = fn }
func (c *Call) OnActiveDevice(fn func(events.CallActiveDevice)) { c.onActiveDevice = fn }
func (c *Call) OnEnd(fn func(events.CallEnd))                   { c.onEnd = fn }

// Pool exposes the connection pool, mainly for inspection.
func (c *Call) Pool() *rtc.Pool { return c.pool }

// Destroy drops subscriptions and every peer connection.
func (c *Call) Destroy() {
	c.handler.Unregister(c.subID)
	c.pool.Close()
}

func (c *Call) addTracks(tracks []webrtc.TrackLocal) {
	for _, t := range tracks {
		c.pool.AddTrack(t)
	}
}
