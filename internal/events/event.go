// Package events defines the domain events delivered by the signaling feed
// and the dispatcher that fans them out to subscribers.
package events

import (
	"github.com/dkeye/Chat/internal/domain"
	"github.com/pion/webrtc/v4"
)

// Event is a single tagged message describing something that happened
// remotely. Tags are a closed enumeration; every event carries exactly one.
type Event interface {
	Tag() string
	EventID() string
}

const (
	TagError            = "error"
	TagRoomCreated      = "room_created"
	TagCallCreated      = "call_created"
	TagRoomJoined       = "room_joined"
	TagRoomLeft         = "room_left"
	TagRoomInvited      = "room_invited"
	TagRoomMessage      = "room_message"
	TagRoomCustom       = "room_custom"
	TagRoomMark         = "room_mark"
	TagRoomTyping       = "room_typing"
	TagCallAction       = "call_action"
	TagCallActiveDevice = "call_active_device"
	TagCallEnd          = "call_end"
	TagRTCDescription   = "rtc_description"
	TagRTCCandidate     = "rtc_candidate"
)

// Call action sub-tags carried inside the call_action envelope.
const (
	ActionJoined      = "joined"
	ActionLeft        = "left"
	ActionTransferred = "transferred"
	ActionOffline     = "offline"
	ActionOnline      = "online"
	ActionInvited     = "invited"
	ActionAnswered    = "answered"
	ActionRejected    = "rejected"
)

// header carries the fields every inbound event shares.
type header struct {
	ID string `json:"eventId"`
}

func (h header) EventID() string { return h.ID }

// RoomCreated announces a freshly created room this session belongs to; the
// full record rides along so a model can be materialized without a fetch.
type RoomCreated struct {
	header
	Room domain.Room `json:"room"`
}

func (RoomCreated) Tag() string { return TagRoomCreated }

// CallCreated announces a call this session was just placed into.
type CallCreated struct {
	header
	Call domain.Call `json:"call"`
}

func (CallCreated) Tag() string { return TagCallCreated }

type RoomJoined struct {
	header
	RoomID    domain.RoomID    `json:"roomId"`
	AuthorID  domain.UserID    `json:"authorId"`
	Timestamp domain.Timestamp `json:"timestamp"`
}

func (RoomJoined) Tag() string { return TagRoomJoined }

type RoomLeft struct {
	header
	RoomID    domain.RoomID    `json:"roomId"`
	AuthorID  domain.UserID    `json:"authorId"`
	Reason    string           `json:"reason,omitempty"`
	Timestamp domain.Timestamp `json:"timestamp"`
}

func (RoomLeft) Tag() string { return TagRoomLeft }

type RoomInvited struct {
	header
	RoomID   domain.RoomID `json:"roomId"`
	AuthorID domain.UserID `json:"authorId"`
	Invitee  domain.UserID `json:"invitee"`
}

func (RoomInvited) Tag() string { return TagRoomInvited }

type RoomMessage struct {
	header
	RoomID    domain.RoomID    `json:"roomId"`
	MessageID string           `json:"messageId"`
	AuthorID  domain.UserID    `json:"authorId"`
	Body      string           `json:"body"`
	Timestamp domain.Timestamp `json:"timestamp"`
}

func (RoomMessage) Tag() string { return TagRoomMessage }

// RoomCustom is an application-defined message; Subtag selects the consumer
// callback.
type RoomCustom struct {
	header
	RoomID    domain.RoomID     `json:"roomId"`
	AuthorID  domain.UserID     `json:"authorId"`
	Subtag    string            `json:"subtag"`
	Body      string            `json:"body"`
	Context   map[string]string `json:"context,omitempty"`
	Timestamp domain.Timestamp  `json:"timestamp"`
}

func (RoomCustom) Tag() string { return TagRoomCustom }

type RoomMark struct {
	header
	RoomID    domain.RoomID    `json:"roomId"`
	AuthorID  domain.UserID    `json:"authorId"`
	Timestamp domain.Timestamp `json:"timestamp"`
}

func (RoomMark) Tag() string { return TagRoomMark }

type RoomTyping struct {
	header
	RoomID   domain.RoomID `json:"roomId"`
	AuthorID domain.UserID `json:"authorId"`
}

func (RoomTyping) Tag() string { return TagRoomTyping }

// CallAction is the scoped envelope for membership and lifecycle changes on a
// call. Action selects the concrete meaning; unknown actions are surfaced as
// an error event by the call model.
type CallAction struct {
	header
	CallID    domain.CallID    `json:"callId"`
	Action    string           `json:"action"`
	UserID    domain.UserID    `json:"userId"`
	Invitee   domain.UserID    `json:"invitee,omitempty"`
	Reason    string           `json:"reason,omitempty"`
	Timestamp domain.Timestamp `json:"timestamp"`
}

func (CallAction) Tag() string { return TagCallAction }

// CallActiveDevice signals the call moved to another device of the local
// user; all peer connections of this session must be dropped.
type CallActiveDevice struct {
	header
	CallID   domain.CallID `json:"callId"`
	DeviceID string        `json:"deviceId"`
}

func (CallActiveDevice) Tag() string { return TagCallActiveDevice }

type CallEnd struct {
	header
	CallID    domain.CallID    `json:"callId"`
	Reason    string           `json:"reason,omitempty"`
	Timestamp domain.Timestamp `json:"timestamp"`
}

func (CallEnd) Tag() string { return TagCallEnd }

// RTCDescription delivers a remote SDP offer or answer for one peer of a call.
type RTCDescription struct {
	header
	CallID      domain.CallID             `json:"callId"`
	PeerID      domain.UserID             `json:"peerId"`
	Description webrtc.SessionDescription `json:"description"`
}

func (RTCDescription) Tag() string { return TagRTCDescription }

type RTCCandidate struct {
	header
	CallID    domain.CallID           `json:"callId"`
	PeerID    domain.UserID           `json:"peerId"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

func (RTCCandidate) Tag() string { return TagRTCCandidate }

// Error is a synthetic event used to surface dispatch failures (unhandled
// events, invalid payloads) to error-tag subscribers instead of panicking
// across the dispatch boundary.
type Error struct {
	header
	Reason string `json:"reason"`
	Cause  Event  `json:"-"`
}

func (Error) Tag() string { return TagError }

func NewError(reason string, cause Event) Error {
	return Error{Reason: reason, Cause: cause}
}

