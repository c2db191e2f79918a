// Package session exposes typed Room and Call models over the remote state,
// kept current by scoped domain events.
package session

import (
	"context"
	"errors"

	"github.com/dkeye/Chat/internal/domain"
)

// ErrUnsupportedKind is returned by membership-changing operations on a
// direct room or call; only groups (and their business refinement) support
// them.
var ErrUnsupportedKind = errors.New("operation not supported for this kind")

// API is the REST-style boundary to the remote system. Operations either
// succeed or return the transport failure; nothing here is retried and none
// of them mutate local state. Local membership changes only when the
// corresponding inbound event arrives, so the remote stays the single source
// of truth.
type API interface {
	// SessionUser is the id the remote system issued for this session.
	SessionUser() domain.UserID

	JoinRoom(ctx context.Context, id domain.RoomID) error
	LeaveRoom(ctx context.Context, id domain.RoomID) error
	InviteToRoom(ctx context.Context, id domain.RoomID, user domain.UserID) error
	SendMessage(ctx context.Context, id domain.RoomID, body string) (domain.Message, error)
	SendCustom(ctx context.Context, id domain.RoomID, body, subtag string, msgCtx map[string]string) (domain.Message, error)
	SetMark(ctx context.Context, id domain.RoomID, ts domain.Timestamp) error
	SendTyping(ctx context.Context, id domain.RoomID) error
	RoomHistory(ctx context.Context, id domain.RoomID, offset, limit int) (domain.Paginated, error)
	RoomHistoryLast(ctx context.Context, id domain.RoomID, count int) (domain.Paginated, error)
	RoomUsers(ctx context.Context, id domain.RoomID) ([]domain.UserID, error)

	JoinCall(ctx context.Context, id domain.CallID) error
	LeaveCall(ctx context.Context, id domain.CallID, reason string) error
	InviteToCall(ctx context.Context, id domain.CallID, user domain.UserID) error
	AnswerCall(ctx context.Context, id domain.CallID) error
	RejectCall(ctx context.Context, id domain.CallID, reason string) error
	PullCall(ctx context.Context, id domain.CallID) error
	CallHistory(ctx context.Context, id domain.CallID, offset, limit int) (domain.Paginated, error)
	CallUsers(ctx context.Context, id domain.CallID) ([]domain.UserID, error)
}
