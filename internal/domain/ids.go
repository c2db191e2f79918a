// Package domain contains wire-level entities without behavior, just meta-data.
package domain

import "time"

type (
	UserID string
	RoomID string
	CallID string
	OrgID  string
)

// Timestamp is a server-issued instant in milliseconds since the epoch.
type Timestamp int64

func Now() Timestamp {
	return Timestamp(time.Now().UnixMilli())
}
