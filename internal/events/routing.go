package events

// KeyFunc extracts the routing key an event of a known tag carries. The
// second result is false when the event does not actually carry the field,
// e.g. a malformed or foreign payload under a routed tag.
type KeyFunc func(Event) (string, bool)

// DefaultRouting declares, per tag, how to read the routing key out of the
// payload. Scoped dispatch consults only this table; it never guesses a
// conventionally named field.
func DefaultRouting() map[string]KeyFunc {
	return map[string]KeyFunc{
		TagRoomJoined: func(e Event) (string, bool) {
			ev, ok := e.(RoomJoined)
			return string(ev.RoomID), ok
		},
		TagRoomLeft: func(e Event) (string, bool) {
			ev, ok := e.(RoomLeft)
			return string(ev.RoomID), ok
		},
		TagRoomInvited: func(e Event) (string, bool) {
			ev, ok := e.(RoomInvited)
			return string(ev.RoomID), ok
		},
		TagRoomMessage: func(e Event) (string, bool) {
			ev, ok := e.(RoomMessage)
			return string(ev.RoomID), ok
		},
		TagRoomCustom: func(e Event) (string, bool) {
			ev, ok := e.(RoomCustom)
			return string(ev.RoomID), ok
		},
		TagRoomMark: func(e Event) (string, bool) {
			ev, ok := e.(RoomMark)
			return string(ev.RoomID), ok
		},
		TagRoomTyping: func(e Event) (string, bool) {
			ev, ok := e.(RoomTyping)
			return string(ev.RoomID), ok
		},
		TagCallAction: func(e Event) (string, bool) {
			ev, ok := e.(CallAction)
			return string(ev.CallID), ok
		},
		TagCallActiveDevice: func(e Event) (string, bool) {
			ev, ok := e.(CallActiveDevice)
			return string(ev.CallID), ok
		},
		TagCallEnd: func(e Event) (string, bool) {
			ev, ok := e.(CallEnd)
			return string(ev.CallID), ok
		},
		TagRTCDescription: func(e Event) (string, bool) {
			ev, ok := e.(RTCDescription)
			return string(ev.CallID), ok
		},
		TagRTCCandidate: func(e Event) (string, bool) {
			ev, ok := e.(RTCCandidate)
			return string(ev.CallID), ok
		},
	}
}
