package events

import (
	"encoding/json"
	"fmt"
)

// ErrUnknownTag is returned by Decode for tags outside the enumeration.
type ErrUnknownTag struct {
	Tag string
}

func (e ErrUnknownTag) Error() string {
	return fmt.Sprintf("unknown event tag %q", e.Tag)
}

// Decode turns one raw signaling frame into a typed event. The frame is a
// flat JSON object carrying "tag" plus the payload of that tag.
func Decode(data []byte) (Event, error) {
	var env struct {
		Tag string `json:"tag"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Tag {
	case TagRoomCreated:
		return decodeAs[RoomCreated](data, env.Tag)
	case TagCallCreated:
		return decodeAs[CallCreated](data, env.Tag)
	case TagRoomJoined:
		return decodeAs[RoomJoined](data, env.Tag)
	case TagRoomLeft:
		return decodeAs[RoomLeft](data, env.Tag)
	case TagRoomInvited:
		return decodeAs[RoomInvited](data, env.Tag)
	case TagRoomMessage:
		return decodeAs[RoomMessage](data, env.Tag)
	case TagRoomCustom:
		return decodeAs[RoomCustom](data, env.Tag)
	case TagRoomMark:
		return decodeAs[RoomMark](data, env.Tag)
	case TagRoomTyping:
		return decodeAs[RoomTyping](data, env.Tag)
	case TagCallAction:
		return decodeAs[CallAction](data, env.Tag)
	case TagCallActiveDevice:
		return decodeAs[CallActiveDevice](data, env.Tag)
	case TagCallEnd:
		return decodeAs[CallEnd](data, env.Tag)
	case TagRTCDescription:
		return decodeAs[RTCDescription](data, env.Tag)
	case TagRTCCandidate:
		return decodeAs[RTCCandidate](data, env.Tag)
	case TagError:
		return decodeAs[Error](data, env.Tag)
	default:
		return nil, ErrUnknownTag{Tag: env.Tag}
	}
}

// Encode produces the flat wire form of an event: the payload object with
// the "tag" discriminator injected alongside it.
func Encode(e Event) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.Tag(), err)
	}

	var flat map[string]json.RawMessage
	if err := json.Unmarshal(payload, &flat); err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.Tag(), err)
	}
	flat["tag"], _ = json.Marshal(e.Tag())

	return json.Marshal(flat)
}

func decodeAs[E Event](data []byte, tag string) (Event, error) {
	var e E
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode %s: %w", tag, err)
	}
	return e, nil
}
