// Package rtc supervises one signaling exchange per remote peer of a call
// and keeps one live connection per current participant.
package rtc

import (
	"context"
	"fmt"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/pion/webrtc/v4"
)

// SignalingPort carries locally produced descriptions and candidates to the
// remote peer. Fire-and-confirm: failures are returned, never retried here.
type SignalingPort interface {
	SendDescription(ctx context.Context, callID domain.CallID, peerID domain.UserID, desc webrtc.SessionDescription) error
	SendCandidate(ctx context.Context, callID domain.CallID, peerID domain.UserID, candidate webrtc.ICECandidateInit) error
}

// PeerConnection is the externally supplied engine doing the actual
// ICE/DTLS/SRTP work. The production implementation wraps pion; tests
// substitute a fake.
type PeerConnection interface {
	CreateOffer() (webrtc.SessionDescription, error)
	CreateAnswer() (webrtc.SessionDescription, error)
	SetLocalDescription(webrtc.SessionDescription) error
	SetRemoteDescription(webrtc.SessionDescription) error
	AddICECandidate(webrtc.ICECandidateInit) error

	AddTrack(webrtc.TrackLocal) error
	RemoveTrack(webrtc.TrackLocal) error
	ReplaceTrackByKind(webrtc.TrackLocal) error

	OnICECandidate(func(webrtc.ICECandidateInit))
	OnTrack(func(*webrtc.TrackRemote))
	OnNegotiationNeeded(func())
	OnConnectionStateChange(func(webrtc.PeerConnectionState))

	Close() error
}

// SignalingError marks a failed step of the offer/answer/candidate exchange.
type SignalingError struct {
	Op  string
	Err error
}

func (e *SignalingError) Error() string {
	return fmt.Sprintf("signaling: %s: %v", e.Op, e.Err)
}

func (e *SignalingError) Unwrap() error { return e.Err }

func signalingErr(op string, err error) error {
	return &SignalingError{Op: op, Err: err}
}
