package rtc_test

import (
	"sync"

	"github.com/pion/webrtc/v4"
)

// fakePeer is a scriptable stand-in for the peer-connection primitive.
type fakePeer struct {
	mu sync.Mutex

	offers  int
	answers int
	closes  int

	local      []webrtc.SessionDescription
	remote     []webrtc.SessionDescription
	candidates []webrtc.ICECandidateInit
	tracks     []webrtc.TrackLocal

	createOfferErr  error
	createAnswerErr error
	setLocalErr     error
	setRemoteErr    error

	negotiationNeeded func()
	stateChange       func(webrtc.PeerConnectionState)
	remoteTrack       func(*webrtc.TrackRemote)
	iceCandidate      func(webrtc.ICECandidateInit)
}

func (f *fakePeer) CreateOffer() (webrtc.SessionDescription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createOfferErr != nil {
		return webrtc.SessionDescription{}, f.createOfferErr
	}
	f.offers++
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0 offer"}, nil
}

func (f *fakePeer) CreateAnswer() (webrtc.SessionDescription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createAnswerErr != nil {
		return webrtc.SessionDescription{}, f.createAnswerErr
	}
	f.answers++
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0 answer"}, nil
}

func (f *fakePeer) SetLocalDescription(d webrtc.SessionDescription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setLocalErr != nil {
		return f.setLocalErr
	}
	f.local = append(f.local, d)
	return nil
}

func (f *fakePeer) SetRemoteDescription(d webrtc.SessionDescription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setRemoteErr != nil {
		return f.setRemoteErr
	}
	f.remote = append(f.remote, d)
	return nil
}

func (f *fakePeer) AddICECandidate(ci webrtc.ICECandidateInit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candidates = append(f.candidates, ci)
	return nil
}

func (f *fakePeer) AddTrack(t webrtc.TrackLocal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracks = append(f.tracks, t)
	return nil
}

func (f *fakePeer) RemoveTrack(t webrtc.TrackLocal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.tracks[:0]
	for _, existing := range f.tracks {
		if existing != t {
			kept = append(kept, existing)
		}
	}
	f.tracks = kept
	return nil
}

func (f *fakePeer) ReplaceTrackByKind(t webrtc.TrackLocal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.tracks {
		if existing.Kind() == t.Kind() {
			f.tracks[i] = t
			return nil
		}
	}
	return nil
}

func (f *fakePeer) OnICECandidate(fn func(webrtc.ICECandidateInit)) { f.iceCandidate = fn }

func (f *fakePeer) OnTrack(fn func(*webrtc.TrackRemote)) { f.remoteTrack = fn }

func (f *fakePeer) OnNegotiationNeeded(fn func()) { f.negotiationNeeded = fn }

func (f *fakePeer) OnConnectionStateChange(fn func(webrtc.PeerConnectionState)) { f.stateChange = fn }

func (f *fakePeer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakePeer) offerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.offers
}

func (f *fakePeer) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

func (f *fakePeer) trackCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tracks)
}

func (f *fakePeer) currentTracks() []webrtc.TrackLocal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]webrtc.TrackLocal(nil), f.tracks...)
}

func (f *fakePeer) candidateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.candidates)
}

func (f *fakePeer) scriptSetRemoteErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setRemoteErr = err
}
