package rtc

import (
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

var ErrNoSenderForKind = errors.New("no sender for track kind")

// pionConn adapts *webrtc.PeerConnection to the PeerConnection interface.
// It keeps a sender per local track so tracks can be removed or replaced
// without the caller holding pion types.
type pionConn struct {
	pc *webrtc.PeerConnection

	mu      sync.Mutex
	senders map[webrtc.TrackLocal]*webrtc.RTPSender
}

// NewPeerConnection builds the production pion-backed connection.
func NewPeerConnection(cfg webrtc.Configuration) (PeerConnection, error) {
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	return &pionConn{pc: pc, senders: make(map[webrtc.TrackLocal]*webrtc.RTPSender)}, nil
}

// DefaultWebRTCConfig is a sane fallback when no ICE servers are configured.
func DefaultWebRTCConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		},
	}
}

func (c *pionConn) CreateOffer() (webrtc.SessionDescription, error) {
	return c.pc.CreateOffer(nil)
}

func (c *pionConn) CreateAnswer() (webrtc.SessionDescription, error) {
	return c.pc.CreateAnswer(nil)
}

func (c *pionConn) SetLocalDescription(desc webrtc.SessionDescription) error {
	return c.pc.SetLocalDescription(desc)
}

func (c *pionConn) SetRemoteDescription(desc webrtc.SessionDescription) error {
	return c.pc.SetRemoteDescription(desc)
}

func (c *pionConn) AddICECandidate(ci webrtc.ICECandidateInit) error {
	return c.pc.AddICECandidate(ci)
}

func (c *pionConn) AddTrack(track webrtc.TrackLocal) error {
	sender, err := c.pc.AddTrack(track)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.senders[track] = sender
	c.mu.Unlock()
	return nil
}

func (c *pionConn) RemoveTrack(track webrtc.TrackLocal) error {
	c.mu.Lock()
	sender, ok := c.senders[track]
	delete(c.senders, track)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return c.pc.RemoveTrack(sender)
}

func (c *pionConn) ReplaceTrackByKind(track webrtc.TrackLocal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for old, sender := range c.senders {
		if old.Kind() == track.Kind() {
			if err := sender.ReplaceTrack(track); err != nil {
				return err
			}
			delete(c.senders, old)
			c.senders[track] = sender
			return nil
		}
	}
	return ErrNoSenderForKind
}

func (c *pionConn) OnICECandidate(fn func(webrtc.ICECandidateInit)) {
	c.pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand != nil {
			fn(cand.ToJSON())
		}
	})
}

func (c *pionConn) OnTrack(fn func(*webrtc.TrackRemote)) {
	c.pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		log.Debug().
			Str("module", "rtc").
			Str("kind", track.Kind().String()).
			Str("track_id", track.ID()).
			Msg("remote track received")
		fn(track)
	})
}

func (c *pionConn) OnNegotiationNeeded(fn func()) {
	c.pc.OnNegotiationNeeded(fn)
}

func (c *pionConn) OnConnectionStateChange(fn func(webrtc.PeerConnectionState)) {
	c.pc.OnConnectionStateChange(fn)
}

func (c *pionConn) Close() error {
	return c.pc.Close()
}
